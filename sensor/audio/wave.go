package audio

import (
	"errors"
	"fmt"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	waveBitDepth  = 24
	wavePCMFormat = 1
	fullScale     = 1<<(waveBitDepth-1) - 1
)

var errEmptyIR = errors.New("audio: empty impulse response")

// writeWave writes ir as interleaved 24-bit PCM. IRs that exceed full scale
// are normalized to their peak; quieter IRs are written unchanged.
func writeWave(path string, ir [][]float32, sampleRate int) error {
	if len(ir) == 0 || len(ir[0]) == 0 {
		return errEmptyIR
	}
	channels, samples := len(ir), len(ir[0])
	for ch, data := range ir {
		if len(data) != samples {
			return fmt.Errorf("audio: channel %d has %d samples, want %d", ch, len(data), samples)
		}
	}

	gain := 1.0
	if peak := peakAbs(ir); peak > 1 {
		gain = 1 / peak
	}

	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           make([]int, channels*samples),
		SourceBitDepth: waveBitDepth,
	}
	for i := 0; i < samples; i++ {
		for ch := range ir {
			buf.Data[i*channels+ch] = quantize(float64(ir[ch][i]) * gain)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("audio: create %s: %w", path, err)
	}
	enc := wav.NewEncoder(f, buf.Format.SampleRate, waveBitDepth, channels, wavePCMFormat)
	if err := enc.Write(buf); err != nil {
		f.Close()
		return fmt.Errorf("audio: encode %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("audio: finish %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("audio: close %s: %w", path, err)
	}
	return nil
}

// ReadIRWave decodes a PCM WAV file into channel-major float samples in
// [-1, 1].
func ReadIRWave(path string) ([][]float32, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("audio: open %s: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("audio: %s is not a valid WAV file", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("audio: decode %s: %w", path, err)
	}

	channels := int(dec.NumChans)
	if channels == 0 {
		return nil, 0, fmt.Errorf("audio: %s has no channels", path)
	}
	scale := 1 / float64(int(1)<<(dec.BitDepth-1)-1)
	samples := len(buf.Data) / channels
	ir := make([][]float32, channels)
	for ch := range ir {
		ir[ch] = make([]float32, samples)
		for i := range ir[ch] {
			ir[ch][i] = float32(float64(buf.Data[i*channels+ch]) * scale)
		}
	}
	return ir, int(dec.SampleRate), nil
}

func peakAbs(ir [][]float32) float64 {
	var peak float64
	for _, ch := range ir {
		for _, v := range ch {
			peak = math.Max(peak, math.Abs(float64(v)))
		}
	}
	return peak
}

func quantize(v float64) int {
	v = math.Max(-1, math.Min(1, v))
	return int(math.Round(v * fullScale))
}
