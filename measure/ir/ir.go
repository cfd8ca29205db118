package ir

import (
	"errors"
	"fmt"
	"math"
)

// Errors returned by the analyzer.
var (
	ErrEmptyIR           = errors.New("ir: impulse response is empty")
	ErrInvalidSampleRate = errors.New("ir: sample rate must be positive")
	ErrNoDecay           = errors.New("ir: insufficient decay for RT calculation")
)

const (
	decayFloorDB = -200
	onsetRatio   = 0.1 // -20 dB below peak
)

// Metrics are the parameters of one IR channel. Times are in seconds.
type Metrics struct {
	RT60       float64
	EDT        float64
	T20        float64
	T30        float64
	C50        float64 // dB
	C80        float64 // dB
	D50        float64 // 0..1
	D80        float64 // 0..1
	CenterTime float64
	Onset      float64 // first arrival above -20 dB of the peak
	PeakIndex  int
	Silent     bool // all samples are zero; other fields are unset
}

// Analyzer computes IR parameters at a fixed sample rate.
type Analyzer struct {
	SampleRate float64
}

// NewAnalyzer returns an analyzer for IRs sampled at sampleRate.
func NewAnalyzer(sampleRate float64) *Analyzer {
	return &Analyzer{SampleRate: sampleRate}
}

// Analyze computes every parameter of a single channel. Energy parameters
// are measured from the absolute peak onward.
func (a *Analyzer) Analyze(ir []float64) (Metrics, error) {
	if len(ir) == 0 {
		return Metrics{}, ErrEmptyIR
	}
	if a.SampleRate <= 0 {
		return Metrics{}, ErrInvalidSampleRate
	}

	peak, peakVal := 0, 0.0
	for i, v := range ir {
		if av := math.Abs(v); av > peakVal {
			peak, peakVal = i, av
		}
	}
	if peakVal == 0 {
		return Metrics{Silent: true}, nil
	}

	onset := 0
	for i, v := range ir {
		if math.Abs(v) >= peakVal*onsetRatio {
			onset = i
			break
		}
	}

	tail := ir[peak:]
	decay := schroeder(tail)
	m := Metrics{
		PeakIndex:  peak,
		Onset:      float64(onset) / a.SampleRate,
		CenterTime: a.centerTime(tail),
		EDT:        a.reverbTime(decay, 0, -10),
		T20:        a.reverbTime(decay, -5, -25),
		T30:        a.reverbTime(decay, -5, -35),
	}
	m.C50, m.D50 = a.earlyLate(tail, 0.050)
	m.C80, m.D80 = a.earlyLate(tail, 0.080)

	m.RT60 = m.T30
	if m.RT60 == 0 {
		m.RT60 = m.T20
	}
	return m, nil
}

// AnalyzeChannels analyzes every channel of a channel-major IR.
func (a *Analyzer) AnalyzeChannels(ir [][]float32) ([]Metrics, error) {
	if len(ir) == 0 {
		return nil, ErrEmptyIR
	}
	out := make([]Metrics, len(ir))
	buf := make([]float64, 0, len(ir[0]))
	for ch, data := range ir {
		buf = buf[:0]
		for _, v := range data {
			buf = append(buf, float64(v))
		}
		m, err := a.Analyze(buf)
		if err != nil {
			return nil, fmt.Errorf("ir: channel %d: %w", ch, err)
		}
		out[ch] = m
	}
	return out, nil
}

// RT60 returns the reverberation time of ir, or ErrNoDecay when neither the
// T30 nor the T20 range is reached.
func (a *Analyzer) RT60(ir []float64) (float64, error) {
	m, err := a.Analyze(ir)
	if err != nil {
		return 0, err
	}
	if m.RT60 == 0 {
		return 0, ErrNoDecay
	}
	return m.RT60, nil
}

// DecayCurve returns the Schroeder backward integral of ir in dB relative to
// the total energy, floored at -200 dB.
func DecayCurve(ir []float64) ([]float64, error) {
	if len(ir) == 0 {
		return nil, ErrEmptyIR
	}
	return schroeder(ir), nil
}

func schroeder(ir []float64) []float64 {
	out := make([]float64, len(ir))
	var sum float64
	for i := len(ir) - 1; i >= 0; i-- {
		sum += ir[i] * ir[i]
		out[i] = sum
	}
	total := out[0]
	if total <= 0 {
		return out
	}
	for i, e := range out {
		if e <= 0 {
			out[i] = decayFloorDB
			continue
		}
		out[i] = 10 * math.Log10(e/total)
	}
	return out
}

// reverbTime fits a line to the decay curve between startDB and endDB and
// extrapolates it to -60 dB. It returns 0 when the range is not reached.
func (a *Analyzer) reverbTime(decay []float64, startDB, endDB float64) float64 {
	start, end := -1, -1
	for i, v := range decay {
		if start < 0 && v <= startDB {
			start = i
		}
		if start >= 0 && v <= endDB {
			end = i
			break
		}
	}
	if start < 0 || end <= start {
		return 0
	}

	var sx, sy, sxx, sxy float64
	n := float64(end - start + 1)
	for i := start; i <= end; i++ {
		x := float64(i - start)
		sx += x
		sy += decay[i]
		sxx += x * x
		sxy += x * decay[i]
	}
	den := n*sxx - sx*sx
	if den == 0 {
		return 0
	}
	slope := (n*sxy - sx*sy) / den // dB per sample
	if slope >= 0 {
		return 0
	}
	return -60 / (slope * a.SampleRate)
}

// earlyLate returns clarity (dB) and definition (ratio) for the boundary
// at t seconds.
func (a *Analyzer) earlyLate(ir []float64, t float64) (float64, float64) {
	boundary := int(math.Round(t * a.SampleRate))
	var early, late float64
	for i, v := range ir {
		if i < boundary {
			early += v * v
		} else {
			late += v * v
		}
	}
	total := early + late
	if total == 0 {
		return 0, 0
	}
	var clarity float64
	switch {
	case late == 0:
		clarity = math.Inf(1)
	case early == 0:
		clarity = math.Inf(-1)
	default:
		clarity = 10 * math.Log10(early/late)
	}
	return clarity, early / total
}

func (a *Analyzer) centerTime(ir []float64) float64 {
	var num, den float64
	for i, v := range ir {
		e := v * v
		num += float64(i) / a.SampleRate * e
		den += e
	}
	if den == 0 {
		return 0
	}
	return num / den
}
