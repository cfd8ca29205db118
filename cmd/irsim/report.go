package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/cwbudde/algo-acoustics/measure/ir"
)

// clarityLimit bounds C50 in reports; a lone direct arrival has infinite
// clarity, which JSON cannot encode.
const clarityLimit = 100.0

type channelReport struct {
	Channel int     `json:"channel"`
	Silent  bool    `json:"silent,omitempty"`
	Onset   float64 `json:"onset_s"`
	RT60    float64 `json:"rt60_s"`
	EDT     float64 `json:"edt_s"`
	C50     float64 `json:"c50_db"`
	D50     float64 `json:"d50"`
}

type report struct {
	SampleRate    int             `json:"sample_rate"`
	Samples       int             `json:"samples"`
	Channels      []channelReport `json:"channels"`
	RayEfficiency *float32        `json:"ray_efficiency,omitempty"`
	SourceVisible *bool           `json:"source_visible,omitempty"`
}

func newReport(data [][]float32, sampleRate int) (*report, error) {
	metrics, err := ir.NewAnalyzer(float64(sampleRate)).AnalyzeChannels(data)
	if err != nil {
		return nil, err
	}
	r := &report{SampleRate: sampleRate, Samples: len(data[0])}
	for ch, m := range metrics {
		r.Channels = append(r.Channels, channelReport{
			Channel: ch,
			Silent:  m.Silent,
			Onset:   m.Onset,
			RT60:    m.RT60,
			EDT:     m.EDT,
			C50:     math.Max(-clarityLimit, math.Min(clarityLimit, m.C50)),
			D50:     m.D50,
		})
	}
	return r, nil
}

func (r *report) write(w io.Writer, jsonOut bool) error {
	if jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	fmt.Fprintf(w, "%d samples at %d Hz\n", r.Samples, r.SampleRate)
	if r.RayEfficiency != nil {
		fmt.Fprintf(w, "ray efficiency: %.3f\n", *r.RayEfficiency)
	}
	if r.SourceVisible != nil {
		fmt.Fprintf(w, "source visible: %t\n", *r.SourceVisible)
	}
	for _, c := range r.Channels {
		if c.Silent {
			fmt.Fprintf(w, "ch%d: silent\n", c.Channel)
			continue
		}
		fmt.Fprintf(w, "ch%d: onset %.2f ms  RT60 %.3f s  EDT %.3f s  C50 %.1f dB  D50 %.3f\n",
			c.Channel, c.Onset*1000, c.RT60, c.EDT, c.C50, c.D50)
	}
	return nil
}
