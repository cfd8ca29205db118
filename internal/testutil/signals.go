package testutil

import "math"

// Energy returns the sum of squares of data.
func Energy[S Sample](data []S) float64 {
	var e float64
	for _, v := range data {
		e += float64(v) * float64(v)
	}
	return e
}

// MaxAbs returns the largest absolute value in data.
func MaxAbs[S Sample](data []S) float64 {
	var m float64
	for _, v := range data {
		m = math.Max(m, math.Abs(float64(v)))
	}
	return m
}

// ExponentialDecay generates h(t) = exp(-6.9078 t / rt60), which reaches
// -60 dB at rt60.
func ExponentialDecay(sampleRate, rt60, durationSec float64) []float64 {
	n := int(sampleRate * durationSec)
	out := make([]float64, n)
	decayRate := 6.9078 / rt60
	for i := range out {
		out[i] = math.Exp(-decayRate * float64(i) / sampleRate)
	}
	return out
}
