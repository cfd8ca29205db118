// Package testutil holds assertions and signal helpers shared by the
// package tests. Impulse responses are handled as float32 channels, the
// layout the acoustic contexts produce; analysis signals stay float64.
package testutil

import (
	"math"
	"testing"
)

// Sample is the element type of a test signal.
type Sample interface {
	~float32 | ~float64
}

// RequireNearlyEqual fails t if got and want differ in length or if any
// element pair differs by more than eps.
func RequireNearlyEqual[S Sample](t *testing.T, got, want []S, eps float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range got {
		if diff := math.Abs(float64(got[i]) - float64(want[i])); diff > eps {
			t.Fatalf("index %d: got %v, want %v (diff %v > eps %v)", i, got[i], want[i], diff, eps)
		}
	}
}

// RequireChannelsNearlyEqual compares two multichannel IRs channel by
// channel.
func RequireChannelsNearlyEqual(t *testing.T, got, want [][]float32, eps float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("channel count: got %d, want %d", len(got), len(want))
	}
	for ch := range got {
		if len(got[ch]) != len(want[ch]) {
			t.Fatalf("channel %d: got %d samples, want %d", ch, len(got[ch]), len(want[ch]))
		}
		for i := range got[ch] {
			if diff := math.Abs(float64(got[ch][i]) - float64(want[ch][i])); diff > eps {
				t.Fatalf("channel %d, sample %d: got %v, want %v (diff %v > eps %v)",
					ch, i, got[ch][i], want[ch][i], diff, eps)
			}
		}
	}
}

// RequireFinite fails t if any element is NaN or Inf.
func RequireFinite[S Sample](t *testing.T, data []S) {
	t.Helper()
	for i, v := range data {
		if f := float64(v); math.IsNaN(f) || math.IsInf(f, 0) {
			t.Fatalf("index %d: non-finite value %v", i, v)
		}
	}
}
