package testutil

import (
	"math"
	"testing"
)

func TestEnergyAndMaxAbs(t *testing.T) {
	ir := []float32{0.5, -2, 1}
	if got := Energy(ir); got != 5.25 {
		t.Errorf("Energy = %v, want 5.25", got)
	}
	if got := MaxAbs(ir); got != 2 {
		t.Errorf("MaxAbs = %v, want 2", got)
	}
	if got := MaxAbs([]float64{-0.25, 0.125}); got != 0.25 {
		t.Errorf("MaxAbs float64 = %v, want 0.25", got)
	}
}

func TestExponentialDecayReachesMinus60dB(t *testing.T) {
	h := ExponentialDecay(1000, 0.5, 1)
	if h[0] != 1 {
		t.Fatalf("h[0] = %v, want 1", h[0])
	}
	db := 20 * math.Log10(h[500])
	if math.Abs(db+60) > 0.01 {
		t.Errorf("level at rt60 = %.3f dB, want -60", db)
	}
}
