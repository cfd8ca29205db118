//go:build !noaudio

package audio

import (
	"github.com/cwbudde/algo-acoustics/acoustics"
	"github.com/cwbudde/algo-acoustics/acoustics/raytrace"
)

// Enabled reports whether this build carries a propagation engine.
const Enabled = true

func defaultEngine() acoustics.Engine { return raytrace.NewEngine() }
