//go:build noaudio

package audio

import "github.com/cwbudde/algo-acoustics/acoustics"

// Enabled reports whether this build carries a propagation engine.
const Enabled = false

func defaultEngine() acoustics.Engine { return nil }
