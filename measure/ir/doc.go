// Package ir derives ISO 3382 room-acoustic parameters from simulated
// impulse responses.
//
// All parameters come from the squared IR after the direct-sound peak:
//
//   - RT60 from the Schroeder decay curve (T30, falling back to T20)
//   - EDT from the 0 to -10 dB part of the decay
//   - C50/C80 clarity and D50/D80 definition
//   - center time and the onset of the direct sound
//
// Multichannel IRs as produced by the audio sensor are analyzed per channel:
//
//	metrics, err := ir.NewAnalyzer(44100).AnalyzeChannels(sensor.IR())
package ir
