// Package acoustics defines the contract between the audio sensor and a
// ray-based sound-propagation engine.
//
// An [Engine] allocates [Context] values. A Context is an opaque, stateful
// simulation instance: it owns uploaded geometry, the materials database,
// source and listener state and the impulse response (IR) of the most recent
// [Context.Simulate] call. Contexts are exclusively owned by one caller and are
// not safe for concurrent use.
//
// [ContextConfig] and [ChannelLayout] describe how a context is set up. Both
// validate themselves; an invalid configuration is rejected before any engine
// is touched.
//
// # Usage
//
//	cfg := acoustics.DefaultContextConfig()
//	ctx, err := engine.NewContext(cfg)
//	if err != nil { ... }
//	defer ctx.Close()
//	_ = ctx.AddListener(acoustics.DefaultChannelLayout())
//	_ = ctx.AddSource()
package acoustics
