package raytrace

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	vecmath "github.com/cwbudde/algo-vecmath"
	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-acoustics/acoustics"
	"github.com/cwbudde/algo-acoustics/dsp/window"
)

const (
	headRadius    = 0.0875 // m, spherical head model
	referenceDist = 1.0    // m, distance with unit direct gain
	energyFloor   = 1e-6
	taperFraction = 0.02
	goldenAngle   = 2.39996322972865332 // pi * (3 - sqrt(5))
)

// Simulate computes the IR of every listener/source pair.
func (c *Context) Simulate() error {
	if c.closed {
		return acoustics.ErrClosed
	}
	if len(c.listeners) == 0 {
		return acoustics.ErrNoListener
	}
	if len(c.sources) == 0 {
		return acoustics.ErrNoSource
	}

	n := c.cfg.SampleCount()
	ir := make([][][]float32, 0, len(c.listeners)*len(c.sources))
	var traced, reached int

	for li := range c.listeners {
		for si := range c.sources {
			acc := newAccumulator(c.cfg.FrequencyBands, c.listeners[li].layout.ChannelCount, n)
			if c.cfg.Direct {
				c.addDirect(acc, &c.listeners[li], c.sources[si])
			}
			if c.cfg.Indirect && c.cfg.IndirectRayCount > 0 {
				hits, err := c.addIndirect(acc, &c.listeners[li], c.sources[si])
				if err != nil {
					return err
				}
				traced += c.cfg.IndirectRayCount
				reached += hits
			}

			channels, err := c.synthesize(acc)
			if err != nil {
				return err
			}
			ir = append(ir, channels)
		}
	}

	c.ir = ir
	c.efficiency = 0
	if traced > 0 {
		c.efficiency = float32(reached) / float32(traced)
	}
	return nil
}

// accumulator collects band-limited arrivals before synthesis.
type accumulator struct {
	bands [][][]float64 // [band][channel][sample]
	gains []float64
	delay []float64
}

func newAccumulator(bands, channels, samples int) *accumulator {
	a := &accumulator{
		bands: make([][][]float64, bands),
		gains: make([]float64, channels),
		delay: make([]float64, channels),
	}
	for b := range a.bands {
		a.bands[b] = make([][]float64, channels)
		for ch := range a.bands[b] {
			a.bands[b][ch] = make([]float64, samples)
		}
	}
	return a
}

// add places one arrival. amps holds the per-band amplitude, delay is in
// samples, gains/delay must already hold the spatialization for this arrival.
func (a *accumulator) add(amps []float64, delay float64) {
	for ch := range a.gains {
		idx := int(math.Round(delay + a.delay[ch]))
		if idx < 0 || a.gains[ch] == 0 {
			continue
		}
		for b, amp := range amps {
			buf := a.bands[b][ch]
			if idx < len(buf) {
				buf[idx] += amp * a.gains[ch]
			}
		}
	}
}

func (a *accumulator) merge(other *accumulator) {
	for b := range a.bands {
		for ch := range a.bands[b] {
			dst, src := a.bands[b][ch], other.bands[b][ch]
			for i := range dst {
				dst[i] += src[i]
			}
		}
	}
}

// spatialize fills a.gains and a.delay for an arrival from world direction
// dir (unit vector pointing from the listener towards the incoming sound).
func (c *Context) spatialize(a *accumulator, l *listener, dir mgl64.Vec3) {
	local := l.rot.Conjugate().Rotate(dir)
	fs := float64(c.cfg.SampleRate)

	switch l.layout.Type {
	case acoustics.ChannelLayoutBinaural:
		// Listener frame: +X right, +Y up, -Z forward.
		x := mgl64.Clamp(local.X(), -1, 1)
		a.gains[0] = math.Sqrt(0.5 * (1 - 0.8*x))
		a.gains[1] = math.Sqrt(0.5 * (1 + 0.8*x))
		itd := headRadius / acoustics.SpeedOfSound * (math.Asin(x) + x) * fs
		a.delay[0] = math.Max(itd, 0)
		a.delay[1] = math.Max(-itd, 0)
	case acoustics.ChannelLayoutAmbisonics:
		fx, fy, fz := -local.Z(), -local.X(), local.Y()
		sh := [...]float64{
			1,
			fy, fz, fx,
			math.Sqrt(3) * fx * fy,
			math.Sqrt(3) * fy * fz,
			0.5 * (3*fz*fz - 1),
			math.Sqrt(3) * fx * fz,
			math.Sqrt(3) / 2 * (fx*fx - fy*fy),
		}
		for ch := range a.gains {
			a.gains[ch] = sh[ch]
			a.delay[ch] = 0
		}
	default:
		for ch := range a.gains {
			a.gains[ch] = 1
			a.delay[ch] = 0
		}
	}
}

func (c *Context) addDirect(acc *accumulator, l *listener, src mgl64.Vec3) {
	d := src.Sub(l.pos)
	dist := d.Len()
	dir := mgl64.Vec3{0, 0, -1}
	amps := make([]float64, c.cfg.FrequencyBands)
	for b := range amps {
		amps[b] = 1
	}

	if dist > rayEpsilon {
		dir = d.Mul(1 / dist)
		eps := math.Min(dist, 1e-4)
		if c.cfg.Transmission {
			for _, tr := range crossings(c.triangles, l.pos, dir, eps, dist-eps) {
				for b := range amps {
					amps[b] *= tr.material.TransmissionAt(b)
				}
			}
		} else if anyHit(c.triangles, l.pos, dir, eps, dist-eps) {
			return
		}
	}

	meters := dist * c.cfg.UnitScale
	gain := c.cfg.GlobalVolume * referenceDist / math.Max(meters, referenceDist)
	for b := range amps {
		amps[b] *= gain
	}

	c.spatialize(acc, l, dir)
	acc.add(amps, meters/acoustics.SpeedOfSound*float64(c.cfg.SampleRate))
}

// addIndirect traces the listener rays split across ThreadCount workers.
// Workers own contiguous ray ranges and are merged in order, so the result
// does not depend on scheduling.
func (c *Context) addIndirect(acc *accumulator, l *listener, src mgl64.Vec3) (int, error) {
	rays := c.cfg.IndirectRayCount
	workers := min(c.cfg.ThreadCount, rays)
	parts := make([]*accumulator, workers)
	reached := make([]int, workers)
	channels := len(acc.gains)
	samples := len(acc.bands[0][0])

	var g errgroup.Group
	for w := range workers {
		lo, hi := w*rays/workers, (w+1)*rays/workers
		g.Go(func() error {
			part := newAccumulator(c.cfg.FrequencyBands, channels, samples)
			for i := lo; i < hi; i++ {
				if c.traceRay(part, l, src, fibonacciDir(i, rays), rays) {
					reached[w]++
				}
			}
			parts[w] = part
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("raytrace: indirect tracing: %w", err)
	}

	total := 0
	for w, part := range parts {
		acc.merge(part)
		total += reached[w]
	}
	return total, nil
}

// traceRay follows one listener ray through specular bounces and reports
// whether any bounce connected to the source.
func (c *Context) traceRay(acc *accumulator, l *listener, src, dir0 mgl64.Vec3, rays int) bool {
	bands := c.cfg.FrequencyBands
	energy := make([]float64, bands)
	amps := make([]float64, bands)
	for b := range energy {
		energy[b] = 1
	}
	norm := c.cfg.GlobalVolume / math.Sqrt(float64(rays))
	fs := float64(c.cfg.SampleRate)

	origin, dir := l.pos, dir0
	traveled := 0.0
	reached := false
	spatialized := false

	for depth := 0; depth < c.cfg.IndirectRayDepth; depth++ {
		h, ok := closestHit(c.triangles, origin, dir, rayEpsilon, math.Inf(1))
		if !ok {
			break
		}
		traveled += h.t
		p := origin.Add(dir.Mul(h.t))

		peak := 0.0
		for b := range energy {
			energy[b] *= 1 - h.tri.material.AbsorptionAt(b)
			peak = math.Max(peak, energy[b])
		}
		if peak < energyFloor {
			break
		}

		toSrc := src.Sub(p)
		ds := toSrc.Len()
		if ds > rayEpsilon && !anyHit(c.triangles, p, toSrc.Mul(1/ds), 1e-4, ds-1e-4) {
			meters := (traveled + ds) * c.cfg.UnitScale
			gain := norm * referenceDist / math.Max(meters, referenceDist)
			for b := range amps {
				amps[b] = math.Sqrt(energy[b]) * gain
			}
			if !spatialized {
				c.spatialize(acc, l, dir0)
				spatialized = true
			}
			acc.add(amps, meters/acoustics.SpeedOfSound*fs)
			reached = true
		}

		n := h.tri.normal
		if dir.Dot(n) > 0 {
			n = n.Mul(-1)
		}
		dir = dir.Sub(n.Mul(2 * dir.Dot(n))).Normalize()
		origin = p.Add(n.Mul(1e-5))
	}
	return reached
}

// fibonacciDir returns the i-th of n near-uniform directions on the sphere.
func fibonacciDir(i, n int) mgl64.Vec3 {
	y := 1 - 2*(float64(i)+0.5)/float64(n)
	r := math.Sqrt(math.Max(0, 1-y*y))
	phi := float64(i) * goldenAngle
	return mgl64.Vec3{math.Cos(phi) * r, y, math.Sin(phi) * r}
}

// synthesize merges the bands of every channel into the final IR.
func (c *Context) synthesize(acc *accumulator) ([][]float32, error) {
	channels := len(acc.gains)
	samples := len(acc.bands[0][0])
	out := make([][]float32, channels)
	taper := tailTaper(samples)

	for ch := range channels {
		merged, err := c.mergeBands(acc, ch)
		if err != nil {
			return nil, err
		}
		if len(taper) > 0 {
			vecmath.MulBlockInPlace(merged[samples-len(taper):], taper)
		}
		buf := make([]float32, samples)
		for i, v := range merged {
			buf[i] = float32(v)
		}
		out[ch] = buf
	}
	return out, nil
}

// mergeBands sums the band signals of one channel after masking each to its
// own frequency range. The masks partition the spectrum.
func (c *Context) mergeBands(acc *accumulator, ch int) ([]float64, error) {
	bands := len(acc.bands)
	samples := len(acc.bands[0][ch])
	if bands == 1 {
		return append([]float64(nil), acc.bands[0][ch]...), nil
	}

	size := nextPowerOf2(samples)
	plan, err := c.fftPlan(size)
	if err != nil {
		return nil, err
	}

	fs := float64(c.cfg.SampleRate)
	in := make([]complex128, size)
	spec := make([]complex128, size)
	sum := make([]complex128, size)

	for b := range bands {
		src := acc.bands[b][ch]
		if isZero(src) {
			continue
		}
		for i := range in {
			in[i] = 0
		}
		for i, v := range src {
			in[i] = complex(v, 0)
		}
		if err := plan.Forward(spec, in); err != nil {
			return nil, fmt.Errorf("raytrace: forward FFT failed: %w", err)
		}
		for k := range size {
			bin := k
			if bin > size/2 {
				bin = size - k
			}
			if bandOf(float64(bin)*fs/float64(size), fs/2, bands) == b {
				sum[k] += spec[k]
			}
		}
	}

	res := make([]complex128, size)
	if err := plan.Inverse(res, sum); err != nil {
		return nil, fmt.Errorf("raytrace: inverse FFT failed: %w", err)
	}
	out := make([]float64, samples)
	for i := range out {
		out[i] = real(res[i])
	}
	return out, nil
}

func (c *Context) fftPlan(size int) (*algofft.Plan[complex128], error) {
	if c.plan != nil && c.planSize == size {
		return c.plan, nil
	}
	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("raytrace: failed to create FFT plan: %w", err)
	}
	c.plan, c.planSize = plan, size
	return plan, nil
}

// bandOf returns the octave-spaced band containing freq. Band b >= 1 starts at
// nyquist / 2^(bands-b); band 0 covers everything below band 1.
func bandOf(freq, nyquist float64, bands int) int {
	for b := bands - 1; b >= 1; b-- {
		if freq >= nyquist/math.Exp2(float64(bands-b)) {
			return b
		}
	}
	return 0
}

// tailTaper returns the falling half of a Hann window covering the last
// samples of the IR. The final coefficient is zero.
func tailTaper(samples int) []float64 {
	m := int(float64(samples) * taperFraction)
	if m < 2 {
		return nil
	}
	w, err := window.Hann(2*m + 1)
	if err != nil {
		return nil
	}
	return w[m+1:]
}

func nextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func isZero(buf []float64) bool {
	for _, v := range buf {
		if v != 0 {
			return false
		}
	}
	return true
}
