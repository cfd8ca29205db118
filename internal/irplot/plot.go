// Package irplot renders impulse responses as debug images.
package irplot

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"

	"github.com/HugoSmits86/nativewebp"
	"golang.org/x/image/draw"
)

// Supersample is the oversampling factor used before the final downscale.
const Supersample = 4

// ErrEmpty is returned for IRs without samples.
var ErrEmpty = errors.New("irplot: empty impulse response")

var (
	background = color.NRGBA{R: 18, G: 18, B: 24, A: 255}
	axis       = color.NRGBA{R: 70, G: 70, B: 80, A: 255}
	palette    = []color.NRGBA{
		{R: 90, G: 170, B: 255, A: 255},
		{R: 255, G: 120, B: 90, A: 255},
		{R: 120, G: 220, B: 120, A: 255},
		{R: 230, G: 200, B: 80, A: 255},
	}
)

// Render draws one lane per channel, each showing the min/max envelope of
// the samples that fall into a pixel column. All lanes share the global
// peak as full scale.
func Render(ir [][]float32, width, height int) (*image.NRGBA, error) {
	if len(ir) == 0 || len(ir[0]) == 0 {
		return nil, ErrEmpty
	}
	if width <= 0 || height < len(ir) {
		return nil, fmt.Errorf("irplot: invalid size %dx%d for %d channels", width, height, len(ir))
	}

	w, h := width*Supersample, height*Supersample
	big := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(big, big.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	peak := 0.0
	for _, ch := range ir {
		for _, v := range ch {
			peak = math.Max(peak, math.Abs(float64(v)))
		}
	}
	if peak == 0 {
		peak = 1
	}

	lane := h / len(ir)
	for c, data := range ir {
		top := c * lane
		mid := top + lane/2
		half := float64(lane/2 - Supersample)
		for x := 0; x < w; x++ {
			big.SetNRGBA(x, mid, axis)
		}

		col := palette[c%len(palette)]
		for x := 0; x < w; x++ {
			lo, hi := columnRange(data, x, w)
			if lo == hi {
				continue
			}
			y0 := mid - int(math.Round(maxIn(data[lo:hi])/peak*half))
			y1 := mid - int(math.Round(minIn(data[lo:hi])/peak*half))
			for y := y0; y <= y1; y++ {
				big.SetNRGBA(x, y, col)
			}
		}
	}

	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), big, big.Bounds(), draw.Src, nil)
	return dst, nil
}

// WriteWebP renders ir and writes it to path as lossless WebP.
func WriteWebP(path string, ir [][]float32, width, height int) error {
	img, err := Render(ir, width, height)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("irplot: create %s: %w", path, err)
	}
	if err := nativewebp.Encode(f, img, nil); err != nil {
		f.Close()
		return fmt.Errorf("irplot: WebP encode: %w", err)
	}
	return f.Close()
}

// columnRange returns the sample range [lo, hi) drawn in column x of w.
func columnRange(data []float32, x, w int) (int, int) {
	n := len(data)
	lo := x * n / w
	hi := (x + 1) * n / w
	if hi == lo && lo < n {
		hi = lo + 1
	}
	return lo, hi
}

func maxIn(data []float32) float64 {
	m := math.Inf(-1)
	for _, v := range data {
		m = math.Max(m, float64(v))
	}
	return math.Max(m, 0)
}

func minIn(data []float32) float64 {
	m := math.Inf(1)
	for _, v := range data {
		m = math.Min(m, float64(v))
	}
	return math.Min(m, 0)
}
