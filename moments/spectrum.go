package moments

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-peakfit/grid"
	"github.com/cwbudde/algo-peakfit/stats/residual"
)

// Spectrum estimates [height] amplitude center width of a single line in
// (x, y). x must be a regular grid; nil means 0..len(y)-1. NaN samples
// are skipped.
//
// The width is half the area of the excess over the background divided by
// the amplitude, which is 1.25 sigma for a Gaussian line.
//
// With sign Auto the polarity is the one whose samples (above or below the
// mean) are spread over a narrower range of x.
func Spectrum(x, y []float64, vheight bool, opts ...Option) ([]float64, error) {
	n := len(y)
	if n < 2 {
		return nil, grid.ErrEmpty
	}

	if x == nil {
		x = grid.Arange(n)
	}

	if len(x) != n {
		return nil, fmt.Errorf("%w: x has %d values, y has %d", grid.ErrShape, len(x), n)
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	dx := (x[n-1] - x[0]) / float64(n-1)

	x, y = finiteSamples(x, y)
	if len(y) == 0 {
		return nil, grid.ErrEmpty
	}

	height := cfg.estimator(y)

	// Signed areas of the excess above and below the background.
	var above, below float64

	minI, maxI := 0, 0
	for i, v := range y {
		if v > height {
			above += (v - height) * dx
		}

		if v < height {
			below += (v - height) * dx
		}

		if v < y[minI] {
			minI = i
		}

		if v > y[maxI] {
			maxI = i
		}
	}

	lowAmp := y[minI] - height
	lowWidth := 0.5 * math.Abs(below/lowAmp)
	highAmp := y[maxI] - height
	highWidth := 0.5 * math.Abs(above/highAmp)

	sign := cfg.sign
	if sign == Auto {
		mean, _ := residual.Moments(y)

		var xHigh, xLow []float64
		for i, v := range y {
			if v > mean {
				xHigh = append(xHigh, x[i])
			} else if v < mean {
				xLow = append(xLow, x[i])
			}
		}

		sign = Negative
		if residual.Std(xHigh) < residual.Std(xLow) {
			sign = Positive
		}
	}

	center, amplitude, width := x[maxI], highAmp, highWidth
	if sign == Negative {
		center, amplitude, width = x[minI], lowAmp, lowWidth
	}

	if math.IsNaN(width) || math.IsNaN(height) || math.IsNaN(amplitude) || math.IsInf(width, 0) {
		return nil, fmt.Errorf("%w: height=%g amplitude=%g width=%g", ErrNaN, height, amplitude, width)
	}

	out := []float64{amplitude, center, width}
	if vheight {
		out = append([]float64{height}, out...)
	}

	return out, nil
}

// finiteSamples drops samples with a NaN y, copying only when one exists.
func finiteSamples(x, y []float64) ([]float64, []float64) {
	first := -1
	for i, v := range y {
		if math.IsNaN(v) {
			first = i
			break
		}
	}

	if first < 0 {
		return x, y
	}

	xs := append(make([]float64, 0, len(x)), x[:first]...)
	ys := append(make([]float64, 0, len(y)), y[:first]...)

	for i := first + 1; i < len(y); i++ {
		if !math.IsNaN(y[i]) {
			xs = append(xs, x[i])
			ys = append(ys, y[i])
		}
	}

	return xs, ys
}
