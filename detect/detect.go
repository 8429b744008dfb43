// Package detect finds candidate peaks in 1D data with an FFT matched filter.
package detect

import (
	"errors"
	"fmt"
	"math"
	"sort"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-peakfit/grid"
	"github.com/cwbudde/algo-peakfit/shape"
)

// ErrWidth is returned for a non-positive or non-finite kernel width.
var ErrWidth = errors.New("detect: width must be positive and finite")

const (
	// kernelSpan is the kernel half-length in widths.
	kernelSpan = 4
	// minStrength drops maxima weaker than this fraction of the strongest.
	minStrength = 1e-3
)

// Candidate is a local maximum of the matched-filter response.
type Candidate struct {
	Index     int
	Center    float64
	Amplitude float64 // data above the median at Index
	Strength  float64 // filter response at Index
}

// MatchedFilter correlates the median-subtracted data with a unit-energy
// kernel sampled from p at the given width in samples. The output is
// aligned with y.
func MatchedFilter(y []float64, p shape.Profile, width float64) ([]float64, error) {
	if len(y) == 0 {
		return nil, grid.ErrEmpty
	}

	if !(width > 0) || math.IsInf(width, 0) {
		return nil, fmt.Errorf("%w: %g", ErrWidth, width)
	}

	if p == nil {
		return nil, fmt.Errorf("detect: %w: nil profile", shape.ErrUnknownProfile)
	}

	half := int(math.Ceil(kernelSpan * width))
	kernel := make([]float64, 2*half+1)

	for i := range kernel {
		kernel[i] = p(float64(i-half), width)
	}

	if norm := floats.Norm(kernel, 2); norm > 0 {
		vecmath.ScaleBlock(kernel, kernel, 1/norm)
	}

	med := grid.Median(y)
	n, m := len(y), len(kernel)
	size := nextPowerOf2(n + m - 1)

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("detect: failed to create FFT plan: %w", err)
	}

	data := make([]complex128, size)
	for i, v := range y {
		if !math.IsNaN(v) {
			data[i] = complex(v-med, 0)
		}
	}

	kern := make([]complex128, size)
	for i, v := range kernel {
		kern[i] = complex(v, 0)
	}

	dataFreq := make([]complex128, size)
	if err := plan.Forward(dataFreq, data); err != nil {
		return nil, fmt.Errorf("detect: forward FFT failed: %w", err)
	}

	kernFreq := make([]complex128, size)
	if err := plan.Forward(kernFreq, kern); err != nil {
		return nil, fmt.Errorf("detect: forward FFT failed: %w", err)
	}

	for i, k := range kernFreq {
		dataFreq[i] *= complex(real(k), -imag(k))
	}

	corr := make([]complex128, size)
	if err := plan.Inverse(corr, dataFreq); err != nil {
		return nil, fmt.Errorf("detect: inverse FFT failed: %w", err)
	}

	// corr[l] holds lag l (negative lags wrapped); output i is lag i-half.
	out := make([]float64, n)
	for i := range out {
		out[i] = real(corr[(i-half+size)%size])
	}

	return out, nil
}

// Candidates returns up to n positive peaks of y, strongest first, at least
// one width apart. width is in units of x; a nil x means 0..len(y)-1 and
// n <= 0 returns every candidate. Maxima weaker than a thousandth of the
// strongest response are ignored.
func Candidates(x, y []float64, p shape.Profile, width float64, n int) ([]Candidate, error) {
	if len(y) == 0 {
		return nil, grid.ErrEmpty
	}

	if x == nil {
		x = grid.Arange(len(y))
	}

	if len(x) != len(y) {
		return nil, fmt.Errorf("%w: x has %d values, y has %d", grid.ErrShape, len(x), len(y))
	}

	step := 1.0
	if len(x) > 1 {
		step = math.Abs(x[len(x)-1]-x[0]) / float64(len(x)-1)
	}

	if step == 0 {
		return nil, fmt.Errorf("%w: x has zero spacing", grid.ErrShape)
	}

	w := width / step

	resp, err := MatchedFilter(y, p, w)
	if err != nil {
		return nil, err
	}

	floor := 0.0
	for _, v := range resp {
		floor = math.Max(floor, minStrength*v)
	}

	var peaks []int
	for i, v := range resp {
		if v <= floor {
			continue
		}

		if (i == 0 || v >= resp[i-1]) && (i == len(resp)-1 || v > resp[i+1]) {
			peaks = append(peaks, i)
		}
	}

	sort.SliceStable(peaks, func(a, b int) bool { return resp[peaks[a]] > resp[peaks[b]] })

	med := grid.Median(y)
	out := make([]Candidate, 0, len(peaks))

	for _, i := range peaks {
		if n > 0 && len(out) == n {
			break
		}

		near := false
		for _, c := range out {
			if math.Abs(float64(i-c.Index)) <= w {
				near = true
				break
			}
		}

		if near {
			continue
		}

		out = append(out, Candidate{Index: i, Center: x[i], Amplitude: y[i] - med, Strength: resp[i]})
	}

	return out, nil
}

func nextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}

	return p
}
