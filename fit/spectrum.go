package fit

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-peakfit/grid"
	"github.com/cwbudde/algo-peakfit/model"
	"github.com/cwbudde/algo-peakfit/moments"
	"github.com/cwbudde/algo-peakfit/mpfit"
	"github.com/cwbudde/algo-peakfit/shape"
	"github.com/cwbudde/algo-peakfit/stats/residual"
)

var spectrumNames = []string{"HEIGHT", "AMPLITUDE", "SHIFT", "WIDTH"}

// Result1D is the outcome of a single-line fit.
type Result1D struct {
	Names []string
	// Values and Errors are [height, amplitude, shift, width].
	Values []float64
	Errors []float64
	Covar  *mat.SymDense

	Height float64
	Line   model.Line

	Chi2        float64
	Chi2Reduced float64
	Dof         int
	Status      mpfit.Status
	Niter       int

	Model     []float64
	Residuals residual.Stats
}

// Spectrum fits h + a·p(x - shift, width) to (x, y). A nil x means
// 0..len(y)-1.
//
// The start values default to [0, 1, 0, 1] and the width is limited below
// at 0. Without a variable height the height stays at its start value.
func Spectrum(ctx context.Context, p shape.Profile, x, y []float64, opts ...Option) (*Result1D, error) {
	if p == nil {
		return nil, fmt.Errorf("fit: %w: nil profile", shape.ErrUnknownProfile)
	}

	x, valid, err := samples1D(x, y)
	if err != nil {
		return nil, err
	}

	cfg := newConfig(opts)
	vheight := cfg.layout.VHeight

	inv, err := cfg.inverseSigma(len(y))
	if err != nil {
		return nil, err
	}

	start := []float64{0, 1, 0, 1}
	if len(cfg.initial) != 0 {
		if len(cfg.initial) != len(start) {
			return nil, fmt.Errorf("%w: %d start values, want %d", ErrLength, len(cfg.initial), len(start))
		}

		copy(start, cfg.initial)
	}

	if cfg.useMoments {
		mom, err := moments.Spectrum(x, y, vheight, append(cfg.momentOpts, moments.WithSign(cfg.sign))...)
		if err != nil {
			return nil, fmt.Errorf("fit: initial guess: %w", err)
		}

		if !vheight {
			mom = append([]float64{start[0]}, mom...)
		}

		start = mom
	}

	specs := make([]paramSpec, len(start))
	for i, v := range start {
		specs[i] = paramSpec{name: spectrumNames[i], value: v}
	}

	specs[0].fixed = !vheight
	specs[3].lower = lowerAt(0)

	curve := make([]float64, len(y))

	fn := func(pv, r []float64) error {
		curve = model.Curve(curve, p, x, pv[0], model.Line{Amplitude: pv[1], Center: pv[2], Width: pv[3]})
		residuals1D(r, y, curve, inv, valid)

		return nil
	}

	out, err := cfg.solve(ctx, len(valid), fn, cfg.parameters(specs))
	if err != nil {
		return nil, err
	}

	v := out.Params
	res := &Result1D{
		Names:       spectrumNames,
		Values:      v,
		Errors:      out.Errors,
		Covar:       out.Covar,
		Height:      v[0],
		Line:        model.Line{Amplitude: v[1], Center: v[2], Width: v[3]},
		Chi2:        out.Chi2,
		Chi2Reduced: out.Chi2Reduced,
		Dof:         out.Dof,
		Status:      out.Status,
		Niter:       out.Niter,
		Residuals:   out.Residuals,
	}

	if cfg.withModel {
		res.Model = model.Curve(nil, p, x, res.Height, res.Line)
	}

	return res, nil
}

// samples1D validates a spectrum, defaults x and returns the indices of the
// samples with finite x and non-NaN y.
func samples1D(x, y []float64) ([]float64, []int, error) {
	if len(y) == 0 {
		return nil, nil, grid.ErrEmpty
	}

	if x == nil {
		x = grid.Arange(len(y))
	}

	if len(x) != len(y) {
		return nil, nil, fmt.Errorf("%w: x has %d values, y has %d", ErrLength, len(x), len(y))
	}

	valid := make([]int, 0, len(y))
	for i, v := range y {
		if !math.IsNaN(v) && !math.IsNaN(x[i]) && !math.IsInf(x[i], 0) {
			valid = append(valid, i)
		}
	}

	if len(valid) == 0 {
		return nil, nil, grid.ErrEmpty
	}

	return x, valid, nil
}

func residuals1D(r, y, curve, inv []float64, valid []int) {
	for k, i := range valid {
		r[k] = (y[i] - curve[i]) * inv[i]
	}
}
