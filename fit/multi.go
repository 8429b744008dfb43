package fit

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-peakfit/detect"
	"github.com/cwbudde/algo-peakfit/model"
	"github.com/cwbudde/algo-peakfit/mpfit"
	"github.com/cwbudde/algo-peakfit/shape"
	"github.com/cwbudde/algo-peakfit/stats/residual"
)

var defaultLine = []float64{1, 0, 1}

// ResultMulti is the outcome of a multi-line fit.
type ResultMulti struct {
	Names []string
	// Values and Errors are [a0, shift0, width0, a1, ...].
	Values []float64
	Errors []float64
	Covar  *mat.SymDense

	Lines      []model.Line
	LineErrors []model.Line

	Chi2        float64
	Chi2Reduced float64
	Dof         int
	Status      mpfit.Status
	Niter       int

	Model     []float64
	Residuals residual.Stats
}

// MultiPeak fits a sum of npeak lines of profile p on a zero baseline to
// (x, y). A nil x means 0..len(y)-1.
//
// Start values given with WithInitial are used as follows: a single
// [amplitude, shift, width] triple is repeated for every line, a longer list
// raises npeak to its number of triples, and any other length falls back to
// [1, 0, 1] per line. WithAutoGuess overrides amplitudes and shifts with
// matched-filter candidates. Widths are limited below at 0.
func MultiPeak(ctx context.Context, p shape.Profile, x, y []float64, npeak int, opts ...Option) (*ResultMulti, error) {
	if p == nil {
		return nil, fmt.Errorf("fit: %w: nil profile", shape.ErrUnknownProfile)
	}

	if npeak < 1 {
		return nil, fmt.Errorf("%w: npeak = %d", ErrLength, npeak)
	}

	x, valid, err := samples1D(x, y)
	if err != nil {
		return nil, err
	}

	cfg := newConfig(opts)

	inv, err := cfg.inverseSigma(len(y))
	if err != nil {
		return nil, err
	}

	guess := cfg.initial
	if len(guess)/3 > npeak {
		npeak = len(guess) / 3
	}

	start := make([]float64, 0, 3*npeak)

	switch {
	case len(guess) == 3*npeak:
		start = append(start, guess...)
	case len(guess) == 3:
		for range npeak {
			start = append(start, guess...)
		}
	default:
		for range npeak {
			start = append(start, defaultLine...)
		}
	}

	if cfg.autoWidth > 0 {
		cands, err := detect.Candidates(x, y, p, cfg.autoWidth, npeak)
		if err != nil {
			return nil, fmt.Errorf("fit: initial guess: %w", err)
		}

		for k, c := range cands {
			start[3*k] = c.Amplitude
			start[3*k+1] = c.Center
			start[3*k+2] = cfg.autoWidth
		}
	}

	specs := make([]paramSpec, len(start))
	for i, v := range start {
		specs[i] = paramSpec{name: fmt.Sprintf("%s%d", spectrumNames[1+i%3], i/3), value: v}
	}

	for k := range npeak {
		specs[3*k+2].lower = lowerAt(0)
		applyLineBounds(specs[3*k:3*k+3], cfg.lineLower, cfg.lineUpper)
	}

	lines := &model.NPeak{Profile: p, Lines: make([]model.Line, npeak)}
	curve := make([]float64, len(y))

	fn := func(pv, r []float64) error {
		setLines(lines.Lines, pv)
		curve = lines.Eval(curve, x)
		residuals1D(r, y, curve, inv, valid)

		return nil
	}

	out, err := cfg.solve(ctx, len(valid), fn, cfg.parameters(specs))
	if err != nil {
		return nil, err
	}

	res := &ResultMulti{
		Names:       names(specs),
		Values:      out.Params,
		Errors:      out.Errors,
		Covar:       out.Covar,
		Lines:       make([]model.Line, npeak),
		Chi2:        out.Chi2,
		Chi2Reduced: out.Chi2Reduced,
		Dof:         out.Dof,
		Status:      out.Status,
		Niter:       out.Niter,
		Residuals:   out.Residuals,
	}

	setLines(res.Lines, out.Params)

	if out.Errors != nil {
		res.LineErrors = make([]model.Line, npeak)
		setLines(res.LineErrors, out.Errors)
	}

	if cfg.withModel {
		setLines(lines.Lines, out.Params)
		res.Model = lines.Eval(nil, x)
	}

	return res, nil
}

func setLines(lines []model.Line, values []float64) {
	for k := range lines {
		lines[k] = model.Line{Amplitude: values[3*k], Center: values[3*k+1], Width: values[3*k+2]}
	}
}

// applyLineBounds sets the non-NaN fields of lo and hi on one line's specs.
func applyLineBounds(specs []paramSpec, lo, hi *model.Line) {
	if lo != nil {
		for i, v := range []float64{lo.Amplitude, lo.Center, lo.Width} {
			if !math.IsNaN(v) {
				specs[i].lower = bound{set: !math.IsInf(v, -1), value: v}
			}
		}
	}

	if hi != nil {
		for i, v := range []float64{hi.Amplitude, hi.Center, hi.Width} {
			if !math.IsNaN(v) {
				specs[i].upper = bound{set: !math.IsInf(v, 1), value: v}
			}
		}
	}
}
