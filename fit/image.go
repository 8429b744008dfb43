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

// Result2D is the outcome of a 2D peak fit.
type Result2D struct {
	Layout model.Layout
	Names  []string
	// Params is the best fit with the rotation wrapped into [0, 180).
	Params model.Params2D
	// Values and Errors follow the packed order of Layout.
	Values []float64
	Errors []float64
	Covar  *mat.SymDense

	Chi2        float64
	Chi2Reduced float64
	Dof         int
	Status      mpfit.Status
	Niter       int

	// Model is the best-fit image, set with WithModel.
	Model     *grid.Image
	Residuals residual.Stats
}

// Image fits h + a·p(x')·p(y') to img, where p is a 1D profile evaluated
// along the rotated axes.
func Image(ctx context.Context, p shape.Profile, img *grid.Image, opts ...Option) (*Result2D, error) {
	if p == nil {
		return nil, fmt.Errorf("fit: %w: nil profile", shape.ErrUnknownProfile)
	}

	return fitImage(ctx, img, func(pp model.Params2D) model.Model2D {
		return model.NewSeparable2D(p, pp)
	}, opts)
}

// ImageProfile2D fits h + a·P(x', y') to img for a non-separable profile.
func ImageProfile2D(ctx context.Context, p shape.Profile2D, img *grid.Image, opts ...Option) (*Result2D, error) {
	if p == nil {
		return nil, fmt.Errorf("fit: %w: nil profile", shape.ErrUnknownProfile)
	}

	return fitImage(ctx, img, func(pp model.Params2D) model.Model2D {
		return model.NewPeak2D(p, pp)
	}, opts)
}

func fitImage(ctx context.Context, img *grid.Image, build func(model.Params2D) model.Model2D, opts []Option) (*Result2D, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}

	cfg := newConfig(opts)
	layout := cfg.layout

	pix := samples2D(img)
	if len(pix) == 0 {
		return nil, grid.ErrEmpty
	}

	inv, err := cfg.inverseSigma(len(img.Data))
	if err != nil {
		return nil, err
	}

	start, err := cfg.startValues(layout.NumParams(), func() ([]float64, error) {
		return moments.Image(img, layout, cfg.momentOpts...)
	})
	if err != nil {
		return nil, err
	}

	idx := layout.Indices()
	specs := make([]paramSpec, len(idx))

	for i, j := range idx {
		specs[i] = paramSpec{name: model.Name(j), value: start[i]}

		switch j {
		case model.IdxWidthX, model.IdxWidthY:
			specs[i].lower = lowerAt(0)
		case model.IdxRotation:
			specs[i].lower = lowerAt(0)
			specs[i].upper = bound{set: true, value: 180}
		}
	}

	params, inner, off := withHeight(cfg.parameters(specs), layout)

	fn := func(p, r []float64) error {
		pp, err := model.Unpack(p, inner)
		if err != nil {
			return err
		}

		residuals2D(r, img, pix, inv, build(pp))

		return nil
	}

	out, err := cfg.solve(ctx, len(pix), fn, params)
	if err != nil {
		return nil, err
	}

	best, err := model.Unpack(out.Params, inner)
	if err != nil {
		return nil, err
	}

	if layout.Rotated() {
		best = best.Normalize()
	}

	keep := span(off, len(idx))
	res := &Result2D{
		Layout:      layout,
		Names:       layout.Names(),
		Params:      best,
		Values:      best.Pack(layout),
		Errors:      subset(out.Errors, keep),
		Covar:       subCovar(out.Covar, keep),
		Chi2:        out.Chi2,
		Chi2Reduced: out.Chi2Reduced,
		Dof:         out.Dof,
		Status:      out.Status,
		Niter:       out.Niter,
		Residuals:   out.Residuals,
	}

	if cfg.withModel {
		if res.Model, err = model.Render(build(best), img.Rows, img.Cols); err != nil {
			return nil, err
		}
	}

	return res, nil
}

// startValues resolves n start values from WithInitial, WithUseMoment and
// the moment estimator.
func (c *config) startValues(n int, moment func() ([]float64, error)) ([]float64, error) {
	if len(c.initial) != 0 && len(c.initial) != n {
		return nil, fmt.Errorf("%w: %d start values, layout needs %d", ErrLength, len(c.initial), n)
	}

	if len(c.useMoment) != 0 && len(c.useMoment) != n {
		return nil, fmt.Errorf("%w: %d moment flags, layout needs %d", ErrLength, len(c.useMoment), n)
	}

	use := len(c.initial) == 0
	for _, u := range c.useMoment {
		use = use || u
	}

	if !use {
		return append([]float64(nil), c.initial...), nil
	}

	mom, err := moment()
	if err != nil {
		return nil, fmt.Errorf("fit: initial guess: %w", err)
	}

	if len(c.initial) == 0 {
		return mom, nil
	}

	out := append([]float64(nil), c.initial...)
	for i, u := range c.useMoment {
		if u {
			out[i] = mom[i]
		}
	}

	return out, nil
}

// withHeight prepends a height fixed at zero when the layout has no
// variable background, and returns the layout of the resulting vector and
// the offset of the caller's parameters in it.
func withHeight(params []mpfit.Parameter, layout model.Layout) ([]mpfit.Parameter, model.Layout, int) {
	inner := layout
	if layout.VHeight {
		return params, inner, 0
	}

	inner.VHeight = true
	height := mpfit.Parameter{Name: model.Name(model.IdxHeight), Fixed: true}

	return append([]mpfit.Parameter{height}, params...), inner, 1
}

// samples2D returns the flat indices of the unmasked, non-NaN pixels.
func samples2D(img *grid.Image) []int {
	pix := make([]int, 0, len(img.Data))
	for i, v := range img.Data {
		if !img.Masked(i) && !math.IsNaN(v) {
			pix = append(pix, i)
		}
	}

	return pix
}

func residuals2D(r []float64, img *grid.Image, pix []int, inv []float64, m model.Model2D) {
	for k, i := range pix {
		x, y := float64(i%img.Cols), float64(i/img.Cols)
		r[k] = (img.Data[i] - m.Eval(x, y)) * inv[i]
	}
}
