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
	"github.com/cwbudde/algo-peakfit/stats/residual"
)

// ResultBeam is the outcome of a Laguerre-Gauss beam fit.
type ResultBeam struct {
	Layout     model.Layout
	MaxP, MaxL int
	Names      []string
	// Params holds the beam geometry; Amplitude is unused.
	Params          model.Params2D
	Amplitudes      []float64
	AmplitudeErrors []float64
	// Values and Errors hold the geometry in the layout's packed order
	// without AMPLITUDE, followed by the mode amplitudes row-major by p.
	Values []float64
	Errors []float64
	Covar  *mat.SymDense

	Chi2        float64
	Chi2Reduced float64
	Dof         int
	Status      mpfit.Status
	Niter       int

	Model     *grid.Image
	Residuals residual.Stats
}

// LaguerreGauss fits a multimode elliptical Laguerre-Gauss beam with radial
// orders 0..maxP and azimuthal orders 0..maxL to img.
//
// Without start values the geometry comes from the moments of img: the
// background field is the square root of the background intensity, the
// beam widths are twice the moment widths and the (0,0) mode carries the
// peak intensity. Mode amplitudes are limited below at 0 by default
// (WithAmplitudeLimits).
func LaguerreGauss(ctx context.Context, img *grid.Image, maxP, maxL int, opts ...Option) (*ResultBeam, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}

	nm := model.NumModes(maxP, maxL)
	if nm == 0 {
		return nil, fmt.Errorf("%w: maxP=%d maxL=%d", ErrLength, maxP, maxL)
	}

	cfg := newConfig(opts)
	layout := cfg.layout
	geo := model.BeamIndices(layout)
	ng := len(geo)

	pix := samples2D(img)
	if len(pix) == 0 {
		return nil, grid.ErrEmpty
	}

	inv, err := cfg.inverseSigma(len(img.Data))
	if err != nil {
		return nil, err
	}

	start, err := cfg.startValues(ng+nm, func() ([]float64, error) {
		return beamGuess(img, layout, geo, nm, cfg.momentOpts)
	})
	if err != nil {
		return nil, err
	}

	// Modes with l > 0 change sign under a half turn.
	period := 180.0
	if maxL > 0 {
		period = 360
	}

	specs := make([]paramSpec, 0, ng+nm)
	for i, j := range geo {
		s := paramSpec{name: model.Name(j), value: start[i]}

		switch j {
		case model.IdxCenterX, model.IdxCenterY, model.IdxWidthX, model.IdxWidthY:
			s.lower = lowerAt(0)
		case model.IdxRotation:
			s.lower = lowerAt(0)
			s.upper = bound{set: true, value: period}
		}

		specs = append(specs, s)
	}

	for p := 0; p <= maxP; p++ {
		for l := 0; l <= maxL; l++ {
			specs = append(specs, paramSpec{
				name:  fmt.Sprintf("AMP%d_%d", p, l),
				value: start[len(specs)],
				lower: cfg.ampLower,
				upper: cfg.ampUpper,
			})
		}
	}

	params, inner, off := withHeight(cfg.parameters(specs), layout)

	fn := func(p, r []float64) error {
		b, err := model.UnpackBeam(p, inner, maxP, maxL)
		if err != nil {
			return err
		}

		residuals2D(r, img, pix, inv, b)

		return nil
	}

	out, err := cfg.solve(ctx, len(pix), fn, params)
	if err != nil {
		return nil, err
	}

	b, err := model.UnpackBeam(out.Params, inner, maxP, maxL)
	if err != nil {
		return nil, err
	}

	geom := b.Params()
	if layout.Rotated() {
		geom.Rotation = math.Mod(geom.Rotation, period)
		if geom.Rotation < 0 {
			geom.Rotation += period
		}

		if b, err = model.NewBeam(geom, maxP, maxL, b.Amplitudes()); err != nil {
			return nil, err
		}
	}

	full := geom.Full()
	values := make([]float64, 0, ng+nm)
	for _, j := range geo {
		values = append(values, full[j])
	}

	values = append(values, b.Amplitudes()...)

	keep := span(off, ng+nm)
	errs := subset(out.Errors, keep)

	res := &ResultBeam{
		Layout:      layout,
		MaxP:        maxP,
		MaxL:        maxL,
		Names:       names(specs),
		Params:      geom,
		Amplitudes:  b.Amplitudes(),
		Values:      values,
		Errors:      errs,
		Covar:       subCovar(out.Covar, keep),
		Chi2:        out.Chi2,
		Chi2Reduced: out.Chi2Reduced,
		Dof:         out.Dof,
		Status:      out.Status,
		Niter:       out.Niter,
		Residuals:   out.Residuals,
	}

	if errs != nil {
		res.AmplitudeErrors = errs[ng:]
	}

	if cfg.withModel {
		if res.Model, err = model.Render(b, img.Rows, img.Cols); err != nil {
			return nil, err
		}
	}

	return res, nil
}

func beamGuess(img *grid.Image, layout model.Layout, geo []int, nm int, opts []moments.Option) ([]float64, error) {
	mom, err := moments.Image(img, layout, opts...)
	if err != nil {
		return nil, err
	}

	mp, err := model.Unpack(mom, layout)
	if err != nil {
		return nil, err
	}

	// The fundamental mode has intensity (2/π)·a²·exp(-2r²/w²), a Gaussian
	// of standard deviation w/2.
	mp.Height = math.Sqrt(math.Max(mp.Height, 0))
	mp.WidthX *= 2
	mp.WidthY *= 2

	full := mp.Full()
	out := make([]float64, len(geo)+nm)

	for i, j := range geo {
		out[i] = full[j]
	}

	out[len(geo)] = math.Sqrt(math.Max(mp.Amplitude, 0) * math.Pi / 2)

	return out, nil
}

func names(specs []paramSpec) []string {
	out := make([]string, len(specs))
	for i, s := range specs {
		out[i] = s.name
	}

	return out
}
