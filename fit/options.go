package fit

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/cwbudde/algo-peakfit/model"
	"github.com/cwbudde/algo-peakfit/moments"
	"github.com/cwbudde/algo-peakfit/mpfit"
)

// Option configures a fitter.
//
// Parameter indices refer to the packed parameter vector of the fitter,
// the same order as the Values field of its result.
type Option func(*config)

type bound struct {
	set   bool
	value float64
}

type config struct {
	layout model.Layout

	sigma  float64
	errors []float64

	initial   []float64
	useMoment []bool
	fixed     map[int]bool
	lower     map[int]bound
	upper     map[int]bound

	solverOpts []mpfit.Option
	momentOpts []moments.Option
	withModel  bool
	analytic   bool
	log        zerolog.Logger

	// LaguerreGauss
	ampLower, ampUpper bound

	// Spectrum and MultiPeak
	useMoments bool
	sign       moments.Sign
	lineLower  *model.Line
	lineUpper  *model.Line
	autoWidth  float64
}

func defaultConfig() config {
	return config{
		layout:   model.DefaultLayout(),
		sigma:    1,
		fixed:    map[int]bool{},
		lower:    map[int]bound{},
		upper:    map[int]bound{},
		log:      zerolog.Nop(),
		ampLower: bound{set: true, value: 0},
		ampUpper: bound{value: 2},
	}
}

func newConfig(opts []Option) config {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return cfg
}

// WithLayout replaces the 2D parameter layout.
func WithLayout(l model.Layout) Option {
	return func(c *config) {
		c.layout = l
	}
}

// WithCircle fits a circular peak with a single width and no rotation.
func WithCircle(circle bool) Option {
	return func(c *config) {
		c.layout.Circle = circle
	}
}

// WithRotate enables the rotation parameter of elliptical peaks.
func WithRotate(rotate bool) Option {
	return func(c *config) {
		c.layout.Rotate = rotate
	}
}

// WithVHeight fits a variable background. Without it the background is zero
// (2D) or the initial height (1D) and is left out of the fit.
func WithVHeight(vheight bool) Option {
	return func(c *config) {
		c.layout.VHeight = vheight
	}
}

// WithSigma sets a uniform measurement error. Non-positive values are
// ignored.
func WithSigma(sigma float64) Option {
	return func(c *config) {
		if sigma > 0 && !math.IsInf(sigma, 0) {
			c.sigma = sigma
		}
	}
}

// WithErrors sets per-sample measurement errors, row-major for images.
func WithErrors(errs []float64) Option {
	return func(c *config) {
		c.errors = errs
	}
}

// WithInitial sets the start values.
func WithInitial(values ...float64) Option {
	return func(c *config) {
		c.initial = append([]float64(nil), values...)
	}
}

// WithUseMoment replaces the start values flagged in mask by moment
// estimates. mask must have one entry per parameter.
func WithUseMoment(mask ...bool) Option {
	return func(c *config) {
		c.useMoment = append([]bool(nil), mask...)
	}
}

// WithFixed holds the given parameters at their start values.
func WithFixed(idx ...int) Option {
	return func(c *config) {
		for _, i := range idx {
			c.fixed[i] = true
		}
	}
}

// WithLowerBound sets a lower limit; -Inf removes a default limit.
func WithLowerBound(i int, v float64) Option {
	return func(c *config) {
		if !math.IsNaN(v) {
			c.lower[i] = bound{set: !math.IsInf(v, -1), value: v}
		}
	}
}

// WithUpperBound sets an upper limit; +Inf removes a default limit.
func WithUpperBound(i int, v float64) Option {
	return func(c *config) {
		if !math.IsNaN(v) {
			c.upper[i] = bound{set: !math.IsInf(v, 1), value: v}
		}
	}
}

// WithSolverOptions passes options to mpfit.Solve.
func WithSolverOptions(opts ...mpfit.Option) Option {
	return func(c *config) {
		c.solverOpts = append(c.solverOpts, opts...)
	}
}

// WithMomentOptions passes options to the moment estimators.
func WithMomentOptions(opts ...moments.Option) Option {
	return func(c *config) {
		c.momentOpts = append(c.momentOpts, opts...)
	}
}

// WithModel requests the best-fit image or curve in the result.
func WithModel() Option {
	return func(c *config) {
		c.withModel = true
	}
}

// WithAnalyticDerivatives requests analytic instead of finite-difference
// derivatives, which no fitter provides.
func WithAnalyticDerivatives() Option {
	return func(c *config) {
		c.analytic = true
	}
}

// WithLogger logs fit progress at debug level.
func WithLogger(l zerolog.Logger) Option {
	return func(c *config) {
		c.log = l
	}
}

// WithAmplitudeLimits bounds the mode amplitudes of LaguerreGauss.
// Infinite values remove the corresponding limit. The default is a lower
// limit of 0.
func WithAmplitudeLimits(lo, hi float64) Option {
	return func(c *config) {
		c.ampLower = bound{set: !math.IsInf(lo, -1) && !math.IsNaN(lo), value: lo}
		c.ampUpper = bound{set: !math.IsInf(hi, 1) && !math.IsNaN(hi), value: hi}
	}
}

// WithMoments seeds Spectrum from the 1D moment estimator with the given
// polarity.
func WithMoments(sign moments.Sign) Option {
	return func(c *config) {
		c.useMoments = true
		c.sign = sign
	}
}

// WithLineBounds applies bounds to every line of MultiPeak. NaN fields
// leave the corresponding default in place.
func WithLineBounds(lower, upper model.Line) Option {
	return func(c *config) {
		c.lineLower = &lower
		c.lineUpper = &upper
	}
}

// WithAutoGuess seeds MultiPeak from matched-filter candidates of the given
// width.
func WithAutoGuess(width float64) Option {
	return func(c *config) {
		if width > 0 {
			c.autoWidth = width
		}
	}
}
