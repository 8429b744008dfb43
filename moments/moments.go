// Package moments derives initial peak parameters from data moments.
package moments

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-peakfit/grid"
	"github.com/cwbudde/algo-peakfit/model"
)

// ErrNoSignal is returned when no sample rises above the background, so
// centre and widths are undefined.
var ErrNoSignal = errors.New("moments: no signal above background")

// ErrNaN is returned when an estimate comes out NaN.
var ErrNaN = errors.New("moments: estimate is NaN")

// Sign selects the polarity of the peak.
type Sign int

const (
	Positive Sign = iota
	Negative
	Auto
)

// Estimator measures the background level of a sample set.
type Estimator func(values []float64) float64

// Option configures moment estimation.
type Option func(*config)

type config struct {
	estimator  Estimator
	sign       Sign
	angleGuess float64
	fixedAngle bool
}

func defaultConfig() config {
	return config{estimator: grid.Median, sign: Positive}
}

// WithEstimator replaces the median background estimator.
func WithEstimator(e Estimator) Option {
	return func(c *config) {
		if e != nil {
			c.estimator = e
		}
	}
}

// WithSign sets the expected peak polarity.
func WithSign(s Sign) Option {
	return func(c *config) {
		if s >= Positive && s <= Auto {
			c.sign = s
		}
	}
}

// WithAngleGuess uses a fixed rotation guess in degrees instead of the
// orientation of the moment tensor.
func WithAngleGuess(deg float64) Option {
	return func(c *config) {
		c.angleGuess = deg
		c.fixedAngle = true
	}
}

// halfMaxVariance is the per-axis second moment, in units of sigma², of a
// unit Gaussian weighted by its excess over half maximum.
//
// With s = r²/2 the weight is exp(-s) - 1/2 on [0, ln 2]; the ratio of
// ∫ 2s·w ds to ∫ w ds gives <r²>, split evenly between both axes.
var halfMaxVariance = func() float64 {
	l := math.Ln2
	num := 2 * ((1 - 0.5*(1+l)) - l*l/4)
	den := 0.5 - 0.5*l

	return 0.5 * num / den
}()

// Image estimates 2D peak parameters of img in the packed order of layout.
//
// The background is the estimator over unmasked pixels (zero without
// VHeight) and the amplitude the extremum above it. Centre, widths and
// orientation come from the intensity-weighted moments of the pixels above
// half maximum, scaled to Gaussian standard deviations.
func Image(img *grid.Image, layout model.Layout, opts ...Option) ([]float64, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	vals := img.Compressed()
	if len(vals) == 0 {
		return nil, grid.ErrEmpty
	}

	height := cfg.estimator(vals)

	base := 0.0
	if layout.VHeight {
		base = height
	}

	maxV, _, _ := img.Max()
	minV, _, _ := img.Min()

	sign := cfg.sign
	if sign == Auto {
		sign = Positive
		if base-minV > maxV-base {
			sign = Negative
		}
	}

	amplitude := maxV - base
	s := 1.0

	if sign == Negative {
		amplitude = minV - base
		s = -1
	}

	thresh := 0.5 * math.Abs(amplitude)

	var total, sx, sy float64
	for i, v := range img.Data {
		if img.Masked(i) || math.IsNaN(v) {
			continue
		}

		w := s*(v-base) - thresh
		if w <= 0 {
			continue
		}

		total += w
		sx += w * float64(i%img.Cols)
		sy += w * float64(i/img.Cols)
	}

	if total == 0 || math.IsNaN(total) {
		return nil, ErrNoSignal
	}

	cx, cy := sx/total, sy/total

	var cxx, cyy, cxy float64
	for i, v := range img.Data {
		if img.Masked(i) || math.IsNaN(v) {
			continue
		}

		w := s*(v-base) - thresh
		if w <= 0 {
			continue
		}

		dx := float64(i%img.Cols) - cx
		dy := float64(i/img.Cols) - cy
		cxx += w * dx * dx
		cyy += w * dy * dy
		cxy += w * dx * dy
	}

	cxx /= total * halfMaxVariance
	cyy /= total * halfMaxVariance
	cxy /= total * halfMaxVariance

	full := model.Params2D{
		Height:    height,
		Amplitude: amplitude,
		CenterX:   cx,
		CenterY:   cy,
	}

	switch {
	case layout.Circle:
		full.WidthX = math.Sqrt(0.5 * (cxx + cyy))
		full.WidthY = full.WidthX
	case layout.Rotated() && !cfg.fixedAngle:
		full.WidthX, full.WidthY, full.Rotation = principalAxes(cxx, cyy, cxy)
	default:
		full.WidthX = math.Sqrt(cxx)
		full.WidthY = math.Sqrt(cyy)
		full.Rotation = cfg.angleGuess
	}

	out := full.Pack(layout)
	for _, v := range out {
		if math.IsNaN(v) {
			return nil, fmt.Errorf("%w: %v", ErrNaN, out)
		}
	}

	return out, nil
}

// principalAxes converts a covariance tensor to the widths and rotation of
// the peak model, whose rotated frame is x' = x cos t - y sin t. The
// returned rotation is in [0, 180) and WidthX is the major axis.
func principalAxes(cxx, cyy, cxy float64) (wx, wy, deg float64) {
	mid := 0.5 * (cxx + cyy)
	r := math.Hypot(0.5*(cxx-cyy), cxy)

	major := math.Max(mid+r, 0)
	minor := math.Max(mid-r, 0)

	theta := 0.5 * math.Atan2(-2*cxy, cxx-cyy)

	deg = math.Mod(theta*180/math.Pi, 180)
	if deg < 0 {
		deg += 180
	}

	return math.Sqrt(major), math.Sqrt(minor), deg
}
