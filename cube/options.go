package cube

import (
	"runtime"

	"github.com/rs/zerolog"

	"github.com/cwbudde/algo-peakfit/fit"
)

// Option configures Collapse.
type Option func(*config)

type config struct {
	axis       int
	x          []float64
	nsigcut    float64
	mppsigcut  float64
	negative   bool
	useMoments bool
	workers    int
	fitOpts    []fit.Option
	log        zerolog.Logger
}

func defaultConfig() config {
	return config{
		axis:       2,
		nsigcut:    1,
		mppsigcut:  1,
		useMoments: true,
		workers:    runtime.GOMAXPROCS(0),
		log:        zerolog.Nop(),
	}
}

// WithAxis selects the spectral axis (0, 1 or 2).
func WithAxis(axis int) Option {
	return func(c *config) {
		if axis >= 0 && axis <= 2 {
			c.axis = axis
		}
	}
}

// WithXAxis sets the spectral coordinate; nil means 0..n-1.
func WithXAxis(x []float64) Option {
	return func(c *config) {
		c.x = x
	}
}

// WithNSigCut fits only spectra whose extremum exceeds nsig times the
// median noise.
func WithNSigCut(nsig float64) Option {
	return func(c *config) {
		if nsig >= 0 {
			c.nsigcut = nsig
		}
	}
}

// WithMPPSigCut keeps only fits whose amplitude exceeds nsig times its
// error. Fits run without covariance have no error and are always kept.
func WithMPPSigCut(nsig float64) Option {
	return func(c *config) {
		if nsig >= 0 {
			c.mppsigcut = nsig
		}
	}
}

// WithNegative fits absorption (negative) lines.
func WithNegative(negative bool) Option {
	return func(c *config) {
		c.negative = negative
	}
}

// WithMoments seeds every fit from the 1D moments (default true).
func WithMoments(use bool) Option {
	return func(c *config) {
		c.useMoments = use
	}
}

// WithWorkers limits the number of rows fitted concurrently.
func WithWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithFitOptions passes extra options to every spectrum fit.
func WithFitOptions(opts ...fit.Option) Option {
	return func(c *config) {
		c.fitOpts = append(c.fitOpts, opts...)
	}
}

// WithLogger reports per-row progress at debug and totals at info level.
func WithLogger(l zerolog.Logger) Option {
	return func(c *config) {
		c.log = l
	}
}
