package mpfit

import "github.com/rs/zerolog"

const (
	defaultTol     = 1e-10
	defaultMaxIter = 200
)

// Option configures Solve.
type Option func(*config)

type config struct {
	ftol, xtol, gtol float64
	maxIter          int
	epsfcn           float64
	covariance       bool
	log              zerolog.Logger
}

func defaultConfig() config {
	return config{
		ftol:       defaultTol,
		xtol:       defaultTol,
		gtol:       defaultTol,
		maxIter:    defaultMaxIter,
		covariance: true,
		log:        zerolog.Nop(),
	}
}

// WithFtol sets the relative chi-square reduction tolerance.
func WithFtol(v float64) Option {
	return func(c *config) {
		if v > 0 {
			c.ftol = v
		}
	}
}

// WithXtol sets the relative parameter change tolerance.
func WithXtol(v float64) Option {
	return func(c *config) {
		if v > 0 {
			c.xtol = v
		}
	}
}

// WithGtol sets the orthogonality tolerance.
func WithGtol(v float64) Option {
	return func(c *config) {
		if v > 0 {
			c.gtol = v
		}
	}
}

// WithMaxIter limits the number of outer iterations.
func WithMaxIter(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxIter = n
		}
	}
}

// WithEpsfcn sets the relative precision of the residual function, which
// determines the default finite-difference step sqrt(epsfcn).
func WithEpsfcn(v float64) Option {
	return func(c *config) {
		if v > 0 {
			c.epsfcn = v
		}
	}
}

// WithLogger traces iterations at debug level.
func WithLogger(l zerolog.Logger) Option {
	return func(c *config) {
		c.log = l
	}
}

// WithoutCovariance skips the covariance and error computation.
func WithoutCovariance() Option {
	return func(c *config) {
		c.covariance = false
	}
}
