package fit

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-peakfit/mpfit"
	"github.com/cwbudde/algo-peakfit/stats/residual"
)

// Errors returned by the fitters.
var (
	ErrLength         = errors.New("fit: length mismatch")
	ErrSigma          = errors.New("fit: measurement errors must be positive and finite")
	ErrNotImplemented = errors.New("fit: analytic derivatives are not implemented")
)

// paramSpec is a packed parameter with its default constraints.
type paramSpec struct {
	name         string
	value        float64
	lower, upper bound
	fixed        bool
}

func lowerAt(v float64) bound { return bound{set: true, value: v} }

// parameters applies the user's constraints to specs and clamps start values
// into the resulting limits.
func (c *config) parameters(specs []paramSpec) []mpfit.Parameter {
	out := make([]mpfit.Parameter, len(specs))

	for i, s := range specs {
		lo, hi := s.lower, s.upper
		if b, ok := c.lower[i]; ok {
			lo = b
		}

		if b, ok := c.upper[i]; ok {
			hi = b
		}

		v := s.value
		if lo.set && v < lo.value {
			v = lo.value
		}

		if hi.set && v > hi.value {
			v = hi.value
		}

		out[i] = mpfit.Parameter{
			Name:    s.name,
			Value:   v,
			Fixed:   s.fixed || c.fixed[i],
			Limited: [2]bool{lo.set, hi.set},
			Limits:  [2]float64{lo.value, hi.value},
		}
	}

	return out
}

// inverseSigma returns 1/sigma for n samples.
func (c *config) inverseSigma(n int) ([]float64, error) {
	inv := make([]float64, n)

	if c.errors == nil {
		for i := range inv {
			inv[i] = 1 / c.sigma
		}

		return inv, nil
	}

	if len(c.errors) != n {
		return nil, fmt.Errorf("%w: %d errors for %d samples", ErrLength, len(c.errors), n)
	}

	for i, e := range c.errors {
		if !(e > 0) || math.IsInf(e, 0) {
			return nil, fmt.Errorf("%w: sample %d has sigma %g", ErrSigma, i, e)
		}

		inv[i] = 1 / e
	}

	return inv, nil
}

// outcome is the solver result together with the residual vector at the
// best fit.
type outcome struct {
	*mpfit.Result
	Residuals residual.Stats
}

// solve runs mpfit and summarizes the final residuals.
func (c *config) solve(ctx context.Context, m int, fn mpfit.ResidualFunc, params []mpfit.Parameter) (*outcome, error) {
	if c.analytic {
		return nil, ErrNotImplemented
	}

	start := make([]float64, len(params))
	for i, p := range params {
		start[i] = p.Value
	}

	c.log.Debug().Int("samples", m).Floats64("start", start).Msg("fit: start")

	opts := append([]mpfit.Option{mpfit.WithLogger(c.log)}, c.solverOpts...)

	res, err := mpfit.Solve(ctx, m, fn, params, opts...)
	if err != nil {
		return nil, fmt.Errorf("fit: %w", err)
	}

	resid := make([]float64, m)
	if err := fn(res.Params, resid); err != nil {
		return nil, fmt.Errorf("fit: %w", err)
	}

	c.log.Debug().
		Floats64("params", res.Params).
		Float64("chi2", res.Chi2).
		Int("niter", res.Niter).
		Stringer("status", res.Status).
		Msg("fit: done")

	return &outcome{Result: res, Residuals: residual.Calculate(resid)}, nil
}

// subset extracts the entries idx of a full-vector result.
func subset(values []float64, idx []int) []float64 {
	if values == nil {
		return nil
	}

	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = values[j]
	}

	return out
}

// subCovar extracts the covariance of the parameters idx.
func subCovar(c *mat.SymDense, idx []int) *mat.SymDense {
	if c == nil {
		return nil
	}

	out := mat.NewSymDense(len(idx), nil)
	for i, a := range idx {
		for j := i; j < len(idx); j++ {
			out.SetSym(i, j, c.At(a, idx[j]))
		}
	}

	return out
}

// span returns 0..n-1 shifted by off.
func span(off, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = off + i
	}

	return out
}
