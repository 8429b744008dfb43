package mpfit

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	machEps = 2.220446049250313e-16

	// acceptRatio is the minimum gain ratio of an accepted step.
	acceptRatio = 1e-4
	// maxDamping stops the inner loop when no damped step reduces chi².
	maxDamping = 1e32
)

// ResidualFunc fills resid with the weighted deviations for params.
// params has one entry per Parameter, fixed ones included.
type ResidualFunc func(params, resid []float64) error

// Result is the outcome of Solve.
type Result struct {
	// Params holds the best-fit values of all parameters.
	Params []float64
	// Errors holds 1-sigma uncertainties; zero for fixed parameters and
	// nil when the covariance was not requested.
	Errors []float64
	// Covar is the parameter covariance over all parameters; rows and
	// columns of fixed parameters are zero.
	Covar *mat.SymDense

	Chi2        float64
	OrigChi2    float64
	Chi2Reduced float64
	Dof         int

	Status  Status
	Niter   int
	Nfev    int
	NFree   int
	NPegged int
}

type solver struct {
	cfg    config
	fn     ResidualFunc
	params []Parameter
	m      int
	ifree  []int

	x, f  []float64
	cols  [][]float64
	nfev  int
	niter int

	// scratch for derivatives and trial steps
	xp, fp, fm []float64
	hitK       []int
	hitV       []float64
}

// Solve minimizes the sum of squares of the m residuals computed by fn over
// the free entries of params.
//
// Validation failures return one of the package errors. An error from fn
// aborts the fit and is returned wrapped; cancellation of ctx is checked at
// the start of every iteration.
func Solve(ctx context.Context, m int, fn ResidualFunc, params []Parameter, opts ...Option) (*Result, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if len(params) == 0 {
		return nil, ErrNoParameters
	}

	for i, p := range params {
		if err := p.validate(i); err != nil {
			return nil, err
		}
	}

	s := newSolver(cfg, fn, params, m)
	if len(s.ifree) == 0 {
		return nil, ErrNoFreeParameters
	}

	if m < len(s.ifree) {
		return nil, fmt.Errorf("%w: %d residuals, %d free parameters", ErrTooFewResiduals, m, len(s.ifree))
	}

	if err := s.eval(s.x, s.f); err != nil {
		return nil, err
	}

	if !finite(s.f) {
		return nil, fmt.Errorf("%w: residuals at start values", ErrNonFinite)
	}

	res := &Result{OrigChi2: floats.Dot(s.f, s.f)}

	status, err := s.run(ctx)
	if err != nil {
		return nil, err
	}

	res.Status = status
	res.Params = append([]float64(nil), s.x...)
	res.Chi2 = floats.Dot(s.f, s.f)
	res.NFree = len(s.ifree)
	res.Dof = m - res.NFree
	res.Chi2Reduced = math.NaN()

	if res.Dof > 0 {
		res.Chi2Reduced = res.Chi2 / float64(res.Dof)
	}

	for _, j := range s.ifree {
		if params[j].atLower(s.x[j]) || params[j].atUpper(s.x[j]) {
			res.NPegged++
		}
	}

	if cfg.covariance {
		if err := s.covariance(res); err != nil {
			return nil, err
		}
	}

	res.Niter = s.niter
	res.Nfev = s.nfev

	cfg.log.Debug().
		Int("niter", res.Niter).
		Int("nfev", res.Nfev).
		Float64("chi2", res.Chi2).
		Stringer("status", res.Status).
		Msg("mpfit: done")

	return res, nil
}

func newSolver(cfg config, fn ResidualFunc, params []Parameter, m int) *solver {
	s := &solver{cfg: cfg, fn: fn, params: params, m: m}

	s.x = make([]float64, len(params))
	for i, p := range params {
		s.x[i] = p.Value

		pinned := p.Limited[0] && p.Limited[1] && p.Limits[0] == p.Limits[1]
		if !p.Fixed && !pinned {
			s.ifree = append(s.ifree, i)
		}
	}

	s.f = make([]float64, m)
	s.fp = make([]float64, m)
	s.fm = make([]float64, m)
	s.xp = make([]float64, len(params))

	s.cols = make([][]float64, len(s.ifree))
	for k := range s.cols {
		s.cols[k] = make([]float64, m)
	}

	return s
}

func (s *solver) eval(x, f []float64) error {
	s.nfev++

	if err := s.fn(x, f); err != nil {
		return fmt.Errorf("mpfit: residual function: %w", err)
	}

	return nil
}

//nolint:gocognit,gocyclo,cyclop,funlen
func (s *solver) run(ctx context.Context) (Status, error) {
	n := len(s.ifree)
	a := mat.NewSymDense(n, nil)
	g := make([]float64, n)
	delta := make([]float64, n)
	active := make([]bool, n)

	xnew := make([]float64, len(s.x))
	fnew := make([]float64, s.m)

	chi2 := floats.Dot(s.f, s.f)
	mu, nu := 1e-3, 2.0

	for iter := 0; ; iter++ {
		if iter >= s.cfg.maxIter {
			return StatusMaxIter, nil
		}

		if err := ctx.Err(); err != nil {
			return 0, fmt.Errorf("mpfit: %w", err)
		}

		s.niter = iter + 1

		if err := s.jacobian(s.x, s.f); err != nil {
			return 0, err
		}

		s.normal(a, g, s.f)
		s.activeSet(g, active)

		gnorm := s.gnorm(a, g, math.Sqrt(chi2), active)
		if gnorm <= s.cfg.gtol {
			return StatusGtol, nil
		}

		if gnorm <= machEps {
			return StatusGtolTooSmall, nil
		}

		for {
			if !solveDamped(a, g, mu, active, delta) {
				mu *= nu
				nu *= 2

				if mu > maxDamping {
					return StatusXtolTooSmall, nil
				}

				continue
			}

			if s.pegByStep(delta, active) {
				if !anyTrue(active) {
					return StatusGtol, nil
				}

				continue
			}

			alpha := s.stepLength(delta, active)

			copy(xnew, s.x)
			for k, j := range s.ifree {
				xnew[j] = s.params[j].clamp(s.x[j] + alpha*delta[k])
			}

			for i, k := range s.hitK {
				xnew[s.ifree[k]] = s.hitV[i]
			}

			if err := s.eval(xnew, fnew); err != nil {
				return 0, err
			}

			pred := predicted(a, g, delta, alpha) / chi2
			actred := -1.0
			chi2new := floats.Dot(fnew, fnew)

			if finite(fnew) {
				actred = (chi2 - chi2new) / chi2
			}

			ratio := 0.0
			if pred != 0 {
				ratio = actred / pred
			}

			var stepNorm, xnorm float64
			for _, j := range s.ifree {
				d := xnew[j] - s.x[j]
				stepNorm += d * d
				xnorm += s.x[j] * s.x[j]
			}

			stepNorm, xnorm = math.Sqrt(stepNorm), math.Sqrt(xnorm)

			accepted := ratio > acceptRatio
			if accepted {
				copy(s.x, xnew)
				copy(s.f, fnew)
				chi2 = chi2new
				mu *= math.Max(1.0/3, 1-math.Pow(2*ratio-1, 3))
				nu = 2
			} else {
				mu *= nu
				nu *= 2
			}

			s.cfg.log.Debug().
				Int("iter", s.niter).
				Float64("chi2", chi2).
				Float64("ratio", ratio).
				Float64("mu", mu).
				Bool("accepted", accepted).
				Msg("mpfit: step")

			ftolOK := math.Abs(actred) <= s.cfg.ftol && pred <= s.cfg.ftol && 0.5*ratio <= 1
			xtolOK := stepNorm <= s.cfg.xtol*xnorm

			switch {
			case ftolOK && xtolOK:
				return StatusBoth, nil
			case ftolOK:
				return StatusFtol, nil
			case xtolOK:
				return StatusXtol, nil
			case math.Abs(actred) <= machEps && pred <= machEps && 0.5*ratio <= 1:
				return StatusFtolTooSmall, nil
			case stepNorm <= machEps*xnorm, mu > maxDamping:
				return StatusXtolTooSmall, nil
			}

			if accepted {
				break
			}
		}
	}
}

// normal fills a with JᵀJ and g with Jᵀf over the free parameters.
func (s *solver) normal(a *mat.SymDense, g, f []float64) {
	for i, ci := range s.cols {
		g[i] = floats.Dot(ci, f)
		for j := i; j < len(s.cols); j++ {
			a.SetSym(i, j, floats.Dot(ci, s.cols[j]))
		}
	}
}

// activeSet clears active for parameters on a bound whose descent
// direction -g points outward.
func (s *solver) activeSet(g []float64, active []bool) {
	for k, j := range s.ifree {
		p := s.params[j]
		active[k] = !(p.atLower(s.x[j]) && g[k] > 0) && !(p.atUpper(s.x[j]) && g[k] < 0)
	}
}

// pegByStep deactivates parameters on a bound that the step would push
// outward and reports whether any changed.
func (s *solver) pegByStep(delta []float64, active []bool) bool {
	changed := false

	for k, j := range s.ifree {
		if !active[k] {
			continue
		}

		p := s.params[j]
		if (p.atLower(s.x[j]) && delta[k] < 0) || (p.atUpper(s.x[j]) && delta[k] > 0) {
			active[k] = false
			changed = true
		}
	}

	return changed
}

// stepLength returns the largest fraction of delta that keeps all active
// parameters inside their bounds and records which parameters land on one.
func (s *solver) stepLength(delta []float64, active []bool) float64 {
	alpha := 1.0
	s.hitK = s.hitK[:0]
	s.hitV = s.hitV[:0]

	for k, j := range s.ifree {
		if !active[k] || delta[k] == 0 {
			continue
		}

		p := s.params[j]
		x := s.x[j]

		var bound float64

		switch {
		case delta[k] < 0 && p.Limited[0] && x+delta[k] < p.Limits[0]:
			bound = p.Limits[0]
		case delta[k] > 0 && p.Limited[1] && x+delta[k] > p.Limits[1]:
			bound = p.Limits[1]
		default:
			continue
		}

		frac := (bound - x) / delta[k]
		if frac < alpha {
			alpha = frac
			s.hitK = s.hitK[:0]
			s.hitV = s.hitV[:0]
		}

		if frac <= alpha {
			s.hitK = append(s.hitK, k)
			s.hitV = append(s.hitV, bound)
		}
	}

	return alpha
}

// gnorm is the largest cosine between f and an active Jacobian column.
func (s *solver) gnorm(a *mat.SymDense, g []float64, fnorm float64, active []bool) float64 {
	if fnorm == 0 {
		return 0
	}

	var out float64
	for k := range g {
		cn := math.Sqrt(a.At(k, k))
		if !active[k] || cn == 0 {
			continue
		}

		out = math.Max(out, math.Abs(g[k])/(cn*fnorm))
	}

	return out
}

// solveDamped solves (A + mu·diag(A))δ = -g restricted to the active
// parameters; inactive entries of delta are zero.
func solveDamped(a *mat.SymDense, g []float64, mu float64, active []bool, delta []float64) bool {
	idx := make([]int, 0, len(g))
	maxDiag := 0.0

	for k := range g {
		delta[k] = 0
		if active[k] {
			idx = append(idx, k)
			maxDiag = math.Max(maxDiag, a.At(k, k))
		}
	}

	if len(idx) == 0 {
		return true
	}

	floor := 1e-12 * maxDiag
	if floor == 0 {
		floor = 1
	}

	sys := mat.NewSymDense(len(idx), nil)
	rhs := mat.NewVecDense(len(idx), nil)

	for i, ki := range idx {
		rhs.SetVec(i, -g[ki])
		for j := i; j < len(idx); j++ {
			sys.SetSym(i, j, a.At(ki, idx[j]))
		}

		sys.SetSym(i, i, a.At(ki, ki)+mu*math.Max(a.At(ki, ki), floor))
	}

	var ch mat.Cholesky
	if !ch.Factorize(sys) {
		return false
	}

	var sol mat.VecDense
	if err := ch.SolveVecTo(&sol, rhs); err != nil {
		return false
	}

	for i, k := range idx {
		delta[k] = sol.AtVec(i)
		if math.IsNaN(delta[k]) || math.IsInf(delta[k], 0) {
			return false
		}
	}

	return true
}

// predicted returns the chi² reduction of the linearized model for the
// step alpha·delta.
func predicted(a *mat.SymDense, g, delta []float64, alpha float64) float64 {
	gd := floats.Dot(g, delta)

	var dad float64
	for i := range delta {
		for j := range delta {
			dad += delta[i] * a.At(i, j) * delta[j]
		}
	}

	return -2*alpha*gd - alpha*alpha*dad
}

func finite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}

	return true
}

func anyTrue(v []bool) bool {
	for _, b := range v {
		if b {
			return true
		}
	}

	return false
}
