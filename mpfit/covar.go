package mpfit

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

var errSVD = errors.New("mpfit: SVD of the curvature matrix did not converge")

// covariance evaluates the Jacobian at the solution and stores the
// covariance and parameter errors in res.
func (s *solver) covariance(res *Result) error {
	if err := s.jacobian(s.x, s.f); err != nil {
		return err
	}

	n := len(s.ifree)
	a := mat.NewSymDense(n, nil)
	g := make([]float64, n)
	s.normal(a, g, s.f)

	inv, err := invert(a)
	if err != nil {
		return err
	}

	np := len(s.params)
	res.Covar = mat.NewSymDense(np, nil)
	res.Errors = make([]float64, np)

	for i, ji := range s.ifree {
		for k := i; k < n; k++ {
			res.Covar.SetSym(ji, s.ifree[k], inv.At(i, k))
		}

		res.Errors[ji] = math.Sqrt(math.Max(inv.At(i, i), 0))
	}

	return nil
}

// invert returns the inverse of the symmetric matrix a, or its
// pseudo-inverse when a is singular.
func invert(a *mat.SymDense) (*mat.SymDense, error) {
	var ch mat.Cholesky
	if ch.Factorize(a) {
		var inv mat.SymDense
		if err := ch.InverseTo(&inv); err == nil {
			return &inv, nil
		}
	}

	return pseudoInverse(a)
}

func pseudoInverse(a *mat.SymDense) (*mat.SymDense, error) {
	n := a.SymmetricDim()

	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDThin) {
		return nil, errSVD
	}

	sv := svd.Values(nil)

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	cutoff := 0.0
	if len(sv) > 0 {
		cutoff = sv[0] * float64(n) * machEps
	}

	out := mat.NewSymDense(n, nil)
	for i := range n {
		for j := i; j < n; j++ {
			var sum float64
			for k, sk := range sv {
				if sk > cutoff {
					sum += v.At(i, k) * u.At(j, k) / sk
				}
			}

			out.SetSym(i, j, sum)
		}
	}

	return out, nil
}
