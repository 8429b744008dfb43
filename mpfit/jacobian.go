package mpfit

import "math"

// jacobian fills s.cols with the finite-difference derivatives of the
// residuals at x, where f holds the residuals at x. Probe points never leave
// the parameter bounds.
func (s *solver) jacobian(x, f []float64) error {
	eps := math.Sqrt(math.Max(s.cfg.epsfcn, machEps))

	copy(s.xp, x)

	for k, j := range s.ifree {
		p := s.params[j]
		h := derivStep(p, x[j], eps)

		central := p.Side == SideBoth && inside(p, x[j]+h) && inside(p, x[j]-h)
		if !central {
			h = oneSided(p, x[j], h)
		}

		col := s.cols[k]

		s.xp[j] = x[j] + h
		if err := s.eval(s.xp, s.fp); err != nil {
			return err
		}

		if central {
			s.xp[j] = x[j] - h
			if err := s.eval(s.xp, s.fm); err != nil {
				return err
			}

			for i := range col {
				col[i] = (s.fp[i] - s.fm[i]) / (2 * h)
			}
		} else {
			for i := range col {
				col[i] = (s.fp[i] - f[i]) / h
			}
		}

		s.xp[j] = x[j]
	}

	return nil
}

// derivStep returns the positive derivative step for p at value v.
func derivStep(p Parameter, v, eps float64) float64 {
	h := eps * math.Abs(v)

	if p.Step > 0 {
		h = p.Step
	}

	if p.RelStep > 0 && v != 0 {
		h = p.RelStep * math.Abs(v)
	}

	if h == 0 {
		h = eps
	}

	return h
}

// oneSided returns a signed step that keeps v+h inside the bounds of p,
// shrinking it when neither direction has room for the full step.
func oneSided(p Parameter, v, h float64) float64 {
	if p.Side == SideBackward {
		h = -h
	}

	if inside(p, v+h) {
		return h
	}

	if inside(p, v-h) {
		return -h
	}

	up, down := math.Inf(1), math.Inf(1)
	if p.Limited[1] {
		up = p.Limits[1] - v
	}

	if p.Limited[0] {
		down = v - p.Limits[0]
	}

	if up >= down {
		return up
	}

	return -down
}

func inside(p Parameter, v float64) bool {
	return (!p.Limited[0] || v >= p.Limits[0]) && (!p.Limited[1] || v <= p.Limits[1])
}
