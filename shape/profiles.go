package shape

import "math"

// Profile is a peak profile centred at 0 with a maximum of 1.
type Profile func(x, width float64) float64

// Profile2D is a peak profile in centred, rotated coordinates.
type Profile2D func(dx, dy, widthX, widthY float64) float64

// scaled returns x/width, treating a zero width as a delta function.
func scaled(x, width float64) (float64, bool) {
	if width == 0 {
		return 0, x == 0
	}

	return x / width, true
}

// Gaussian is exp(-x²/(2w²)).
func Gaussian(x, width float64) float64 {
	u, ok := scaled(x, width)
	if !ok {
		return 0
	}

	return math.Exp(-0.5 * u * u)
}

// Lorentzian is 1/(1 + x²/(2w²)).
func Lorentzian(x, width float64) float64 {
	u, ok := scaled(x, width)
	if !ok {
		return 0
	}

	return 1 / (1 + 0.5*u*u)
}

// Airy is the Airy disc intensity (2 J1(v)/v)² with v = √2 x/w.
func Airy(x, width float64) float64 {
	u, ok := scaled(x, width)
	if !ok {
		return 0
	}

	return airyIntensity(math.Sqrt2 * math.Abs(u))
}

func airyIntensity(v float64) float64 {
	if v < 1e-8 {
		return 1
	}

	a := 2 * math.J1(v) / v

	return a * a
}

// SincSquared is (sin u / u)² with u = √1.5 x/w.
func SincSquared(x, width float64) float64 {
	u, ok := scaled(x, width)
	if !ok {
		return 0
	}

	u *= math.Sqrt(1.5)
	if math.Abs(u) < 1e-8 {
		return 1
	}

	s := math.Sin(u) / u

	return s * s
}

// Sech is the hyperbolic secant 1/cosh(x/w).
func Sech(x, width float64) float64 {
	u, ok := scaled(x, width)
	if !ok {
		return 0
	}

	return 1 / math.Cosh(u)
}

// Moffat returns a Moffat profile (1 + x²/α²)^-β with α = w√(2β).
// Non-positive beta falls back to beta = 1 (a Lorentzian).
func Moffat(beta float64) Profile {
	if beta <= 0 {
		beta = 1
	}

	return func(x, width float64) float64 {
		u, ok := scaled(x, width)
		if !ok {
			return 0
		}

		return math.Pow(1+u*u/(2*beta), -beta)
	}
}

// Gaussian2D is exp(-(dx²/wx² + dy²/wy²)/2).
func Gaussian2D(dx, dy, widthX, widthY float64) float64 {
	return Gaussian(dx, widthX) * Gaussian(dy, widthY)
}

// Airy2D is the elliptical Airy disc: the radial Airy intensity evaluated at
// the normalized radius sqrt((dx/wx)² + (dy/wy)²).
func Airy2D(dx, dy, widthX, widthY float64) float64 {
	u, okx := scaled(dx, widthX)
	v, oky := scaled(dy, widthY)

	if !okx || !oky {
		return 0
	}

	return airyIntensity(math.Sqrt2 * math.Hypot(u, v))
}

// Elliptical adapts a 1D profile to a separable 2D profile.
func Elliptical(p Profile) Profile2D {
	return func(dx, dy, widthX, widthY float64) float64 {
		return p(dx, widthX) * p(dy, widthY)
	}
}
