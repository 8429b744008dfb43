package shape

import (
	"math"
	"math/cmplx"
)

// GenLaguerre evaluates the generalized Laguerre polynomial L_n^alpha(x)
// with the three-term recurrence. n < 0 yields 0.
func GenLaguerre(n int, alpha, x float64) float64 {
	if n < 0 {
		return 0
	}

	prev := 1.0
	if n == 0 {
		return prev
	}

	cur := 1 + alpha - x
	for k := 1; k < n; k++ {
		kf := float64(k)
		next := ((2*kf+1+alpha-x)*cur - (kf+alpha)*prev) / (kf + 1)
		prev, cur = cur, next
	}

	return cur
}

// LaguerreGaussNorm returns sqrt(2 p! / (π (p+|l|)!)).
func LaguerreGaussNorm(p, l int) float64 {
	al := absInt(l)
	lp, _ := math.Lgamma(float64(p + 1))
	lpl, _ := math.Lgamma(float64(p + al + 1))

	return math.Sqrt(2 / math.Pi * math.Exp(lp-lpl))
}

// LaguerreGauss returns the complex amplitude of the (p, l) Laguerre-Gauss
// mode at normalized coordinates (x, y):
//
//	c_pl · L_p^|l|(2r²) · (√2 r)^|l| · exp(-r²) · exp(-i l φ)
//
// p is the radial and l the azimuthal mode number.
func LaguerreGauss(x, y float64, p, l int) complex128 {
	al := absInt(l)
	r2 := x*x + y*y
	r := math.Sqrt(r2)

	mag := LaguerreGaussNorm(p, l) *
		GenLaguerre(p, float64(al), 2*r2) *
		math.Pow(math.Sqrt2*r, float64(al)) *
		math.Exp(-r2)

	if l == 0 {
		return complex(mag, 0)
	}

	phi := math.Atan2(y, x)

	return complex(mag, 0) * cmplx.Exp(complex(0, -float64(l)*phi))
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}

	return v
}
