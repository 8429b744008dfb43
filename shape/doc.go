// Package shape provides normalized peak profiles for model fitting.
//
// A [Profile] is a 1D function of the offset from the peak centre and a
// width. Every built-in profile has a maximum of 1 at x = 0, and its width
// is scaled so that near the centre it matches a Gaussian of standard
// deviation width:
//
//	p(x, w) ≈ exp(-x²/(2w²))   for |x| << w
//
// This keeps initial guesses derived from Gaussian moments meaningful for
// every profile. Available profiles:
//
//   - [Gaussian]:    exp(-x²/2w²)
//   - [Lorentzian]:  1 / (1 + x²/2w²)
//   - [Airy]:        (2 J1(v)/v)², v = √2 x/w (diffraction-limited beam)
//   - [SincSquared]: (sin u/u)², u = √1.5 x/w
//   - [Sech]:        sech(x/w)
//   - [Moffat]:      (1 + x²/α²)^-β, α = w √(2β)
//
// [Profile2D] is the non-separable counterpart used for circularly
// symmetric beams ([Gaussian2D], [Airy2D]). [LaguerreGauss] evaluates the
// complex amplitude of a Laguerre-Gaussian beam mode.
package shape
