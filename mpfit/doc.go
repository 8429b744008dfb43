// Package mpfit implements a bounded Levenberg-Marquardt least-squares solver.
//
// The caller supplies a residual function that fills a vector of M weighted
// deviations (data minus model, divided by the measurement error) for a
// parameter vector. Solve minimizes the sum of squares chi² = Σ r² over the
// free parameters.
//
// # Parameters
//
// Each Parameter carries a start value and optional constraints:
//
//   - Fixed parameters are passed to the residual function unchanged and
//     get a zero error.
//   - Limited[0]/Limited[1] enable the lower/upper bound in Limits. The
//     start value must lie inside the bounds; iterates never leave them.
//   - Step, RelStep and Side control the finite-difference derivative.
//
// # Algorithm
//
// Every iteration builds a forward, backward or central difference Jacobian
// whose probe points stay inside the bounds, then solves the Marquardt-damped
// normal equations (JᵀJ + μ·diag(JᵀJ))δ = -Jᵀr by Cholesky factorization.
// Parameters sitting on a bound whose gradient points outward are pegged
// (frozen) for that iteration; the remaining step is shortened so that no
// parameter crosses its bound. The damping μ follows the gain ratio of the
// actual to the predicted reduction of chi².
//
// Termination uses the MINPACK tests: ftol bounds the relative reduction of
// chi², xtol the relative step length, and gtol the cosine between the
// residual vector and any Jacobian column. Status reports which test fired.
//
// # Uncertainties
//
// After convergence the covariance of the free parameters is the inverse of
// JᵀJ at the solution, falling back to an SVD pseudo-inverse when JᵀJ is
// singular. Errors are the square roots of its diagonal and are not scaled
// by the reduced chi².
package mpfit
