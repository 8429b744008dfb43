package mpfit

import (
	"errors"
	"fmt"
)

// Errors returned by Solve.
var (
	ErrNoParameters     = errors.New("mpfit: no parameters")
	ErrNoFreeParameters = errors.New("mpfit: all parameters are fixed")
	ErrTooFewResiduals  = errors.New("mpfit: fewer residuals than free parameters")
	ErrInvalidLimits    = errors.New("mpfit: lower limit exceeds upper limit")
	ErrOutOfBounds      = errors.New("mpfit: start value outside limits")
	ErrNonFinite        = errors.New("mpfit: non-finite value")
)

// Status reports why Solve stopped.
type Status int

const (
	StatusFtol         Status = 1
	StatusXtol         Status = 2
	StatusBoth         Status = 3
	StatusGtol         Status = 4
	StatusMaxIter      Status = 5
	StatusFtolTooSmall Status = 6
	StatusXtolTooSmall Status = 7
	StatusGtolTooSmall Status = 8
)

var statusText = map[Status]string{
	StatusFtol:         "relative reduction in chi-square below ftol",
	StatusXtol:         "relative change in parameters below xtol",
	StatusBoth:         "chi-square and parameter changes below ftol and xtol",
	StatusGtol:         "residuals orthogonal to the Jacobian within gtol",
	StatusMaxIter:      "maximum number of iterations reached",
	StatusFtolTooSmall: "ftol too small, no further reduction in chi-square possible",
	StatusXtolTooSmall: "xtol too small, no further improvement in parameters possible",
	StatusGtolTooSmall: "gtol too small, residuals orthogonal to the Jacobian to machine precision",
}

// String describes the status.
func (s Status) String() string {
	if txt, ok := statusText[s]; ok {
		return txt
	}

	return fmt.Sprintf("status(%d)", int(s))
}

// Converged reports whether one of the tolerance tests succeeded.
func (s Status) Converged() bool {
	return s >= StatusFtol && s <= StatusGtol
}
