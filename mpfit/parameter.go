package mpfit

import (
	"fmt"
	"math"
)

// Side selects the finite-difference scheme for one parameter.
type Side int

const (
	// SideAuto uses a forward difference, stepping backward near an upper
	// bound.
	SideAuto Side = iota
	// SideForward is a one-sided forward difference.
	SideForward
	// SideBackward is a one-sided backward difference.
	SideBackward
	// SideBoth is a central difference, falling back to one side near a
	// bound.
	SideBoth
)

// Parameter is one entry of the parameter vector.
type Parameter struct {
	Name    string
	Value   float64
	Fixed   bool
	Limited [2]bool
	Limits  [2]float64

	// Step is the absolute derivative step; RelStep a step relative to the
	// value. Zero selects the automatic step.
	Step    float64
	RelStep float64
	Side    Side
}

// label names a parameter in error messages.
func (p Parameter) label(i int) string {
	if p.Name != "" {
		return p.Name
	}

	return fmt.Sprintf("p[%d]", i)
}

func (p Parameter) validate(i int) error {
	if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
		return fmt.Errorf("%w: %s = %g", ErrNonFinite, p.label(i), p.Value)
	}

	if p.Limited[0] && p.Limited[1] && p.Limits[0] > p.Limits[1] {
		return fmt.Errorf("%w: %s [%g, %g]", ErrInvalidLimits, p.label(i), p.Limits[0], p.Limits[1])
	}

	if (p.Limited[0] && p.Value < p.Limits[0]) || (p.Limited[1] && p.Value > p.Limits[1]) {
		return fmt.Errorf("%w: %s = %g", ErrOutOfBounds, p.label(i), p.Value)
	}

	return nil
}

// clamp moves v into the parameter's bounds.
func (p Parameter) clamp(v float64) float64 {
	if p.Limited[0] && v < p.Limits[0] {
		v = p.Limits[0]
	}

	if p.Limited[1] && v > p.Limits[1] {
		v = p.Limits[1]
	}

	return v
}

func (p Parameter) atLower(v float64) bool { return p.Limited[0] && v <= p.Limits[0] }

func (p Parameter) atUpper(v float64) bool { return p.Limited[1] && v >= p.Limits[1] }
