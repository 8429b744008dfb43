package residual

import (
	"math"
	"testing"
)

const tolerance = 1e-10

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestCalculateEmpty(t *testing.T) {
	if s := Calculate(nil); s != (Stats{}) {
		t.Fatalf("Calculate(nil) = %+v, want zero", s)
	}
}

func TestCalculateAlternating(t *testing.T) {
	s := Calculate([]float64{1, -1, 1, -1})

	if s.Length != 4 || !almostEqual(s.Mean, 0, tolerance) || !almostEqual(s.RMS, 1, tolerance) {
		t.Fatalf("unexpected stats: %+v", s)
	}

	if s.SumSquares != 4 || s.Peak != 1 {
		t.Fatalf("SumSquares=%v Peak=%v", s.SumSquares, s.Peak)
	}

	if s.MaxPos != 0 || s.MinPos != 1 {
		t.Fatalf("MaxPos=%d MinPos=%d", s.MaxPos, s.MinPos)
	}

	// Symmetric two-point distribution: skewness 0, excess kurtosis -2.
	if !almostEqual(s.Skewness, 0, tolerance) || !almostEqual(s.Kurtosis, -2, tolerance) {
		t.Fatalf("Skewness=%v Kurtosis=%v", s.Skewness, s.Kurtosis)
	}
}

func TestCalculateConstant(t *testing.T) {
	s := Calculate([]float64{2, 2, 2})

	if !almostEqual(s.Variance, 0, tolerance) || s.Skewness != 0 || s.Kurtosis != 0 {
		t.Fatalf("constant input: %+v", s)
	}
}

func TestMomentsMatchCalculate(t *testing.T) {
	x := []float64{0.3, -1.2, 4.5, 2.2, -0.7, 1.1}

	mean, variance := Moments(x)
	s := Calculate(x)

	if !almostEqual(mean, s.Mean, tolerance) || !almostEqual(variance, s.Variance, tolerance) {
		t.Fatalf("Moments = (%v,%v), Calculate = (%v,%v)", mean, variance, s.Mean, s.Variance)
	}

	if !almostEqual(Std(x), math.Sqrt(s.Variance), tolerance) {
		t.Fatalf("Std = %v", Std(x))
	}
}
