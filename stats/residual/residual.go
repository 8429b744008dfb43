// Package residual summarizes fit residuals.
package residual

import "math"

// Stats holds statistics of a residual vector (data minus model, optionally
// divided by sigma).
type Stats struct {
	Length     int
	Mean       float64
	RMS        float64
	Max        float64
	MaxPos     int
	Min        float64
	MinPos     int
	Peak       float64 // max(|max|, |min|)
	SumSquares float64 // chi-square for sigma-weighted residuals
	Variance   float64
	Skewness   float64
	Kurtosis   float64 // excess kurtosis
}

// Calculate computes all statistics in a single pass using Welford's online
// algorithm for the higher-order moments.
func Calculate(resid []float64) Stats {
	n := len(resid)
	if n == 0 {
		return Stats{}
	}

	var (
		mean, m2, m3, m4 float64
		sumSq            float64
		maxVal           = resid[0]
		maxPos           int
		minVal           = resid[0]
		minPos           int
	)

	for i, x := range resid {
		ni := float64(i + 1)
		delta := x - mean
		deltaN := delta / ni
		deltaN2 := deltaN * deltaN
		term1 := delta * deltaN * float64(i)

		// M4 must be updated before M3, and M3 before M2.
		m4 += term1*deltaN2*(ni*ni-3*ni+3) + 6*deltaN2*m2 - 4*deltaN*m3
		m3 += term1*deltaN*(float64(i)-1) - 3*deltaN*m2
		m2 += term1
		mean += deltaN

		sumSq += x * x

		if x > maxVal {
			maxVal = x
			maxPos = i
		}

		if x < minVal {
			minVal = x
			minPos = i
		}
	}

	nf := float64(n)
	variance := m2 / nf

	var skewness, kurtosis float64
	if variance > 0 {
		skewness = (m3 / nf) / (variance * math.Sqrt(variance))
		kurtosis = (m4/nf)/(variance*variance) - 3
	}

	return Stats{
		Length:     n,
		Mean:       mean,
		RMS:        math.Sqrt(sumSq / nf),
		Max:        maxVal,
		MaxPos:     maxPos,
		Min:        minVal,
		MinPos:     minPos,
		Peak:       math.Max(math.Abs(maxVal), math.Abs(minVal)),
		SumSquares: sumSq,
		Variance:   variance,
		Skewness:   skewness,
		Kurtosis:   kurtosis,
	}
}

// Moments returns the mean and population variance of x using Welford's
// algorithm.
func Moments(x []float64) (mean, variance float64) {
	if len(x) == 0 {
		return 0, 0
	}

	var m2 float64
	for i, v := range x {
		delta := v - mean
		mean += delta / float64(i+1)
		m2 += delta * (v - mean)
	}

	return mean, m2 / float64(len(x))
}

// Std returns the population standard deviation of x.
func Std(x []float64) float64 {
	_, v := Moments(x)
	return math.Sqrt(v)
}
