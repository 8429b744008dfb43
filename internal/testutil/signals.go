package testutil

import (
	"math"
	"math/rand"
)

// DeterministicNoise generates zero-mean Gaussian noise of standard deviation
// sigma with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, sigma float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = rng.NormFloat64() * sigma
	}
	return out
}

// AddNoise adds DeterministicNoise to data in place and returns data.
func AddNoise(data []float64, seed int64, sigma float64) []float64 {
	noise := DeterministicNoise(seed, sigma, len(data))
	for i := range data {
		data[i] += noise[i]
	}
	return data
}

// GaussianLine samples h + a*exp(-(x-c)²/(2w²)) at x = 0..length-1.
func GaussianLine(length int, h, a, c, w float64) []float64 {
	out := make([]float64, length)
	for i := range out {
		d := (float64(i) - c) / w
		out[i] = h + a*math.Exp(-0.5*d*d)
	}
	return out
}

// DC generates a constant-valued signal.
func DC(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}
	return out
}

// Ones returns a slice of length n filled with 1.0.
func Ones(n int) []float64 {
	return DC(1.0, n)
}
