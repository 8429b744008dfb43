package model

import (
	"fmt"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-peakfit/shape"
)

// Line is one component of a multi-peak spectrum.
type Line struct {
	Amplitude float64
	Center    float64
	Width     float64
}

// OnePeak returns h + a·p(x - center, width).
func OnePeak(p shape.Profile, x, height, amplitude, center, width float64) float64 {
	return height + amplitude*p(x-center, width)
}

// Curve evaluates OnePeak at every x into dst (grown when needed).
func Curve(dst []float64, p shape.Profile, x []float64, height float64, line Line) []float64 {
	if cap(dst) < len(x) {
		dst = make([]float64, len(x))
	}

	dst = dst[:len(x)]
	for i, xi := range x {
		dst[i] = OnePeak(p, xi, height, line.Amplitude, line.Center, line.Width)
	}

	return dst
}

// NPeak is a sum of lines of a common profile on a zero baseline.
type NPeak struct {
	Profile shape.Profile
	Lines   []Line

	unit, scaled []float64
}

// NPeakFromValues builds an NPeak from [a0, c0, w0, a1, c1, w1, ...].
func NPeakFromValues(p shape.Profile, values []float64) (*NPeak, error) {
	if len(values) == 0 || len(values)%3 != 0 {
		return nil, fmt.Errorf("%w: %d values is not a multiple of 3", ErrParamCount, len(values))
	}

	lines := make([]Line, len(values)/3)
	for i := range lines {
		lines[i] = Line{Amplitude: values[3*i], Center: values[3*i+1], Width: values[3*i+2]}
	}

	return &NPeak{Profile: p, Lines: lines}, nil
}

// NPeakFromLines builds an NPeak from separate amplitude, center and width
// slices, which must have equal length.
func NPeakFromLines(p shape.Profile, amplitude, center, width []float64) (*NPeak, error) {
	if len(amplitude) != len(center) || len(center) != len(width) {
		return nil, fmt.Errorf("%w: amplitude %d, center %d, width %d",
			ErrParamCount, len(amplitude), len(center), len(width))
	}

	lines := make([]Line, len(amplitude))
	for i := range lines {
		lines[i] = Line{Amplitude: amplitude[i], Center: center[i], Width: width[i]}
	}

	return &NPeak{Profile: p, Lines: lines}, nil
}

// Values packs the lines as [a0, c0, w0, a1, ...].
func (n *NPeak) Values() []float64 {
	out := make([]float64, 0, 3*len(n.Lines))
	for _, l := range n.Lines {
		out = append(out, l.Amplitude, l.Center, l.Width)
	}

	return out
}

// Eval writes the summed model at every x into dst (grown when needed).
// An NPeak reuses internal scratch buffers and is not safe for concurrent use.
func (n *NPeak) Eval(dst, x []float64) []float64 {
	m := len(x)
	if cap(dst) < m {
		dst = make([]float64, m)
	}

	dst = dst[:m]
	for i := range dst {
		dst[i] = 0
	}

	if cap(n.unit) < m {
		n.unit = make([]float64, m)
		n.scaled = make([]float64, m)
	}

	unit, scaled := n.unit[:m], n.scaled[:m]

	for _, l := range n.Lines {
		for i, xi := range x {
			unit[i] = n.Profile(xi-l.Center, l.Width)
		}

		vecmath.ScaleBlock(scaled, unit, l.Amplitude)
		vecmath.AddBlockInPlace(dst, scaled)
	}

	return dst
}
