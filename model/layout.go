package model

import (
	"errors"
	"fmt"
	"math"
)

// ErrParamCount is returned when a parameter vector does not match its layout.
var ErrParamCount = errors.New("model: parameter count does not match layout")

// Parameter indices in the full 2D layout.
const (
	IdxHeight = iota
	IdxAmplitude
	IdxCenterX
	IdxCenterY
	IdxWidthX
	IdxWidthY
	IdxRotation
	NumFull
)

var fullNames = [NumFull]string{"HEIGHT", "AMPLITUDE", "XSHIFT", "YSHIFT", "XWIDTH", "YWIDTH", "ROTATION"}

// Layout selects which 2D peak parameters are free.
//
// The packed order is [height] amplitude cx cy width_x [width_y [rotation]]:
// height is present with VHeight, width_y only for elliptical peaks and
// rotation only for rotated elliptical peaks. A circular peak is never
// rotated.
type Layout struct {
	Circle  bool
	Rotate  bool
	VHeight bool
}

// DefaultLayout is an elliptical, rotated peak on a variable background.
func DefaultLayout() Layout {
	return Layout{Rotate: true, VHeight: true}
}

// Rotated reports whether the layout carries a rotation parameter.
func (l Layout) Rotated() bool {
	return l.Rotate && !l.Circle
}

// Indices returns the full-layout index of each packed parameter.
func (l Layout) Indices() []int {
	idx := make([]int, 0, NumFull)
	if l.VHeight {
		idx = append(idx, IdxHeight)
	}

	idx = append(idx, IdxAmplitude, IdxCenterX, IdxCenterY, IdxWidthX)
	if !l.Circle {
		idx = append(idx, IdxWidthY)
		if l.Rotate {
			idx = append(idx, IdxRotation)
		}
	}

	return idx
}

// Name returns the name of full-layout index idx.
func Name(idx int) string {
	if idx < 0 || idx >= NumFull {
		return ""
	}

	return fullNames[idx]
}

// NumParams returns the packed parameter count.
func (l Layout) NumParams() int {
	return len(l.Indices())
}

// Names returns the packed parameter names.
func (l Layout) Names() []string {
	idx := l.Indices()

	names := make([]string, len(idx))
	for i, j := range idx {
		names[i] = fullNames[j]
	}

	return names
}

// Params2D is the complete geometric description of a 2D peak.
// Rotation is in degrees, counter-clockwise from the x axis.
type Params2D struct {
	Height    float64
	Amplitude float64
	CenterX   float64
	CenterY   float64
	WidthX    float64
	WidthY    float64
	Rotation  float64
}

// Unpack reads a packed parameter vector. Parameters absent from the layout
// take neutral values: zero height, no rotation and WidthY = WidthX for
// circular peaks.
func Unpack(values []float64, l Layout) (Params2D, error) {
	idx := l.Indices()
	if len(values) != len(idx) {
		return Params2D{}, fmt.Errorf("%w: got %d values, layout %+v needs %d",
			ErrParamCount, len(values), l, len(idx))
	}

	var full [NumFull]float64
	for i, j := range idx {
		full[j] = values[i]
	}

	if l.Circle {
		full[IdxWidthY] = full[IdxWidthX]
	}

	return fromFull(full), nil
}

// Pack writes p in the layout's packed order.
func (p Params2D) Pack(l Layout) []float64 {
	full := p.full()
	idx := l.Indices()

	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = full[j]
	}

	return out
}

// Full returns all seven parameters in full-layout order.
func (p Params2D) Full() []float64 {
	f := p.full()
	return f[:]
}

// FromFull builds Params2D from a full-layout vector.
func FromFull(values []float64) (Params2D, error) {
	if len(values) != NumFull {
		return Params2D{}, fmt.Errorf("%w: got %d values, want %d", ErrParamCount, len(values), NumFull)
	}

	var full [NumFull]float64
	copy(full[:], values)

	return fromFull(full), nil
}

func (p Params2D) full() [NumFull]float64 {
	return [NumFull]float64{p.Height, p.Amplitude, p.CenterX, p.CenterY, p.WidthX, p.WidthY, p.Rotation}
}

func fromFull(f [NumFull]float64) Params2D {
	return Params2D{
		Height:    f[IdxHeight],
		Amplitude: f[IdxAmplitude],
		CenterX:   f[IdxCenterX],
		CenterY:   f[IdxCenterY],
		WidthX:    f[IdxWidthX],
		WidthY:    f[IdxWidthY],
		Rotation:  f[IdxRotation],
	}
}

// Normalize wraps the rotation into [0, 180).
func (p Params2D) Normalize() Params2D {
	r := math.Mod(p.Rotation, 180)
	if r < 0 {
		r += 180
	}

	p.Rotation = r

	return p
}

// frame holds the rotation and rotated centre of a peak.
type frame struct {
	cos, sin float64
	rcx, rcy float64
}

func newFrame(p Params2D) frame {
	rad := p.Rotation * math.Pi / 180
	c, s := math.Cos(rad), math.Sin(rad)

	return frame{
		cos: c,
		sin: s,
		rcx: p.CenterX*c - p.CenterY*s,
		rcy: p.CenterX*s + p.CenterY*c,
	}
}

// offsets returns the rotated offsets of (x, y) from the peak centre.
func (f frame) offsets(x, y float64) (float64, float64) {
	return x*f.cos - y*f.sin - f.rcx, x*f.sin + y*f.cos - f.rcy
}
