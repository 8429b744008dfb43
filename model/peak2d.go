package model

import (
	"github.com/cwbudde/algo-peakfit/grid"
	"github.com/cwbudde/algo-peakfit/shape"
)

// Model2D is a function of pixel position.
type Model2D interface {
	Eval(x, y float64) float64
}

// Separable2D is h + a·p(x'-cx', wx)·p(y'-cy', wy) in rotated coordinates.
type Separable2D struct {
	profile shape.Profile
	params  Params2D
	f       frame
}

// NewSeparable2D prepares a separable peak model.
func NewSeparable2D(p shape.Profile, params Params2D) *Separable2D {
	return &Separable2D{profile: p, params: params, f: newFrame(params)}
}

// Params returns the model parameters.
func (m *Separable2D) Params() Params2D { return m.params }

// Eval returns the model value at column x, row y.
func (m *Separable2D) Eval(x, y float64) float64 {
	dx, dy := m.f.offsets(x, y)
	p := &m.params

	return p.Height + p.Amplitude*m.profile(dx, p.WidthX)*m.profile(dy, p.WidthY)
}

// Peak2D is h + a·P(x'-cx', y'-cy', wx, wy) for a non-separable profile.
type Peak2D struct {
	profile shape.Profile2D
	params  Params2D
	f       frame
}

// NewPeak2D prepares a non-separable peak model.
func NewPeak2D(p shape.Profile2D, params Params2D) *Peak2D {
	return &Peak2D{profile: p, params: params, f: newFrame(params)}
}

// Params returns the model parameters.
func (m *Peak2D) Params() Params2D { return m.params }

// Eval returns the model value at column x, row y.
func (m *Peak2D) Eval(x, y float64) float64 {
	dx, dy := m.f.offsets(x, y)
	p := &m.params

	return p.Height + p.Amplitude*m.profile(dx, dy, p.WidthX, p.WidthY)
}

// Render evaluates m on a rows x cols pixel grid.
func Render(m Model2D, rows, cols int) (*grid.Image, error) {
	img, err := grid.NewImage(rows, cols)
	if err != nil {
		return nil, err
	}

	RenderInto(img, m)

	return img, nil
}

// RenderInto overwrites every pixel of img, masked or not, with m.
func RenderInto(img *grid.Image, m Model2D) {
	for y := range img.Rows {
		row := img.Data[y*img.Cols : (y+1)*img.Cols]
		for x := range row {
			row[x] = m.Eval(float64(x), float64(y))
		}
	}
}
