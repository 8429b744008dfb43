package model

import (
	"fmt"

	"github.com/cwbudde/algo-peakfit/shape"
)

// NumModes returns the number of mode amplitudes for radial orders 0..maxP
// and azimuthal orders 0..maxL.
func NumModes(maxP, maxL int) int {
	if maxP < 0 || maxL < 0 {
		return 0
	}

	return (maxP + 1) * (maxL + 1)
}

// BeamIndices returns the full-layout indices of the geometric beam
// parameters: the layout without AMPLITUDE, which the mode amplitudes
// replace.
func BeamIndices(l Layout) []int {
	idx := l.Indices()

	out := idx[:0]
	for _, j := range idx {
		if j != IdxAmplitude {
			out = append(out, j)
		}
	}

	return out
}

// Beam is a multimode elliptical Laguerre-Gaussian beam intensity:
//
//	I(x, y) = |h + Σ_{p,l} a_pl · LG_pl((x'-cx')/wx, (y'-cy')/wy)|²
//
// The background h adds to the field before squaring. Amplitudes are stored
// row-major by radial order p.
type Beam struct {
	maxP, maxL int
	params     Params2D
	amps       []float64
	f          frame
}

// NewBeam builds a beam model. params.Amplitude is ignored.
func NewBeam(params Params2D, maxP, maxL int, amps []float64) (*Beam, error) {
	if n := NumModes(maxP, maxL); n == 0 || len(amps) != n {
		return nil, fmt.Errorf("%w: %d mode amplitudes for maxP=%d maxL=%d", ErrParamCount, len(amps), maxP, maxL)
	}

	return &Beam{
		maxP:   maxP,
		maxL:   maxL,
		params: params,
		amps:   append([]float64(nil), amps...),
		f:      newFrame(params),
	}, nil
}

// UnpackBeam reads [geometry..., amplitudes...] packed per BeamIndices.
func UnpackBeam(values []float64, l Layout, maxP, maxL int) (*Beam, error) {
	idx := BeamIndices(l)
	nm := NumModes(maxP, maxL)

	if nm == 0 || len(values) != len(idx)+nm {
		return nil, fmt.Errorf("%w: got %d values, want %d geometric + %d modes",
			ErrParamCount, len(values), len(idx), nm)
	}

	var full [NumFull]float64
	for i, j := range idx {
		full[j] = values[i]
	}

	if l.Circle {
		full[IdxWidthY] = full[IdxWidthX]
	}

	return NewBeam(fromFull(full), maxP, maxL, values[len(idx):])
}

// Params returns the geometric parameters.
func (b *Beam) Params() Params2D { return b.params }

// Amplitudes returns a copy of the mode amplitudes.
func (b *Beam) Amplitudes() []float64 {
	return append([]float64(nil), b.amps...)
}

// Amplitude returns the amplitude of mode (p, l).
func (b *Beam) Amplitude(p, l int) float64 {
	return b.amps[p*(b.maxL+1)+l]
}

// Eval returns the beam intensity at column x, row y.
func (b *Beam) Eval(x, y float64) float64 {
	dx, dy := b.f.offsets(x, y)
	xn := dx / b.params.WidthX
	yn := dy / b.params.WidthY

	field := complex(b.params.Height, 0)
	for p := 0; p <= b.maxP; p++ {
		for l := 0; l <= b.maxL; l++ {
			a := b.amps[p*(b.maxL+1)+l]
			if a == 0 {
				continue
			}

			field += complex(a, 0) * shape.LaguerreGauss(xn, yn, p, l)
		}
	}

	return real(field)*real(field) + imag(field)*imag(field)
}
