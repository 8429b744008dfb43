package model

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/cwbudde/algo-peakfit/shape"
)

func TestLayoutNames(t *testing.T) {
	tests := []struct {
		name   string
		layout Layout
		want   []string
	}{
		{"full", DefaultLayout(), []string{"HEIGHT", "AMPLITUDE", "XSHIFT", "YSHIFT", "XWIDTH", "YWIDTH", "ROTATION"}},
		{"no rotate", Layout{VHeight: true}, []string{"HEIGHT", "AMPLITUDE", "XSHIFT", "YSHIFT", "XWIDTH", "YWIDTH"}},
		{"circle ignores rotate", Layout{Circle: true, Rotate: true, VHeight: true}, []string{"HEIGHT", "AMPLITUDE", "XSHIFT", "YSHIFT", "XWIDTH"}},
		{"no height", Layout{Rotate: true}, []string{"AMPLITUDE", "XSHIFT", "YSHIFT", "XWIDTH", "YWIDTH", "ROTATION"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.layout.Names(); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Names() = %v, want %v", got, tt.want)
			}

			if tt.layout.NumParams() != len(tt.want) {
				t.Fatalf("NumParams() = %d, want %d", tt.layout.NumParams(), len(tt.want))
			}
		})
	}
}

func TestUnpackPackRoundTrip(t *testing.T) {
	l := Layout{Circle: true, VHeight: true}

	p, err := Unpack([]float64{0.5, 2, 10, 20, 3}, l)
	if err != nil {
		t.Fatal(err)
	}

	want := Params2D{Height: 0.5, Amplitude: 2, CenterX: 10, CenterY: 20, WidthX: 3, WidthY: 3}
	if p != want {
		t.Fatalf("Unpack = %+v, want %+v", p, want)
	}

	if got := p.Pack(l); !reflect.DeepEqual(got, []float64{0.5, 2, 10, 20, 3}) {
		t.Fatalf("Pack = %v", got)
	}
}

func TestUnpackWrongCount(t *testing.T) {
	_, err := Unpack([]float64{1, 2, 3}, DefaultLayout())
	if !errors.Is(err, ErrParamCount) {
		t.Fatalf("err = %v, want ErrParamCount", err)
	}

	_, err = Unpack(make([]float64, 8), DefaultLayout())
	if !errors.Is(err, ErrParamCount) {
		t.Fatalf("leftover values: err = %v, want ErrParamCount", err)
	}
}

func TestNormalize(t *testing.T) {
	for _, tc := range []struct{ in, want float64 }{
		{30, 30}, {210, 30}, {-30, 150}, {180, 0}, {-360, 0},
	} {
		got := Params2D{Rotation: tc.in}.Normalize().Rotation
		if math.Abs(got-tc.want) > 1e-12 {
			t.Errorf("Normalize(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestSeparablePeakValueAtCenter(t *testing.T) {
	p := Params2D{Height: 1, Amplitude: 3, CenterX: 5, CenterY: 7, WidthX: 2, WidthY: 4, Rotation: 37}
	m := NewSeparable2D(shape.Gaussian, p)

	if got := m.Eval(5, 7); math.Abs(got-4) > 1e-12 {
		t.Fatalf("Eval(center) = %v, want 4", got)
	}
}

func TestRotationSwapsAxes(t *testing.T) {
	base := Params2D{Amplitude: 1, CenterX: 20, CenterY: 20, WidthX: 2, WidthY: 6}
	rot := base
	rot.Rotation = 90
	rot.WidthX, rot.WidthY = base.WidthY, base.WidthX

	a := NewSeparable2D(shape.Gaussian, base)
	b := NewSeparable2D(shape.Gaussian, rot)

	for _, pt := range [][2]float64{{20, 20}, {23, 18}, {15, 27}, {20, 26}} {
		if d := math.Abs(a.Eval(pt[0], pt[1]) - b.Eval(pt[0], pt[1])); d > 1e-12 {
			t.Fatalf("models differ at %v by %g", pt, d)
		}
	}
}

func TestRotationHalfTurnIsIdentity(t *testing.T) {
	p := Params2D{Amplitude: 1, CenterX: 10, CenterY: 12, WidthX: 2, WidthY: 5, Rotation: 30}
	q := p
	q.Rotation = 210

	a := NewSeparable2D(shape.Lorentzian, p)
	b := NewSeparable2D(shape.Lorentzian, q)

	for _, pt := range [][2]float64{{11, 14}, {7, 9}, {10, 12}} {
		if d := math.Abs(a.Eval(pt[0], pt[1]) - b.Eval(pt[0], pt[1])); d > 1e-12 {
			t.Fatalf("models differ at %v by %g", pt, d)
		}
	}
}

func TestPeak2DMatchesSeparableGaussian(t *testing.T) {
	p := Params2D{Height: 0.2, Amplitude: 1.5, CenterX: 8, CenterY: 9, WidthX: 2, WidthY: 3, Rotation: 15}

	a, err := Render(NewSeparable2D(shape.Gaussian, p), 16, 16)
	if err != nil {
		t.Fatal(err)
	}

	b, err := Render(NewPeak2D(shape.Gaussian2D, p), 16, 16)
	if err != nil {
		t.Fatal(err)
	}

	for i := range a.Data {
		if math.Abs(a.Data[i]-b.Data[i]) > 1e-12 {
			t.Fatalf("pixel %d: %v vs %v", i, a.Data[i], b.Data[i])
		}
	}
}

func TestRenderCoordinates(t *testing.T) {
	p := Params2D{Amplitude: 1, CenterX: 6, CenterY: 2, WidthX: 1, WidthY: 1}

	img, err := Render(NewSeparable2D(shape.Gaussian, p), 5, 10)
	if err != nil {
		t.Fatal(err)
	}

	v, x, y := img.Max()
	if x != 6 || y != 2 || math.Abs(v-1) > 1e-15 {
		t.Fatalf("peak at (%d,%d)=%v, want (6,2)=1", x, y, v)
	}
}
