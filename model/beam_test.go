package model

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/cwbudde/algo-peakfit/shape"
)

func TestBeamIndices(t *testing.T) {
	got := BeamIndices(DefaultLayout())
	want := []int{IdxHeight, IdxCenterX, IdxCenterY, IdxWidthX, IdxWidthY, IdxRotation}

	if !reflect.DeepEqual(got, want) {
		t.Fatalf("BeamIndices = %v, want %v", got, want)
	}
}

func TestNumModes(t *testing.T) {
	if NumModes(1, 0) != 2 || NumModes(2, 1) != 6 || NumModes(-1, 0) != 0 {
		t.Fatal("unexpected mode counts")
	}
}

func TestFundamentalBeamIsGaussian(t *testing.T) {
	// |a·LG00(x/w)|² = a²·(2/π)·exp(-2r²): a Gaussian of sigma w/2.
	p := Params2D{CenterX: 16, CenterY: 16, WidthX: 6, WidthY: 6}

	b, err := NewBeam(p, 0, 0, []float64{1.5})
	if err != nil {
		t.Fatal(err)
	}

	peak := 1.5 * 1.5 * 2 / math.Pi
	g := NewSeparable2D(shape.Gaussian, Params2D{Amplitude: peak, CenterX: 16, CenterY: 16, WidthX: 3, WidthY: 3})

	for _, pt := range [][2]float64{{16, 16}, {18, 15}, {10, 20}} {
		if d := math.Abs(b.Eval(pt[0], pt[1]) - g.Eval(pt[0], pt[1])); d > 1e-12 {
			t.Fatalf("beam differs from Gaussian at %v by %g", pt, d)
		}
	}
}

func TestUnpackBeam(t *testing.T) {
	l := Layout{VHeight: true}
	values := []float64{0, 10, 11, 3, 4, 1, 0.25}

	b, err := UnpackBeam(values, l, 1, 0)
	if err != nil {
		t.Fatal(err)
	}

	if b.Params().CenterY != 11 || b.Params().WidthY != 4 {
		t.Fatalf("geometry = %+v", b.Params())
	}

	if b.Amplitude(1, 0) != 0.25 {
		t.Fatalf("Amplitude(1,0) = %v", b.Amplitude(1, 0))
	}

	if _, err := UnpackBeam(values[:6], l, 1, 0); !errors.Is(err, ErrParamCount) {
		t.Fatalf("err = %v, want ErrParamCount", err)
	}
}

func TestBeamIntensityNonNegative(t *testing.T) {
	b, err := NewBeam(Params2D{Height: 0.1, CenterX: 8, CenterY: 8, WidthX: 3, WidthY: 4, Rotation: 20}, 1, 1,
		[]float64{1, -0.5, 0.3, 0.2})
	if err != nil {
		t.Fatal(err)
	}

	img, err := Render(b, 16, 16)
	if err != nil {
		t.Fatal(err)
	}

	for i, v := range img.Data {
		if v < 0 || math.IsNaN(v) {
			t.Fatalf("pixel %d = %v", i, v)
		}
	}
}
