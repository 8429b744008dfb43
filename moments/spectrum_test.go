package moments

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-peakfit/grid"
	"github.com/cwbudde/algo-peakfit/model"
	"github.com/cwbudde/algo-peakfit/shape"
)

func line(n int, amp, center, width float64) []float64 {
	return model.Curve(nil, shape.Gaussian, grid.Arange(n), 0, model.Line{Amplitude: amp, Center: center, Width: width})
}

func TestSpectrumPositive(t *testing.T) {
	y := line(200, 3, 80, 5)

	got, err := Spectrum(nil, y, true)
	if err != nil {
		t.Fatal(err)
	}

	if len(got) != 4 {
		t.Fatalf("len = %d, want 4", len(got))
	}

	if got[2] != 80 || !within(got[1], 3, 1e-3) {
		t.Fatalf("amplitude/center = %v/%v", got[1], got[2])
	}

	// Integral-based width is ~1.25 sigma.
	if got[3] < 4 || got[3] > 8 {
		t.Fatalf("width = %v, want within [4,8]", got[3])
	}
}

func TestSpectrumAutoSign(t *testing.T) {
	y := line(200, -2, 120, 4)

	got, err := Spectrum(nil, y, false, WithSign(Auto))
	if err != nil {
		t.Fatal(err)
	}

	if len(got) != 3 || got[1] != 120 || got[0] >= 0 {
		t.Fatalf("got %v, want negative line at 120", got)
	}
}

func TestSpectrumCustomAxis(t *testing.T) {
	x := make([]float64, 100)
	for i := range x {
		x[i] = 500 + 0.5*float64(i)
	}

	y := model.Curve(nil, shape.Gaussian, x, 0, model.Line{Amplitude: 1, Center: 520, Width: 2})

	got, err := Spectrum(x, y, true)
	if err != nil {
		t.Fatal(err)
	}

	if got[2] != 520 {
		t.Fatalf("center = %v, want 520", got[2])
	}
}

func TestSpectrumErrors(t *testing.T) {
	if _, err := Spectrum(nil, []float64{1}, true); !errors.Is(err, grid.ErrEmpty) {
		t.Fatalf("err = %v, want ErrEmpty", err)
	}

	if _, err := Spectrum([]float64{1, 2}, []float64{1, 2, 3}, true); !errors.Is(err, grid.ErrShape) {
		t.Fatalf("err = %v, want ErrShape", err)
	}

	if _, err := Spectrum(nil, make([]float64, 10), true); !errors.Is(err, ErrNaN) {
		t.Fatalf("err = %v, want ErrNaN", err)
	}
}

func TestSpectrumMatchesGaussianWidthScale(t *testing.T) {
	y := line(400, 1, 200, 10)

	got, err := Spectrum(nil, y, true)
	if err != nil {
		t.Fatal(err)
	}

	want := 0.5 * math.Sqrt(2*math.Pi) * 10
	if !within(got[3], want, 0.05) {
		t.Fatalf("width = %v, want ~%v", got[3], want)
	}
}

func TestSpectrumSkipsNaN(t *testing.T) {
	ref, err := Spectrum(nil, line(200, 3, 80, 5), true)
	if err != nil {
		t.Fatal(err)
	}

	for _, i := range []int{0, 50, 199} {
		y := line(200, 3, 80, 5)
		y[i] = math.NaN()

		got, err := Spectrum(nil, y, true)
		if err != nil {
			t.Fatalf("NaN at %d: %v", i, err)
		}

		if got[2] != 80 || !within(got[1], ref[1], 1e-9) || !within(got[3], ref[3], 0.01) {
			t.Fatalf("NaN at %d: got %v, want about %v", i, got, ref)
		}
	}

	y := line(10, 1, 5, 1)
	for i := range y {
		y[i] = math.NaN()
	}

	if _, err := Spectrum(nil, y, true); !errors.Is(err, grid.ErrEmpty) {
		t.Fatalf("all NaN: err = %v, want ErrEmpty", err)
	}
}
