package fit

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-peakfit/internal/testutil"
	"github.com/cwbudde/algo-peakfit/model"
	"github.com/cwbudde/algo-peakfit/moments"
	"github.com/cwbudde/algo-peakfit/shape"
)

func TestSpectrumMoments(t *testing.T) {
	y := testutil.GaussianLine(128, 0.5, 2, 47.3, 3.2)
	testutil.AddNoise(y, 9, 0.05)

	res, err := Spectrum(context.Background(), shape.Gaussian, nil, y,
		WithMoments(moments.Positive), WithSigma(0.05), WithModel())
	if err != nil {
		t.Fatal(err)
	}

	want := []float64{0.5, 2, 47.3, 3.2}
	for i, v := range res.Values {
		if math.Abs(v-want[i]) > 5*res.Errors[i] {
			t.Fatalf("%s = %v ± %v, want %v", res.Names[i], v, res.Errors[i], want[i])
		}
	}

	if math.Abs(res.Chi2Reduced-1) > 0.35 {
		t.Fatalf("reduced chi2 = %v", res.Chi2Reduced)
	}

	if len(res.Model) != 128 || res.Line.Center != res.Values[2] {
		t.Fatalf("model len %d, line %+v", len(res.Model), res.Line)
	}
}

func TestSpectrumLeadingNaN(t *testing.T) {
	for _, i := range []int{0, 50, 99} {
		y := testutil.GaussianLine(100, 1, 4, 50, 4)
		y[i] = math.NaN()

		res, err := Spectrum(context.Background(), shape.Gaussian, nil, y, WithMoments(moments.Positive))
		if err != nil {
			t.Fatalf("NaN at %d: %v", i, err)
		}

		testutil.RequireParamsClose(t, res.Names, res.Values, []float64{1, 4, 50, 4}, 1e-6, 0)

		if res.Dof != 99-4 {
			t.Fatalf("NaN at %d: dof = %d, want %d", i, res.Dof, 99-4)
		}
	}
}

func TestSpectrumNegativeLine(t *testing.T) {
	y := testutil.GaussianLine(100, 1, -0.7, 30, 2.5)

	res, err := Spectrum(context.Background(), shape.Gaussian, nil, y, WithMoments(moments.Auto))
	if err != nil {
		t.Fatal(err)
	}

	testutil.RequireParamsClose(t, res.Names, res.Values, []float64{1, -0.7, 30, 2.5}, 1e-6, 0)
}

func TestSpectrumFixedHeight(t *testing.T) {
	x := make([]float64, 80)
	for i := range x {
		x[i] = -10 + 0.25*float64(i)
	}

	y := model.Curve(nil, shape.Lorentzian, x, 0.25, model.Line{Amplitude: 3, Center: 1.5, Width: 1.2})

	res, err := Spectrum(context.Background(), shape.Lorentzian, x, y,
		WithVHeight(false), WithInitial(0.25, 2, 1, 1))
	if err != nil {
		t.Fatal(err)
	}

	if res.Values[0] != 0.25 || res.Errors[0] != 0 {
		t.Fatalf("height = %v ± %v, want fixed 0.25", res.Values[0], res.Errors[0])
	}

	testutil.RequireParamsClose(t, res.Names, res.Values, []float64{0.25, 3, 1.5, 1.2}, 1e-6, 0)
}

func TestSpectrumErrors(t *testing.T) {
	ctx := context.Background()
	y := testutil.GaussianLine(16, 0, 1, 8, 2)

	if _, err := Spectrum(ctx, shape.Gaussian, []float64{1, 2}, y); !errors.Is(err, ErrLength) {
		t.Fatalf("x length: err = %v", err)
	}

	if _, err := Spectrum(ctx, shape.Gaussian, nil, y, WithInitial(1, 2)); !errors.Is(err, ErrLength) {
		t.Fatalf("initial length: err = %v", err)
	}

	if _, err := Spectrum(ctx, nil, nil, y); !errors.Is(err, shape.ErrUnknownProfile) {
		t.Fatalf("nil profile: err = %v", err)
	}
}

func TestMultiPeak(t *testing.T) {
	y := testutil.GaussianLine(200, 0, 2, 60, 4)
	second := testutil.GaussianLine(200, 0, 3, 140, 5)

	for i := range y {
		y[i] += second[i]
	}

	res, err := MultiPeak(context.Background(), shape.Gaussian, nil, y, 2,
		WithInitial(2.2, 58, 5, 2.8, 142, 4), WithModel())
	if err != nil {
		t.Fatal(err)
	}

	testutil.RequireParamsClose(t, res.Names, res.Values, []float64{2, 60, 4, 3, 140, 5}, 1e-6, 0)

	if res.Names[3] != "AMPLITUDE1" || res.Names[5] != "WIDTH1" {
		t.Fatalf("names = %v", res.Names)
	}

	if len(res.Lines) != 2 || res.Lines[1].Center != res.Values[4] || len(res.LineErrors) != 2 {
		t.Fatalf("lines = %+v", res.Lines)
	}

	diff, _ := testutil.MaxAbsDiff(res.Model, y)
	if diff > 1e-6 {
		t.Fatalf("model differs from data by %v", diff)
	}
}

func TestMultiPeakAutoGuess(t *testing.T) {
	y := testutil.GaussianLine(200, 0, 2, 60, 4)
	second := testutil.GaussianLine(200, 0, 3, 140, 4)

	for i := range y {
		y[i] += second[i]
	}

	res, err := MultiPeak(context.Background(), shape.Gaussian, nil, y, 2, WithAutoGuess(4))
	if err != nil {
		t.Fatal(err)
	}

	// Candidates come strongest first.
	testutil.RequireParamsClose(t, res.Names, res.Values, []float64{3, 140, 4, 2, 60, 4}, 1e-6, 0)
}

func TestMultiPeakGuessReplication(t *testing.T) {
	y := testutil.GaussianLine(64, 0, 1, 32, 3)
	ctx := context.Background()

	tests := []struct {
		name  string
		npeak int
		guess []float64
		lines int
	}{
		{"triple replicated", 3, []float64{1, 32, 3}, 3},
		{"npeak grows", 1, []float64{1, 30, 3, 0.1, 34, 3}, 2},
		{"odd length reset", 2, []float64{1, 2, 3, 4}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := MultiPeak(ctx, shape.Gaussian, nil, y, tt.npeak,
				WithInitial(tt.guess...), WithSolverOptions(), WithLineBounds(
					model.Line{Amplitude: math.NaN(), Center: 0, Width: 0.5},
					model.Line{Amplitude: math.NaN(), Center: 63, Width: math.NaN()},
				))
			if err != nil {
				t.Fatal(err)
			}

			if len(res.Lines) != tt.lines || len(res.Values) != 3*tt.lines {
				t.Fatalf("got %d lines, want %d", len(res.Lines), tt.lines)
			}

			for _, l := range res.Lines {
				if l.Width < 0.5 || l.Center < 0 || l.Center > 63 {
					t.Fatalf("line %+v violates bounds", l)
				}
			}
		})
	}

	if _, err := MultiPeak(ctx, shape.Gaussian, nil, y, 0); !errors.Is(err, ErrLength) {
		t.Fatalf("npeak 0: err = %v", err)
	}
}
