package fit

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-peakfit/grid"
	"github.com/cwbudde/algo-peakfit/internal/testutil"
	"github.com/cwbudde/algo-peakfit/model"
)

func renderBeam(t *testing.T, geom model.Params2D, maxP, maxL int, amps []float64, rows, cols int) *grid.Image {
	t.Helper()

	b, err := model.NewBeam(geom, maxP, maxL, amps)
	if err != nil {
		t.Fatal(err)
	}

	img, err := model.Render(b, rows, cols)
	if err != nil {
		t.Fatal(err)
	}

	return img
}

func TestLaguerreGaussFundamental(t *testing.T) {
	geom := model.Params2D{CenterX: 32, CenterY: 30, WidthX: 10, WidthY: 10}
	img := renderBeam(t, geom, 0, 0, []float64{1}, 64, 64)

	res, err := LaguerreGauss(context.Background(), img, 0, 0, WithCircle(true), WithModel())
	if err != nil {
		t.Fatal(err)
	}

	want := []float64{0, 32, 30, 10, 1}
	testutil.RequireParamsClose(t, res.Names, res.Values, want, 1e-5, 0)

	if len(res.Names) != 5 || res.Names[4] != "AMP0_0" || res.Names[3] != "XWIDTH" {
		t.Fatalf("names = %v", res.Names)
	}

	if len(res.AmplitudeErrors) != 1 || res.Model == nil {
		t.Fatalf("amplitude errors %v, model %v", res.AmplitudeErrors, res.Model != nil)
	}
}

func TestLaguerreGaussTwoRadialModes(t *testing.T) {
	geom := model.Params2D{CenterX: 40, CenterY: 40, WidthX: 12, WidthY: 12}
	img := renderBeam(t, geom, 1, 0, []float64{1, 0.3}, 80, 80)

	res, err := LaguerreGauss(context.Background(), img, 1, 0, WithCircle(true))
	if err != nil {
		t.Fatal(err)
	}

	testutil.RequireParamsClose(t, res.Names, res.Values, []float64{0, 40, 40, 12, 1, 0.3}, 1e-4, 0)
	testutil.RequireSliceNearlyEqual(t, res.Amplitudes, []float64{1, 0.3}, 1e-4)
}

func TestLaguerreGaussAmplitudeLimits(t *testing.T) {
	geom := model.Params2D{CenterX: 32, CenterY: 30, WidthX: 10, WidthY: 10}
	img := renderBeam(t, geom, 0, 0, []float64{1}, 64, 64)

	tests := []struct {
		name   string
		lo, hi float64
		want   float64
	}{
		{name: "upper limit pegs", lo: 0, hi: 0.8, want: 0.8},
		{name: "unbounded", lo: math.Inf(-1), hi: math.Inf(1), want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := LaguerreGauss(context.Background(), img, 0, 0,
				WithCircle(true), WithAmplitudeLimits(tt.lo, tt.hi))
			if err != nil {
				t.Fatal(err)
			}

			if got := res.Amplitudes[0]; math.Abs(got-tt.want) > 1e-6 {
				t.Fatalf("amplitude = %v, want %v", got, tt.want)
			}

			if math.Abs(res.Params.CenterX-32) > 1e-3 || math.Abs(res.Params.CenterY-30) > 1e-3 {
				t.Fatalf("center = (%v, %v), want (32, 30)", res.Params.CenterX, res.Params.CenterY)
			}
		})
	}
}

func TestLaguerreGaussErrors(t *testing.T) {
	img := renderBeam(t, model.Params2D{CenterX: 8, CenterY: 8, WidthX: 4, WidthY: 4}, 0, 0, []float64{1}, 16, 16)

	if _, err := LaguerreGauss(context.Background(), img, -1, 0); !errors.Is(err, ErrLength) {
		t.Fatalf("negative order: err = %v", err)
	}

	if _, err := LaguerreGauss(context.Background(), img, 0, 0, WithCircle(true), WithInitial(0, 8, 8, 4)); !errors.Is(err, ErrLength) {
		t.Fatalf("short initial: err = %v", err)
	}
}
