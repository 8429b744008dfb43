// Package cube fits a single line to every spectrum of a data cube.
package cube

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-peakfit/fit"
	"github.com/cwbudde/algo-peakfit/grid"
	"github.com/cwbudde/algo-peakfit/moments"
	"github.com/cwbudde/algo-peakfit/shape"
	"github.com/cwbudde/algo-peakfit/stats/residual"
)

// Maps holds the per-pixel fit results. Pixels without a kept fit are NaN.
type Maps struct {
	Width        *grid.Image
	Offset       *grid.Image
	Amplitude    *grid.Image
	Chi2         *grid.Image
	WidthErr     *grid.Image
	OffsetErr    *grid.Image
	AmplitudeErr *grid.Image

	// Noise is the median standard deviation of the non-constant spectra,
	// used as the error of every sample.
	Noise float64

	Fitted int
	Kept   int
	Failed int
}

// Collapse fits profile p to every spectrum along the spectral axis whose
// extremum exceeds the noise cut and keeps results with a significant
// amplitude.
//
// A spectrum whose fit fails is logged and left NaN; cancellation of ctx
// aborts the whole run.
func Collapse(ctx context.Context, p shape.Profile, c *grid.Cube, opts ...Option) (*Maps, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	rows, cols, err := c.SpatialShape(cfg.axis)
	if err != nil {
		return nil, err
	}

	n := c.Len(cfg.axis)
	if cfg.x != nil && len(cfg.x) != n {
		return nil, fmt.Errorf("%w: x has %d values, spectra have %d", fit.ErrLength, len(cfg.x), n)
	}

	maps, err := newMaps(rows, cols)
	if err != nil {
		return nil, err
	}

	maps.Noise = noiseLevel(c, cfg.axis, rows, cols)
	cut := maps.Noise * cfg.nsigcut

	sign := moments.Positive
	if cfg.negative {
		sign = moments.Negative
	}

	fitOpts := append([]fit.Option{fit.WithSigma(maps.Noise)}, cfg.fitOpts...)
	if cfg.useMoments {
		fitOpts = append(fitOpts, fit.WithMoments(sign))
	}

	cfg.log.Info().
		Int("rows", rows).
		Int("cols", cols).
		Int("channels", n).
		Float64("cut", cut).
		Msg("cube: collapse start")

	var fitted, kept, failed atomic.Int64

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.workers)

	for i := range rows {
		g.Go(func() error {
			t0 := time.Now()
			spec := make([]float64, n)
			nspec := 0

			for j := range cols {
				if err := gctx.Err(); err != nil {
					return err
				}

				spec = c.Spectrum(spec, cfg.axis, i, j)
				if !(math.Abs(extremum(spec, cfg.negative)) > cut) {
					continue
				}

				nspec++
				fitted.Add(1)

				res, err := fit.Spectrum(gctx, p, cfg.x, spec, fitOpts...)
				if err != nil {
					if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
						return err
					}

					failed.Add(1)
					cfg.log.Warn().Err(err).Int("row", i).Int("col", j).Msg("cube: spectrum fit failed")

					continue
				}

				// Without covariance there is no error to cut on.
				if len(res.Errors) > 1 && !(math.Abs(res.Values[1]) > res.Errors[1]*cfg.mppsigcut) {
					continue
				}

				kept.Add(1)
				maps.set(j, i, res)
			}

			cfg.log.Debug().
				Int("row", i).
				Int("spectra", nspec).
				Dur("elapsed", time.Since(t0)).
				Msg("cube: row done")

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("cube: %w", err)
	}

	maps.Fitted = int(fitted.Load())
	maps.Kept = int(kept.Load())
	maps.Failed = int(failed.Load())

	cfg.log.Info().
		Int("fitted", maps.Fitted).
		Int("kept", maps.Kept).
		Int("failed", maps.Failed).
		Dur("total", time.Since(start)).
		Msg("cube: collapse done")

	return maps, nil
}

func newMaps(rows, cols int) (*Maps, error) {
	m := &Maps{}
	for _, dst := range []**grid.Image{
		&m.Width, &m.Offset, &m.Amplitude, &m.Chi2,
		&m.WidthErr, &m.OffsetErr, &m.AmplitudeErr,
	} {
		img, err := grid.NewImage(rows, cols)
		if err != nil {
			return nil, err
		}

		for i := range img.Data {
			img.Data[i] = math.NaN()
		}

		*dst = img
	}

	return m, nil
}

// set stores one fit; each pixel is written by exactly one worker. Error
// maps stay NaN when the fit carries no errors.
func (m *Maps) set(x, y int, res *fit.Result1D) {
	m.Amplitude.Set(x, y, res.Values[1])
	m.Offset.Set(x, y, res.Values[2])
	m.Width.Set(x, y, res.Values[3])
	m.Chi2.Set(x, y, res.Chi2)

	if len(res.Errors) < 4 {
		return
	}

	m.AmplitudeErr.Set(x, y, res.Errors[1])
	m.OffsetErr.Set(x, y, res.Errors[2])
	m.WidthErr.Set(x, y, res.Errors[3])
}

// noiseLevel is the median population standard deviation of all spectra,
// ignoring constant ones.
func noiseLevel(c *grid.Cube, axis, rows, cols int) float64 {
	stds := make([]float64, 0, rows*cols)
	spec := make([]float64, c.Len(axis))

	for i := range rows {
		for j := range cols {
			spec = c.Spectrum(spec, axis, i, j)
			if s := residual.Std(spec); s != 0 {
				stds = append(stds, s)
			}
		}
	}

	return grid.Median(stds)
}

func extremum(spec []float64, negative bool) float64 {
	out := spec[0]
	for _, v := range spec[1:] {
		if (negative && v < out) || (!negative && v > out) {
			out = v
		}
	}

	return out
}
