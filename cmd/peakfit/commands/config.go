package commands

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-peakfit/fit"
	"github.com/cwbudde/algo-peakfit/moments"
	"github.com/cwbudde/algo-peakfit/mpfit"
	"github.com/cwbudde/algo-peakfit/shape"
)

// Config is the YAML fit configuration shared by all fit commands.
// Command-line flags override the file.
type Config struct {
	Profile   string  `yaml:"profile"`
	Profile2D string  `yaml:"profile2d"`
	Circle    bool    `yaml:"circle"`
	Rotate    *bool   `yaml:"rotate"`
	VHeight   *bool   `yaml:"vheight"`
	Sigma     float64 `yaml:"sigma" validate:"gte=0"`
	Moments   string  `yaml:"moments" validate:"omitempty,oneof=positive negative auto"`

	Initial []float64 `yaml:"initial"`
	Fixed   []int     `yaml:"fixed" validate:"dive,gte=0"`
	Limits  []Limit   `yaml:"limits" validate:"dive"`

	Solver SolverConfig `yaml:"solver"`
	Output string       `yaml:"output" validate:"omitempty,oneof=text json yaml"`
}

// Limit bounds the packed parameter Index. A missing side stays free.
type Limit struct {
	Index int      `yaml:"index" validate:"gte=0"`
	Lower *float64 `yaml:"lower"`
	Upper *float64 `yaml:"upper"`
}

// SolverConfig tunes the Levenberg-Marquardt solver; zero values keep the
// defaults.
type SolverConfig struct {
	MaxIter int     `yaml:"max_iter" validate:"gte=0"`
	Ftol    float64 `yaml:"ftol" validate:"gte=0"`
	Xtol    float64 `yaml:"xtol" validate:"gte=0"`
	Gtol    float64 `yaml:"gtol" validate:"gte=0"`
}

var errConfig = errors.New("invalid configuration")

// loadConfig reads and validates the YAML file at path. Environment
// variables in the file are expanded. An empty path yields the defaults.
func loadConfig(path string) (Config, error) {
	var cfg Config

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader([]byte(os.ExpandEnv(string(data)))))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %w", errConfig, err)
	}

	for _, l := range c.Limits {
		if l.Lower != nil && l.Upper != nil && *l.Lower > *l.Upper {
			return fmt.Errorf("%w: limits of parameter %d: lower %g > upper %g", errConfig, l.Index, *l.Lower, *l.Upper)
		}
	}

	return nil
}

// profileName is the configured 1D profile, gaussian when unset.
func (c *Config) profileName() string {
	if c.Profile == "" {
		return "gaussian"
	}

	return c.Profile
}

func (c *Config) profile() (shape.Profile, error) {
	return shape.Lookup(c.profileName())
}

func (c *Config) sign() moments.Sign {
	switch c.Moments {
	case "negative":
		return moments.Negative
	case "auto":
		return moments.Auto
	default:
		return moments.Positive
	}
}

// fitOptions translates the configuration into fit options.
func (c *Config) fitOptions(log zerolog.Logger) []fit.Option {
	opts := []fit.Option{
		fit.WithCircle(c.Circle),
		fit.WithLogger(log),
		fit.WithSolverOptions(c.solverOptions(log)...),
	}

	if c.Rotate != nil {
		opts = append(opts, fit.WithRotate(*c.Rotate))
	}

	if c.VHeight != nil {
		opts = append(opts, fit.WithVHeight(*c.VHeight))
	}

	if c.Sigma > 0 {
		opts = append(opts, fit.WithSigma(c.Sigma))
	}

	if len(c.Initial) > 0 {
		opts = append(opts, fit.WithInitial(c.Initial...))
	}

	if len(c.Fixed) > 0 {
		opts = append(opts, fit.WithFixed(c.Fixed...))
	}

	for _, l := range c.Limits {
		if l.Lower != nil {
			opts = append(opts, fit.WithLowerBound(l.Index, *l.Lower))
		}

		if l.Upper != nil {
			opts = append(opts, fit.WithUpperBound(l.Index, *l.Upper))
		}
	}

	return opts
}

func (c *Config) solverOptions(log zerolog.Logger) []mpfit.Option {
	opts := []mpfit.Option{mpfit.WithLogger(log)}

	if c.Solver.MaxIter > 0 {
		opts = append(opts, mpfit.WithMaxIter(c.Solver.MaxIter))
	}

	if c.Solver.Ftol > 0 {
		opts = append(opts, mpfit.WithFtol(c.Solver.Ftol))
	}

	if c.Solver.Xtol > 0 {
		opts = append(opts, mpfit.WithXtol(c.Solver.Xtol))
	}

	if c.Solver.Gtol > 0 {
		opts = append(opts, mpfit.WithGtol(c.Solver.Gtol))
	}

	return opts
}
