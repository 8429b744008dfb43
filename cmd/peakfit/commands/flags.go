package commands

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-peakfit/grid"
)

// fitFlags are the flags shared by the fit commands. Flags that are set
// override the configuration file.
type fitFlags struct {
	profile   string
	profile2D string
	circle    bool
	rotate    bool
	vheight   bool
	sigma     float64
	moments   string
	initial   []float64
	fixed     []int
	maxIter   int
	modelOut  string
}

func (f *fitFlags) register(cmd *cobra.Command, geometry bool) {
	fs := cmd.Flags()
	fs.StringVarP(&f.profile, "profile", "p", "gaussian", "1D profile name (see peakfit profiles)")
	fs.BoolVar(&f.vheight, "vheight", true, "fit a variable background height")
	fs.Float64Var(&f.sigma, "sigma", 0, "uniform measurement error")
	fs.Float64SliceVar(&f.initial, "initial", nil, "start values in packed parameter order")
	fs.IntSliceVar(&f.fixed, "fixed", nil, "indices of parameters held at their start values")
	fs.IntVar(&f.maxIter, "max-iter", 0, "solver iteration limit")
	fs.StringVar(&f.modelOut, "model-out", "", "write the best-fit model as CSV to this file")

	if geometry {
		fs.BoolVar(&f.circle, "circle", false, "fit a circular peak")
		fs.BoolVar(&f.rotate, "rotate", true, "fit the rotation of elliptical peaks")
	} else {
		fs.StringVar(&f.moments, "moments", "", "start from moments with polarity positive, negative or auto")
	}
}

// config loads the configuration file and applies the changed flags.
func (f *fitFlags) config(cmd *cobra.Command, path string) (Config, error) {
	cfg, err := loadConfig(path)
	if err != nil {
		return cfg, err
	}

	fs := cmd.Flags()
	if fs.Changed("profile") {
		cfg.Profile = f.profile
	}

	if fs.Changed("profile2d") {
		cfg.Profile2D = f.profile2D
	}

	if fs.Changed("circle") {
		cfg.Circle = f.circle
	}

	if fs.Changed("rotate") {
		cfg.Rotate = &f.rotate
	}

	if fs.Changed("vheight") {
		cfg.VHeight = &f.vheight
	}

	if fs.Changed("sigma") {
		cfg.Sigma = f.sigma
	}

	if fs.Changed("moments") {
		cfg.Moments = f.moments
	}

	if fs.Changed("initial") {
		cfg.Initial = f.initial
	}

	if fs.Changed("fixed") {
		cfg.Fixed = f.fixed
	}

	if fs.Changed("max-iter") {
		cfg.Solver.MaxIter = f.maxIter
	}

	return cfg, cfg.validate()
}

func inputPath(args []string) string {
	if len(args) == 0 {
		return ""
	}

	return args[0]
}

func loadImage(cmd *cobra.Command, args []string) (*grid.Image, error) {
	r, err := openInput(inputPath(args), cmd.InOrStdin())
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return readImageCSV(r)
}

func loadSpectrum(cmd *cobra.Command, args []string) (x, y []float64, err error) {
	r, err := openInput(inputPath(args), cmd.InOrStdin())
	if err != nil {
		return nil, nil, err
	}
	defer r.Close()

	return readSpectrumCSV(r)
}

func writeModelImage(path string, img *grid.Image) error {
	if path == "" || img == nil {
		return nil
	}

	return writeFile(path, func(w io.Writer) error { return writeImageCSV(w, img) })
}

func writeModelSpectrum(path string, x, y []float64) error {
	if path == "" || y == nil {
		return nil
	}

	if x == nil {
		x = grid.Arange(len(y))
	}

	return writeFile(path, func(w io.Writer) error { return writeSpectrumCSV(w, x, y) })
}
