package commands

import (
	"io"
	"math/rand/v2"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-peakfit/grid"
	"github.com/cwbudde/algo-peakfit/model"
	"github.com/cwbudde/algo-peakfit/shape"
)

func newSynthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Generate synthetic images and spectra as CSV",
	}

	cmd.AddCommand(newSynthImageCommand())
	cmd.AddCommand(newSynthSpectrumCommand())
	cmd.AddCommand(newSynthBeamCommand())

	return cmd
}

// synthOutput holds the noise and destination flags of the synth commands.
type synthOutput struct {
	noise float64
	seed  uint64
	out   string
}

func (s *synthOutput) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&s.noise, "noise", 0, "standard deviation of added Gaussian noise")
	cmd.Flags().Uint64Var(&s.seed, "seed", 1, "noise seed")
	cmd.Flags().StringVar(&s.out, "out", "", "output file (default stdout)")
}

func (s *synthOutput) addNoise(values []float64) {
	if s.noise <= 0 {
		return
	}

	rng := rand.New(rand.NewPCG(s.seed, s.seed^0x9e3779b97f4a7c15))
	for i := range values {
		values[i] += s.noise * rng.NormFloat64()
	}
}

func (s *synthOutput) emit(cmd *cobra.Command, write func(io.Writer) error) error {
	if s.out == "" {
		return write(cmd.OutOrStdout())
	}

	return writeFile(s.out, write)
}

func newSynthImageCommand() *cobra.Command {
	var (
		out        synthOutput
		rows, cols int
		profile    string
		profile2D  string
		params     []float64
	)

	cmd := &cobra.Command{
		Use:   "image",
		Short: "Render a 2D peak",
		Long: `Render a 2D peak with full parameters HEIGHT, AMPLITUDE, XSHIFT, YSHIFT,
XWIDTH, YWIDTH, ROTATION (degrees).`,
		Example: `  peakfit synth image --params 0,1,32,32,4,6,30 --noise 0.01 > star.csv`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p2, err := model.FromFull(params)
			if err != nil {
				return err
			}

			var m model.Model2D

			if profile2D != "" {
				p, err := shape.Lookup2D(profile2D)
				if err != nil {
					return err
				}

				m = model.NewPeak2D(p, p2)
			} else {
				p, err := shape.Lookup(profile)
				if err != nil {
					return err
				}

				m = model.NewSeparable2D(p, p2)
			}

			img, err := model.Render(m, rows, cols)
			if err != nil {
				return err
			}

			out.addNoise(img.Data)

			return out.emit(cmd, func(w io.Writer) error { return writeImageCSV(w, img) })
		},
	}

	out.register(cmd)
	cmd.Flags().IntVar(&rows, "rows", 64, "image rows")
	cmd.Flags().IntVar(&cols, "cols", 64, "image columns")
	cmd.Flags().StringVarP(&profile, "profile", "p", "gaussian", "1D profile name")
	cmd.Flags().StringVar(&profile2D, "profile2d", "", "non-separable 2D profile")
	cmd.Flags().Float64SliceVar(&params, "params", []float64{0, 1, 32, 32, 4, 4, 0}, "full peak parameters")

	return cmd
}

func newSynthSpectrumCommand() *cobra.Command {
	var (
		out     synthOutput
		n       int
		x0, dx  float64
		height  float64
		profile string
		lines   []float64
	)

	cmd := &cobra.Command{
		Use:   "spectrum",
		Short: "Render a sum of lines on a constant background",
		Long: `Render height + sum of lines given as amplitude,center,width triples
and write x,y columns.`,
		Example: `  peakfit synth spectrum --lines 3,40,4,2,60,4 --noise 0.05 > lines.csv`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := shape.Lookup(profile)
			if err != nil {
				return err
			}

			np, err := model.NPeakFromValues(p, lines)
			if err != nil {
				return err
			}

			if n <= 0 {
				return grid.ErrEmpty
			}

			x := make([]float64, n)
			for i := range x {
				x[i] = x0 + dx*float64(i)
			}

			y := np.Eval(nil, x)
			for i := range y {
				y[i] += height
			}

			out.addNoise(y)

			return out.emit(cmd, func(w io.Writer) error { return writeSpectrumCSV(w, x, y) })
		},
	}

	out.register(cmd)
	cmd.Flags().IntVarP(&n, "samples", "n", 100, "number of samples")
	cmd.Flags().Float64Var(&x0, "x0", 0, "first x value")
	cmd.Flags().Float64Var(&dx, "dx", 1, "x spacing")
	cmd.Flags().Float64Var(&height, "height", 0, "constant background")
	cmd.Flags().StringVarP(&profile, "profile", "p", "gaussian", "1D profile name")
	cmd.Flags().Float64SliceVar(&lines, "lines", []float64{1, 50, 5}, "amplitude,center,width triples")

	return cmd
}

func newSynthBeamCommand() *cobra.Command {
	var (
		out        synthOutput
		rows, cols int
		maxP, maxL int
		params     []float64
		amps       []float64
	)

	cmd := &cobra.Command{
		Use:   "beam",
		Short: "Render a multimode Laguerre-Gauss beam intensity",
		Long: `Render a beam with full geometry HEIGHT (background field), AMPLITUDE
(ignored), XSHIFT, YSHIFT, XWIDTH, YWIDTH, ROTATION and mode amplitudes
row-major by radial order.`,
		Example: `  peakfit synth beam --max-p 1 --amps 1,0.3 > beam.csv`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p2, err := model.FromFull(params)
			if err != nil {
				return err
			}

			b, err := model.NewBeam(p2, maxP, maxL, amps)
			if err != nil {
				return err
			}

			img, err := model.Render(b, rows, cols)
			if err != nil {
				return err
			}

			out.addNoise(img.Data)

			return out.emit(cmd, func(w io.Writer) error { return writeImageCSV(w, img) })
		},
	}

	out.register(cmd)
	cmd.Flags().IntVar(&rows, "rows", 64, "image rows")
	cmd.Flags().IntVar(&cols, "cols", 64, "image columns")
	cmd.Flags().IntVar(&maxP, "max-p", 0, "highest radial mode order")
	cmd.Flags().IntVar(&maxL, "max-l", 0, "highest azimuthal mode order")
	cmd.Flags().Float64SliceVar(&params, "params", []float64{0, 0, 32, 32, 10, 10, 0}, "full beam geometry")
	cmd.Flags().Float64SliceVar(&amps, "amps", []float64{1}, "mode amplitudes")

	return cmd
}
