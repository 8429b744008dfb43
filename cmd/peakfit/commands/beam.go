package commands

import (
	"math"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-peakfit/fit"
)

func newBeamCommand(root *rootOptions) *cobra.Command {
	var (
		flags      fitFlags
		maxP, maxL int
		ampMax     float64
	)

	cmd := &cobra.Command{
		Use:   "beam [image.csv]",
		Short: "Fit a multimode Laguerre-Gauss beam to an intensity image",
		Long: `Fit |b + sum a_pl LG_pl|^2 with radial orders 0..max-p and azimuthal
orders 0..max-l. Parameters are the beam geometry in packed order without
AMPLITUDE, followed by the mode amplitudes AMPp_l.`,
		Example: `  peakfit beam --circle beam.csv
  peakfit beam --max-p 1 --max-l 2 -o yaml beam.csv`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.config(cmd, root.configPath)
			if err != nil {
				return err
			}

			img, err := loadImage(cmd, args)
			if err != nil {
				return err
			}

			opts := cfg.fitOptions(log.Logger)
			if ampMax > 0 {
				opts = append(opts, fit.WithAmplitudeLimits(0, ampMax))
			}

			if flags.modelOut != "" {
				opts = append(opts, fit.WithModel())
			}

			res, err := fit.LaguerreGauss(cmd.Context(), img, maxP, maxL, opts...)
			if err != nil {
				return err
			}

			if err := writeModelImage(flags.modelOut, res.Model); err != nil {
				return err
			}

			return writeReport(cmd.OutOrStdout(), root.format(cfg), newReport("beam", "laguerre-gauss", fitSummary{
				names:     res.Names,
				values:    res.Values,
				errors:    res.Errors,
				chi2:      res.Chi2,
				chi2r:     res.Chi2Reduced,
				dof:       res.Dof,
				niter:     res.Niter,
				status:    res.Status,
				residuals: res.Residuals,
			}))
		},
	}

	flags.register(cmd, true)
	cmd.Flags().IntVar(&maxP, "max-p", 0, "highest radial mode order")
	cmd.Flags().IntVar(&maxL, "max-l", 0, "highest azimuthal mode order")
	cmd.Flags().Float64Var(&ampMax, "amp-max", math.Inf(1), "upper limit of the mode amplitudes")

	return cmd
}
