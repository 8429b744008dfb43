package commands

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-peakfit/fit"
)

func newMultiCommand(root *rootOptions) *cobra.Command {
	var (
		flags     fitFlags
		npeak     int
		autoWidth float64
	)

	cmd := &cobra.Command{
		Use:   "multi [spectrum.csv]",
		Short: "Fit a sum of lines to a spectrum",
		Long: `Fit a sum of npeak lines on a zero baseline. Parameters are
AMPLITUDEi, SHIFTi, WIDTHi for each line i.

A single --initial triple is used for every line; a longer list sets the
number of lines. With --auto-width the start values come from a matched
filter of that width.`,
		Example: `  peakfit multi --npeak 2 --initial 3,40,4,2,60,4 lines.csv
  peakfit multi --npeak 3 --auto-width 5 lines.csv`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.config(cmd, root.configPath)
			if err != nil {
				return err
			}

			p, err := cfg.profile()
			if err != nil {
				return err
			}

			x, y, err := loadSpectrum(cmd, args)
			if err != nil {
				return err
			}

			opts := cfg.fitOptions(log.Logger)
			if autoWidth > 0 {
				opts = append(opts, fit.WithAutoGuess(autoWidth))
			}

			if flags.modelOut != "" {
				opts = append(opts, fit.WithModel())
			}

			res, err := fit.MultiPeak(cmd.Context(), p, x, y, npeak, opts...)
			if err != nil {
				return err
			}

			log.Debug().Int("lines", len(res.Lines)).Msg("multi done")

			if err := writeModelSpectrum(flags.modelOut, x, res.Model); err != nil {
				return err
			}

			return writeReport(cmd.OutOrStdout(), root.format(cfg), newReport("multi", cfg.profileName(), fitSummary{
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

	flags.register(cmd, false)
	cmd.Flags().IntVarP(&npeak, "npeak", "n", 1, "number of lines")
	cmd.Flags().Float64Var(&autoWidth, "auto-width", 0, "guess start values with a matched filter of this width")

	return cmd
}
