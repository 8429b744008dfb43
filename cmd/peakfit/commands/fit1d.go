package commands

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-peakfit/fit"
)

func newFit1DCommand(root *rootOptions) *cobra.Command {
	var flags fitFlags

	cmd := &cobra.Command{
		Use:   "fit1d [spectrum.csv]",
		Short: "Fit a single line to a spectrum",
		Long: `Fit h + a*p(x - shift, width) to a spectrum. Parameters in order:
HEIGHT, AMPLITUDE, SHIFT, WIDTH. Without --initial the start values come
from the spectrum moments.`,
		Example: `  peakfit fit1d line.csv
  peakfit fit1d --moments negative --profile lorentzian absorption.csv`,
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
			if cfg.Moments != "" || len(cfg.Initial) == 0 {
				opts = append(opts, fit.WithMoments(cfg.sign()))
			}

			if flags.modelOut != "" {
				opts = append(opts, fit.WithModel())
			}

			res, err := fit.Spectrum(cmd.Context(), p, x, y, opts...)
			if err != nil {
				return err
			}

			if err := writeModelSpectrum(flags.modelOut, x, res.Model); err != nil {
				return err
			}

			return writeReport(cmd.OutOrStdout(), root.format(cfg), newReport("fit1d", cfg.profileName(), fitSummary{
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

	return cmd
}
