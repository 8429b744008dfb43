package commands

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-peakfit/fit"
	"github.com/cwbudde/algo-peakfit/shape"
)

func newFit2DCommand(root *rootOptions) *cobra.Command {
	var flags fitFlags

	cmd := &cobra.Command{
		Use:   "fit2d [image.csv]",
		Short: "Fit an elliptical, rotated 2D peak to an image",
		Long: `Fit h + a*p(x')*p(y') to an image, where p is a 1D profile evaluated in
the rotated frame of the peak, or a non-separable 2D profile with --profile2d.

Parameters in packed order: HEIGHT (with --vheight), AMPLITUDE, XSHIFT,
YSHIFT, XWIDTH, YWIDTH (unless --circle), ROTATION (with --rotate).
Without --initial the start values come from the image moments.`,
		Example: `  peakfit fit2d star.csv
  peakfit fit2d --circle --profile lorentzian -o json star.csv
  peakfit fit2d --profile2d airy --model-out model.csv psf.csv`,
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
			if flags.modelOut != "" {
				opts = append(opts, fit.WithModel())
			}

			var (
				res     *fit.Result2D
				profile string
			)

			if cfg.Profile2D != "" {
				p, err := shape.Lookup2D(cfg.Profile2D)
				if err != nil {
					return err
				}

				profile = cfg.Profile2D + " (2D)"
				res, err = fit.ImageProfile2D(cmd.Context(), p, img, opts...)
				if err != nil {
					return err
				}
			} else {
				p, err := cfg.profile()
				if err != nil {
					return err
				}

				profile = cfg.profileName()
				res, err = fit.Image(cmd.Context(), p, img, opts...)
				if err != nil {
					return err
				}
			}

			log.Debug().
				Int("rows", img.Rows).
				Int("cols", img.Cols).
				Int("valid", img.Valid()).
				Str("status", res.Status.String()).
				Msg("fit2d done")

			if err := writeModelImage(flags.modelOut, res.Model); err != nil {
				return err
			}

			return writeReport(cmd.OutOrStdout(), root.format(cfg), newReport("fit2d", profile, fitSummary{
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
	cmd.Flags().StringVar(&flags.profile2D, "profile2d", "", "non-separable 2D profile (gaussian, airy)")

	return cmd
}
