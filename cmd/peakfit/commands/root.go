// Package commands implements the peakfit command tree.
package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	output     string
}

// format resolves the output format: flag, then config file, then text.
func (o *rootOptions) format(cfg Config) string {
	switch {
	case o.output != "":
		return o.output
	case cfg.Output != "":
		return cfg.Output
	default:
		return "text"
	}
}

// Execute runs the root command.
func Execute(ctx context.Context, version string) error {
	return newRootCommand(version).ExecuteContext(ctx)
}

func newRootCommand(version string) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "peakfit",
		Short: "Fit peak profiles to images and spectra",
		Long: `peakfit fits line and peak profiles with a bounded Levenberg-Marquardt
solver: elliptical rotated 2D peaks, multimode Laguerre-Gauss beams, single
spectral lines and sums of lines.

Fit settings can be read from a YAML file (--config) and overridden by flags.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			switch opts.output {
			case "", "text", "json", "yaml":
				return nil
			default:
				return fmt.Errorf("%w: output format %q", errConfig, opts.output)
			}
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "YAML fit configuration")
	cmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "", "output format: text, json or yaml")

	cmd.AddCommand(newFit2DCommand(opts))
	cmd.AddCommand(newFit1DCommand(opts))
	cmd.AddCommand(newMultiCommand(opts))
	cmd.AddCommand(newBeamCommand(opts))
	cmd.AddCommand(newSynthCommand())
	cmd.AddCommand(newProfilesCommand())

	return cmd
}
