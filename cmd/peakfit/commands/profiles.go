package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-peakfit/shape"
)

func newProfilesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List the available line profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)

			fmt.Fprintf(tw, "Profile\t2D\tFWHM [width]\n")
			fmt.Fprintf(tw, "-------\t--\t------------\n")

			for _, name := range shape.Names() {
				p, err := shape.Lookup(name)
				if err != nil {
					return err
				}

				twoD := "-"
				if _, err := shape.Lookup2D(name); err == nil {
					twoD = "yes"
				}

				fmt.Fprintf(tw, "%s\t%s\t%.4f\n", name, twoD, fwhm(p))
			}

			return tw.Flush()
		},
	}
}

// fwhm returns the full width at half maximum of p at unit width, found by
// a scan for the first half-maximum crossing.
func fwhm(p shape.Profile) float64 {
	const step = 1e-3

	peak := p(0, 1)
	prev := peak

	for x := step; x < 100; x += step {
		v := p(x, 1)
		if v <= peak/2 {
			t := (prev - peak/2) / (prev - v)
			return 2 * (x - step + t*step)
		}

		prev = v
	}

	return 0
}
