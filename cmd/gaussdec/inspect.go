package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"gaussdec/internal/pipeline"
)

type inspectOptions struct {
	infile   string
	nsamples int64
	seed     uint64
}

func newInspectCommand(stdout, stderr io.Writer, verbose *bool) *cobra.Command {
	var opts inspectOptions
	cmd := &cobra.Command{
		Use:   "inspect <outfile>",
		Short: "Summarize a decomposition store",
		Long: `Inspect prints catalog statistics of a decomposition store: component
and pixel counts, the component-count histogram and column density
statistics. With --infile a random sample of spectra is reconstructed
from the catalog and the residual RMS against the survey is printed per
spectrum.`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			report, err := pipeline.Inspect(args[0], opts.infile, opts.nsamples, opts.seed,
				newLogger(stderr, *verbose))
			if err != nil {
				return err
			}

			fmt.Fprintf(stdout, "Components: %d\n", report.Components)
			fmt.Fprintf(stdout, "Pixels:     %d\n", report.Pixels)
			fmt.Fprintf(stdout, "Coldens:    mean %.3e cm^-2, max %.3e cm^-2\n",
				report.ColdensMean, report.ColdensMax)
			if len(report.Histogram) > 0 {
				fmt.Fprintln(stdout, "Histogram:")
				for _, bin := range report.Histogram {
					fmt.Fprintf(stdout, "  %3d components: %d pixels\n", bin.NComponents, bin.Pixels)
				}
			}
			if len(report.Samples) > 0 {
				fmt.Fprintln(stdout, "Samples:")
				for _, s := range report.Samples {
					fmt.Fprintf(stdout, "  row %8d hpx %9d: %2d components, rms %.4f K\n",
						s.Row, s.HPXIndex, s.NComponents, s.RMS)
				}
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.infile, "infile", "", "survey file for reconstruction spot checks")
	flags.Int64Var(&opts.nsamples, "nsamples", 5, "number of spectra to spot-check")
	flags.Uint64Var(&opts.seed, "seed", 0, "sampling seed (0 = time-based)")
	return cmd
}
