package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"gaussdec/internal/pipeline"
	"gaussdec/pkg/utils"
)

type residualOptions struct {
	infile string
	out    string
}

func newResidualCommand(stdout, stderr io.Writer, verbose *bool) *cobra.Command {
	var opts residualOptions
	cmd := &cobra.Command{
		Use:   "residual <outfile>",
		Short: "List survey rows missing from a decomposition",
		Long: `Residual diffs a survey against a decomposition store and prints the
row indices with no persisted components, one per line. With --out the
indices are written to an index file consumable by
decompose --hpxindices --append, the recovery path for interrupted
runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			missing, err := pipeline.Residual(args[0], opts.infile, newLogger(stderr, *verbose))
			if err != nil {
				return err
			}

			if opts.out != "" {
				comment := fmt.Sprintf("rows of %s missing from %s", opts.infile, args[0])
				if err := utils.WriteIndexFile(opts.out, comment, missing); err != nil {
					return err
				}
				fmt.Fprintf(stdout, "Missing:    %d rows -> %s\n", len(missing), opts.out)
				return nil
			}
			for _, row := range missing {
				fmt.Fprintln(stdout, row)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.infile, "infile", "data/HI4PI_DR1.sqlite", "survey file to diff against")
	flags.StringVarP(&opts.out, "out", "o", "", "write the missing row indices to this index file")
	return cmd
}
