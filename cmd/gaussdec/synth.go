package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/exp/rand"

	"gaussdec/internal/specfit"
	"gaussdec/internal/survey"
)

type synthOptions struct {
	rows     int64
	channels int
	seed     uint64
	clobber  bool
}

func newSynthCommand(stdout io.Writer, verbose *bool) *cobra.Command {
	var opts synthOptions
	cmd := &cobra.Command{
		Use:   "synth <outfile>",
		Short: "Write a synthetic survey for smoke runs",
		Long: `Synth writes a small survey file of known Gaussian blends with additive
Gaussian noise, spread over distinct sky pixels, for demos and pipeline
smoke runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			if err := writeSynthSurvey(args[0], opts); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Survey:     %s (%d rows, %d channels)\n",
				args[0], opts.rows, opts.channels)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.Int64Var(&opts.rows, "rows", 256, "number of spectra")
	flags.IntVar(&opts.channels, "channels", 945, "channels per spectrum")
	flags.Uint64Var(&opts.seed, "seed", 1, "generator seed")
	flags.BoolVar(&opts.clobber, "clobber", false, "replace an existing file")
	return cmd
}

func writeSynthSurvey(path string, opts synthOptions) error {
	if opts.rows <= 0 || opts.channels <= 0 {
		return fmt.Errorf("synth: rows and channels must be positive")
	}

	w, err := survey.Create(path, opts.clobber)
	if err != nil {
		return err
	}

	rnd := rand.New(&rand.PCGSource{})
	rnd.Seed(opts.seed)
	m := specfit.MakeMultiGaussianModel()

	npix := 12 * int64(survey.Nside) * int64(survey.Nside)
	stride := npix / opts.rows
	if stride == 0 {
		stride = 1
	}

	for i := int64(0); i < opts.rows; i++ {
		ncomp := 1 + rnd.Intn(3)
		params := make([]float64, 0, 3*ncomp)
		for k := 0; k < ncomp; k++ {
			amp := 20 + 80*rnd.Float64()
			center := float64(opts.channels) * (0.2 + 0.6*rnd.Float64())
			sigma := 2 + 6*rnd.Float64()
			params = append(params, amp, center, sigma)
		}

		data := m.Model(params, opts.channels)
		for j := range data {
			data[j] += 0.05 * rnd.NormFloat64()
		}

		if _, err := w.Append((i*stride)%npix, data); err != nil {
			w.Close()
			return err
		}
	}
	return w.Close()
}
