package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"gaussdec/internal/pipeline"
	"gaussdec/internal/specfit"
)

type decomposeOptions struct {
	infile      string
	configPath  string
	nsamples    int64
	indexFile   string
	seed        uint64
	clobber     bool
	appendRun   bool
	workers     int
	flushEvery  int64
	metricsAddr string
}

func newDecomposeCommand(stdout, stderr io.Writer, verbose *bool) *cobra.Command {
	var opts decomposeOptions
	cmd := &cobra.Command{
		Use:   "decompose <outfile>",
		Short: "Decompose survey spectra into Gaussian components",
		Long: `Decompose fits the survey spectra with sums of Gaussians and writes the
fitted components to <outfile>. By default the whole survey is
processed; --nsamples draws a random sample and --hpxindices reads an
explicit row list. An existing output file aborts the run unless
--clobber replaces it or --append resumes into it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			log := newLogger(stderr, *verbose)

			cfg, err := specfit.LoadConfig(opts.configPath)
			if err != nil {
				return err
			}

			if opts.metricsAddr != "" {
				go serveMetrics(opts.metricsAddr, log)
			}

			ctx, stop := signal.NotifyContext(c.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			summary, err := pipeline.Run(ctx, pipeline.RunOptions{
				Outfile:    args[0],
				Infile:     opts.infile,
				Config:     cfg,
				NSamples:   opts.nsamples,
				IndexFile:  opts.indexFile,
				Seed:       opts.seed,
				Clobber:    opts.clobber,
				Append:     opts.appendRun,
				Workers:    opts.workers,
				FlushEvery: opts.flushEvery,
				Logger:     log,
			})
			if err != nil {
				return err
			}

			counts := summary.Counts
			fmt.Fprintf(stdout, "Run:        %s (%s)\n", summary.RunID, summary.Mode)
			fmt.Fprintf(stdout, "Units:      %d (fitted %d, skipped %d, filtered %d)\n",
				counts.Units, counts.Fitted, counts.Skipped, counts.Filtered)
			fmt.Fprintf(stdout, "Components: %d\n", counts.Components)
			fmt.Fprintf(stdout, "Runtime:    %v\n", summary.Elapsed.Round(time.Millisecond))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.infile, "infile", "data/HI4PI_DR1.sqlite", "survey file to decompose")
	flags.StringVarP(&opts.configPath, "config", "c", "", "fit parameter file (JSON, YAML or TOML)")
	flags.Int64Var(&opts.nsamples, "nsamples", -1, "decompose a random sample of this many spectra (-1 = all)")
	flags.StringVar(&opts.indexFile, "hpxindices", "", "file listing the survey row indices to decompose")
	flags.Uint64Var(&opts.seed, "seed", 0, "sampling seed (0 = time-based)")
	flags.BoolVar(&opts.clobber, "clobber", false, "replace an existing output file")
	flags.BoolVar(&opts.appendRun, "append", false, "append to an existing output file (recovery)")
	flags.IntVar(&opts.workers, "workers", 0, "fit worker count (0 = all CPUs)")
	flags.Int64Var(&opts.flushEvery, "flush-every", pipeline.DefaultFlushEvery, "flush cadence in work units")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
	return cmd
}

// serveMetrics exposes /metrics for the lifetime of the run.
func serveMetrics(addr string, log pipeline.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Info("metrics listener started", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("metrics listener failed", "addr", addr, "error", err)
	}
}
