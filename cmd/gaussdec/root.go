package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"gaussdec/internal/pipeline"
)

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	var verbose bool
	rc := &cobra.Command{
		Use:   "gaussdec",
		Short: "Gaussian decomposition of all-sky HI survey spectra",
		Long: `gaussdec fits every spectrum of an HI4PI-style all-sky survey with a
sum of Gaussian components and writes the fitted components to an
indexed sqlite catalog, keyed by HEALPix sky pixel.

The catalog can be diffed against the survey (residual), summarized and
spot-checked (inspect), and served over HTTP with the gaussdec-api
binary. synth writes a small synthetic survey for smoke runs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rc.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rc.AddCommand(newDecomposeCommand(stdout, stderr, &verbose))
	rc.AddCommand(newResidualCommand(stdout, stderr, &verbose))
	rc.AddCommand(newInspectCommand(stdout, stderr, &verbose))
	rc.AddCommand(newSynthCommand(stdout, &verbose))

	rc.SetOut(stdout)
	rc.SetErr(stderr)
	return rc
}

// newLogger builds the pipeline logger writing to stderr, keeping stdout
// for the command summaries.
func newLogger(stderr io.Writer, verbose bool) pipeline.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})
	return pipeline.NewSlogLogger(slog.New(h))
}
