// Package pipeline runs the Gaussian decomposition: it enumerates work
// units from a survey, fans them out to a pool of fit workers and funnels
// the results through a single writer into the component store.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"

	"gaussdec/internal/healpix"
	"gaussdec/internal/model"
	"gaussdec/internal/specfit"
	"gaussdec/internal/store"
	"gaussdec/internal/survey"
)

// DefaultFlushEvery is the flush cadence in processed work units.
const DefaultFlushEvery = 1000

// RunOptions configures one decomposition run.
type RunOptions struct {
	// Outfile is the store file to produce, Infile the survey to read.
	Outfile string
	Infile  string

	// Config holds the fit parameters, usually from specfit.LoadConfig.
	Config specfit.Config

	// Work selection, see EnumerateOptions.
	NSamples  int64
	IndexFile string
	Seed      uint64

	// Clobber replaces an existing output file. Append opens it for
	// appending instead, the recovery path. The two are mutually
	// exclusive.
	Clobber bool
	Append  bool

	// Workers sizes the fit pool. Zero or less means GOMAXPROCS.
	Workers int

	// FlushEvery overrides the flush cadence. Zero or less means
	// DefaultFlushEvery.
	FlushEvery int64

	// Fit substitutes the fitter, nil means specfit.FitSpectrum.
	Fit FitFunc

	// Logger receives progress and skip reports, nil means slog.
	Logger Logger
}

// RunSummary reports a finished run.
type RunSummary struct {
	RunID   string
	Mode    string
	Units   int64
	Counts  model.RunCounts
	Elapsed time.Duration
}

// Run executes a decomposition run end to end and blocks until it
// finishes. The workload and the output file are validated before any
// worker starts. On failure the store keeps everything up to the last
// flush.
func Run(ctx context.Context, opts RunOptions) (RunSummary, error) {
	start := time.Now()

	if opts.Outfile == "" {
		return RunSummary{}, fmt.Errorf("pipeline: no output file given")
	}
	if opts.Clobber && opts.Append {
		return RunSummary{}, fmt.Errorf("pipeline: clobber and append are mutually exclusive")
	}
	if err := opts.Config.Validate(); err != nil {
		return RunSummary{}, err
	}

	log := opts.Logger
	if log == nil {
		log = NewSlogLogger(nil)
	}
	fit := opts.Fit
	if fit == nil {
		fit = specfit.FitSpectrum
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	flushEvery := opts.FlushEvery
	if flushEvery <= 0 {
		flushEvery = DefaultFlushEvery
	}

	grid, err := healpix.New(survey.Nside)
	if err != nil {
		return RunSummary{}, err
	}

	table, err := survey.Open(opts.Infile)
	if err != nil {
		return RunSummary{}, err
	}
	nrows := table.NRows()
	table.Close()

	enum, err := NewEnumerator(nrows, EnumerateOptions{
		NSamples:  opts.NSamples,
		IndexFile: opts.IndexFile,
		Seed:      opts.Seed,
	}, log)
	if err != nil {
		return RunSummary{}, err
	}

	var st *store.Store
	if opts.Append {
		st, err = store.OpenAppend(opts.Outfile)
	} else {
		st, err = store.Create(opts.Outfile, opts.Clobber)
	}
	if err != nil {
		return RunSummary{}, err
	}

	cfgJSON, err := json.Marshal(opts.Config)
	if err != nil {
		st.Close()
		return RunSummary{}, fmt.Errorf("pipeline: encode config: %w", err)
	}
	run := model.Run{
		ID:        uuid.New().String(),
		Infile:    opts.Infile,
		Mode:      enum.Mode(),
		Config:    string(cfgJSON),
		Status:    model.RunStatusRunning,
		StartedAt: start.UTC(),
	}
	if err := st.CreateRun(run); err != nil {
		st.Close()
		return RunSummary{}, err
	}

	log.Info("run started",
		"run", run.ID,
		"mode", run.Mode,
		"units", enum.Count(),
		"workers", workers,
		"flush_every", flushEvery,
		"infile", opts.Infile,
		"outfile", opts.Outfile)

	poolCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := enum.Units(poolCtx)
	results := FitWorkers(poolCtx, workers, opts.Infile, opts.Config, fit, jobs, log)

	counts, runErr := collectResults(st, grid, results, run.ID, flushEvery, log)
	if runErr == nil && ctx.Err() != nil {
		runErr = ctx.Err()
	}
	if runErr != nil {
		cancel()
		for range results {
			// unblock remaining workers
		}
		// Drop the unflushed tail, then mark the run failed in a batch of
		// its own. Both are best effort: the store may be the thing that
		// broke.
		st.Discard()
		st.FinishRun(run.ID, model.RunStatusFailed, counts)
		st.Close()
		log.Error("run failed", "run", run.ID, "error", runErr, "units", counts.Units)
		return RunSummary{}, runErr
	}

	if err := st.FinishRun(run.ID, model.RunStatusCompleted, counts); err != nil {
		st.Close()
		return RunSummary{}, err
	}
	if err := st.Close(); err != nil {
		return RunSummary{}, err
	}

	summary := RunSummary{
		RunID:   run.ID,
		Mode:    run.Mode,
		Units:   enum.Count(),
		Counts:  counts,
		Elapsed: time.Since(start),
	}
	log.Info("run completed",
		"run", summary.RunID,
		"units", counts.Units,
		"fitted", counts.Fitted,
		"skipped", counts.Skipped,
		"filtered", counts.Filtered,
		"components", counts.Components,
		"elapsed", summary.Elapsed)
	return summary, nil
}
