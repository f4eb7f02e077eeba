package pipeline

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"gaussdec/internal/healpix"
	"gaussdec/internal/specfit"
	"gaussdec/internal/survey"
)

// FitFunc decomposes one spectrum. The default is specfit.FitSpectrum;
// tests substitute stubs.
type FitFunc func(m *specfit.ModelFuncs, data []float64, cfg specfit.Config) []float64

// FitResult is the outcome of one work unit. Exactly one of the cases
// holds: Fatal carries a worker failure that aborts the run, Err a
// per-unit failure that skips the unit, Filtered marks a masked spectrum,
// otherwise Params holds the fitted component triplets, possibly empty.
type FitResult struct {
	Row      int64
	HPXIndex int64
	Params   []float64
	Filtered bool
	Err      error
	Fatal    bool
}

// workerContext is the per-worker state built once before the first unit:
// the compiled model, the worker's own read-only survey handle and the
// pixelization. Building it per worker keeps the fit loop free of shared
// mutable state.
type workerContext struct {
	model *specfit.ModelFuncs
	table *survey.Table
	grid  *healpix.Grid
	cfg   specfit.Config
	fit   FitFunc
}

func newWorkerContext(infile string, cfg specfit.Config, fit FitFunc) (*workerContext, error) {
	grid, err := healpix.New(survey.Nside)
	if err != nil {
		return nil, err
	}
	table, err := survey.Open(infile)
	if err != nil {
		return nil, err
	}
	return &workerContext{
		model: specfit.MakeMultiGaussianModel(),
		table: table,
		grid:  grid,
		cfg:   cfg,
		fit:   fit,
	}, nil
}

func (wc *workerContext) close() {
	wc.table.Close()
}

// fitRow runs one work unit: read the spectrum, apply the plane mask, fit.
func (wc *workerContext) fitRow(row int64) FitResult {
	r, err := wc.table.Row(row)
	if err != nil {
		return FitResult{Row: row, Err: err}
	}

	if wc.cfg.GlatMin > 0 {
		theta, _, err := wc.grid.PixToAng(r.HPXIndex)
		if err != nil {
			return FitResult{Row: row, HPXIndex: r.HPXIndex, Err: err}
		}
		glat := 90.0 - theta*180.0/math.Pi
		if math.Abs(glat) < wc.cfg.GlatMin {
			return FitResult{Row: row, HPXIndex: r.HPXIndex, Filtered: true}
		}
	}

	start := time.Now()
	params := wc.fit(wc.model, r.Data, wc.cfg)
	fitSeconds.Observe(time.Since(start).Seconds())

	return FitResult{Row: row, HPXIndex: r.HPXIndex, Params: params}
}

// FitWorkers runs the fit pool: workers goroutines each build their own
// context, drain jobs and emit one FitResult per unit. The result channel
// closes when all workers have stopped. Completion order is arbitrary.
func FitWorkers(ctx context.Context, workers int, infile string, cfg specfit.Config, fit FitFunc, jobs <-chan int64, log Logger) <-chan FitResult {
	out := make(chan FitResult, workers)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()

			wc, err := newWorkerContext(infile, cfg, fit)
			if err != nil {
				select {
				case out <- FitResult{Err: fmt.Errorf("worker %d: %w", id, err), Fatal: true}:
				case <-ctx.Done():
				}
				return
			}
			defer wc.close()
			log.Debug("worker ready", "worker", id)

			for row := range jobs {
				select {
				case out <- wc.fitRow(row):
				case <-ctx.Done():
					return
				}
			}
		}(w)
	}

	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}
