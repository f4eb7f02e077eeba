package pipeline

import (
	"gaussdec/internal/healpix"
	"gaussdec/internal/model"
	"gaussdec/internal/store"
)

// collectResults is the single-writer loop: it drains the completion
// channel, normalizes each result and appends to the store, flushing every
// flushEvery processed units. Per-unit failures are counted and skipped;
// store failures and fatal worker failures end the run.
//
// All records of one spectrum are appended back to back and the flush
// cadence is evaluated only between units, so a pixel can never be
// persisted partially.
func collectResults(st *store.Store, grid *healpix.Grid, results <-chan FitResult, runID string, flushEvery int64, log Logger) (model.RunCounts, error) {
	var counts model.RunCounts

	for res := range results {
		if res.Fatal {
			return counts, res.Err
		}

		counts.Units++
		unitsProcessed.Inc()

		switch {
		case res.Err != nil:
			counts.Skipped++
			spectraSkipped.Inc()
			log.Warn("work unit skipped", "row", res.Row, "error", res.Err)

		case res.Filtered:
			counts.Filtered++
			spectraFiltered.Inc()

		default:
			recs, err := NormalizeResult(grid, res)
			if err != nil {
				counts.Skipped++
				spectraSkipped.Inc()
				log.Warn("work unit skipped", "row", res.Row, "error", err)
				break
			}
			if err := st.AppendAll(recs); err != nil {
				return counts, err
			}
			counts.Fitted++
			counts.Components += int64(len(recs))
			spectraFitted.Inc()
			componentsPersisted.Add(float64(len(recs)))
		}

		if counts.Units%flushEvery == 0 {
			if err := st.RecordCheckpoint(runID, counts); err != nil {
				return counts, err
			}
			if err := st.Flush(); err != nil {
				return counts, err
			}
			storeFlushes.Inc()
			log.Info("flushed batch",
				"units", counts.Units,
				"fitted", counts.Fitted,
				"components", counts.Components)
		}
	}
	return counts, nil
}
