package pipeline

import (
	"gaussdec/internal/store"
	"gaussdec/internal/survey"
)

// Residual diffs a decomposition against its survey and returns the row
// indices of spectra that left no trace in the store, in row order. The
// list is the input for re-running an interrupted decomposition in
// index-list mode.
//
// A spectrum whose fit legitimately produced zero components is
// indistinguishable from one that was never processed, so such rows stay
// on the list and are simply refitted.
func Residual(outfile, infile string, log Logger) ([]int64, error) {
	if log == nil {
		log = NewNopLogger()
	}

	st, err := store.OpenRead(outfile)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	pixels, err := st.DistinctPixels()
	if err != nil {
		return nil, err
	}
	done := make(map[int64]struct{}, len(pixels))
	for _, hpx := range pixels {
		done[hpx] = struct{}{}
	}

	table, err := survey.Open(infile)
	if err != nil {
		return nil, err
	}
	defer table.Close()

	var missing []int64
	err = table.ScanIndex(func(row, hpx int64) error {
		if _, ok := done[hpx]; !ok {
			missing = append(missing, row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("residual scan complete",
		"rows", table.NRows(),
		"decomposed", len(done),
		"missing", len(missing))
	return missing, nil
}
