package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/exp/rand"

	"gaussdec/internal/model"
	"gaussdec/pkg/utils"
)

var (
	// ErrSampleTooLarge is returned when more samples are requested than
	// the survey has rows.
	ErrSampleTooLarge = errors.New("pipeline: sample size exceeds survey rows")

	// ErrIndexOutOfRange is returned when an index list names a row the
	// survey does not have.
	ErrIndexOutOfRange = errors.New("pipeline: index out of range")
)

// Progress cadences of the work enumerator, in units.
const (
	fullScanLogEvery = 10000
	listLogEvery     = 1000
)

// EnumerateOptions selects which survey rows become work units.
type EnumerateOptions struct {
	// NSamples below zero scans the full survey, otherwise NSamples rows
	// are drawn uniformly without replacement.
	NSamples int64

	// IndexFile names a file with explicit row indices, one per line.
	// When set it takes precedence over NSamples.
	IndexFile string

	// Seed fixes the sampling RNG. Zero seeds from the clock.
	Seed uint64
}

// Enumerator produces the work units of one run. Construction validates
// the workload, so a misconfigured run fails before any worker starts.
type Enumerator struct {
	nrows int64
	mode  string
	rows  []int64 // nil in full-scan mode
	log   Logger
}

// NewEnumerator validates the options against the survey size.
func NewEnumerator(nrows int64, opts EnumerateOptions, log Logger) (*Enumerator, error) {
	if log == nil {
		log = NewNopLogger()
	}
	e := &Enumerator{nrows: nrows, log: log}

	switch {
	case opts.IndexFile != "":
		rows, err := utils.ReadIndexFile(opts.IndexFile)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			if row >= nrows {
				return nil, fmt.Errorf("%w: row %d, survey has %d", ErrIndexOutOfRange, row, nrows)
			}
		}
		e.mode = model.ModeIndexList
		e.rows = rows

	case opts.NSamples < 0:
		e.mode = model.ModeFull

	default:
		if opts.NSamples > nrows {
			return nil, fmt.Errorf("%w: %d > %d", ErrSampleTooLarge, opts.NSamples, nrows)
		}
		seed := opts.Seed
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		rnd := rand.New(&rand.PCGSource{})
		rnd.Seed(seed)
		e.mode = model.ModeSample
		e.rows = sampleWithoutReplacement(rnd, nrows, opts.NSamples)
	}
	return e, nil
}

// Mode reports how the work units were selected.
func (e *Enumerator) Mode() string { return e.mode }

// Count returns the number of units Units will emit.
func (e *Enumerator) Count() int64 {
	if e.rows == nil {
		return e.nrows
	}
	return int64(len(e.rows))
}

// Units emits the work units on an unbuffered channel. The channel closes
// when the workload is exhausted or ctx is canceled.
func (e *Enumerator) Units(ctx context.Context) <-chan int64 {
	out := make(chan int64)
	go func() {
		defer close(out)
		if e.rows == nil {
			for row := int64(0); row < e.nrows; row++ {
				select {
				case out <- row:
				case <-ctx.Done():
					return
				}
				if (row+1)%fullScanLogEvery == 0 {
					e.log.Debug("enumerated work units", "units", row+1, "total", e.nrows)
				}
			}
			return
		}
		for i, row := range e.rows {
			select {
			case out <- row:
			case <-ctx.Done():
				return
			}
			if (i+1)%listLogEvery == 0 {
				e.log.Debug("enumerated work units", "units", i+1, "total", len(e.rows))
			}
		}
	}()
	return out
}

// sampleWithoutReplacement draws k distinct values from [0, n) using
// Floyd's algorithm, touching only k map slots.
func sampleWithoutReplacement(rnd *rand.Rand, n, k int64) []int64 {
	chosen := make(map[int64]struct{}, k)
	rows := make([]int64, 0, k)
	for i := n - k; i < n; i++ {
		j := int64(rnd.Uint64n(uint64(i + 1)))
		if _, taken := chosen[j]; taken {
			j = i
		}
		chosen[j] = struct{}{}
		rows = append(rows, j)
	}
	return rows
}
