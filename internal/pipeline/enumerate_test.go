package pipeline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"gaussdec/internal/model"
	"gaussdec/pkg/utils"
)

func drain(t *testing.T, e *Enumerator) []int64 {
	t.Helper()
	var rows []int64
	for row := range e.Units(context.Background()) {
		rows = append(rows, row)
	}
	return rows
}

func TestEnumeratorFullScan(t *testing.T) {
	e, err := NewEnumerator(5, EnumerateOptions{NSamples: -1}, nil)
	require.NoError(t, err)
	require.Equal(t, model.ModeFull, e.Mode())
	require.Equal(t, int64(5), e.Count())
	require.Equal(t, []int64{0, 1, 2, 3, 4}, drain(t, e))
}

func TestEnumeratorFullScanEmptySurvey(t *testing.T) {
	e, err := NewEnumerator(0, EnumerateOptions{NSamples: -1}, nil)
	require.NoError(t, err)
	require.Zero(t, e.Count())
	require.Empty(t, drain(t, e))
}

func TestEnumeratorSample(t *testing.T) {
	e, err := NewEnumerator(1000, EnumerateOptions{NSamples: 50, Seed: 7}, nil)
	require.NoError(t, err)
	require.Equal(t, model.ModeSample, e.Mode())
	require.Equal(t, int64(50), e.Count())

	rows := drain(t, e)
	require.Len(t, rows, 50)

	seen := make(map[int64]struct{})
	for _, row := range rows {
		require.GreaterOrEqual(t, row, int64(0))
		require.Less(t, row, int64(1000))
		_, dup := seen[row]
		require.False(t, dup, "row %d drawn twice", row)
		seen[row] = struct{}{}
	}
}

func TestEnumeratorSampleSeedDeterminism(t *testing.T) {
	a, err := NewEnumerator(500, EnumerateOptions{NSamples: 20, Seed: 42}, nil)
	require.NoError(t, err)
	b, err := NewEnumerator(500, EnumerateOptions{NSamples: 20, Seed: 42}, nil)
	require.NoError(t, err)
	require.Equal(t, drain(t, a), drain(t, b))

	c, err := NewEnumerator(500, EnumerateOptions{NSamples: 20, Seed: 43}, nil)
	require.NoError(t, err)
	require.NotEqual(t, drain(t, a), drain(t, c))
}

func TestEnumeratorSampleWholeSurvey(t *testing.T) {
	e, err := NewEnumerator(20, EnumerateOptions{NSamples: 20, Seed: 1}, nil)
	require.NoError(t, err)

	rows := drain(t, e)
	require.Len(t, rows, 20)
	seen := make(map[int64]struct{})
	for _, row := range rows {
		seen[row] = struct{}{}
	}
	require.Len(t, seen, 20)
}

func TestEnumeratorSampleTooLarge(t *testing.T) {
	_, err := NewEnumerator(10, EnumerateOptions{NSamples: 11}, nil)
	require.ErrorIs(t, err, ErrSampleTooLarge)
}

func TestEnumeratorSampleZero(t *testing.T) {
	e, err := NewEnumerator(10, EnumerateOptions{NSamples: 0}, nil)
	require.NoError(t, err)
	require.Zero(t, e.Count())
	require.Empty(t, drain(t, e))
}

func TestEnumeratorIndexList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.txt")
	require.NoError(t, utils.WriteIndexFile(path, "", []int64{4, 0, 2}))

	// The index list takes precedence over the sample count.
	e, err := NewEnumerator(5, EnumerateOptions{NSamples: 100, IndexFile: path}, nil)
	require.NoError(t, err)
	require.Equal(t, model.ModeIndexList, e.Mode())
	require.Equal(t, []int64{4, 0, 2}, drain(t, e))
}

func TestEnumeratorIndexListOutOfRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.txt")
	require.NoError(t, utils.WriteIndexFile(path, "", []int64{1, 5}))

	_, err := NewEnumerator(5, EnumerateOptions{IndexFile: path}, nil)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestEnumeratorIndexListMissingFile(t *testing.T) {
	_, err := NewEnumerator(5, EnumerateOptions{
		IndexFile: filepath.Join(t.TempDir(), "no-such.txt"),
	}, nil)
	require.Error(t, err)
}

func TestEnumeratorCancel(t *testing.T) {
	e, err := NewEnumerator(1_000_000, EnumerateOptions{NSamples: -1}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	units := e.Units(ctx)
	<-units
	cancel()

	// The channel must close shortly after cancellation.
	for range units {
	}
}
