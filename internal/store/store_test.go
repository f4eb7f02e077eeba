package store

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gaussdec/internal/model"
)

func mkComponent(hpx int32, amp float32) model.GaussianComponent {
	return model.GaussianComponent{
		HPXIndex:  hpx,
		GLon:      12.5,
		GLat:      -30.25,
		Amplitude: amp,
		Peak:      amp / 25.13,
		CenterC:   471.9,
		CenterKMS: 0.01,
		SigmaC:    4.0,
		SigmaKMS:  5.15,
	}
}

func TestCreateAppendReadBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gdec.sqlite")

	s, err := Create(path, false)
	require.NoError(t, err)
	require.NoError(t, s.Append(mkComponent(10, 5)))
	require.NoError(t, s.AppendAll([]model.GaussianComponent{
		mkComponent(30, 3), mkComponent(30, 4),
	}))
	require.NoError(t, s.Close())

	r, err := OpenRead(path)
	require.NoError(t, err)
	defer r.Close()

	n, err := r.CountComponents()
	require.NoError(t, err)
	require.Equal(t, int64(3), n)

	recs, err := r.ComponentsByPixel(30)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, float32(3), recs[0].Amplitude)
	require.Equal(t, float32(4), recs[1].Amplitude)
	require.Equal(t, int32(30), recs[0].HPXIndex)
	require.InDelta(t, -30.25, recs[0].GLat, 1e-6)

	empty, err := r.ComponentsByPixel(99)
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestCreateRefusesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gdec.sqlite")

	s, err := Create(path, false)
	require.NoError(t, err)
	require.NoError(t, s.Append(mkComponent(1, 1)))
	require.NoError(t, s.Close())

	_, err = Create(path, false)
	require.ErrorIs(t, err, ErrOutputExists)

	s, err = Create(path, true)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	r, err := OpenRead(path)
	require.NoError(t, err)
	defer r.Close()
	n, err := r.CountComponents()
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestFlushMakesBatchesVisible(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gdec.sqlite")

	s, err := Create(path, false)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Append(mkComponent(5, 1)))

	r, err := OpenRead(path)
	require.NoError(t, err)
	defer r.Close()

	n, err := r.CountComponents()
	require.NoError(t, err)
	require.Zero(t, n, "unflushed batch must not be visible")

	require.NoError(t, s.Flush())

	n, err = r.CountComponents()
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	// The store accepts appends after a flush.
	require.NoError(t, s.Append(mkComponent(5, 2)))
	require.NoError(t, s.Flush())
	n, err = r.CountComponents()
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
}

func TestDiscardDropsUnflushedBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gdec.sqlite")

	s, err := Create(path, false)
	require.NoError(t, err)
	require.NoError(t, s.Append(mkComponent(1, 1)))
	require.NoError(t, s.Flush())

	require.NoError(t, s.Append(mkComponent(2, 2)))
	require.NoError(t, s.Append(mkComponent(3, 3)))
	require.NoError(t, s.Discard())

	// The store stays usable after a discard.
	require.NoError(t, s.Append(mkComponent(4, 4)))
	require.NoError(t, s.Close())

	r, err := OpenRead(path)
	require.NoError(t, err)
	defer r.Close()

	pixels, err := r.DistinctPixels()
	require.NoError(t, err)
	require.Equal(t, []int64{1, 4}, pixels)

	require.ErrorIs(t, r.Discard(), ErrReadOnly)
}

func TestCloseSemantics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gdec.sqlite")

	s, err := Create(path, false)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	require.ErrorIs(t, s.Close(), ErrStoreClosed)
	require.ErrorIs(t, s.Append(mkComponent(1, 1)), ErrStoreClosed)
	require.ErrorIs(t, s.Flush(), ErrStoreClosed)
	require.ErrorIs(t, s.Discard(), ErrStoreClosed)
	_, err = s.CountComponents()
	require.ErrorIs(t, err, ErrStoreClosed)
}

func TestOpenAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gdec.sqlite")

	s, err := Create(path, false)
	require.NoError(t, err)
	require.NoError(t, s.Append(mkComponent(10, 1)))
	require.NoError(t, s.Close())

	s, err = OpenAppend(path)
	require.NoError(t, err)
	require.NoError(t, s.Append(mkComponent(20, 2)))
	require.NoError(t, s.Close())

	r, err := OpenRead(path)
	require.NoError(t, err)
	defer r.Close()

	n, err := r.CountComponents()
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	pixels, err := r.DistinctPixels()
	require.NoError(t, err)
	require.Equal(t, []int64{10, 20}, pixels)
}

func TestOpenAppendMissingFile(t *testing.T) {
	_, err := OpenAppend(filepath.Join(t.TempDir(), "no-such.sqlite"))
	require.Error(t, err)
}

func TestOpenRejectsForeignFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "other.sqlite")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE other (x INTEGER)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = OpenAppend(path)
	require.ErrorIs(t, err, ErrNotStore)
	_, err = OpenRead(path)
	require.ErrorIs(t, err, ErrNotStore)
}

func TestReadOnlyRefusesWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gdec.sqlite")
	s, err := Create(path, false)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	r, err := OpenRead(path)
	require.NoError(t, err)
	defer r.Close()

	require.ErrorIs(t, r.Append(mkComponent(1, 1)), ErrReadOnly)
	require.ErrorIs(t, r.Flush(), ErrReadOnly)
	require.ErrorIs(t, r.CreateRun(model.Run{ID: "x"}), ErrReadOnly)
}

func TestRunBookkeeping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gdec.sqlite")

	s, err := Create(path, false)
	require.NoError(t, err)

	started := time.Now()
	run := model.Run{
		ID:        "run-1",
		Infile:    "survey.sqlite",
		Mode:      model.ModeFull,
		Config:    `{"max_components":10}`,
		Status:    model.RunStatusRunning,
		StartedAt: started,
	}
	require.NoError(t, s.CreateRun(run))
	require.NoError(t, s.Flush())

	got, err := s.GetRun("run-1")
	require.NoError(t, err)
	require.Equal(t, model.RunStatusRunning, got.Status)
	require.Equal(t, model.ModeFull, got.Mode)
	require.WithinDuration(t, started, got.StartedAt, time.Second)
	require.Nil(t, got.FinishedAt)
	require.Nil(t, got.CheckpointAt)

	counts := model.RunCounts{Units: 1000, Fitted: 900, Skipped: 10, Filtered: 90, Components: 2500}
	require.NoError(t, s.RecordCheckpoint("run-1", counts))
	require.NoError(t, s.Flush())

	got, err = s.GetRun("run-1")
	require.NoError(t, err)
	require.Equal(t, counts, got.Counts)
	require.Equal(t, int64(1000), got.CheckpointUnits)
	require.NotNil(t, got.CheckpointAt)

	final := model.RunCounts{Units: 2000, Fitted: 1800, Skipped: 20, Filtered: 180, Components: 5100}
	require.NoError(t, s.FinishRun("run-1", model.RunStatusCompleted, final))
	require.NoError(t, s.Close())

	r, err := OpenRead(path)
	require.NoError(t, err)
	defer r.Close()

	got, err = r.GetRun("run-1")
	require.NoError(t, err)
	require.Equal(t, model.RunStatusCompleted, got.Status)
	require.Equal(t, final, got.Counts)
	require.NotNil(t, got.FinishedAt)

	_, err = r.GetRun("nope")
	require.ErrorIs(t, err, ErrRunNotFound)
}

func TestListRunsNewestFirst(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gdec.sqlite")

	s, err := Create(path, false)
	require.NoError(t, err)
	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.CreateRun(model.Run{
			ID: id, Infile: "x", Mode: model.ModeSample, Config: "{}",
			Status: model.RunStatusCompleted, StartedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, s.Close())

	r, err := OpenRead(path)
	require.NoError(t, err)
	defer r.Close()

	runs, err := r.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 3)
	require.Equal(t, "c", runs[0].ID)
	require.Equal(t, "a", runs[2].ID)
}

func TestAggregationQueries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gdec.sqlite")

	s, err := Create(path, false)
	require.NoError(t, err)
	// Pixel 10: one component, pixel 30: two, pixel 40: two.
	require.NoError(t, s.AppendAll([]model.GaussianComponent{
		mkComponent(30, 3), mkComponent(10, 5), mkComponent(40, 1),
		mkComponent(30, 4), mkComponent(40, 2),
	}))
	require.NoError(t, s.Close())

	r, err := OpenRead(path)
	require.NoError(t, err)
	defer r.Close()

	pixels, err := r.DistinctPixels()
	require.NoError(t, err)
	require.Equal(t, []int64{10, 30, 40}, pixels)

	np, err := r.CountPixels()
	require.NoError(t, err)
	require.Equal(t, int64(3), np)

	st, err := r.GetPixelStats(30)
	require.NoError(t, err)
	require.Equal(t, int64(2), st.NComponents)
	require.InDelta(t, 7.0, st.SumAmplitude, 1e-6)

	st, err = r.GetPixelStats(12345)
	require.NoError(t, err)
	require.Zero(t, st.NComponents)
	require.Zero(t, st.SumAmplitude)

	var scanned []PixelStats
	require.NoError(t, r.ScanPixelStats(func(ps PixelStats) error {
		scanned = append(scanned, ps)
		return nil
	}))
	require.Len(t, scanned, 3)
	require.Equal(t, int64(10), scanned[0].HPXIndex)
	require.Equal(t, int64(1), scanned[0].NComponents)

	bins, err := r.Histogram()
	require.NoError(t, err)
	require.Equal(t, []HistogramBin{
		{NComponents: 1, Pixels: 1},
		{NComponents: 2, Pixels: 2},
	}, bins)
}
