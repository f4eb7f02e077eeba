package pipeline

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"gaussdec/internal/specfit"
	"gaussdec/internal/store"
	"gaussdec/internal/survey"
)

func TestInspectAggregates(t *testing.T) {
	dir := t.TempDir()
	infile := threeRowSurvey(t, dir)
	outfile := filepath.Join(dir, "gdec.sqlite")

	_, err := Run(context.Background(), RunOptions{
		Outfile:  outfile,
		Infile:   infile,
		Config:   specfit.DefaultConfig(),
		NSamples: -1,
		Workers:  2,
		Fit:      stubFit,
		Logger:   NewNopLogger(),
	})
	require.NoError(t, err)

	report, err := Inspect(outfile, "", 0, 0, nil)
	require.NoError(t, err)
	require.Equal(t, int64(3), report.Components)
	require.Equal(t, int64(2), report.Pixels)
	require.Equal(t, []store.HistogramBin{
		{NComponents: 1, Pixels: 1},
		{NComponents: 2, Pixels: 1},
	}, report.Histogram)

	// Pixel 10 carries amplitude 5, pixel 30 carries 3+4.
	wantMean := (survey.AmplitudeToColdens(5) + survey.AmplitudeToColdens(7)) / 2
	require.InEpsilon(t, wantMean, report.ColdensMean, 1e-9)
	require.InEpsilon(t, survey.AmplitudeToColdens(7), report.ColdensMax, 1e-9)
	require.Empty(t, report.Samples)
}

func TestInspectSamplesReconstruction(t *testing.T) {
	dir := t.TempDir()
	infile := threeRowSurvey(t, dir)
	outfile := filepath.Join(dir, "gdec.sqlite")

	_, err := Run(context.Background(), RunOptions{
		Outfile:  outfile,
		Infile:   infile,
		Config:   specfit.DefaultConfig(),
		NSamples: -1,
		Workers:  2,
		Fit:      stubFit,
		Logger:   NewNopLogger(),
	})
	require.NoError(t, err)

	report, err := Inspect(outfile, infile, 3, 99, NewNopLogger())
	require.NoError(t, err)
	require.Len(t, report.Samples, 3)

	wantNComp := map[int64]int{0: 1, 1: 0, 2: 2}
	for _, s := range report.Samples {
		require.Equal(t, wantNComp[s.Row], s.NComponents, "row %d", s.Row)
		require.False(t, math.IsNaN(s.RMS))
		require.GreaterOrEqual(t, s.RMS, 0.0)
	}
}

func TestInspectSampleCountClamped(t *testing.T) {
	dir := t.TempDir()
	infile := threeRowSurvey(t, dir)
	outfile := filepath.Join(dir, "gdec.sqlite")

	_, err := Run(context.Background(), RunOptions{
		Outfile:  outfile,
		Infile:   infile,
		Config:   specfit.DefaultConfig(),
		NSamples: -1,
		Fit:      stubFit,
		Logger:   NewNopLogger(),
	})
	require.NoError(t, err)

	report, err := Inspect(outfile, infile, 50, 1, nil)
	require.NoError(t, err)
	require.Len(t, report.Samples, 3)
}

func TestInspectMissingStore(t *testing.T) {
	_, err := Inspect(filepath.Join(t.TempDir(), "no-such.sqlite"), "", 0, 0, nil)
	require.Error(t, err)
}
