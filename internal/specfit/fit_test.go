package specfit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// ripple adds a small deterministic perturbation so the noise estimator
// sees a realistic floor.
func ripple(data []float64, amp float64) []float64 {
	out := append([]float64(nil), data...)
	for i := range out {
		out[i] += amp * math.Sin(13.7*float64(i))
	}
	return out
}

func TestFitSpectrumSingleComponent(t *testing.T) {
	m := MakeMultiGaussianModel()
	cfg := DefaultConfig()
	truth := []float64{500, 40, 5}
	data := ripple(m.Model(truth, 100), 0.05)

	params := FitSpectrum(m, data, cfg)
	require.Len(t, params, 3)
	require.InEpsilon(t, truth[0], params[0], 0.02)
	require.InDelta(t, truth[1], params[1], 0.1)
	require.InDelta(t, truth[2], params[2], 0.1)
	require.Greater(t, params[2], 0.0)

	// The fitted model reproduces the data down to the ripple.
	resid := m.Residual(params, data)
	for _, r := range resid {
		require.Less(t, math.Abs(r), 0.2)
	}
}

func TestFitSpectrumBlend(t *testing.T) {
	m := MakeMultiGaussianModel()
	cfg := DefaultConfig()
	truth := []float64{600, 25, 4, 300, 70, 6}
	data := ripple(m.Model(truth, 120), 0.05)

	params := FitSpectrum(m, data, cfg)
	require.Len(t, params, 6)

	// The stronger line is found first.
	require.InDelta(t, 25, params[1], 0.5)
	require.InDelta(t, 70, params[4], 0.5)
	require.InEpsilon(t, 600, params[0], 0.05)
	require.InEpsilon(t, 300, params[3], 0.05)
}

func TestFitSpectrumEmptyInputs(t *testing.T) {
	m := MakeMultiGaussianModel()
	cfg := DefaultConfig()

	require.Empty(t, FitSpectrum(m, nil, cfg))
	require.Empty(t, FitSpectrum(m, []float64{}, cfg))
	require.Empty(t, FitSpectrum(m, make([]float64, 200), cfg))
}

func TestFitSpectrumPureNoise(t *testing.T) {
	m := MakeMultiGaussianModel()
	cfg := DefaultConfig()

	data := make([]float64, 200)
	for i := range data {
		data[i] = 0.1 * math.Sin(13.7*float64(i))
	}
	require.Empty(t, FitSpectrum(m, data, cfg))
}

func TestFitSpectrumBlankedChannels(t *testing.T) {
	m := MakeMultiGaussianModel()
	cfg := DefaultConfig()
	data := ripple(m.Model([]float64{500, 40, 5}, 100), 0.05)
	data[0] = math.NaN()
	data[99] = math.Inf(1)

	params := FitSpectrum(m, data, cfg)
	require.Len(t, params, 3)
	require.InDelta(t, 40, params[1], 0.5)
	for _, p := range params {
		require.False(t, math.IsNaN(p))
	}
}

func TestFitSpectrumDeterministic(t *testing.T) {
	m := MakeMultiGaussianModel()
	cfg := DefaultConfig()
	data := ripple(m.Model([]float64{450, 30, 4, 220, 75, 7}, 150), 0.02)

	first := FitSpectrum(m, data, cfg)
	second := FitSpectrum(m, data, cfg)
	require.Equal(t, first, second)
}

func TestFitSpectrumHonorsComponentCap(t *testing.T) {
	m := MakeMultiGaussianModel()
	cfg := DefaultConfig()
	cfg.MaxComponents = 1

	data := ripple(m.Model([]float64{600, 25, 4, 300, 70, 6}, 120), 0.05)
	params := FitSpectrum(m, data, cfg)
	require.Len(t, params, 3)
	require.InDelta(t, 25, params[1], 1.0)
}

func TestFitSpectrumPeakRelation(t *testing.T) {
	m := MakeMultiGaussianModel()
	cfg := DefaultConfig()
	data := ripple(m.Model([]float64{500, 40, 5}, 100), 0.05)

	params := FitSpectrum(m, data, cfg)
	require.Len(t, params, 3)

	model := m.Model(params, 100)
	peakIdx := int(math.Round(params[1]))
	require.InDelta(t, params[0]/(2*math.Pi*params[2]), model[peakIdx], 0.05)
}
