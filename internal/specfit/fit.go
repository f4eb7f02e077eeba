package specfit

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

// FitSpectrum decomposes one spectrum into Gaussian components and returns
// the flat parameter vector (amplitude, center, width) per component. The
// fit is deterministic: components are seeded greedily at the largest
// residual peak and refined with L-BFGS until no peak above the
// signal-to-noise threshold remains, the component cap is reached, or a
// candidate stops improving the fit.
//
// Non-finite samples are treated as blanked channels and replaced by zero.
// A spectrum with no significant emission yields an empty vector, never an
// error.
func FitSpectrum(m *ModelFuncs, data []float64, cfg Config) []float64 {
	if len(data) == 0 {
		return nil
	}
	data = sanitize(data)

	noise := robustNoise(data)
	if noise < 1e-10 {
		noise = 1e-10
	}
	threshold := cfg.SNRThreshold * noise

	var params []float64
	obj := m.Objective(params, data)

	for len(params)/3 < cfg.MaxComponents {
		resid := m.Residual(params, data)
		idx := floats.MaxIdx(resid)
		peak := resid[idx]
		if peak < threshold {
			break
		}

		trial := make([]float64, len(params), len(params)+3)
		copy(trial, params)
		trial = append(trial, peak*2.0*math.Pi*cfg.InitialWidth, float64(idx), cfg.InitialWidth)

		refined := refine(m, trial, data, cfg)
		refined = prune(refined, len(data), cfg)

		next := m.Objective(refined, data)
		if len(refined) <= len(params) || next >= obj*(1.0-cfg.MinImprovement) {
			break
		}
		params, obj = refined, next
	}
	return params
}

// refine runs the gradient descent on a candidate parameter vector. The
// refinement is best effort: if the optimizer reports a failure, the best
// point it reached is used as long as it improves on the seed.
func refine(m *ModelFuncs, x0, data []float64, cfg Config) []float64 {
	problem := optimize.Problem{
		Func: func(x []float64) float64 { return m.Objective(x, data) },
		Grad: func(grad, x []float64) { m.Gradient(grad, x, data) },
	}
	settings := &optimize.Settings{
		MajorIterations:   cfg.MaxIterations,
		GradientThreshold: cfg.GradientTolerance,
	}

	result, err := optimize.Minimize(problem, x0, settings, &optimize.LBFGS{})
	if result == nil || result.X == nil {
		return x0
	}
	if err != nil && m.Objective(result.X, data) >= m.Objective(x0, data) {
		return x0
	}
	return result.X
}

// prune drops components the refinement pushed outside the physical
// bounds and normalizes widths to positive values.
func prune(params []float64, nchan int, cfg Config) []float64 {
	kept := make([]float64, 0, len(params))
	for k := 0; k+2 < len(params); k += 3 {
		a, c := params[k], params[k+1]
		sa := math.Abs(params[k+2])
		if a <= 0 {
			continue
		}
		if sa < cfg.MinWidth || sa > cfg.MaxWidth {
			continue
		}
		if c < -cfg.MaxWidth || c > float64(nchan-1)+cfg.MaxWidth {
			continue
		}
		kept = append(kept, a, c, sa)
	}
	return kept
}

// sanitize replaces non-finite samples with zero, copying only when
// needed.
func sanitize(data []float64) []float64 {
	clean := data
	copied := false
	for i, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			if !copied {
				clean = append([]float64(nil), data...)
				copied = true
			}
			clean[i] = 0
		}
	}
	return clean
}

// robustNoise estimates the per-channel noise as 1.4826 times the median
// absolute deviation, which tolerates line emission in the passband.
func robustNoise(data []float64) float64 {
	work := append([]float64(nil), data...)
	m := median(work)
	for i, v := range data {
		work[i] = math.Abs(v - m)
	}
	return 1.4826 * median(work)
}

// median sorts work in place and returns its median.
func median(work []float64) float64 {
	sort.Float64s(work)
	n := len(work)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return work[n/2]
	}
	return 0.5 * (work[n/2-1] + work[n/2])
}
