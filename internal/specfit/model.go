// Package specfit decomposes single-dish HI spectra into sums of Gaussian
// components. The model works on the channel grid: a spectrum of n samples
// is evaluated at x = 0..n-1, and a component is the parameter triplet
// (amplitude, center, width) with
//
//	g(x) = amplitude / (2*pi*width) * exp(-(x-center)^2 / (2*width^2))
//
// so that the line peak is amplitude / (2*pi*width).
package specfit

import "math"

// sigmaFloor keeps the model finite when the optimizer drives a width
// towards zero.
const sigmaFloor = 1e-6

// evalWindow truncates component evaluation this many widths away from the
// center. The neglected tails are below 1e-13 of the peak.
const evalWindow = 8.0

// Stats summarizes the goodness of fit of a parameter set.
type Stats struct {
	NComponents int
	Chi2        float64
	RChi2       float64
	DOF         int
}

// ModelFuncs holds the compiled evaluation closures for the multi-Gaussian
// model. Building them once per worker amortizes the setup across all
// spectra that worker fits. All closures are pure and safe for concurrent
// use.
type ModelFuncs struct {
	// Model evaluates the summed components on x = 0..n-1.
	Model func(params []float64, n int) []float64

	// Residual returns data minus model.
	Residual func(params, data []float64) []float64

	// Objective is half the sum of squared residuals.
	Objective func(params, data []float64) float64

	// Gradient fills grad with the objective derivatives with respect to
	// each parameter. len(grad) must equal len(params).
	Gradient func(grad, params, data []float64)

	// Stats reports chi-square statistics for params against data.
	Stats func(params, data []float64) Stats
}

// MakeMultiGaussianModel compiles the model closures.
func MakeMultiGaussianModel() *ModelFuncs {
	model := func(params []float64, n int) []float64 {
		out := make([]float64, n)
		accumulate(out, params)
		return out
	}

	residual := func(params, data []float64) []float64 {
		out := make([]float64, len(data))
		accumulate(out, params)
		for i, d := range data {
			out[i] = d - out[i]
		}
		return out
	}

	objective := func(params, data []float64) float64 {
		m := make([]float64, len(data))
		accumulate(m, params)
		var sum float64
		for i, d := range data {
			r := m[i] - d
			sum += r * r
		}
		return 0.5 * sum
	}

	gradient := func(grad, params, data []float64) {
		n := len(data)
		m := make([]float64, n)
		accumulate(m, params)
		for i, d := range data {
			m[i] -= d // now the signed residual model-data
		}
		for i := range grad {
			grad[i] = 0
		}
		for k := 0; k+2 < len(params); k += 3 {
			a, c, s := params[k], params[k+1], params[k+2]
			sign := 1.0
			if s < 0 {
				sign = -1.0
			}
			sa := math.Abs(s)
			if sa < sigmaFloor {
				sa = sigmaFloor
			}
			lo, hi := window(c, sa, n)
			norm := 1.0 / (2.0 * math.Pi * sa)
			for x := lo; x < hi; x++ {
				d := float64(x) - c
				e := norm * math.Exp(-d*d/(2.0*sa*sa))
				r := m[x]
				grad[k] += r * e
				grad[k+1] += r * a * e * d / (sa * sa)
				grad[k+2] += r * a * e * (d*d/(sa*sa*sa) - 1.0/sa) * sign
			}
		}
	}

	stats := func(params, data []float64) Stats {
		m := make([]float64, len(data))
		accumulate(m, params)
		var chi2 float64
		for i, d := range data {
			r := m[i] - d
			chi2 += r * r
		}
		dof := len(data) - len(params)
		if dof < 1 {
			dof = 1
		}
		return Stats{
			NComponents: len(params) / 3,
			Chi2:        chi2,
			RChi2:       chi2 / float64(dof),
			DOF:         dof,
		}
	}

	return &ModelFuncs{
		Model:     model,
		Residual:  residual,
		Objective: objective,
		Gradient:  gradient,
		Stats:     stats,
	}
}

// accumulate adds every component in params onto out.
func accumulate(out, params []float64) {
	n := len(out)
	for k := 0; k+2 < len(params); k += 3 {
		a, c := params[k], params[k+1]
		sa := math.Abs(params[k+2])
		if sa < sigmaFloor {
			sa = sigmaFloor
		}
		lo, hi := window(c, sa, n)
		norm := a / (2.0 * math.Pi * sa)
		for x := lo; x < hi; x++ {
			d := float64(x) - c
			out[x] += norm * math.Exp(-d*d/(2.0*sa*sa))
		}
	}
}

// window clamps the evaluation range of a component to the channel grid.
func window(c, sa float64, n int) (lo, hi int) {
	lo = int(math.Floor(c - evalWindow*sa))
	hi = int(math.Ceil(c+evalWindow*sa)) + 1
	if lo < 0 {
		lo = 0
	}
	if hi > n {
		hi = n
	}
	if lo > hi {
		lo = hi
	}
	return lo, hi
}
