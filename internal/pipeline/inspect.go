package pipeline

import (
	"math"
	"time"

	"golang.org/x/exp/rand"

	"gaussdec/internal/specfit"
	"gaussdec/internal/store"
	"gaussdec/internal/survey"
)

// SampleFit reports how well the catalog reconstructs one sampled
// spectrum.
type SampleFit struct {
	Row         int64   `json:"row"`
	HPXIndex    int64   `json:"hpxindex"`
	NComponents int     `json:"ncomponents"`
	RMS         float64 `json:"rms"`
}

// InspectReport summarizes a decomposition store.
type InspectReport struct {
	Components int64                `json:"components"`
	Pixels     int64                `json:"pixels"`
	Histogram  []store.HistogramBin `json:"histogram"`

	// Column density statistics over decomposed pixels, cm^-2.
	ColdensMean float64 `json:"coldens_mean"`
	ColdensMax  float64 `json:"coldens_max"`

	// Samples holds reconstruction checks against the survey, empty when
	// no survey was given.
	Samples []SampleFit `json:"samples,omitempty"`
}

// Inspect aggregates a decomposition store and, when a survey file is
// given, spot-checks the reconstruction of nsamples randomly drawn
// spectra.
func Inspect(outfile, infile string, nsamples int64, seed uint64, log Logger) (InspectReport, error) {
	if log == nil {
		log = NewNopLogger()
	}

	st, err := store.OpenRead(outfile)
	if err != nil {
		return InspectReport{}, err
	}
	defer st.Close()

	var report InspectReport
	if report.Components, err = st.CountComponents(); err != nil {
		return InspectReport{}, err
	}
	if report.Histogram, err = st.Histogram(); err != nil {
		return InspectReport{}, err
	}

	var coldensSum float64
	err = st.ScanPixelStats(func(ps store.PixelStats) error {
		report.Pixels++
		coldens := survey.AmplitudeToColdens(ps.SumAmplitude)
		coldensSum += coldens
		if coldens > report.ColdensMax {
			report.ColdensMax = coldens
		}
		return nil
	})
	if err != nil {
		return InspectReport{}, err
	}
	if report.Pixels > 0 {
		report.ColdensMean = coldensSum / float64(report.Pixels)
	}

	if infile == "" || nsamples <= 0 {
		return report, nil
	}

	table, err := survey.Open(infile)
	if err != nil {
		return InspectReport{}, err
	}
	defer table.Close()

	if nsamples > table.NRows() {
		nsamples = table.NRows()
	}
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rnd := rand.New(&rand.PCGSource{})
	rnd.Seed(seed)

	m := specfit.MakeMultiGaussianModel()
	for _, row := range sampleWithoutReplacement(rnd, table.NRows(), nsamples) {
		sample, err := checkSample(table, st, m, row)
		if err != nil {
			return InspectReport{}, err
		}
		report.Samples = append(report.Samples, sample)
	}

	log.Info("inspection complete",
		"components", report.Components,
		"pixels", report.Pixels,
		"samples", len(report.Samples))
	return report, nil
}

// checkSample reconstructs one spectrum from its catalog components and
// measures the residual RMS.
func checkSample(table *survey.Table, st *store.Store, m *specfit.ModelFuncs, row int64) (SampleFit, error) {
	r, err := table.Row(row)
	if err != nil {
		return SampleFit{}, err
	}
	recs, err := st.ComponentsByPixel(r.HPXIndex)
	if err != nil {
		return SampleFit{}, err
	}

	params := make([]float64, 0, 3*len(recs))
	for _, rec := range recs {
		params = append(params, float64(rec.Amplitude), float64(rec.CenterC), float64(rec.SigmaC))
	}

	resid := m.Residual(params, r.Data)
	var sum float64
	for _, v := range resid {
		if !math.IsNaN(v) {
			sum += v * v
		}
	}
	rms := 0.0
	if len(resid) > 0 {
		rms = math.Sqrt(sum / float64(len(resid)))
	}
	return SampleFit{
		Row:         row,
		HPXIndex:    r.HPXIndex,
		NComponents: len(recs),
		RMS:         rms,
	}, nil
}
