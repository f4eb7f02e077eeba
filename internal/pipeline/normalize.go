package pipeline

import (
	"fmt"
	"math"

	"gaussdec/internal/healpix"
	"gaussdec/internal/model"
	"gaussdec/internal/survey"
)

// NormalizeResult turns the parameter triplets of one fitted spectrum into
// catalog records: the pixel index is resolved to galactic coordinates and
// every component gets its derived peak and velocity-calibrated columns.
// An empty parameter vector yields no records.
func NormalizeResult(grid *healpix.Grid, res FitResult) ([]model.GaussianComponent, error) {
	if len(res.Params) == 0 {
		return nil, nil
	}
	if len(res.Params)%3 != 0 {
		return nil, fmt.Errorf("row %d: malformed parameter vector of length %d", res.Row, len(res.Params))
	}

	theta, phi, err := grid.PixToAng(res.HPXIndex)
	if err != nil {
		return nil, fmt.Errorf("row %d: %w", res.Row, err)
	}
	glon := phi * 180.0 / math.Pi
	glat := 90.0 - theta*180.0/math.Pi

	recs := make([]model.GaussianComponent, 0, len(res.Params)/3)
	for k := 0; k+2 < len(res.Params); k += 3 {
		amp, center, sigma := res.Params[k], res.Params[k+1], res.Params[k+2]
		recs = append(recs, model.GaussianComponent{
			HPXIndex:  int32(res.HPXIndex),
			GLon:      float32(glon),
			GLat:      float32(glat),
			Amplitude: float32(amp),
			Peak:      float32(amp / (2.0 * math.Pi * sigma)),
			CenterC:   float32(center),
			CenterKMS: float32(survey.ChannelToVelocity(center) / 1000.0),
			SigmaC:    float32(sigma),
			SigmaKMS:  float32(survey.WidthToVelocity(sigma) / 1000.0),
		})
	}
	return recs, nil
}
