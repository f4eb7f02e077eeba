// Package model holds the data types shared across the decomposition
// pipeline, the store and the API.
package model

// GaussianComponent is one fitted Gaussian line, the unit of persistence.
// Field precision mirrors the published catalog format: 32-bit floats and
// a 32-bit pixel index.
type GaussianComponent struct {
	// HPXIndex is the RING-scheme HEALPix index (nside 1024) of the sky
	// pixel the component belongs to.
	HPXIndex int32 `json:"hpxindex"`

	// Galactic coordinates of the pixel center, degrees.
	GLon float32 `json:"glon"`
	GLat float32 `json:"glat"`

	// Amplitude is the fitted amplitude parameter in K, Peak the derived
	// line peak amplitude / (2*pi*sigma_c).
	Amplitude float32 `json:"amplitude"`
	Peak      float32 `json:"peak"`

	// Line center in channels and km/s.
	CenterC   float32 `json:"center_c"`
	CenterKMS float32 `json:"center_kms"`

	// Line width in channels and km/s.
	SigmaC   float32 `json:"sigma_c"`
	SigmaKMS float32 `json:"sigma_kms"`
}
