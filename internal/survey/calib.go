package survey

// Spectral axis calibration of the EBHIS/HI4PI data cubes. Channel indices
// map linearly onto radial velocity in the kinematic local standard of
// rest.
// Nside is the HEALPix resolution of the survey grid. The full sky holds
// 12*Nside^2 spectra.
const Nside = 1024

const (
	// CRPIX3 is the reference channel at zero velocity.
	CRPIX3 = 471.921630003202

	// CDELT3 is the channel width in m/s.
	CDELT3 = 1288.23448620083

	// ColdensFactor converts integrated brightness temperature in
	// K km/s to an HI column density in cm^-2, assuming optically thin
	// emission.
	ColdensFactor = 1.82e18
)

// ChannelToVelocity converts a channel coordinate to a radial velocity in
// m/s.
func ChannelToVelocity(channel float64) float64 {
	return (channel - CRPIX3) * CDELT3
}

// WidthToVelocity converts a width on the channel axis to a velocity width
// in m/s.
func WidthToVelocity(channels float64) float64 {
	return channels * CDELT3
}

// AmplitudeToColdens converts a fitted component amplitude, the integral
// over the channel axis in K, to an HI column density in cm^-2.
func AmplitudeToColdens(amplitude float64) float64 {
	return amplitude * ColdensFactor * CDELT3 / 1000.0
}
