// Package healpix implements the RING-scheme HEALPix pixelization on the
// sphere. Only the pieces the decomposition needs are provided: pixel to
// angle, angle to pixel, and pixel counts. Angles follow the astronomical
// convention, colatitude theta in [0, pi] measured from the north pole and
// longitude phi in [0, 2*pi).
package healpix

import (
	"fmt"
	"math"
)

// MaxNside bounds the supported resolutions. 8192 keeps every pixel index
// well inside an int64 and far beyond full-sky survey needs.
const MaxNside = 8192

// Grid is a HEALPix pixelization at a fixed nside, RING ordering.
type Grid struct {
	nside int64
	npix  int64
	ncap  int64 // pixels in the north polar cap
	fact1 float64
	fact2 float64
}

// New returns the pixelization for the given nside.
// nside must be a power of two in [1, MaxNside].
func New(nside int) (*Grid, error) {
	n := int64(nside)
	if n < 1 || n > MaxNside || n&(n-1) != 0 {
		return nil, fmt.Errorf("healpix: invalid nside %d: must be a power of two in [1, %d]", nside, MaxNside)
	}
	g := &Grid{
		nside: n,
		npix:  12 * n * n,
		ncap:  2 * n * (n - 1),
	}
	g.fact2 = 4.0 / float64(g.npix)
	g.fact1 = float64(2*n) * g.fact2
	return g, nil
}

// Nside returns the resolution parameter.
func (g *Grid) Nside() int { return int(g.nside) }

// Npix returns the total number of pixels, 12*nside^2.
func (g *Grid) Npix() int64 { return g.npix }

// PixToAng converts a RING-scheme pixel index to (theta, phi) at the pixel
// center.
func (g *Grid) PixToAng(pix int64) (theta, phi float64, err error) {
	if pix < 0 || pix >= g.npix {
		return 0, 0, fmt.Errorf("healpix: pixel %d out of range [0, %d)", pix, g.npix)
	}
	switch {
	case pix < g.ncap: // north polar cap
		iring := (1 + isqrt(1+2*pix)) / 2
		iphi := pix + 1 - 2*iring*(iring-1)
		theta = math.Acos(1.0 - float64(iring*iring)*g.fact2)
		phi = (float64(iphi) - 0.5) * math.Pi / (2.0 * float64(iring))
	case pix < g.npix-g.ncap: // equatorial belt
		ip := pix - g.ncap
		nl4 := 4 * g.nside
		iring := ip/nl4 + g.nside
		iphi := ip%nl4 + 1
		// fodd is 1 on rings where the pixel centers sit half a step off
		// the meridian, 1/2 on the others.
		fodd := 0.5
		if (iring+g.nside)&1 == 1 {
			fodd = 1.0
		}
		theta = math.Acos(float64(2*g.nside-iring) * g.fact1)
		phi = (float64(iphi) - fodd) * math.Pi / (2.0 * float64(g.nside))
	default: // south polar cap
		ip := g.npix - pix
		iring := (1 + isqrt(2*ip-1)) / 2
		iphi := 4*iring + 1 - (ip - 2*iring*(iring-1))
		theta = math.Acos(-1.0 + float64(iring*iring)*g.fact2)
		phi = (float64(iphi) - 0.5) * math.Pi / (2.0 * float64(iring))
	}
	return theta, phi, nil
}

// AngToPix returns the RING-scheme index of the pixel containing the
// direction (theta, phi). theta outside [0, pi] is an error, phi is taken
// modulo 2*pi.
func (g *Grid) AngToPix(theta, phi float64) (int64, error) {
	if theta < 0 || theta > math.Pi || math.IsNaN(theta) || math.IsNaN(phi) {
		return 0, fmt.Errorf("healpix: colatitude %g out of range [0, pi]", theta)
	}
	z := math.Cos(theta)
	za := math.Abs(z)
	tt := math.Mod(phi, 2*math.Pi)
	if tt < 0 {
		tt += 2 * math.Pi
	}
	tt /= math.Pi / 2 // in [0, 4)

	if za <= 2.0/3.0 { // equatorial belt
		temp1 := float64(g.nside) * (0.5 + tt)
		temp2 := float64(g.nside) * z * 0.75
		jp := int64(temp1 - temp2) // ascending edge line index
		jm := int64(temp1 + temp2) // descending edge line index
		ir := g.nside + 1 + jp - jm
		kshift := int64(1 - ir&1)
		ip := (jp + jm - g.nside + kshift + 1) / 2
		ip = ip % (4 * g.nside)
		return g.ncap + (ir-1)*4*g.nside + ip, nil
	}

	// polar caps
	tp := tt - math.Floor(tt)
	tmp := float64(g.nside) * math.Sqrt(3.0*(1.0-za))
	jp := int64(tp * tmp)
	jm := int64((1.0 - tp) * tmp)
	ir := jp + jm + 1 // ring index counted from the nearest pole
	ip := int64(tt * float64(ir))
	ip = ip % (4 * ir)
	if z > 0 {
		return 2*ir*(ir-1) + ip, nil
	}
	return g.npix - 2*ir*(ir+1) + ip, nil
}

// isqrt returns floor(sqrt(v)) exactly for non-negative v.
func isqrt(v int64) int64 {
	r := int64(math.Sqrt(float64(v)))
	for r*r > v {
		r--
	}
	for (r+1)*(r+1) <= v {
		r++
	}
	return r
}
