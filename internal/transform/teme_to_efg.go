package transform

import (
	"math"

	"github.com/nate-enders/keplemon/internal/timesys"
)

// TEMEToEFG rotates a TEME state into the Earth-fixed Greenwich frame at the
// given epoch.
func TEMEToEFG(teme StateVector, e timesys.Epoch) (StateVector, error) {
	gmst, err := GMSTAt(e)
	if err != nil {
		return StateVector{}, err
	}
	return TEMEToEFGWithGMST(teme, gmst), nil
}

// TEMEToEFGWithGMST transforms TEME to EFG using a precomputed GMST angle
// (radians). Useful when converting many states at one instant.
//
// Position transform: r_EFG = R3(θ) * r_TEME
// Velocity transform: v_EFG = R3(θ) * v_TEME - ω × r_EFG
func TEMEToEFGWithGMST(teme StateVector, gmst float64) StateVector {
	out := rotate(rot3(gmst), teme)

	// ω × r_EFG = [-ω*y, ω*x, 0]
	out.Velocity[0] += OmegaEarth * out.Position[1]
	out.Velocity[1] -= OmegaEarth * out.Position[0]
	return out
}

// EFGToTEME is the inverse of TEMEToEFG.
func EFGToTEME(efg StateVector, e timesys.Epoch) (StateVector, error) {
	gmst, err := GMSTAt(e)
	if err != nil {
		return StateVector{}, err
	}
	return EFGToTEMEWithGMST(efg, gmst), nil
}

// EFGToTEMEWithGMST undoes the Earth-rotation term, then rotates by -θ.
func EFGToTEMEWithGMST(efg StateVector, gmst float64) StateVector {
	in := efg
	in.Velocity[0] -= OmegaEarth * efg.Position[1]
	in.Velocity[1] += OmegaEarth * efg.Position[0]
	return rotate(rot3(-gmst), in)
}

// PlausibleRadius reports whether a position lies between the Earth's
// surface and a generous upper bound for bound Earth orbits.
func PlausibleRadius(r [3]float64, minKm, maxKm float64) bool {
	for _, c := range r {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	mag := math.Sqrt(r[0]*r[0] + r[1]*r[1] + r[2]*r[2])
	return mag >= minKm && mag <= maxKm
}
