package transform

import (
	"math"

	"github.com/nate-enders/keplemon/internal/timesys"
	"github.com/soniakeys/meeus/v3/nutation"
	"gonum.org/v1/gonum/mat"
)

const arcsecToRad = math.Pi / (180 * 3600)

// temeToJ2000Matrix returns M with r_J2000 = M·r_TEME at a TT Julian Date:
//
//	M = P·N·R3(-Eq)
//
// P is IAU-76 precession, N is IAU-80 nutation and Eq is the equation of
// the equinoxes Δψ·cos ε.
func temeToJ2000Matrix(jdTT float64) *mat.Dense {
	T := (jdTT - jdJ2000) / 36525.0

	zeta := (2306.2181*T + 0.30188*T*T + 0.017998*T*T*T) * arcsecToRad
	theta := (2004.3109*T - 0.42665*T*T - 0.041833*T*T*T) * arcsecToRad
	z := (2306.2181*T + 1.09468*T*T + 0.018203*T*T*T) * arcsecToRad
	precession := chain(rot3(zeta), rot2(-theta), rot3(z))

	dPsi, dEps := nutation.Nutation(jdTT)
	meanEps := nutation.MeanObliquity(jdTT).Rad()
	trueEps := meanEps + dEps.Rad()
	nut := chain(rot1(-meanEps), rot3(dPsi.Rad()), rot1(trueEps))

	eqEquinox := dPsi.Rad() * math.Cos(meanEps)
	return chain(precession, nut, rot3(-eqEquinox))
}

func jdTTAt(e timesys.Epoch) (float64, error) {
	tt, err := e.ToSystem(timesys.TT)
	if err != nil {
		return 0, err
	}
	return tt.JulianDate(), nil
}

// TEMEToJ2000 converts a TEME state to the J2000 mean frame.
func TEMEToJ2000(teme StateVector, e timesys.Epoch) (StateVector, error) {
	jd, err := jdTTAt(e)
	if err != nil {
		return StateVector{}, err
	}
	return rotate(temeToJ2000Matrix(jd), teme), nil
}

// J2000ToTEME converts a J2000 state to TEME.
func J2000ToTEME(j2000 StateVector, e timesys.Epoch) (StateVector, error) {
	jd, err := jdTTAt(e)
	if err != nil {
		return StateVector{}, err
	}
	return rotate(temeToJ2000Matrix(jd).T(), j2000), nil
}
