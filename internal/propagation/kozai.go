package propagation

import (
	"math"

	"github.com/nate-enders/keplemon/internal/earth"
)

const (
	kozaiIterations = 20
	kozaiTolerance  = 1e-14
)

// brouwerToKozai converts a Brouwer mean motion (rev/day) to the Kozai mean
// motion SGP4 expects. SGP4 initialisation recovers the Brouwer value from a
// Kozai input as n'' = n0 / (1 + δ0); this inverts that relation by
// fixed-point iteration.
func brouwerToKozai(brouwer, ecc, inclDeg float64, m earth.Model) float64 {
	kozai := brouwer
	for i := 0; i < kozaiIterations; i++ {
		next := brouwer * (1 + kozaiDelta0(kozai, ecc, inclDeg, m))
		if math.Abs(next-kozai) < kozaiTolerance*brouwer {
			return next
		}
		kozai = next
	}
	return kozai
}

// kozaiToBrouwer is the SGP4 initialisation relation itself.
func kozaiToBrouwer(kozai, ecc, inclDeg float64, m earth.Model) float64 {
	return kozai / (1 + kozaiDelta0(kozai, ecc, inclDeg, m))
}

// kozaiDelta0 is the δ0 term of SGP4 initialisation for a Kozai mean
// motion in rev/day.
func kozaiDelta0(kozai, ecc, inclDeg float64, m earth.Model) float64 {
	n0 := kozai * 2 * math.Pi / 1440 // rad/min
	k2 := m.J2 / 2
	cosi := math.Cos(inclDeg * math.Pi / 180)
	x3thm1 := 3*cosi*cosi - 1
	beta0 := math.Sqrt(1 - ecc*ecc)
	beta03 := beta0 * beta0 * beta0

	a1 := math.Pow(m.KE()/n0, 2.0/3.0)
	d1 := 1.5 * k2 * x3thm1 / (a1 * a1 * beta03)
	a0 := a1 * (1 - d1*(1.0/3.0+d1*(1+134.0/81.0*d1)))
	return 1.5 * k2 * x3thm1 / (a0 * a0 * beta03)
}
