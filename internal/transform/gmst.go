package transform

import (
	"math"

	"github.com/nate-enders/keplemon/internal/timesys"
)

// jdJ2000 is the Julian Date of the J2000.0 epoch (January 1, 2000, 12:00:00 TT).
const jdJ2000 = 2451545.0

// OmegaEarth is Earth's rotation rate in rad/s.
const OmegaEarth = 7.292115146706979e-5

// GMST calculates Greenwich Mean Sidereal Time in radians for a UT1 Julian
// Date. Uses the IAU-82 model as described in Vallado.
//
// Formula (Vallado Eq 3-47):
//
//	θ_GMST = 67310.54841 + (876600h + 8640184.812866)*T + 0.093104*T² - 6.2e-6*T³
//
// where T is Julian centuries of UT1 from J2000.0, result is in seconds of time.
func GMST(jdUT1 float64) float64 {
	tUT1 := (jdUT1 - jdJ2000) / 36525.0

	// 876600h = 876600 * 3600 = 3155760000 seconds.
	gmstSec := 67310.54841 +
		(3155760000.0+8640184.812866)*tUT1 +
		0.093104*tUT1*tUT1 -
		6.2e-6*tUT1*tUT1*tUT1

	gmstSec = math.Mod(gmstSec, 86400.0)
	if gmstSec < 0 {
		gmstSec += 86400.0
	}
	return gmstSec / 86400.0 * 2.0 * math.Pi
}

// GMSTAt returns GMST at an epoch of any scale. Non-UT1 epochs need the
// time constants store.
func GMSTAt(e timesys.Epoch) (float64, error) {
	ut1, err := e.ToSystem(timesys.UT1)
	if err != nil {
		return 0, err
	}
	return GMST(ut1.JulianDate()), nil
}
