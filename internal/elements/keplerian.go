package elements

import (
	"fmt"
	"math"

	"github.com/nate-enders/keplemon/internal/earth"
	"github.com/nate-enders/keplemon/internal/timesys"
)

const (
	degToRad = math.Pi / 180
	radToDeg = 180 / math.Pi
	twoPi    = 2 * math.Pi

	keplerTolerance  = 1e-14
	keplerIterations = 50
)

// mu is the gravitational parameter all element conversions use.
var mu = earth.WGS72.Mu

// KeplerianElements are the six classical elements. Angles are in degrees.
type KeplerianElements struct {
	SemiMajorAxis     float64 // km
	Eccentricity      float64
	Inclination       float64
	RAAN              float64
	ArgumentOfPerigee float64
	MeanAnomaly       float64
}

// NewKeplerianElements validates the elements and normalises the three free
// angles into [0, 360).
func NewKeplerianElements(sma, ecc, inc, raan, argp, ma float64) (KeplerianElements, error) {
	k := KeplerianElements{
		SemiMajorAxis:     sma,
		Eccentricity:      ecc,
		Inclination:       inc,
		RAAN:              normalizeDegrees(raan),
		ArgumentOfPerigee: normalizeDegrees(argp),
		MeanAnomaly:       normalizeDegrees(ma),
	}
	if err := k.Validate(); err != nil {
		return KeplerianElements{}, err
	}
	return k, nil
}

// Validate checks ranges without modifying the elements.
func (k KeplerianElements) Validate() error {
	for _, v := range []float64{k.SemiMajorAxis, k.Eccentricity, k.Inclination, k.RAAN, k.ArgumentOfPerigee, k.MeanAnomaly} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("non-finite element: %w", ErrValidation)
		}
	}
	switch {
	case k.SemiMajorAxis <= 0:
		return fmt.Errorf("semi-major axis %g km: %w", k.SemiMajorAxis, ErrValidation)
	case k.Eccentricity < 0 || k.Eccentricity >= 1:
		return fmt.Errorf("eccentricity %g outside [0, 1): %w", k.Eccentricity, ErrValidation)
	case k.Inclination < 0 || k.Inclination > 180:
		return fmt.Errorf("inclination %g outside [0, 180]: %w", k.Inclination, ErrValidation)
	}
	return nil
}

// Apoapsis returns the apoapsis radius a(1+e) in km.
func (k KeplerianElements) Apoapsis() float64 {
	return k.SemiMajorAxis * (1 + k.Eccentricity)
}

// Periapsis returns the periapsis radius a(1-e) in km.
func (k KeplerianElements) Periapsis() float64 {
	return k.SemiMajorAxis * (1 - k.Eccentricity)
}

// MeanMotion returns the two-body mean motion in revolutions per day.
func (k KeplerianElements) MeanMotion() float64 {
	return MeanMotionFromSMA(k.SemiMajorAxis)
}

// Period returns the two-body orbital period.
func (k KeplerianElements) Period() timesys.TimeSpan {
	a := k.SemiMajorAxis
	return timesys.Seconds(twoPi * math.Sqrt(a*a*a/mu))
}

// EccentricAnomaly returns E in degrees.
func (k KeplerianElements) EccentricAnomaly() float64 {
	E := SolveKepler(k.MeanAnomaly*degToRad, k.Eccentricity)
	return normalizeDegrees(E * radToDeg)
}

// TrueAnomaly returns ν in degrees.
func (k KeplerianElements) TrueAnomaly() float64 {
	E := SolveKepler(k.MeanAnomaly*degToRad, k.Eccentricity)
	return normalizeDegrees(trueFromEccentric(E, k.Eccentricity) * radToDeg)
}

// MeanMotionFromSMA converts a semi-major axis (km) to rev/day.
func MeanMotionFromSMA(sma float64) float64 {
	n := math.Sqrt(mu / (sma * sma * sma)) // rad/s
	return n * timesys.Days(1).InSeconds() / twoPi
}

// SMAFromMeanMotion converts rev/day to a semi-major axis in km.
func SMAFromMeanMotion(revPerDay float64) float64 {
	n := revPerDay * twoPi / timesys.Days(1).InSeconds()
	return math.Cbrt(mu / (n * n))
}

// SolveKepler solves M = E - e·sin E for E (radians) by Newton iteration.
func SolveKepler(M, e float64) float64 {
	M = math.Mod(M, twoPi)
	E := M
	if e > 0.8 {
		E = math.Pi
	}
	for i := 0; i < keplerIterations; i++ {
		f := E - e*math.Sin(E) - M
		dE := f / (1 - e*math.Cos(E))
		E -= dE
		if math.Abs(dE) < keplerTolerance {
			break
		}
	}
	return E
}

func trueFromEccentric(E, e float64) float64 {
	s, c := math.Sincos(E / 2)
	return 2 * math.Atan2(math.Sqrt(1+e)*s, math.Sqrt(1-e)*c)
}

func eccentricFromTrue(nu, e float64) float64 {
	s, c := math.Sincos(nu / 2)
	return 2 * math.Atan2(math.Sqrt(1-e)*s, math.Sqrt(1+e)*c)
}

func normalizeDegrees(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	if a >= 360 {
		a = 0
	}
	return a
}

// KeplerianState is a set of elements tagged with epoch, frame and theory.
type KeplerianState struct {
	Epoch    timesys.Epoch
	Elements KeplerianElements
	Frame    ReferenceFrame
	Type     KeplerianType
}

// NewKeplerianState validates the parts and assembles a state.
func NewKeplerianState(epoch timesys.Epoch, el KeplerianElements, frame ReferenceFrame, typ KeplerianType) (KeplerianState, error) {
	if err := el.Validate(); err != nil {
		return KeplerianState{}, err
	}
	if !frame.Valid() {
		return KeplerianState{}, fmt.Errorf("frame %s: %w", frame, ErrValidation)
	}
	if !typ.Valid() {
		return KeplerianState{}, fmt.Errorf("type %s: %w", typ, ErrValidation)
	}
	if !epoch.System.Valid() {
		return KeplerianState{}, fmt.Errorf("epoch scale %s: %w", epoch.System, ErrValidation)
	}
	return KeplerianState{Epoch: epoch, Elements: el, Frame: frame, Type: typ}, nil
}

func (s KeplerianState) Apoapsis() float64   { return s.Elements.Apoapsis() }
func (s KeplerianState) Periapsis() float64  { return s.Elements.Periapsis() }
func (s KeplerianState) MeanMotion() float64 { return s.Elements.MeanMotion() }

// ToCartesian interprets the elements as osculating two-body elements and
// returns the equivalent position and velocity in the same frame.
func (s KeplerianState) ToCartesian() CartesianState {
	k := s.Elements
	a, e := k.SemiMajorAxis, k.Eccentricity
	nu := trueFromEccentric(SolveKepler(k.MeanAnomaly*degToRad, e), e)

	p := a * (1 - e*e)
	sinNu, cosNu := math.Sincos(nu)
	r := p / (1 + e*cosNu)
	vScale := math.Sqrt(mu / p)

	// Perifocal (PQW) position and velocity.
	rp := [2]float64{r * cosNu, r * sinNu}
	vp := [2]float64{-vScale * sinNu, vScale * (e + cosNu)}

	sO, cO := math.Sincos(k.RAAN * degToRad)
	si, ci := math.Sincos(k.Inclination * degToRad)
	sw, cw := math.Sincos(k.ArgumentOfPerigee * degToRad)

	// Columns of R3(-Ω)·R1(-i)·R3(-ω) for the P and Q axes.
	P := CartesianVector{X: cO*cw - sO*sw*ci, Y: sO*cw + cO*sw*ci, Z: sw * si}
	Q := CartesianVector{X: -cO*sw - sO*cw*ci, Y: -sO*sw + cO*cw*ci, Z: cw * si}

	return CartesianState{
		Epoch:    s.Epoch,
		Position: P.Scale(rp[0]).Add(Q.Scale(rp[1])),
		Velocity: P.Scale(vp[0]).Add(Q.Scale(vp[1])),
		Frame:    s.Frame,
	}
}
