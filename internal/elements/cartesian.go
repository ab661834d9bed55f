package elements

import (
	"fmt"
	"math"

	"github.com/nate-enders/keplemon/internal/timesys"
	"github.com/nate-enders/keplemon/internal/transform"
)

// singularTolerance decides when an orbit is treated as circular or
// equatorial in the element conversion.
const singularTolerance = 1e-11

// CartesianState is a position (km) and velocity (km/s) at an epoch in a
// reference frame.
type CartesianState struct {
	Epoch    timesys.Epoch
	Position CartesianVector
	Velocity CartesianVector
	Frame    ReferenceFrame
}

// StateVector returns the frame-free position/velocity pair.
func (s CartesianState) StateVector() transform.StateVector {
	return transform.StateVector{Position: s.Position.Array(), Velocity: s.Velocity.Array()}
}

// ToFrame converts the state into another frame at its own epoch.
func (s CartesianState) ToFrame(frame ReferenceFrame) (CartesianState, error) {
	if frame == s.Frame {
		return s, nil
	}
	sv, err := transform.Convert(s.StateVector(), s.Frame, frame, s.Epoch)
	if err != nil {
		return CartesianState{}, err
	}
	return CartesianState{
		Epoch:    s.Epoch,
		Position: VectorFromArray(sv.Position),
		Velocity: VectorFromArray(sv.Velocity),
		Frame:    frame,
	}, nil
}

// ToKeplerian converts the state to osculating elements. Circular orbits
// carry argument of perigee 0 with the anomaly measured from the node;
// equatorial orbits carry RAAN 0 with angles measured from the x axis.
func (s CartesianState) ToKeplerian() (KeplerianState, error) {
	r, v := s.Position, s.Velocity
	rMag, vMag := r.Magnitude(), v.Magnitude()
	if rMag == 0 {
		return KeplerianState{}, fmt.Errorf("zero position vector: %w", ErrValidation)
	}

	h := r.Cross(v)
	hMag := h.Magnitude()
	if hMag == 0 {
		return KeplerianState{}, fmt.Errorf("rectilinear orbit: %w", ErrValidation)
	}
	node := CartesianVector{X: -h.Y, Y: h.X}
	nMag := node.Magnitude()

	rv := r.Dot(v)
	eVec := r.Scale(vMag*vMag - mu/rMag).Sub(v.Scale(rv)).Scale(1 / mu)
	e := eVec.Magnitude()

	energy := vMag*vMag/2 - mu/rMag
	if energy >= 0 || e >= 1 {
		return KeplerianState{}, fmt.Errorf("unbound orbit (e=%.6f): %w", e, ErrValidation)
	}
	a := -mu / (2 * energy)
	inc := math.Acos(clamp(h.Z / hMag))

	equatorial := nMag/hMag < singularTolerance
	circular := e < singularTolerance

	var raan, argp, nu float64
	if !equatorial {
		raan = math.Acos(clamp(node.X / nMag))
		if node.Y < 0 {
			raan = twoPi - raan
		}
	}

	switch {
	case !circular && !equatorial:
		argp = angleBetween(node, eVec)
		if eVec.Z < 0 {
			argp = twoPi - argp
		}
	case !circular && equatorial:
		argp = math.Atan2(eVec.Y, eVec.X)
		if h.Z < 0 {
			argp = -argp
		}
	}

	switch {
	case !circular:
		nu = angleBetween(eVec, r)
		if rv < 0 {
			nu = twoPi - nu
		}
	case !equatorial:
		// Argument of latitude.
		nu = angleBetween(node, r)
		if r.Z < 0 {
			nu = twoPi - nu
		}
	default:
		// True longitude.
		nu = math.Atan2(r.Y, r.X)
		if h.Z < 0 {
			nu = -nu
		}
	}

	E := eccentricFromTrue(nu, e)
	M := E - e*math.Sin(E)

	el, err := NewKeplerianElements(a, e, inc*radToDeg, raan*radToDeg, argp*radToDeg, M*radToDeg)
	if err != nil {
		return KeplerianState{}, err
	}
	return KeplerianState{Epoch: s.Epoch, Elements: el, Frame: s.Frame, Type: Osculating}, nil
}

// DistanceTo returns the separation between two states' positions in km.
func (s CartesianState) DistanceTo(o CartesianState) float64 {
	return s.Position.DistanceTo(o.Position)
}

func angleBetween(a, b CartesianVector) float64 {
	return math.Acos(clamp(a.Dot(b) / (a.Magnitude() * b.Magnitude())))
}

func clamp(x float64) float64 {
	return math.Max(-1, math.Min(1, x))
}
