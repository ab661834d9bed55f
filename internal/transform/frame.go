// Package transform converts state vectors between reference frames and
// between Earth-fixed and geodetic or topocentric coordinates.
//
// Supported frames:
//
//	TEME   true equator, mean equinox (SGP4 output)
//	J2000  mean equator and equinox of J2000.0
//	EFG    Earth-fixed Greenwich, GMST rotation only
//	ECR    Earth-centred rotating, EFG corrected for polar motion
//
// Positions are in km and velocities in km/s throughout.
//
// Reference: Vallado, "Fundamentals of Astrodynamics and Applications", Ch. 3.
package transform

import (
	"fmt"
	"math"
	"strings"
)

// Frame identifies a reference frame.
type Frame int

const (
	TEME Frame = iota
	J2000
	EFG
	ECR
)

func (f Frame) String() string {
	switch f {
	case TEME:
		return "TEME"
	case J2000:
		return "J2000"
	case EFG:
		return "EFG"
	case ECR:
		return "ECR"
	}
	return fmt.Sprintf("Frame(%d)", int(f))
}

// Valid reports whether f is one of the defined frames.
func (f Frame) Valid() bool {
	return f >= TEME && f <= ECR
}

// ParseFrame resolves a frame name, case-insensitively.
func ParseFrame(name string) (Frame, error) {
	for _, f := range []Frame{TEME, J2000, EFG, ECR} {
		if strings.EqualFold(name, f.String()) {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown reference frame %q", name)
}

// StateVector is a position (km) and velocity (km/s) pair.
type StateVector struct {
	Position [3]float64
	Velocity [3]float64
}

// Valid reports whether every component is finite.
func (s StateVector) Valid() bool {
	for i := 0; i < 3; i++ {
		if math.IsNaN(s.Position[i]) || math.IsInf(s.Position[i], 0) ||
			math.IsNaN(s.Velocity[i]) || math.IsInf(s.Velocity[i], 0) {
			return false
		}
	}
	return true
}
