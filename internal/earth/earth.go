// Package earth holds the Earth reference constants used by propagation,
// element conversion and frame transforms.
//
// The default model is WGS-72, matching the SGP4 family of mean-element
// theories that produce the element sets this module consumes. WGS-84 is
// available for callers that need it and is always used for the geodetic
// ellipsoid.
package earth

import (
	"fmt"
	"math"
	"strings"
)

// Model is a set of gravitational constants for an Earth model.
type Model struct {
	Name             string
	EquatorialRadius float64 // km
	Mu               float64 // km^3/s^2
	J2, J3, J4       float64
	MinutesPerRadian float64 // 1/ke, min
	Flattening       float64
	RotationRate     float64 // rad/s
}

var (
	// WGS72 is the SGP4 reference model.
	WGS72 = Model{
		Name:             "wgs72",
		EquatorialRadius: 6378.135,
		Mu:               398600.8,
		J2:               0.001082616,
		J3:               -0.00000253881,
		J4:               -0.00000165597,
		Flattening:       1.0 / 298.26,
		RotationRate:     7.292115146706979e-5,
	}

	// WGS84 is the modern geodetic model.
	WGS84 = Model{
		Name:             "wgs84",
		EquatorialRadius: 6378.137,
		Mu:               398600.5,
		J2:               0.00108262998905,
		J3:               -0.00000253215306,
		J4:               -0.00000161098761,
		Flattening:       1.0 / 298.257223563,
		RotationRate:     7.292115146706979e-5,
	}
)

func init() {
	WGS72.MinutesPerRadian = minutesPerRadian(WGS72)
	WGS84.MinutesPerRadian = minutesPerRadian(WGS84)
	Default = WGS72
}

// Default is the model used when none is configured.
var Default Model

// KE returns sqrt(mu/R^3) in 1/min, the SGP4 unit of mean motion.
func (m Model) KE() float64 {
	return 1 / m.MinutesPerRadian
}

// EccentricitySquared returns the ellipsoid's first eccentricity squared.
func (m Model) EccentricitySquared() float64 {
	return m.Flattening * (2 - m.Flattening)
}

// ModelByName returns the named model ("wgs72" or "wgs84").
func ModelByName(name string) (Model, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "wgs72", "wgs-72":
		return WGS72, nil
	case "wgs84", "wgs-84":
		return WGS84, nil
	}
	return Model{}, fmt.Errorf("unknown earth model %q", name)
}

func minutesPerRadian(m Model) float64 {
	r3 := m.EquatorialRadius * m.EquatorialRadius * m.EquatorialRadius
	return 1 / (60 * math.Sqrt(m.Mu/r3))
}
