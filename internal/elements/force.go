package elements

// BStarToBTerm converts an SGP4 B* (1/earth radii) to a ballistic B-term
// (m²/kg).
const BStarToBTerm = 12.741621

const (
	defaultSRPCoefficient  = 0.03
	defaultDragCoefficient = 0.01
)

// ForceProperties carries the non-gravitational parameters of a satellite.
type ForceProperties struct {
	SRPCoefficient   float64
	SRPArea          float64 // m²
	DragCoefficient  float64
	DragArea         float64 // m²
	Mass             float64 // kg
	MeanMotionDot    float64 // rev/day², as carried on TLE line 1 (ndot/2)
	MeanMotionDotDot float64 // rev/day³, as carried on TLE line 1 (nddot/6)
}

// DefaultForceProperties returns the properties assumed when none are known.
func DefaultForceProperties() ForceProperties {
	return ForceProperties{
		SRPCoefficient:  defaultSRPCoefficient,
		SRPArea:         1,
		DragCoefficient: defaultDragCoefficient,
		DragArea:        1,
		Mass:            1,
	}
}

// SRPTerm is the solar radiation pressure coefficient times area over mass.
func (f ForceProperties) SRPTerm() float64 {
	if f.Mass == 0 {
		return 0
	}
	return f.SRPCoefficient * f.SRPArea / f.Mass
}

// DragTerm is the ballistic coefficient: drag coefficient times area over mass.
func (f ForceProperties) DragTerm() float64 {
	if f.Mass == 0 {
		return 0
	}
	return f.DragCoefficient * f.DragArea / f.Mass
}

// BStar expresses DragTerm in SGP4 units.
func (f ForceProperties) BStar() float64 {
	return f.DragTerm() / BStarToBTerm
}
