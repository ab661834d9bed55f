package elements

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
)

// CartesianVector is a 3-vector; km for positions, km/s for velocities.
type CartesianVector struct {
	X, Y, Z float64
}

// VectorFromArray wraps a [3]float64.
func VectorFromArray(a [3]float64) CartesianVector {
	return CartesianVector{X: a[0], Y: a[1], Z: a[2]}
}

func (v CartesianVector) Array() [3]float64 { return [3]float64{v.X, v.Y, v.Z} }
func (v CartesianVector) slice() []float64  { return []float64{v.X, v.Y, v.Z} }

// Magnitude returns the Euclidean norm.
func (v CartesianVector) Magnitude() float64 {
	return floats.Norm(v.slice(), 2)
}

func (v CartesianVector) Dot(o CartesianVector) float64 {
	return floats.Dot(v.slice(), o.slice())
}

func (v CartesianVector) Cross(o CartesianVector) CartesianVector {
	return CartesianVector{
		X: v.Y*o.Z - v.Z*o.Y,
		Y: v.Z*o.X - v.X*o.Z,
		Z: v.X*o.Y - v.Y*o.X,
	}
}

func (v CartesianVector) Add(o CartesianVector) CartesianVector {
	return CartesianVector{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

func (v CartesianVector) Sub(o CartesianVector) CartesianVector {
	return CartesianVector{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

func (v CartesianVector) Scale(k float64) CartesianVector {
	return CartesianVector{X: k * v.X, Y: k * v.Y, Z: k * v.Z}
}

// DistanceTo is the magnitude of v-o.
func (v CartesianVector) DistanceTo(o CartesianVector) float64 {
	return floats.Distance(v.slice(), o.slice(), 2)
}

func (v CartesianVector) String() string {
	return fmt.Sprintf("[%.6f, %.6f, %.6f]", v.X, v.Y, v.Z)
}
