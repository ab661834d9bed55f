package transform

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// rot1, rot2 and rot3 are frame (passive) rotations about the x, y and z
// axes, using Vallado's ROT1/ROT2/ROT3 sign convention.
func rot1(a float64) *mat.Dense {
	s, c := math.Sincos(a)
	return mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, c, s,
		0, -s, c,
	})
}

func rot2(a float64) *mat.Dense {
	s, c := math.Sincos(a)
	return mat.NewDense(3, 3, []float64{
		c, 0, -s,
		0, 1, 0,
		s, 0, c,
	})
}

func rot3(a float64) *mat.Dense {
	s, c := math.Sincos(a)
	return mat.NewDense(3, 3, []float64{
		c, s, 0,
		-s, c, 0,
		0, 0, 1,
	})
}

// chain multiplies rotations left to right: chain(A, B, C) = A·B·C.
func chain(ms ...mat.Matrix) *mat.Dense {
	out := mat.DenseCopyOf(ms[0])
	for _, m := range ms[1:] {
		var next mat.Dense
		next.Mul(out, m)
		out = &next
	}
	return out
}

// apply returns m·v.
func apply(m mat.Matrix, v [3]float64) [3]float64 {
	var out mat.VecDense
	out.MulVec(m, mat.NewVecDense(3, v[:]))
	return [3]float64{out.AtVec(0), out.AtVec(1), out.AtVec(2)}
}

// rotate applies m to both halves of a state vector.
func rotate(m mat.Matrix, s StateVector) StateVector {
	return StateVector{Position: apply(m, s.Position), Velocity: apply(m, s.Velocity)}
}
