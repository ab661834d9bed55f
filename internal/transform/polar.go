package transform

import (
	"github.com/nate-enders/keplemon/internal/timesys"
	"gonum.org/v1/gonum/mat"
)

// polarMatrix returns W with r_EFG = W·r_ECR, built from the pole offsets
// xp and yp (radians): W = R1(yp)·R2(xp).
func polarMatrix(xp, yp float64) *mat.Dense {
	return chain(rot1(yp), rot2(xp))
}

// polarMotionAt looks up the pole offsets in the loaded time constants.
func polarMotionAt(e timesys.Epoch) (xp, yp float64, err error) {
	utc, err := e.ToSystem(timesys.UTC)
	if err != nil {
		return 0, 0, err
	}
	c := timesys.Current()
	if c == nil {
		return 0, 0, timesys.ErrNotLoaded
	}
	return c.PolarMotion(utc.DS50)
}

// EFGToECR applies the polar motion correction at epoch e.
func EFGToECR(efg StateVector, e timesys.Epoch) (StateVector, error) {
	xp, yp, err := polarMotionAt(e)
	if err != nil {
		return StateVector{}, err
	}
	return rotate(polarMatrix(xp, yp).T(), efg), nil
}

// ECRToEFG removes the polar motion correction at epoch e.
func ECRToEFG(ecr StateVector, e timesys.Epoch) (StateVector, error) {
	xp, yp, err := polarMotionAt(e)
	if err != nil {
		return StateVector{}, err
	}
	return rotate(polarMatrix(xp, yp), ecr), nil
}
