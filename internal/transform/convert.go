package transform

import (
	"fmt"

	"github.com/nate-enders/keplemon/internal/timesys"
)

// Convert moves a state from one frame to another at epoch e. Every path goes
// through TEME. Conversions other than identity need the time constants
// store unless e is already in the scale the step requires.
func Convert(s StateVector, from, to Frame, e timesys.Epoch) (StateVector, error) {
	if !from.Valid() || !to.Valid() {
		return StateVector{}, fmt.Errorf("converting %s to %s: unsupported frame", from, to)
	}
	if from == to {
		return s, nil
	}

	teme, err := toTEME(s, from, e)
	if err != nil {
		return StateVector{}, fmt.Errorf("converting %s to TEME: %w", from, err)
	}
	out, err := fromTEME(teme, to, e)
	if err != nil {
		return StateVector{}, fmt.Errorf("converting TEME to %s: %w", to, err)
	}
	return out, nil
}

func toTEME(s StateVector, from Frame, e timesys.Epoch) (StateVector, error) {
	switch from {
	case TEME:
		return s, nil
	case J2000:
		return J2000ToTEME(s, e)
	case EFG:
		return EFGToTEME(s, e)
	case ECR:
		efg, err := ECRToEFG(s, e)
		if err != nil {
			return StateVector{}, err
		}
		return EFGToTEME(efg, e)
	}
	return StateVector{}, fmt.Errorf("frame %s", from)
}

func fromTEME(s StateVector, to Frame, e timesys.Epoch) (StateVector, error) {
	switch to {
	case TEME:
		return s, nil
	case J2000:
		return TEMEToJ2000(s, e)
	case EFG:
		return TEMEToEFG(s, e)
	case ECR:
		efg, err := TEMEToEFG(s, e)
		if err != nil {
			return StateVector{}, err
		}
		return EFGToECR(efg, e)
	}
	return StateVector{}, fmt.Errorf("frame %s", to)
}
