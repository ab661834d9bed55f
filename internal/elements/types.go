// Package elements models orbital element sets and state vectors: mean and
// osculating Keplerian elements, Cartesian states, and the force properties
// that travel with an element set.
package elements

import (
	"errors"
	"fmt"

	"github.com/nate-enders/keplemon/internal/transform"
)

// ErrValidation is returned when elements or states are out of range.
var ErrValidation = errors.New("invalid elements")

// KeplerianType is the theory an element set belongs to. It is encoded as the
// ephemeris-type digit on TLE line 1.
type KeplerianType int

const (
	MeanKozaiGP   KeplerianType = 0
	MeanBrouwerGP KeplerianType = 2
	MeanBrouwerXP KeplerianType = 4
	Osculating    KeplerianType = 6
)

func (k KeplerianType) String() string {
	switch k {
	case MeanKozaiGP:
		return "MeanKozaiGP"
	case MeanBrouwerGP:
		return "MeanBrouwerGP"
	case MeanBrouwerXP:
		return "MeanBrouwerXP"
	case Osculating:
		return "Osculating"
	}
	return fmt.Sprintf("KeplerianType(%d)", int(k))
}

// Valid reports whether k is one of the four defined types.
func (k KeplerianType) Valid() bool {
	switch k {
	case MeanKozaiGP, MeanBrouwerGP, MeanBrouwerXP, Osculating:
		return true
	}
	return false
}

// KeplerianTypeFromDigit maps the TLE eph-type digit. A blank digit is read
// as 0 by callers before reaching here.
func KeplerianTypeFromDigit(d int) (KeplerianType, error) {
	k := KeplerianType(d)
	if !k.Valid() {
		return 0, fmt.Errorf("ephemeris type %d: %w", d, ErrValidation)
	}
	return k, nil
}

// Classification is the security marking on an element set.
type Classification byte

const (
	Unclassified Classification = 'U'
	Confidential Classification = 'C'
	Secret       Classification = 'S'
)

func (c Classification) String() string {
	switch c {
	case Unclassified:
		return "Unclassified"
	case Confidential:
		return "Confidential"
	case Secret:
		return "Secret"
	}
	return fmt.Sprintf("Classification(%q)", byte(c))
}

// ParseClassification maps the TLE classification letter.
func ParseClassification(b byte) (Classification, error) {
	switch c := Classification(b); c {
	case Unclassified, Confidential, Secret:
		return c, nil
	}
	return 0, fmt.Errorf("classification %q: %w", b, ErrValidation)
}

// ReferenceFrame tags the frame a state is expressed in.
type ReferenceFrame = transform.Frame

const (
	TEME  = transform.TEME
	J2000 = transform.J2000
	EFG   = transform.EFG
	ECR   = transform.ECR
)
