package timesys

import (
	"fmt"
	"strings"
)

// TimeSystem identifies the time scale an Epoch is expressed in.
type TimeSystem int

const (
	UTC TimeSystem = iota
	TAI
	TT
	UT1
)

// ttMinusTAI is the fixed TT-TAI offset in seconds.
const ttMinusTAI = 32.184

func (s TimeSystem) String() string {
	switch s {
	case UTC:
		return "UTC"
	case TAI:
		return "TAI"
	case TT:
		return "TT"
	case UT1:
		return "UT1"
	default:
		return fmt.Sprintf("TimeSystem(%d)", int(s))
	}
}

// Valid reports whether s is one of the supported scales.
func (s TimeSystem) Valid() bool {
	return s >= UTC && s <= UT1
}

// ParseTimeSystem parses a scale name such as "utc" or "TAI".
func ParseTimeSystem(name string) (TimeSystem, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "UTC":
		return UTC, nil
	case "TAI":
		return TAI, nil
	case "TT":
		return TT, nil
	case "UT1":
		return UT1, nil
	}
	return 0, fmt.Errorf("unknown time system %q: %w", name, ErrParse)
}
