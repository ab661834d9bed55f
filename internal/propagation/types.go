package propagation

import (
	"errors"

	"github.com/nate-enders/keplemon/internal/earth"
)

// ErrPropagation is returned when a state cannot be produced: the model
// failed to initialise, the output is not finite, or the satellite has
// decayed below the Earth's surface.
var ErrPropagation = errors.New("propagation failed")

// Options configures a Propagator.
type Options struct {
	// Gravity selects the SGP4 constants. The zero value means WGS-72.
	Gravity earth.Model

	// SatelliteID is used in log and error messages only.
	SatelliteID int
}

func (o Options) gravity() earth.Model {
	if o.Gravity.Name == "" {
		return earth.Default
	}
	return o.Gravity
}
