package passes

import (
	"fmt"
	"math"

	"github.com/nate-enders/keplemon/internal/elements"
	"github.com/nate-enders/keplemon/internal/timesys"
	"github.com/nate-enders/keplemon/internal/transform"
)

// Observatory is a named ground site on the WGS-84 ellipsoid.
type Observatory struct {
	Name     string
	observer transform.Observer
}

// NewObservatory validates a site. Latitude and longitude are in degrees,
// altitude in km.
func NewObservatory(name string, latDeg, lonDeg, altKm float64) (Observatory, error) {
	for _, v := range []float64{latDeg, lonDeg, altKm} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Observatory{}, fmt.Errorf("observatory %q: non-finite coordinate: %w", name, elements.ErrValidation)
		}
	}
	if latDeg < -90 || latDeg > 90 {
		return Observatory{}, fmt.Errorf("observatory %q: latitude %g: %w", name, latDeg, elements.ErrValidation)
	}
	if lonDeg < -180 || lonDeg > 360 {
		return Observatory{}, fmt.Errorf("observatory %q: longitude %g: %w", name, lonDeg, elements.ErrValidation)
	}
	if lonDeg > 180 {
		lonDeg -= 360
	}
	return Observatory{Name: name, observer: transform.NewObserver(latDeg, lonDeg, altKm)}, nil
}

// Location is the site's geodetic position.
func (o Observatory) Location() transform.Geodetic { return o.observer.Geodetic }

// TEMEState returns the site's inertial position and velocity at e.
func (o Observatory) TEMEState(e timesys.Epoch) (elements.CartesianState, error) {
	gmst, err := transform.GMSTAt(e)
	if err != nil {
		return elements.CartesianState{}, fmt.Errorf("observatory %q: %w", o.Name, err)
	}
	sv := o.observer.TEMEState(gmst)
	return elements.CartesianState{
		Epoch:    e,
		Position: elements.VectorFromArray(sv.Position),
		Velocity: elements.VectorFromArray(sv.Velocity),
		Frame:    elements.TEME,
	}, nil
}

// LookAngles returns azimuth, elevation and range from the site to a TEME
// state.
func (o Observatory) LookAngles(st elements.CartesianState) (transform.LookAngles, [3]float64, error) {
	teme, err := st.ToFrame(elements.TEME)
	if err != nil {
		return transform.LookAngles{}, [3]float64{}, err
	}
	efg, err := transform.TEMEToEFG(teme.StateVector(), teme.Epoch)
	if err != nil {
		return transform.LookAngles{}, [3]float64{}, err
	}
	return o.observer.LookAnglesTo(efg.Position), efg.Position, nil
}
