// Package satellite pairs an orbiting object's identity and elements with
// its propagator, and stores sampled ephemerides.
package satellite

import (
	"fmt"
	"math"

	"github.com/nate-enders/keplemon/internal/conjunction"
	"github.com/nate-enders/keplemon/internal/elements"
	"github.com/nate-enders/keplemon/internal/propagation"
	"github.com/nate-enders/keplemon/internal/timesys"
	"github.com/nate-enders/keplemon/internal/tle"
	"github.com/nate-enders/keplemon/internal/transform"
)

// Satellite is an immutable orbiting object with a ready propagator.
type Satellite struct {
	id    int
	name  string
	state elements.KeplerianState
	force elements.ForceProperties
	prop  *propagation.Propagator
}

// FromTLE builds a satellite from an element set.
func FromTLE(t *tle.TLE, opts propagation.Options) (*Satellite, error) {
	p, err := propagation.FromTLE(t, opts)
	if err != nil {
		return nil, err
	}
	return &Satellite{
		id:    t.SatelliteID,
		name:  t.Name,
		state: t.KeplerianState(),
		force: t.ForceProperties(),
		prop:  p,
	}, nil
}

// FromKeplerianState builds a satellite from a state and force model.
func FromKeplerianState(id int, name string, state elements.KeplerianState, force elements.ForceProperties, opts propagation.Options) (*Satellite, error) {
	opts.SatelliteID = id
	p, err := propagation.New(state, force, opts)
	if err != nil {
		return nil, err
	}
	return &Satellite{id: id, name: name, state: state, force: force, prop: p}, nil
}

func (s *Satellite) ID() int                                   { return s.id }
func (s *Satellite) Name() string                              { return s.name }
func (s *Satellite) KeplerianState() elements.KeplerianState   { return s.state }
func (s *Satellite) ForceProperties() elements.ForceProperties { return s.force }

// Apoapsis is the apoapsis radius of the element source in km.
func (s *Satellite) Apoapsis() float64 { return s.state.Apoapsis() }

// Periapsis is the periapsis radius of the element source in km.
func (s *Satellite) Periapsis() float64 { return s.state.Periapsis() }

// Band is the radial shell used to prefilter screening pairs.
func (s *Satellite) Band() conjunction.Band {
	return conjunction.Band{PeriapsisKm: s.Periapsis(), ApoapsisKm: s.Apoapsis()}
}

// StateAt propagates to e and returns the TEME state.
func (s *Satellite) StateAt(e timesys.Epoch) (elements.CartesianState, error) {
	return s.prop.StateAt(e)
}

// Ephemeris samples the satellite from start to end every step. The last
// sample is at end even when the span is not a whole number of steps.
func (s *Satellite) Ephemeris(start, end timesys.Epoch, step timesys.TimeSpan) (*Ephemeris, error) {
	end, err := end.ToSystem(start.System)
	if err != nil {
		return nil, fmt.Errorf("ephemeris end: %w", err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("ephemeris end %s before start %s: %w", end, start, elements.ErrValidation)
	}
	if step.InSeconds() <= 0 {
		return nil, fmt.Errorf("ephemeris step %s: %w", step, elements.ErrValidation)
	}

	eph := NewEphemeris(s.id)
	span := end.Sub(start).InSeconds()
	n := int(math.Floor(span/step.InSeconds() + 1e-9))
	tail := span-float64(n)*step.InSeconds() > coincidentSeconds
	for i := 0; i <= n; i++ {
		at := start.Add(step.Scale(float64(i)))
		if i == n && !tail {
			at = end
		}
		if err := s.sample(eph, at); err != nil {
			return nil, err
		}
	}
	if tail {
		if err := s.sample(eph, end); err != nil {
			return nil, err
		}
	}
	return eph, nil
}

func (s *Satellite) sample(eph *Ephemeris, e timesys.Epoch) error {
	st, err := s.StateAt(e)
	if err != nil {
		return err
	}
	return eph.Add(st)
}

// CloseApproach finds the closest approach of other within threshold km.
func (s *Satellite) CloseApproach(other conjunction.Source, start, end timesys.Epoch, thresholdKm float64, opts ...conjunction.Option) (*conjunction.CloseApproach, error) {
	return conjunction.Find(s, other, start, end, thresholdKm, opts...)
}

// GeodeticAt returns the sub-satellite point and altitude at e on the
// WGS-84 ellipsoid.
func (s *Satellite) GeodeticAt(e timesys.Epoch) (transform.Geodetic, error) {
	st, err := s.StateAt(e)
	if err != nil {
		return transform.Geodetic{}, err
	}
	efg, err := transform.TEMEToEFG(st.StateVector(), e)
	if err != nil {
		return transform.Geodetic{}, err
	}
	return transform.EFGToGeodetic(efg.Position), nil
}

func (s *Satellite) String() string {
	if s.name != "" {
		return fmt.Sprintf("%d (%s)", s.id, s.name)
	}
	return fmt.Sprint(s.id)
}
