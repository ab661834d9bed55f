package propagation

import (
	"fmt"

	"github.com/nate-enders/keplemon/internal/earth"
	"github.com/nate-enders/keplemon/internal/elements"
	"github.com/nate-enders/keplemon/internal/metrics"
	"github.com/nate-enders/keplemon/internal/timesys"
	"github.com/nate-enders/keplemon/internal/tle"
	"github.com/nate-enders/keplemon/internal/transform"
)

// maxRadiusKm bounds a plausible state; anything further out is treated as
// a diverged solution.
const maxRadiusKm = 1e7

// Propagator produces TEME states for one satellite. It is immutable after
// construction and safe for concurrent use.
type Propagator struct {
	state elements.KeplerianState
	force elements.ForceProperties
	opts  Options

	sgp4    *sgp4Model
	twoBody *twoBodyModel
}

// New builds a propagator for a Keplerian state. Mean-element types are
// propagated with SGP4 and must be in TEME; osculating states use two-body
// motion.
func New(state elements.KeplerianState, force elements.ForceProperties, opts Options) (*Propagator, error) {
	if _, err := elements.NewKeplerianState(state.Epoch, state.Elements, state.Frame, state.Type); err != nil {
		return nil, fmt.Errorf("satellite %d: %w", opts.SatelliteID, err)
	}
	p := &Propagator{state: state, force: force, opts: opts}

	var err error
	switch state.Type {
	case elements.MeanKozaiGP, elements.MeanBrouwerGP, elements.MeanBrouwerXP:
		if state.Frame != elements.TEME {
			return nil, fmt.Errorf("satellite %d: mean elements must be TEME, got %s: %w",
				opts.SatelliteID, state.Frame, elements.ErrValidation)
		}
		p.sgp4, err = newSGP4Model(state, force, opts)
	case elements.Osculating:
		p.twoBody, err = newTwoBodyModel(state, opts)
	default:
		panic(fmt.Sprintf("unhandled keplerian type %d", int(state.Type)))
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// FromTLE builds a propagator from an element set's state and force terms.
func FromTLE(t *tle.TLE, opts Options) (*Propagator, error) {
	opts.SatelliteID = t.SatelliteID
	return New(t.KeplerianState(), t.ForceProperties(), opts)
}

// ID is the satellite id given in Options.
func (p *Propagator) ID() int { return p.opts.SatelliteID }

// Epoch is the epoch of the initial state.
func (p *Propagator) Epoch() timesys.Epoch { return p.state.Epoch }

// InitialState returns the state the propagator was built from.
func (p *Propagator) InitialState() elements.KeplerianState { return p.state }

// ForceProperties returns the force terms the propagator was built with.
func (p *Propagator) ForceProperties() elements.ForceProperties { return p.force }

// StateAt returns the TEME position and velocity at e. The result carries
// e unchanged; e is converted internally to the model's time scale.
func (p *Propagator) StateAt(e timesys.Epoch) (elements.CartesianState, error) {
	s, err := p.stateAt(e)
	metrics.RecordPropagation(err)
	return s, err
}

func (p *Propagator) stateAt(e timesys.Epoch) (elements.CartesianState, error) {
	var pos, vel [3]float64
	switch {
	case p.sgp4 != nil:
		utc, err := e.ToSystem(timesys.UTC)
		if err != nil {
			return elements.CartesianState{}, fmt.Errorf("satellite %d at %s: %v: %w", p.opts.SatelliteID, e, err, ErrPropagation)
		}
		pos, vel = p.sgp4.stateAt(utc)
	case p.twoBody != nil:
		local, err := e.ToSystem(p.twoBody.state.Epoch.System)
		if err != nil {
			return elements.CartesianState{}, fmt.Errorf("satellite %d at %s: %v: %w", p.opts.SatelliteID, e, err, ErrPropagation)
		}
		pos, vel = p.twoBody.stateAt(local)
	}

	if !transform.PlausibleRadius(pos, earth.WGS72.EquatorialRadius, maxRadiusKm) ||
		!transform.PlausibleRadius(vel, 0, maxRadiusKm) {
		return elements.CartesianState{}, fmt.Errorf("satellite %d at %s: position %v km: %w",
			p.opts.SatelliteID, e, pos, ErrPropagation)
	}
	return elements.CartesianState{
		Epoch:    e,
		Position: elements.VectorFromArray(pos),
		Velocity: elements.VectorFromArray(vel),
		Frame:    elements.TEME,
	}, nil
}
