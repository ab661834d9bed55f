package propagation

import (
	"fmt"
	"math"

	"github.com/nate-enders/keplemon/internal/elements"
	"github.com/nate-enders/keplemon/internal/timesys"
)

// twoBodyModel advances osculating elements on a fixed Keplerian ellipse.
type twoBodyModel struct {
	state elements.KeplerianState // TEME
	rate  float64                 // mean motion, degrees per second
}

// newTwoBodyModel prepares an osculating state for propagation. States in
// any frame other than TEME are rotated into TEME at their epoch first.
func newTwoBodyModel(state elements.KeplerianState, opts Options) (*twoBodyModel, error) {
	if state.Frame != elements.TEME {
		cart, err := state.ToCartesian().ToFrame(elements.TEME)
		if err != nil {
			return nil, fmt.Errorf("satellite %d: %w", opts.SatelliteID, err)
		}
		if state, err = cart.ToKeplerian(); err != nil {
			return nil, fmt.Errorf("satellite %d: %w", opts.SatelliteID, err)
		}
	}
	rate := state.MeanMotion() * 360 / timesys.Days(1).InSeconds()
	return &twoBodyModel{state: state, rate: rate}, nil
}

// stateAt returns the TEME state at e, which must share the model epoch's
// time scale.
func (m *twoBodyModel) stateAt(e timesys.Epoch) (pos, vel [3]float64) {
	dt := e.Sub(m.state.Epoch).InSeconds()
	s := m.state
	s.Elements.MeanAnomaly = math.Mod(s.Elements.MeanAnomaly+m.rate*dt, 360)
	if s.Elements.MeanAnomaly < 0 {
		s.Elements.MeanAnomaly += 360
	}
	c := s.ToCartesian()
	return c.Position.Array(), c.Velocity.Array()
}
