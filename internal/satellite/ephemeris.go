package satellite

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/nate-enders/keplemon/internal/conjunction"
	"github.com/nate-enders/keplemon/internal/elements"
	"github.com/nate-enders/keplemon/internal/timesys"
)

// lagrangePoints is the interpolation order of Ephemeris.StateAt.
const lagrangePoints = 8

// coincidentSeconds is the separation below which two epochs are the same
// sample.
const coincidentSeconds = 1e-5

// ErrOutOfSpan is returned when an ephemeris is asked for an epoch it does
// not cover.
var ErrOutOfSpan = errors.New("epoch outside ephemeris span")

// Ephemeris is a time-ordered series of TEME states for one satellite, all
// on one time scale. It is not safe for concurrent Add.
type Ephemeris struct {
	id     int
	states []elements.CartesianState
}

// NewEphemeris creates an empty ephemeris.
func NewEphemeris(id int) *Ephemeris {
	return &Ephemeris{id: id}
}

// ID is the satellite id.
func (e *Ephemeris) ID() int { return e.id }

// Len is the number of stored states.
func (e *Ephemeris) Len() int { return len(e.states) }

// States returns a copy of the stored states in time order.
func (e *Ephemeris) States() []elements.CartesianState {
	return slices.Clone(e.states)
}

// Add inserts a state in time order. A state within coincidentSeconds of
// one already present replaces it.
func (e *Ephemeris) Add(s elements.CartesianState) error {
	if s.Frame != elements.TEME {
		return fmt.Errorf("ephemeris %d: state in %s, want TEME: %w", e.id, s.Frame, elements.ErrValidation)
	}
	if len(e.states) > 0 && s.Epoch.System != e.states[0].Epoch.System {
		conv, err := s.Epoch.ToSystem(e.states[0].Epoch.System)
		if err != nil {
			return fmt.Errorf("ephemeris %d: %w", e.id, err)
		}
		s.Epoch = conv
	}
	i := e.search(s.Epoch)
	switch {
	case i < len(e.states) && coincident(e.states[i].Epoch, s.Epoch):
		e.states[i] = s
	case i > 0 && coincident(e.states[i-1].Epoch, s.Epoch):
		e.states[i-1] = s
	default:
		e.states = slices.Insert(e.states, i, s)
	}
	return nil
}

// Span returns the first and last epochs. ok is false for an empty
// ephemeris.
func (e *Ephemeris) Span() (start, end timesys.Epoch, ok bool) {
	if len(e.states) == 0 {
		return timesys.Epoch{}, timesys.Epoch{}, false
	}
	return e.states[0].Epoch, e.states[len(e.states)-1].Epoch, true
}

// StateAt interpolates the state at t with an 8-point Lagrange polynomial
// over the nearest samples. Epochs outside the span are ErrOutOfSpan.
func (e *Ephemeris) StateAt(t timesys.Epoch) (elements.CartesianState, error) {
	start, end, ok := e.Span()
	if !ok {
		return elements.CartesianState{}, fmt.Errorf("ephemeris %d is empty: %w", e.id, ErrOutOfSpan)
	}
	t, err := t.ToSystem(start.System)
	if err != nil {
		return elements.CartesianState{}, fmt.Errorf("ephemeris %d: %w", e.id, err)
	}
	if t.Before(start) || t.After(end) {
		return elements.CartesianState{}, fmt.Errorf("ephemeris %d at %s, span [%s, %s]: %w", e.id, t, start, end, ErrOutOfSpan)
	}

	if st, ok := e.Sample(t); ok {
		return st, nil
	}
	if len(e.states) == 1 {
		return e.states[0], nil
	}
	i := e.search(t)

	n := min(lagrangePoints, len(e.states))
	lo := max(0, min(i-n/2, len(e.states)-n))
	nodes := e.states[lo : lo+n]

	x := t.Sub(nodes[0].Epoch).InSeconds()
	xs := make([]float64, n)
	for j, s := range nodes {
		xs[j] = s.Epoch.Sub(nodes[0].Epoch).InSeconds()
	}

	var pos, vel elements.CartesianVector
	for j, s := range nodes {
		w := 1.0
		for k := range nodes {
			if k != j {
				w *= (x - xs[k]) / (xs[j] - xs[k])
			}
		}
		pos = pos.Add(s.Position.Scale(w))
		vel = vel.Add(s.Velocity.Scale(w))
	}
	return elements.CartesianState{Epoch: t, Position: pos, Velocity: vel, Frame: elements.TEME}, nil
}

// Sample returns the stored state at t without interpolation. ok is false
// when no sample lies within coincidentSeconds of t or t is on another time
// scale.
func (e *Ephemeris) Sample(t timesys.Epoch) (st elements.CartesianState, ok bool) {
	if len(e.states) == 0 || t.System != e.states[0].Epoch.System {
		return elements.CartesianState{}, false
	}
	i := e.search(t)
	switch {
	case i < len(e.states) && coincident(e.states[i].Epoch, t):
		return e.states[i], true
	case i > 0 && coincident(e.states[i-1].Epoch, t):
		return e.states[i-1], true
	}
	return elements.CartesianState{}, false
}

// search returns the index of the first state not before t.
func (e *Ephemeris) search(t timesys.Epoch) int {
	i, _ := slices.BinarySearchFunc(e.states, t, func(a elements.CartesianState, t timesys.Epoch) int {
		return a.Epoch.Compare(t)
	})
	return i
}

func coincident(a, b timesys.Epoch) bool {
	return math.Abs(a.Sub(b).InSeconds()) < coincidentSeconds
}

// CloseApproach searches the overlap of both spans for the closest approach
// of other within threshold km. The coarse step is this ephemeris' sample
// spacing.
func (e *Ephemeris) CloseApproach(other *Ephemeris, thresholdKm float64) (*conjunction.CloseApproach, error) {
	aStart, aEnd, ok := e.Span()
	bStart, bEnd, ok2 := other.Span()
	if !ok || !ok2 {
		return nil, fmt.Errorf("ephemerides %d and %d: %w", e.id, other.id, ErrOutOfSpan)
	}
	bStart, err := bStart.ToSystem(aStart.System)
	if err != nil {
		return nil, err
	}
	if bEnd, err = bEnd.ToSystem(aStart.System); err != nil {
		return nil, err
	}

	start, end := aStart, aEnd
	if bStart.After(start) {
		start = bStart
	}
	if bEnd.Before(end) {
		end = bEnd
	}
	if end.Before(start) {
		return nil, nil
	}

	var opts []conjunction.Option
	if len(e.states) > 1 {
		opts = append(opts, conjunction.WithStep(e.states[1].Epoch.Sub(e.states[0].Epoch)))
	}
	return conjunction.Find(e, other, start, end, thresholdKm, opts...)
}
