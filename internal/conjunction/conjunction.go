// Package conjunction finds close approaches between pairs of orbiting
// objects.
//
// The search samples relative range and range-rate on a coarse grid, then
// refines every bracketed sign change of the range-rate to a time of
// closest approach. Only the global minimum over the window is reported.
package conjunction

import (
	"errors"
	"fmt"
	"math"

	"github.com/nate-enders/keplemon/internal/elements"
	"github.com/nate-enders/keplemon/internal/propagation"
	"github.com/nate-enders/keplemon/internal/timesys"
)

// DefaultStep is the coarse sampling interval.
var DefaultStep = timesys.Minutes(10)

const (
	refineTolerance  = 1e-4 // seconds
	refineIterations = 50
)

// Source is anything that can report its TEME state at an epoch.
type Source interface {
	ID() int
	StateAt(timesys.Epoch) (elements.CartesianState, error)
}

// CloseApproach is the minimum separation of two objects over a window.
type CloseApproach struct {
	PrimaryID   int
	SecondaryID int
	Epoch       timesys.Epoch
	DistanceKm  float64
}

type options struct {
	step float64 // seconds
}

// Option adjusts the search.
type Option func(*options)

// WithStep sets the coarse sampling interval. Non-positive spans are
// ignored.
func WithStep(s timesys.TimeSpan) Option {
	return func(o *options) {
		if s.InSeconds() > 0 {
			o.step = s.InSeconds()
		}
	}
}

// sample is the relative geometry of the pair at an offset from start.
type sample struct {
	offset float64 // seconds from start
	dist   float64 // km
	rdot   float64 // Δr·Δv, km²/s; same sign as the range rate
	vv     float64 // Δv·Δv
}

type finder struct {
	primary, secondary Source
	start              timesys.Epoch
}

func (f *finder) at(offset float64) (sample, error) {
	e := f.start.Add(timesys.Seconds(offset))
	a, err := f.primary.StateAt(e)
	if err != nil {
		return sample{}, sourceError(f.primary, e, err)
	}
	b, err := f.secondary.StateAt(e)
	if err != nil {
		return sample{}, sourceError(f.secondary, e, err)
	}
	dr := b.Position.Sub(a.Position)
	dv := b.Velocity.Sub(a.Velocity)
	return sample{offset: offset, dist: dr.Magnitude(), rdot: dr.Dot(dv), vv: dv.Dot(dv)}, nil
}

func sourceError(s Source, e timesys.Epoch, err error) error {
	if errors.Is(err, propagation.ErrPropagation) {
		return fmt.Errorf("satellite %d at %s: %w", s.ID(), e, err)
	}
	return fmt.Errorf("satellite %d at %s: %v: %w", s.ID(), e, err, propagation.ErrPropagation)
}

// Find returns the closest approach of secondary to primary in [start, end]
// if it is within thresholdKm, or nil when the pair never gets that close.
// end is converted to start's time scale and the result is reported in it.
func Find(primary, secondary Source, start, end timesys.Epoch, thresholdKm float64, opts ...Option) (*CloseApproach, error) {
	o := options{step: DefaultStep.InSeconds()}
	for _, opt := range opts {
		opt(&o)
	}
	if thresholdKm < 0 || math.IsNaN(thresholdKm) {
		return nil, fmt.Errorf("threshold %g km: %w", thresholdKm, elements.ErrValidation)
	}
	end, err := end.ToSystem(start.System)
	if err != nil {
		return nil, fmt.Errorf("window end: %w", err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("window end %s before start %s: %w", end, start, elements.ErrValidation)
	}

	f := &finder{primary: primary, secondary: secondary, start: start}
	span := end.Sub(start).InSeconds()

	samples, err := f.scan(span, o.step)
	if err != nil {
		return nil, err
	}

	first, last := samples[0], samples[len(samples)-1]
	candidates := make([]sample, 0, 4)
	if first.rdot >= 0 {
		candidates = append(candidates, first)
	}
	if last.rdot <= 0 {
		candidates = append(candidates, last)
	}
	for i := 1; i < len(samples); i++ {
		a, b := samples[i-1], samples[i]
		if a.rdot < 0 && b.rdot >= 0 {
			m, err := f.refine(a, b)
			if err != nil {
				return nil, err
			}
			candidates = append(candidates, m)
		}
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.dist < best.dist {
			best = c
		}
	}

	if best.dist > thresholdKm {
		return nil, nil
	}
	return &CloseApproach{
		PrimaryID:   primary.ID(),
		SecondaryID: secondary.ID(),
		Epoch:       start.Add(timesys.Seconds(best.offset)),
		DistanceKm:  best.dist,
	}, nil
}

// scan samples [0, span] every step seconds, always ending on span.
func (f *finder) scan(span, step float64) ([]sample, error) {
	n := int(math.Ceil(span / step))
	samples := make([]sample, 0, n+1)
	for i := 0; i <= n; i++ {
		off := math.Min(float64(i)*step, span)
		s, err := f.at(off)
		if err != nil {
			return nil, err
		}
		samples = append(samples, s)
		if off == span {
			break
		}
	}
	return samples, nil
}

// refine finds the root of Δr·Δv inside a bracket where it goes from
// negative to non-negative. Steps assume straight-line relative motion and
// fall back to bisection when they leave the bracket.
func (f *finder) refine(a, b sample) (sample, error) {
	lo, hi := a.offset, b.offset
	cur := a
	if math.Abs(b.rdot) < math.Abs(a.rdot) {
		cur = b
	}
	for i := 0; i < refineIterations && hi-lo > refineTolerance; i++ {
		next := (lo + hi) / 2
		if cur.vv > 0 {
			if x := cur.offset - cur.rdot/cur.vv; x > lo && x < hi {
				next = x
			}
		}
		s, err := f.at(next)
		if err != nil {
			return sample{}, err
		}
		moved := math.Abs(next - cur.offset)
		cur = s
		if s.rdot == 0 {
			break
		}
		if s.rdot < 0 {
			lo = next
		} else {
			hi = next
		}
		if moved < refineTolerance {
			break
		}
	}
	return cur, nil
}
