package propagation

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	satellite "github.com/joshuaferrara/go-satellite"
	"github.com/nate-enders/keplemon/internal/earth"
	"github.com/nate-enders/keplemon/internal/elements"
	"github.com/nate-enders/keplemon/internal/timesys"
	"github.com/nate-enders/keplemon/internal/tle"
)

// SGP4 is provided by github.com/joshuaferrara/go-satellite.
//
// The library has two quirks this file works around:
//
//   - TLEToSat parses line text and calls log.Fatal on a malformed field.
//     Lines are therefore always regenerated here from validated fields in
//     the canonical layout, never passed through from user input.
//   - The element epoch is truncated to a whole second during
//     initialisation, and Propagate only accepts whole-second times. The
//     dropped epoch fraction is added back to every query, and sub-second
//     queries are answered by cubic Hermite interpolation between the two
//     neighbouring whole-second evaluations.

// sgp4Model wraps one initialised go-satellite record.
type sgp4Model struct {
	sat        satellite.Satellite
	epochShift float64 // seconds of the element epoch dropped by go-satellite
}

// initSatellite runs go-satellite's initialisation with the constants of
// the given earth model.
func initSatellite(line1, line2 string, m earth.Model) (satellite.Satellite, error) {
	switch m.Name {
	case earth.WGS72.Name:
		return satellite.TLEToSat(line1, line2, satellite.GravityWGS72), nil
	case earth.WGS84.Name:
		return satellite.TLEToSat(line1, line2, satellite.GravityWGS84), nil
	}
	return satellite.Satellite{}, fmt.Errorf("no SGP4 constants for earth model %q", m.Name)
}

// newSGP4Model initialises SGP4 from a mean-element state. Brouwer mean
// motion is converted to Kozai first; XP B-terms are mapped onto B*.
func newSGP4Model(state elements.KeplerianState, force elements.ForceProperties, opts Options) (*sgp4Model, error) {
	grav := opts.gravity()
	el := state.Elements
	n := state.MeanMotion()
	switch state.Type {
	case elements.MeanKozaiGP:
	case elements.MeanBrouwerGP, elements.MeanBrouwerXP:
		n = brouwerToKozai(n, el.Eccentricity, el.Inclination, grav)
	default:
		return nil, fmt.Errorf("satellite %d: type %s is not a mean-element type: %w", opts.SatelliteID, state.Type, ErrPropagation)
	}

	epoch := state.Epoch
	if epoch.System != timesys.UTC {
		var err error
		if epoch, err = epoch.ToSystem(timesys.UTC); err != nil {
			return nil, fmt.Errorf("satellite %d epoch: %w", opts.SatelliteID, err)
		}
	}

	// go-satellite only reads numeric ids.
	id := opts.SatelliteID
	if id < 0 || id > 99999 {
		id = 0
	}
	set, err := tle.New(tle.Fields{
		SatelliteID:       id,
		Epoch:             epoch,
		Type:              elements.MeanKozaiGP,
		MeanMotion:        n,
		Eccentricity:      el.Eccentricity,
		Inclination:       el.Inclination,
		RAAN:              el.RAAN,
		ArgumentOfPerigee: el.ArgumentOfPerigee,
		MeanAnomaly:       el.MeanAnomaly,
		MeanMotionDot:     force.MeanMotionDot,
		MeanMotionDotDot:  force.MeanMotionDotDot,
		BStar:             force.BStar(),
	})
	if err != nil {
		return nil, fmt.Errorf("satellite %d: %v: %w", opts.SatelliteID, err, ErrPropagation)
	}
	line1, line2 := set.CanonicalLines()
	line1, line2 = tle.WithChecksum(line1), tle.WithChecksum(line2)

	sat, err := initSatellite(line1, line2, grav)
	if err != nil {
		return nil, fmt.Errorf("satellite %d: %v: %w", opts.SatelliteID, err, ErrPropagation)
	}
	if sat.Error != 0 {
		return nil, fmt.Errorf("satellite %d: sgp4 init code=%d %s: %w", opts.SatelliteID, sat.Error, sat.ErrorStr, ErrPropagation)
	}

	days, err := strconv.ParseFloat(strings.TrimSpace(line1[20:32]), 64)
	if err != nil {
		return nil, fmt.Errorf("satellite %d: regenerated epoch %q: %w", opts.SatelliteID, line1[20:32], ErrPropagation)
	}
	return &sgp4Model{sat: sat, epochShift: truncatedEpochSeconds(days)}, nil
}

// truncatedEpochSeconds repeats go-satellite's day-of-year split and returns
// the fraction of a second its initialisation discards.
func truncatedEpochSeconds(epochDays float64) float64 {
	doy := math.Floor(epochDays)
	t := (epochDays - doy) * 24
	hr := math.Floor(t)
	t = (t - hr) * 60
	mn := math.Floor(t)
	sec := (t - mn) * 60
	return sec - math.Floor(sec)
}

// stateAt evaluates the model at a UTC epoch, returning TEME km and km/s.
func (m *sgp4Model) stateAt(utc timesys.Epoch) (pos, vel [3]float64) {
	day := math.Floor(utc.DS50)
	sod := (utc.DS50-day)*86400 - m.epochShift
	if sod < 0 {
		day--
		sod += 86400
	}
	whole := math.Floor(sod)
	u := sod - whole

	c := timesys.FromDS50(day, timesys.UTC).Components()
	p0, v0 := m.evaluate(c, int(whole))
	if u == 0 {
		return p0, v0
	}
	p1, v1 := m.evaluate(c, int(whole)+1)
	return hermite(p0, v0, p1, v1, u, 1)
}

// evaluate calls go-satellite at a whole second of the given day.
func (m *sgp4Model) evaluate(day timesys.TimeComponents, second int) (pos, vel [3]float64) {
	p, v := satellite.Propagate(m.sat, day.Year, day.Month, day.Day,
		second/3600, second%3600/60, second%60)
	return [3]float64{p.X, p.Y, p.Z}, [3]float64{v.X, v.Y, v.Z}
}

// hermite interpolates a cubic through (p0, v0) at u=0 and (p1, v1) at u=1,
// for a step of h seconds.
func hermite(p0, v0, p1, v1 [3]float64, u, h float64) (pos, vel [3]float64) {
	u2 := u * u
	u3 := u2 * u
	h00 := 2*u3 - 3*u2 + 1
	h10 := u3 - 2*u2 + u
	h01 := -2*u3 + 3*u2
	h11 := u3 - u2

	d00 := 6*u2 - 6*u
	d10 := 3*u2 - 4*u + 1
	d01 := -6*u2 + 6*u
	d11 := 3*u2 - 2*u

	for i := range 3 {
		pos[i] = h00*p0[i] + h10*h*v0[i] + h01*p1[i] + h11*h*v1[i]
		vel[i] = (d00*p0[i]+d01*p1[i])/h + d10*v0[i] + d11*v1[i]
	}
	return pos, vel
}
