// Package passes predicts when satellites are above an observatory's
// horizon.
package passes

import (
	"context"
	"fmt"
	"sync"

	"github.com/nate-enders/keplemon/internal/propagation"
	"github.com/nate-enders/keplemon/internal/satellite"
	"github.com/nate-enders/keplemon/internal/timesys"
	"github.com/nate-enders/keplemon/internal/transform"
)

// GroundTrackPoint is a sub-satellite position at a specific time during a pass.
type GroundTrackPoint struct {
	Epoch      timesys.Epoch
	Latitude   float64
	Longitude  float64
	AltitudeKm float64
	Elevation  float64 // degrees above observer's horizon (0-90)
}

// PassEvent describes a single satellite pass over an observatory.
type PassEvent struct {
	Start           timesys.Epoch
	MaxElevationAt  timesys.Epoch
	End             timesys.Epoch
	DurationSeconds float64
	MaxElevation    float64
	AzimuthAtMax    float64
	StartAzimuth    float64
	EndAzimuth      float64
	GroundTrack     []GroundTrackPoint
}

// SatellitePasses holds the predicted passes for one satellite.
type SatellitePasses struct {
	SatelliteID int
	Name        string
	Passes      []PassEvent
	Error       string
}

// Request holds the parameters for a pass prediction request.
type Request struct {
	Observatory  Observatory
	Satellites   []*satellite.Satellite
	Start        timesys.Epoch
	Span         timesys.TimeSpan
	MinElevation float64 // degrees
	MaxPasses    int
	Workers      int // below one uses propagation.ThreadCount
}

const (
	coarseStepSec      = 30 // seconds between coarse scan steps
	fineStepSec        = 1  // seconds between fine scan steps
	groundTrackStepSec = 10 // seconds between ground track samples
	minPassDurSec      = 10
)

// Predict computes satellite passes for the given request.
// Each satellite is processed in its own goroutine, bounded by a semaphore.
func Predict(ctx context.Context, req Request) []SatellitePasses {
	workers := req.Workers
	if workers < 1 {
		workers = propagation.ThreadCount()
	}
	results := make([]SatellitePasses, len(req.Satellites))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, sat := range req.Satellites {
		wg.Add(1)
		go func(idx int, s *satellite.Satellite) {
			defer wg.Done()
			results[idx] = SatellitePasses{SatelliteID: s.ID(), Name: s.Name()}

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[idx].Error = "cancelled"
				return
			}

			passes, err := predictSatellite(ctx, req, s)
			if err != nil {
				results[idx].Error = err.Error()
				return
			}
			results[idx].Passes = passes
		}(i, sat)
	}

	wg.Wait()
	return results
}

// predictSatellite finds all passes for a single satellite. A satellite
// that cannot be propagated at any coarse step is an error.
func predictSatellite(ctx context.Context, req Request, sat *satellite.Satellite) ([]PassEvent, error) {
	end := req.Start.Add(req.Span)
	var (
		passes   []PassEvent
		firstErr error
		good     bool
	)

	// Coarse scan: step through the time range looking for elevation > 0.
	t := req.Start
	for t.Before(end) && (req.MaxPasses <= 0 || len(passes) < req.MaxPasses) {
		if ctx.Err() != nil {
			return passes, nil
		}

		la, _, err := lookAt(sat, req.Observatory, t)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			t = t.Add(timesys.Seconds(coarseStepSec))
			continue
		}
		good = true

		if la.ElevationDeg > 0 {
			// Found a candidate window; fine scan to find the full pass.
			pass, windowEnd := refinePass(ctx, sat, req.Observatory, t, req.Start, end, req.MinElevation)
			if pass != nil && pass.DurationSeconds >= minPassDurSec {
				passes = append(passes, *pass)
			}
			// Jump past the end of this window.
			t = windowEnd.Add(timesys.Seconds(coarseStepSec))
		} else {
			t = t.Add(timesys.Seconds(coarseStepSec))
		}
	}

	if !good && firstErr != nil {
		return nil, fmt.Errorf("satellite %d: %w", sat.ID(), firstErr)
	}
	return passes, nil
}

// refinePass does a fine-grained scan around a coarse-detected above-horizon region.
// It backs up to find the actual rise, then scans forward to find set.
// Returns the pass event and the epoch the window ends.
func refinePass(ctx context.Context, sat *satellite.Satellite, obs Observatory, coarseHit, windowStart, windowEnd timesys.Epoch, minElev float64) (*PassEvent, timesys.Epoch) {
	// Back up to find where elevation first crossed 0.
	searchStart := coarseHit.Add(timesys.Seconds(-coarseStepSec))
	if searchStart.Before(windowStart) {
		searchStart = windowStart
	}

	var (
		rise, set, maxAt   timesys.Epoch
		riseAz, setAz      float64
		maxEl, maxElAz     float64
		wasAbove, foundSet bool
		foundRise          bool
		groundTrack        []GroundTrackPoint
	)

	t := searchStart
	for t.Before(windowEnd) {
		if ctx.Err() != nil {
			break
		}

		la, efg, err := lookAt(sat, obs, t)
		if err != nil {
			t = t.Add(timesys.Seconds(fineStepSec))
			continue
		}
		el := la.ElevationDeg
		above := el >= minElev

		if above && !wasAbove {
			// Rising.
			rise, riseAz = t, la.AzimuthDeg
			foundRise = true
			maxEl, maxAt, maxElAz = el, t, la.AzimuthDeg
		}

		if above && foundRise {
			if el > maxEl {
				maxEl, maxAt, maxElAz = el, t, la.AzimuthDeg
			}
			// Sample ground track point every groundTrackStepSec seconds.
			if int(t.Sub(rise).InSeconds()+0.5)%groundTrackStepSec == 0 {
				geo := transform.EFGToGeodetic(efg)
				groundTrack = append(groundTrack, GroundTrackPoint{
					Epoch:      t,
					Latitude:   geo.LatDeg,
					Longitude:  geo.LonDeg,
					AltitudeKm: geo.AltKm,
					Elevation:  el,
				})
			}
		}

		if !above && wasAbove && foundRise {
			// Setting.
			set, setAz = t, la.AzimuthDeg
			foundSet = true
			break
		}

		wasAbove = above
		t = t.Add(timesys.Seconds(fineStepSec))
	}

	// If the satellite was still above at windowEnd, close the pass there.
	if foundRise && !foundSet && wasAbove {
		set, foundSet = t, true
		if la, _, err := lookAt(sat, obs, t); err == nil {
			setAz = la.AzimuthDeg
			if la.ElevationDeg > maxEl {
				maxEl, maxAt, maxElAz = la.ElevationDeg, t, la.AzimuthDeg
			}
		}
	}

	if !foundRise || !foundSet {
		return nil, t
	}

	return &PassEvent{
		Start:           rise,
		MaxElevationAt:  maxAt,
		End:             set,
		DurationSeconds: set.Sub(rise).InSeconds(),
		MaxElevation:    maxEl,
		AzimuthAtMax:    maxElAz,
		StartAzimuth:    riseAz,
		EndAzimuth:      setAz,
		GroundTrack:     groundTrack,
	}, set
}

// lookAt computes the look angles and Earth-fixed satellite position from
// the observatory at e.
func lookAt(sat *satellite.Satellite, obs Observatory, e timesys.Epoch) (transform.LookAngles, [3]float64, error) {
	st, err := sat.StateAt(e)
	if err != nil {
		return transform.LookAngles{}, [3]float64{}, err
	}
	return obs.LookAngles(st)
}
