package main

import (
	"github.com/nate-enders/keplemon/internal/conjunction"
	"github.com/nate-enders/keplemon/internal/earth"
	"github.com/nate-enders/keplemon/internal/elements"
	"github.com/nate-enders/keplemon/internal/passes"
	"github.com/nate-enders/keplemon/internal/satellite"
)

// Output views carry yaml and json tags; the domain types stay tag-free.

type satelliteView struct {
	ID          int     `yaml:"id" json:"id"`
	Name        string  `yaml:"name,omitempty" json:"name,omitempty"`
	Epoch       string  `yaml:"epoch" json:"epoch"`
	Type        string  `yaml:"type" json:"type"`
	PerigeeKm   float64 `yaml:"perigee_alt_km" json:"perigee_alt_km"`
	ApogeeKm    float64 `yaml:"apogee_alt_km" json:"apogee_alt_km"`
	Inclination float64 `yaml:"inclination_deg" json:"inclination_deg"`
}

func newSatelliteView(s *satellite.Satellite) satelliteView {
	ks := s.KeplerianState()
	return satelliteView{
		ID:          s.ID(),
		Name:        s.Name(),
		Epoch:       ks.Epoch.ISO(),
		Type:        ks.Type.String(),
		PerigeeKm:   s.Periapsis() - earth.WGS72.EquatorialRadius,
		ApogeeKm:    s.Apoapsis() - earth.WGS72.EquatorialRadius,
		Inclination: ks.Elements.Inclination,
	}
}

type catalogView struct {
	Name       string          `yaml:"name" json:"name"`
	Satellites int             `yaml:"satellites" json:"satellites"`
	Skipped    int             `yaml:"skipped" json:"skipped"`
	Unusable   int             `yaml:"unusable" json:"unusable"`
	Entries    []satelliteView `yaml:"entries,omitempty" json:"entries,omitempty"`
}

type stateView struct {
	Epoch    string     `yaml:"epoch" json:"epoch"`
	Position [3]float64 `yaml:"position_km,flow" json:"position_km"`
	Velocity [3]float64 `yaml:"velocity_km_s,flow" json:"velocity_km_s"`
}

func newStateView(s elements.CartesianState) stateView {
	return stateView{Epoch: s.Epoch.ISO(), Position: s.Position.Array(), Velocity: s.Velocity.Array()}
}

type ephemerisView struct {
	ID     int         `yaml:"id" json:"id"`
	Name   string      `yaml:"name,omitempty" json:"name,omitempty"`
	Frame  string      `yaml:"frame" json:"frame"`
	System string      `yaml:"time_system" json:"time_system"`
	States []stateView `yaml:"states" json:"states"`
}

type approachView struct {
	PrimaryID   int     `yaml:"primary_id" json:"primary_id"`
	SecondaryID int     `yaml:"secondary_id" json:"secondary_id"`
	Epoch       string  `yaml:"epoch" json:"epoch"`
	DistanceKm  float64 `yaml:"distance_km" json:"distance_km"`
}

type reportView struct {
	ID          string         `yaml:"id" json:"id"`
	Start       string         `yaml:"start" json:"start"`
	End         string         `yaml:"end" json:"end"`
	ThresholdKm float64        `yaml:"threshold_km" json:"threshold_km"`
	Approaches  []approachView `yaml:"approaches" json:"approaches"`
}

func newReportView(r *conjunction.Report) reportView {
	v := reportView{
		ID:          r.ID.String(),
		Start:       r.Start.ISO(),
		End:         r.End.ISO(),
		ThresholdKm: r.ThresholdKm,
		Approaches:  make([]approachView, 0, r.Count()),
	}
	for _, ca := range r.Approaches {
		v.Approaches = append(v.Approaches, approachView{
			PrimaryID:   ca.PrimaryID,
			SecondaryID: ca.SecondaryID,
			Epoch:       ca.Epoch.ISO(),
			DistanceKm:  ca.DistanceKm,
		})
	}
	return v
}

type groundTrackView struct {
	Epoch      string  `yaml:"epoch" json:"epoch"`
	Latitude   float64 `yaml:"latitude" json:"latitude"`
	Longitude  float64 `yaml:"longitude" json:"longitude"`
	AltitudeKm float64 `yaml:"altitude_km" json:"altitude_km"`
	Elevation  float64 `yaml:"elevation" json:"elevation"`
}

type passView struct {
	Start           string            `yaml:"start" json:"start"`
	MaxElevationAt  string            `yaml:"max_elevation_at" json:"max_elevation_at"`
	End             string            `yaml:"end" json:"end"`
	DurationSeconds float64           `yaml:"duration_seconds" json:"duration_seconds"`
	MaxElevation    float64           `yaml:"max_elevation" json:"max_elevation"`
	AzimuthAtMax    float64           `yaml:"azimuth_at_max" json:"azimuth_at_max"`
	StartAzimuth    float64           `yaml:"start_azimuth" json:"start_azimuth"`
	EndAzimuth      float64           `yaml:"end_azimuth" json:"end_azimuth"`
	GroundTrack     []groundTrackView `yaml:"ground_track,omitempty" json:"ground_track,omitempty"`
}

type satellitePassesView struct {
	SatelliteID int        `yaml:"satellite_id" json:"satellite_id"`
	Name        string     `yaml:"name,omitempty" json:"name,omitempty"`
	Passes      []passView `yaml:"passes" json:"passes"`
	Error       string     `yaml:"error,omitempty" json:"error,omitempty"`
}

func newSatellitePassesView(sp passes.SatellitePasses, track bool) satellitePassesView {
	v := satellitePassesView{SatelliteID: sp.SatelliteID, Name: sp.Name, Error: sp.Error, Passes: []passView{}}
	for _, p := range sp.Passes {
		pv := passView{
			Start:           p.Start.ISO(),
			MaxElevationAt:  p.MaxElevationAt.ISO(),
			End:             p.End.ISO(),
			DurationSeconds: p.DurationSeconds,
			MaxElevation:    p.MaxElevation,
			AzimuthAtMax:    p.AzimuthAtMax,
			StartAzimuth:    p.StartAzimuth,
			EndAzimuth:      p.EndAzimuth,
		}
		if track {
			for _, g := range p.GroundTrack {
				pv.GroundTrack = append(pv.GroundTrack, groundTrackView{
					Epoch:      g.Epoch.ISO(),
					Latitude:   g.Latitude,
					Longitude:  g.Longitude,
					AltitudeKm: g.AltitudeKm,
					Elevation:  g.Elevation,
				})
			}
		}
		v.Passes = append(v.Passes, pv)
	}
	return v
}

type observatoryView struct {
	Name   string     `yaml:"name" json:"name"`
	LatDeg float64    `yaml:"latitude" json:"latitude"`
	LonDeg float64    `yaml:"longitude" json:"longitude"`
	AltKm  float64    `yaml:"altitude_km" json:"altitude_km"`
	TEME   *stateView `yaml:"teme_at_start,omitempty" json:"teme_at_start,omitempty"`
}
