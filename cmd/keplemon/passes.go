package main

import (
	"github.com/nate-enders/keplemon/internal/passes"
	"github.com/nate-enders/keplemon/internal/satellite"
	"github.com/nate-enders/keplemon/internal/timesys"
	"github.com/spf13/cobra"
)

var (
	passName    string
	passLat     float64
	passLon     float64
	passAltKm   float64
	passIDs     []int
	passStart   string
	passHours   float64
	passMinElev float64
	passMax     int
	passTrack   bool
)

type passesReport struct {
	Observatory observatoryView       `yaml:"observatory" json:"observatory"`
	Satellites  []satellitePassesView `yaml:"satellites" json:"satellites"`
}

var passesCmd = &cobra.Command{
	Use:   "passes <file>",
	Short: "Predict passes over an observatory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		obs, err := passes.NewObservatory(passName, passLat, passLon, passAltKm)
		if err != nil {
			return err
		}
		start, err := parseEpoch(passStart)
		if err != nil {
			return err
		}
		_, con, err := loadConstellation(args[0])
		if err != nil {
			return err
		}

		ids := passIDs
		if len(ids) == 0 {
			ids = con.IDs()
		}
		sats := make([]*satellite.Satellite, 0, len(ids))
		for _, id := range ids {
			s, err := lookup(con, id)
			if err != nil {
				return err
			}
			sats = append(sats, s)
		}

		results := passes.Predict(cmd.Context(), passes.Request{
			Observatory:  obs,
			Satellites:   sats,
			Start:        start,
			Span:         timesys.Hours(passHours),
			MinElevation: passMinElev,
			MaxPasses:    passMax,
			Workers:      app.cfg.Workers,
		})

		loc := obs.Location()
		out := passesReport{Observatory: observatoryView{Name: obs.Name, LatDeg: loc.LatDeg, LonDeg: loc.LonDeg, AltKm: loc.AltKm}}
		if st, err := obs.TEMEState(start); err == nil {
			sv := newStateView(st)
			out.Observatory.TEME = &sv
		}
		for _, r := range results {
			out.Satellites = append(out.Satellites, newSatellitePassesView(r, passTrack))
		}
		return render(cmd.OutOrStdout(), out)
	},
}

func init() {
	passesCmd.Annotations = needsTimeConstants
	f := passesCmd.Flags()
	f.StringVar(&passName, "name", "observatory", "Observatory name")
	f.Float64Var(&passLat, "lat", 0, "Latitude in degrees")
	f.Float64Var(&passLon, "lon", 0, "Longitude in degrees")
	f.Float64Var(&passAltKm, "alt", 0, "Altitude above the ellipsoid in km")
	f.IntSliceVar(&passIDs, "id", nil, "Satellite ids (default every satellite in the file)")
	f.StringVar(&passStart, "start", "", "Start instant, ISO-8601 UTC (default now)")
	f.Float64Var(&passHours, "hours", 24, "Span in hours")
	f.Float64Var(&passMinElev, "min-elevation", 10, "Minimum elevation in degrees")
	f.IntVar(&passMax, "max-passes", 10, "Maximum passes per satellite")
	f.BoolVar(&passTrack, "ground-track", false, "Include ground track samples")
	passesCmd.MarkFlagRequired("lat")
	passesCmd.MarkFlagRequired("lon")
}
