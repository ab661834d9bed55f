package main

import (
	"github.com/nate-enders/keplemon/internal/timesys"
	"github.com/nate-enders/keplemon/internal/transform"
	"github.com/spf13/cobra"
)

var (
	propID          int
	propStart       string
	propHours       float64
	propStepSeconds float64
	propFrame       string
)

var propagateCmd = &cobra.Command{
	Use:   "propagate <file>",
	Short: "Print an ephemeris for one satellite",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		frame, err := transform.ParseFrame(propFrame)
		if err != nil {
			return err
		}
		start, end, err := window(propStart, propHours)
		if err != nil {
			return err
		}
		_, con, err := loadConstellation(args[0])
		if err != nil {
			return err
		}
		sat, err := lookup(con, propID)
		if err != nil {
			return err
		}

		eph, err := sat.Ephemeris(start, end, timesys.Seconds(propStepSeconds))
		if err != nil {
			return err
		}
		v := ephemerisView{ID: sat.ID(), Name: sat.Name(), Frame: frame.String(), System: start.System.String()}
		for _, st := range eph.States() {
			conv, err := st.ToFrame(frame)
			if err != nil {
				return err
			}
			v.States = append(v.States, newStateView(conv))
		}
		return render(cmd.OutOrStdout(), v)
	},
}

func init() {
	propagateCmd.Annotations = needsTimeConstants
	f := propagateCmd.Flags()
	f.IntVar(&propID, "id", 0, "Satellite id")
	f.StringVar(&propStart, "start", "", "Start instant, ISO-8601 UTC (default now)")
	f.Float64Var(&propHours, "hours", 1, "Span in hours")
	f.Float64Var(&propStepSeconds, "step", 60, "Step in seconds")
	f.StringVar(&propFrame, "frame", "TEME", "Output frame: TEME, J2000, EFG or ECR")
	propagateCmd.MarkFlagRequired("id")
}
