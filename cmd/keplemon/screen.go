package main

import (
	"github.com/nate-enders/keplemon/internal/conjunction"
	"github.com/spf13/cobra"
)

var (
	screenID        int
	screenStart     string
	screenHours     float64
	screenThreshold float64
)

var screenCmd = &cobra.Command{
	Use:   "screen <file>",
	Short: "Report close approaches in a catalog",
	Long: "screen searches every pair of satellites in the catalog, or one satellite " +
		"against the rest with --id, for close approaches inside the distance threshold.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		start, end, err := window(screenStart, screenHours)
		if err != nil {
			return err
		}
		threshold := app.cfg.ThresholdKm
		if cmd.Flags().Changed("threshold") {
			threshold = screenThreshold
		}
		_, con, err := loadConstellation(args[0])
		if err != nil {
			return err
		}

		var report *conjunction.Report
		if screenID != 0 {
			sat, err := lookup(con, screenID)
			if err != nil {
				return err
			}
			report, err = con.ReportVsOne(cmd.Context(), sat, start, end, threshold)
			if err != nil {
				return err
			}
		} else {
			report, err = con.ReportVsMany(cmd.Context(), start, end, threshold)
			if err != nil {
				return err
			}
		}
		return render(cmd.OutOrStdout(), newReportView(report))
	},
}

func init() {
	screenCmd.Annotations = needsTimeConstants
	f := screenCmd.Flags()
	f.IntVar(&screenID, "id", 0, "Screen only this satellite against the catalog")
	f.StringVar(&screenStart, "start", "", "Start instant, ISO-8601 UTC (default now)")
	f.Float64Var(&screenHours, "hours", 24, "Span in hours")
	f.Float64Var(&screenThreshold, "threshold", 0, "Distance threshold in km (default from config)")
}
