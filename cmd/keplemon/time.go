package main

import (
	"github.com/nate-enders/keplemon/internal/api"
	"github.com/nate-enders/keplemon/internal/timesys"
	"github.com/spf13/cobra"
)

var (
	timeSystem string
	timeDTG    bool
)

var timeCmd = &cobra.Command{
	Use:   "time <instant>",
	Short: "Convert an instant between UTC, TAI, TT and UT1",
	Long: "time reads an ISO-8601 instant (or DTG-20 with --dtg) in the given scale and " +
		"prints it in every scale. Conversions other than the identity need the time constants table.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		iso := args[0]
		if timeDTG {
			sys, err := timesys.ParseTimeSystem(timeSystem)
			if err != nil {
				return err
			}
			e, err := timesys.FromDTG20(iso, sys)
			if err != nil {
				return err
			}
			iso = e.ISO()
		}
		views, err := api.ConvertTime(iso, timeSystem)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), views)
	},
}

func init() {
	timeCmd.Annotations = needsTimeConstants
	timeCmd.Flags().StringVar(&timeSystem, "system", "UTC", "Scale of the input: UTC, TAI, TT or UT1")
	timeCmd.Flags().BoolVar(&timeDTG, "dtg", false, "Input is DTG-20 (YYYY/DDD HHMM SS.sss)")
}
