package main

import (
	"errors"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the metrics and probe listener until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if app.cfg.MetricsAddr == "" {
			return errors.New("serve needs metrics_addr (KEPLEMON_METRICS_ADDR)")
		}
		<-cmd.Context().Done()
		app.logger.Info("shutting down listener")
		return nil
	},
}
