package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nate-enders/keplemon/internal/config"
	"github.com/nate-enders/keplemon/internal/metrics"
	"github.com/nate-enders/keplemon/internal/timesys"
	"github.com/spf13/cobra"
)

var (
	configPath        string
	outputFlag        string
	timeConstantsFlag string
	workersFlag       int
)

// needsTimeConstants marks commands that convert between time scales. They
// refuse to start without a time constants table.
var needsTimeConstants = map[string]string{"time_constants": "required"}

var errNoTimeConstants = errors.New("no time constants table: set time_constants or --time-constants")

// app is the state shared by every subcommand once the root pre-run has
// loaded configuration.
var app struct {
	cfg          *config.Config
	logger       *slog.Logger
	stopListener func()
}

var rootCmd = &cobra.Command{
	Use:   "keplemon",
	Short: "Orbital element, time system and close-approach toolkit",
	Long: "keplemon parses two- and three-line element sets, converts instants between " +
		"UTC, TAI, TT and UT1, propagates satellites with SGP4 and screens catalogs for close approaches.",
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command's
// context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Path to a YAML configuration file")
	pf.StringVarP(&outputFlag, "output", "o", "", "Output format: yaml or json (overrides config)")
	pf.StringVar(&timeConstantsFlag, "time-constants", "", "Path to the time constants table (overrides config)")
	pf.IntVar(&workersFlag, "workers", 0, "Batch worker count (overrides config)")

	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(propagateCmd)
	rootCmd.AddCommand(screenCmd)
	rootCmd.AddCommand(timeCmd)
	rootCmd.AddCommand(passesCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(serveCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if outputFlag != "" {
		cfg.Output = outputFlag
	}
	if timeConstantsFlag != "" {
		cfg.TimeConstants = timeConstantsFlag
	}
	if workersFlag > 0 {
		cfg.Workers = workersFlag
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.Level(),
	}))
	app.cfg, app.logger = cfg, logger

	if cfg.TimeConstants != "" {
		c, err := timesys.LoadFile(cfg.TimeConstants)
		if err != nil {
			logger.Error("failed to load time constants", "path", cfg.TimeConstants, "error", err)
			os.Exit(1)
		}
		from, to := c.Span()
		logger.Debug("time constants loaded",
			"path", cfg.TimeConstants,
			"records", c.Len(),
			"from", from.ISO(),
			"to", to.ISO(),
		)
	} else if cmd.Annotations["time_constants"] == "required" {
		return fmt.Errorf("%s: %w", cmd.CommandPath(), errNoTimeConstants)
	} else {
		logger.Debug("no time constants configured", "command", cmd.CommandPath())
	}
	metrics.SetTimeConstantsLoaded(timesys.Loaded())

	if cfg.MetricsAddr != "" {
		app.stopListener = startListener(cfg, logger)
	}
	return nil
}

func teardown(cmd *cobra.Command, args []string) error {
	if app.stopListener != nil {
		app.stopListener()
	}
	return nil
}

// parseEpoch reads an ISO instant in UTC. An empty string is now.
func parseEpoch(iso string) (timesys.Epoch, error) {
	if iso == "" {
		return timesys.FromTime(time.Now().UTC(), timesys.UTC), nil
	}
	return timesys.FromISO(iso, timesys.UTC)
}

// window resolves a start instant and a span in hours.
func window(startISO string, hours float64) (timesys.Epoch, timesys.Epoch, error) {
	if hours <= 0 {
		return timesys.Epoch{}, timesys.Epoch{}, errors.New("--hours must be positive")
	}
	start, err := parseEpoch(startISO)
	if err != nil {
		return timesys.Epoch{}, timesys.Epoch{}, err
	}
	return start, start.Add(timesys.Hours(hours)), nil
}
