// Package config loads the toolkit's settings from defaults, an optional
// YAML file and KEPLEMON_ environment variables, then validates the result
// against an embedded CUE schema.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/nate-enders/keplemon/internal/earth"
	"github.com/nate-enders/keplemon/internal/propagation"
	"github.com/nate-enders/keplemon/internal/timesys"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// ErrInvalid marks a configuration that failed schema validation.
var ErrInvalid = errors.New("invalid configuration")

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "KEPLEMON"

// Config is the effective configuration.
type Config struct {
	TimeConstants string  `mapstructure:"time_constants" yaml:"time_constants" json:"time_constants"`
	Workers       int     `mapstructure:"workers" yaml:"workers" json:"workers"`
	StepMinutes   float64 `mapstructure:"step_minutes" yaml:"step_minutes" json:"step_minutes"`
	ThresholdKm   float64 `mapstructure:"threshold_km" yaml:"threshold_km" json:"threshold_km"`
	Gravity       string  `mapstructure:"gravity" yaml:"gravity" json:"gravity"`
	LogLevel      string  `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	MetricsAddr   string  `mapstructure:"metrics_addr" yaml:"metrics_addr" json:"metrics_addr"`
	Output        string  `mapstructure:"output" yaml:"output" json:"output"`
	APIToken      string  `mapstructure:"api_token" yaml:"api_token" json:"api_token"`
	TrustProxy    bool    `mapstructure:"trust_proxy" yaml:"trust_proxy" json:"trust_proxy"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("time_constants", "")
	v.SetDefault("workers", propagation.ThreadCount())
	v.SetDefault("step_minutes", 10.0)
	v.SetDefault("threshold_km", 10.0)
	v.SetDefault("gravity", earth.Default.Name)
	v.SetDefault("log_level", "info")
	v.SetDefault("metrics_addr", "")
	v.SetDefault("output", "yaml")
	v.SetDefault("api_token", "")
	v.SetDefault("trust_proxy", false)
}

// Load builds the configuration. path may be empty, in which case only
// defaults and the environment apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.Gravity = strings.ToLower(cfg.Gravity)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.Output = strings.ToLower(cfg.Output)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// EarthModel resolves the configured gravity model.
func (c *Config) EarthModel() (earth.Model, error) {
	return earth.ModelByName(c.Gravity)
}

// Step is the coarse close-approach step.
func (c *Config) Step() timesys.TimeSpan {
	return timesys.Minutes(c.StepMinutes)
}

// Level maps LogLevel onto a slog level.
func (c *Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Dump writes the configuration as YAML with the API token masked.
func (c *Config) Dump(w io.Writer) error {
	out := *c
	if out.APIToken != "" {
		out.APIToken = "********"
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return err
	}
	return enc.Close()
}
