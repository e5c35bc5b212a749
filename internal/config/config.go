// Package config loads process configuration from a YAML file with an
// environment overlay. Credentials are never read from or written to the
// file — only from the environment — so nothing sensitive ever lands in
// persisted state.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "HORIZONSYNC"

// SpecialLabels holds the localized label names used to mark goals and
// success steps.
type SpecialLabels struct {
	Goal    string `mapstructure:"goal"`
	Success string `mapstructure:"success"`
}

// HorizonFit describes one horizon's configured fit criterion, used only
// for operator-facing introspection; the actual predicate lives in
// internal/planner.
type HorizonFit struct {
	Horizon   string `mapstructure:"horizon"`
	Criterion string `mapstructure:"criterion"`
}

// Config is the full set of recognized startup options.
type Config struct {
	SyncTimeoutSeconds      int           `mapstructure:"sync_timeout_seconds"`
	EventsSyncFullSyncPages int           `mapstructure:"events_sync_full_sync_pages"`
	TodoistDateFormat       string        `mapstructure:"todoist_date_format"`
	TodoistDatetimeFormats  []string      `mapstructure:"todoist_datetime_formats"`
	PlanHorizons            []HorizonFit  `mapstructure:"plan_horizons"`
	SpecialLabels           SpecialLabels `mapstructure:"special_labels"`
	TaskContentLenThreshold int           `mapstructure:"task_content_len_threshold"`
	DailyReportAt           string        `mapstructure:"daily_report_at"` // "HH:MM"
	RolloverAt              string        `mapstructure:"rollover_at"`     // "HH:MM"

	// APIToken is populated from the environment only; it is never read
	// from or written to the YAML file.
	APIToken string `mapstructure:"-"`
}

// SyncTimeout returns the configured tick interval as a duration.
func (c *Config) SyncTimeout() time.Duration {
	return time.Duration(c.SyncTimeoutSeconds) * time.Second
}

// Default returns the built-in defaults, matching the source's module-level
// constants, before any file/env overlay is applied.
func Default() *Config {
	return &Config{
		SyncTimeoutSeconds:      600,
		EventsSyncFullSyncPages: 52,
		TodoistDateFormat:       "2006-01-02",
		TodoistDatetimeFormats: []string{
			"2006-01-02T15:04:05",
			"2006-01-02T15:04:05Z",
			"2006-01-02T15:04:05.000Z",
		},
		PlanHorizons: []HorizonFit{
			{Horizon: "day", Criterion: "due"},
			{Horizon: "week", Criterion: "due"},
			{Horizon: "month", Criterion: "goal"},
			{Horizon: "quarter", Criterion: "goal"},
			{Horizon: "year", Criterion: "goal"},
		},
		SpecialLabels:           SpecialLabels{Goal: "GOAL", Success: "SUCCESS"},
		TaskContentLenThreshold: 50,
		DailyReportAt:           "07:00",
		RolloverAt:              "00:11",
	}
}

// Load reads configPath (YAML) layered over the defaults, applies an
// environment overlay for everything except the credential, and reads the
// API token strictly from the environment.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	bindDefaults(v, cfg)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", configPath, err)
			}
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.APIToken = os.Getenv(envPrefix + "_API_TOKEN")
	if cfg.APIToken == "" {
		return nil, fmt.Errorf("%s_API_TOKEN is not set", envPrefix)
	}

	return cfg, nil
}

func bindDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("sync_timeout_seconds", cfg.SyncTimeoutSeconds)
	v.SetDefault("events_sync_full_sync_pages", cfg.EventsSyncFullSyncPages)
	v.SetDefault("todoist_date_format", cfg.TodoistDateFormat)
	v.SetDefault("todoist_datetime_formats", cfg.TodoistDatetimeFormats)
	v.SetDefault("special_labels.goal", cfg.SpecialLabels.Goal)
	v.SetDefault("special_labels.success", cfg.SpecialLabels.Success)
	v.SetDefault("task_content_len_threshold", cfg.TaskContentLenThreshold)
	v.SetDefault("daily_report_at", cfg.DailyReportAt)
	v.SetDefault("rollover_at", cfg.RolloverAt)
}
