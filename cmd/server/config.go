package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type config struct {
	Addr          string        `yaml:"addr" env:"ABBREV_ADDR" env-default:":8420"`
	RulesDir      string        `yaml:"rules_dir" env:"ABBREV_RULES_DIR"`
	SourcesDB     string        `yaml:"sources_db" env:"ABBREV_SOURCES_DB"`
	CheckInterval time.Duration `yaml:"check_interval" env:"ABBREV_CHECK_INTERVAL" env-default:"0s"`
	Watch         bool          `yaml:"watch" env:"ABBREV_WATCH"`
	LogLevel      string        `yaml:"log_level" env:"ABBREV_LOG_LEVEL" env-default:"info"`
}

// loadConfig reads path, then the environment, over the defaults.
// Without -config, ./config.yaml is used when present and otherwise the
// environment alone.
func loadConfig(path string) (*config, error) {
	var cfg config

	explicit := path != ""
	if !explicit {
		path = "config.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	if c.CheckInterval < 0 {
		return fmt.Errorf("check_interval must not be negative")
	}
	if c.Watch && c.RulesDir == "" {
		return fmt.Errorf("watch needs rules_dir")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log_level %q: %w", s, err)
	}
	return level, nil
}

func newLogger(level string) *slog.Logger {
	l, err := parseLevel(level)
	if err != nil {
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}
