package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the resolved runtime configuration. Values come from defaults,
// then the config file, then HAULMON_* environment variables, then flags.
type Config struct {
	LogPath           string            `mapstructure:"log_path"`
	Listen            string            `mapstructure:"listen"`
	RefreshIntervalMS int               `mapstructure:"refresh_interval_ms"`
	Language          string            `mapstructure:"language"`
	StateDB           string            `mapstructure:"state_db"`
	BacklogBytes      int64             `mapstructure:"backlog_bytes"`
	CatchupHours      int               `mapstructure:"catchup_hours"`
	PollIntervalMS    int               `mapstructure:"poll_interval_ms"`
	Patterns          map[string]string `mapstructure:"patterns"`
}

// SetDefaults installs the built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log_path", `C:\Program Files\Roberts Space Industries\StarCitizen\LIVE\Game.log`)
	v.SetDefault("listen", "0.0.0.0:5000")
	v.SetDefault("refresh_interval_ms", 2000)
	v.SetDefault("language", "en")
	v.SetDefault("state_db", "haulmon.db")
	v.SetDefault("backlog_bytes", int64(5*1024*1024))
	v.SetDefault("catchup_hours", 12)
	v.SetDefault("poll_interval_ms", 500)
}

// Load resolves configuration. An explicit file path must exist; otherwise
// a haulmon.yaml next to the working directory is used when present.
func Load(file string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix("HAULMON")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", file, err)
		}
	} else {
		v.SetConfigName("haulmon")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the monitor cannot run with.
func (c *Config) Validate() error {
	if c.LogPath == "" {
		return fmt.Errorf("log_path is required")
	}
	if c.Listen == "" {
		return fmt.Errorf("listen is required")
	}
	if c.RefreshIntervalMS <= 0 {
		return fmt.Errorf("refresh_interval_ms must be positive")
	}
	if c.BacklogBytes < 0 {
		return fmt.Errorf("backlog_bytes must not be negative")
	}
	if c.CatchupHours <= 0 {
		return fmt.Errorf("catchup_hours must be positive")
	}
	if c.PollIntervalMS <= 0 {
		return fmt.Errorf("poll_interval_ms must be positive")
	}
	return nil
}

// CatchupWindow returns the backlog age cutoff as a duration.
func (c *Config) CatchupWindow() time.Duration {
	return time.Duration(c.CatchupHours) * time.Hour
}

// PollInterval returns the tail poll interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}
