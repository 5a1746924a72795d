package store

import (
	"fmt"
	"os"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

const (
	defaultPath          = "~/.habitdash"
	defaultLogLevel      = "info"
	defaultFocusDuration = 25 * time.Minute
	defaultBreakDuration = 5 * time.Minute
)

// Config carries the settings shared by every habitdash command.
type Config interface {
	BasePath() string
	LogLevel() string
	// FocusDuration and BreakDuration are the lengths the CLI passes to a
	// timer start when no explicit duration is given.
	FocusDuration() time.Duration
	BreakDuration() time.Duration
}

// LoadConfig reads `.habitdash.yaml` from $HABITDASH_CONFIG_PATH, the working
// directory or the home directory, with HABITDASH_* environment overrides.
func LoadConfig() (Config, error) {
	v := viper.New()
	v.SetDefault("path", defaultPath)
	v.SetDefault("log.level", defaultLogLevel)
	v.SetDefault("timer.focus", defaultFocusDuration)
	v.SetDefault("timer.break", defaultBreakDuration)
	v.SetConfigName(".habitdash") // .yaml is implicit
	v.SetEnvPrefix("HABITDASH")
	v.AutomaticEnv()

	if override := os.Getenv("HABITDASH_CONFIG_PATH"); override != "" {
		v.AddConfigPath(override)
	}
	v.AddConfigPath("./")
	if home, err := homedir.Dir(); err == nil {
		v.AddConfigPath(home)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("store: read config: %w", err)
		}
	}

	path, err := homedir.Expand(v.GetString("path"))
	if err != nil {
		return nil, fmt.Errorf("store: expand path: %w", err)
	}

	return &fileConfig{
		Path:  path,
		Level: v.GetString("log.level"),
		Focus: positiveOr(v.GetDuration("timer.focus"), defaultFocusDuration),
		Break: positiveOr(v.GetDuration("timer.break"), defaultBreakDuration),
	}, nil
}

// StaticConfig is a Config with fixed values, used by tests and embedders.
type StaticConfig struct {
	Path  string
	Level string
	Focus time.Duration
	Break time.Duration
}

func (c StaticConfig) BasePath() string { return c.Path }

func (c StaticConfig) LogLevel() string {
	if c.Level == "" {
		return defaultLogLevel
	}
	return c.Level
}

func (c StaticConfig) FocusDuration() time.Duration {
	return positiveOr(c.Focus, defaultFocusDuration)
}

func (c StaticConfig) BreakDuration() time.Duration {
	return positiveOr(c.Break, defaultBreakDuration)
}

type fileConfig struct {
	Path  string        `json:"path"`
	Level string        `json:"level"`
	Focus time.Duration `json:"focus"`
	Break time.Duration `json:"break"`
}

func (f *fileConfig) BasePath() string             { return f.Path }
func (f *fileConfig) LogLevel() string             { return f.Level }
func (f *fileConfig) FocusDuration() time.Duration { return f.Focus }
func (f *fileConfig) BreakDuration() time.Duration { return f.Break }

func positiveOr(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
