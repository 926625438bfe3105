package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

var (
	ErrInvalidAIDelay  = errors.New("AI_MOVE_DELAY must be positive")
	ErrUnknownLogLevel = errors.New("unknown LOG_LEVEL")
)

// Config is read from the environment.
type Config struct {
	HTTPAddr    string        `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel    string        `env:"LOG_LEVEL" envDefault:"info"`
	AIMoveDelay time.Duration `env:"AI_MOVE_DELAY" envDefault:"500ms"`
	Player1Name string        `env:"PLAYER1_NAME" envDefault:"Player 1"`
	Player2Name string        `env:"PLAYER2_NAME" envDefault:"Player 2"`
	// SoundAsset is the move sound file. Empty means look it up in the XDG
	// data directories.
	SoundAsset string `env:"SOUND_ASSET"`
	Telemetry  Telemetry
}

type Telemetry struct {
	// Enabled exports traces, metrics and logs over OTLP gRPC.
	Enabled bool `env:"OTEL_ENABLED" envDefault:"false"`
	// Stdout pretty-prints spans to standard output.
	Stdout         bool   `env:"OTEL_STDOUT" envDefault:"false"`
	CollectorAddr  string `env:"OTEL_COLLECTOR_ADDR" envDefault:"otel-collector:4317"`
	ServiceName    string `env:"SERVICE_NAME" envDefault:"tic-tac-toe"`
	ServiceVersion string `env:"SERVICE_VERSION" envDefault:"v0.1.0"`
}

// Load reads the process environment.
func Load() (*Config, error) {
	return parse(env.Options{})
}

// LoadFrom reads the given variables instead of the process environment.
func LoadFrom(vars map[string]string) (*Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values the parser cannot.
func (c *Config) Validate() error {
	if c.AIMoveDelay <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidAIDelay, c.AIMoveDelay)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel maps LogLevel to a slog level.
func (c *Config) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrUnknownLogLevel, c.LogLevel)
	}
}
