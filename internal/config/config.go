// Package config reads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"talespin/internal/telemetry"
)

// Config holds every setting the commands read.
type Config struct {
	Story  string `env:"TALESPIN_STORY"`
	Addr   string `env:"TALESPIN_ADDR" envDefault:":8080"`
	DB     string `env:"TALESPIN_DB"` // empty keeps save slots in memory
	Strict bool   `env:"TALESPIN_STRICT"`
	Debug  bool   `env:"TALESPIN_DEBUG"`

	// SessionIdle is how long an untouched web session lives.
	SessionIdle time.Duration `env:"TALESPIN_SESSION_IDLE" envDefault:"30m"`

	Enhance        bool          `env:"TALESPIN_ENHANCE"`
	OpenAIKey      string        `env:"OPENAI_API_KEY"`
	OpenAIModel    string        `env:"TALESPIN_OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	EnhanceTimeout time.Duration `env:"TALESPIN_ENHANCE_TIMEOUT" envDefault:"20s"`

	Tracing Tracing
}

// Tracing is the OpenTelemetry block.
type Tracing struct {
	Enabled     bool   `env:"OTEL_TRACES_ENABLED"`
	Endpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Environment string `env:"TALESPIN_ENVIRONMENT" envDefault:"development"`
}

// Telemetry converts the tracing block for telemetry.Init.
func (t Tracing) Telemetry(version string) telemetry.Config {
	return telemetry.Config{
		Enabled:        t.Enabled,
		Endpoint:       t.Endpoint,
		ServiceVersion: version,
		Environment:    t.Environment,
	}
}

// Load reads files (default ".env") into the process environment without
// overriding variables already set, then parses the environment. Missing
// files are skipped.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Parse reads cfg from an explicit variable set instead of the process
// environment.
func Parse(vars map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate checks settings that only matter together.
func (c Config) Validate() error {
	if c.Enhance && c.OpenAIKey == "" {
		return errors.New("TALESPIN_ENHANCE needs OPENAI_API_KEY")
	}
	if c.EnhanceTimeout < 0 {
		return errors.New("TALESPIN_ENHANCE_TIMEOUT must not be negative")
	}
	if c.SessionIdle < 0 {
		return errors.New("TALESPIN_SESSION_IDLE must not be negative")
	}
	return nil
}
