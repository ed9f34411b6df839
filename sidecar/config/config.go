// Package config loads the sidecar's ambient configuration: listen
// addresses, Postgres connection fields, round timing, and the
// accumulator threshold. None of this is part of the CORE (spec.md's
// global config is just SetMaxThreshold) but every real caller of it
// needs somewhere to keep these values, grounded on the teacher's
// gopkg.in/yaml.v3-decoded service configs (cmd/multiservice,
// cmd/registry).
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// SidecarConfig is the sidecar's top-level configuration.
type SidecarConfig struct {
	HTTPAddr string `yaml:"http_addr"`

	EnablePprof        bool     `yaml:"enable_pprof"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`

	Threshold    int `yaml:"threshold"`
	MaxThreshold int `yaml:"max_threshold"`

	RoundDuration time.Duration `yaml:"round_duration"`
	RetainRounds  int           `yaml:"retain_rounds"`

	Postgres PostgresConfig `yaml:"postgres"`

	DrainDuration            time.Duration `yaml:"drain_duration"`
	GracefulShutdownDuration time.Duration `yaml:"graceful_shutdown_duration"`
	ReadTimeout              time.Duration `yaml:"read_timeout"`
	WriteTimeout             time.Duration `yaml:"write_timeout"`
}

// PostgresConfig holds the sidecar's packet-log database connection
// fields. An empty Host means no database is configured, in which case
// the caller falls back to sidecar/store.InMemoryStore.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// DefaultConfig returns a SidecarConfig with sane standalone defaults:
// no Postgres DSN (in-memory packet log), a one-minute round, and a
// threshold of 64.
func DefaultConfig() *SidecarConfig {
	return &SidecarConfig{
		HTTPAddr:                 ":8090",
		Threshold:                64,
		MaxThreshold:             1024,
		RoundDuration:            time.Minute,
		RetainRounds:             10,
		DrainDuration:            5 * time.Second,
		GracefulShutdownDuration: 10 * time.Second,
		ReadTimeout:              15 * time.Second,
		WriteTimeout:             15 * time.Second,
	}
}

// LoadConfig reads and parses a YAML config file at path, starting from
// DefaultConfig so any field the file omits keeps its default value.
func LoadConfig(path string) (*SidecarConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if cfg.Threshold < 1 {
		return nil, fmt.Errorf("threshold must be >= 1, got %d", cfg.Threshold)
	}
	if cfg.MaxThreshold > 0 && cfg.Threshold > cfg.MaxThreshold {
		return nil, fmt.Errorf("threshold %d exceeds max_threshold %d", cfg.Threshold, cfg.MaxThreshold)
	}

	return cfg, nil
}

// HasPostgres reports whether p carries enough information to attempt a
// Postgres connection.
func (p PostgresConfig) HasPostgres() bool {
	return p.Host != ""
}
