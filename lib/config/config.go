// Copyright 2026 The Easel Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable that points at the config
// file. A --config flag takes precedence over it.
const EnvVar = "EASEL_CONFIG"

// Config is the master configuration for easel binaries. The server
// reads Server; the participant client reads Client. Both sections
// live in one file so a workstation running both needs one config.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Client ClientConfig `yaml:"client"`
}

// ServerConfig configures the document-store service (easel-server).
type ServerConfig struct {
	// Listen is the TCP listen address. Default ":7420".
	Listen string `yaml:"listen"`

	// Database is the SQLite database file path. Default
	// "easel.db" in the working directory.
	Database string `yaml:"database"`

	// ShutdownTimeoutMS bounds graceful-shutdown drain time in
	// milliseconds. Default 10000.
	ShutdownTimeoutMS int `yaml:"shutdown_timeout_ms"`
}

// ClientConfig configures the participant client (easel).
type ClientConfig struct {
	// StoreURL is the base URL of the document-store service.
	// Default "http://localhost:7420".
	StoreURL string `yaml:"store_url"`

	// SessionKey is the drawing room to join or create. No default:
	// when empty, the client prompts for one.
	SessionKey string `yaml:"session_key"`

	// SampleIntervalMS is the pointer sampling tick in milliseconds.
	// Default 25 (40 samples per second).
	SampleIntervalMS int `yaml:"sample_interval_ms"`

	// LogFile receives JSON log records. The terminal belongs to the
	// canvas, so logs never go to stdout or stderr while the client
	// runs. Default "easel.log".
	LogFile string `yaml:"log_file"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Listen:            ":7420",
			Database:          "easel.db",
			ShutdownTimeoutMS: 10000,
		},
		Client: ClientConfig{
			StoreURL:         "http://localhost:7420",
			SampleIntervalMS: 25,
			LogFile:          "easel.log",
		},
	}
}

// Load reads the config file at path. If path is empty, the EnvVar
// environment variable is consulted; if that is also empty, defaults
// are returned. A path that is set but unreadable or unparsable is an
// error — a config the operator pointed at must load or the binary
// must not start.
func Load(path string) (Config, error) {
	if path == "" {
		path = os.Getenv(EnvVar)
	}
	config := Default()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := config.validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return config, nil
}

func (c Config) validate() error {
	if c.Server.Listen == "" {
		return fmt.Errorf("server.listen must not be empty")
	}
	if c.Server.Database == "" {
		return fmt.Errorf("server.database must not be empty")
	}
	if c.Server.ShutdownTimeoutMS < 0 {
		return fmt.Errorf("server.shutdown_timeout_ms must not be negative")
	}
	if c.Client.SampleIntervalMS <= 0 {
		return fmt.Errorf("client.sample_interval_ms must be positive")
	}
	return nil
}

// ShutdownTimeout returns the server drain bound as a duration.
func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutMS) * time.Millisecond
}

// SampleInterval returns the sampling tick as a duration.
func (c ClientConfig) SampleInterval() time.Duration {
	return time.Duration(c.SampleIntervalMS) * time.Millisecond
}
