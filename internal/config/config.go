// Package config locates and loads mgapi's configuration file. The file is
// optional; every setting has a default, and MGAPI_URL overrides the server
// URL for either case.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/msageha/mgapi/internal/model"
)

const FileName = "mgapi.yaml"

// Default returns the built-in configuration.
func Default() model.Config {
	return model.Config{
		Server: model.ServerConfig{
			URL:               "http://localhost:8000",
			ConnectTimeoutSec: 5,
			TimeoutSec:        30,
		},
		Batch: model.BatchConfig{
			ContinueOnError: true,
			StopOnFileError: false,
			ResubmitDryRun:  true,
		},
		Watch: model.WatchConfig{
			DebounceMs:      500,
			ScanIntervalSec: 30,
		},
		Logging: model.LoggingConfig{Level: "info"},
	}
}

// Find walks up from the working directory looking for mgapi.yaml. Returns
// "" when no config file exists.
func Find() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Load parses the config file at path over the defaults, then applies
// environment overrides.
func Load(path string) (model.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Config{}, fmt.Errorf("read %s: %w", FileName, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return model.Config{}, fmt.Errorf("parse %s: %w", FileName, err)
	}
	return applyEnv(cfg), nil
}

// LoadOrDefault discovers and loads the config file, falling back to the
// defaults when none exists.
func LoadOrDefault() (model.Config, error) {
	path := Find()
	if path == "" {
		return applyEnv(Default()), nil
	}
	return Load(path)
}

func applyEnv(cfg model.Config) model.Config {
	if url := os.Getenv("MGAPI_URL"); url != "" {
		cfg.Server.URL = url
	}
	return cfg
}
