// SPDX-License-Identifier: MIT

package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Loader reads the YAML configuration file, merges it over defaults and
// environment overrides, and validates the result.
type Loader struct {
	configPath  string
	lookupEnvFn func(string) (string, bool)
}

// NewLoader creates a loader reading from configPath ("" means
// defaults-only, used in tests and for a from-scratch daemon start).
func NewLoader(configPath string) *Loader {
	return &Loader{configPath: configPath, lookupEnvFn: os.LookupEnv}
}

// Load returns the validated, defaulted configuration: defaults, then the
// file (if configPath is set), then environment overrides, in ascending
// priority.
func (l *Loader) Load() (AppConfig, error) {
	cfg := DefaultAppConfig()

	if l.configPath != "" {
		fileCfg, err := l.loadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		mergeFileConfig(&cfg, fileCfg)
	}

	applyEnvOverrides(&cfg, l.lookupEnvFn)

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFile parses path with strict YAML decoding: unknown fields are a
// hard error, failing fast on operator typos rather than silently
// ignoring them.
func (l *Loader) loadFile(path string) (*FileConfig, error) {
	path = filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var fileCfg FileConfig
	dec := newStrictDecoder(bytes.NewReader(data))
	if err := dec.Decode(&fileCfg); err != nil {
		if err == io.EOF {
			return &FileConfig{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrUnknownConfigField, err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return &fileCfg, nil
}

func mergeFileConfig(cfg *AppConfig, f *FileConfig) {
	if len(f.Zones) > 0 {
		cfg.Zones = f.Zones
	}
	if len(f.Applications) > 0 {
		cfg.Applications = f.Applications
	}
	if len(f.Classes) > 0 {
		cfg.Classes = f.Classes
	}
	if f.Overlay.PersistPath != "" {
		cfg.Overlay.PersistPath = f.Overlay.PersistPath
	}
	if f.EventLog.PersistPath != "" {
		cfg.EventLog.PersistPath = f.EventLog.PersistPath
	}
	if f.API.Listen != "" {
		cfg.API.Listen = f.API.Listen
	}
	if f.API.RateLimit.RPS > 0 {
		cfg.API.RateLimit.RPS = f.API.RateLimit.RPS
	}
	if f.API.RateLimit.Burst > 0 {
		cfg.API.RateLimit.Burst = f.API.RateLimit.Burst
	}
	if f.API.Token != "" {
		cfg.API.Token = f.API.Token
	}
	if f.API.AuthAnonymous {
		cfg.API.AuthAnonymous = f.API.AuthAnonymous
	}
	if len(f.API.AllowedOrigins) > 0 {
		cfg.API.AllowedOrigins = f.API.AllowedOrigins
	}
	if f.Bus.RedisAddr != "" {
		cfg.Bus.RedisAddr = f.Bus.RedisAddr
		cfg.Bus.RedisDB = f.Bus.RedisDB
	}
	cfg.Telemetry = f.Telemetry
	if f.Metrics != (MetricsConfig{}) {
		cfg.Metrics = f.Metrics
	}
	if f.Limits.MaxResourcesPerZone > 0 {
		cfg.Limits.MaxResourcesPerZone = f.Limits.MaxResourcesPerZone
	}
	if f.Limits.MaxScreenSurfaces > 0 {
		cfg.Limits.MaxScreenSurfaces = f.Limits.MaxScreenSurfaces
	}
	if f.Limits.MaxOverlayPlanes > 0 {
		cfg.Limits.MaxOverlayPlanes = f.Limits.MaxOverlayPlanes
	}
	if f.Limits.CPUThresholdScale > 0 {
		cfg.Limits.CPUThresholdScale = f.Limits.CPUThresholdScale
	}
	if f.LogLevel != "" {
		cfg.LogLevel = f.LogLevel
	}
}
