// SPDX-License-Identifier: MIT

package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"
)

// Manager persists an AppConfig back to its YAML file. Its one caller is
// arbiterctld's `config dump` subcommand.
type Manager struct {
	configPath string
}

func NewManager(configPath string) *Manager {
	return &Manager{configPath: configPath}
}

// Save writes cfg to disk atomically via renameio, the same
// write-to-temp-then-rename-into-place pattern the teacher uses for its own
// config rewrites, so a crash or concurrent reload never observes a
// half-written file.
func (m *Manager) Save(cfg AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(m.configPath), 0o750); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	fileCfg := FileConfig{
		Zones:        cfg.Zones,
		Applications: cfg.Applications,
		Classes:      cfg.Classes,
		Overlay:      cfg.Overlay,
		EventLog:     cfg.EventLog,
		API:          cfg.API,
		Bus:          cfg.Bus,
		Telemetry:    cfg.Telemetry,
		Metrics:      cfg.Metrics,
		Limits:       cfg.Limits,
		LogLevel:     cfg.LogLevel,
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(fileCfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close encoder: %w", err)
	}

	t, err := renameio.NewPendingFile(m.configPath, renameio.WithPermissions(0o640))
	if err != nil {
		return fmt.Errorf("create pending config file: %w", err)
	}
	defer t.Cleanup()

	if _, err := t.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write pending config file: %w", err)
	}
	if err := t.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace config file: %w", err)
	}
	return nil
}
