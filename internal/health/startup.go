// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/config"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/log"
)

// PerformStartupChecks validates the environment and configuration before
// starting the daemon's event loop and API server.
func PerformStartupChecks(ctx context.Context, cfg config.AppConfig) error {
	logger := log.WithComponent("startup-check")
	logger.Info().Msg("running pre-flight startup checks")

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	logger.Info().Int("zones", len(cfg.Zones)).Int("applications", len(cfg.Applications)).
		Msg("zone/area/application declarations are consistent")

	if err := checkListenAddr(logger, cfg.API.Listen); err != nil {
		return fmt.Errorf("API listen address check failed: %w", err)
	}

	if err := checkOverlayPersistDir(logger, cfg.Overlay.PersistPath); err != nil {
		return fmt.Errorf("overlay persistence path check failed: %w", err)
	}

	checkBusConfig(logger, cfg)

	logger.Info().Msg("all startup checks passed")
	return nil
}

func checkListenAddr(logger zerolog.Logger, addr string) error {
	if addr == "" {
		return fmt.Errorf("API listen address must not be empty")
	}
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid API listen address %q: %w", addr, err)
	}
	portNum, err := strconv.Atoi(port)
	if err != nil || portNum < 0 || portNum > 65535 {
		return fmt.Errorf("invalid API listen port %q in %q", port, addr)
	}
	logger.Info().Str("addr", addr).Msg("API listen address is valid")
	return nil
}

// checkOverlayPersistDir ensures the directory that will hold the disable
// overlay's sqlite store exists and is writable, creating it if necessary.
func checkOverlayPersistDir(logger zerolog.Logger, path string) error {
	if path == "" {
		return fmt.Errorf("overlay persist path must not be empty")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to ensure overlay store directory %s: %w", dir, err)
	}

	testFile := filepath.Join(dir, ".write_test")
	if err := os.WriteFile(testFile, []byte("ok"), 0600); err != nil {
		return fmt.Errorf("overlay store directory is not writable: %s (error: %w)", dir, err)
	}
	_ = os.Remove(testFile)

	logger.Info().Str("path", path).Msg("overlay store directory is writable")
	return nil
}

// checkBusConfig warns (but does not fail startup) when the event bus is
// unconfigured — the daemon still runs with notifier sinks limited to
// whatever's registered in-process.
func checkBusConfig(logger zerolog.Logger, cfg config.AppConfig) {
	if cfg.Bus.RedisAddr == "" {
		logger.Warn().Msg("bus.redis_addr not configured; grant/revoke events will not be published externally")
		return
	}
	if _, _, err := net.SplitHostPort(cfg.Bus.RedisAddr); err != nil {
		logger.Warn().Str("addr", cfg.Bus.RedisAddr).Msg("bus.redis_addr does not look like a host:port pair")
		return
	}
	logger.Info().Str("addr", cfg.Bus.RedisAddr).Msg("event bus address is configured")
}
