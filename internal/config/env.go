// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"strconv"

	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/log"
)

// applyEnvOverrides lets an operator override a handful of deployment
// concerns without editing the config file, following an "ENV beats
// file" precedence. Topology (zones/areas/applications) is
// deliberately not overridable this way — that always comes from the
// file, so a reload has one unambiguous source of truth.
func applyEnvOverrides(cfg *AppConfig, lookup func(string) (string, bool)) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	logger := log.WithComponent("config")

	if v, ok := lookup("ARBITER_LOG_LEVEL"); ok && v != "" {
		cfg.LogLevel = v
	}
	if v, ok := lookup("ARBITER_API_LISTEN"); ok && v != "" {
		cfg.API.Listen = v
	}
	if v, ok := lookup("ARBITER_API_TOKEN"); ok {
		cfg.API.Token = v
	}
	if v, ok := lookup("ARBITER_API_AUTH_ANONYMOUS"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.API.AuthAnonymous = b
		} else {
			logger.Warn().Str("value", v).Msg("ARBITER_API_AUTH_ANONYMOUS is not a bool, ignoring")
		}
	}
	if v, ok := lookup("ARBITER_BUS_REDIS_ADDR"); ok {
		cfg.Bus.RedisAddr = v
	}
	if v, ok := lookup("ARBITER_OVERLAY_PERSIST_PATH"); ok && v != "" {
		cfg.Overlay.PersistPath = v
	}
	if v, ok := lookup("ARBITER_EVENTLOG_PERSIST_PATH"); ok && v != "" {
		cfg.EventLog.PersistPath = v
	}
	if v, ok := lookup("ARBITER_TELEMETRY_ENABLED"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Telemetry.Enabled = b
		} else {
			logger.Warn().Str("value", v).Msg("ARBITER_TELEMETRY_ENABLED is not a bool, ignoring")
		}
	}
	if v, ok := lookup("ARBITER_METRICS_ENABLED"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Metrics.Enabled = b
		} else {
			logger.Warn().Str("value", v).Msg("ARBITER_METRICS_ENABLED is not a bool, ignoring")
		}
	}
	if v, ok := lookup("ARBITER_LIMITS_MAX_RESOURCES_PER_ZONE"); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Limits.MaxResourcesPerZone = n
		} else {
			logger.Warn().Str("value", v).Msg("ARBITER_LIMITS_MAX_RESOURCES_PER_ZONE is not an int, ignoring")
		}
	}
	if v, ok := lookup("ARBITER_LIMITS_MAX_SCREEN_SURFACES"); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Limits.MaxScreenSurfaces = n
		} else {
			logger.Warn().Str("value", v).Msg("ARBITER_LIMITS_MAX_SCREEN_SURFACES is not an int, ignoring")
		}
	}
}
