// SPDX-License-Identifier: MIT

// Package telemetry provides OpenTelemetry tracing utilities for the
// arbiter daemon.
package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the application.
const (
	// HTTP attributes
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"
	HTTPURLKey        = "http.url"
	HTTPUserAgentKey  = "http.user_agent"

	// Zone/resource attributes
	ZoneIDKey    = "arbiter.zone_id"
	FamilyKey    = "arbiter.family"
	AppIDKey     = "arbiter.app_id"
	AreaNameKey  = "arbiter.area_name"
	SurfaceIDKey = "arbiter.surface_id"

	// Commit attributes
	CommitGrantsKey  = "arbiter.commit.grants"
	CommitRevokesKey = "arbiter.commit.revokes"

	// Overlay attributes
	OverlayRuleCountKey = "arbiter.overlay.rule_count"
	OverlayTouchedKey   = "arbiter.overlay.touched"

	// Job attributes
	JobTypeKey     = "job.type"
	JobStatusKey   = "job.status"
	JobDurationKey = "job.duration_ms"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route, url string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.String(HTTPURLKey, url),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// ZoneAttributes creates span attributes identifying a resource within a
// zone — the common context for Create/Acquire/Raise/Lower/Commit spans.
func ZoneAttributes(zoneID int32, family, appID, areaName string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 4)
	attrs = append(attrs, attribute.Int(ZoneIDKey, int(zoneID)), attribute.String(FamilyKey, family))
	if appID != "" {
		attrs = append(attrs, attribute.String(AppIDKey, appID))
	}
	if areaName != "" {
		attrs = append(attrs, attribute.String(AreaNameKey, areaName))
	}
	return attrs
}

// CommitAttributes creates span attributes describing the outcome of a
// Commit call: how many resources flipped grant state.
func CommitAttributes(grants, revokes int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(CommitGrantsKey, grants),
		attribute.Int(CommitRevokesKey, revokes),
	}
}

// OverlayAttributes creates span attributes describing a Disable call.
func OverlayAttributes(ruleCount, touched int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(OverlayRuleCountKey, ruleCount),
		attribute.Int(OverlayTouchedKey, touched),
	}
}

// JobAttributes creates job-related span attributes, used by the daemon's
// background maintenance tasks (config reload, overlay persistence flush).
func JobAttributes(jobType, status string, durationMS int64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(JobTypeKey, jobType),
		attribute.String(JobStatusKey, status),
		attribute.Int64(JobDurationKey, durationMS),
	}
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(_ error, errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
