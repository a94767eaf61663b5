// SPDX-License-Identifier: MIT

// Package api exposes the disable overlay and read-only introspection
// over HTTP, per the OpenAPI document committed alongside this file
// (openapi.yaml). No code generator runs in this build, so the
// generator-shaped request/response types it would otherwise produce are
// hand-written here instead.
package api

// OverlayRuleRequest is the POST /v1/disable and /v1/enable request body.
type OverlayRuleRequest struct {
	// Family is "screen" or "audio".
	Family string `json:"family"`
	// Zone is the zone this rule is recorded against, or "*" for every
	// zone. Bookkeeping only: the overlay predicate itself (requisite,
	// appid, surfaceid) has no zone dimension, per spec.
	Zone string `json:"zone"`
	// Type is "requisite", "appid", or "surfaceid".
	Type string `json:"type"`
	// Data is the type-specific predicate value: a requisite bitmask
	// (number), an appid (string), or a surface id (number).
	Data any `json:"data"`
	// Recalc requests immediate owner recalculation for touched zones.
	// Accepted for wire compatibility but not read: every call
	// recalculates the zones it touched.
	Recalc bool `json:"recalc,omitempty"`
}

// OverlayRuleResponse is the POST /v1/disable and /v1/enable response body.
type OverlayRuleResponse struct {
	// Touched is the number of resources whose disable mask changed, or
	// -1 if the call failed with a reference-lookup miss.
	Touched int `json:"touched"`
}

// ZoneAreasResponse is the GET /v1/zones/{zone}/areas response body.
type ZoneAreasResponse struct {
	Zone    int              `json:"zone"`
	Screens []ScreenResource `json:"screens"`
}

// ZoneAudioResponse is the GET /v1/zones/{zone}/audio response body.
type ZoneAudioResponse struct {
	Zone   int             `json:"zone"`
	Audios []AudioResource `json:"audios"`
}

// ScreenResource mirrors resource.Screen's wire-relevant fields.
type ScreenResource struct {
	Handle    uint32 `json:"handle"`
	SurfaceID int32  `json:"surfaceId"`
	AreaID    uint32 `json:"areaId"`
	AreaName  string `json:"areaName"`
	AppID     string `json:"appId"`
	Acquire   bool   `json:"acquire"`
	Grant     bool   `json:"grant"`
	Disable   uint8  `json:"disable"`
}

// AudioResource mirrors resource.Audio's wire-relevant fields.
type AudioResource struct {
	Handle    uint32 `json:"handle"`
	AudioID   uint32 `json:"audioId"`
	AppID     string `json:"appId"`
	Share     bool   `json:"share"`
	Interrupt bool   `json:"interrupt"`
	Acquire   bool   `json:"acquire"`
	Grant     bool   `json:"grant"`
	Disable   uint8  `json:"disable"`
}

// EventRecord is one entry in the GET /v1/zones/{zone}/events response.
type EventRecord struct {
	Seq       uint64 `json:"seq"`
	Family    string `json:"family"`
	EventID   string `json:"event"`
	Zone      int    `json:"zone"`
	AppID     string `json:"appId,omitempty"`
	SurfaceID int32  `json:"surfaceId,omitempty"`
	LayerID   int32  `json:"layerId,omitempty"`
	AreaName  string `json:"areaName,omitempty"`
}

// ZoneEventsResponse is the GET /v1/zones/{zone}/events response body.
type ZoneEventsResponse struct {
	Zone   int           `json:"zone"`
	Events []EventRecord `json:"events"`
}

// ErrorResponse is the body returned alongside a non-2xx status for
// endpoints that don't go through the RFC 7807 problem writer.
type ErrorResponse struct {
	Error string `json:"error"`
}
