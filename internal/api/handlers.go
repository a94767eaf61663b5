// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/control/http/problem"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/notifier"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/overlay"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/resource"
)

// globalRuleZone is the store's bookkeeping zone for a rule submitted with
// zone "*" — applied to every zone rather than one. Operator-declared
// zones are always >= 1 (see DeclareZone call sites), so 0 never
// collides with a real zone.
const globalRuleZone = resource.ZoneID(0)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func badRequest(w http.ResponseWriter, r *http.Request, detail string) {
	problem.Write(w, r, http.StatusBadRequest, "disable/bad-request", "Bad Request", "BAD_REQUEST", detail, nil)
}

func parseOverlayRule(req OverlayRuleRequest) (overlay.Rule, error) {
	kind, ok := overlay.ParseKind(req.Type)
	if !ok {
		return overlay.Rule{}, errInvalidType
	}
	rule := overlay.Rule{Kind: kind}
	switch kind {
	case overlay.KindRequisite:
		n, ok := asNumber(req.Data)
		if !ok {
			return overlay.Rule{}, errInvalidData
		}
		rule.Query = resource.Requisite(n)
	case overlay.KindAppID:
		s, ok := req.Data.(string)
		if !ok {
			return overlay.Rule{}, errInvalidData
		}
		rule.AppID = resource.AppID(s)
	case overlay.KindSurfaceID:
		n, ok := asNumber(req.Data)
		if !ok {
			return overlay.Rule{}, errInvalidData
		}
		rule.SurfaceID = int32(n)
	}
	return rule, nil
}

func asNumber(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	default:
		return 0, false
	}
}

var (
	errInvalidType = ruleError("unknown rule type, want requisite, appid or surfaceid")
	errInvalidData = ruleError("data does not match the declared rule type")
)

type ruleError string

func (e ruleError) Error() string { return string(e) }

// parseRuleZone resolves the request's zone field to a store scope: "*"
// maps to the global bucket, anything else must be a valid integer zone
// id.
func parseRuleZone(s string) (resource.ZoneID, error) {
	if s == "*" {
		return globalRuleZone, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	return resource.ZoneID(n), nil
}

func ruleEqual(a, b overlay.Rule) bool {
	return a.Kind == b.Kind && a.Query == b.Query && a.AppID == b.AppID && a.SurfaceID == b.SurfaceID
}

// persistRuleChange installs or removes one rule from the persisted
// (zone, family) bucket, then returns the union of every persisted rule
// for family across all zones — mirroring overlay.InstallScreen/
// InstallAudio's "replace the entire rule set" semantics, since the
// overlay predicate itself carries no zone dimension. Errors here are
// store/infrastructure failures, distinct from the engine's own
// reference-lookup-miss failure.
func (s *Server) persistRuleChange(ctx context.Context, family notifier.Family, zone resource.ZoneID, rule overlay.Rule, add bool) ([]overlay.Rule, error) {
	all, err := s.overlay.Load(ctx)
	if err != nil {
		return nil, err
	}

	var zoneRules []overlay.Rule
	for _, persisted := range all {
		if persisted.Zone == zone && persisted.Family == family {
			zoneRules = append(zoneRules, persisted.Rule)
		}
	}

	if add {
		replaced := false
		for i, existing := range zoneRules {
			if ruleEqual(existing, rule) {
				zoneRules[i] = rule
				replaced = true
				break
			}
		}
		if !replaced {
			zoneRules = append(zoneRules, rule)
		}
	} else {
		filtered := zoneRules[:0]
		for _, existing := range zoneRules {
			if !ruleEqual(existing, rule) {
				filtered = append(filtered, existing)
			}
		}
		zoneRules = filtered
	}

	if err := s.overlay.Install(ctx, zone, family, zoneRules); err != nil {
		return nil, err
	}

	return s.familyUnion(ctx, family, zone, zoneRules)
}

// familyUnion reloads the store and builds the full cross-zone rule set
// for family, substituting the just-written zoneRules for zone so the
// read reflects the write that immediately preceded it rather than a
// stale snapshot.
func (s *Server) familyUnion(ctx context.Context, family notifier.Family, zone resource.ZoneID, zoneRules []overlay.Rule) ([]overlay.Rule, error) {
	all, err := s.overlay.Load(ctx)
	if err != nil {
		return nil, err
	}
	var union []overlay.Rule
	for _, persisted := range all {
		if persisted.Family != family || persisted.Zone == zone {
			continue
		}
		union = append(union, persisted.Rule)
	}
	union = append(union, zoneRules...)
	return union, nil
}

func (s *Server) handleDisable(w http.ResponseWriter, r *http.Request) {
	s.handleOverlayChange(w, r, true)
}

func (s *Server) handleEnable(w http.ResponseWriter, r *http.Request) {
	s.handleOverlayChange(w, r, false)
}

func (s *Server) handleOverlayChange(w http.ResponseWriter, r *http.Request, add bool) {
	var req OverlayRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, r, "malformed request body")
		return
	}

	family, ok := notifier.ParseFamily(req.Family)
	if !ok {
		badRequest(w, r, "family must be \"screen\" or \"audio\"")
		return
	}
	zone, err := parseRuleZone(req.Zone)
	if err != nil {
		badRequest(w, r, "zone must be an integer or \"*\"")
		return
	}
	rule, err := parseOverlayRule(req)
	if err != nil {
		badRequest(w, r, err.Error())
		return
	}

	union, err := s.persistRuleChange(r.Context(), family, zone, rule, add)
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, "disable/store-unavailable", "Internal Server Error", "STORE_UNAVAILABLE", err.Error(), nil)
		return
	}

	touched, err := s.engine.Disable(r.Context(), family, union)
	if err != nil {
		problem.Write(w, r, http.StatusConflict, "disable/reference-miss", "Conflict", "REFERENCE_LOOKUP_MISS", err.Error(), map[string]any{"touched": touched})
		return
	}

	if add {
		s.audit.OverlayDisable("api", family.String(), 1, touched)
	} else {
		s.audit.OverlayEnable("api", family.String(), touched)
	}
	writeJSON(w, http.StatusOK, OverlayRuleResponse{Touched: touched})
}

func zoneParam(r *http.Request) (resource.ZoneID, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, "zone"))
	if err != nil {
		return 0, false
	}
	return resource.ZoneID(n), true
}

func (s *Server) handleZoneAreas(w http.ResponseWriter, r *http.Request) {
	zone, ok := zoneParam(r)
	if !ok {
		badRequest(w, r, "zone must be an integer")
		return
	}
	snap, err := s.engine.Query(r.Context(), zone)
	if err != nil {
		problem.Write(w, r, http.StatusConflict, "query/reference-miss", "Conflict", "REFERENCE_LOOKUP_MISS", err.Error(), nil)
		return
	}
	resp := ZoneAreasResponse{Zone: int(zone)}
	for _, scr := range snap.Screens {
		resp.Screens = append(resp.Screens, ScreenResource{
			Handle:    uint32(scr.Handle),
			SurfaceID: scr.SurfaceID,
			AreaID:    uint32(scr.AreaID),
			AreaName:  scr.AreaName,
			AppID:     string(scr.AppID),
			Acquire:   scr.Acquire,
			Grant:     scr.Grant,
			Disable:   uint8(scr.Disable),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleZoneAudio(w http.ResponseWriter, r *http.Request) {
	zone, ok := zoneParam(r)
	if !ok {
		badRequest(w, r, "zone must be an integer")
		return
	}
	snap, err := s.engine.Query(r.Context(), zone)
	if err != nil {
		problem.Write(w, r, http.StatusConflict, "query/reference-miss", "Conflict", "REFERENCE_LOOKUP_MISS", err.Error(), nil)
		return
	}
	resp := ZoneAudioResponse{Zone: int(zone)}
	for _, aud := range snap.Audios {
		resp.Audios = append(resp.Audios, AudioResource{
			Handle:    uint32(aud.Handle),
			AudioID:   uint32(aud.AudioID),
			AppID:     string(aud.AppID),
			Share:     aud.Share,
			Interrupt: aud.Interrupt,
			Acquire:   aud.Acquire,
			Grant:     aud.Grant,
			Disable:   uint8(aud.Disable),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleZoneEvents(w http.ResponseWriter, r *http.Request) {
	zone, ok := zoneParam(r)
	if !ok {
		badRequest(w, r, "zone must be an integer")
		return
	}
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			badRequest(w, r, "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := s.events.Tail(r.Context(), zone, limit)
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, "events/unavailable", "Internal Server Error", "EVENTS_UNAVAILABLE", err.Error(), nil)
		return
	}

	resp := ZoneEventsResponse{Zone: int(zone)}
	for _, rec := range records {
		resp.Events = append(resp.Events, EventRecord{
			Seq:       rec.Seq,
			Family:    rec.Event.Family.String(),
			EventID:   rec.Event.EventID.String(),
			Zone:      int(rec.Event.ZoneID),
			AppID:     string(rec.Event.AppID),
			SurfaceID: rec.Event.SurfaceID,
			LayerID:   rec.Event.LayerID,
			AreaName:  rec.Event.AreaName,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
