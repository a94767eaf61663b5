package admission

import (
	"fmt"
	"net/http"

	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/control/http/problem"
)

// Admission Control Problem Codes (Stable)
const (
	CodeZoneUnknown  = "ADMISSION_ZONE_UNKNOWN"
	CodeZoneFull     = "ADMISSION_ZONE_FULL"
	CodeStateUnknown = "ADMISSION_STATE_UNKNOWN"
)

// Problem is a lightweight wrapper around RFC7807 data for internal passing.
// This allows the controller to return a pure error value that the transport layer
// can convert to a wire response using problem.Write.
type Problem struct {
	Status int
	Type   string
	Title  string
	Code   string
	Detail string
	Extra  map[string]any
}

func (p *Problem) Error() string {
	return fmt.Sprintf("[%s] %s: %s", p.Code, p.Title, p.Detail)
}

// NewZoneUnknown returns a 404 problem when the requested zone was never
// declared via config or DeclareZone.
func NewZoneUnknown(zoneID int32) *Problem {
	return &Problem{
		Status: http.StatusNotFound,
		Type:   "admission/zone-unknown",
		Title:  "Zone not declared",
		Code:   CodeZoneUnknown,
		Detail: "The requested zone has not been declared.",
		Extra: map[string]any{
			"zone_id": zoneID,
		},
	}
}

// NewZoneFull returns a 503 problem when a zone's resource cap for a
// family has been reached.
func NewZoneFull(family string, current, limit int) *Problem {
	return &Problem{
		Status: http.StatusServiceUnavailable,
		Type:   "admission/zone-full",
		Title:  "Zone resource capacity exceeded",
		Code:   CodeZoneFull,
		Detail: "Maximum number of active resources reached for this zone and family.",
		Extra: map[string]any{
			"family":  family,
			"current": current,
			"limit":   limit,
		},
	}
}

// NewStateUnknown returns a 503 problem when runtime state indicates a monitoring failure.
func NewStateUnknown() *Problem {
	return &Problem{
		Status: http.StatusServiceUnavailable,
		Type:   "admission/state-unknown",
		Title:  "Admission state unknown",
		Code:   CodeStateUnknown,
		Detail: "Internal monitoring state is unavailable; failing closed.",
	}
}

// WriteProblem converts an admission.Problem to an HTTP response using the standard problem package.
func WriteProblem(w http.ResponseWriter, r *http.Request, p *Problem) {
	problem.Write(w, r, p.Status, p.Type, p.Title, p.Code, p.Detail, p.Extra)
}
