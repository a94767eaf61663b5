// SPDX-License-Identifier: MIT

// Package resource holds the shared data model for the arbitration engine:
// zones, areas, applications and the two resource families (screen, audio)
// that compete for them. It has no knowledge of grant policy — that lives
// in internal/arbiter/screen and internal/arbiter/audio — only of storage,
// identity and the composite ordering key.
package resource

import "fmt"

// ZoneMax bounds the number of zones the engine can track, mirroring the
// source's fixed MRP_ZONE_MAX enumeration.
const ZoneMax = 16

// AnyArea marks a screen resource whose area name did not resolve at
// create time. It is re-attempted every time a new area is created.
const AnyArea = ^uint32(0)

// Privilege is the five-level ladder screen/audio access is granted from.
type Privilege int

const (
	PrivilegeNone Privilege = iota
	PrivilegeCertified
	PrivilegeManufacturer
	PrivilegeSystem
	PrivilegeUnlimited
)

func (p Privilege) String() string {
	switch p {
	case PrivilegeNone:
		return "none"
	case PrivilegeCertified:
		return "certified"
	case PrivilegeManufacturer:
		return "manufacturer"
	case PrivilegeSystem:
		return "system"
	case PrivilegeUnlimited:
		return "unlimited"
	default:
		return "unknown"
	}
}

// ParsePrivilege parses the lower-case config/attribute spelling of a
// privilege level, falling back to PrivilegeNone for anything unrecognized.
func ParsePrivilege(s string) Privilege {
	switch s {
	case "certified":
		return PrivilegeCertified
	case "manufacturer":
		return PrivilegeManufacturer
	case "system":
		return PrivilegeSystem
	case "unlimited":
		return PrivilegeUnlimited
	default:
		return PrivilegeNone
	}
}

// Requisite is a bitmask of vehicle states an application declares.
type Requisite uint32

const (
	RequisiteDriving Requisite = 1 << iota
	RequisiteParked
	RequisiteReverses
	RequisiteBlinkerLeft
	RequisiteBlinkerRight
)

// Covers reports whether r (a resource's declared requisite mask) satisfies
// every bit set in query — the predicate used by the REQUISITE disable type.
func (r Requisite) Covers(query Requisite) bool {
	return r&query == query
}

// ZoneID identifies an output zone.
type ZoneID int

// Zone is a coarse partitioning axis; it holds no mutable state of its own
// in the core, only identity.
type Zone struct {
	ID   ZoneID
	Name string
}

// AreaID identifies an area within the registry-wide area table.
type AreaID uint32

// Area is a rectangular region of one output belonging to exactly one zone.
type Area struct {
	ID        AreaID
	Name      string
	Output    string
	Zone      ZoneID
	X, Y      int32
	W, H      int32
	KeepRatio bool
	Align     Align

	// Resources currently assigned to this area, ordered head-to-tail by
	// descending composite key.
	Resources []ScreenHandle

	// Zorder is the area-scoped top-of-stack counter screen resources
	// consume when raised.
	Zorder uint32

	// Overlap holds the ids of other areas whose rectangle intersects
	// this one's.
	Overlap map[AreaID]struct{}
}

func (a *Area) FullName() string {
	return fmt.Sprintf("%s.%s", a.Output, a.Name)
}

// Align is a bitfield of horizontal/vertical anchor flags.
type Align uint8

const (
	AlignLeft Align = 1 << iota
	AlignRight
	AlignTop
	AlignBottom
	AlignHCenter
	AlignVCenter
)

// AppID is an application's wire identity, e.g. "com.example.navigation".
type AppID string

// WindowBinding maps a window name the application may open to the area it
// should default into.
type WindowBinding struct {
	WindowName string
	AreaName   string
}

// Application is consulted by the arbiters but never mutated by them —
// only the external application-update path (config load/reload) writes it.
type Application struct {
	AppID           AppID
	DefaultArea     AreaID // AnyArea if unresolved
	DefaultAreaName string
	ResourceClass   string
	ScreenPriority  int

	ScreenPrivilege Privilege
	AudioPrivilege  Privilege

	ScreenRequisite Requisite
	AudioRequisite  Requisite

	Bindings []WindowBinding
}

// ScreenHandle is the engine-internal handle for a tracked surface.
type ScreenHandle uint32

// AudioHandle is the engine-internal handle for a tracked audio stream.
type AudioHandle uint32

// AudioID is a monotonic engine-assigned id distinct from the handle,
// surfaced to the notifier/event payload.
type AudioID uint32

// Screen is one tracked surface.
type Screen struct {
	Handle    ScreenHandle
	SurfaceID int32
	ZoneID    ZoneID
	OutputID  uint32
	AreaID    AreaID // AnyArea until resolved
	AreaName  string // recorded even when unresolved, for area-creation backfill

	AppID   AppID
	Key     uint32
	Acquire bool
	Grant   bool
	GrantID uint32

	Requisite Requisite
	Disable   DisableMask
}

// Audio is one tracked audio stream.
type Audio struct {
	Handle  AudioHandle
	AudioID AudioID
	ZoneID  ZoneID

	AppID     AppID
	Key       uint32
	Acquire   bool
	Share     bool
	Interrupt bool
	ClassPri  int
	Priority  int
	Grant     bool
	GrantID   uint32

	Requisite Requisite
	Disable   DisableMask
}

// DisableMask is the per-resource overlay bitmask (internal/overlay owns
// the semantics; the field lives here because it participates in grant
// decisions made by the arbiters).
type DisableMask uint8

const (
	DisableRequisite DisableMask = 1 << iota
	DisableAppID
	DisableSurfaceID
)

func (m DisableMask) Any() bool { return m != 0 }
