// SPDX-License-Identifier: MIT

// Package screen implements the screen resource arbiter: per-area
// exclusive ownership of surfaces, ordered by a composite
// priority/class-priority/zorder key, with raise/lower moving a surface to
// the top or bottom of its area's stack.
//
// An area's Resources list (internal/resource) is kept sorted strictly
// descending by key: index 0 is the top of the z-order stack, the last
// index is the bottom. Raising a surface computes a new zorder value that
// dominates every existing key in the area (the zorder subfield occupies
// the key's highest bits) and reinserts it, which places it at index 0.
package screen

import (
	"fmt"
	"strconv"
	"time"

	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/framework"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/metrics"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/notifier"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/overlay"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/resource"
)

// Arbiter owns the grant policy for screen resources. It is driven
// exclusively from the engine's single event-loop goroutine.
type Arbiter struct {
	reg   *resource.Registry
	notif *notifier.Notifier
	ovl   *overlay.Overlay

	grantSeq map[resource.ZoneID]uint32
}

func New(reg *resource.Registry, notif *notifier.Notifier, ovl *overlay.Overlay) *Arbiter {
	return &Arbiter{
		reg:      reg,
		notif:    notif,
		ovl:      ovl,
		grantSeq: make(map[resource.ZoneID]uint32),
	}
}

// Create registers a new surface. areaName may fail to resolve to an
// existing area (the area may not have been created yet); the resource is
// held with AreaID == resource.AnyArea and AreaName recorded for
// backfilling once BackfillArea runs. Key's zorder subfield starts at zero; Raise must
// be called to bring a freshly created surface to the top.
func (a *Arbiter) Create(zone resource.ZoneID, appid resource.AppID, surfaceID int32, areaName string, attrs *framework.AttrSet) resource.ScreenHandle {
	app, _ := a.reg.ResolveApplication(appid)

	priority := 0
	requisite := resource.Requisite(0)
	if app != nil {
		priority = app.ScreenPriority
		requisite = app.ScreenRequisite
	}
	if v, ok := attrs.Int("priority"); ok {
		priority = v
	}
	classPri := attrs.IntOr("classpri", 0)

	h := a.reg.NewScreenHandle()
	s := &resource.Screen{
		Handle:    h,
		SurfaceID: surfaceID,
		ZoneID:    zone,
		AreaID:    resource.AreaID(resource.AnyArea),
		AreaName:  areaName,
		AppID:     appid,
		Key:       resource.ScreenKey(priority, classPri, 0),
		Requisite: requisite,
	}
	overlay.ApplyScreen(a.ovl, s)
	a.reg.PutScreen(s)

	if area, ok := a.reg.AreaByFullName(areaName); ok {
		a.insertIntoArea(area, s)
	}

	a.notif.Queue(notifier.Event{
		Family: notifier.FamilyScreen, EventID: notifier.EventCreate,
		ZoneID: zone, AppID: appid, SurfaceID: surfaceID, AreaName: areaName, LayerID: -1,
	})
	return h
}

// Destroy removes a surface from its area's stack and the registry.
func (a *Arbiter) Destroy(h resource.ScreenHandle) {
	s, ok := a.reg.Screen(h)
	if !ok {
		return
	}
	a.removeFromArea(s)
	a.reg.DeleteScreen(h)
	a.notif.Queue(notifier.Event{
		Family: notifier.FamilyScreen, EventID: notifier.EventDestroy,
		ZoneID: s.ZoneID, AppID: s.AppID, SurfaceID: s.SurfaceID, AreaName: s.AreaName, LayerID: -1,
	})
}

// SetAcquire toggles whether a surface wants to be shown, without moving
// its position in the stack. The change takes effect on the grant only
// after the zone's next Init and Commit.
func (a *Arbiter) SetAcquire(h resource.ScreenHandle, acquire bool) {
	if s, ok := a.reg.Screen(h); ok {
		s.Acquire = acquire
	}
}

// Raise moves a surface to the top of its area's stack and sets Acquire.
// It consumes the area's zorder counter, rebasing it (per
// resource.RebaseZorders) if the 16-bit field would overflow.
func (a *Arbiter) Raise(h resource.ScreenHandle) error {
	s, ok := a.reg.Screen(h)
	if !ok {
		return fmt.Errorf("screen: unknown handle %d", h)
	}
	area, ok := a.reg.Area(s.AreaID)
	if !ok {
		return fmt.Errorf("screen: handle %d has no resolved area", h)
	}

	top := area.Zorder + 1
	if top >= resource.ZorderMax {
		top = a.rebase(area)
		metrics.IncZorderRebase(area.FullName())
	}
	area.Zorder = top

	s.Key = resource.ScreenKeyWithZorder(s.Key, top)
	s.Acquire = true
	a.reposition(area, s)
	return nil
}

// Lower moves a surface to the bottom of its area's stack (zorder
// subfield cleared) and clears Acquire.
func (a *Arbiter) Lower(h resource.ScreenHandle) error {
	s, ok := a.reg.Screen(h)
	if !ok {
		return fmt.Errorf("screen: unknown handle %d", h)
	}
	area, ok := a.reg.Area(s.AreaID)
	if !ok {
		return fmt.Errorf("screen: handle %d has no resolved area", h)
	}

	s.Key = resource.ScreenKeyWithZorder(s.Key, 0)
	s.Acquire = false
	a.reposition(area, s)
	return nil
}

func (a *Arbiter) rebase(area *resource.Area) uint32 {
	top := resource.RebaseZorders(
		len(area.Resources),
		func(i int) uint32 {
			s, _ := a.reg.Screen(area.Resources[i])
			return s.Key
		},
		func(i int, z uint32) {
			s, _ := a.reg.Screen(area.Resources[i])
			s.Key = resource.ScreenKeyWithZorder(s.Key, z)
		},
	)
	return top
}

func (a *Arbiter) insertIntoArea(area *resource.Area, s *resource.Screen) {
	s.AreaID = area.ID
	idx := resource.InsertDescending(len(area.Resources), func(i int) uint32 {
		other, _ := a.reg.Screen(area.Resources[i])
		return other.Key
	}, s.Key)
	area.Resources = append(area.Resources, 0)
	copy(area.Resources[idx+1:], area.Resources[idx:])
	area.Resources[idx] = s.Handle
}

func (a *Arbiter) removeFromArea(s *resource.Screen) {
	area, ok := a.reg.Area(s.AreaID)
	if !ok {
		return
	}
	for i, h := range area.Resources {
		if h == s.Handle {
			area.Resources = append(area.Resources[:i], area.Resources[i+1:]...)
			break
		}
	}
}

func (a *Arbiter) reposition(area *resource.Area, s *resource.Screen) {
	a.removeFromArea(s)
	a.insertIntoArea(area, s)
}

// BackfillArea resolves every AnyArea surface whose recorded AreaName
// matches a newly created area, inserting it into that area's stack. The
// engine calls this once after a config reload or an area declared late.
func (a *Arbiter) BackfillArea(area *resource.Area) {
	for _, s := range a.reg.Screens() {
		if s.AreaID == resource.AreaID(resource.AnyArea) && s.AreaName == area.FullName() {
			a.insertIntoArea(area, s)
		}
	}
}

// Init selects this zone's grant candidates: scanning each area's stack
// from the top, the first resource with Acquire set and no active disable
// mask is chosen, and the scan of that area stops there. Each candidate
// is assigned the zone's next grantid generation and gets a PREALLOCATE
// event queued for it. Init does not touch the Grant flag or queue
// GRANT/REVOKE — Commit does that, off the grantid Init just assigned.
func (a *Arbiter) Init(zone resource.ZoneID) {
	a.grantSeq[zone]++
	gen := a.grantSeq[zone]

	for _, area := range a.reg.AreasInZone(zone) {
		for _, h := range area.Resources {
			s, ok := a.reg.Screen(h)
			if !ok {
				continue
			}
			if s.Acquire && !s.Disable.Any() {
				s.GrantID = gen
				a.notif.Queue(notifier.Event{
					Family: notifier.FamilyScreen, EventID: notifier.EventPreallocate,
					ZoneID: zone, AppID: s.AppID, SurfaceID: s.SurfaceID, AreaName: s.AreaName, LayerID: -1,
				})
				break
			}
		}
	}
}

// Commit queues a Grant/Revoke event for every resource in zone whose
// Grant flag disagrees with grantid == the zone's current generation (set
// by the most recent Init), then updates the stored Grant flag.
func (a *Arbiter) Commit(zone resource.ZoneID) {
	start := time.Now()
	defer metrics.ObserveCommitDuration(strconv.Itoa(int(zone)), "screen", start)

	gen := a.grantSeq[zone]

	for _, s := range a.reg.Screens() {
		if s.ZoneID != zone {
			continue
		}
		win := s.GrantID == gen
		switch {
		case win && !s.Grant:
			s.Grant = true
			a.notif.Queue(notifier.Event{
				Family: notifier.FamilyScreen, EventID: notifier.EventGrant,
				ZoneID: zone, AppID: s.AppID, SurfaceID: s.SurfaceID, AreaName: s.AreaName, LayerID: -1,
			})
			metrics.IncGrant(strconv.Itoa(int(zone)), "screen")
		case !win && s.Grant:
			s.Grant = false
			// Screen's GrantID is left as-is on revoke, unlike audio,
			// which zeroes it; Free is the only explicit clear.
			a.notif.Queue(notifier.Event{
				Family: notifier.FamilyScreen, EventID: notifier.EventRevoke,
				ZoneID: zone, AppID: s.AppID, SurfaceID: s.SurfaceID, AreaName: s.AreaName, LayerID: -1,
			})
			metrics.IncRevoke(strconv.Itoa(int(zone)), "screen")
		}
	}
}

// Allocate answers the external framework's point-in-time query: does h
// currently hold its zone's grantid, as assigned by the most recent Init?
func (a *Arbiter) Allocate(h resource.ScreenHandle) (bool, error) {
	s, ok := a.reg.Screen(h)
	if !ok {
		return false, fmt.Errorf("screen: unknown handle %d", h)
	}
	return s.GrantID != 0 && s.GrantID == a.grantSeq[s.ZoneID], nil
}

// Free clears h's assigned grantid. This is the only place a screen
// resource's grantid is cleared outside of a new Init assigning it afresh
// — Commit's revoke path leaves it intact (see Commit's comment).
func (a *Arbiter) Free(h resource.ScreenHandle) error {
	s, ok := a.reg.Screen(h)
	if !ok {
		return fmt.Errorf("screen: unknown handle %d", h)
	}
	s.GrantID = 0
	return nil
}

// raiseOrLowerByAppID implements the shared shape of
// RaiseByAppID/LowerByAppID: with surfaceID == 0, op is applied to every
// resource owned by appid across every area; otherwise it is applied to
// the single resource registered under surfaceID, once its appid is
// checked. It returns the zones touched so the caller can recompute
// owners only for those zones. A surfaceID that doesn't resolve, or
// resolves to a different appid, is not an error — no events, no state
// change, same as raising a non-existent appid.
func (a *Arbiter) raiseOrLowerByAppID(appid resource.AppID, surfaceID int32, op func(resource.ScreenHandle) error) []resource.ZoneID {
	if surfaceID != 0 {
		s, ok := a.reg.ScreenBySurface(surfaceID)
		if !ok || s.AppID != appid {
			return nil
		}
		if err := op(s.Handle); err != nil {
			return nil
		}
		return []resource.ZoneID{s.ZoneID}
	}

	touched := make(map[resource.ZoneID]struct{})
	for _, s := range a.reg.Screens() {
		if s.AppID != appid {
			continue
		}
		if err := op(s.Handle); err != nil {
			continue
		}
		touched[s.ZoneID] = struct{}{}
	}
	zones := make([]resource.ZoneID, 0, len(touched))
	for z := range touched {
		zones = append(zones, z)
	}
	return zones
}

// RaiseByAppID raises every resource owned by appid to the top of its
// area (surfaceID == 0), or the single resource registered under
// surfaceID after checking it belongs to appid.
func (a *Arbiter) RaiseByAppID(appid resource.AppID, surfaceID int32) []resource.ZoneID {
	return a.raiseOrLowerByAppID(appid, surfaceID, a.Raise)
}

// LowerByAppID is RaiseByAppID's symmetric counterpart.
func (a *Arbiter) LowerByAppID(appid resource.AppID, surfaceID int32) []resource.ZoneID {
	return a.raiseOrLowerByAppID(appid, surfaceID, a.Lower)
}
