// SPDX-License-Identifier: MIT

// Package engine is the single-threaded arbitration core. Every exported
// method sends a closure onto an unbuffered
// channel consumed by one goroutine (Run); the registry, arbiters,
// notifier and overlay are only ever touched from inside that goroutine,
// so none of them need locking. Methods block until their closure has run
// and return whatever error it produced — callers see ordinary
// synchronous calls; the actor indirection only exists to serialize
// concurrent callers.
package engine

import (
	"context"
	"fmt"

	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/admission"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/arbiter/audio"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/arbiter/screen"
	controladmission "github.com/tizenorg/profile.ivi.murphy-sub000/internal/control/admission"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/framework"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/metrics"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/notifier"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/overlay"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/resource"
)

// ErrAdmissionRejected wraps the admission monitor's AdmissionReason so
// callers (and the admin API) can distinguish "no room for this surface"
// from an ordinary lookup-miss/validation failure.
type ErrAdmissionRejected struct {
	Reason admission.AdmissionReason
}

func (e *ErrAdmissionRejected) Error() string {
	return fmt.Sprintf("engine: admission rejected: %s", e.Reason)
}

// Family selects which arbiter a call addresses.
type Family = notifier.Family

const (
	FamilyScreen = notifier.FamilyScreen
	FamilyAudio  = notifier.FamilyAudio
)

type job func(s *state) error

// state is the set of mutable components a job may touch. It is never
// shared outside Run's goroutine.
type state struct {
	reg       *resource.Registry
	notif     *notifier.Notifier
	ovl       *overlay.Overlay
	screen    *screen.Arbiter
	audio     *audio.Arbiter
	admission *admission.ResourceMonitor
	capacity  controladmission.CapacityController
}

// Engine is the actor front-end: a channel of jobs plus the handful of
// components the jobs close over.
type Engine struct {
	jobs  chan job
	state *state
}

// New builds an Engine. Call Run in its own goroutine before issuing any
// method calls.
func New() *Engine {
	reg := resource.NewRegistry()
	notif := notifier.New()
	ovl := overlay.New()
	return &Engine{
		jobs: make(chan job),
		state: &state{
			reg:    reg,
			notif:  notif,
			ovl:    ovl,
			screen: screen.New(reg, notif, ovl),
			audio:  audio.New(reg, notif, ovl),
		},
	}
}

// SetAdmissionMonitor wires a shared admission.ResourceMonitor into the
// engine's screen Create path. It must be called before Run starts
// consuming jobs; a nil monitor (the default) disables admission gating
// entirely, admitting every Create call the arbiters themselves accept.
func (e *Engine) SetAdmissionMonitor(m *admission.ResourceMonitor) {
	e.state.admission = m
}

// SetCapacityController wires a CapacityController into the engine's Create
// path for both families. It must be called before Run starts consuming
// jobs; a nil controller (the default) disables capacity gating entirely,
// admitting every Create call the arbiters themselves accept.
func (e *Engine) SetCapacityController(c controladmission.CapacityController) {
	e.state.capacity = c
}

// Run drains jobs until ctx is cancelled. It must run in exactly one
// goroutine for the lifetime of the Engine.
func (e *Engine) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-e.jobs:
			_ = j(e.state)
		}
	}
}

func (e *Engine) call(ctx context.Context, j job) error {
	errCh := make(chan error, 1)
	wrapped := func(s *state) error {
		err := j(s)
		errCh <- err
		return err
	}
	select {
	case e.jobs <- wrapped:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RegisterSink installs a notifier sink. Safe to call before Run starts;
// harmless, if racy in spirit, to call after — sinks are only appended,
// never removed, and the underlying slice append happens on the actor
// goroutine via a job.
func (e *Engine) RegisterSink(ctx context.Context, sink notifier.Sink) error {
	return e.call(ctx, func(s *state) error {
		s.notif.RegisterSink(sink)
		return nil
	})
}

// DeclareZone registers a zone, idempotently.
func (e *Engine) DeclareZone(ctx context.Context, id resource.ZoneID, name string) error {
	return e.call(ctx, func(s *state) error {
		s.reg.DeclareZone(id, name)
		return nil
	})
}

// CreateArea registers a new area and backfills any screen resources
// already waiting on its name.
func (e *Engine) CreateArea(ctx context.Context, zone resource.ZoneID, name, output string, x, y, w, h int32) (resource.AreaID, error) {
	var id resource.AreaID
	err := e.call(ctx, func(s *state) error {
		area := s.reg.CreateArea(zone, name, output, x, y, w, h)
		s.reg.RecomputeOverlaps()
		s.screen.BackfillArea(area)
		id = area.ID
		return nil
	})
	return id, err
}

// PutApplication installs or updates an application descriptor.
func (e *Engine) PutApplication(ctx context.Context, app *resource.Application) error {
	return e.call(ctx, func(s *state) error {
		s.reg.PutApplication(app)
		return nil
	})
}

// Create handles a creation notification: a new
// resource of family appears, carrying its zone, owning application and
// declared attributes. Returns an opaque handle as a uint32 — the actual
// resource.ScreenHandle/resource.AudioHandle, caller-interpreted by family.
func (e *Engine) Create(ctx context.Context, family Family, zone resource.ZoneID, appid resource.AppID, surfaceID int32, areaName string, attrs *framework.AttrSet) (uint32, error) {
	var handle uint32
	err := e.call(ctx, func(s *state) error {
		if s.capacity != nil {
			_, declared := s.reg.Zone(zone)
			req := controladmission.Request{Zone: zone, Family: family}
			rt := controladmission.RuntimeState{
				ZoneDeclared:    declared,
				ResourcesActive: countResourcesInZone(s.reg, family, zone),
			}
			if d := s.capacity.Check(ctx, req, rt); !d.Allow {
				return d.Problem
			}
		}
		switch family {
		case FamilyScreen:
			if s.admission != nil {
				tier := admissionTierFor(s.reg, appid)
				if ok, reason := s.admission.CanAdmit(ctx, tier); !ok {
					metrics.IncAdmissionRejected(string(reason))
					return &ErrAdmissionRejected{Reason: reason}
				}
			}
			h := s.screen.Create(zone, appid, surfaceID, areaName, attrs)
			handle = uint32(h)
			if s.admission != nil {
				tier := admissionTierFor(s.reg, appid)
				s.admission.TrackSessionStart(tier, admissionSessionID(family, handle))
			}
		case FamilyAudio:
			handle = uint32(s.audio.Create(zone, appid, attrs))
		default:
			return fmt.Errorf("engine: unknown family %v", family)
		}
		return nil
	})
	return handle, err
}

// Destroy handles a destruction notification: a resource disappears.
func (e *Engine) Destroy(ctx context.Context, family Family, handle uint32) error {
	return e.call(ctx, func(s *state) error {
		switch family {
		case FamilyScreen:
			if s.admission != nil {
				if scr, ok := s.reg.Screen(resource.ScreenHandle(handle)); ok {
					tier := admissionTierFor(s.reg, scr.AppID)
					s.admission.TrackSessionEnd(tier, admissionSessionID(family, handle))
				}
			}
			s.screen.Destroy(resource.ScreenHandle(handle))
		case FamilyAudio:
			s.audio.Destroy(resource.AudioHandle(handle))
		default:
			return fmt.Errorf("engine: unknown family %v", family)
		}
		return nil
	})
}

// admissionTierFor resolves appid's configured screen privilege to an
// admission.Tier, defaulting to the lowest (most preemptible) tier for an
// application the directory doesn't know about.
func admissionTierFor(reg *resource.Registry, appid resource.AppID) admission.Tier {
	app, ok := reg.ResolveApplication(appid)
	if !ok {
		return admission.TierCertified
	}
	return admission.TierFromPrivilege(app.ScreenPrivilege)
}

// admissionSessionID gives the admission monitor a stable identity for a
// tracked surface without exposing engine handles outside this package.
func admissionSessionID(family Family, handle uint32) string {
	return fmt.Sprintf("%s:%d", family.String(), handle)
}

// countResourcesInZone reports how many resources of family currently exist
// in zone, the live ResourcesActive figure the capacity controller checks
// against its configured per-zone limit.
func countResourcesInZone(reg *resource.Registry, family Family, zone resource.ZoneID) int {
	n := 0
	switch family {
	case FamilyScreen:
		for _, scr := range reg.Screens() {
			if scr.ZoneID == zone {
				n++
			}
		}
	case FamilyAudio:
		for _, aud := range reg.Audios() {
			if aud.ZoneID == zone {
				n++
			}
		}
	}
	return n
}

// Acquire handles an acquire-state notification: the owning application changes whether
// it wants this resource shown/sounded. For audio, share and interrupt
// carry additional meaning; for screen they are ignored.
func (e *Engine) Acquire(ctx context.Context, family Family, handle uint32, acquire, share, interrupt bool) error {
	return e.call(ctx, func(s *state) error {
		switch family {
		case FamilyScreen:
			s.screen.SetAcquire(resource.ScreenHandle(handle), acquire)
		case FamilyAudio:
			return s.audio.SetState(resource.AudioHandle(handle), acquire, share, interrupt)
		default:
			return fmt.Errorf("engine: unknown family %v", family)
		}
		return nil
	})
}

// Raise is screen-only: move a surface to the top of
// its area's stack.
func (e *Engine) Raise(ctx context.Context, handle uint32) error {
	return e.call(ctx, func(s *state) error {
		return s.screen.Raise(resource.ScreenHandle(handle))
	})
}

// Lower is screen-only: move a surface to the bottom
// of its area's stack.
func (e *Engine) Lower(ctx context.Context, handle uint32) error {
	return e.call(ctx, func(s *state) error {
		return s.screen.Lower(resource.ScreenHandle(handle))
	})
}

// Init is the init callback: it selects zone's grant
// candidates for both families and assigns them the zone's next grantid
// generation, queuing a PREALLOCATE event per candidate plus one INIT
// marker event for the zone. It does not grant or revoke anything — a
// following Commit call does that, off the grantid Init just assigned.
func (e *Engine) Init(ctx context.Context, zone resource.ZoneID) error {
	return e.call(ctx, func(s *state) error {
		s.notif.Queue(notifier.Event{Family: FamilyScreen, EventID: notifier.EventInit, ZoneID: zone})
		s.screen.Init(zone)
		s.audio.Init(zone)
		return nil
	})
}

// Commit is the commit callback: queue a Grant/Revoke event for every
// resource in zone whose grantid disagrees with its stored Grant flag —
// off the grantid the most recent Init assigned — for both families, and
// flush the resulting events to installed sinks. The regrant passes of
// RaiseByAppID, LowerByAppID and Disable flush the zones they touch the
// same way; no other call flushes.
func (e *Engine) Commit(ctx context.Context, zone resource.ZoneID) error {
	return e.call(ctx, func(s *state) error {
		s.screen.Commit(zone)
		s.audio.Commit(zone)
		s.notif.Queue(notifier.Event{Family: FamilyScreen, EventID: notifier.EventCommit, ZoneID: zone})
		s.notif.Flush(zone, notifier.FamilyAll)
		return nil
	})
}

// Allocate is the external framework's point-in-time grant query: does
// handle currently hold its zone's grantid, as assigned by the most
// recent Init?
func (e *Engine) Allocate(ctx context.Context, family Family, handle uint32) (bool, error) {
	var ok bool
	err := e.call(ctx, func(s *state) error {
		var err error
		switch family {
		case FamilyScreen:
			ok, err = s.screen.Allocate(resource.ScreenHandle(handle))
		case FamilyAudio:
			ok, err = s.audio.Allocate(resource.AudioHandle(handle))
		default:
			return fmt.Errorf("engine: unknown family %v", family)
		}
		return err
	})
	return ok, err
}

// Free clears handle's assigned grantid.
func (e *Engine) Free(ctx context.Context, family Family, handle uint32) error {
	return e.call(ctx, func(s *state) error {
		switch family {
		case FamilyScreen:
			return s.screen.Free(resource.ScreenHandle(handle))
		case FamilyAudio:
			return s.audio.Free(resource.AudioHandle(handle))
		default:
			return fmt.Errorf("engine: unknown family %v", family)
		}
	})
}

// Advice is the external framework's advisory hook: it never blocks a
// resource operation, only observes it, so it always answers true. It is
// still routed through the actor so a caller's view of "advice for handle"
// is serialized with every other job touching that resource.
func (e *Engine) Advice(ctx context.Context, family Family, handle uint32) (bool, error) {
	err := e.call(ctx, func(s *state) error {
		switch family {
		case FamilyScreen:
			if _, ok := s.reg.Screen(resource.ScreenHandle(handle)); !ok {
				return fmt.Errorf("engine: unknown screen handle %d", handle)
			}
		case FamilyAudio:
			if _, ok := s.reg.Audio(resource.AudioHandle(handle)); !ok {
				return fmt.Errorf("engine: unknown audio handle %d", handle)
			}
		default:
			return fmt.Errorf("engine: unknown family %v", family)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// RaiseByAppID raises every screen resource owned by appid to the top of
// its area, or — when surfaceID is non-zero — the single resource
// registered under surfaceID once its appid is checked. Only the zones
// actually touched are reinitialized and recommitted.
func (e *Engine) RaiseByAppID(ctx context.Context, appid resource.AppID, surfaceID int32) error {
	return e.call(ctx, func(s *state) error {
		zones := s.screen.RaiseByAppID(appid, surfaceID)
		for _, z := range zones {
			s.screen.Init(z)
			s.audio.Init(z)
			s.screen.Commit(z)
			s.audio.Commit(z)
			s.notif.Flush(z, notifier.FamilyAll)
		}
		return nil
	})
}

// LowerByAppID is RaiseByAppID's symmetric counterpart.
func (e *Engine) LowerByAppID(ctx context.Context, appid resource.AppID, surfaceID int32) error {
	return e.call(ctx, func(s *state) error {
		zones := s.screen.LowerByAppID(appid, surfaceID)
		for _, z := range zones {
			s.screen.Init(z)
			s.audio.Init(z)
			s.screen.Commit(z)
			s.audio.Commit(z)
			s.notif.Flush(z, notifier.FamilyAll)
		}
		return nil
	})
}

// Disable installs a new screen/audio overlay rule set and, if it changed
// any resource's disable mask, recommits every affected zone so the grant
// reflects the new rules immediately. It returns the number of resources
// whose disable mask changed, mirroring the external disable() API's
// `→ int` result. On failure (a family other than screen or audio, or a
// cancelled context) it returns -1 together with the error.
func (e *Engine) Disable(ctx context.Context, family Family, rules []overlay.Rule) (int, error) {
	var touched int
	err := e.call(ctx, func(s *state) error {
		zones := map[resource.ZoneID]struct{}{}
		switch family {
		case FamilyScreen:
			s.ovl.InstallScreen(rules)
			scrs := overlay.ApplyAllScreens(s.ovl, s.reg)
			touched = len(scrs)
			for _, scr := range scrs {
				zones[scr.ZoneID] = struct{}{}
				metrics.IncDisableTouched(family.String(), overlayDisableMaskLabel(scr.Disable), 1)
			}
		case FamilyAudio:
			s.ovl.InstallAudio(rules)
			auds := overlay.ApplyAllAudios(s.ovl, s.reg)
			touched = len(auds)
			for _, aud := range auds {
				zones[aud.ZoneID] = struct{}{}
				metrics.IncDisableTouched(family.String(), overlayDisableMaskLabel(aud.Disable), 1)
			}
		default:
			return fmt.Errorf("engine: unknown family %v", family)
		}
		for z := range zones {
			s.screen.Init(z)
			s.audio.Init(z)
			s.screen.Commit(z)
			s.audio.Commit(z)
			s.notif.Flush(z, notifier.FamilyAll)
		}
		return nil
	})
	if err != nil {
		return -1, err
	}
	return touched, nil
}

// overlayDisableMaskLabel turns a resource's post-apply DisableMask into the
// "type" label for arbiter_disable_touched_total. A resource can match more
// than one rule kind at once; "mixed" covers that case rather than picking
// one kind arbitrarily.
func overlayDisableMaskLabel(m resource.DisableMask) string {
	switch {
	case m == 0:
		return "none"
	case m == resource.DisableRequisite:
		return "requisite"
	case m == resource.DisableAppID:
		return "appid"
	case m == resource.DisableSurfaceID:
		return "surfaceid"
	default:
		return "mixed"
	}
}

// Snapshot describes the result of a read-only zone query, as returned to
// admin API GET endpoints.
type Snapshot struct {
	Screens []resource.Screen
	Audios  []resource.Audio
}

// Query returns the current state of every resource in zone, for
// diagnostics and the admin API. It never mutates anything.
func (e *Engine) Query(ctx context.Context, zone resource.ZoneID) (Snapshot, error) {
	var snap Snapshot
	err := e.call(ctx, func(s *state) error {
		for _, scr := range s.reg.Screens() {
			if scr.ZoneID == zone {
				snap.Screens = append(snap.Screens, *scr)
			}
		}
		for _, aud := range s.reg.Audios() {
			if aud.ZoneID == zone {
				snap.Audios = append(snap.Audios, *aud)
			}
		}
		return nil
	})
	return snap, err
}
