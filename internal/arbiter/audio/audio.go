// SPDX-License-Identifier: MIT

// Package audio implements the audio resource arbiter: a flat, per-zone
// stack (no areas) ordered by a composite
// priority/class-priority/acquire/share/interrupt key, where more than one
// resource can hold a grant simultaneously if every winning resource up to
// that point declares itself shared.
package audio

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

// Arbiter owns the grant policy for audio resources.
type Arbiter struct {
	reg   *resource.Registry
	notif *notifier.Notifier
	ovl   *overlay.Overlay

	// zones holds each zone's resources sorted descending by key, same
	// convention as the screen arbiter's per-area lists: index 0 is the
	// highest-ranked (most likely to win) resource.
	zones map[resource.ZoneID][]resource.AudioHandle

	grantSeq map[resource.ZoneID]uint32
}

func New(reg *resource.Registry, notif *notifier.Notifier, ovl *overlay.Overlay) *Arbiter {
	return &Arbiter{
		reg:      reg,
		notif:    notif,
		ovl:      ovl,
		zones:    make(map[resource.ZoneID][]resource.AudioHandle),
		grantSeq: make(map[resource.ZoneID]uint32),
	}
}

// Create registers a new audio stream and inserts it into its zone's
// ranked list at creation priority (acquire/share/interrupt all false
// until the caller calls SetState, then Init and Commit for the zone).
func (a *Arbiter) Create(zone resource.ZoneID, appid resource.AppID, attrs *framework.AttrSet) resource.AudioHandle {
	app, _ := a.reg.ResolveApplication(appid)

	priority := 0
	classPri := 0
	requisite := resource.Requisite(0)
	if app != nil {
		priority = app.ScreenPriority
		requisite = app.AudioRequisite
	}
	if v, ok := attrs.Int("priority"); ok {
		priority = v
	}
	if v, ok := attrs.Int("classpri"); ok {
		classPri = v
	}

	h := a.reg.NewAudioHandle()
	aud := &resource.Audio{
		Handle:    h,
		AudioID:   a.reg.NewAudioID(),
		ZoneID:    zone,
		AppID:     appid,
		ClassPri:  classPri,
		Priority:  priority,
		Requisite: requisite,
	}
	aud.Key = resource.AudioKey(aud.Priority, aud.ClassPri, false, false, false)
	overlay.ApplyAudio(a.ovl, aud)
	a.reg.PutAudio(aud)
	a.insert(zone, aud)

	a.notif.Queue(notifier.Event{
		Family: notifier.FamilyAudio, EventID: notifier.EventCreate,
		ZoneID: zone, AppID: appid, AudioID: aud.AudioID,
	})
	return h
}

// Destroy removes an audio stream from its zone's ranked list.
func (a *Arbiter) Destroy(h resource.AudioHandle) {
	aud, ok := a.reg.Audio(h)
	if !ok {
		return
	}
	a.remove(aud.ZoneID, h)
	a.reg.DeleteAudio(h)
	a.notif.Queue(notifier.Event{
		Family: notifier.FamilyAudio, EventID: notifier.EventDestroy,
		ZoneID: aud.ZoneID, AppID: aud.AppID, AudioID: aud.AudioID,
	})
}

// SetState updates the three grant-relevant flags and re-keys/repositions
// the stream within its zone's ranked list. The change takes effect on
// the grant only after the zone's next Init and Commit.
func (a *Arbiter) SetState(h resource.AudioHandle, acquire, share, interrupt bool) error {
	aud, ok := a.reg.Audio(h)
	if !ok {
		return fmt.Errorf("audio: unknown handle %d", h)
	}
	aud.Acquire, aud.Share, aud.Interrupt = acquire, share, interrupt
	aud.Key = resource.AudioKey(aud.Priority, aud.ClassPri, acquire, share, interrupt)
	a.remove(aud.ZoneID, h)
	a.insert(aud.ZoneID, aud)
	return nil
}

func (a *Arbiter) insert(zone resource.ZoneID, aud *resource.Audio) {
	list := a.zones[zone]
	idx := resource.InsertDescending(len(list), func(i int) uint32 {
		other, _ := a.reg.Audio(list[i])
		return other.Key
	}, aud.Key)
	list = append(list, 0)
	copy(list[idx+1:], list[idx:])
	list[idx] = aud.Handle
	a.zones[zone] = list
}

func (a *Arbiter) remove(zone resource.ZoneID, h resource.AudioHandle) {
	list := a.zones[zone]
	for i, x := range list {
		if x == h {
			a.zones[zone] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// Init selects zone's grant candidates: scanning the ranked list from the
// top, the first acquire-and-not-disabled resource is selected, and the
// scan continues to the next resource only if the one just selected
// declared itself Share — a non-shared selection stops the scan. Each
// selected resource is assigned the zone's next grantid generation and
// gets a PREALLOCATE event queued for it. Init does not touch the Grant
// flag or queue GRANT/REVOKE — Commit does that, off the grantid Init
// just assigned.
func (a *Arbiter) Init(zone resource.ZoneID) {
	a.grantSeq[zone]++
	gen := a.grantSeq[zone]

	for _, h := range a.zones[zone] {
		aud, ok := a.reg.Audio(h)
		if !ok {
			continue
		}
		if !aud.Acquire || aud.Disable.Any() {
			continue
		}
		aud.GrantID = gen
		a.notif.Queue(notifier.Event{
			Family: notifier.FamilyAudio, EventID: notifier.EventPreallocate,
			ZoneID: zone, AppID: aud.AppID, AudioID: aud.AudioID,
		})
		if !aud.Share {
			break
		}
	}
}

// Commit queues a Grant/Revoke event for every resource in zone whose
// Grant flag disagrees with grantid == the zone's current generation (set
// by the most recent Init), then updates the stored Grant flag, zeroing
// GrantID on revoke (unlike screen, which leaves it intact).
func (a *Arbiter) Commit(zone resource.ZoneID) {
	start := time.Now()
	defer metrics.ObserveCommitDuration(strconv.Itoa(int(zone)), "audio", start)

	gen := a.grantSeq[zone]

	for _, h := range a.zones[zone] {
		aud, ok := a.reg.Audio(h)
		if !ok {
			continue
		}
		win := aud.GrantID == gen
		switch {
		case win && !aud.Grant:
			aud.Grant = true
			a.notif.Queue(notifier.Event{
				Family: notifier.FamilyAudio, EventID: notifier.EventGrant,
				ZoneID: zone, AppID: aud.AppID, AudioID: aud.AudioID,
			})
			metrics.IncGrant(strconv.Itoa(int(zone)), "audio")
		case !win && aud.Grant:
			aud.Grant = false
			// Audio zeroes GrantID on revoke, unlike screen.
			aud.GrantID = 0
			a.notif.Queue(notifier.Event{
				Family: notifier.FamilyAudio, EventID: notifier.EventRevoke,
				ZoneID: zone, AppID: aud.AppID, AudioID: aud.AudioID,
			})
			metrics.IncRevoke(strconv.Itoa(int(zone)), "audio")
		}
	}
}

// Allocate answers the external framework's point-in-time query: does h
// currently hold its zone's grantid, as assigned by the most recent Init?
func (a *Arbiter) Allocate(h resource.AudioHandle) (bool, error) {
	aud, ok := a.reg.Audio(h)
	if !ok {
		return false, fmt.Errorf("audio: unknown handle %d", h)
	}
	return aud.GrantID != 0 && aud.GrantID == a.grantSeq[aud.ZoneID], nil
}

// Free clears h's assigned grantid.
func (a *Arbiter) Free(h resource.AudioHandle) error {
	aud, ok := a.reg.Audio(h)
	if !ok {
		return fmt.Errorf("audio: unknown handle %d", h)
	}
	aud.GrantID = 0
	return nil
}
