// SPDX-License-Identifier: MIT

// Package notifier implements the per-zone event queue: a FIFO of
// pending resource events per zone, flushed to an
// installed sink on commit. It is family-agnostic (screen and audio share
// the same queue, keyed by zone) and tolerant of re-entrance — a sink
// invoked during flush may itself queue further events; flush iterates a
// snapshot of the head so that is safe.
package notifier

import (
	"strconv"

	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/metrics"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/resource"
)

// Family identifies which arbiter an event belongs to.
type Family int

const (
	FamilyScreen Family = iota
	FamilyAudio
	// FamilyAll is only valid as a flush/remove-last selector, never as
	// an event's own family.
	FamilyAll
)

func (f Family) String() string {
	switch f {
	case FamilyScreen:
		return "screen"
	case FamilyAudio:
		return "audio"
	case FamilyAll:
		return "all"
	default:
		return "unknown"
	}
}

// ParseFamily parses the String() form of a Family back into its value.
func ParseFamily(s string) (Family, bool) {
	switch s {
	case "screen":
		return FamilyScreen, true
	case "audio":
		return FamilyAudio, true
	case "all":
		return FamilyAll, true
	default:
		return 0, false
	}
}

// EventID enumerates the notifier event kinds.
type EventID int

const (
	EventCreate EventID = iota + 1
	EventDestroy
	EventInit
	EventPreallocate
	EventGrant
	EventRevoke
	EventCommit
)

func (e EventID) String() string {
	switch e {
	case EventCreate:
		return "create"
	case EventDestroy:
		return "destroy"
	case EventInit:
		return "init"
	case EventPreallocate:
		return "preallocate"
	case EventGrant:
		return "grant"
	case EventRevoke:
		return "revoke"
	case EventCommit:
		return "commit"
	default:
		return "unknown"
	}
}

// Event is a single queued notification. Fields not relevant to Family are
// left zero.
type Event struct {
	Family   Family
	EventID  EventID
	ZoneID   resource.ZoneID
	ZoneName string
	AppID    resource.AppID

	// Screen payload.
	SurfaceID int32
	LayerID   int32
	AreaName  string

	// Audio payload.
	AudioID resource.AudioID
}

// Sink receives one flushed event at a time. It must not block for long —
// the notifier is invoked from the single engine event-loop goroutine —
// and its errors are never surfaced to the engine; a Sink that can fail
// should retry or drop internally.
type Sink func(Event)

// EventMax bounds RemoveLast's scan, a safety cap rather than a semantic
// contract.
const EventMax = 64

type zoneQueue struct {
	events []Event
	counts [2]int // indexed by Family (screen=0, audio=1)
}

// Notifier is the per-zone FIFO event queue plus fan-out sink.
type Notifier struct {
	zones map[resource.ZoneID]*zoneQueue
	sinks []Sink
}

func New() *Notifier {
	return &Notifier{zones: make(map[resource.ZoneID]*zoneQueue)}
}

func (n *Notifier) zone(z resource.ZoneID) *zoneQueue {
	zq, ok := n.zones[z]
	if !ok {
		zq = &zoneQueue{}
		n.zones[z] = zq
	}
	return zq
}

// RegisterSink installs one or more sinks, appended to any already
// installed. Registering zero sinks means queued events are discarded on
// flush — flush still runs and drains the queue.
func (n *Notifier) RegisterSink(sinks ...Sink) {
	n.sinks = append(n.sinks, sinks...)
}

// Queue appends an event to its zone's FIFO and bumps that family's
// pending counter.
func (n *Notifier) Queue(ev Event) {
	zq := n.zone(ev.ZoneID)
	zq.events = append(zq.events, ev)
	zq.counts[familyIndex(ev.Family)]++

	zone := strconv.Itoa(int(ev.ZoneID))
	metrics.IncNotifierEvent(zone, ev.Family.String(), ev.EventID.String())
	metrics.SetNotifierQueueDepth(zone, ev.Family.String(), zq.counts[familyIndex(ev.Family)])
}

// RemoveLast walks forward from the head of zone's queue, up to EventMax
// entries, looking for the first entry of family and removes it — used to
// coalesce a redundant event with one still pending ahead of it in the
// queue (e.g. a destroy cancelling out a not-yet-flushed create). The
// EventMax bound is a safety cap on the scan, not a semantic contract:
// beyond it the event is left queued. Returns false if no
// matching entry was found within the cap.
func (n *Notifier) RemoveLast(zone resource.ZoneID, family Family) bool {
	zq := n.zone(zone)
	limit := len(zq.events)
	if limit > EventMax {
		limit = EventMax
	}
	for i := 0; i < limit; i++ {
		if zq.events[i].Family == family {
			zq.events = append(zq.events[:i], zq.events[i+1:]...)
			zq.counts[familyIndex(family)]--
			metrics.IncNotifierDropped(strconv.Itoa(int(zone)), family.String(), "coalesced")
			return true
		}
	}
	return false
}

// Pending returns the number of queued-but-unflushed events of family in
// zone (a metrics hook).
func (n *Notifier) Pending(zone resource.ZoneID, family Family) int {
	zq, ok := n.zones[zone]
	if !ok {
		return 0
	}
	if family == FamilyAll {
		return zq.counts[0] + zq.counts[1]
	}
	return zq.counts[familyIndex(family)]
}

// Flush drains entries of family (or every family, for FamilyAll) from
// zone's queue in FIFO order, invoking every installed sink once per
// entry, then frees them. Re-entrant: the drained slice is copied out
// before any sink runs, so a sink that calls back into Queue during flush
// cannot corrupt the iteration or cause an infinite loop.
func (n *Notifier) Flush(zone resource.ZoneID, family Family) {
	zq, ok := n.zones[zone]
	if !ok {
		return
	}

	var drained []Event
	var kept []Event
	for _, ev := range zq.events {
		if family == FamilyAll || ev.Family == family {
			drained = append(drained, ev)
		} else {
			kept = append(kept, ev)
		}
	}
	zq.events = kept
	if family == FamilyAll {
		zq.counts[0] = 0
		zq.counts[1] = 0
	} else {
		zq.counts[familyIndex(family)] = 0
	}

	sinks := n.sinks
	for _, ev := range drained {
		for _, s := range sinks {
			s(ev)
		}
	}

	zoneStr := strconv.Itoa(int(zone))
	if family == FamilyAll {
		metrics.SetNotifierQueueDepth(zoneStr, FamilyScreen.String(), 0)
		metrics.SetNotifierQueueDepth(zoneStr, FamilyAudio.String(), 0)
	} else {
		metrics.SetNotifierQueueDepth(zoneStr, family.String(), 0)
	}
}

func familyIndex(f Family) int {
	if f == FamilyAudio {
		return 1
	}
	return 0
}
