// SPDX-License-Identifier: MIT

package notifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueAndFlushFIFOOrder(t *testing.T) {
	n := New()
	var got []Event
	n.RegisterSink(func(ev Event) { got = append(got, ev) })

	n.Queue(Event{Family: FamilyScreen, EventID: EventCreate, ZoneID: 1, SurfaceID: 1})
	n.Queue(Event{Family: FamilyScreen, EventID: EventGrant, ZoneID: 1, SurfaceID: 1})
	n.Queue(Event{Family: FamilyAudio, EventID: EventCreate, ZoneID: 1})

	n.Flush(1, FamilyAll)

	require.Len(t, got, 3)
	assert.Equal(t, EventCreate, got[0].EventID)
	assert.Equal(t, EventGrant, got[1].EventID)
	assert.Equal(t, FamilyAudio, got[2].Family)
	assert.Equal(t, 0, n.Pending(1, FamilyAll))
}

func TestFlushDiscardsSilentlyWithoutSink(t *testing.T) {
	n := New()
	n.Queue(Event{Family: FamilyScreen, ZoneID: 1})
	assert.Equal(t, 1, n.Pending(1, FamilyScreen))
	n.Flush(1, FamilyScreen)
	assert.Equal(t, 0, n.Pending(1, FamilyScreen))
}

func TestFlushByFamilyLeavesOtherFamilyQueued(t *testing.T) {
	n := New()
	n.Queue(Event{Family: FamilyScreen, ZoneID: 1})
	n.Queue(Event{Family: FamilyAudio, ZoneID: 1})

	var got []Event
	n.RegisterSink(func(ev Event) { got = append(got, ev) })
	n.Flush(1, FamilyScreen)

	require.Len(t, got, 1)
	assert.Equal(t, FamilyScreen, got[0].Family)
	assert.Equal(t, 1, n.Pending(1, FamilyAudio))
}

func TestRemoveLastCoalescesFirstMatchingPendingEvent(t *testing.T) {
	n := New()
	n.Queue(Event{Family: FamilyScreen, EventID: EventCreate, ZoneID: 1, SurfaceID: 1})
	n.Queue(Event{Family: FamilyAudio, EventID: EventCreate, ZoneID: 1})
	n.Queue(Event{Family: FamilyScreen, EventID: EventGrant, ZoneID: 1, SurfaceID: 1})

	ok := n.RemoveLast(1, FamilyScreen)
	require.True(t, ok)
	assert.Equal(t, 2, n.Pending(1, FamilyAll))

	var got []Event
	n.RegisterSink(func(ev Event) { got = append(got, ev) })
	n.Flush(1, FamilyAll)
	require.Len(t, got, 2)
	assert.Equal(t, FamilyAudio, got[0].Family)
	assert.Equal(t, EventGrant, got[1].EventID)
	assert.Equal(t, FamilyScreen, got[1].Family)
}

func TestRemoveLastReturnsFalseWhenNothingMatches(t *testing.T) {
	n := New()
	n.Queue(Event{Family: FamilyAudio, ZoneID: 1})
	assert.False(t, n.RemoveLast(1, FamilyScreen))
}

func TestRemoveLastBoundedByEventMax(t *testing.T) {
	n := New()
	for i := 0; i < EventMax; i++ {
		n.Queue(Event{Family: FamilyAudio, ZoneID: 1})
	}
	n.Queue(Event{Family: FamilyScreen, ZoneID: 1})

	// the only screen event sits beyond the cap; the scan gives up
	// before reaching it.
	assert.False(t, n.RemoveLast(1, FamilyScreen))
	assert.Equal(t, 1, n.Pending(1, FamilyScreen))
}

func TestFlushIsReentrantSafe(t *testing.T) {
	n := New()
	n.Queue(Event{Family: FamilyScreen, EventID: EventCreate, ZoneID: 1})

	calls := 0
	n.RegisterSink(func(ev Event) {
		calls++
		if calls == 1 {
			n.Queue(Event{Family: FamilyScreen, EventID: EventGrant, ZoneID: 1})
		}
	})
	n.Flush(1, FamilyAll)
	assert.Equal(t, 1, calls, "events queued during flush are not drained by that same flush")
	assert.Equal(t, 1, n.Pending(1, FamilyAll))
}
