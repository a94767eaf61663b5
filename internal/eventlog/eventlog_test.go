// SPDX-License-Identifier: MIT

package eventlog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/notifier"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/resource"
)

func openTestLog(t *testing.T) *Log {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "events"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestAppendAssignsIncreasingSeqPerZone(t *testing.T) {
	l := openTestLog(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Append(notifier.Event{Family: notifier.FamilyScreen, EventID: notifier.EventGrant, ZoneID: 1}))
	}
	require.NoError(t, l.Append(notifier.Event{Family: notifier.FamilyAudio, EventID: notifier.EventCreate, ZoneID: 2}))

	zone1, err := l.Tail(context.Background(), 1, 0)
	require.NoError(t, err)
	require.Len(t, zone1, 3)
	assert.Equal(t, uint64(1), zone1[0].Seq)
	assert.Equal(t, uint64(2), zone1[1].Seq)
	assert.Equal(t, uint64(3), zone1[2].Seq)

	zone2, err := l.Tail(context.Background(), 2, 0)
	require.NoError(t, err)
	require.Len(t, zone2, 1)
	assert.Equal(t, uint64(1), zone2[0].Seq)
}

func TestTailReturnsOldestFirstWithinLimit(t *testing.T) {
	l := openTestLog(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, l.Append(notifier.Event{Family: notifier.FamilyScreen, EventID: notifier.EventGrant, ZoneID: 1, SurfaceID: int32(i)}))
	}

	last2, err := l.Tail(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Len(t, last2, 2)
	assert.Equal(t, int32(3), last2[0].Event.SurfaceID)
	assert.Equal(t, int32(4), last2[1].Event.SurfaceID)
}

func TestTailOnEmptyZoneReturnsNil(t *testing.T) {
	l := openTestLog(t)
	recs, err := l.Tail(context.Background(), resource.ZoneID(99), 0)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestSinkAdaptsAppend(t *testing.T) {
	l := openTestLog(t)
	sink := l.Sink()
	sink(notifier.Event{Family: notifier.FamilyScreen, EventID: notifier.EventGrant, ZoneID: 1})

	recs, err := l.Tail(context.Background(), 1, 0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
}
