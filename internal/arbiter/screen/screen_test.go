// SPDX-License-Identifier: MIT

package screen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/framework"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/notifier"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/overlay"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/resource"
)

func setup(t *testing.T) (*resource.Registry, *notifier.Notifier, *Arbiter, resource.AreaID) {
	t.Helper()
	reg := resource.NewRegistry()
	reg.DeclareZone(1, "driver")
	area := reg.CreateArea(1, "full", "hdmi0", 0, 0, 1920, 1080)
	notif := notifier.New()
	ovl := overlay.New()
	return reg, notif, New(reg, notif, ovl), area.ID
}

func TestCreateResolvesAreaImmediatelyWhenItExists(t *testing.T) {
	reg, _, a, areaID := setup(t)
	h := a.Create(1, "com.example.nav", 1, "hdmi0.full", framework.NewAttrSet())

	s, ok := reg.Screen(h)
	require.True(t, ok)
	assert.Equal(t, areaID, s.AreaID)

	area, _ := reg.Area(areaID)
	assert.Equal(t, []resource.ScreenHandle{h}, area.Resources)
}

func TestCreateHoldsUnresolvedAreaForBackfill(t *testing.T) {
	reg, _, a, _ := setup(t)
	h := a.Create(1, "com.example.nav", 1, "hdmi0.missing", framework.NewAttrSet())

	s, _ := reg.Screen(h)
	assert.Equal(t, resource.AreaID(resource.AnyArea), s.AreaID)

	newArea := reg.CreateArea(1, "missing", "hdmi0", 0, 0, 100, 100)
	a.BackfillArea(newArea)

	s, _ = reg.Screen(h)
	assert.Equal(t, newArea.ID, s.AreaID)
	assert.Contains(t, newArea.Resources, h)
}

func TestGrantIsExclusivePerAreaAndEdgeTriggered(t *testing.T) {
	reg, notif, a, _ := setup(t)
	var events []notifier.Event
	notif.RegisterSink(func(ev notifier.Event) { events = append(events, ev) })

	low := a.Create(1, "low", 1, "hdmi0.full", framework.NewAttrSet().SetInt("priority", 1))
	high := a.Create(1, "high", 2, "hdmi0.full", framework.NewAttrSet().SetInt("priority", 5))
	a.SetAcquire(low, true)
	a.SetAcquire(high, true)

	a.Init(1)
	a.Commit(1)
	notif.Flush(1, notifier.FamilyAll)

	hs, _ := reg.Screen(high)
	ls, _ := reg.Screen(low)
	assert.True(t, hs.Grant, "higher priority surface wins the area")
	assert.False(t, ls.Grant)

	var grants, revokes int
	for _, ev := range events {
		switch ev.EventID {
		case notifier.EventGrant:
			grants++
		case notifier.EventRevoke:
			revokes++
		}
	}
	assert.Equal(t, 1, grants)
	assert.Equal(t, 0, revokes)

	// Regranting with no state change produces no further GRANT/REVOKE:
	// only Init's PREALLOCATE for the unchanged winner is flushed.
	events = nil
	a.Init(1)
	a.Commit(1)
	notif.Flush(1, notifier.FamilyAll)
	require.Len(t, events, 1)
	assert.Equal(t, notifier.EventPreallocate, events[0].EventID)
	assert.Equal(t, int32(2), events[0].SurfaceID)
}

func TestRaiseWinsOverHigherPriorityAtLowerZorder(t *testing.T) {
	reg, notif, a, _ := setup(t)
	first := a.Create(1, "a", 1, "hdmi0.full", framework.NewAttrSet().SetInt("priority", 5))
	second := a.Create(1, "b", 2, "hdmi0.full", framework.NewAttrSet().SetInt("priority", 1))
	a.SetAcquire(first, true)
	a.SetAcquire(second, true)

	require.NoError(t, a.Raise(second))

	a.Init(1)
	a.Commit(1)
	notif.Flush(1, notifier.FamilyAll)

	fs, _ := reg.Screen(first)
	ss, _ := reg.Screen(second)
	assert.False(t, fs.Grant)
	assert.True(t, ss.Grant, "zorder dominates priority once raised")
}

func TestLowerClearsAcquireAndZorder(t *testing.T) {
	reg, _, a, _ := setup(t)
	h := a.Create(1, "a", 1, "hdmi0.full", framework.NewAttrSet())
	require.NoError(t, a.Raise(h))
	require.NoError(t, a.Lower(h))

	s, _ := reg.Screen(h)
	assert.False(t, s.Acquire)
	assert.Equal(t, uint32(0), resource.ScreenKeyZorder(s.Key))
}

func TestDisabledSurfaceNeverWinsGrant(t *testing.T) {
	reg, notif, a, _ := setup(t)
	h := a.Create(1, "a", 1, "hdmi0.full", framework.NewAttrSet())
	a.SetAcquire(h, true)
	s, _ := reg.Screen(h)
	s.Disable = resource.DisableAppID

	a.Init(1)
	a.Commit(1)
	notif.Flush(1, notifier.FamilyAll)
	assert.False(t, s.Grant)
}

func TestRaiseByAppIDLiftsEveryMatchingResourceAndIsIdempotent(t *testing.T) {
	reg, notif, a, _ := setup(t)
	area2 := reg.CreateArea(1, "second", "hdmi1", 0, 0, 1920, 1080)

	rival := a.Create(1, "rival", 1, "hdmi0.full", framework.NewAttrSet().SetInt("priority", 5))
	mine1 := a.Create(1, "mine", 2, "hdmi0.full", framework.NewAttrSet())
	mine2 := a.Create(1, "mine", 3, "hdmi1.second", framework.NewAttrSet())
	a.SetAcquire(rival, true)
	a.SetAcquire(mine1, true)
	a.SetAcquire(mine2, true)

	zones := a.RaiseByAppID("mine", 0)
	require.Equal(t, []resource.ZoneID{1}, zones)

	mine1Scr, _ := reg.Screen(mine1)
	area1, _ := reg.Area(mine1Scr.AreaID)
	assert.Equal(t, mine1, area1.Resources[0], "raised surface is on top of its own area")
	a2, _ := reg.Area(area2.ID)
	assert.Equal(t, mine2, a2.Resources[0])

	a.Init(1)
	a.Commit(1)
	notif.Flush(1, notifier.FamilyAll)
	ms, _ := reg.Screen(mine1)
	assert.True(t, ms.Grant, "raised surface now wins its area over the higher-priority rival")

	// Raising again is idempotent: still on top, no further state change.
	zones = a.RaiseByAppID("mine", 0)
	assert.Equal(t, []resource.ZoneID{1}, zones)
	assert.Equal(t, mine1, area1.Resources[0])
}

func TestRaiseByAppIDOnUnknownAppIDIsANoOp(t *testing.T) {
	reg, _, a, areaID := setup(t)
	h := a.Create(1, "a", 1, "hdmi0.full", framework.NewAttrSet())
	a.SetAcquire(h, true)
	require.NoError(t, a.Raise(h))

	zones := a.RaiseByAppID("nobody", 0)
	assert.Empty(t, zones)

	area, _ := reg.Area(areaID)
	assert.Equal(t, []resource.ScreenHandle{h}, area.Resources)
}

func TestRaiseByAppIDWithSurfaceIDRequiresMatchingOwner(t *testing.T) {
	_, _, a, _ := setup(t)
	h := a.Create(1, "a", 7, "hdmi0.full", framework.NewAttrSet())
	a.SetAcquire(h, true)

	zones := a.RaiseByAppID("someone-else", 7)
	assert.Empty(t, zones, "surfaceid owned by a different appid raises nothing")

	zones = a.RaiseByAppID("a", 7)
	assert.Equal(t, []resource.ZoneID{1}, zones)
}

func TestDestroyRemovesFromAreaStack(t *testing.T) {
	reg, _, a, areaID := setup(t)
	h := a.Create(1, "a", 1, "hdmi0.full", framework.NewAttrSet())
	a.Destroy(h)

	_, ok := reg.Screen(h)
	assert.False(t, ok)
	area, _ := reg.Area(areaID)
	assert.Empty(t, area.Resources)
}
