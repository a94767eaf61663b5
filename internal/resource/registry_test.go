// SPDX-License-Identifier: MIT

package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryZoneLifecycle(t *testing.T) {
	r := NewRegistry()
	r.DeclareZone(1, "driver")
	z, ok := r.Zone(1)
	require.True(t, ok)
	assert.Equal(t, "driver", z.Name)

	// idempotent redeclare updates name in place.
	r.DeclareZone(1, "driver-renamed")
	z2, ok := r.Zone(1)
	require.True(t, ok)
	assert.Same(t, z, z2)
	assert.Equal(t, "driver-renamed", z2.Name)

	byName, ok := r.ZoneByName("driver-renamed")
	require.True(t, ok)
	assert.Equal(t, ZoneID(1), byName.ID)
}

func TestRegistryAreaLifecycle(t *testing.T) {
	r := NewRegistry()
	r.DeclareZone(1, "driver")
	a := r.CreateArea(1, "full", "hdmi0", 0, 0, 1920, 1080)
	assert.Equal(t, "hdmi0.full", a.FullName())

	got, ok := r.AreaByFullName("hdmi0.full")
	require.True(t, ok)
	assert.Equal(t, a.ID, got.ID)

	areas := r.AreasInZone(1)
	require.Len(t, areas, 1)

	r.DestroyArea(a.ID)
	_, ok = r.Area(a.ID)
	assert.False(t, ok)
	assert.Empty(t, r.AreasInZone(1))
}

func TestRegistryOverlapDetection(t *testing.T) {
	r := NewRegistry()
	r.DeclareZone(1, "driver")
	full := r.CreateArea(1, "full", "hdmi0", 0, 0, 1920, 1080)
	left := r.CreateArea(1, "left", "hdmi0", 0, 0, 960, 1080)
	other := r.CreateArea(1, "other-output", "hdmi1", 0, 0, 100, 100)

	r.RecomputeOverlaps()

	_, overlaps := full.Overlap[left.ID]
	assert.True(t, overlaps)
	_, overlaps = full.Overlap[other.ID]
	assert.False(t, overlaps, "areas on different outputs never overlap")
}

func TestRegistryApplicationResolutionFallsBackToDefault(t *testing.T) {
	r := NewRegistry()
	def := &Application{AppID: "com.example.default"}
	r.SetDefaultApplication(def)

	nav := &Application{AppID: "com.example.nav"}
	r.PutApplication(nav)

	got, ok := r.ResolveApplication("com.example.nav")
	require.True(t, ok)
	assert.Equal(t, AppID("com.example.nav"), got.AppID)

	got, ok = r.ResolveApplication("com.example.unknown")
	require.True(t, ok)
	assert.Equal(t, def, got)
}

func TestRegistryScreenSurfaceIndex(t *testing.T) {
	r := NewRegistry()
	h := r.NewScreenHandle()
	r.PutScreen(&Screen{Handle: h, SurfaceID: 42})

	got, ok := r.ScreenBySurface(42)
	require.True(t, ok)
	assert.Equal(t, h, got.Handle)

	r.DeleteScreen(h)
	_, ok = r.ScreenBySurface(42)
	assert.False(t, ok)
}

func TestRegistryAudioHandleAndIDAreIndependentSequences(t *testing.T) {
	r := NewRegistry()
	h1 := r.NewAudioHandle()
	id1 := r.NewAudioID()
	h2 := r.NewAudioHandle()
	id2 := r.NewAudioID()
	assert.NotEqual(t, h1, h2)
	assert.NotEqual(t, id1, id2)
}
