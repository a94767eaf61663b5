// SPDX-License-Identifier: MIT

package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/framework"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/notifier"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/overlay"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/resource"
)

func setup(t *testing.T) (*resource.Registry, *notifier.Notifier, *Arbiter) {
	t.Helper()
	reg := resource.NewRegistry()
	reg.DeclareZone(1, "driver")
	notif := notifier.New()
	ovl := overlay.New()
	return reg, notif, New(reg, notif, ovl)
}

func TestNonSharedGrantStopsTheScan(t *testing.T) {
	reg, notif, a := setup(t)
	high := a.Create(1, "nav", framework.NewAttrSet().SetInt("priority", 5))
	low := a.Create(1, "media", framework.NewAttrSet().SetInt("priority", 1))
	require.NoError(t, a.SetState(high, true, false, false))
	require.NoError(t, a.SetState(low, true, false, false))

	a.Init(1)
	a.Commit(1)
	notif.Flush(1, notifier.FamilyAll)

	hi, _ := reg.Audio(high)
	lo, _ := reg.Audio(low)
	assert.True(t, hi.Grant)
	assert.False(t, lo.Grant, "non-shared higher priority grant stops the scan")
}

func TestSharedGrantLetsScanContinue(t *testing.T) {
	reg, notif, a := setup(t)
	high := a.Create(1, "nav", framework.NewAttrSet().SetInt("priority", 5))
	low := a.Create(1, "media", framework.NewAttrSet().SetInt("priority", 1))
	require.NoError(t, a.SetState(high, true, true, false))
	require.NoError(t, a.SetState(low, true, false, false))

	a.Init(1)
	a.Commit(1)
	notif.Flush(1, notifier.FamilyAll)

	hi, _ := reg.Audio(high)
	lo, _ := reg.Audio(low)
	assert.True(t, hi.Grant)
	assert.True(t, lo.Grant, "shared grant lets a lower-priority stream also be granted")
}

func TestAudioRevokeZeroesGrantID(t *testing.T) {
	reg, notif, a := setup(t)
	h := a.Create(1, "nav", framework.NewAttrSet())
	require.NoError(t, a.SetState(h, true, false, false))
	a.Init(1)
	a.Commit(1)
	notif.Flush(1, notifier.FamilyAll)

	aud, _ := reg.Audio(h)
	require.True(t, aud.Grant)
	require.NotZero(t, aud.GrantID)

	require.NoError(t, a.SetState(h, false, false, false))
	a.Init(1)
	a.Commit(1)
	notif.Flush(1, notifier.FamilyAll)

	aud, _ = reg.Audio(h)
	assert.False(t, aud.Grant)
	assert.Zero(t, aud.GrantID, "audio zeroes grantid on revoke, unlike screen")
}

func TestDisabledAudioNeverWinsGrant(t *testing.T) {
	reg, notif, a := setup(t)
	h := a.Create(1, "nav", framework.NewAttrSet())
	require.NoError(t, a.SetState(h, true, false, false))
	aud, _ := reg.Audio(h)
	aud.Disable = resource.DisableAppID

	a.Init(1)
	a.Commit(1)
	notif.Flush(1, notifier.FamilyAll)
	assert.False(t, aud.Grant)
}

func TestDestroyRemovesFromZoneStack(t *testing.T) {
	reg, _, a := setup(t)
	h := a.Create(1, "nav", framework.NewAttrSet())
	a.Destroy(h)
	_, ok := reg.Audio(h)
	assert.False(t, ok)
	assert.Empty(t, a.zones[1])
}
