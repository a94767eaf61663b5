package admission

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/config"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/notifier"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/resource"
)

func TestAdmissionController(t *testing.T) {
	tests := []struct {
		name       string
		cfg        config.AppConfig
		state      RuntimeState
		req        Request
		wantAllow  bool
		wantCode   string
		wantStatus int
	}{
		{
			name: "Allow: zone declared, under cap",
			cfg: config.AppConfig{
				Limits: config.LimitsConfig{MaxResourcesPerZone: 8},
			},
			state: RuntimeState{ZoneDeclared: true, ResourcesActive: 3},
			req:   Request{Zone: 1, Family: notifier.FamilyScreen},

			wantAllow: true,
		},
		{
			name: "Reject: zone not declared",
			cfg: config.AppConfig{
				Limits: config.LimitsConfig{MaxResourcesPerZone: 8},
			},
			state:      RuntimeState{ZoneDeclared: false, ResourcesActive: 0},
			req:        Request{Zone: 7, Family: notifier.FamilyScreen},
			wantAllow:  false,
			wantCode:   CodeZoneUnknown,
			wantStatus: 404,
		},
		{
			name: "Reject: zone at capacity",
			cfg: config.AppConfig{
				Limits: config.LimitsConfig{MaxResourcesPerZone: 4},
			},
			state:      RuntimeState{ZoneDeclared: true, ResourcesActive: 4},
			req:        Request{Zone: 1, Family: notifier.FamilyAudio},
			wantAllow:  false,
			wantCode:   CodeZoneFull,
			wantStatus: 503,
		},
		{
			name: "Allow: zero limit means unbounded",
			cfg: config.AppConfig{
				Limits: config.LimitsConfig{MaxResourcesPerZone: 0},
			},
			state:     RuntimeState{ZoneDeclared: true, ResourcesActive: 10000},
			req:       Request{Zone: 1, Family: notifier.FamilyScreen},
			wantAllow: true,
		},
		{
			name: "Reject: negative resource count is invalid state",
			cfg: config.AppConfig{
				Limits: config.LimitsConfig{MaxResourcesPerZone: 8},
			},
			state:      RuntimeState{ZoneDeclared: true, ResourcesActive: -1},
			req:        Request{Zone: 1, Family: notifier.FamilyScreen},
			wantAllow:  false,
			wantCode:   CodeStateUnknown,
			wantStatus: 503,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := NewController(tc.cfg)

			decision := ctrl.Check(context.Background(), tc.req, tc.state)

			if tc.wantAllow {
				assert.True(t, decision.Allow)
				assert.Nil(t, decision.Problem)
			} else {
				assert.False(t, decision.Allow)
				require.NotNil(t, decision.Problem)
				assert.Equal(t, tc.wantCode, decision.Problem.Code)
				assert.Equal(t, tc.wantStatus, decision.Problem.Status)
				assert.NotEmpty(t, decision.Problem.Title)
				assert.NotEmpty(t, decision.Problem.Detail)
			}
		})
	}
}

func TestController_ZoneFull_UsesDeclaredFamily(t *testing.T) {
	ctrl := NewController(config.AppConfig{
		Limits: config.LimitsConfig{MaxResourcesPerZone: 1},
	})
	decision := ctrl.Check(context.Background(), Request{Zone: resource.ZoneID(2), Family: notifier.FamilyAudio}, RuntimeState{
		ZoneDeclared:    true,
		ResourcesActive: 1,
	})
	require.NotNil(t, decision.Problem)
	assert.Equal(t, "audio", decision.Problem.Extra["family"])
}
