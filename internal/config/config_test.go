// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
zones:
  - name: driver
    areas:
      - {name: cluster, output: driver, x: 0, y: 0, width: 400, height: 600}
applications:
  - appid: com.example.navigation
    defaultArea: cluster
    resourceClass: navi
    screenPrivilege: certified
classes:
  navi: {priority: 4}
  base: {priority: 0}
api:
  listen: ":9000"
`

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoaderLoadsAndValidatesFile(t *testing.T) {
	path := writeTemp(t, sampleYAML)
	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)

	require.Len(t, cfg.Zones, 1)
	assert.Equal(t, "driver", cfg.Zones[0].Name)
	assert.Equal(t, ":9000", cfg.API.Listen)
	// unspecified rate limit keeps the default, not zero.
	assert.Equal(t, 20, cfg.API.RateLimit.RPS)
}

func TestLoaderRejectsUnknownFields(t *testing.T) {
	path := writeTemp(t, sampleYAML+"\nbogusField: true\n")
	_, err := NewLoader(path).Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownConfigField)
}

func TestValidateRejectsDuplicateZoneNames(t *testing.T) {
	cfg := DefaultAppConfig()
	cfg.Zones = []ZoneConfig{{Name: "driver"}, {Name: "driver"}}
	assert.Error(t, Validate(cfg))
}

func TestValidateRejectsApplicationWithUnknownClass(t *testing.T) {
	cfg := DefaultAppConfig()
	cfg.Applications = []ApplicationConfig{{AppID: "a", ResourceClass: "nope"}}
	assert.Error(t, Validate(cfg))
}

func TestValidateRejectsNegativeResourceLimit(t *testing.T) {
	cfg := DefaultAppConfig()
	cfg.Limits.MaxResourcesPerZone = -1
	assert.Error(t, Validate(cfg))
}

func TestLoaderAppliesLimitsOverride(t *testing.T) {
	path := writeTemp(t, sampleYAML+"\nlimits:\n  maxResourcesPerZone: 16\n")
	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.Limits.MaxResourcesPerZone)
}

func TestEnvOverridesBeatFile(t *testing.T) {
	path := writeTemp(t, sampleYAML)
	l := NewLoader(path)
	l.lookupEnvFn = func(key string) (string, bool) {
		if key == "ARBITER_API_LISTEN" {
			return ":1234", true
		}
		return "", false
	}
	cfg, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, ":1234", cfg.API.Listen)
}

func TestHolderReloadSwapsOnlyOnValidConfig(t *testing.T) {
	path := writeTemp(t, sampleYAML)
	loader := NewLoader(path)
	initial, err := loader.Load()
	require.NoError(t, err)

	h := NewHolder(initial, loader, path)
	require.Equal(t, ":9000", h.Get().API.Listen)

	changes := make(chan ChangeSummary, 1)
	h.OnChange(changes)

	require.NoError(t, os.WriteFile(path, []byte(sampleYAML+"\n"), 0o600))
	require.NoError(t, h.Reload(nil))

	select {
	case <-changes:
	default:
		t.Fatal("expected a change notification after reload")
	}

	require.NoError(t, os.WriteFile(path, []byte("zones: [{name: a}, {name: a}]\n"), 0o600))
	err = h.Reload(nil)
	assert.Error(t, err)
	assert.Equal(t, ":9000", h.Get().API.Listen, "bad reload must not clobber the last good config")
}

func TestCloneIsAliasFree(t *testing.T) {
	cfg := DefaultAppConfig()
	cfg.Zones = []ZoneConfig{{Name: "driver", Areas: []AreaConfig{{Name: "a", Output: "o", Width: 1, Height: 1}}}}

	clone := Clone(cfg)
	clone.Zones[0].Areas[0].Name = "mutated"
	assert.Equal(t, "a", cfg.Zones[0].Areas[0].Name)
}
