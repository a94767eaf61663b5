// SPDX-License-Identifier: MIT

package config

import (
	"fmt"

	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/resource"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/validate"
)

// Validate checks an AppConfig for internal consistency: duplicate zone
// or area names, applications referencing classes that don't exist, and
// structural bounds (ZoneMax). It never mutates cfg. Every problem found
// is accumulated via validate.Validator rather than returned on the
// first mismatch, so a misconfigured file reports all of its mistakes in
// one pass instead of one `arbiterctld config validate` run per fix.
func Validate(cfg AppConfig) error {
	v := validate.New()

	if len(cfg.Zones) > resource.ZoneMax {
		v.AddError("zones", fmt.Sprintf("%d zones exceeds maximum of %d", len(cfg.Zones), resource.ZoneMax), len(cfg.Zones))
	}

	zoneNames := make(map[string]struct{}, len(cfg.Zones))
	for _, z := range cfg.Zones {
		v.NotEmpty("zones[].name", z.Name)
		if _, dup := zoneNames[z.Name]; dup {
			v.AddError("zones[].name", fmt.Sprintf("duplicate zone name %q", z.Name), z.Name)
		}
		zoneNames[z.Name] = struct{}{}

		areaNames := make(map[string]struct{}, len(z.Areas))
		for _, a := range z.Areas {
			field := fmt.Sprintf("zones[%s].areas[].", z.Name)
			v.NotEmpty(field+"name", a.Name)
			v.NotEmpty(field+"output", a.Output)
			if _, dup := areaNames[a.Name]; dup {
				v.AddError(field+"name", fmt.Sprintf("duplicate area name %q in zone %q", a.Name, z.Name), a.Name)
			}
			areaNames[a.Name] = struct{}{}
			v.Positive(field+"width", int(a.Width))
			v.Positive(field+"height", int(a.Height))
		}
	}

	appIDs := make(map[string]struct{}, len(cfg.Applications))
	for _, app := range cfg.Applications {
		v.NotEmpty("applications[].appid", app.AppID)
		if _, dup := appIDs[app.AppID]; dup {
			v.AddError("applications[].appid", fmt.Sprintf("duplicate application appid %q", app.AppID), app.AppID)
		}
		appIDs[app.AppID] = struct{}{}

		if app.ResourceClass != "" {
			if _, ok := cfg.Classes[app.ResourceClass]; !ok {
				v.AddError("applications[].resourceClass", fmt.Sprintf("application %q references unknown class %q", app.AppID, app.ResourceClass), app.ResourceClass)
			}
		}
		if app.ScreenPrivilege != "" && app.ScreenPrivilege != "none" && resource.ParsePrivilege(app.ScreenPrivilege) == resource.PrivilegeNone {
			v.AddError("applications[].screenPrivilege", fmt.Sprintf("application %q has unrecognized screenPrivilege %q", app.AppID, app.ScreenPrivilege), app.ScreenPrivilege)
		}
		if app.AudioPrivilege != "" && app.AudioPrivilege != "none" && resource.ParsePrivilege(app.AudioPrivilege) == resource.PrivilegeNone {
			v.AddError("applications[].audioPrivilege", fmt.Sprintf("application %q has unrecognized audioPrivilege %q", app.AppID, app.AudioPrivilege), app.AudioPrivilege)
		}
	}

	v.NonNegative("api.rateLimit.rps", cfg.API.RateLimit.RPS)
	v.NonNegative("api.rateLimit.burst", cfg.API.RateLimit.Burst)
	v.NonNegative("limits.maxResourcesPerZone", cfg.Limits.MaxResourcesPerZone)

	return v.Err()
}
