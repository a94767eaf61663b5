// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"slices"
)

// ChangeSummary describes what changed between two configurations, for
// the audit log emitted on every successful reload.
type ChangeSummary struct {
	ZonesAdded          []string
	ApplicationsAdded   []string
	ApplicationsRemoved []string
	APIChanged          bool
	BusChanged          bool
	LimitsChanged       bool
}

// Diff compares old and next, both already validated. It only reports
// additions/removals relevant to the audit trail — reload never needs to
// know about every field, since grant/revoke state is untouched either way.
func Diff(old, next AppConfig) ChangeSummary {
	var s ChangeSummary

	oldZones := make(map[string]struct{}, len(old.Zones))
	for _, z := range old.Zones {
		oldZones[z.Name] = struct{}{}
	}
	for _, z := range next.Zones {
		if _, ok := oldZones[z.Name]; !ok {
			s.ZonesAdded = append(s.ZonesAdded, z.Name)
		}
	}

	oldApps := make(map[string]struct{}, len(old.Applications))
	for _, a := range old.Applications {
		oldApps[a.AppID] = struct{}{}
	}
	nextApps := make(map[string]struct{}, len(next.Applications))
	for _, a := range next.Applications {
		nextApps[a.AppID] = struct{}{}
		if _, ok := oldApps[a.AppID]; !ok {
			s.ApplicationsAdded = append(s.ApplicationsAdded, a.AppID)
		}
	}
	for id := range oldApps {
		if _, ok := nextApps[id]; !ok {
			s.ApplicationsRemoved = append(s.ApplicationsRemoved, id)
		}
	}

	s.APIChanged = !apiConfigEqual(old.API, next.API)
	s.BusChanged = old.Bus != next.Bus
	s.LimitsChanged = old.Limits != next.Limits
	return s
}

// apiConfigEqual compares two APIConfig values field by field: AllowedOrigins
// is a slice, so APIConfig isn't comparable with ==.
func apiConfigEqual(a, b APIConfig) bool {
	return a.Listen == b.Listen &&
		a.RateLimit == b.RateLimit &&
		a.Token == b.Token &&
		a.AuthAnonymous == b.AuthAnonymous &&
		slices.Equal(a.AllowedOrigins, b.AllowedOrigins)
}

func (s ChangeSummary) String() string {
	return fmt.Sprintf("zones_added=%d applications_added=%d applications_removed=%d api_changed=%t bus_changed=%t limits_changed=%t",
		len(s.ZonesAdded), len(s.ApplicationsAdded), len(s.ApplicationsRemoved), s.APIChanged, s.BusChanged, s.LimitsChanged)
}
