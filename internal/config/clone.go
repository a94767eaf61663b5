// SPDX-License-Identifier: MIT

package config

// Clone returns an alias-free deep copy of cfg. Only reference types
// (slices, maps) need cloning; the rest is copied by value.
func Clone(cfg AppConfig) AppConfig {
	out := cfg

	out.Zones = make([]ZoneConfig, len(cfg.Zones))
	for i, z := range cfg.Zones {
		zc := z
		zc.Areas = append([]AreaConfig(nil), z.Areas...)
		out.Zones[i] = zc
	}

	out.Applications = append([]ApplicationConfig(nil), cfg.Applications...)

	if cfg.Classes != nil {
		out.Classes = make(map[string]ClassConfig, len(cfg.Classes))
		for k, v := range cfg.Classes {
			out.Classes[k] = v
		}
	}

	return out
}
