// SPDX-License-Identifier: MIT

// Package config loads, validates and hot-reloads the arbiter's YAML
// configuration: zones, areas, applications, resource classes, the
// disable overlay's persistence path, and the ambient API/bus/telemetry
// settings. A Holder exposes an atomically-swapped Snapshot so readers
// never observe a partially-applied reload.
package config
