// SPDX-License-Identifier: MIT

package config

// FileConfig is the on-disk YAML shape. It is unmarshaled as-is, then
// merged over defaults and validated into an AppConfig.
type FileConfig struct {
	Zones        []ZoneConfig           `yaml:"zones,omitempty"`
	Applications []ApplicationConfig    `yaml:"applications,omitempty"`
	Classes      map[string]ClassConfig `yaml:"classes,omitempty"`
	Overlay      OverlayConfig          `yaml:"overlay,omitempty"`
	EventLog     EventLogConfig         `yaml:"eventLog,omitempty"`
	API          APIConfig              `yaml:"api,omitempty"`
	Bus          BusConfig              `yaml:"bus,omitempty"`
	Telemetry    TelemetryConfig        `yaml:"telemetry,omitempty"`
	Metrics      MetricsConfig          `yaml:"metrics,omitempty"`
	Limits       LimitsConfig           `yaml:"limits,omitempty"`
	LogLevel     string                 `yaml:"logLevel,omitempty"`
}

// ZoneConfig declares one output zone and its areas.
type ZoneConfig struct {
	Name  string       `yaml:"name"`
	Areas []AreaConfig `yaml:"areas,omitempty"`
}

// AreaConfig declares one rectangular screen area within a zone.
type AreaConfig struct {
	Name   string `yaml:"name"`
	Output string `yaml:"output"`
	X      int32  `yaml:"x"`
	Y      int32  `yaml:"y"`
	Width  int32  `yaml:"width"`
	Height int32  `yaml:"height"`
}

// ApplicationConfig seeds the application directory (resource.Application)
// the engine resolves appid attributes against.
type ApplicationConfig struct {
	AppID           string `yaml:"appid"`
	DefaultArea     string `yaml:"defaultArea,omitempty"`
	ResourceClass   string `yaml:"resourceClass,omitempty"`
	ScreenPriority  *int   `yaml:"screenPriority,omitempty"`
	ScreenPrivilege string `yaml:"screenPrivilege,omitempty"`
	AudioPrivilege  string `yaml:"audioPrivilege,omitempty"`
}

// ClassConfig is a named resource-class priority, applied to an
// application when its ScreenPriority is not set explicitly.
type ClassConfig struct {
	Priority int `yaml:"priority"`
}

// OverlayConfig configures the persisted disable-overlay store.
type OverlayConfig struct {
	PersistPath string `yaml:"persistPath,omitempty"`
}

// EventLogConfig configures the badger-backed diagnostic event log.
type EventLogConfig struct {
	PersistPath string `yaml:"persistPath,omitempty"`
}

// RateLimitConfig bounds the admin API's request rate.
type RateLimitConfig struct {
	RPS   int `yaml:"rps,omitempty"`
	Burst int `yaml:"burst,omitempty"`
}

// APIConfig configures the admin HTTP API.
type APIConfig struct {
	Listen    string          `yaml:"listen,omitempty"`
	RateLimit RateLimitConfig `yaml:"rateLimit,omitempty"`

	// Token is the bearer token callers must present. Empty means no
	// token is configured; in that case AuthAnonymous must be set
	// explicitly to allow unauthenticated access, otherwise every
	// request is rejected (fail-closed default).
	Token string `yaml:"token,omitempty"`
	// AuthAnonymous allows unauthenticated access when Token is empty.
	AuthAnonymous bool `yaml:"authAnonymous,omitempty"`
	// AllowedOrigins is the CORS allowlist for the admin API.
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty"`
}

// BusConfig configures the Redis event-bus notifier sink. An empty
// RedisAddr disables the bus sink; events are then flushed only to the
// daemon's diagnostic event-log sink.
type BusConfig struct {
	RedisAddr string `yaml:"redisAddr,omitempty"`
	RedisDB   int    `yaml:"redisDB,omitempty"`
}

// TelemetryConfig configures OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled,omitempty"`
	ServiceName  string  `yaml:"serviceName,omitempty"`
	ExporterType string  `yaml:"exporterType,omitempty"` // "grpc", "http", "" (noop)
	Endpoint     string  `yaml:"endpoint,omitempty"`
	SamplingRate float64 `yaml:"samplingRate,omitempty"`
}

// MetricsConfig toggles Prometheus metrics collection.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled,omitempty"`
}

// LimitsConfig bounds the admission controller's acceptance of new
// resources, independent of the arbitration policy itself.
type LimitsConfig struct {
	// MaxResourcesPerZone caps how many screen or audio resources a zone
	// may hold at once (each family counted separately). A zero or absent
	// value in the YAML file keeps DefaultAppConfig's value; a zero in the
	// resolved config means no cap, and only the
	// ARBITER_LIMITS_MAX_RESOURCES_PER_ZONE override can set it.
	MaxResourcesPerZone int `yaml:"maxResourcesPerZone,omitempty"`

	// MaxScreenSurfaces caps how many screen surfaces the admission
	// monitor tracks across all zones at once.
	MaxScreenSurfaces int `yaml:"maxScreenSurfaces,omitempty"`
	// MaxOverlayPlanes caps how many hardware overlay planes the
	// admission monitor will hand out concurrently.
	MaxOverlayPlanes int `yaml:"maxOverlayPlanes,omitempty"`
	// CPUThresholdScale multiplies runtime.NumCPU() to get the load
	// average ceiling the admission monitor enforces.
	CPUThresholdScale float64 `yaml:"cpuThresholdScale,omitempty"`
}

// AppConfig is the validated, defaulted runtime configuration the rest of
// the daemon consumes. Unlike FileConfig it carries no optional pointers —
// every field has a concrete, already-resolved value.
type AppConfig struct {
	Zones        []ZoneConfig
	Applications []ApplicationConfig
	Classes      map[string]ClassConfig
	Overlay      OverlayConfig
	EventLog     EventLogConfig
	API          APIConfig
	Bus          BusConfig
	Telemetry    TelemetryConfig
	Metrics      MetricsConfig
	Limits       LimitsConfig
	LogLevel     string
}

// DefaultAppConfig returns the configuration used when no file is present
// and no overrides apply: metrics on, everything else quiet.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Classes:  map[string]ClassConfig{"base": {Priority: 0}},
		Overlay:  OverlayConfig{PersistPath: "/var/lib/arbiterctld/overlay.db"},
		EventLog: EventLogConfig{PersistPath: "/var/lib/arbiterctld/events.badger"},
		API:      APIConfig{Listen: ":8383", RateLimit: RateLimitConfig{RPS: 20, Burst: 40}},
		Metrics:  MetricsConfig{Enabled: true},
		Limits:   LimitsConfig{MaxResourcesPerZone: 256, MaxScreenSurfaces: 32, MaxOverlayPlanes: 8, CPUThresholdScale: 1.5},
		LogLevel: "info",
	}
}
