// SPDX-License-Identifier: MIT

// Command arbiterctld is the resource arbitration daemon: it loads the
// zone/area/application topology from a YAML config file, runs the
// engine's actor goroutine, exposes the admin HTTP API, and watches the
// config file for changes it can apply without a restart.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/admission"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/api"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/audit"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/bus"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/config"
	controladmission "github.com/tizenorg/profile.ivi.murphy-sub000/internal/control/admission"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/engine"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/eventlog"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/health"
	applog "github.com/tizenorg/profile.ivi.murphy-sub000/internal/log"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/notifier"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/overlay"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/resource"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/store"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/telemetry"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/version"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "arbiterctld",
		Short:         "IVI resource arbitration daemon",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(configPath)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (YAML)")
	root.AddCommand(newConfigCmd(&configPath))
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print version and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("%s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
			return nil
		},
	}
}

func newConfigCmd(configPath *string) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "inspect or rewrite the configuration file",
	}
	cfgCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "load and validate the configuration file, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.NewLoader(*configPath).Load(); err != nil {
				return err
			}
			fmt.Println("config OK")
			return nil
		},
	})
	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "load the configuration and rewrite it back through Manager.Save",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewLoader(*configPath).Load()
			if err != nil {
				return err
			}
			path := *configPath
			if path == "" {
				return fmt.Errorf("config dump requires --config")
			}
			return config.NewManager(path).Save(cfg)
		},
	})
	return cfgCmd
}

// runDaemon wires every component and blocks until ctx is cancelled by
// SIGINT/SIGTERM.
func runDaemon(configPath string) error {
	applog.Configure(applog.Config{Level: "info", Service: "arbiterctld", Version: version.Version})
	logger := applog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loader := config.NewLoader(configPath)
	cfg, err := loader.Load()
	if err != nil {
		logger.Fatal().Err(err).Str("event", "config.load_failed").Msg("failed to load configuration")
	}
	applog.Configure(applog.Config{Level: cfg.LogLevel, Service: "arbiterctld", Version: version.Version})

	holder := config.NewHolder(cfg, loader, configPath)

	eng := engine.New()

	monitor := admission.NewResourceMonitor(cfg.Limits.MaxScreenSurfaces, cfg.Limits.MaxOverlayPlanes, cfg.Limits.CPUThresholdScale)
	monitor.SetLogger(applog.WithComponent("admission"))
	eng.SetAdmissionMonitor(monitor)
	admission.StartCPUSampler(ctx, monitor, 0, admission.ReadSystemLoad)

	eng.SetCapacityController(controladmission.NewController(cfg))

	overlayStore, err := store.Open(cfg.Overlay.PersistPath)
	if err != nil {
		logger.Fatal().Err(err).Str("event", "overlay_store.open_failed").Msg("failed to open overlay store")
	}
	defer func() { _ = overlayStore.Close() }()

	eventLog, err := eventlog.Open(cfg.EventLog.PersistPath)
	if err != nil {
		logger.Fatal().Err(err).Str("event", "eventlog.open_failed").Msg("failed to open event log")
	}
	defer func() { _ = eventLog.Close() }()

	go func() {
		if err := eng.RegisterSink(ctx, eventLog.Sink()); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("failed to register event log sink")
		}
	}()

	var busPublisher *bus.Publisher
	if cfg.Bus.RedisAddr != "" {
		busPublisher = bus.NewPublisher(cfg.Bus.RedisAddr, cfg.Bus.RedisDB)
		defer func() { _ = busPublisher.Close() }()
		go func() {
			if err := eng.RegisterSink(ctx, busPublisher.Sink()); err != nil && ctx.Err() == nil {
				logger.Error().Err(err).Msg("failed to register bus sink")
			}
		}()
	}

	auditLogger := audit.NewLogger()

	var tracerProvider *telemetry.Provider
	if cfg.Telemetry.Enabled {
		tracerProvider, err = telemetry.NewProvider(ctx, telemetry.Config{
			Enabled:        cfg.Telemetry.Enabled,
			ServiceName:    cfg.Telemetry.ServiceName,
			ServiceVersion: version.Version,
			ExporterType:   cfg.Telemetry.ExporterType,
			Endpoint:       cfg.Telemetry.Endpoint,
			SamplingRate:   cfg.Telemetry.SamplingRate,
		})
		if err != nil {
			logger.Fatal().Err(err).Str("event", "telemetry.init_failed").Msg("failed to start tracer provider")
		}
		defer func() { _ = tracerProvider.Shutdown(context.Background()) }()
	}

	go eng.Run(ctx)

	seedTopology(ctx, eng, cfg)
	if err := replayOverlay(ctx, eng, overlayStore); err != nil {
		logger.Error().Err(err).Msg("failed to replay persisted overlay rules")
	}

	healthMgr := health.NewManager(version.Version)
	healthMgr.RegisterChecker(health.NewEngineChecker(func(ctx context.Context) error {
		_, err := eng.Query(ctx, resource.ZoneID(0))
		return err
	}))
	healthMgr.RegisterChecker(health.NewConfigChecker(func() (uint64, bool) {
		snap := holder.Current()
		if snap == nil {
			return 0, false
		}
		return snap.Epoch, true
	}))
	healthMgr.RegisterChecker(health.NewOverlayStoreChecker(overlayStore.Ping))
	if busPublisher != nil {
		healthMgr.RegisterChecker(health.NewBusChecker(busPublisher.Ping))
	}

	srv := api.New(eng, overlayStore, eventLog, healthMgr, auditLogger, cfg.API)

	httpServer := &http.Server{
		Addr:              cfg.API.Listen,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go watchConfig(ctx, holder, eng)

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("event", "startup").Str("addr", cfg.API.Listen).Str("version", version.Version).Msg("starting arbiterctld")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		logger.Error().Err(err).Msg("admin API listener failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("admin API graceful shutdown failed")
	}
	return nil
}

// seedTopology declares every configured zone/area/application against
// the engine. Zone ids are assigned by config-file order, 1-based, so 0
// stays free for the API's globalRuleZone bookkeeping id.
func seedTopology(ctx context.Context, eng *engine.Engine, cfg config.AppConfig) {
	for i, z := range cfg.Zones {
		zid := resource.ZoneID(i + 1)
		_ = eng.DeclareZone(ctx, zid, z.Name)
		for _, a := range z.Areas {
			_, _ = eng.CreateArea(ctx, zid, a.Name, a.Output, a.X, a.Y, a.Width, a.Height)
		}
	}
	for _, a := range cfg.Applications {
		_ = eng.PutApplication(ctx, buildApplication(cfg, a))
	}
}

// buildApplication resolves one ApplicationConfig entry to the
// resource.Application the engine's arbiters consult, applying the
// class-default priority unless the entry overrides it explicitly.
func buildApplication(cfg config.AppConfig, a config.ApplicationConfig) *resource.Application {
	priority := cfg.Classes[a.ResourceClass].Priority
	if a.ScreenPriority != nil {
		priority = *a.ScreenPriority
	}
	return &resource.Application{
		AppID:           resource.AppID(a.AppID),
		DefaultAreaName: a.DefaultArea,
		DefaultArea:     resource.AreaID(resource.AnyArea),
		ResourceClass:   a.ResourceClass,
		ScreenPriority:  priority,
		ScreenPrivilege: resource.ParsePrivilege(a.ScreenPrivilege),
		AudioPrivilege:  resource.ParsePrivilege(a.AudioPrivilege),
	}
}

// replayOverlay loads every persisted disable rule and reinstalls it
// through the engine's own Disable path, one call per family, so a
// restarted daemon starts with the same resources disabled as before.
func replayOverlay(ctx context.Context, eng *engine.Engine, overlayStore *store.OverlayStore) error {
	rules, err := overlayStore.Load(ctx)
	if err != nil {
		return err
	}
	byFamily := map[notifier.Family][]overlay.Rule{}
	for _, r := range rules {
		byFamily[r.Family] = append(byFamily[r.Family], r.Rule)
	}
	for family, fr := range byFamily {
		if _, err := eng.Disable(ctx, family, fr); err != nil {
			return err
		}
	}
	return nil
}

// watchConfig starts the config file watcher and applies additive
// changes (new zones, areas and applications) to the running engine as
// they are reloaded. Removals are not applied: ChangeSummary does report
// ApplicationsRemoved, but only the names present in
// ZonesAdded/ApplicationsAdded are declared against the engine, and
// everything already declared stays as it is.
func watchConfig(ctx context.Context, holder *config.Holder, eng *engine.Engine) {
	logger := applog.WithComponent("daemon")
	if err := holder.StartWatcher(ctx); err != nil {
		logger.Error().Err(err).Str("event", "config.watcher_failed").Msg("failed to start config watcher")
		return
	}

	changes := make(chan config.ChangeSummary, 1)
	holder.OnChange(changes)
	for {
		select {
		case <-ctx.Done():
			return
		case summary := <-changes:
			applyAdditiveChange(ctx, eng, holder.Get(), summary)
		}
	}
}

// applyAdditiveChange declares the newly added zones/areas/applications
// named in summary against eng, resolving each zone's id the same way
// seedTopology does: by its position in cfg.Zones.
func applyAdditiveChange(ctx context.Context, eng *engine.Engine, cfg config.AppConfig, summary config.ChangeSummary) {
	zonesAdded := make(map[string]struct{}, len(summary.ZonesAdded))
	for _, name := range summary.ZonesAdded {
		zonesAdded[name] = struct{}{}
	}
	for i, z := range cfg.Zones {
		if _, ok := zonesAdded[z.Name]; !ok {
			continue
		}
		zid := resource.ZoneID(i + 1)
		_ = eng.DeclareZone(ctx, zid, z.Name)
		for _, a := range z.Areas {
			_, _ = eng.CreateArea(ctx, zid, a.Name, a.Output, a.X, a.Y, a.Width, a.Height)
		}
	}

	appsAdded := make(map[string]struct{}, len(summary.ApplicationsAdded))
	for _, id := range summary.ApplicationsAdded {
		appsAdded[id] = struct{}{}
	}
	for _, a := range cfg.Applications {
		if _, ok := appsAdded[a.AppID]; !ok {
			continue
		}
		_ = eng.PutApplication(ctx, buildApplication(cfg, a))
	}
}
