// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/log"
)

// Holder holds configuration with atomic reloading capability. Readers
// call Get/Snapshot from any goroutine without locking; Reload installs a
// new Snapshot only after it validates cleanly, so a broken edit to the
// config file never takes effect — the engine keeps running the last
// good topology.
type Holder struct {
	reloadOpMu sync.Mutex
	epoch      atomic.Uint64
	snapshot   atomic.Pointer[Snapshot]
	loader     *Loader
	configPath string
	configDir  string
	configFile string
	watcher    *fsnotify.Watcher
	logger     zerolog.Logger

	listenersMu sync.RWMutex
	listeners   []chan<- ChangeSummary
}

// NewHolder builds a Holder already carrying initial.
func NewHolder(initial AppConfig, loader *Loader, configPath string) *Holder {
	h := &Holder{
		loader:     loader,
		configPath: configPath,
		logger:     log.WithComponent("config"),
	}
	snap := BuildSnapshot(initial)
	h.swap(&snap)
	return h
}

// Get returns the current configuration.
func (h *Holder) Get() AppConfig { return h.Snapshot().App }

// Current returns the current snapshot pointer.
func (h *Holder) Current() *Snapshot { return h.snapshot.Load() }

// Snapshot returns a copy of the current snapshot.
func (h *Holder) Snapshot() Snapshot {
	if s := h.Current(); s != nil {
		return *s
	}
	return Snapshot{}
}

func (h *Holder) swap(next *Snapshot) (prev *Snapshot) {
	if next == nil {
		return h.snapshot.Load()
	}
	next.Epoch = h.epoch.Add(1)
	return h.snapshot.Swap(next)
}

// OnChange registers a channel that receives a ChangeSummary after every
// successful reload. Sends are non-blocking — a slow listener misses
// updates rather than stalling the reload path.
func (h *Holder) OnChange(ch chan<- ChangeSummary) {
	h.listenersMu.Lock()
	defer h.listenersMu.Unlock()
	h.listeners = append(h.listeners, ch)
}

func (h *Holder) notify(summary ChangeSummary) {
	h.listenersMu.RLock()
	defer h.listenersMu.RUnlock()
	for _, ch := range h.listeners {
		select {
		case ch <- summary:
		default:
		}
	}
}

// Reload re-reads the config file, validates it, and swaps it in only on
// success. If validation fails, the previously active configuration is
// left untouched.
func (h *Holder) Reload(_ context.Context) error {
	h.reloadOpMu.Lock()
	defer h.reloadOpMu.Unlock()

	h.logger.Info().Str("event", "config.reload_start").Msg("reloading configuration")

	oldCfg := h.Get()
	newCfg, err := h.loader.Load()
	if err != nil {
		h.logger.Error().Err(err).Str("event", "config.reload_failed").Msg("failed to load new configuration")
		return fmt.Errorf("load config: %w", err)
	}

	snap := BuildSnapshot(newCfg)
	h.swap(&snap)

	summary := Diff(oldCfg, newCfg)
	h.notify(summary)
	h.logger.Info().
		Str("event", "config.reload_success").
		Str("changes", summary.String()).
		Msg("configuration reloaded")
	return nil
}

// StartWatcher watches the config file's directory for writes (covers
// editors that write via temp-file + rename) and debounces reloads.
// No-op if configPath is empty.
func (h *Holder) StartWatcher(ctx context.Context) error {
	if h.configPath == "" {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	h.watcher = watcher
	h.configDir = filepath.Dir(h.configPath)
	h.configFile = filepath.Base(h.configPath)

	if err := watcher.Add(h.configDir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch config dir: %w", err)
	}
	h.logger.Info().Str("event", "config.watcher_started").Str("path", h.configPath).Msg("watching config file for changes")
	go h.watchLoop(ctx)
	return nil
}

func (h *Holder) watchLoop(ctx context.Context) {
	var debounceTimer *time.Timer
	const debounce = 500 * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			if h.watcher != nil {
				_ = h.watcher.Close()
			}
			return

		case event, ok := <-h.watcher.Events:
			if !ok {
				return
			}
			if h.configFile != "" && filepath.Base(event.Name) != h.configFile {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(debounce, func() {
					if err := h.Reload(ctx); err != nil {
						h.logger.Error().Err(err).Str("event", "config.auto_reload_failed").Msg("automatic config reload failed")
					}
				})
			}

		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().Err(err).Str("event", "config.watcher_error").Msg("config watcher error")
		}
	}
}
