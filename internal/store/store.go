// SPDX-License-Identifier: MIT

// Package store persists operator disable-overlay intent: the set of
// disable() calls an operator has issued, so a restarted daemon can
// replay them against the freshly rebuilt registry instead of starting
// every resource enabled. The in-memory overlay bitmask state itself is
// never persisted here — only the rules that produce it.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/notifier"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/overlay"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/persistence/sqlite"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/resilience"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/resource"
)

const schemaVersion = 1

// Rule is the persisted form of overlay.Rule, scoped to one zone/family.
type Rule struct {
	Zone   resource.ZoneID
	Family notifier.Family
	Rule   overlay.Rule
}

// OverlayStore persists disable-overlay rules in a single SQLite table,
// keyed by (family, zone, type). Reads and writes are wrapped in a
// circuit breaker so a wedged disk doesn't stall the engine's admin path
// indefinitely.
type OverlayStore struct {
	db      *sql.DB
	breaker *resilience.CircuitBreaker
}

// Open opens (creating if necessary) the overlay rule store at dbPath.
func Open(dbPath string) (*OverlayStore, error) {
	db, err := sqlite.Open(dbPath, sqlite.DefaultConfig())
	if err != nil {
		return nil, err
	}
	s := &OverlayStore{
		db: db,
		breaker: resilience.NewCircuitBreaker(
			"store.overlay",
			5, 10,
			30*time.Second,
			15*time.Second,
		),
	}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("overlay store: migration failed: %w", err)
	}
	return s, nil
}

func (s *OverlayStore) migrate() error {
	var current int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&current); err != nil {
		return err
	}
	if current >= schemaVersion {
		return nil
	}

	const schema = `
	CREATE TABLE IF NOT EXISTS overlay_rules (
		family TEXT NOT NULL,
		zone   INTEGER NOT NULL,
		type   TEXT NOT NULL,
		data   TEXT NOT NULL,
		PRIMARY KEY (family, zone, type, data)
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	_, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion))
	return err
}

// Close releases the underlying database connection.
func (s *OverlayStore) Close() error {
	return s.db.Close()
}

// Ping verifies the store is reachable, for health checks.
func (s *OverlayStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ruleData is the JSON encoding of overlay.Rule's meaningful field for a
// given Kind, so that different kinds don't collide in the data column.
type ruleData struct {
	Query     resource.Requisite `json:"query,omitempty"`
	AppID     resource.AppID     `json:"appId,omitempty"`
	SurfaceID int32              `json:"surfaceId,omitempty"`
}

// Install replaces the entire persisted rule set for one zone and family,
// matching the overlay's own "replace, don't append" semantics.
func (s *OverlayStore) Install(ctx context.Context, zone resource.ZoneID, family notifier.Family, rules []overlay.Rule) error {
	return s.breaker.Execute(func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		if _, err := tx.ExecContext(ctx, "DELETE FROM overlay_rules WHERE family = ? AND zone = ?", family.String(), int(zone)); err != nil {
			return err
		}

		for _, r := range rules {
			data, err := json.Marshal(ruleData{Query: r.Query, AppID: r.AppID, SurfaceID: r.SurfaceID})
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx,
				"INSERT OR REPLACE INTO overlay_rules (family, zone, type, data) VALUES (?, ?, ?, ?)",
				family.String(), int(zone), r.Kind.String(), string(data),
			); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
}

// Load returns every persisted rule, grouped by zone and family, so a
// restarted daemon can replay them against the rebuilt registry.
func (s *OverlayStore) Load(ctx context.Context) ([]Rule, error) {
	var out []Rule
	err := s.breaker.Execute(func() error {
		rows, err := s.db.QueryContext(ctx, "SELECT family, zone, type, data FROM overlay_rules")
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var familyStr, kindStr, data string
			var zoneInt int
			if err := rows.Scan(&familyStr, &zoneInt, &kindStr, &data); err != nil {
				return err
			}
			family, ok := notifier.ParseFamily(familyStr)
			if !ok {
				return fmt.Errorf("overlay store: unknown family %q", familyStr)
			}
			kind, ok := overlay.ParseKind(kindStr)
			if !ok {
				return fmt.Errorf("overlay store: unknown rule kind %q", kindStr)
			}
			var rd ruleData
			if err := json.Unmarshal([]byte(data), &rd); err != nil {
				return err
			}
			out = append(out, Rule{
				Zone:   resource.ZoneID(zoneInt),
				Family: family,
				Rule:   overlay.Rule{Kind: kind, Query: rd.Query, AppID: rd.AppID, SurfaceID: rd.SurfaceID},
			})
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Clear removes every persisted rule for one zone and family, used when an
// operator enables a family back to its unrestricted state.
func (s *OverlayStore) Clear(ctx context.Context, zone resource.ZoneID, family notifier.Family) error {
	return s.breaker.Execute(func() error {
		_, err := s.db.ExecContext(ctx, "DELETE FROM overlay_rules WHERE family = ? AND zone = ?", family.String(), int(zone))
		return err
	})
}
