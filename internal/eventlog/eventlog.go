// SPDX-License-Identifier: MIT

// Package eventlog is an append-only diagnostic tap on the notifier's
// flush path: every event actually delivered to a sink is also recorded
// here, keyed by (zone, monotonic sequence), so an operator can later ask
// "what did zone 1 grant in the last five minutes". Nothing in the engine
// reads from this log; it exists purely for post-hoc inspection through
// the admin API.
package eventlog

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/log"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/notifier"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/resource"
)

// Record is one logged event plus the sequence number it was assigned.
type Record struct {
	Seq   uint64         `json:"seq"`
	Event notifier.Event `json:"event"`
}

// Log is a badger-backed append-only event log, one logical stream per
// zone multiplexed into a single embedded database via key prefixing.
type Log struct {
	db *badger.DB
}

// Open opens (creating if necessary) the event log at path.
func Open(path string) (*Log, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("eventlog: open failed: %w", err)
	}
	return &Log{db: db}, nil
}

// Close releases the underlying database.
func (l *Log) Close() error {
	return l.db.Close()
}

// key packs zone and seq into a sortable byte key: a fixed-width zone
// prefix followed by a big-endian sequence number, so that a prefix scan
// over one zone yields events in append order.
func key(zone resource.ZoneID, seq uint64) []byte {
	b := make([]byte, 8+8)
	binary.BigEndian.PutUint64(b[:8], uint64(int64(zone)))
	binary.BigEndian.PutUint64(b[8:], seq)
	return b
}

func zonePrefix(zone resource.ZoneID) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(int64(zone)))
	return b
}

// Append records ev under the next sequence number for its zone. Sink is
// the function to register with engine.RegisterSink/notifier so every
// flushed event reaches the log without the engine itself depending on
// eventlog.
func (l *Log) Append(ev notifier.Event) error {
	zone := ev.ZoneID
	return l.db.Update(func(txn *badger.Txn) error {
		seq, err := l.nextSeqLocked(txn, zone)
		if err != nil {
			return err
		}
		rec := Record{Seq: seq, Event: ev}
		buf, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return txn.Set(key(zone, seq), buf)
	})
}

func (l *Log) nextSeqLocked(txn *badger.Txn, zone resource.ZoneID) (uint64, error) {
	prefix := zonePrefix(zone)
	it := txn.NewIterator(badger.IteratorOptions{Reverse: true, Prefix: prefix})
	defer it.Close()

	seekKey := make([]byte, 16)
	copy(seekKey, prefix)
	for i := 8; i < 16; i++ {
		seekKey[i] = 0xFF
	}
	it.Seek(seekKey)
	if !it.ValidForPrefix(prefix) {
		return 1, nil
	}
	last := it.Item().Key()
	return binary.BigEndian.Uint64(last[8:]) + 1, nil
}

// Sink adapts Append to notifier.Sink, swallowing write failures beyond a
// best-effort log entry: diagnostic history is not allowed to bring down
// the engine's flush path if the disk is wedged.
func (l *Log) Sink() notifier.Sink {
	return func(ev notifier.Event) {
		if err := l.Append(ev); err != nil {
			log.WithComponent("eventlog").Warn().Err(err).Msg("eventlog append failed")
		}
	}
}

// Tail returns the most recent limit records for zone, oldest first. A
// limit of 0 returns every record for the zone.
func (l *Log) Tail(ctx context.Context, zone resource.ZoneID, limit int) ([]Record, error) {
	var recs []Record
	err := l.db.View(func(txn *badger.Txn) error {
		prefix := zonePrefix(zone)
		it := txn.NewIterator(badger.IteratorOptions{Reverse: true, Prefix: prefix})
		defer it.Close()

		seekKey := make([]byte, 16)
		copy(seekKey, prefix)
		for i := 8; i < 16; i++ {
			seekKey[i] = 0xFF
		}
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			item := it.Item()
			var rec Record
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
			recs = append(recs, rec)
			if limit > 0 && len(recs) >= limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	// recs was collected newest-first; reverse to oldest-first.
	for i, j := 0, len(recs)-1; i < j; i, j = i+1, j-1 {
		recs[i], recs[j] = recs[j], recs[i]
	}
	return recs, nil
}
