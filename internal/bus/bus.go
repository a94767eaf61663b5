// SPDX-License-Identifier: MIT

// Package bus publishes arbiter notifier events onto a Redis channel so
// external consumers (instrument clusters, HMI processes in other
// address spaces) can observe grant/revoke activity without linking
// against the engine. It is strictly best-effort: a publish failure is
// logged and counted, never surfaced to the engine's event loop.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/log"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/metrics"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/notifier"
	"github.com/tizenorg/profile.ivi.murphy-sub000/internal/resilience"
)

// ChannelPrefix is prepended to a zone id to form the Redis pub/sub channel
// a zone's events are published to, e.g. "arbiter.events.1".
const ChannelPrefix = "arbiter.events."

// channelFor returns the per-zone channel name events for zone are
// published to. Consumers subscribe per zone rather than to one firehose
// channel so a single busy zone can't drown out the rest.
func channelFor(zone int32) string {
	return ChannelPrefix + strconv.Itoa(int(zone))
}

// wireEvent is the JSON-on-the-wire shape of a notifier.Event. Kept
// separate from notifier.Event so the wire format doesn't silently change
// shape if internal fields are renamed.
type wireEvent struct {
	Family    string `json:"family"`
	EventID   string `json:"event"`
	ZoneID    int32  `json:"zoneId"`
	ZoneName  string `json:"zoneName"`
	AppID     string `json:"appId"`
	SurfaceID int32  `json:"surfaceId,omitempty"`
	LayerID   int32  `json:"layerId,omitempty"`
	AreaName  string `json:"areaName,omitempty"`
	AudioID   int32  `json:"audioId,omitempty"`
}

func toWire(e notifier.Event) wireEvent {
	return wireEvent{
		Family:    e.Family.String(),
		EventID:   e.EventID.String(),
		ZoneID:    int32(e.ZoneID),
		ZoneName:  e.ZoneName,
		AppID:     string(e.AppID),
		SurfaceID: e.SurfaceID,
		LayerID:   e.LayerID,
		AreaName:  e.AreaName,
		AudioID:   int32(e.AudioID),
	}
}

// Publisher publishes notifier events to Redis, guarded by a circuit
// breaker so a down Redis instance degrades to silent drops instead of
// blocking the engine's single-goroutine event loop on every commit.
type Publisher struct {
	client  *redis.Client
	breaker *resilience.CircuitBreaker
	logger  zerolog.Logger
	timeout time.Duration
}

// NewPublisher connects to addr/db. The connection is not verified here;
// call Ping to confirm reachability (used by health checks).
func NewPublisher(addr string, db int) *Publisher {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	return &Publisher{
		client: client,
		breaker: resilience.NewCircuitBreaker(
			"bus.publish",
			5, 10,
			30*time.Second,
			15*time.Second,
		),
		logger:  log.WithComponent("bus"),
		timeout: 2 * time.Second,
	}
}

// Sink adapts Publish to a notifier.Sink, for RegisterSink.
func (p *Publisher) Sink() notifier.Sink {
	return func(e notifier.Event) {
		p.Publish(e)
	}
}

// Publish serializes and publishes e, dropping it on any failure. The
// circuit breaker trips after repeated failures so a down Redis instance
// doesn't pay a dial timeout on every single commit.
func (p *Publisher) Publish(e notifier.Event) {
	err := p.breaker.Execute(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()

		payload, err := json.Marshal(toWire(e))
		if err != nil {
			return fmt.Errorf("marshal event: %w", err)
		}
		return p.client.Publish(ctx, channelFor(int32(e.ZoneID)), payload).Err()
	})
	if err != nil {
		metrics.IncBusPublish("dropped")
		p.logger.Warn().Err(err).
			Str("family", e.Family.String()).
			Str("event", e.EventID.String()).
			Msg("bus publish dropped")
		return
	}
	metrics.IncBusPublish("ok")
}

// Ping checks Redis reachability, used by the bus health checker.
func (p *Publisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Close releases the underlying Redis connection.
func (p *Publisher) Close() error {
	return p.client.Close()
}
