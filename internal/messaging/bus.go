// Package messaging implements the durable event channel on Redis Streams.
// Delivery to a consumer group is at-least-once: entries stay pending until
// acknowledged and stale pending entries are reclaimed for redelivery, so
// every consumer must be idempotent.
package messaging

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/javidhasanzade/J-Overflow/internal/events"
	"github.com/javidhasanzade/J-Overflow/internal/observability"

	"github.com/redis/go-redis/v9"
)

const envelopeField = "envelope"

// Publisher appends event envelopes to the stream.
type Publisher struct {
	rdb    *redis.Client
	stream string
}

// NewPublisher creates a publisher for the given stream.
func NewPublisher(rdb *redis.Client, stream string) *Publisher {
	return &Publisher{rdb: rdb, stream: stream}
}

// Publish appends the envelope to the stream.
func (p *Publisher) Publish(ctx context.Context, env events.Envelope) error {
	data, err := events.Encode(env)
	if err != nil {
		return err
	}
	err = p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{envelopeField: string(data)},
	}).Err()
	if err != nil {
		observability.RedisErrors.WithLabelValues("xadd").Inc()
		return err
	}
	observability.EventsPublished.WithLabelValues(env.EventType).Inc()
	return nil
}

// Handler processes one delivered envelope. Returning an error leaves the
// entry pending for redelivery.
type Handler func(ctx context.Context, env events.Envelope) error

// Subscriber drains a consumer group of the stream.
type Subscriber struct {
	rdb      *redis.Client
	stream   string
	group    string
	consumer string
	log      *observability.Logger

	// Block bounds each XREADGROUP call; MinIdle is how long an entry may sit
	// pending with another consumer before being reclaimed here.
	Block   time.Duration
	MinIdle time.Duration
}

// NewSubscriber creates a subscriber bound to a consumer group.
func NewSubscriber(rdb *redis.Client, stream, group, consumer string) *Subscriber {
	return &Subscriber{
		rdb:      rdb,
		stream:   stream,
		group:    group,
		consumer: consumer,
		log:      observability.NewLogger("subscriber"),
		Block:    5 * time.Second,
		MinIdle:  time.Minute,
	}
}

// EnsureGroup creates the consumer group from the beginning of the stream.
// An already existing group is not an error.
func (s *Subscriber) EnsureGroup(ctx context.Context) error {
	err := s.rdb.XGroupCreateMkStream(ctx, s.stream, s.group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

// Run reads new entries and reclaims stale pending ones until ctx is done.
// Successfully handled entries are acknowledged; handler failures leave them
// pending. Malformed entries are acknowledged and dropped so one poison
// message cannot wedge the group.
func (s *Subscriber) Run(ctx context.Context, handle Handler) error {
	if err := s.EnsureGroup(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		s.reclaim(ctx, handle)

		streams, err := s.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    s.group,
			Consumer: s.consumer,
			Streams:  []string{s.stream, ">"},
			Count:    16,
			Block:    s.Block,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			observability.RedisErrors.WithLabelValues("xreadgroup").Inc()
			s.log.Error("read group failed", slog.String("error", err.Error()))
			time.Sleep(time.Second)
			continue
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				s.process(ctx, msg, handle)
			}
		}
	}
}

// reclaim takes over entries another consumer left pending for too long.
func (s *Subscriber) reclaim(ctx context.Context, handle Handler) {
	msgs, _, err := s.rdb.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   s.stream,
		Group:    s.group,
		Consumer: s.consumer,
		MinIdle:  s.MinIdle,
		Start:    "0",
		Count:    16,
	}).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			observability.RedisErrors.WithLabelValues("xautoclaim").Inc()
		}
		return
	}
	for _, msg := range msgs {
		s.process(ctx, msg, handle)
	}
}

func (s *Subscriber) process(ctx context.Context, msg redis.XMessage, handle Handler) {
	raw, ok := msg.Values[envelopeField].(string)
	if !ok {
		s.log.Warn("discarding entry without envelope", slog.String("id", msg.ID))
		observability.EventsDiscarded.WithLabelValues("malformed").Inc()
		s.ack(ctx, msg.ID)
		return
	}

	env, err := events.Decode([]byte(raw))
	if err != nil {
		s.log.Warn("discarding malformed envelope",
			slog.String("id", msg.ID),
			slog.String("error", err.Error()))
		observability.EventsDiscarded.WithLabelValues("malformed").Inc()
		s.ack(ctx, msg.ID)
		return
	}

	if err := handle(ctx, env); err != nil {
		// Left pending; redelivered via XAUTOCLAIM once MinIdle passes.
		observability.EventsConsumed.WithLabelValues(env.EventType, "error").Inc()
		s.log.Error("handler failed, leaving entry pending",
			slog.String("id", msg.ID),
			slog.String("event_type", env.EventType),
			slog.String("error", err.Error()))
		return
	}

	observability.EventsConsumed.WithLabelValues(env.EventType, "ok").Inc()
	s.ack(ctx, msg.ID)
}

func (s *Subscriber) ack(ctx context.Context, id string) {
	if err := s.rdb.XAck(ctx, s.stream, s.group, id).Err(); err != nil && ctx.Err() == nil {
		observability.RedisErrors.WithLabelValues("xack").Inc()
		s.log.Error("ack failed", slog.String("id", id), slog.String("error", err.Error()))
	}
}
