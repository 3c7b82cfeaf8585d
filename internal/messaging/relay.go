package messaging

import (
	"context"
	"log/slog"
	"time"

	"github.com/javidhasanzade/J-Overflow/internal/events"
	"github.com/javidhasanzade/J-Overflow/internal/models"
	"github.com/javidhasanzade/J-Overflow/internal/observability"
	"github.com/javidhasanzade/J-Overflow/internal/repository"
)

const relayBatchSize = 64

// Relay drains the outbox: it polls committed-but-unpublished events, appends
// them to the stream and marks them published. A crash between publish and
// mark republishes on restart, which the at-least-once contract allows.
type Relay struct {
	outbox    repository.OutboxRepository
	publisher *Publisher
	interval  time.Duration
	log       *observability.Logger
}

// NewRelay creates a relay polling at the given interval.
func NewRelay(outbox repository.OutboxRepository, publisher *Publisher, interval time.Duration) *Relay {
	return &Relay{
		outbox:    outbox,
		publisher: publisher,
		interval:  interval,
		log:       observability.NewLogger("outbox-relay"),
	}
}

// Run polls until ctx is done.
func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Drain(ctx); err != nil && ctx.Err() == nil {
				r.log.Error("outbox drain failed", slog.String("error", err.Error()))
			}
		}
	}
}

// Drain publishes one batch of pending events in commit order. Publish
// failures stop the batch so ordering per question is preserved as far as the
// store provides it; the next tick retries from the failed row.
func (r *Relay) Drain(ctx context.Context) error {
	rows, err := r.outbox.FetchUnpublished(ctx, relayBatchSize)
	if err != nil {
		return err
	}

	var published []uint
	for _, row := range rows {
		if err := r.publisher.Publish(ctx, envelopeFromRow(row)); err != nil {
			r.log.Error("publish failed, will retry",
				slog.String("event_id", row.EventID),
				slog.String("event_type", row.EventType),
				slog.String("error", err.Error()))
			break
		}
		published = append(published, row.ID)
	}

	if err := r.outbox.MarkPublished(ctx, published); err != nil {
		return err
	}

	if pending, err := r.outbox.CountPending(ctx); err == nil {
		observability.OutboxPending.Set(float64(pending))
	}
	return nil
}

func envelopeFromRow(row models.OutboxEvent) events.Envelope {
	return events.Envelope{
		EventID:    row.EventID,
		EventType:  row.EventType,
		QuestionID: row.QuestionID,
		Version:    row.Version,
		OccurredAt: row.CreatedAt,
		Payload:    row.Payload,
	}
}
