package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/javidhasanzade/J-Overflow/internal/events"
	"github.com/javidhasanzade/J-Overflow/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

var markupPattern = regexp.MustCompile(`<.*?>`)

// StripMarkup removes markup runs from rich question content.
func StripMarkup(content string) string {
	return markupPattern.ReplaceAllString(content, "")
}

// Projector transforms question events into idempotent index writes. It is
// safe to invoke concurrently and repeatedly for the same event: the store's
// version gate discards anything not newer than what is already applied, and
// delete tombstones keep a late retried update from resurrecting a document.
type Projector struct {
	store DocumentStore
	log   *observability.Logger
}

// NewProjector creates a projector over the given document store.
func NewProjector(store DocumentStore) *Projector {
	return &Projector{
		store: store,
		log:   observability.NewLogger("projector"),
	}
}

// Apply projects one envelope. A nil return acknowledges the delivery; an
// error leaves it pending for redelivery.
func (p *Projector) Apply(ctx context.Context, env events.Envelope) error {
	span, ctx := observability.NewSpan(ctx, "projector.apply")
	span.AddAttributes(
		attribute.String("event.type", env.EventType),
		attribute.String("question.id", env.QuestionID),
	)
	defer span.End()

	err := p.apply(ctx, env)
	span.SetError(err)
	return err
}

func (p *Projector) apply(ctx context.Context, env events.Envelope) error {
	switch env.EventType {
	case events.TypeQuestionCreated:
		var payload events.QuestionCreated
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			return fmt.Errorf("decode %s: %w", env.EventType, err)
		}
		applied, err := p.store.Upsert(ctx, env.QuestionID, env.Version, map[string]string{
			"title":      payload.Title,
			"content":    StripMarkup(payload.Content),
			"created_at": strconv.FormatInt(payload.CreatedAt.Unix(), 10),
			"tags":       strings.Join(payload.TagSlugs, ","),
		})
		if err != nil {
			return err
		}
		p.logApplied(env, applied, "created")
		return nil

	case events.TypeQuestionUpdated:
		var payload events.QuestionUpdated
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			return fmt.Errorf("decode %s: %w", env.EventType, err)
		}
		applied, err := p.store.Upsert(ctx, env.QuestionID, env.Version, map[string]string{
			"title":   payload.Title,
			"content": StripMarkup(payload.Content),
			"tags":    strings.Join(payload.TagSlugs, ","),
		})
		if err != nil {
			return err
		}
		p.logApplied(env, applied, "updated")
		return nil

	case events.TypeQuestionDeleted:
		applied, err := p.store.Delete(ctx, env.QuestionID, env.Version)
		if err != nil {
			return err
		}
		p.logApplied(env, applied, "deleted")
		return nil

	case events.TypeAnswerCountUpdated, events.TypeAnswerAccepted:
		// Answers are not searchable content; consume and discard.
		return nil

	default:
		p.log.Warn("ignoring unknown event type",
			slog.String("event_type", env.EventType),
			slog.String("question_id", env.QuestionID))
		observability.EventsDiscarded.WithLabelValues("unknown_type").Inc()
		return nil
	}
}

func (p *Projector) logApplied(env events.Envelope, applied bool, action string) {
	if !applied {
		observability.EventsDiscarded.WithLabelValues("stale").Inc()
		p.log.Info("discarded stale delivery",
			slog.String("question_id", env.QuestionID),
			slog.Int("version", env.Version))
		return
	}
	p.log.Info("document "+action,
		slog.String("question_id", env.QuestionID),
		slog.Int("version", env.Version))
}
