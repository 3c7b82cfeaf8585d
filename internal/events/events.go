// Package events defines the wire contract between the writer service and its
// subscribers. Payloads are JSON, wrapped in a versioned envelope so consumers
// can order at-least-once, possibly out-of-order deliveries per question.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event type names as they appear on the wire.
const (
	TypeQuestionCreated    = "QuestionCreated"
	TypeQuestionUpdated    = "QuestionUpdated"
	TypeQuestionDeleted    = "QuestionDeleted"
	TypeAnswerCountUpdated = "AnswerCountUpdated"
	TypeAnswerAccepted     = "AnswerAccepted"
)

// Envelope wraps every published event. Version is the question's monotonic
// mutation counter at commit time; EventID makes redeliveries recognizable.
type Envelope struct {
	EventID    string          `json:"eventId"`
	EventType  string          `json:"eventType"`
	QuestionID string          `json:"questionId"`
	Version    int             `json:"version"`
	OccurredAt time.Time       `json:"occurredAt"`
	Payload    json.RawMessage `json:"payload"`
}

// QuestionCreated is published after a question is first committed.
type QuestionCreated struct {
	QuestionID string    `json:"questionId"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
	TagSlugs   []string  `json:"tagSlugs"`
}

// QuestionUpdated is published after title, content or tags change.
type QuestionUpdated struct {
	QuestionID string   `json:"questionId"`
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	TagSlugs   []string `json:"tagSlugs"`
}

// QuestionDeleted is published after a question and its answers are removed.
type QuestionDeleted struct {
	QuestionID string `json:"questionId"`
}

// AnswerCountUpdated is published whenever an answer is posted or deleted.
type AnswerCountUpdated struct {
	QuestionID     string `json:"questionId"`
	NewAnswerCount int    `json:"newAnswerCount"`
}

// AnswerAccepted is published when an answer is accepted.
type AnswerAccepted struct {
	QuestionID string `json:"questionId"`
}

// NewEnvelope serializes payload and wraps it with a fresh event ID.
func NewEnvelope(eventType, questionID string, version int, payload interface{}) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Envelope{
		EventID:    uuid.NewString(),
		EventType:  eventType,
		QuestionID: questionID,
		Version:    version,
		OccurredAt: time.Now().UTC(),
		Payload:    raw,
	}, nil
}

// Encode renders the envelope as a single JSON document for the wire.
func Encode(env Envelope) ([]byte, error) {
	return json.Marshal(env)
}

// Decode parses an envelope and rejects structurally invalid ones so the
// subscriber can discard poison messages instead of retrying them forever.
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.EventType == "" || env.QuestionID == "" {
		return Envelope{}, fmt.Errorf("decode envelope: missing event type or question id")
	}
	return env, nil
}
