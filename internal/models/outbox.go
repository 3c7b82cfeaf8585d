package models

import "time"

// OutboxEvent is a domain event awaiting publication. Rows are inserted in the
// same transaction as the aggregate mutation they describe and drained by the
// relay, so a committed mutation always eventually reaches the stream even if
// the process dies before publishing.
type OutboxEvent struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	EventID     string     `gorm:"uniqueIndex;size:36" json:"event_id"`
	QuestionID  string     `gorm:"index" json:"question_id"`
	EventType   string     `gorm:"not null" json:"event_type"`
	Payload     []byte     `gorm:"not null" json:"payload"`
	Version     int        `gorm:"not null" json:"version"`
	CreatedAt   time.Time  `json:"created_at"`
	PublishedAt *time.Time `gorm:"index" json:"published_at"`
}
