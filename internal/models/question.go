// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// Question represents a question and owns its answers. The question row is the
// unit of write-transaction: every mutation locks it, bumps Version and commits
// together with the outbox rows describing the change.
type Question struct {
	ID                string   `gorm:"primaryKey;size:36" json:"id"`
	Title             string   `gorm:"not null" json:"title"`
	Content           string   `gorm:"type:text;not null" json:"content"`
	TagSlugs          []string `gorm:"serializer:json" json:"tagSlugs"`
	AskerID           string   `gorm:"not null;index" json:"askerId"`
	AskerDisplayName  string   `gorm:"not null" json:"askerDisplayName"`
	ViewCount         int      `gorm:"not null;default:0" json:"viewCount"`
	AnswerCount       int      `gorm:"not null;default:0" json:"answerCount"`
	HasAcceptedAnswer bool     `gorm:"not null;default:false" json:"hasAcceptedAnswer"`
	// Version increases with every committed mutation and is stamped onto each
	// outbox event so the projector can order deliveries.
	Version   int        `gorm:"not null;default:0" json:"-"`
	Answers   []Answer   `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"answers,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// Answer represents one answer to a question. It back-references its question
// but is owned by it: deleting the question deletes its answers.
type Answer struct {
	ID              string     `gorm:"primaryKey;size:36" json:"id"`
	QuestionID      string     `gorm:"not null;index" json:"questionId"`
	Content         string     `gorm:"type:text;not null" json:"content"`
	UserID          string     `gorm:"not null;index" json:"userId"`
	UserDisplayName string     `gorm:"not null" json:"userDisplayName"`
	Accepted        bool       `gorm:"not null;default:false" json:"accepted"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       *time.Time `json:"updatedAt,omitempty"`
}
