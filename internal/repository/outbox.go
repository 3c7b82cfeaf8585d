package repository

import (
	"context"
	"time"

	"github.com/javidhasanzade/J-Overflow/internal/models"

	"gorm.io/gorm"
)

// OutboxRepository persists events-to-publish alongside the mutations that
// produced them, and hands them to the relay in commit order.
type OutboxRepository interface {
	Append(ctx context.Context, tx *gorm.DB, events ...*models.OutboxEvent) error
	FetchUnpublished(ctx context.Context, limit int) ([]models.OutboxEvent, error)
	MarkPublished(ctx context.Context, ids []uint) error
	CountPending(ctx context.Context) (int64, error)
}

// outboxRepository implements OutboxRepository
type outboxRepository struct {
	db *gorm.DB
}

// NewOutboxRepository creates a new outbox repository
func NewOutboxRepository(db *gorm.DB) OutboxRepository {
	return &outboxRepository{db: db}
}

func (r *outboxRepository) Append(ctx context.Context, tx *gorm.DB, events ...*models.OutboxEvent) error {
	if len(events) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Create(events).Error
}

func (r *outboxRepository) FetchUnpublished(ctx context.Context, limit int) ([]models.OutboxEvent, error) {
	var events []models.OutboxEvent
	err := r.db.WithContext(ctx).
		Where("published_at IS NULL").
		Order("id").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *outboxRepository) MarkPublished(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Model(&models.OutboxEvent{}).
		Where("id IN ?", ids).
		Update("published_at", now).Error
}

func (r *outboxRepository) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.OutboxEvent{}).
		Where("published_at IS NULL").
		Count(&count).Error
	return count, err
}
