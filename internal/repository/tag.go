package repository

import (
	"context"

	"github.com/javidhasanzade/J-Overflow/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TagRegistry defines the interface for tag registry lookups.
type TagRegistry interface {
	// ExistingSlugs returns which of the candidate slugs are registered,
	// resolved against the caller's transaction when tx is non-nil.
	ExistingSlugs(ctx context.Context, tx *gorm.DB, slugs []string) ([]string, error)
	List(ctx context.Context) ([]models.Tag, error)
	Upsert(ctx context.Context, tags ...models.Tag) error
}

// tagRepository implements TagRegistry
type tagRepository struct {
	db *gorm.DB
}

// NewTagRepository creates a new tag repository
func NewTagRepository(db *gorm.DB) TagRegistry {
	return &tagRepository{db: db}
}

func (r *tagRepository) ExistingSlugs(ctx context.Context, tx *gorm.DB, slugs []string) ([]string, error) {
	if len(slugs) == 0 {
		return nil, nil
	}
	db := r.db
	if tx != nil {
		db = tx
	}
	var existing []string
	err := db.WithContext(ctx).Model(&models.Tag{}).
		Where("slug IN ?", slugs).
		Pluck("slug", &existing).Error
	if err != nil {
		return nil, err
	}
	return existing, nil
}

func (r *tagRepository) List(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	err := r.db.WithContext(ctx).Order("slug").Find(&tags).Error
	if err != nil {
		return nil, err
	}
	return tags, nil
}

func (r *tagRepository) Upsert(ctx context.Context, tags ...models.Tag) error {
	if len(tags) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{"name"}),
		}).
		Create(&tags).Error
}
