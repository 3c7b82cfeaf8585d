// Package service implements the domain command handlers.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/javidhasanzade/J-Overflow/internal/models"
	"github.com/javidhasanzade/J-Overflow/internal/repository"

	"gorm.io/gorm"
)

// Tag count bounds for a question, matching the registry's write-time rules.
const (
	minTagsPerQuestion = 1
	maxTagsPerQuestion = 5
)

// TagService validates question tags against the registry and serves the
// registry's read surface.
type TagService struct {
	tags repository.TagRegistry
}

// NewTagService creates a new tag service
func NewTagService(tags repository.TagRegistry) *TagService {
	return &TagService{tags: tags}
}

// Validate checks every slug against the registry. It runs against the
// caller's transaction handle so the lookup shares the mutation's snapshot.
// The returned validation error names the exact missing slugs.
func (s *TagService) Validate(ctx context.Context, tx *gorm.DB, slugs []string) error {
	if len(slugs) < minTagsPerQuestion || len(slugs) > maxTagsPerQuestion {
		return models.NewValidationError(fmt.Sprintf("Tags must be between %d and %d", minTagsPerQuestion, maxTagsPerQuestion))
	}

	existing, err := s.tags.ExistingSlugs(ctx, tx, slugs)
	if err != nil {
		return models.NewInternalError(err)
	}

	known := make(map[string]bool, len(existing))
	for _, slug := range existing {
		known[slug] = true
	}

	var missing []string
	for _, slug := range slugs {
		if !known[slug] {
			missing = append(missing, slug)
		}
	}
	if len(missing) > 0 {
		return models.NewValidationError("Invalid tags: " + strings.Join(missing, ", "))
	}
	return nil
}

// ListTags returns the full registry ordered by slug.
func (s *TagService) ListTags(ctx context.Context) ([]models.Tag, error) {
	tags, err := s.tags.List(ctx)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return tags, nil
}
