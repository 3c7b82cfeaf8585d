// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/javidhasanzade/J-Overflow/internal/models"
	"github.com/javidhasanzade/J-Overflow/internal/repository"
	"github.com/javidhasanzade/J-Overflow/internal/service"

	"github.com/brianvoe/gofakeit/v6"
)

// Options configuration for the seeder
type Options struct {
	NumQuestions       int
	AnswersPerQuestion int
}

// DefaultTags is the initial tag registry.
var DefaultTags = []models.Tag{
	{Slug: "go", Name: "Go"},
	{Slug: "concurrency", Name: "Concurrency"},
	{Slug: "databases", Name: "Databases"},
	{Slug: "testing", Name: "Testing"},
	{Slug: "networking", Name: "Networking"},
	{Slug: "performance", Name: "Performance"},
	{Slug: "web", Name: "Web Development"},
	{Slug: "devops", Name: "DevOps"},
}

// Run seeds the tag registry and, if requested, fake questions with answers.
// Questions go through the service layer so the outbox fills and the search
// index catches up through the normal pipeline.
func Run(ctx context.Context, tags repository.TagRegistry, questions *service.QuestionService, opts Options) error {
	if err := tags.Upsert(ctx, DefaultTags...); err != nil {
		return fmt.Errorf("seed tags: %w", err)
	}

	for i := 0; i < opts.NumQuestions; i++ {
		asker := gofakeit.Name()
		askerID := gofakeit.UUID()

		tagCount := gofakeit.Number(1, 3)
		slugs := make([]string, 0, tagCount)
		seen := map[string]bool{}
		for len(slugs) < tagCount {
			slug := DefaultTags[gofakeit.Number(0, len(DefaultTags)-1)].Slug
			if !seen[slug] {
				seen[slug] = true
				slugs = append(slugs, slug)
			}
		}

		question, err := questions.CreateQuestion(ctx, service.CreateQuestionInput{
			Title:     strings.TrimSuffix(gofakeit.Sentence(8), ".") + "?",
			Content:   "<p>" + gofakeit.Paragraph(2, 3, 12, " ") + "</p>",
			Tags:      slugs,
			AskerID:   askerID,
			AskerName: asker,
		})
		if err != nil {
			return fmt.Errorf("seed question %d: %w", i, err)
		}

		for j := 0; j < opts.AnswersPerQuestion; j++ {
			_, err := questions.PostAnswer(ctx, service.PostAnswerInput{
				QuestionID: question.ID,
				Content:    gofakeit.Paragraph(1, 2, 10, " "),
				UserID:     gofakeit.UUID(),
				UserName:   gofakeit.Name(),
			})
			if err != nil {
				return fmt.Errorf("seed answer %d/%d: %w", i, j, err)
			}
			// Spread creation times a little for nicer listings.
			time.Sleep(time.Millisecond)
		}
	}
	return nil
}
