// Command seed populates the tag registry and optional fake questions.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/javidhasanzade/J-Overflow/internal/config"
	"github.com/javidhasanzade/J-Overflow/internal/database"
	"github.com/javidhasanzade/J-Overflow/internal/repository"
	"github.com/javidhasanzade/J-Overflow/internal/seed"
	"github.com/javidhasanzade/J-Overflow/internal/service"
)

func main() {
	numQuestions := flag.Int("questions", 0, "number of fake questions to create")
	answersPer := flag.Int("answers", 2, "answers per fake question")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	questionRepo := repository.NewQuestionRepository(db)
	tagRepo := repository.NewTagRepository(db)
	outboxRepo := repository.NewOutboxRepository(db)
	tagService := service.NewTagService(tagRepo)
	questionService := service.NewQuestionService(questionRepo, outboxRepo, tagService)

	err = seed.Run(context.Background(), tagRepo, questionService, seed.Options{
		NumQuestions:       *numQuestions,
		AnswersPerQuestion: *answersPer,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Printf("Seeded %d tags and %d questions", len(seed.DefaultTags), *numQuestions)
}
