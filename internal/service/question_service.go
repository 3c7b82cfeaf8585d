package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/javidhasanzade/J-Overflow/internal/events"
	"github.com/javidhasanzade/J-Overflow/internal/models"
	"github.com/javidhasanzade/J-Overflow/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// QuestionService executes domain commands against the question aggregate.
// Every mutation runs in one transaction that locks the question row, applies
// the change and appends the resulting outbox events, so a committed mutation
// and its events are inseparable.
type QuestionService struct {
	questions repository.QuestionRepository
	outbox    repository.OutboxRepository
	tags      *TagService
}

// CreateQuestionInput carries the create command payload.
type CreateQuestionInput struct {
	Title     string
	Content   string
	Tags      []string
	AskerID   string
	AskerName string
}

// UpdateQuestionInput carries the update command payload.
type UpdateQuestionInput struct {
	QuestionID  string
	Title       string
	Content     string
	Tags        []string
	RequesterID string
}

// PostAnswerInput carries the post-answer command payload.
type PostAnswerInput struct {
	QuestionID string
	Content    string
	UserID     string
	UserName   string
}

// UpdateAnswerInput carries the update-answer command payload.
type UpdateAnswerInput struct {
	QuestionID  string
	AnswerID    string
	Content     string
	RequesterID string
}

// NewQuestionService creates a new question service
func NewQuestionService(
	questions repository.QuestionRepository,
	outbox repository.OutboxRepository,
	tags *TagService,
) *QuestionService {
	return &QuestionService{
		questions: questions,
		outbox:    outbox,
		tags:      tags,
	}
}

// CreateQuestion validates tags and required fields, commits the new question
// and enqueues QuestionCreated.
func (s *QuestionService) CreateQuestion(ctx context.Context, in CreateQuestionInput) (*models.Question, error) {
	if in.Title == "" || in.Content == "" {
		return nil, models.NewValidationError("Title and content are required")
	}
	if in.AskerID == "" || in.AskerName == "" {
		return nil, models.NewValidationError("Cannot get user details")
	}

	question := &models.Question{
		ID:               uuid.NewString(),
		Title:            in.Title,
		Content:          in.Content,
		TagSlugs:         in.Tags,
		AskerID:          in.AskerID,
		AskerDisplayName: in.AskerName,
		Version:          1,
		CreatedAt:        time.Now().UTC(),
	}

	err := s.questions.Transact(ctx, func(tx *gorm.DB) error {
		if err := s.tags.Validate(ctx, tx, in.Tags); err != nil {
			return err
		}
		if err := s.questions.Create(ctx, tx, question); err != nil {
			return models.NewInternalError(err)
		}
		return s.appendEvent(ctx, tx, events.TypeQuestionCreated, question.ID, question.Version, events.QuestionCreated{
			QuestionID: question.ID,
			Title:      question.Title,
			Content:    question.Content,
			CreatedAt:  question.CreatedAt,
			TagSlugs:   question.TagSlugs,
		})
	})
	if err != nil {
		return nil, err
	}
	return question, nil
}

// UpdateQuestion replaces title, content and tags after an ownership check and
// enqueues QuestionUpdated.
func (s *QuestionService) UpdateQuestion(ctx context.Context, in UpdateQuestionInput) error {
	if in.Title == "" || in.Content == "" {
		return models.NewValidationError("Title and content are required")
	}

	return s.questions.Transact(ctx, func(tx *gorm.DB) error {
		question, err := s.questions.GetForUpdate(ctx, tx, in.QuestionID)
		if err != nil {
			return questionErr(err, in.QuestionID)
		}
		if question.AskerID != in.RequesterID {
			return models.NewForbiddenError("Only the asker can update the question")
		}
		if err := s.tags.Validate(ctx, tx, in.Tags); err != nil {
			return err
		}

		now := time.Now().UTC()
		question.Title = in.Title
		question.Content = in.Content
		question.TagSlugs = in.Tags
		question.UpdatedAt = &now
		question.Version++

		if err := s.questions.Save(ctx, tx, question); err != nil {
			return models.NewInternalError(err)
		}
		return s.appendEvent(ctx, tx, events.TypeQuestionUpdated, question.ID, question.Version, events.QuestionUpdated{
			QuestionID: question.ID,
			Title:      question.Title,
			Content:    question.Content,
			TagSlugs:   question.TagSlugs,
		})
	})
}

// DeleteQuestion removes the question and all its answers and enqueues
// QuestionDeleted.
func (s *QuestionService) DeleteQuestion(ctx context.Context, questionID, requesterID string) error {
	return s.questions.Transact(ctx, func(tx *gorm.DB) error {
		question, err := s.questions.GetForUpdate(ctx, tx, questionID)
		if err != nil {
			return questionErr(err, questionID)
		}
		if question.AskerID != requesterID {
			return models.NewForbiddenError("Only the asker can delete the question")
		}

		question.Version++
		if err := s.questions.Delete(ctx, tx, question); err != nil {
			return models.NewInternalError(err)
		}
		return s.appendEvent(ctx, tx, events.TypeQuestionDeleted, question.ID, question.Version, events.QuestionDeleted{
			QuestionID: question.ID,
		})
	})
}

// GetQuestion returns the question with its answers and bumps the view count.
// The increment touches only the view_count column, so it cannot lose a race
// against a concurrent full-entity update, and it emits no event.
func (s *QuestionService) GetQuestion(ctx context.Context, questionID string) (*models.Question, error) {
	question, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		return nil, questionErr(err, questionID)
	}
	if err := s.questions.IncrementViewCount(ctx, questionID); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewInternalError(err)
	}
	return question, nil
}

// ListQuestions returns questions newest first, optionally filtered by tag.
func (s *QuestionService) ListQuestions(ctx context.Context, tag string) ([]*models.Question, error) {
	questions, err := s.questions.List(ctx, tag)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return questions, nil
}

// PostAnswer attaches a new answer, increments the answer count and enqueues
// AnswerCountUpdated with the new count.
func (s *QuestionService) PostAnswer(ctx context.Context, in PostAnswerInput) (*models.Answer, error) {
	if in.Content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if in.UserID == "" || in.UserName == "" {
		return nil, models.NewValidationError("Cannot get user details")
	}

	answer := &models.Answer{
		ID:              uuid.NewString(),
		QuestionID:      in.QuestionID,
		Content:         in.Content,
		UserID:          in.UserID,
		UserDisplayName: in.UserName,
		CreatedAt:       time.Now().UTC(),
	}

	err := s.questions.Transact(ctx, func(tx *gorm.DB) error {
		question, err := s.questions.GetForUpdate(ctx, tx, in.QuestionID)
		if err != nil {
			return questionErr(err, in.QuestionID)
		}

		if err := s.questions.CreateAnswer(ctx, tx, answer); err != nil {
			return models.NewInternalError(err)
		}

		question.AnswerCount++
		question.Version++
		if err := s.questions.Save(ctx, tx, question); err != nil {
			return models.NewInternalError(err)
		}
		return s.appendEvent(ctx, tx, events.TypeAnswerCountUpdated, question.ID, question.Version, events.AnswerCountUpdated{
			QuestionID:     question.ID,
			NewAnswerCount: question.AnswerCount,
		})
	})
	if err != nil {
		return nil, err
	}
	return answer, nil
}

// UpdateAnswer replaces the answer content. No event: answers are not
// projected to search.
func (s *QuestionService) UpdateAnswer(ctx context.Context, in UpdateAnswerInput) error {
	if in.Content == "" {
		return models.NewValidationError("Content is required")
	}

	return s.questions.Transact(ctx, func(tx *gorm.DB) error {
		if _, err := s.questions.GetForUpdate(ctx, tx, in.QuestionID); err != nil {
			return questionErr(err, in.QuestionID)
		}
		answer, err := s.questions.GetAnswer(ctx, tx, in.AnswerID)
		if err != nil {
			return answerErr(err, in.AnswerID)
		}
		if answer.QuestionID != in.QuestionID {
			return models.NewValidationError("Cannot update answer details")
		}

		now := time.Now().UTC()
		answer.Content = in.Content
		answer.UpdatedAt = &now
		if err := s.questions.SaveAnswer(ctx, tx, answer); err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
}

// DeleteAnswer removes an answer unless it is accepted, decrements the answer
// count and enqueues AnswerCountUpdated.
func (s *QuestionService) DeleteAnswer(ctx context.Context, questionID, answerID, requesterID string) error {
	return s.questions.Transact(ctx, func(tx *gorm.DB) error {
		question, err := s.questions.GetForUpdate(ctx, tx, questionID)
		if err != nil {
			return questionErr(err, questionID)
		}
		answer, err := s.questions.GetAnswer(ctx, tx, answerID)
		if err != nil {
			return answerErr(err, answerID)
		}
		if answer.QuestionID != questionID || answer.Accepted {
			return models.NewConflictError("Cannot delete the answer")
		}

		if err := s.questions.DeleteAnswer(ctx, tx, answer); err != nil {
			return models.NewInternalError(err)
		}

		question.AnswerCount--
		question.Version++
		if err := s.questions.Save(ctx, tx, question); err != nil {
			return models.NewInternalError(err)
		}
		return s.appendEvent(ctx, tx, events.TypeAnswerCountUpdated, question.ID, question.Version, events.AnswerCountUpdated{
			QuestionID:     question.ID,
			NewAnswerCount: question.AnswerCount,
		})
	})
}

// AcceptAnswer marks the answer accepted. A question can hold at most one
// accepted answer; a second acceptance attempt conflicts regardless of target.
func (s *QuestionService) AcceptAnswer(ctx context.Context, questionID, answerID string) error {
	return s.questions.Transact(ctx, func(tx *gorm.DB) error {
		question, err := s.questions.GetForUpdate(ctx, tx, questionID)
		if err != nil {
			return questionErr(err, questionID)
		}
		answer, err := s.questions.GetAnswer(ctx, tx, answerID)
		if err != nil {
			return answerErr(err, answerID)
		}
		if answer.QuestionID != questionID || question.HasAcceptedAnswer {
			return models.NewConflictError("Cannot accept the answer")
		}

		answer.Accepted = true
		question.HasAcceptedAnswer = true
		question.Version++

		if err := s.questions.SaveAnswer(ctx, tx, answer); err != nil {
			return models.NewInternalError(err)
		}
		if err := s.questions.Save(ctx, tx, question); err != nil {
			return models.NewInternalError(err)
		}
		return s.appendEvent(ctx, tx, events.TypeAnswerAccepted, question.ID, question.Version, events.AnswerAccepted{
			QuestionID: question.ID,
		})
	})
}

// appendEvent serializes the payload into an outbox row inside the caller's
// transaction.
func (s *QuestionService) appendEvent(ctx context.Context, tx *gorm.DB, eventType, questionID string, version int, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return models.NewInternalError(err)
	}
	row := &models.OutboxEvent{
		EventID:    uuid.NewString(),
		QuestionID: questionID,
		EventType:  eventType,
		Payload:    raw,
		Version:    version,
	}
	if err := s.outbox.Append(ctx, tx, row); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func questionErr(err error, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError("Question", id)
	}
	return models.NewInternalError(err)
}

func answerErr(err error, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError("Answer", id)
	}
	return models.NewInternalError(err)
}
