// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"

	"github.com/javidhasanzade/J-Overflow/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QuestionRepository defines the interface for question and answer data operations.
// Mutating flows run inside Transact; methods taking a tx handle participate in
// the caller's transaction so invariants are checked and committed atomically.
type QuestionRepository interface {
	Transact(ctx context.Context, fn func(tx *gorm.DB) error) error
	GetForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.Question, error)
	GetByID(ctx context.Context, id string) (*models.Question, error)
	List(ctx context.Context, tag string) ([]*models.Question, error)
	Create(ctx context.Context, tx *gorm.DB, question *models.Question) error
	Save(ctx context.Context, tx *gorm.DB, question *models.Question) error
	Delete(ctx context.Context, tx *gorm.DB, question *models.Question) error
	IncrementViewCount(ctx context.Context, id string) error
	GetAnswer(ctx context.Context, tx *gorm.DB, answerID string) (*models.Answer, error)
	CreateAnswer(ctx context.Context, tx *gorm.DB, answer *models.Answer) error
	SaveAnswer(ctx context.Context, tx *gorm.DB, answer *models.Answer) error
	DeleteAnswer(ctx context.Context, tx *gorm.DB, answer *models.Answer) error
}

// questionRepository implements QuestionRepository
type questionRepository struct {
	db *gorm.DB
}

// NewQuestionRepository creates a new question repository
func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db}
}

func (r *questionRepository) Transact(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// GetForUpdate loads the question row with a row-level lock so concurrent
// mutations of answerCount and the acceptance flag serialize. SQLite has no
// FOR UPDATE; its writes serialize on the database lock instead.
func (r *questionRepository) GetForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.Question, error) {
	q := tx.WithContext(ctx)
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var question models.Question
	if err := q.First(&question, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

func (r *questionRepository) GetByID(ctx context.Context, id string) (*models.Question, error) {
	var question models.Question
	err := r.db.WithContext(ctx).
		Preload("Answers").
		First(&question, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &question, nil
}

func (r *questionRepository) List(ctx context.Context, tag string) ([]*models.Question, error) {
	var questions []*models.Question
	query := r.db.WithContext(ctx)
	if tag != "" {
		// TagSlugs is a JSON-serialized array; match the quoted slug.
		query = query.Where("tag_slugs LIKE ?", "%\""+tag+"\"%")
	}
	err := query.Order("created_at DESC").Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *questionRepository) Create(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	return tx.WithContext(ctx).Create(question).Error
}

// Save writes the question row but never view_count: that column is owned by
// IncrementViewCount, so a full-entity update cannot undo concurrent bumps.
func (r *questionRepository) Save(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	return tx.WithContext(ctx).Omit("view_count", "created_at").Save(question).Error
}

func (r *questionRepository) Delete(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	if err := tx.WithContext(ctx).Where("question_id = ?", question.ID).Delete(&models.Answer{}).Error; err != nil {
		return err
	}
	return tx.WithContext(ctx).Delete(question).Error
}

// IncrementViewCount bumps only the view_count column. It deliberately avoids
// the fetch/save path so a concurrent full-entity update cannot clobber it.
func (r *questionRepository) IncrementViewCount(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Model(&models.Question{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *questionRepository) GetAnswer(ctx context.Context, tx *gorm.DB, answerID string) (*models.Answer, error) {
	var answer models.Answer
	if err := tx.WithContext(ctx).First(&answer, "id = ?", answerID).Error; err != nil {
		return nil, err
	}
	return &answer, nil
}

func (r *questionRepository) CreateAnswer(ctx context.Context, tx *gorm.DB, answer *models.Answer) error {
	return tx.WithContext(ctx).Create(answer).Error
}

func (r *questionRepository) SaveAnswer(ctx context.Context, tx *gorm.DB, answer *models.Answer) error {
	return tx.WithContext(ctx).Save(answer).Error
}

func (r *questionRepository) DeleteAnswer(ctx context.Context, tx *gorm.DB, answer *models.Answer) error {
	return tx.WithContext(ctx).Delete(answer).Error
}
