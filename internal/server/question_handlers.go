package server

import (
	"github.com/javidhasanzade/J-Overflow/internal/models"
	"github.com/javidhasanzade/J-Overflow/internal/service"

	"github.com/gofiber/fiber/v2"
)

type questionRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

// ListQuestions handles GET /api/questions?tag=slug
func (s *Server) ListQuestions(c *fiber.Ctx) error {
	questions, err := s.questionService.ListQuestions(c.UserContext(), c.Query("tag"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(questions)
}

// GetQuestion handles GET /api/questions/:id
func (s *Server) GetQuestion(c *fiber.Ctx) error {
	question, err := s.questionService.GetQuestion(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(question)
}

// CreateQuestion handles POST /api/questions
func (s *Server) CreateQuestion(c *fiber.Ctx) error {
	userID, userName, err := s.currentUser(c)
	if err != nil {
		return nil
	}

	var req questionRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	question, err := s.questionService.CreateQuestion(c.UserContext(), service.CreateQuestionInput{
		Title:     req.Title,
		Content:   req.Content,
		Tags:      req.Tags,
		AskerID:   userID,
		AskerName: userName,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	c.Set("Location", "/api/questions/"+question.ID)
	return c.Status(fiber.StatusCreated).JSON(question)
}

// UpdateQuestion handles PUT /api/questions/:id
func (s *Server) UpdateQuestion(c *fiber.Ctx) error {
	userID, _, err := s.currentUser(c)
	if err != nil {
		return nil
	}

	var req questionRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	err = s.questionService.UpdateQuestion(c.UserContext(), service.UpdateQuestionInput{
		QuestionID:  c.Params("id"),
		Title:       req.Title,
		Content:     req.Content,
		Tags:        req.Tags,
		RequesterID: userID,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DeleteQuestion handles DELETE /api/questions/:id
func (s *Server) DeleteQuestion(c *fiber.Ctx) error {
	userID, _, err := s.currentUser(c)
	if err != nil {
		return nil
	}

	if err := s.questionService.DeleteQuestion(c.UserContext(), c.Params("id"), userID); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
