package server

import (
	"github.com/javidhasanzade/J-Overflow/internal/models"
	"github.com/javidhasanzade/J-Overflow/internal/service"

	"github.com/gofiber/fiber/v2"
)

type answerRequest struct {
	Content string `json:"content"`
}

// PostAnswer handles POST /api/questions/:id/answers
func (s *Server) PostAnswer(c *fiber.Ctx) error {
	userID, userName, err := s.currentUser(c)
	if err != nil {
		return nil
	}

	var req answerRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	answer, err := s.questionService.PostAnswer(c.UserContext(), service.PostAnswerInput{
		QuestionID: c.Params("id"),
		Content:    req.Content,
		UserID:     userID,
		UserName:   userName,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	c.Set("Location", "/api/questions/"+answer.QuestionID)
	return c.Status(fiber.StatusCreated).JSON(answer)
}

// UpdateAnswer handles PUT /api/questions/:id/answers/:answerId
func (s *Server) UpdateAnswer(c *fiber.Ctx) error {
	userID, _, err := s.currentUser(c)
	if err != nil {
		return nil
	}

	var req answerRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	err = s.questionService.UpdateAnswer(c.UserContext(), service.UpdateAnswerInput{
		QuestionID:  c.Params("id"),
		AnswerID:    c.Params("answerId"),
		Content:     req.Content,
		RequesterID: userID,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DeleteAnswer handles DELETE /api/questions/:id/answers/:answerId
func (s *Server) DeleteAnswer(c *fiber.Ctx) error {
	userID, _, err := s.currentUser(c)
	if err != nil {
		return nil
	}

	err = s.questionService.DeleteAnswer(c.UserContext(),
		c.Params("id"), c.Params("answerId"), userID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AcceptAnswer handles POST /api/questions/:id/answers/:answerId/accept
func (s *Server) AcceptAnswer(c *fiber.Ctx) error {
	if _, _, err := s.currentUser(c); err != nil {
		return nil
	}

	err := s.questionService.AcceptAnswer(c.UserContext(),
		c.Params("id"), c.Params("answerId"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
