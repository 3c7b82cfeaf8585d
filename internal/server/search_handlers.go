package server

import (
	"github.com/javidhasanzade/J-Overflow/internal/models"

	"github.com/gofiber/fiber/v2"
)

// SearchQuestions handles GET /api/search?q=...
// It queries the derived index, which lags the authoritative store by the
// event pipeline's latency.
func (s *Server) SearchQuestions(c *fiber.Ctx) error {
	q := c.Query("q")
	if q == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Search query is required"))
	}

	limit := c.QueryInt("limit", 20)
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	docs, err := s.searchStore.Search(c.UserContext(), q, limit)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	return c.JSON(docs)
}
