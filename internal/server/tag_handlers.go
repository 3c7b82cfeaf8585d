package server

import (
	"github.com/gofiber/fiber/v2"
)

// ListTags handles GET /api/tags
func (s *Server) ListTags(c *fiber.Ctx) error {
	tags, err := s.tagService.ListTags(c.UserContext())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(tags)
}
