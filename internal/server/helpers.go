package server

import (
	"errors"

	"github.com/javidhasanzade/J-Overflow/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// currentUser extracts the authenticated caller's id and display name from
// locals set by the auth middleware. On missing claims it writes a 400 JSON
// response and returns errResponseWritten.
func (s *Server) currentUser(c *fiber.Ctx) (userID, userName string, err error) {
	userID, _ = c.Locals("userID").(string)
	userName, _ = c.Locals("userName").(string)
	if userID == "" || userName == "" {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Cannot get user details"))
		return "", "", errResponseWritten
	}
	return userID, userName, nil
}

// respondServiceError maps an application error onto its HTTP status.
func respondServiceError(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, models.StatusForError(err), err)
}
