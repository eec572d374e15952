package server

import (
	"bulletin/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// GetFeatureFlags returns configured feature flags and their evaluated state
// for ?user_id= (the administrator when omitted).
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	userID := s.config.AdminID
	if raw := c.Query("user_id"); raw != "" {
		id, err := validation.ParseID("user_id", raw)
		if err != nil {
			return badRequest(c, CodeInvalidPayload, err.Error())
		}
		userID = id
	}

	return c.JSON(fiber.Map{
		"raw":       s.flags.Raw(),
		"evaluated": s.flags.Snapshot(userID),
	})
}
