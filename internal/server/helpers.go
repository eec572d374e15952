package server

import (
	"errors"

	"bulletin/internal/dispatch"
	"bulletin/internal/models"
	"bulletin/internal/notifications"

	"github.com/gofiber/fiber/v2"
)

// Error codes for payloads the adapter cannot route.
const (
	CodeInvalidPayload = "INVALID_PAYLOAD"
	CodeUnknownCommand = "UNKNOWN_COMMAND"
	CodeUnknownAction  = "UNKNOWN_ACTION"
)

// EventResponse is the body of every handled event: the dispatcher result
// plus what happened to its notifications.
type EventResponse struct {
	dispatch.Result
	Delivery notifications.DeliveryReport `json:"delivery"`
}

func respondError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(models.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func badRequest(c *fiber.Ctx, code, message string) error {
	return respondError(c, fiber.StatusBadRequest, code, message)
}

// respond turns a dispatcher outcome into HTTP. Domain errors raised before
// the dispatcher (argument parsing) become refusals the same way the
// dispatcher's own do.
func (s *Server) respond(c *fiber.Ctx, res dispatch.Result, err error) error {
	if err != nil {
		var appErr *models.AppError
		if !errors.As(err, &appErr) || appErr.Code == models.CodeInternal {
			return respondError(c, fiber.StatusInternalServerError, models.CodeInternal, "Internal server error")
		}
		res = dispatch.Result{Refusal: &dispatch.Refusal{Code: appErr.Code, Message: appErr.Message}}
	}

	report := s.notifier.Deliver(c.UserContext(), res.Notifications)
	return c.Status(fiber.StatusOK).JSON(EventResponse{Result: res, Delivery: report})
}
