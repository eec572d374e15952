package server

import (
	"errors"
	"strings"

	"bulletin/internal/dispatch"
	"bulletin/internal/middleware"
	"bulletin/internal/models"
	"bulletin/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// CommandEvent is a parsed slash command, e.g. {"command":"like","args":{"post_id":"3"}}.
type CommandEvent struct {
	UserID  int64             `json:"user_id"`
	Command string            `json:"command"`
	Args    map[string]string `json:"args"`
}

// CallbackEvent is an inline button press; Payload is the action payload as sent.
type CallbackEvent struct {
	UserID  int64             `json:"user_id"`
	Action  string            `json:"action"`
	Payload map[string]string `json:"payload"`
}

// MessageEvent is free text that is not a command.
type MessageEvent struct {
	UserID int64  `json:"user_id"`
	Text   string `json:"text"`
}

// captureActor reads user_id from the body so rate limiting and logs can key
// on the acting user.
func (s *Server) captureActor() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var probe struct {
			UserID int64 `json:"user_id"`
		}
		if err := c.BodyParser(&probe); err != nil {
			return badRequest(c, CodeInvalidPayload, "Invalid JSON body")
		}
		if err := validation.ValidateUserID(probe.UserID); err != nil {
			return badRequest(c, CodeInvalidPayload, err.Error())
		}
		c.Locals(middleware.ActorLocal, probe.UserID)
		c.SetUserContext(middleware.WithUserID(c.UserContext(), probe.UserID))
		return c.Next()
	}
}

// HandleCommand routes a command event to its dispatcher entry point.
func (s *Server) HandleCommand(c *fiber.Ctx) error {
	var ev CommandEvent
	if err := c.BodyParser(&ev); err != nil {
		return badRequest(c, CodeInvalidPayload, "Invalid command payload")
	}
	name := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ev.Command), "/"))
	if err := validation.ValidateCommandName(name); err != nil {
		return badRequest(c, CodeInvalidPayload, err.Error())
	}
	run, ok := commandTable[name]
	if !ok {
		return badRequest(c, CodeUnknownCommand, "Unknown command: "+name)
	}
	if ev.Args == nil {
		ev.Args = map[string]string{}
	}
	res, err := run(c.UserContext(), s.dispatcher, ev)
	return s.respond(c, res, err)
}

// HandleCallback routes an inline action back to the dispatcher.
func (s *Server) HandleCallback(c *fiber.Ctx) error {
	var ev CallbackEvent
	if err := c.BodyParser(&ev); err != nil {
		return badRequest(c, CodeInvalidPayload, "Invalid callback payload")
	}
	run, ok := callbackTable[models.ActionKind(ev.Action)]
	if !ok {
		return badRequest(c, CodeUnknownAction, "Unknown action: "+ev.Action)
	}
	if ev.Payload == nil {
		ev.Payload = map[string]string{}
	}
	res, err := run(c.UserContext(), s.dispatcher, ev)
	var perr *payloadError
	if errors.As(err, &perr) {
		return badRequest(c, CodeInvalidPayload, perr.Error())
	}
	return s.respond(c, res, err)
}

// HandleMessage feeds free text into the user's open dialog.
func (s *Server) HandleMessage(c *fiber.Ctx) error {
	var ev MessageEvent
	if err := c.BodyParser(&ev); err != nil {
		return badRequest(c, CodeInvalidPayload, "Invalid message payload")
	}
	if err := validation.ValidateText("text", ev.Text); err != nil {
		return s.respond(c, dispatch.Result{}, models.NewMalformedInputError(err.Error()))
	}
	res, err := s.dispatcher.Message(c.UserContext(), dispatch.TextRequest{UserID: ev.UserID, Text: ev.Text})
	return s.respond(c, res, err)
}
