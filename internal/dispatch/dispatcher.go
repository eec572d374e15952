// Package dispatch exposes one entry point per command and callback. Each
// takes a typed request and returns a Result; domain errors become refusals.
package dispatch

import (
	"context"
	"errors"
	"log/slog"

	"bulletin/internal/conversation"
	"bulletin/internal/engagement"
	"bulletin/internal/featureflags"
	"bulletin/internal/middleware"
	"bulletin/internal/models"
	"bulletin/internal/moderation"
	"bulletin/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	feedSize        = 10
	topSize         = 5
	latestComments  = 3
	complaintsShown = 10
	excerptRunes    = 100
)

// Dispatcher routes typed requests to the domain services.
type Dispatcher struct {
	mod    *moderation.Service
	ledger *engagement.Ledger
	conv   *conversation.Engine
	flags  *featureflags.Manager
}

// New wires a Dispatcher.
func New(mod *moderation.Service, ledger *engagement.Ledger, conv *conversation.Engine, flags *featureflags.Manager) *Dispatcher {
	return &Dispatcher{mod: mod, ledger: ledger, conv: conv, flags: flags}
}

// UserRequest carries only the acting user.
type UserRequest struct {
	UserID int64
}

// PostRequest targets one post.
type PostRequest struct {
	UserID int64
	PostID int
}

// CommentRequest opens the comment flow; PostID may be asked for later.
type CommentRequest struct {
	UserID int64
	PostID *int
}

// ProfileRequest shows the caller's profile, or with Code (admin only) someone else's.
type ProfileRequest struct {
	UserID int64
	Code   string
}

// ComplainRequest names the target by account code or username.
type ComplainRequest struct {
	UserID int64
	Target string
	Reason string
}

// TextRequest carries free text (support question, broadcast, dialog answer).
type TextRequest struct {
	UserID int64
	Text   string
}

// BanRequest is the admin ban command.
type BanRequest struct {
	UserID   int64
	Code     string
	Duration string
	Reason   string
}

// CodeRequest addresses a member by account code.
type CodeRequest struct {
	UserID int64
	Code   string
}

// TargetRequest is a callback about another user.
type TargetRequest struct {
	UserID   int64
	TargetID int64
}

// BanFromComplaintRequest is the ban shortcut attached to complaint notifications.
type BanFromComplaintRequest struct {
	UserID        int64
	ComplainantID int64
	Code          string
}

type handler func(ctx context.Context) (Result, error)

// command runs a typed command. Any open dialog of the user is dropped first.
func (d *Dispatcher) command(ctx context.Context, entry string, userID int64, h handler) (Result, error) {
	return d.run(ctx, entry, userID, func(ctx context.Context) (Result, error) {
		d.conv.Cancel(userID)
		return h(ctx)
	})
}

// callback runs an inline-button action; open dialogs are left alone.
func (d *Dispatcher) callback(ctx context.Context, entry string, userID int64, h handler) (Result, error) {
	return d.run(ctx, entry, userID, h)
}

func (d *Dispatcher) run(ctx context.Context, entry string, userID int64, h handler) (Result, error) {
	span, ctx := observability.TraceDispatch(ctx, entry, userID)
	defer span.End()
	ctx = middleware.WithUserID(ctx, userID)

	res, err := h(ctx)
	if err == nil {
		observability.DispatchEvents.WithLabelValues(entry, "ok").Inc()
		span.AddAttributes(attribute.Int("dispatch.notifications", len(res.Notifications)))
		return res, nil
	}

	var appErr *models.AppError
	if errors.As(err, &appErr) && appErr.Code != models.CodeInternal {
		observability.DispatchEvents.WithLabelValues(entry, "refused").Inc()
		span.AddAttributes(attribute.String("dispatch.refusal", appErr.Code))
		middleware.Logger.DebugContext(ctx, "request refused",
			slog.String("entry", entry),
			slog.String("code", appErr.Code),
		)
		return Result{Refusal: &Refusal{Code: appErr.Code, Message: appErr.Message}}, nil
	}

	observability.DispatchEvents.WithLabelValues(entry, "error").Inc()
	span.SetError(err)
	middleware.Logger.ErrorContext(ctx, "dispatch failed",
		slog.String("entry", entry),
		slog.String("error", err.Error()),
	)
	return Result{}, err
}

func (d *Dispatcher) requireAdmin(userID int64) error {
	if !d.mod.IsAdmin(userID) {
		return models.NewUnauthorizedError("this command is for the administrator only")
	}
	return nil
}
