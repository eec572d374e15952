package server

import (
	"context"
	"strconv"
	"strings"

	"bulletin/internal/dispatch"
	"bulletin/internal/models"
	"bulletin/internal/validation"
)

type commandFunc func(ctx context.Context, d *dispatch.Dispatcher, ev CommandEvent) (dispatch.Result, error)

type callbackFunc func(ctx context.Context, d *dispatch.Dispatcher, ev CallbackEvent) (dispatch.Result, error)

// payloadError marks a callback payload the transport should never have sent.
type payloadError struct{ msg string }

func (e *payloadError) Error() string { return e.msg }

var commandTable = map[string]commandFunc{
	"start":      userCommand((*dispatch.Dispatcher).Start),
	"help":       userCommand((*dispatch.Dispatcher).Help),
	"reg":        userCommand((*dispatch.Dispatcher).Register),
	"register":   userCommand((*dispatch.Dispatcher).Register),
	"newpost":    userCommand((*dispatch.Dispatcher).NewPost),
	"posts":      userCommand((*dispatch.Dispatcher).Posts),
	"top":        userCommand((*dispatch.Dispatcher).Top),
	"cancel":     userCommand((*dispatch.Dispatcher).Cancel),
	"users":      userCommand((*dispatch.Dispatcher).Users),
	"complaints": userCommand((*dispatch.Dispatcher).Complaints),
	"update":     userCommand((*dispatch.Dispatcher).MaintenanceStart),
	"adminstart": userCommand((*dispatch.Dispatcher).MaintenanceEnd),
	"post":       postCommand((*dispatch.Dispatcher).ShowPost),
	"comments":   postCommand((*dispatch.Dispatcher).Comments),
	"like":       postCommand((*dispatch.Dispatcher).Like),
	"dislike":    postCommand((*dispatch.Dispatcher).Dislike),
	"comment":    commentCommand,
	"profile":    profileCommand,
	"complain":   complainCommand,
	"support":    textCommand((*dispatch.Dispatcher).Support),
	"broadcast":  textCommand((*dispatch.Dispatcher).Broadcast),
	"ban":        banCommand,
	"unban":      unbanCommand,
}

var callbackTable = map[models.ActionKind]callbackFunc{
	models.ActionApprove: targetCallback((*dispatch.Dispatcher).Approve),
	models.ActionReject:  targetCallback((*dispatch.Dispatcher).Reject),
	models.ActionReplyTo: targetCallback((*dispatch.Dispatcher).ReplyTo),
	models.ActionBanFrom: banFromCallback,
	models.ActionComment: commentCallback,
}

func userCommand(fn func(*dispatch.Dispatcher, context.Context, dispatch.UserRequest) (dispatch.Result, error)) commandFunc {
	return func(ctx context.Context, d *dispatch.Dispatcher, ev CommandEvent) (dispatch.Result, error) {
		return fn(d, ctx, dispatch.UserRequest{UserID: ev.UserID})
	}
}

func postCommand(fn func(*dispatch.Dispatcher, context.Context, dispatch.PostRequest) (dispatch.Result, error)) commandFunc {
	return func(ctx context.Context, d *dispatch.Dispatcher, ev CommandEvent) (dispatch.Result, error) {
		id, err := postIDArg(ev.Args, true)
		if err != nil {
			return dispatch.Result{}, err
		}
		return fn(d, ctx, dispatch.PostRequest{UserID: ev.UserID, PostID: *id})
	}
}

func textCommand(fn func(*dispatch.Dispatcher, context.Context, dispatch.TextRequest) (dispatch.Result, error)) commandFunc {
	return func(ctx context.Context, d *dispatch.Dispatcher, ev CommandEvent) (dispatch.Result, error) {
		text := ev.Args["text"]
		if err := validation.ValidateText("text", text); err != nil {
			return dispatch.Result{}, models.NewMalformedInputError(err.Error())
		}
		return fn(d, ctx, dispatch.TextRequest{UserID: ev.UserID, Text: text})
	}
}

func commentCommand(ctx context.Context, d *dispatch.Dispatcher, ev CommandEvent) (dispatch.Result, error) {
	id, err := postIDArg(ev.Args, false)
	if err != nil {
		return dispatch.Result{}, err
	}
	return d.Comment(ctx, dispatch.CommentRequest{UserID: ev.UserID, PostID: id})
}

func profileCommand(ctx context.Context, d *dispatch.Dispatcher, ev CommandEvent) (dispatch.Result, error) {
	return d.Profile(ctx, dispatch.ProfileRequest{UserID: ev.UserID, Code: ev.Args["code"]})
}

func complainCommand(ctx context.Context, d *dispatch.Dispatcher, ev CommandEvent) (dispatch.Result, error) {
	reason := ev.Args["reason"]
	if err := validation.ValidateText("reason", reason); err != nil {
		return dispatch.Result{}, models.NewMalformedInputError(err.Error())
	}
	return d.Complain(ctx, dispatch.ComplainRequest{UserID: ev.UserID, Target: ev.Args["target"], Reason: reason})
}

func banCommand(ctx context.Context, d *dispatch.Dispatcher, ev CommandEvent) (dispatch.Result, error) {
	if strings.TrimSpace(ev.Args["code"]) == "" || strings.TrimSpace(ev.Args["duration"]) == "" {
		return dispatch.Result{}, models.NewMalformedInputError("usage: ban <code> <duration> [reason]")
	}
	return d.Ban(ctx, dispatch.BanRequest{
		UserID:   ev.UserID,
		Code:     ev.Args["code"],
		Duration: ev.Args["duration"],
		Reason:   ev.Args["reason"],
	})
}

func unbanCommand(ctx context.Context, d *dispatch.Dispatcher, ev CommandEvent) (dispatch.Result, error) {
	if strings.TrimSpace(ev.Args["code"]) == "" {
		return dispatch.Result{}, models.NewMalformedInputError("usage: unban <code>")
	}
	return d.Unban(ctx, dispatch.CodeRequest{UserID: ev.UserID, Code: ev.Args["code"]})
}

// postIDArg reads args["post_id"]. A missing id is an error only when required.
func postIDArg(args map[string]string, required bool) (*int, error) {
	raw := strings.TrimSpace(args["post_id"])
	if raw == "" {
		if required {
			return nil, models.NewMalformedInputError("post_id is required")
		}
		return nil, nil
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return nil, models.NewInvalidPostIDError(raw)
	}
	return &id, nil
}

func targetCallback(fn func(*dispatch.Dispatcher, context.Context, dispatch.TargetRequest) (dispatch.Result, error)) callbackFunc {
	return func(ctx context.Context, d *dispatch.Dispatcher, ev CallbackEvent) (dispatch.Result, error) {
		target, err := payloadID(ev.Payload, "user_id")
		if err != nil {
			return dispatch.Result{}, err
		}
		return fn(d, ctx, dispatch.TargetRequest{UserID: ev.UserID, TargetID: target})
	}
}

func banFromCallback(ctx context.Context, d *dispatch.Dispatcher, ev CallbackEvent) (dispatch.Result, error) {
	complainant, err := payloadID(ev.Payload, "user_id")
	if err != nil {
		return dispatch.Result{}, err
	}
	code := ev.Payload["code"]
	if err := validation.ValidateAccountCode(code); err != nil {
		return dispatch.Result{}, &payloadError{msg: err.Error()}
	}
	return d.BanFromComplaint(ctx, dispatch.BanFromComplaintRequest{
		UserID:        ev.UserID,
		ComplainantID: complainant,
		Code:          code,
	})
}

func commentCallback(ctx context.Context, d *dispatch.Dispatcher, ev CallbackEvent) (dispatch.Result, error) {
	id, err := payloadID(ev.Payload, "post_id")
	if err != nil {
		return dispatch.Result{}, err
	}
	return d.CommentOn(ctx, dispatch.PostRequest{UserID: ev.UserID, PostID: int(id)})
}

func payloadID(payload map[string]string, key string) (int64, error) {
	id, err := validation.ParseID(key, payload[key])
	if err != nil {
		return 0, &payloadError{msg: err.Error()}
	}
	return id, nil
}
