package dispatch

import (
	"context"
	"strconv"
	"strings"

	"bulletin/internal/conversation"
	"bulletin/internal/featureflags"
	"bulletin/internal/models"
	"bulletin/internal/moderation"
)

var memberCommands = []string{
	"start", "help", "reg", "profile", "newpost", "posts", "top", "post",
	"comments", "comment", "like", "dislike", "complain", "support", "cancel",
}

var adminCommands = []string{
	"ban", "unban", "broadcast", "complaints", "users", "update", "adminstart",
}

// Start greets the user; approved members get the returning greeting.
func (d *Dispatcher) Start(ctx context.Context, req UserRequest) (Result, error) {
	return d.command(ctx, "start", req.UserID, func(context.Context) (Result, error) {
		if d.mod.IsApproved(req.UserID) {
			return reply(ReplyWelcomeBack, nil), nil
		}
		return reply(ReplyWelcome, nil), nil
	})
}

// Help lists commands; the admin section is only shown to the admin.
func (d *Dispatcher) Help(ctx context.Context, req UserRequest) (Result, error) {
	return d.command(ctx, "help", req.UserID, func(context.Context) (Result, error) {
		view := HelpView{Commands: memberCommands}
		if d.mod.IsAdmin(req.UserID) {
			view.AdminCommands = adminCommands
		}
		return replyData(ReplyHelp, view), nil
	})
}

// Register opens the registration dialog.
func (d *Dispatcher) Register(ctx context.Context, req UserRequest) (Result, error) {
	return d.command(ctx, "register", req.UserID, func(context.Context) (Result, error) {
		if d.mod.IsApproved(req.UserID) || d.mod.IsPending(req.UserID) {
			return Result{}, models.NewAlreadyRegisteredError(req.UserID)
		}
		st, err := d.conv.Start(req.UserID, conversation.FlowRegistration, nil)
		if err != nil {
			return Result{}, err
		}
		return prompt(st.Flow, st.Step, nil), nil
	})
}

// Profile shows the caller's profile, or any member's for the admin.
func (d *Dispatcher) Profile(ctx context.Context, req ProfileRequest) (Result, error) {
	return d.command(ctx, "profile", req.UserID, func(context.Context) (Result, error) {
		self, err := d.mod.Profile(req.UserID)
		if err != nil {
			return Result{}, err
		}
		code := strings.TrimSpace(req.Code)
		if code == "" {
			return replyData(ReplyProfile, ProfileView{
				FullName:    self.FullName(),
				ClassLabel:  self.ClassLabel,
				AccountCode: self.AccountCode,
				Bio:         self.Bio,
			}), nil
		}
		if err := d.requireAdmin(req.UserID); err != nil {
			return Result{}, err
		}
		target, err := d.mod.ProfileByCode(code)
		if err != nil {
			return Result{}, err
		}
		return replyData(ReplyProfile, ProfileView{
			FullName:    target.FullName(),
			ClassLabel:  target.ClassLabel,
			AccountCode: target.AccountCode,
			Username:    target.Username,
			UserID:      target.UserID,
			BannedUntil: target.BannedUntil,
		}), nil
	})
}

// Complain files a complaint and alerts the admin.
func (d *Dispatcher) Complain(ctx context.Context, req ComplainRequest) (Result, error) {
	return d.command(ctx, "complain", req.UserID, func(ctx context.Context) (Result, error) {
		c, err := d.mod.FileComplaint(ctx, moderation.ComplaintInput{
			ComplainantID: req.UserID,
			Target:        req.Target,
			Reason:        req.Reason,
		})
		if err != nil {
			return Result{}, err
		}

		actions := []models.Action{models.UserAction(models.ActionReplyTo, c.ComplainantID)}
		if d.flags.Enabled(featureflags.ComplaintBanShortcut, d.mod.AdminID()) {
			actions = append(actions, models.Action{
				Kind: models.ActionBanFrom,
				Payload: map[string]string{
					"user_id": id64(c.ComplainantID),
					"code":    c.TargetCode,
				},
			})
		}
		note := models.NewNotification(d.mod.AdminID(), models.NotifyComplaintFiled, map[string]string{
			"complainant_name": c.ComplainantDisplayName,
			"target_name":      c.TargetDisplayName,
			"target_code":      c.TargetCode,
			"reason":           c.Reason,
		}, actions...)
		return reply(ReplyComplaintSent, nil).notify(note), nil
	})
}

// Support forwards a question to the admin with a reply affordance.
func (d *Dispatcher) Support(ctx context.Context, req TextRequest) (Result, error) {
	return d.command(ctx, "support", req.UserID, func(ctx context.Context) (Result, error) {
		m, err := d.mod.Active(ctx, req.UserID)
		if err != nil {
			return Result{}, err
		}
		question := strings.TrimSpace(req.Text)
		if question == "" {
			return Result{}, models.NewMalformedInputError("support question is required")
		}
		note := models.NewNotification(d.mod.AdminID(), models.NotifySupportRequest, map[string]string{
			"from_name":     m.DisplayName(),
			"from_username": m.Username,
			"from_code":     m.AccountCode,
			"question":      question,
		}, models.UserAction(models.ActionReplyTo, m.UserID))
		return reply(ReplySupportSent, nil).notify(note), nil
	})
}

// Cancel drops any open dialog.
func (d *Dispatcher) Cancel(ctx context.Context, req UserRequest) (Result, error) {
	return d.run(ctx, "cancel", req.UserID, func(context.Context) (Result, error) {
		had := d.conv.Cancel(req.UserID)
		return reply(ReplyCancelled, map[string]string{"had_conversation": strconv.FormatBool(had)}), nil
	})
}
