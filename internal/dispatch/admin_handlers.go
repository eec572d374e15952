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

// Ban bans the member holding Code and tells them so.
func (d *Dispatcher) Ban(ctx context.Context, req BanRequest) (Result, error) {
	return d.command(ctx, "ban", req.UserID, func(ctx context.Context) (Result, error) {
		if err := d.requireAdmin(req.UserID); err != nil {
			return Result{}, err
		}
		out, err := d.mod.Ban(ctx, moderation.BanInput{
			Code:     strings.TrimSpace(req.Code),
			Duration: req.Duration,
			Reason:   req.Reason,
		})
		if err != nil {
			return Result{}, err
		}
		return d.banned(out, ReplyMemberBanned), nil
	})
}

func (d *Dispatcher) banned(out moderation.BanResult, kind ReplyKind) Result {
	params := map[string]string{
		"name":   out.Member.FullName(),
		"code":   out.Member.AccountCode,
		"until":  stamp(out.Until),
		"reason": out.Reason,
	}
	note := models.NewNotification(out.Member.UserID, models.NotifyBanned, map[string]string{
		"until":  stamp(out.Until),
		"reason": out.Reason,
	})
	return reply(kind, params).notify(note)
}

// Unban lifts a ban.
func (d *Dispatcher) Unban(ctx context.Context, req CodeRequest) (Result, error) {
	return d.command(ctx, "unban", req.UserID, func(ctx context.Context) (Result, error) {
		if err := d.requireAdmin(req.UserID); err != nil {
			return Result{}, err
		}
		m, err := d.mod.Unban(ctx, strings.TrimSpace(req.Code))
		if err != nil {
			return Result{}, err
		}
		note := models.NewNotification(m.UserID, models.NotifyUnbanned, nil)
		return reply(ReplyMemberUnbanned, map[string]string{
			"name": m.FullName(),
			"code": m.AccountCode,
		}).notify(note), nil
	})
}

// Users lists approved members with their ban state.
func (d *Dispatcher) Users(ctx context.Context, req UserRequest) (Result, error) {
	return d.command(ctx, "users", req.UserID, func(context.Context) (Result, error) {
		if err := d.requireAdmin(req.UserID); err != nil {
			return Result{}, err
		}
		members := d.mod.Members()
		lines := make([]MemberLine, 0, len(members))
		for _, ms := range members {
			lines = append(lines, MemberLine{
				UserID:      ms.Member.UserID,
				Name:        ms.Member.FullName(),
				ClassLabel:  ms.Member.ClassLabel,
				AccountCode: ms.Member.AccountCode,
				Banned:      ms.Banned,
			})
		}
		return replyData(ReplyUsers, lines), nil
	})
}

// Complaints shows the latest complaints, newest first.
func (d *Dispatcher) Complaints(ctx context.Context, req UserRequest) (Result, error) {
	return d.command(ctx, "complaints", req.UserID, func(context.Context) (Result, error) {
		if err := d.requireAdmin(req.UserID); err != nil {
			return Result{}, err
		}
		return replyData(ReplyComplaints, d.mod.RecentComplaints(complaintsShown)), nil
	})
}

// Broadcast sends Text to every approved member.
func (d *Dispatcher) Broadcast(ctx context.Context, req TextRequest) (Result, error) {
	return d.command(ctx, "broadcast", req.UserID, func(context.Context) (Result, error) {
		if err := d.requireAdmin(req.UserID); err != nil {
			return Result{}, err
		}
		text := strings.TrimSpace(req.Text)
		if text == "" {
			return Result{}, models.NewMalformedInputError("broadcast text is required")
		}
		return d.toEveryone(ReplyBroadcastSent, models.NotifyBroadcast, map[string]string{"text": text}), nil
	})
}

// MaintenanceStart announces planned downtime.
func (d *Dispatcher) MaintenanceStart(ctx context.Context, req UserRequest) (Result, error) {
	return d.command(ctx, "maintenance_start", req.UserID, func(context.Context) (Result, error) {
		if err := d.requireMaintenance(req.UserID); err != nil {
			return Result{}, err
		}
		return d.toEveryone(ReplyBroadcastSent, models.NotifyMaintenanceStarted, nil), nil
	})
}

// MaintenanceEnd announces the service is back.
func (d *Dispatcher) MaintenanceEnd(ctx context.Context, req UserRequest) (Result, error) {
	return d.command(ctx, "maintenance_end", req.UserID, func(context.Context) (Result, error) {
		if err := d.requireMaintenance(req.UserID); err != nil {
			return Result{}, err
		}
		return d.toEveryone(ReplyBroadcastSent, models.NotifyMaintenanceFinished, nil), nil
	})
}

func (d *Dispatcher) requireMaintenance(userID int64) error {
	if err := d.requireAdmin(userID); err != nil {
		return err
	}
	if !d.flags.Enabled(featureflags.MaintenanceNotices, userID) {
		return models.NewUnauthorizedError("maintenance notices are disabled")
	}
	return nil
}

func (d *Dispatcher) toEveryone(kind ReplyKind, note models.NotificationKind, params map[string]string) Result {
	recipients := d.mod.Recipients()
	res := reply(kind, map[string]string{"recipients": strconv.Itoa(len(recipients))})
	for _, id := range recipients {
		res = res.notify(models.NewNotification(id, note, params))
	}
	return res
}

// Approve moves an applicant to the approved set.
func (d *Dispatcher) Approve(ctx context.Context, req TargetRequest) (Result, error) {
	return d.callback(ctx, "approve", req.UserID, func(ctx context.Context) (Result, error) {
		if err := d.requireAdmin(req.UserID); err != nil {
			return Result{}, err
		}
		m, err := d.mod.Approve(ctx, req.TargetID)
		if err != nil {
			return Result{}, err
		}
		note := models.NewNotification(m.UserID, models.NotifyRegistrationApproved, map[string]string{
			"code": m.AccountCode,
		})
		return reply(ReplyRegistrationApproved, map[string]string{
			"name": m.FullName(),
			"code": m.AccountCode,
		}).notify(note), nil
	})
}

// Reject drops an application.
func (d *Dispatcher) Reject(ctx context.Context, req TargetRequest) (Result, error) {
	return d.callback(ctx, "reject", req.UserID, func(ctx context.Context) (Result, error) {
		if err := d.requireAdmin(req.UserID); err != nil {
			return Result{}, err
		}
		m, err := d.mod.Reject(ctx, req.TargetID)
		if err != nil {
			return Result{}, err
		}
		note := models.NewNotification(m.UserID, models.NotifyRegistrationRejected, nil)
		return reply(ReplyRegistrationRejected, map[string]string{"name": m.FullName()}).notify(note), nil
	})
}

// ReplyTo opens the support reply dialog addressed to TargetID.
func (d *Dispatcher) ReplyTo(ctx context.Context, req TargetRequest) (Result, error) {
	return d.callback(ctx, "reply_to", req.UserID, func(context.Context) (Result, error) {
		if err := d.requireAdmin(req.UserID); err != nil {
			return Result{}, err
		}
		preset := map[string]string{conversation.FieldRecipient: id64(req.TargetID)}
		st, err := d.conv.Start(req.UserID, conversation.FlowSupportReply, preset)
		if err != nil {
			return Result{}, err
		}
		return prompt(st.Flow, st.Step, preset), nil
	})
}

// BanFromComplaint applies the complaint ban and tells both parties.
func (d *Dispatcher) BanFromComplaint(ctx context.Context, req BanFromComplaintRequest) (Result, error) {
	return d.callback(ctx, "ban_from_complaint", req.UserID, func(ctx context.Context) (Result, error) {
		if err := d.requireAdmin(req.UserID); err != nil {
			return Result{}, err
		}
		out, err := d.mod.BanFromComplaint(ctx, strings.TrimSpace(req.Code))
		if err != nil {
			return Result{}, err
		}
		res := d.banned(out, ReplyMemberBanned)
		if req.ComplainantID != 0 {
			res = res.notify(models.NewNotification(req.ComplainantID, models.NotifyComplaintResolved, map[string]string{
				"target_name": out.Member.DisplayName(),
			}))
		}
		return res, nil
	})
}
