package dispatch

import (
	"context"
	"errors"
	"strconv"

	"bulletin/internal/conversation"
	"bulletin/internal/models"
)

// Message feeds free text into the user's open dialog.
func (d *Dispatcher) Message(ctx context.Context, req TextRequest) (Result, error) {
	return d.run(ctx, "message", req.UserID, func(ctx context.Context) (Result, error) {
		var done Result
		tr, err := d.conv.Advance(ctx, req.UserID, req.Text, func(ctx context.Context, st conversation.State) error {
			res, err := d.complete(ctx, st)
			done = res
			return err
		})
		if errors.Is(err, conversation.ErrNoConversation) {
			return reply(ReplyNoConversation, nil), nil
		}
		if err != nil {
			return Result{}, err
		}
		if !tr.Completed {
			return prompt(tr.Flow, tr.Step, nil), nil
		}
		return done, nil
	})
}

func (d *Dispatcher) complete(ctx context.Context, st conversation.State) (Result, error) {
	switch st.Flow {
	case conversation.FlowRegistration:
		m, err := d.mod.SubmitRegistration(ctx, st.Candidate())
		if err != nil {
			return Result{}, err
		}
		note := models.NewNotification(d.mod.AdminID(), models.NotifyRegistrationSubmitted, map[string]string{
			"user_id":  id64(m.UserID),
			"name":     m.FullName(),
			"class":    m.ClassLabel,
			"username": m.Username,
			"code":     m.AccountCode,
		},
			models.UserAction(models.ActionApprove, m.UserID),
			models.UserAction(models.ActionReject, m.UserID),
		)
		return reply(ReplyRegistrationSubmitted, map[string]string{"code": m.AccountCode}).notify(note), nil

	case conversation.FlowNewPost:
		p, err := d.ledger.AddPost(ctx, st.UserID, st.Text())
		if err != nil {
			return Result{}, err
		}
		return replyData(ReplyPostPublished, summarize(p)), nil

	case conversation.FlowNewComment:
		postID, err := st.PostID()
		if err != nil {
			return Result{}, err
		}
		c, err := d.ledger.AddComment(ctx, postID, st.UserID, st.Text())
		if err != nil {
			return Result{}, err
		}
		res := replyData(ReplyCommentAdded, c)
		res.Reply.Params = map[string]string{"post_id": strconv.Itoa(postID)}
		return res, nil

	case conversation.FlowSupportReply:
		if err := d.requireAdmin(st.UserID); err != nil {
			return Result{}, err
		}
		note := models.NewNotification(st.Recipient(), models.NotifySupportReply, map[string]string{
			"text": st.Text(),
		})
		return reply(ReplySupportReplySent, map[string]string{"recipient": id64(st.Recipient())}).notify(note), nil
	}
	return Result{}, models.NewInternalError(errors.New("unknown flow " + string(st.Flow)))
}
