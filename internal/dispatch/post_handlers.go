package dispatch

import (
	"context"
	"strconv"

	"bulletin/internal/conversation"
	"bulletin/internal/models"
)

// NewPost opens the post dialog for an active member.
func (d *Dispatcher) NewPost(ctx context.Context, req UserRequest) (Result, error) {
	return d.command(ctx, "new_post", req.UserID, func(ctx context.Context) (Result, error) {
		if _, err := d.mod.Active(ctx, req.UserID); err != nil {
			return Result{}, err
		}
		st, err := d.conv.Start(req.UserID, conversation.FlowNewPost, nil)
		if err != nil {
			return Result{}, err
		}
		return prompt(st.Flow, st.Step, nil), nil
	})
}

// Posts shows the latest posts, newest first.
func (d *Dispatcher) Posts(ctx context.Context, req UserRequest) (Result, error) {
	return d.command(ctx, "posts", req.UserID, func(context.Context) (Result, error) {
		return replyData(ReplyPosts, summarizeAll(d.ledger.Recent(feedSize))), nil
	})
}

// Top shows the best scored posts.
func (d *Dispatcher) Top(ctx context.Context, req UserRequest) (Result, error) {
	return d.command(ctx, "top", req.UserID, func(context.Context) (Result, error) {
		return replyData(ReplyTop, summarizeAll(d.ledger.RankTop(topSize))), nil
	})
}

// ShowPost renders one post with its latest comments and a comment button.
func (d *Dispatcher) ShowPost(ctx context.Context, req PostRequest) (Result, error) {
	return d.command(ctx, "show_post", req.UserID, func(context.Context) (Result, error) {
		p, err := d.ledger.Post(req.PostID)
		if err != nil {
			return Result{}, err
		}
		latest := p.Comments
		if len(latest) > latestComments {
			latest = latest[len(latest)-latestComments:]
		}
		res := replyData(ReplyPost, PostView{PostSummary: summarize(p), LatestComments: latest})
		res.Reply.Actions = []models.Action{{
			Kind:    models.ActionComment,
			Payload: map[string]string{"post_id": strconv.Itoa(p.ID)},
		}}
		return res, nil
	})
}

// Comments lists every comment of a post.
func (d *Dispatcher) Comments(ctx context.Context, req PostRequest) (Result, error) {
	return d.command(ctx, "comments", req.UserID, func(context.Context) (Result, error) {
		p, err := d.ledger.Post(req.PostID)
		if err != nil {
			return Result{}, err
		}
		return replyData(ReplyComments, CommentsView{
			PostID:   p.ID,
			Excerpt:  excerpt(p.Text, excerptRunes),
			Comments: p.Comments,
		}), nil
	})
}

// Like reacts with a like.
func (d *Dispatcher) Like(ctx context.Context, req PostRequest) (Result, error) {
	return d.command(ctx, "like", req.UserID, func(ctx context.Context) (Result, error) {
		return d.react(ctx, req, models.ReactionLike)
	})
}

// Dislike reacts with a dislike.
func (d *Dispatcher) Dislike(ctx context.Context, req PostRequest) (Result, error) {
	return d.command(ctx, "dislike", req.UserID, func(ctx context.Context) (Result, error) {
		return d.react(ctx, req, models.ReactionDislike)
	})
}

func (d *Dispatcher) react(ctx context.Context, req PostRequest, kind models.ReactionKind) (Result, error) {
	out, err := d.ledger.React(ctx, req.PostID, req.UserID, kind)
	if err != nil {
		return Result{}, err
	}
	res := reply(ReplyReacted, map[string]string{
		"post_id": strconv.Itoa(out.Post.ID),
		"kind":    string(out.Kind),
		"flipped": strconv.FormatBool(out.Flipped),
	})
	res.Reply.Data = summarize(out.Post)
	return res, nil
}

// Comment opens the comment dialog, asking for the post id when not given.
func (d *Dispatcher) Comment(ctx context.Context, req CommentRequest) (Result, error) {
	return d.command(ctx, "comment", req.UserID, func(ctx context.Context) (Result, error) {
		return d.openComment(ctx, req)
	})
}

// CommentOn is the comment button under a post.
func (d *Dispatcher) CommentOn(ctx context.Context, req PostRequest) (Result, error) {
	return d.callback(ctx, "comment_on", req.UserID, func(ctx context.Context) (Result, error) {
		return d.openComment(ctx, CommentRequest{UserID: req.UserID, PostID: &req.PostID})
	})
}

func (d *Dispatcher) openComment(ctx context.Context, req CommentRequest) (Result, error) {
	if _, err := d.mod.Active(ctx, req.UserID); err != nil {
		return Result{}, err
	}
	var preset map[string]string
	if req.PostID != nil {
		preset = map[string]string{conversation.FieldPostID: strconv.Itoa(*req.PostID)}
	}
	st, err := d.conv.Start(req.UserID, conversation.FlowNewComment, preset)
	if err != nil {
		return Result{}, err
	}
	return prompt(st.Flow, st.Step, preset), nil
}
