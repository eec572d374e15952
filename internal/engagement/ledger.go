// Package engagement owns posts, comments and reactions.
package engagement

import (
	"context"
	"slices"
	"sort"

	"bulletin/internal/clock"
	"bulletin/internal/models"
	"bulletin/internal/moderation"
	"bulletin/internal/store"
)

// Ledger applies engagement rules through the store.
type Ledger struct {
	store *store.Store
	clock clock.Clock
}

// NewLedger returns a new Ledger.
func NewLedger(st *store.Store, clk clock.Clock) *Ledger {
	return &Ledger{store: st, clock: clk}
}

// ReactOutcome reports what a reaction changed.
type ReactOutcome struct {
	Post models.Post
	Kind models.ReactionKind
	// Flipped is set when an opposite reaction was replaced.
	Flipped bool
}

// AddPost publishes a post by an active member. The id is the post count + 1.
func (l *Ledger) AddPost(ctx context.Context, authorID int64, text string) (models.Post, error) {
	return store.Apply(ctx, l.store, "add_post", func(snap *models.Snapshot) (models.Post, error) {
		now := l.clock.Now()
		author, err := moderation.RequireActive(snap, authorID, now)
		if err != nil {
			return models.Post{}, err
		}
		post := models.Post{
			ID:                len(snap.Posts) + 1,
			AuthorID:          author.UserID,
			AuthorDisplayName: author.DisplayName(),
			Text:              text,
			LikedBy:           []int64{},
			DislikedBy:        []int64{},
			Comments:          []models.Comment{},
			CreatedAt:         now,
		}
		snap.Posts = append(snap.Posts, post)
		return post.Clone(), nil
	})
}

// AddComment appends a comment to post postID.
func (l *Ledger) AddComment(ctx context.Context, postID int, authorID int64, text string) (models.Comment, error) {
	return store.Apply(ctx, l.store, "add_comment", func(snap *models.Snapshot) (models.Comment, error) {
		post, ok := snap.Post(postID)
		if !ok {
			return models.Comment{}, models.NewInvalidPostIDError(postID)
		}
		now := l.clock.Now()
		author, err := moderation.RequireActive(snap, authorID, now)
		if err != nil {
			return models.Comment{}, err
		}
		c := models.Comment{
			AuthorID:          author.UserID,
			AuthorDisplayName: author.DisplayName(),
			Text:              text,
			CreatedAt:         now,
		}
		post.Comments = append(post.Comments, c)
		return c, nil
	})
}

// React records a like or dislike. Repeating the held reaction fails with
// AlreadyReacted; holding the opposite one flips it in the same mutation.
func (l *Ledger) React(ctx context.Context, postID int, userID int64, kind models.ReactionKind) (ReactOutcome, error) {
	if !kind.Valid() {
		return ReactOutcome{}, models.NewMalformedInputError("unknown reaction " + string(kind))
	}
	return store.Apply(ctx, l.store, "react", func(snap *models.Snapshot) (ReactOutcome, error) {
		post, ok := snap.Post(postID)
		if !ok {
			return ReactOutcome{}, models.NewInvalidPostIDError(postID)
		}
		if err := moderation.RequireNotBanned(snap, userID, l.clock.Now()); err != nil {
			return ReactOutcome{}, err
		}

		held, has := post.ReactionOf(userID)
		if has && held == kind {
			return ReactOutcome{}, models.NewAlreadyReactedError(postID, kind)
		}
		if has {
			removeReaction(post, userID, held)
		}
		addReaction(post, userID, kind)
		return ReactOutcome{Post: post.Clone(), Kind: kind, Flipped: has}, nil
	})
}

func addReaction(p *models.Post, userID int64, kind models.ReactionKind) {
	if kind == models.ReactionLike {
		p.LikedBy = append(p.LikedBy, userID)
		p.Likes++
		return
	}
	p.DislikedBy = append(p.DislikedBy, userID)
	p.Dislikes++
}

func removeReaction(p *models.Post, userID int64, kind models.ReactionKind) {
	drop := func(id int64) bool { return id == userID }
	if kind == models.ReactionLike {
		p.LikedBy = slices.DeleteFunc(p.LikedBy, drop)
		p.Likes--
		return
	}
	p.DislikedBy = slices.DeleteFunc(p.DislikedBy, drop)
	p.Dislikes--
}

// RankTop returns up to n posts by score descending. Equal scores keep creation order.
func (l *Ledger) RankTop(n int) []models.Post {
	posts := l.store.Read().Posts
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].Score() > posts[j].Score()
	})
	if n >= 0 && len(posts) > n {
		posts = posts[:n]
	}
	return posts
}

// Recent returns up to n posts, newest first.
func (l *Ledger) Recent(n int) []models.Post {
	posts := l.store.Read().Posts
	if n >= 0 && len(posts) > n {
		posts = posts[len(posts)-n:]
	}
	slices.Reverse(posts)
	return posts
}

// Post returns one post by id.
func (l *Ledger) Post(id int) (models.Post, error) {
	snap := l.store.Read()
	p, ok := snap.Post(id)
	if !ok {
		return models.Post{}, models.NewInvalidPostIDError(id)
	}
	return *p, nil
}
