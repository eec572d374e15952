package seed

import (
	"context"
	"fmt"
	"log/slog"

	"bulletin/internal/engagement"
	"bulletin/internal/middleware"
	"bulletin/internal/models"
	"bulletin/internal/moderation"
)

// Options configures Demo.
type Options struct {
	Members            int
	Posts              int
	MaxCommentsPerPost int
	Reactions          bool
	// FirstUserID is the external id of the first demo member; the rest follow.
	FirstUserID int64
	Seed        int64
}

// DefaultOptions is a small board good for clicking around.
func DefaultOptions() Options {
	return Options{
		Members:            12,
		Posts:              30,
		MaxCommentsPerPost: 4,
		Reactions:          true,
		FirstUserID:        900_000,
	}
}

// Summary counts what Demo created.
type Summary struct {
	Members   int
	Posts     int
	Comments  int
	Reactions int
}

// Demo registers and approves members, then has them post, comment and react.
// Members that already exist are reused, so running it twice only adds content.
func Demo(ctx context.Context, mod *moderation.Service, ledger *engagement.Ledger, opts Options) (Summary, error) {
	var sum Summary
	f := NewFactory(opts.Seed)

	authors := make([]int64, 0, opts.Members)
	for i := 0; i < opts.Members; i++ {
		userID := opts.FirstUserID + int64(i)
		authors = append(authors, userID)

		_, err := mod.SubmitRegistration(ctx, f.BuildCandidate(userID))
		if models.IsCode(err, models.CodeAlreadyRegistered) {
			if mod.IsPending(userID) {
				if _, err := mod.Approve(ctx, userID); err != nil {
					return sum, fmt.Errorf("approve member %d: %w", userID, err)
				}
			}
			continue
		}
		if err != nil {
			return sum, fmt.Errorf("register member %d: %w", userID, err)
		}
		if _, err := mod.Approve(ctx, userID); err != nil {
			return sum, fmt.Errorf("approve member %d: %w", userID, err)
		}
		sum.Members++
	}
	if len(authors) == 0 {
		return sum, nil
	}

	for i := 0; i < opts.Posts; i++ {
		author := authors[f.Pick(len(authors))]
		p, err := ledger.AddPost(ctx, author, f.PostText())
		if models.IsCode(err, models.CodeBanned) {
			continue
		}
		if err != nil {
			return sum, fmt.Errorf("add post: %w", err)
		}
		sum.Posts++

		if opts.MaxCommentsPerPost > 0 {
			for n := f.Pick(opts.MaxCommentsPerPost + 1); n > 0; n-- {
				commenter := authors[f.Pick(len(authors))]
				if _, err := ledger.AddComment(ctx, p.ID, commenter, f.CommentText()); err != nil {
					if models.IsCode(err, models.CodeBanned) {
						continue
					}
					return sum, fmt.Errorf("add comment to post %d: %w", p.ID, err)
				}
				sum.Comments++
			}
		}

		if opts.Reactions {
			for _, userID := range authors {
				kind, ok := f.Reaction()
				if !ok {
					continue
				}
				_, err := ledger.React(ctx, p.ID, userID, kind)
				switch {
				case err == nil:
					sum.Reactions++
				case models.IsCode(err, models.CodeBanned):
				default:
					return sum, fmt.Errorf("react to post %d: %w", p.ID, err)
				}
			}
		}
	}

	middleware.Logger.InfoContext(ctx, "demo data seeded",
		slog.Int("members", sum.Members),
		slog.Int("posts", sum.Posts),
		slog.Int("comments", sum.Comments),
		slog.Int("reactions", sum.Reactions),
	)
	return sum, nil
}
