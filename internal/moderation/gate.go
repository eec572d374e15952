package moderation

import (
	"context"
	"time"

	"bulletin/internal/models"
	"bulletin/internal/store"
)

// RequireActive returns the approved, non-banned member for userID. It must
// run inside a store mutation: an expired ban is cleared on the snapshot.
func RequireActive(snap *models.Snapshot, userID int64, now time.Time) (*models.Member, error) {
	member := snap.ApprovedMember(userID)
	if member == nil {
		return nil, models.NewNotRegisteredError(userID)
	}
	if err := checkBan(member, now); err != nil {
		return nil, err
	}
	return member, nil
}

// RequireNotBanned refuses banned members but lets unknown users through.
func RequireNotBanned(snap *models.Snapshot, userID int64, now time.Time) error {
	member := snap.ApprovedMember(userID)
	if member == nil {
		return nil
	}
	return checkBan(member, now)
}

func checkBan(member *models.Member, now time.Time) error {
	if member.BannedUntil == nil {
		return nil
	}
	if now.Before(*member.BannedUntil) {
		return models.NewBannedError(*member.BannedUntil)
	}
	member.BannedUntil = nil
	return nil
}

// IsBanned reports whether userID is banned now, clearing an expired ban.
func (s *Service) IsBanned(ctx context.Context, userID int64) (bool, error) {
	return s.IsBannedAt(ctx, userID, s.clock.Now())
}

// IsBannedAt is IsBanned evaluated at now. Unknown users are not banned.
func (s *Service) IsBannedAt(ctx context.Context, userID int64, now time.Time) (bool, error) {
	return store.Apply(ctx, s.store, "ban_check", func(snap *models.Snapshot) (bool, error) {
		err := RequireNotBanned(snap, userID, now)
		if models.IsCode(err, models.CodeBanned) {
			return true, nil
		}
		return false, err
	})
}

// Active returns the member when it may use ban-gated features.
func (s *Service) Active(ctx context.Context, userID int64) (models.Member, error) {
	return store.Apply(ctx, s.store, "gate", func(snap *models.Snapshot) (models.Member, error) {
		m, err := RequireActive(snap, userID, s.clock.Now())
		if err != nil {
			return models.Member{}, err
		}
		return m.Clone(), nil
	})
}
