package moderation

import (
	"context"

	"bulletin/internal/models"
	"bulletin/internal/store"
)

// SubmitRegistration queues a candidate for admin approval and returns the
// pending record with its freshly drawn account code.
func (s *Service) SubmitRegistration(ctx context.Context, c models.RegistrationCandidate) (models.Member, error) {
	return store.Apply(ctx, s.store, "submit_registration", func(snap *models.Snapshot) (models.Member, error) {
		if snap.Known(c.UserID) {
			return models.Member{}, models.NewAlreadyRegisteredError(c.UserID)
		}
		member, err := models.NewPendingMember(c, s.codes())
		if err != nil {
			return models.Member{}, models.NewMalformedInputError(err.Error())
		}
		snap.Pending = append(snap.Pending, member)
		return member.Clone(), nil
	})
}

// Approve moves a pending member into the approved set.
func (s *Service) Approve(ctx context.Context, userID int64) (models.Member, error) {
	return store.Apply(ctx, s.store, "approve", func(snap *models.Snapshot) (models.Member, error) {
		member, err := takePending(snap, userID)
		if err != nil {
			return models.Member{}, err
		}
		snap.Approved = append(snap.Approved, member)
		return member.Clone(), nil
	})
}

// Reject drops a pending registration.
func (s *Service) Reject(ctx context.Context, userID int64) (models.Member, error) {
	return store.Apply(ctx, s.store, "reject", func(snap *models.Snapshot) (models.Member, error) {
		return takePending(snap, userID)
	})
}

func takePending(snap *models.Snapshot, userID int64) (models.Member, error) {
	idx := snap.PendingIndex(userID)
	if idx < 0 {
		return models.Member{}, models.NewNotFoundError("pending registration", userID)
	}
	member := snap.Pending[idx]
	snap.Pending = append(snap.Pending[:idx], snap.Pending[idx+1:]...)
	return member, nil
}
