package moderation

import (
	"bulletin/internal/models"
)

// MemberStatus pairs an approved member with its ban state at read time.
type MemberStatus struct {
	Member models.Member
	Banned bool
}

// Profile returns the approved member record of userID.
func (s *Service) Profile(userID int64) (models.Member, error) {
	snap := s.store.Read()
	m := snap.ApprovedMember(userID)
	if m == nil {
		return models.Member{}, models.NewNotRegisteredError(userID)
	}
	return *m, nil
}

// ProfileByCode looks an approved member up by account code.
func (s *Service) ProfileByCode(code string) (models.Member, error) {
	snap := s.store.Read()
	m := snap.ApprovedByCode(code)
	if m == nil {
		return models.Member{}, models.NewNotFoundError("member", code)
	}
	return *m, nil
}

// IsApproved reports whether userID is an approved member.
func (s *Service) IsApproved(userID int64) bool {
	snap := s.store.Read()
	return snap.ApprovedMember(userID) != nil
}

// IsPending reports whether userID awaits approval.
func (s *Service) IsPending(userID int64) bool {
	snap := s.store.Read()
	return snap.PendingIndex(userID) >= 0
}

// Members lists approved members in approval order.
func (s *Service) Members() []MemberStatus {
	now := s.clock.Now()
	approved := s.store.Read().Approved
	out := make([]MemberStatus, 0, len(approved))
	for _, m := range approved {
		out = append(out, MemberStatus{Member: m, Banned: m.BannedAt(now)})
	}
	return out
}

// Recipients returns the user ids of every approved member.
func (s *Service) Recipients() []int64 {
	approved := s.store.Read().Approved
	ids := make([]int64, 0, len(approved))
	for _, m := range approved {
		ids = append(ids, m.UserID)
	}
	return ids
}
