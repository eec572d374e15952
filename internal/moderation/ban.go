package moderation

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"bulletin/internal/models"
	"bulletin/internal/store"
)

// DefaultBanReason is used when the admin gives none.
const DefaultBanReason = "not specified"

// maxBanHours bounds durations to roughly one century either way.
const maxBanHours = 100 * 365 * 24

// BanInput identifies the member by account code.
type BanInput struct {
	Code     string
	Duration string
	Reason   string
}

// BanResult describes an applied ban.
type BanResult struct {
	Member models.Member
	Until  time.Time
	Reason string
}

// ParseBanDuration accepts a signed whole number of days ("7d") or hours ("-2h").
func ParseBanDuration(raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if len(s) < 2 {
		return 0, models.NewInvalidDurationError(raw)
	}

	var unit time.Duration
	switch s[len(s)-1] {
	case 'd':
		unit = 24 * time.Hour
	case 'h':
		unit = time.Hour
	default:
		return 0, models.NewInvalidDurationError(raw)
	}

	n, err := strconv.ParseInt(s[:len(s)-1], 10, 64)
	if err != nil {
		return 0, models.NewInvalidDurationError(raw)
	}
	if n > maxBanHours || n < -maxBanHours {
		return 0, models.NewInvalidDurationError(raw)
	}
	hours := n * int64(unit/time.Hour)
	if hours > maxBanHours || hours < -maxBanHours {
		return 0, models.NewInvalidDurationError(raw)
	}
	return time.Duration(hours) * time.Hour, nil
}

// Ban sets banned_until = now + duration, replacing any running ban.
func (s *Service) Ban(ctx context.Context, in BanInput) (BanResult, error) {
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		reason = DefaultBanReason
	}
	return store.Apply(ctx, s.store, "ban", func(snap *models.Snapshot) (BanResult, error) {
		member := snap.ApprovedByCode(in.Code)
		if member == nil {
			return BanResult{}, models.NewNotFoundError("member", in.Code)
		}
		d, err := ParseBanDuration(in.Duration)
		if err != nil {
			return BanResult{}, err
		}
		until := s.clock.Now().Add(d)
		member.BannedUntil = &until
		return BanResult{Member: member.Clone(), Until: until, Reason: reason}, nil
	})
}

// BanFromComplaint applies the standard complaint ban to the member holding code.
func (s *Service) BanFromComplaint(ctx context.Context, code string) (BanResult, error) {
	return s.Ban(ctx, BanInput{
		Code:     code,
		Duration: fmt.Sprintf("%dd", s.complaintBanDays),
		Reason:   "complaint",
	})
}

// Unban clears banned_until; unbanning an unbanned member is a no-op.
func (s *Service) Unban(ctx context.Context, code string) (models.Member, error) {
	return store.Apply(ctx, s.store, "unban", func(snap *models.Snapshot) (models.Member, error) {
		member := snap.ApprovedByCode(code)
		if member == nil {
			return models.Member{}, models.NewNotFoundError("member", code)
		}
		member.BannedUntil = nil
		return member.Clone(), nil
	})
}
