package moderation

import (
	"context"
	"slices"
	"strings"

	"bulletin/internal/models"
	"bulletin/internal/store"
)

// ComplaintInput is a complaint as typed by the complainant.
type ComplaintInput struct {
	ComplainantID int64
	// Target is an account code or a username, with or without a leading "@".
	Target string
	Reason string
}

// FileComplaint appends a complaint to the log.
func (s *Service) FileComplaint(ctx context.Context, in ComplaintInput) (models.Complaint, error) {
	target := strings.TrimPrefix(strings.TrimSpace(in.Target), "@")
	return store.Apply(ctx, s.store, "file_complaint", func(snap *models.Snapshot) (models.Complaint, error) {
		complainant, err := RequireActive(snap, in.ComplainantID, s.clock.Now())
		if err != nil {
			return models.Complaint{}, err
		}
		if target == "" {
			return models.Complaint{}, models.NewMalformedInputError("complaint target is required")
		}
		accused := snap.ApprovedByHandle(target)
		if accused == nil {
			return models.Complaint{}, models.NewNotFoundError("member", target)
		}
		if accused.UserID == complainant.UserID {
			return models.Complaint{}, models.NewMalformedInputError("cannot file a complaint about yourself")
		}
		c := models.Complaint{
			Timestamp:              s.clock.Now(),
			TargetID:               accused.UserID,
			TargetDisplayName:      accused.DisplayName(),
			TargetCode:             accused.AccountCode,
			ComplainantID:          complainant.UserID,
			ComplainantDisplayName: complainant.DisplayName(),
			Reason:                 strings.TrimSpace(in.Reason),
			Status:                 models.ComplaintStatusNew,
		}
		snap.Complaints = append(snap.Complaints, c)
		return c, nil
	})
}

// RecentComplaints returns up to limit complaints, newest first.
func (s *Service) RecentComplaints(limit int) []models.Complaint {
	log := s.store.Read().Complaints
	if limit > 0 && len(log) > limit {
		log = log[len(log)-limit:]
	}
	slices.Reverse(log)
	return log
}
