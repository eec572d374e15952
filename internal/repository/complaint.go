package repository

import (
	"context"

	"bulletin/internal/models"

	"gorm.io/gorm"
)

// ComplaintRepository defines the append-only complaint log operations
type ComplaintRepository interface {
	Append(ctx context.Context, complaints ...models.Complaint) error
	List(ctx context.Context) ([]models.Complaint, error)
}

type complaintRepository struct {
	db *gorm.DB
}

// NewComplaintRepository creates a new complaint repository
func NewComplaintRepository(db *gorm.DB) ComplaintRepository {
	return &complaintRepository{db: db}
}

func (r *complaintRepository) Append(ctx context.Context, complaints ...models.Complaint) error {
	if len(complaints) == 0 {
		return nil
	}
	rows := make([]models.ComplaintEntry, 0, len(complaints))
	for _, c := range complaints {
		rows = append(rows, toEntry(c))
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

// List returns the log in insertion order.
func (r *complaintRepository) List(ctx context.Context) ([]models.Complaint, error) {
	var rows []models.ComplaintEntry
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.Complaint, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromEntry(row))
	}
	return out, nil
}

func toEntry(c models.Complaint) models.ComplaintEntry {
	status := c.Status
	if status == "" {
		status = models.ComplaintStatusNew
	}
	return models.ComplaintEntry{
		Timestamp:              c.Timestamp.UTC(),
		TargetID:               c.TargetID,
		TargetDisplayName:      c.TargetDisplayName,
		TargetCode:             c.TargetCode,
		ComplainantID:          c.ComplainantID,
		ComplainantDisplayName: c.ComplainantDisplayName,
		Reason:                 c.Reason,
		Status:                 string(status),
	}
}

func fromEntry(e models.ComplaintEntry) models.Complaint {
	return models.Complaint{
		Timestamp:              e.Timestamp.UTC(),
		TargetID:               e.TargetID,
		TargetDisplayName:      e.TargetDisplayName,
		TargetCode:             e.TargetCode,
		ComplainantID:          e.ComplainantID,
		ComplainantDisplayName: e.ComplainantDisplayName,
		Reason:                 e.Reason,
		Status:                 models.ComplaintStatus(e.Status),
	}
}
