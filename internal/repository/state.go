package repository

import (
	"context"
	"errors"
	"time"

	"bulletin/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StateRepository reads and writes the persisted board document.
type StateRepository interface {
	// Load returns nil without error when nothing was ever saved.
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, doc []byte) error
}

type stateRepository struct {
	db *gorm.DB
}

// NewStateRepository creates a new state repository
func NewStateRepository(db *gorm.DB) StateRepository {
	return &stateRepository{db: db}
}

func (r *stateRepository) Load(ctx context.Context) ([]byte, error) {
	var row models.BoardState
	err := r.db.WithContext(ctx).First(&row, boardStateID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(row.Document), nil
}

func (r *stateRepository) Save(ctx context.Context, doc []byte) error {
	row := models.BoardState{
		ID:        boardStateID,
		Document:  string(doc),
		UpdatedAt: time.Now().UTC(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"document", "updated_at"}),
		}).
		Create(&row).Error
}
