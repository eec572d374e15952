package database

import "bulletin/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.BoardState{},
		&models.ComplaintEntry{},
	}
}
