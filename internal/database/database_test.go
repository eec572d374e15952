package database

import (
	"path/filepath"
	"testing"

	"bulletin/internal/config"
	"bulletin/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
)

func TestDialector(t *testing.T) {
	t.Run("sqlite default", func(t *testing.T) {
		d, err := Dialector(&config.Config{DBPath: "board.db"})
		require.NoError(t, err)
		_, ok := d.(*sqlite.Dialector)
		assert.True(t, ok)
	})

	t.Run("postgres", func(t *testing.T) {
		d, err := Dialector(&config.Config{DBDriver: "postgres", DBHost: "db", DBPort: "5432"})
		require.NoError(t, err)
		pg, ok := d.(*postgres.Dialector)
		require.True(t, ok)
		assert.Contains(t, pg.Config.DSN, "host=db")
		assert.Contains(t, pg.Config.DSN, "sslmode=disable")
	})

	t.Run("unsupported", func(t *testing.T) {
		_, err := Dialector(&config.Config{DBDriver: "mysql"})
		assert.Error(t, err)
	})
}

func TestConnect_MigratesSchema(t *testing.T) {
	cfg := &config.Config{DBDriver: "sqlite", DBPath: filepath.Join(t.TempDir(), "board.db")}

	db, err := Connect(cfg)
	require.NoError(t, err)

	assert.True(t, db.Migrator().HasTable(&models.BoardState{}))
	assert.True(t, db.Migrator().HasTable(&models.ComplaintEntry{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
	require.NoError(t, sqlDB.Close())
}
