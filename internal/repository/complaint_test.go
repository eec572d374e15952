package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"bulletin/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleComplaint(target int64, reason string) models.Complaint {
	return models.Complaint{
		Timestamp:              time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		TargetID:               target,
		TargetDisplayName:      "Petrov Ivan",
		TargetCode:             "123456",
		ComplainantID:          7,
		ComplainantDisplayName: "Sidorova Anna",
		Reason:                 reason,
	}
}

func TestComplaintRepository_Append(t *testing.T) {
	tests := []struct {
		name          string
		mockBehavior  func(mock sqlmock.Sqlmock)
		expectedError bool
	}{
		{
			name: "Success",
			mockBehavior: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "complaints"`)).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
				mock.ExpectCommit()
			},
		},
		{
			name: "Insert fails",
			mockBehavior: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "complaints"`)).
					WillReturnError(errors.New("disk full"))
				mock.ExpectRollback()
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockDB(t)
			repo := NewComplaintRepository(db)
			tt.mockBehavior(mock)

			err := repo.Append(context.Background(), sampleComplaint(42, "spam"))
			if tt.expectedError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestComplaintRepository_AppendNothing(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewComplaintRepository(db)

	assert.NoError(t, repo.Append(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestComplaintRepository_ListOrder(t *testing.T) {
	repo := NewComplaintRepository(setupSQLiteDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, sampleComplaint(1, "first")))
	require.NoError(t, repo.Append(ctx, sampleComplaint(2, "second"), sampleComplaint(3, "third")))

	got, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "first", got[0].Reason)
	assert.Equal(t, "third", got[2].Reason)
	assert.Equal(t, models.ComplaintStatusNew, got[0].Status)
	assert.True(t, got[1].Timestamp.Equal(sampleComplaint(0, "").Timestamp))
}

func TestInTransaction_RollsBackOnError(t *testing.T) {
	db := setupSQLiteDB(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := InTransaction(ctx, db, func(states StateRepository, complaints ComplaintRepository) error {
		require.NoError(t, states.Save(ctx, []byte(`{"approved":[]}`)))
		require.NoError(t, complaints.Append(ctx, sampleComplaint(1, "x")))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	doc, err := NewStateRepository(db).Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, doc)

	var count int64
	require.NoError(t, db.Model(&models.ComplaintEntry{}).Count(&count).Error)
	assert.Zero(t, count)
}
