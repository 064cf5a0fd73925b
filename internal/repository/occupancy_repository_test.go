package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/opencampus/classroom-occupancy-api/internal/models"
)

func TestOccupancyRepositoryUpsertAppendsHistory(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewOccupancyRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO occupancy_snapshots")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO occupancy_history")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	camera := "cam-7"
	snapshot := &models.OccupancySnapshot{
		ClassroomID:         "room-1",
		CurrentCount:        17,
		DetectionConfidence: 0.92,
		CameraID:            &camera,
	}
	require.NoError(t, repo.Upsert(context.Background(), snapshot))
	require.NotEmpty(t, snapshot.ID)
	require.False(t, snapshot.LastUpdated.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOccupancyRepositoryUpsertRollsBackOnHistoryFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewOccupancyRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO occupancy_snapshots")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO occupancy_history")).
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	err := repo.Upsert(context.Background(), &models.OccupancySnapshot{
		ClassroomID:  "room-1",
		CurrentCount: 4,
	})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOccupancyRepositorySnapshotsByClassroomIDs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewOccupancyRepository(db)
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "classroom_id", "current_count", "detection_confidence", "camera_id", "last_updated"}).
		AddRow("snap-1", "room-1", 12, 0.88, nil, now).
		AddRow("snap-2", "room-3", 0, 0.95, nil, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, classroom_id, current_count")).
		WithArgs("room-1", "room-2", "room-3").
		WillReturnRows(rows)

	snapshots, err := repo.SnapshotsByClassroomIDs(context.Background(), []string{"room-1", "room-2", "room-3"})
	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	require.Equal(t, 12, snapshots["room-1"].CurrentCount)
	_, found := snapshots["room-2"]
	require.False(t, found)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOccupancyRepositoryHistoryWindow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewOccupancyRepository(db)
	from := time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "classroom_id", "timestamp", "count", "detection_confidence", "camera_id"}).
		AddRow("obs-1", "room-1", from.Add(9*time.Hour), 20, 0.9, nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, classroom_id, timestamp")).
		WithArgs("room-1", from, to).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("room-1", from, to).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	observations, total, err := repo.History(context.Background(), models.HistoryFilter{
		ClassroomID: "room-1",
		From:        &from,
		To:          &to,
	})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, observations, 1)
	require.Equal(t, 20, observations[0].Count)
	require.NoError(t, mock.ExpectationsWereMet())
}
