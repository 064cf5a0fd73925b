package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/opencampus/classroom-occupancy-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func classroomRows(rooms ...models.Classroom) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "room_number", "building_id", "faculty", "floor", "capacity", "has_projector", "has_wifi", "has_power_outlets", "created_at", "updated_at"})
	for _, room := range rooms {
		rows.AddRow(room.ID, room.RoomNumber, room.BuildingID, room.Faculty, room.Floor, room.Capacity, room.HasProjector, room.HasWifi, room.HasPowerOutlets, room.CreatedAt, room.UpdatedAt)
	}
	return rows
}

func TestClassroomRepositoryCreateAndFind(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewClassroomRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO classrooms")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	room := &models.Classroom{
		RoomNumber: "A-301",
		BuildingID: "bldg-1",
		Faculty:    "engineering",
		Floor:      3,
		Capacity:   60,
		HasWifi:    true,
	}
	require.NoError(t, repo.Create(context.Background(), room))
	require.NotEmpty(t, room.ID)

	now := time.Now()
	found := *room
	found.CreatedAt = now
	found.UpdatedAt = now
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, room_number, building_id")).
		WithArgs(room.ID).
		WillReturnRows(classroomRows(found))

	got, err := repo.FindByID(context.Background(), room.ID)
	require.NoError(t, err)
	require.Equal(t, "A-301", got.RoomNumber)
	require.Equal(t, 60, got.Capacity)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassroomRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewClassroomRepository(db)
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, room_number, building_id")).
		WithArgs("science", "bldg-2").
		WillReturnRows(classroomRows(models.Classroom{
			ID: "room-1", RoomNumber: "S-101", BuildingID: "bldg-2", Faculty: "science",
			Floor: 1, Capacity: 40, CreatedAt: now, UpdatedAt: now,
		}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("science", "bldg-2").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	rooms, total, err := repo.List(context.Background(), models.ClassroomFilter{
		Faculty:    "science",
		BuildingID: "bldg-2",
	})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, rooms, 1)
	require.Equal(t, "room-1", rooms[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassroomRepositoryExistsByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewClassroomRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM classrooms")).
		WithArgs("room-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(1))

	exists, err := repo.ExistsByID(context.Background(), "room-1")
	require.NoError(t, err)
	require.True(t, exists)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM classrooms")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}))

	exists, err = repo.ExistsByID(context.Background(), "missing")
	require.NoError(t, err)
	require.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassroomRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewClassroomRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM classrooms")).
		WithArgs("room-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "room-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
