package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencampus/classroom-occupancy-api/internal/models"
	appErrors "github.com/opencampus/classroom-occupancy-api/pkg/errors"
)

type mockDirectory struct {
	rooms      []models.Classroom
	lastFilter models.ClassroomFilter
}

func (m *mockDirectory) List(ctx context.Context, filter models.ClassroomFilter) ([]models.Classroom, int, error) {
	m.lastFilter = filter
	var out []models.Classroom
	for _, room := range m.rooms {
		if filter.Faculty != "" && room.Faculty != filter.Faculty {
			continue
		}
		out = append(out, room)
	}
	return out, len(out), nil
}

func (m *mockDirectory) FindByID(ctx context.Context, id string) (*models.Classroom, error) {
	for _, room := range m.rooms {
		if room.ID == id {
			copied := room
			return &copied, nil
		}
	}
	return nil, appErrors.ErrNotFound
}

func (m *mockDirectory) Create(ctx context.Context, room *models.Classroom) error  { return nil }
func (m *mockDirectory) Update(ctx context.Context, room *models.Classroom) error  { return nil }
func (m *mockDirectory) Delete(ctx context.Context, id string) error               { return nil }
func (m *mockDirectory) ListBuildings(ctx context.Context) ([]models.Building, error) {
	return nil, nil
}

type mockSessionBatch struct {
	byRoom map[string][]models.ClassSession
}

func (m *mockSessionBatch) ListByClassroomIDs(ctx context.Context, ids []string) (map[string][]models.ClassSession, error) {
	out := map[string][]models.ClassSession{}
	for _, id := range ids {
		if sessions, ok := m.byRoom[id]; ok {
			out[id] = sessions
		}
	}
	return out, nil
}

type mockSnapshotBatch struct {
	byRoom map[string]models.OccupancySnapshot
}

func (m *mockSnapshotBatch) SnapshotsByClassroomIDs(ctx context.Context, ids []string) (map[string]models.OccupancySnapshot, error) {
	out := map[string]models.OccupancySnapshot{}
	for _, id := range ids {
		if snap, ok := m.byRoom[id]; ok {
			out[id] = snap
		}
	}
	return out, nil
}

type mockImageStore struct {
	files map[string]bool
}

func (m *mockImageStore) Exists(filename string) bool { return m.files[filename] }

// Wednesday 2025-01-15 13:45 falls inside period 3.
var wednesdayAfternoon = time.Date(2025, 1, 15, 13, 45, 0, 0, time.UTC)

func newBoardService(dir *mockDirectory, sessions *mockSessionBatch, snapshots *mockSnapshotBatch, images *mockImageStore) *AvailabilityService {
	return NewAvailabilityService(dir, sessions, snapshots, images, nil, nil, AvailabilityServiceConfig{
		LowThreshold:     DefaultLowOccupancyThreshold,
		CrowdedThreshold: DefaultCrowdedThreshold,
		ImageURLPrefix:   "/static/processed",
	})
}

func TestStatusBoardAssemblesAllRooms(t *testing.T) {
	dir := &mockDirectory{rooms: []models.Classroom{
		{ID: "room-1", RoomNumber: "A-101", Faculty: "engineering", Capacity: 40},
		{ID: "room-2", RoomNumber: "A-102", Faculty: "engineering", Capacity: 40},
	}}
	sessions := &mockSessionBatch{byRoom: map[string][]models.ClassSession{
		"room-1": {{ID: "sess-1", ClassroomID: "room-1", ClassName: "Calculus", DayOfWeek: 2, Period: 3, StartTime: "13:00", EndTime: "14:30"}},
	}}
	snapshots := &mockSnapshotBatch{byRoom: map[string]models.OccupancySnapshot{
		"room-1": {ID: "snap-1", ClassroomID: "room-1", CurrentCount: 30},
	}}
	svc := newBoardService(dir, sessions, snapshots, &mockImageStore{files: map[string]bool{"room-1.jpg": true}})

	board, err := svc.StatusBoard(context.Background(), models.OccupancyFilter{}, models.NowAt(wednesdayAfternoon))
	require.NoError(t, err)
	require.Equal(t, 2, board.Total)

	first := board.Results[0]
	assert.Equal(t, models.StatusInClass, first.Status)
	assert.False(t, first.IsAvailable)
	assert.InDelta(t, 0.75, first.OccupancyRate, 1e-9)
	require.NotNil(t, first.ImageURL)
	assert.Equal(t, "/static/processed/room-1.jpg", *first.ImageURL)

	// No snapshot and no session: free room, zero rate, no image.
	second := board.Results[1]
	assert.Equal(t, models.StatusAvailable, second.Status)
	assert.True(t, second.IsAvailable)
	assert.Zero(t, second.OccupancyRate)
	assert.Nil(t, second.Occupancy)
	assert.Nil(t, second.ImageURL)
}

func TestStatusBoardAvailableOnlyFilters(t *testing.T) {
	dir := &mockDirectory{rooms: []models.Classroom{
		{ID: "room-1", RoomNumber: "A-101", Capacity: 40},
		{ID: "room-2", RoomNumber: "A-102", Capacity: 40},
	}}
	sessions := &mockSessionBatch{byRoom: map[string][]models.ClassSession{
		"room-1": {{ID: "sess-1", ClassroomID: "room-1", ClassName: "Calculus", DayOfWeek: 2, Period: 3, StartTime: "13:00", EndTime: "14:30"}},
	}}
	snapshots := &mockSnapshotBatch{byRoom: map[string]models.OccupancySnapshot{
		"room-1": {ClassroomID: "room-1", CurrentCount: 30},
	}}
	svc := newBoardService(dir, sessions, snapshots, &mockImageStore{})

	board, err := svc.StatusBoard(context.Background(), models.OccupancyFilter{AvailableOnly: true}, models.NowAt(wednesdayAfternoon))
	require.NoError(t, err)
	require.Equal(t, 1, board.Total)
	assert.Equal(t, "room-2", board.Results[0].Classroom.ID)
}

func TestStatusBoardFutureModeIgnoresOccupancy(t *testing.T) {
	dir := &mockDirectory{rooms: []models.Classroom{
		{ID: "room-1", RoomNumber: "A-101", Capacity: 40},
	}}
	sessions := &mockSessionBatch{byRoom: map[string][]models.ClassSession{
		"room-1": {{ID: "sess-1", ClassroomID: "room-1", ClassName: "Calculus", DayOfWeek: 2, Period: 3, StartTime: "13:00", EndTime: "14:30"}},
	}}
	// A packed room right now must not matter for a future query.
	snapshots := &mockSnapshotBatch{byRoom: map[string]models.OccupancySnapshot{
		"room-1": {ClassroomID: "room-1", CurrentCount: 40},
	}}
	svc := newBoardService(dir, sessions, snapshots, &mockImageStore{})

	monday := time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC)
	board, err := svc.StatusBoard(context.Background(), models.OccupancyFilter{}, models.FutureAt(monday, 3))
	require.NoError(t, err)
	require.Equal(t, 1, board.Total)
	assert.Equal(t, models.StatusAvailable, board.Results[0].Status)
	assert.True(t, board.Results[0].IsAvailable)
}

func TestClassroomStatusSingleRoom(t *testing.T) {
	dir := &mockDirectory{rooms: []models.Classroom{
		{ID: "room-1", RoomNumber: "A-101", Capacity: 40},
	}}
	sessions := &mockSessionBatch{byRoom: map[string][]models.ClassSession{}}
	snapshots := &mockSnapshotBatch{byRoom: map[string]models.OccupancySnapshot{
		"room-1": {ClassroomID: "room-1", CurrentCount: 25},
	}}
	svc := newBoardService(dir, sessions, snapshots, &mockImageStore{})

	report, err := svc.ClassroomStatus(context.Background(), "room-1", models.NowAt(wednesdayAfternoon))
	require.NoError(t, err)
	assert.Equal(t, models.StatusOccupied, report.Status)
	assert.False(t, report.IsAvailable)

	_, err = svc.ClassroomStatus(context.Background(), "ghost", models.NowAt(wednesdayAfternoon))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestStatusBoardForwardsFloorFilter(t *testing.T) {
	dir := &mockDirectory{rooms: []models.Classroom{{ID: "room-1", Capacity: 40}}}
	svc := newBoardService(dir, &mockSessionBatch{byRoom: map[string][]models.ClassSession{}}, &mockSnapshotBatch{byRoom: map[string]models.OccupancySnapshot{}}, &mockImageStore{})

	floor := 3
	_, err := svc.StatusBoard(context.Background(), models.OccupancyFilter{Faculty: "engineering", Floor: &floor}, models.NowAt(wednesdayAfternoon))
	require.NoError(t, err)
	assert.Equal(t, "engineering", dir.lastFilter.Faculty)
	require.NotNil(t, dir.lastFilter.Floor)
	assert.Equal(t, 3, *dir.lastFilter.Floor)
}

func TestStatusBoardInvalidFuturePeriod(t *testing.T) {
	dir := &mockDirectory{rooms: []models.Classroom{{ID: "room-1", Capacity: 40}}}
	svc := newBoardService(dir, &mockSessionBatch{byRoom: map[string][]models.ClassSession{}}, &mockSnapshotBatch{byRoom: map[string]models.OccupancySnapshot{}}, &mockImageStore{})

	monday := time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC)
	_, err := svc.StatusBoard(context.Background(), models.OccupancyFilter{}, models.FutureAt(monday, 8))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidPeriod.Code, appErrors.FromError(err).Code)
}
