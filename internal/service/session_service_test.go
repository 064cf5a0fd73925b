package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencampus/classroom-occupancy-api/internal/dto"
	"github.com/opencampus/classroom-occupancy-api/internal/models"
	appErrors "github.com/opencampus/classroom-occupancy-api/pkg/errors"
)

type mockSessionRepo struct {
	sessions    map[string]*models.ClassSession
	byClassroom map[string][]models.ClassSession
	takenSlots  map[string]bool
	created     []models.ClassSession
	bulkCreated []models.ClassSession
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{
		sessions:    map[string]*models.ClassSession{},
		byClassroom: map[string][]models.ClassSession{},
		takenSlots:  map[string]bool{},
	}
}

func slotKey(classroomID string, day, period int) string {
	return classroomID + "|" + models.DayNames[day] + "|" + string(rune('0'+period))
}

func (m *mockSessionRepo) List(ctx context.Context, filter models.SessionFilter) ([]models.ClassSession, int, error) {
	var out []models.ClassSession
	for _, s := range m.sessions {
		out = append(out, *s)
	}
	return out, len(out), nil
}

func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*models.ClassSession, error) {
	if s, ok := m.sessions[id]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSessionRepo) ListByClassroom(ctx context.Context, classroomID string) ([]models.ClassSession, error) {
	return m.byClassroom[classroomID], nil
}

func (m *mockSessionRepo) ListActive(ctx context.Context, dayOfWeek int, clock string) ([]models.ClassSession, error) {
	var active []models.ClassSession
	for _, sessions := range m.byClassroom {
		for _, session := range sessions {
			if session.DayOfWeek == dayOfWeek && session.StartTime <= clock && clock <= session.EndTime {
				active = append(active, session)
			}
		}
	}
	return active, nil
}

func (m *mockSessionRepo) ExistsForSlot(ctx context.Context, classroomID string, day, period int, ignoreID string) (bool, error) {
	return m.takenSlots[slotKey(classroomID, day, period)], nil
}

func (m *mockSessionRepo) Create(ctx context.Context, session *models.ClassSession) error {
	session.ID = "sess-created"
	m.created = append(m.created, *session)
	return nil
}

func (m *mockSessionRepo) BulkCreate(ctx context.Context, sessions []models.ClassSession) error {
	m.bulkCreated = append(m.bulkCreated, sessions...)
	return nil
}

func (m *mockSessionRepo) Update(ctx context.Context, session *models.ClassSession) error {
	m.sessions[session.ID] = session
	return nil
}

func (m *mockSessionRepo) Delete(ctx context.Context, id string) error {
	delete(m.sessions, id)
	return nil
}

type mockClassroomChecker struct {
	known map[string]bool
}

func (m *mockClassroomChecker) ExistsByID(ctx context.Context, id string) (bool, error) {
	return m.known[id], nil
}

func TestSessionServiceCreateDerivesWindowFromPeriod(t *testing.T) {
	repo := newMockSessionRepo()
	svc := NewSessionService(repo, &mockClassroomChecker{known: map[string]bool{"room-1": true}}, nil, nil, nil)

	created, err := svc.Create(context.Background(), dto.CreateSessionRequest{
		ClassroomID: "room-1",
		ClassName:   "Linear Algebra",
		DayOfWeek:   2,
		Period:      3,
	})
	require.NoError(t, err)
	assert.Equal(t, "13:00", created.StartTime)
	assert.Equal(t, "14:30", created.EndTime)
	require.Len(t, repo.created, 1)
}

func TestSessionServiceCreateRejectsInvalidPeriod(t *testing.T) {
	repo := newMockSessionRepo()
	svc := NewSessionService(repo, &mockClassroomChecker{known: map[string]bool{"room-1": true}}, nil, nil, nil)

	_, err := svc.Create(context.Background(), dto.CreateSessionRequest{
		ClassroomID: "room-1",
		ClassName:   "Linear Algebra",
		DayOfWeek:   2,
		Period:      9,
	})
	require.Error(t, err)
}

func TestSessionServiceCreateRejectsInvertedWindow(t *testing.T) {
	repo := newMockSessionRepo()
	svc := NewSessionService(repo, &mockClassroomChecker{known: map[string]bool{"room-1": true}}, nil, nil, nil)

	_, err := svc.Create(context.Background(), dto.CreateSessionRequest{
		ClassroomID: "room-1",
		ClassName:   "Linear Algebra",
		DayOfWeek:   2,
		Period:      3,
		StartTime:   "14:30",
		EndTime:     "13:00",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSessionServiceCreateRejectsTakenSlot(t *testing.T) {
	repo := newMockSessionRepo()
	repo.takenSlots[slotKey("room-1", 2, 3)] = true
	svc := NewSessionService(repo, &mockClassroomChecker{known: map[string]bool{"room-1": true}}, nil, nil, nil)

	_, err := svc.Create(context.Background(), dto.CreateSessionRequest{
		ClassroomID: "room-1",
		ClassName:   "Linear Algebra",
		DayOfWeek:   2,
		Period:      3,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestSessionServiceCreateUnknownClassroom(t *testing.T) {
	repo := newMockSessionRepo()
	svc := NewSessionService(repo, &mockClassroomChecker{known: map[string]bool{}}, nil, nil, nil)

	_, err := svc.Create(context.Background(), dto.CreateSessionRequest{
		ClassroomID: "ghost",
		ClassName:   "Linear Algebra",
		DayOfWeek:   2,
		Period:      3,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSessionServiceBulkCreateRejectsDuplicateInBatch(t *testing.T) {
	repo := newMockSessionRepo()
	svc := NewSessionService(repo, &mockClassroomChecker{known: map[string]bool{"room-1": true}}, nil, nil, nil)

	_, err := svc.BulkCreate(context.Background(), dto.BulkCreateSessionsRequest{
		Sessions: []dto.CreateSessionRequest{
			{ClassroomID: "room-1", ClassName: "Physics", DayOfWeek: 1, Period: 2},
			{ClassroomID: "room-1", ClassName: "Chemistry", DayOfWeek: 1, Period: 2},
		},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.bulkCreated)
}

func TestSessionServiceBulkCreateHappyPath(t *testing.T) {
	repo := newMockSessionRepo()
	svc := NewSessionService(repo, &mockClassroomChecker{known: map[string]bool{"room-1": true}}, nil, nil, nil)

	created, err := svc.BulkCreate(context.Background(), dto.BulkCreateSessionsRequest{
		Sessions: []dto.CreateSessionRequest{
			{ClassroomID: "room-1", ClassName: "Physics", DayOfWeek: 1, Period: 2},
			{ClassroomID: "room-1", ClassName: "Chemistry", DayOfWeek: 1, Period: 3},
		},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, "10:30", created[0].StartTime)
	assert.Equal(t, "13:00", created[1].StartTime)
}

func TestSessionServiceUpdatePeriodRealignsWindow(t *testing.T) {
	repo := newMockSessionRepo()
	repo.sessions["sess-1"] = &models.ClassSession{
		ID: "sess-1", ClassroomID: "room-1", ClassName: "Physics",
		DayOfWeek: 1, Period: 2, StartTime: "10:30", EndTime: "12:00",
	}
	svc := NewSessionService(repo, &mockClassroomChecker{known: map[string]bool{"room-1": true}}, nil, nil, nil)

	period := 5
	updated, err := svc.Update(context.Background(), "sess-1", dto.UpdateSessionRequest{Period: &period})
	require.NoError(t, err)
	assert.Equal(t, "16:20", updated.StartTime)
	assert.Equal(t, "17:50", updated.EndTime)
}

func TestSessionServiceListActive(t *testing.T) {
	repo := newMockSessionRepo()
	repo.byClassroom["room-1"] = []models.ClassSession{
		{ID: "s-1", ClassroomID: "room-1", DayOfWeek: 2, Period: 3, StartTime: "13:00", EndTime: "14:30"},
		{ID: "s-2", ClassroomID: "room-1", DayOfWeek: 2, Period: 1, StartTime: "08:50", EndTime: "10:20"},
	}
	svc := NewSessionService(repo, &mockClassroomChecker{known: map[string]bool{"room-1": true}}, nil, nil, nil)

	// Wednesday 13:45, inside period 3.
	at := time.Date(2025, 1, 15, 13, 45, 0, 0, time.UTC)
	active, err := svc.ListActive(context.Background(), at)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "s-1", active[0].ID)

	// The end minute itself still counts as in-session.
	atEnd := time.Date(2025, 1, 15, 14, 30, 0, 0, time.UTC)
	active, err = svc.ListActive(context.Background(), atEnd)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "s-1", active[0].ID)
}
