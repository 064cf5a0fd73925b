package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/opencampus/classroom-occupancy-api/internal/dto"
	"github.com/opencampus/classroom-occupancy-api/internal/models"
	appErrors "github.com/opencampus/classroom-occupancy-api/pkg/errors"
)

type sessionStore interface {
	List(ctx context.Context, filter models.SessionFilter) ([]models.ClassSession, int, error)
	FindByID(ctx context.Context, id string) (*models.ClassSession, error)
	ListByClassroom(ctx context.Context, classroomID string) ([]models.ClassSession, error)
	ListActive(ctx context.Context, dayOfWeek int, clock string) ([]models.ClassSession, error)
	ExistsForSlot(ctx context.Context, classroomID string, dayOfWeek, period int, ignoreID string) (bool, error)
	Create(ctx context.Context, session *models.ClassSession) error
	BulkCreate(ctx context.Context, sessions []models.ClassSession) error
	Update(ctx context.Context, session *models.ClassSession) error
	Delete(ctx context.Context, id string) error
}

type classroomExistsChecker interface {
	ExistsByID(ctx context.Context, id string) (bool, error)
}

// SessionService manages the weekly timetable.
type SessionService struct {
	repo       sessionStore
	classrooms classroomExistsChecker
	cache      statusCacheInvalidator
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewSessionService constructs the service.
func NewSessionService(repo sessionStore, classrooms classroomExistsChecker, cache statusCacheInvalidator, validate *validator.Validate, logger *zap.Logger) *SessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{repo: repo, classrooms: classrooms, cache: cache, validator: validate, logger: logger}
}

// List returns a filtered, paginated page of sessions.
func (s *SessionService) List(ctx context.Context, filter models.SessionFilter) (*dto.SessionListResponse, error) {
	sessions, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	if sessions == nil {
		sessions = []models.ClassSession{}
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	return &dto.SessionListResponse{
		Sessions:   sessions,
		Pagination: models.Pagination{Page: page, PageSize: size, TotalCount: total},
	}, nil
}

// Get loads one session.
func (s *SessionService) Get(ctx context.Context, id string) (*models.ClassSession, error) {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	return session, nil
}

// ListByClassroom returns the full weekly timetable of one room.
func (s *SessionService) ListByClassroom(ctx context.Context, classroomID string) ([]models.ClassSession, error) {
	if err := s.requireClassroom(ctx, classroomID); err != nil {
		return nil, err
	}
	sessions, err := s.repo.ListByClassroom(ctx, classroomID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classroom sessions")
	}
	if sessions == nil {
		sessions = []models.ClassSession{}
	}
	return sessions, nil
}

// ListActive returns every session in progress at the given instant.
func (s *SessionService) ListActive(ctx context.Context, at time.Time) ([]models.ClassSession, error) {
	sessions, err := s.repo.ListActive(ctx, models.WeekdayIndex(at), models.ClockString(at))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list active sessions")
	}
	if sessions == nil {
		sessions = []models.ClassSession{}
	}
	return sessions, nil
}

// Create registers one session after slot and window validation.
func (s *SessionService) Create(ctx context.Context, req dto.CreateSessionRequest) (*models.ClassSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	session, err := s.buildSession(ctx, req)
	if err != nil {
		return nil, err
	}

	taken, err := s.repo.ExistsForSlot(ctx, session.ClassroomID, session.DayOfWeek, session.Period, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check timetable slot")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("classroom already has a session on %s period %d", models.DayNames[session.DayOfWeek], session.Period))
	}

	if err := s.repo.Create(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session")
	}
	s.invalidateStatusCache(ctx)
	s.logger.Info("session created", zap.String("session_id", session.ID), zap.String("classroom_id", session.ClassroomID), zap.Int("day_of_week", session.DayOfWeek), zap.Int("period", session.Period))
	return session, nil
}

// BulkCreate registers a timetable batch. The whole batch is validated up
// front, including duplicate slots inside the batch itself, and inserted in
// one transaction.
func (s *SessionService) BulkCreate(ctx context.Context, req dto.BulkCreateSessionsRequest) ([]models.ClassSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	type slot struct {
		classroom string
		day       int
		period    int
	}
	seen := make(map[slot]bool, len(req.Sessions))
	sessions := make([]models.ClassSession, 0, len(req.Sessions))
	for i, item := range req.Sessions {
		session, err := s.buildSession(ctx, item)
		if err != nil {
			return nil, appErrors.Clone(appErrors.FromError(err), fmt.Sprintf("sessions[%d]: %s", i, appErrors.FromError(err).Message))
		}
		key := slot{session.ClassroomID, session.DayOfWeek, session.Period}
		if seen[key] {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("sessions[%d]: duplicate timetable slot in batch", i))
		}
		seen[key] = true

		taken, err := s.repo.ExistsForSlot(ctx, session.ClassroomID, session.DayOfWeek, session.Period, "")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check timetable slot")
		}
		if taken {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("sessions[%d]: classroom already has a session on %s period %d", i, models.DayNames[session.DayOfWeek], session.Period))
		}
		sessions = append(sessions, *session)
	}

	if err := s.repo.BulkCreate(ctx, sessions); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to bulk create sessions")
	}
	s.invalidateStatusCache(ctx)
	s.logger.Info("sessions bulk created", zap.Int("count", len(sessions)))
	return sessions, nil
}

// Update patches one session, revalidating the slot and time window.
func (s *SessionService) Update(ctx context.Context, id string, req dto.UpdateSessionRequest) (*models.ClassSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.ClassName != nil {
		session.ClassName = *req.ClassName
	}
	if req.Instructor != nil {
		session.Instructor = req.Instructor
	}
	if req.DayOfWeek != nil {
		session.DayOfWeek = *req.DayOfWeek
	}
	if req.Period != nil {
		session.Period = *req.Period
	}
	if req.StartTime != nil {
		session.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		session.EndTime = *req.EndTime
	}
	if req.Semester != nil {
		session.Semester = req.Semester
	}
	if req.CourseCode != nil {
		session.CourseCode = req.CourseCode
	}

	if req.Period != nil && req.StartTime == nil && req.EndTime == nil {
		window, err := models.WindowForPeriod(session.Period)
		if err != nil {
			return nil, err
		}
		session.StartTime = window.Start
		session.EndTime = window.End
	}
	if session.StartTime >= session.EndTime {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_time must be before end_time")
	}
	if _, err := models.WindowForPeriod(session.Period); err != nil {
		return nil, err
	}

	taken, err := s.repo.ExistsForSlot(ctx, session.ClassroomID, session.DayOfWeek, session.Period, session.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check timetable slot")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("classroom already has a session on %s period %d", models.DayNames[session.DayOfWeek], session.Period))
	}

	if err := s.repo.Update(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update session")
	}
	s.invalidateStatusCache(ctx)
	return session, nil
}

// Delete removes a session.
func (s *SessionService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete session")
	}
	s.invalidateStatusCache(ctx)
	return nil
}

// buildSession validates a create payload and resolves its time window. A
// missing start/end pair falls back to the period's timetable window.
func (s *SessionService) buildSession(ctx context.Context, req dto.CreateSessionRequest) (*models.ClassSession, error) {
	if err := s.requireClassroom(ctx, req.ClassroomID); err != nil {
		return nil, err
	}

	window, err := models.WindowForPeriod(req.Period)
	if err != nil {
		return nil, err
	}
	start, end := req.StartTime, req.EndTime
	if start == "" {
		start = window.Start
	}
	if end == "" {
		end = window.End
	}
	if start >= end {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_time must be before end_time")
	}

	return &models.ClassSession{
		ClassroomID: req.ClassroomID,
		ClassName:   req.ClassName,
		Instructor:  req.Instructor,
		DayOfWeek:   req.DayOfWeek,
		Period:      req.Period,
		StartTime:   start,
		EndTime:     end,
		Semester:    req.Semester,
		CourseCode:  req.CourseCode,
	}, nil
}

func (s *SessionService) requireClassroom(ctx context.Context, classroomID string) error {
	exists, err := s.classrooms.ExistsByID(ctx, classroomID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check classroom")
	}
	if !exists {
		return appErrors.Clone(appErrors.ErrNotFound, "classroom not found")
	}
	return nil
}

func (s *SessionService) invalidateStatusCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "status:*"); err != nil {
		s.logger.Warn("status cache invalidation failed", zap.Error(err))
	}
}
