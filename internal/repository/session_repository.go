package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/opencampus/classroom-occupancy-api/internal/models"
)

const sessionColumns = "id, classroom_id, class_name, instructor, day_of_week, period, start_time, end_time, semester, course_code, created_at, updated_at"

// SessionRepository provides persistence for weekly class sessions.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new session repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// List returns class sessions with optional filtering and pagination.
func (r *SessionRepository) List(ctx context.Context, filter models.SessionFilter) ([]models.ClassSession, int, error) {
	base := "FROM class_sessions WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.ClassroomID != "" {
		conditions = append(conditions, fmt.Sprintf("classroom_id = $%d", len(args)+1))
		args = append(args, filter.ClassroomID)
	}
	if filter.DayOfWeek != nil {
		conditions = append(conditions, fmt.Sprintf("day_of_week = $%d", len(args)+1))
		args = append(args, *filter.DayOfWeek)
	}
	if filter.Period != nil {
		conditions = append(conditions, fmt.Sprintf("period = $%d", len(args)+1))
		args = append(args, *filter.Period)
	}
	if filter.Semester != "" {
		conditions = append(conditions, fmt.Sprintf("semester = $%d", len(args)+1))
		args = append(args, filter.Semester)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"day_of_week": true,
		"period":      true,
		"class_name":  true,
		"created_at":  true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "day_of_week"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s, period ASC LIMIT %d OFFSET %d", sessionColumns, base, sortBy, order, size, offset)
	var sessions []models.ClassSession
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list sessions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count sessions: %w", err)
	}

	return sessions, total, nil
}

// FindByID loads a session by id.
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.ClassSession, error) {
	query := fmt.Sprintf("SELECT %s FROM class_sessions WHERE id = $1", sessionColumns)
	var session models.ClassSession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// ListByClassroom returns every session for one classroom in timetable order.
func (r *SessionRepository) ListByClassroom(ctx context.Context, classroomID string) ([]models.ClassSession, error) {
	query := fmt.Sprintf("SELECT %s FROM class_sessions WHERE classroom_id = $1 ORDER BY day_of_week ASC, period ASC", sessionColumns)
	var sessions []models.ClassSession
	if err := r.db.SelectContext(ctx, &sessions, query, classroomID); err != nil {
		return nil, fmt.Errorf("list sessions by classroom: %w", err)
	}
	return sessions, nil
}

// ListActive returns the sessions whose window contains the given weekday
// and clock time.
func (r *SessionRepository) ListActive(ctx context.Context, dayOfWeek int, clock string) ([]models.ClassSession, error) {
	query := fmt.Sprintf("SELECT %s FROM class_sessions WHERE day_of_week = $1 AND start_time <= $2 AND end_time >= $2 ORDER BY period ASC, classroom_id ASC", sessionColumns)
	var sessions []models.ClassSession
	if err := r.db.SelectContext(ctx, &sessions, query, dayOfWeek, clock); err != nil {
		return nil, fmt.Errorf("list active sessions: %w", err)
	}
	return sessions, nil
}

// ListByClassroomIDs loads sessions for a set of classrooms in one query,
// grouped by classroom id. Batch loading avoids a per-room query in the
// status endpoint.
func (r *SessionRepository) ListByClassroomIDs(ctx context.Context, classroomIDs []string) (map[string][]models.ClassSession, error) {
	result := make(map[string][]models.ClassSession, len(classroomIDs))
	if len(classroomIDs) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In(fmt.Sprintf("SELECT %s FROM class_sessions WHERE classroom_id IN (?) ORDER BY day_of_week ASC, period ASC", sessionColumns), classroomIDs)
	if err != nil {
		return nil, fmt.Errorf("build sessions batch query: %w", err)
	}
	query = r.db.Rebind(query)

	var sessions []models.ClassSession
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, fmt.Errorf("list sessions by classrooms: %w", err)
	}

	for _, session := range sessions {
		result[session.ClassroomID] = append(result[session.ClassroomID], session)
	}
	return result, nil
}

// ExistsForSlot reports whether the classroom already has a session on the
// given (day, period) slot, optionally ignoring one session id.
func (r *SessionRepository) ExistsForSlot(ctx context.Context, classroomID string, dayOfWeek, period int, ignoreID string) (bool, error) {
	var one int
	err := r.db.GetContext(ctx, &one, `SELECT 1 FROM class_sessions WHERE classroom_id = $1 AND day_of_week = $2 AND period = $3 AND id <> $4 LIMIT 1`, classroomID, dayOfWeek, period, ignoreID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check session slot: %w", err)
	}
	return true, nil
}

// Create stores a new session record.
func (r *SessionRepository) Create(ctx context.Context, session *models.ClassSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	const query = `INSERT INTO class_sessions (id, classroom_id, class_name, instructor, day_of_week, period, start_time, end_time, semester, course_code, created_at, updated_at) VALUES (:id, :classroom_id, :class_name, :instructor, :day_of_week, :period, :start_time, :end_time, :semester, :course_code, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// BulkCreate inserts many sessions within a transaction.
func (r *SessionRepository) BulkCreate(ctx context.Context, sessions []models.ClassSession) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk create sessions: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	for i := range sessions {
		payload := sessions[i]
		if payload.ID == "" {
			payload.ID = uuid.NewString()
		}
		if payload.CreatedAt.IsZero() {
			payload.CreatedAt = now
		}
		payload.UpdatedAt = now

		if _, err = sqlx.NamedExecContext(ctx, tx, `INSERT INTO class_sessions (id, classroom_id, class_name, instructor, day_of_week, period, start_time, end_time, semester, course_code, created_at, updated_at) VALUES (:id, :classroom_id, :class_name, :instructor, :day_of_week, :period, :start_time, :end_time, :semester, :course_code, :created_at, :updated_at)`, &payload); err != nil {
			return fmt.Errorf("bulk insert session: %w", err)
		}
		sessions[i] = payload
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk create sessions: %w", err)
	}
	return nil
}

// Update modifies a session record.
func (r *SessionRepository) Update(ctx context.Context, session *models.ClassSession) error {
	session.UpdatedAt = time.Now().UTC()
	const query = `UPDATE class_sessions SET classroom_id = :classroom_id, class_name = :class_name, instructor = :instructor, day_of_week = :day_of_week, period = :period, start_time = :start_time, end_time = :end_time, semester = :semester, course_code = :course_code, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

// Delete removes a session by id.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM class_sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
