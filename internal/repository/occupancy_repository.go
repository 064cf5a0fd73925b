package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/opencampus/classroom-occupancy-api/internal/models"
)

const snapshotColumns = "id, classroom_id, current_count, detection_confidence, camera_id, last_updated"

// OccupancyRepository persists per-room occupancy snapshots and the
// append-only observation history behind them.
type OccupancyRepository struct {
	db *sqlx.DB
}

// NewOccupancyRepository creates a new occupancy repository.
func NewOccupancyRepository(db *sqlx.DB) *OccupancyRepository {
	return &OccupancyRepository{db: db}
}

// FindByClassroom returns the latest snapshot for one classroom, or nil when
// no camera has ever reported for it.
func (r *OccupancyRepository) FindByClassroom(ctx context.Context, classroomID string) (*models.OccupancySnapshot, error) {
	query := fmt.Sprintf("SELECT %s FROM occupancy_snapshots WHERE classroom_id = $1", snapshotColumns)
	var snapshot models.OccupancySnapshot
	if err := r.db.GetContext(ctx, &snapshot, query, classroomID); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// SnapshotsByClassroomIDs loads the latest snapshots for a set of classrooms
// keyed by classroom id. Rooms with no snapshot are simply absent.
func (r *OccupancyRepository) SnapshotsByClassroomIDs(ctx context.Context, classroomIDs []string) (map[string]models.OccupancySnapshot, error) {
	result := make(map[string]models.OccupancySnapshot, len(classroomIDs))
	if len(classroomIDs) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In(fmt.Sprintf("SELECT %s FROM occupancy_snapshots WHERE classroom_id IN (?)", snapshotColumns), classroomIDs)
	if err != nil {
		return nil, fmt.Errorf("build snapshots batch query: %w", err)
	}
	query = r.db.Rebind(query)

	var snapshots []models.OccupancySnapshot
	if err := r.db.SelectContext(ctx, &snapshots, query, args...); err != nil {
		return nil, fmt.Errorf("list snapshots by classrooms: %w", err)
	}

	for _, snapshot := range snapshots {
		result[snapshot.ClassroomID] = snapshot
	}
	return result, nil
}

// Upsert stores the latest reading for a classroom and appends it to the
// observation history in the same transaction.
func (r *OccupancyRepository) Upsert(ctx context.Context, snapshot *models.OccupancySnapshot) (err error) {
	if snapshot.ID == "" {
		snapshot.ID = uuid.NewString()
	}
	if snapshot.LastUpdated.IsZero() {
		snapshot.LastUpdated = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin occupancy upsert: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const upsert = `INSERT INTO occupancy_snapshots (id, classroom_id, current_count, detection_confidence, camera_id, last_updated)
VALUES (:id, :classroom_id, :current_count, :detection_confidence, :camera_id, :last_updated)
ON CONFLICT (classroom_id) DO UPDATE SET
	current_count = EXCLUDED.current_count,
	detection_confidence = EXCLUDED.detection_confidence,
	camera_id = EXCLUDED.camera_id,
	last_updated = EXCLUDED.last_updated`
	if _, err = sqlx.NamedExecContext(ctx, tx, upsert, snapshot); err != nil {
		return fmt.Errorf("upsert occupancy snapshot: %w", err)
	}

	observation := models.OccupancyObservation{
		ID:                  uuid.NewString(),
		ClassroomID:         snapshot.ClassroomID,
		Timestamp:           snapshot.LastUpdated,
		Count:               snapshot.CurrentCount,
		DetectionConfidence: snapshot.DetectionConfidence,
		CameraID:            snapshot.CameraID,
	}
	const history = `INSERT INTO occupancy_history (id, classroom_id, timestamp, count, detection_confidence, camera_id)
VALUES (:id, :classroom_id, :timestamp, :count, :detection_confidence, :camera_id)`
	if _, err = sqlx.NamedExecContext(ctx, tx, history, &observation); err != nil {
		return fmt.Errorf("append occupancy history: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit occupancy upsert: %w", err)
	}
	return nil
}

// History returns recorded observations for a classroom, newest first.
func (r *OccupancyRepository) History(ctx context.Context, filter models.HistoryFilter) ([]models.OccupancyObservation, int, error) {
	base := "FROM occupancy_history WHERE classroom_id = $1"
	args := []interface{}{filter.ClassroomID}

	var conditions []string
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("timestamp >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("timestamp <= $%d", len(args)+1))
		args = append(args, *filter.To)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 500 {
		size = 100
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT id, classroom_id, timestamp, count, detection_confidence, camera_id %s ORDER BY timestamp DESC LIMIT %d OFFSET %d", base, size, offset)
	var observations []models.OccupancyObservation
	if err := r.db.SelectContext(ctx, &observations, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list occupancy history: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count occupancy history: %w", err)
	}

	return observations, total, nil
}

// HistoryRange returns every observation for a classroom inside a time window,
// oldest first. Report generation consumes this.
func (r *OccupancyRepository) HistoryRange(ctx context.Context, classroomID string, from, to time.Time) ([]models.OccupancyObservation, error) {
	const query = `SELECT id, classroom_id, timestamp, count, detection_confidence, camera_id FROM occupancy_history WHERE classroom_id = $1 AND timestamp >= $2 AND timestamp <= $3 ORDER BY timestamp ASC`
	var observations []models.OccupancyObservation
	if err := r.db.SelectContext(ctx, &observations, query, classroomID, from, to); err != nil {
		return nil, fmt.Errorf("list occupancy history range: %w", err)
	}
	return observations, nil
}
