package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/opencampus/classroom-occupancy-api/internal/models"
)

const reportColumns = "id, type, params, status, progress, result_url, created_by, created_at, finished_at, error_message"

// ReportRepository persists asynchronous report jobs.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository creates a new report repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create stores a freshly queued job.
func (r *ReportRepository) Create(ctx context.Context, job *models.ReportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	if job.Status == "" {
		job.Status = models.ReportStatusQueued
	}
	const query = `INSERT INTO report_jobs (id, type, params, status, progress, result_url, created_by, created_at, finished_at, error_message)
VALUES (:id, :type, :params, :status, :progress, :result_url, :created_by, :created_at, :finished_at, :error_message)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create report job: %w", err)
	}
	return nil
}

// FindByID loads a job by id.
func (r *ReportRepository) FindByID(ctx context.Context, id string) (*models.ReportJob, error) {
	query := fmt.Sprintf("SELECT %s FROM report_jobs WHERE id = $1", reportColumns)
	var job models.ReportJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, err
	}
	return &job, nil
}

// ListByUser returns the jobs a user queued, newest first.
func (r *ReportRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.ReportJob, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := fmt.Sprintf("SELECT %s FROM report_jobs WHERE created_by = $1 ORDER BY created_at DESC LIMIT %d", reportColumns, limit)
	var jobs []models.ReportJob
	if err := r.db.SelectContext(ctx, &jobs, query, userID); err != nil {
		return nil, fmt.Errorf("list report jobs: %w", err)
	}
	return jobs, nil
}

// UpdateStatus transitions a job's lifecycle state and progress.
func (r *ReportRepository) UpdateStatus(ctx context.Context, id string, status models.ReportStatus, progress int) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE report_jobs SET status = $1, progress = $2 WHERE id = $3`, status, progress, id); err != nil {
		return fmt.Errorf("update report job status: %w", err)
	}
	return nil
}

// MarkFinished records a successful completion with the artifact location.
func (r *ReportRepository) MarkFinished(ctx context.Context, id, resultURL string) error {
	now := time.Now().UTC()
	if _, err := r.db.ExecContext(ctx, `UPDATE report_jobs SET status = $1, progress = 100, result_url = $2, finished_at = $3 WHERE id = $4`, models.ReportStatusFinished, resultURL, now, id); err != nil {
		return fmt.Errorf("mark report job finished: %w", err)
	}
	return nil
}

// MarkFailed records a terminal failure with its reason.
func (r *ReportRepository) MarkFailed(ctx context.Context, id, reason string) error {
	now := time.Now().UTC()
	if _, err := r.db.ExecContext(ctx, `UPDATE report_jobs SET status = $1, error_message = $2, finished_at = $3 WHERE id = $4`, models.ReportStatusFailed, reason, now, id); err != nil {
		return fmt.Errorf("mark report job failed: %w", err)
	}
	return nil
}
