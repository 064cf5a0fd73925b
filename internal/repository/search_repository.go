package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/opencampus/classroom-occupancy-api/internal/models"
)

// SearchRepository persists per-user classroom search history.
type SearchRepository struct {
	db *sqlx.DB
}

// NewSearchRepository creates a new search history repository.
func NewSearchRepository(db *sqlx.DB) *SearchRepository {
	return &SearchRepository{db: db}
}

// ListByUser returns a user's recent searches, newest first.
func (r *SearchRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.SearchEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := fmt.Sprintf("SELECT id, user_id, query, filters, created_at FROM search_history WHERE user_id = $1 ORDER BY created_at DESC LIMIT %d", limit)
	var entries []models.SearchEntry
	if err := r.db.SelectContext(ctx, &entries, query, userID); err != nil {
		return nil, fmt.Errorf("list search history: %w", err)
	}
	return entries, nil
}

// Create stores a search entry.
func (r *SearchRepository) Create(ctx context.Context, entry *models.SearchEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO search_history (id, user_id, query, filters, created_at) VALUES (:id, :user_id, :query, :filters, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create search entry: %w", err)
	}
	return nil
}

// DeleteByUser clears a user's search history.
func (r *SearchRepository) DeleteByUser(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM search_history WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear search history: %w", err)
	}
	return nil
}

// Delete removes one search entry owned by the user and reports whether a
// row was removed.
func (r *SearchRepository) Delete(ctx context.Context, userID, entryID string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM search_history WHERE id = $1 AND user_id = $2`, entryID, userID)
	if err != nil {
		return false, fmt.Errorf("delete search entry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete search entry rows affected: %w", err)
	}
	return affected > 0, nil
}
