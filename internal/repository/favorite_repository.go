package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/opencampus/classroom-occupancy-api/internal/models"
)

// FavoriteRepository persists per-user favorite classrooms.
type FavoriteRepository struct {
	db *sqlx.DB
}

// NewFavoriteRepository creates a new favorite repository.
func NewFavoriteRepository(db *sqlx.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

// ListByUser returns a user's favorites joined with the classroom details.
func (r *FavoriteRepository) ListByUser(ctx context.Context, userID string) ([]models.FavoriteWithClassroom, error) {
	const query = `SELECT f.id, f.user_id, f.classroom_id, f.created_at,
	c.id AS "classroom.id", c.room_number AS "classroom.room_number", c.building_id AS "classroom.building_id",
	c.faculty AS "classroom.faculty", c.floor AS "classroom.floor", c.capacity AS "classroom.capacity",
	c.has_projector AS "classroom.has_projector", c.has_wifi AS "classroom.has_wifi",
	c.has_power_outlets AS "classroom.has_power_outlets",
	c.created_at AS "classroom.created_at", c.updated_at AS "classroom.updated_at"
FROM favorites f
JOIN classrooms c ON c.id = f.classroom_id
WHERE f.user_id = $1
ORDER BY f.created_at DESC`
	var favorites []models.FavoriteWithClassroom
	if err := r.db.SelectContext(ctx, &favorites, query, userID); err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	return favorites, nil
}

// Exists reports whether the user already favorited the classroom.
func (r *FavoriteRepository) Exists(ctx context.Context, userID, classroomID string) (bool, error) {
	var one int
	err := r.db.GetContext(ctx, &one, `SELECT 1 FROM favorites WHERE user_id = $1 AND classroom_id = $2`, userID, classroomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check favorite: %w", err)
	}
	return true, nil
}

// Create stores a favorite.
func (r *FavoriteRepository) Create(ctx context.Context, favorite *models.Favorite) error {
	if favorite.ID == "" {
		favorite.ID = uuid.NewString()
	}
	if favorite.CreatedAt.IsZero() {
		favorite.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO favorites (id, user_id, classroom_id, created_at) VALUES (:id, :user_id, :classroom_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, favorite); err != nil {
		return fmt.Errorf("create favorite: %w", err)
	}
	return nil
}

// Delete removes a favorite and reports whether a row was removed.
func (r *FavoriteRepository) Delete(ctx context.Context, userID, classroomID string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM favorites WHERE user_id = $1 AND classroom_id = $2`, userID, classroomID)
	if err != nil {
		return false, fmt.Errorf("delete favorite: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete favorite rows affected: %w", err)
	}
	return affected > 0, nil
}
