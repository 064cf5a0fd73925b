package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/opencampus/classroom-occupancy-api/internal/dto"
	"github.com/opencampus/classroom-occupancy-api/internal/models"
	appErrors "github.com/opencampus/classroom-occupancy-api/pkg/errors"
)

type favoriteStore interface {
	ListByUser(ctx context.Context, userID string) ([]models.FavoriteWithClassroom, error)
	Exists(ctx context.Context, userID, classroomID string) (bool, error)
	Create(ctx context.Context, favorite *models.Favorite) error
	Delete(ctx context.Context, userID, classroomID string) (bool, error)
}

// FavoriteService manages per-user pinned classrooms.
type FavoriteService struct {
	repo       favoriteStore
	classrooms classroomExistsChecker
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewFavoriteService constructs the service.
func NewFavoriteService(repo favoriteStore, classrooms classroomExistsChecker, validate *validator.Validate, logger *zap.Logger) *FavoriteService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FavoriteService{repo: repo, classrooms: classrooms, validator: validate, logger: logger}
}

// List returns the user's favorites with classroom details.
func (s *FavoriteService) List(ctx context.Context, userID string) ([]models.FavoriteWithClassroom, error) {
	favorites, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list favorites")
	}
	if favorites == nil {
		favorites = []models.FavoriteWithClassroom{}
	}
	return favorites, nil
}

// Add pins a classroom. Re-pinning an existing favorite is a conflict.
func (s *FavoriteService) Add(ctx context.Context, userID string, req dto.CreateFavoriteRequest) (*models.Favorite, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	exists, err := s.classrooms.ExistsByID(ctx, req.ClassroomID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check classroom")
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "classroom not found")
	}

	pinned, err := s.repo.Exists(ctx, userID, req.ClassroomID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check favorite")
	}
	if pinned {
		return nil, appErrors.Clone(appErrors.ErrConflict, "classroom already in favorites")
	}

	favorite := &models.Favorite{UserID: userID, ClassroomID: req.ClassroomID}
	if err := s.repo.Create(ctx, favorite); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create favorite")
	}
	return favorite, nil
}

// Remove unpins a classroom.
func (s *FavoriteService) Remove(ctx context.Context, userID, classroomID string) error {
	removed, err := s.repo.Delete(ctx, userID, classroomID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete favorite")
	}
	if !removed {
		return appErrors.Clone(appErrors.ErrNotFound, "favorite not found")
	}
	return nil
}
