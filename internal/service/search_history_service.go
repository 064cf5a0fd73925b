package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/opencampus/classroom-occupancy-api/internal/dto"
	"github.com/opencampus/classroom-occupancy-api/internal/models"
	appErrors "github.com/opencampus/classroom-occupancy-api/pkg/errors"
)

type searchStore interface {
	ListByUser(ctx context.Context, userID string, limit int) ([]models.SearchEntry, error)
	Create(ctx context.Context, entry *models.SearchEntry) error
	Delete(ctx context.Context, userID, entryID string) (bool, error)
	DeleteByUser(ctx context.Context, userID string) error
}

// SearchHistoryService records and serves per-user search history.
type SearchHistoryService struct {
	repo      searchStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSearchHistoryService constructs the service.
func NewSearchHistoryService(repo searchStore, validate *validator.Validate, logger *zap.Logger) *SearchHistoryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchHistoryService{repo: repo, validator: validate, logger: logger}
}

// List returns the user's recent searches.
func (s *SearchHistoryService) List(ctx context.Context, userID string, limit int) ([]models.SearchEntry, error) {
	entries, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list search history")
	}
	if entries == nil {
		entries = []models.SearchEntry{}
	}
	return entries, nil
}

// Record stores one search.
func (s *SearchHistoryService) Record(ctx context.Context, userID string, req dto.CreateSearchEntryRequest) (*models.SearchEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	entry := &models.SearchEntry{
		UserID:  userID,
		Query:   req.Query,
		Filters: req.Filters,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record search")
	}
	return entry, nil
}

// Remove deletes one entry the user owns.
func (s *SearchHistoryService) Remove(ctx context.Context, userID, entryID string) error {
	removed, err := s.repo.Delete(ctx, userID, entryID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete search entry")
	}
	if !removed {
		return appErrors.Clone(appErrors.ErrNotFound, "search entry not found")
	}
	return nil
}

// Clear wipes the user's search history.
func (s *SearchHistoryService) Clear(ctx context.Context, userID string) error {
	if err := s.repo.DeleteByUser(ctx, userID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear search history")
	}
	return nil
}
