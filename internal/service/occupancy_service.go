package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/opencampus/classroom-occupancy-api/internal/dto"
	"github.com/opencampus/classroom-occupancy-api/internal/models"
	appErrors "github.com/opencampus/classroom-occupancy-api/pkg/errors"
)

type occupancyStore interface {
	FindByClassroom(ctx context.Context, classroomID string) (*models.OccupancySnapshot, error)
	Upsert(ctx context.Context, snapshot *models.OccupancySnapshot) error
	History(ctx context.Context, filter models.HistoryFilter) ([]models.OccupancyObservation, int, error)
}

// OccupancyService ingests camera readings and serves raw occupancy data.
type OccupancyService struct {
	repo       occupancyStore
	classrooms classroomExistsChecker
	cache      statusCacheInvalidator
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewOccupancyService constructs the service.
func NewOccupancyService(repo occupancyStore, classrooms classroomExistsChecker, cache statusCacheInvalidator, validate *validator.Validate, logger *zap.Logger) *OccupancyService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OccupancyService{repo: repo, classrooms: classrooms, cache: cache, validator: validate, logger: logger}
}

// Get returns the latest snapshot for a classroom. A room no camera has ever
// reported for yields a zero-count synthetic snapshot rather than an error.
func (s *OccupancyService) Get(ctx context.Context, classroomID string) (*models.OccupancySnapshot, error) {
	if err := s.requireClassroom(ctx, classroomID); err != nil {
		return nil, err
	}
	snapshot, err := s.repo.FindByClassroom(ctx, classroomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.OccupancySnapshot{ClassroomID: classroomID}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load occupancy snapshot")
	}
	return snapshot, nil
}

// Update overwrites the room's snapshot with a fresh camera reading and
// appends it to the history log. Last committed write wins.
func (s *OccupancyService) Update(ctx context.Context, classroomID string, req dto.UpdateOccupancyRequest) (*models.OccupancySnapshot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if err := s.requireClassroom(ctx, classroomID); err != nil {
		return nil, err
	}

	snapshot := &models.OccupancySnapshot{
		ClassroomID:         classroomID,
		CurrentCount:        req.CurrentCount,
		DetectionConfidence: req.DetectionConfidence,
		CameraID:            req.CameraID,
		LastUpdated:         time.Now().UTC(),
	}
	if err := s.repo.Upsert(ctx, snapshot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store occupancy snapshot")
	}
	s.invalidateStatusCache(ctx)
	s.logger.Debug("occupancy updated",
		zap.String("classroom_id", classroomID),
		zap.Int("current_count", req.CurrentCount),
		zap.Float64("detection_confidence", req.DetectionConfidence))
	return snapshot, nil
}

// History pages through the observation log for one classroom.
func (s *OccupancyService) History(ctx context.Context, filter models.HistoryFilter) (*dto.HistoryResponse, error) {
	if err := s.requireClassroom(ctx, filter.ClassroomID); err != nil {
		return nil, err
	}
	observations, total, err := s.repo.History(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load occupancy history")
	}
	if observations == nil {
		observations = []models.OccupancyObservation{}
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 500 {
		size = 100
	}
	return &dto.HistoryResponse{
		ClassroomID:  filter.ClassroomID,
		Observations: observations,
		Pagination:   models.Pagination{Page: page, PageSize: size, TotalCount: total},
	}, nil
}

func (s *OccupancyService) requireClassroom(ctx context.Context, classroomID string) error {
	exists, err := s.classrooms.ExistsByID(ctx, classroomID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check classroom")
	}
	if !exists {
		return appErrors.Clone(appErrors.ErrNotFound, "classroom not found")
	}
	return nil
}

func (s *OccupancyService) invalidateStatusCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "status:*"); err != nil {
		s.logger.Warn("status cache invalidation failed", zap.Error(err))
	}
}
