package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/opencampus/classroom-occupancy-api/internal/dto"
	"github.com/opencampus/classroom-occupancy-api/internal/models"
	appErrors "github.com/opencampus/classroom-occupancy-api/pkg/errors"
)

type classroomStore interface {
	List(ctx context.Context, filter models.ClassroomFilter) ([]models.Classroom, int, error)
	FindByID(ctx context.Context, id string) (*models.Classroom, error)
	Create(ctx context.Context, room *models.Classroom) error
	Update(ctx context.Context, room *models.Classroom) error
	Delete(ctx context.Context, id string) error
	ListBuildings(ctx context.Context) ([]models.Building, error)
}

type statusCacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// ClassroomService manages the classroom directory.
type ClassroomService struct {
	repo      classroomStore
	cache     statusCacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassroomService constructs the service. cache may be nil when the
// status cache is disabled.
func NewClassroomService(repo classroomStore, cache statusCacheInvalidator, validate *validator.Validate, logger *zap.Logger) *ClassroomService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassroomService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns a filtered, paginated page of the directory.
func (s *ClassroomService) List(ctx context.Context, filter models.ClassroomFilter) (*dto.ClassroomListResponse, error) {
	rooms, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classrooms")
	}
	if rooms == nil {
		rooms = []models.Classroom{}
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 100
	}
	return &dto.ClassroomListResponse{
		Classrooms: rooms,
		Pagination: models.Pagination{Page: page, PageSize: size, TotalCount: total},
	}, nil
}

// Get loads one classroom.
func (s *ClassroomService) Get(ctx context.Context, id string) (*models.Classroom, error) {
	room, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "classroom not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classroom")
	}
	return room, nil
}

// Create registers a new classroom.
func (s *ClassroomService) Create(ctx context.Context, req dto.CreateClassroomRequest) (*models.Classroom, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	room := &models.Classroom{
		RoomNumber:      req.RoomNumber,
		BuildingID:      req.BuildingID,
		Faculty:         req.Faculty,
		Floor:           req.Floor,
		Capacity:        req.Capacity,
		HasProjector:    req.HasProjector,
		HasWifi:         req.HasWifi,
		HasPowerOutlets: req.HasPowerOutlets,
	}
	if err := s.repo.Create(ctx, room); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create classroom")
	}
	s.invalidateStatusCache(ctx)
	s.logger.Info("classroom created", zap.String("classroom_id", room.ID), zap.String("room_number", room.RoomNumber))
	return room, nil
}

// Update patches an existing classroom.
func (s *ClassroomService) Update(ctx context.Context, id string, req dto.UpdateClassroomRequest) (*models.Classroom, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	room, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.RoomNumber != nil {
		room.RoomNumber = *req.RoomNumber
	}
	if req.BuildingID != nil {
		room.BuildingID = *req.BuildingID
	}
	if req.Faculty != nil {
		room.Faculty = *req.Faculty
	}
	if req.Floor != nil {
		room.Floor = *req.Floor
	}
	if req.Capacity != nil {
		room.Capacity = *req.Capacity
	}
	if req.HasProjector != nil {
		room.HasProjector = *req.HasProjector
	}
	if req.HasWifi != nil {
		room.HasWifi = *req.HasWifi
	}
	if req.HasPowerOutlets != nil {
		room.HasPowerOutlets = *req.HasPowerOutlets
	}

	if err := s.repo.Update(ctx, room); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update classroom")
	}
	s.invalidateStatusCache(ctx)
	return room, nil
}

// Delete removes a classroom from the directory.
func (s *ClassroomService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete classroom")
	}
	s.invalidateStatusCache(ctx)
	s.logger.Info("classroom deleted", zap.String("classroom_id", id))
	return nil
}

// ListBuildings returns the building directory.
func (s *ClassroomService) ListBuildings(ctx context.Context) ([]models.Building, error) {
	buildings, err := s.repo.ListBuildings(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list buildings")
	}
	if buildings == nil {
		buildings = []models.Building{}
	}
	return buildings, nil
}

func (s *ClassroomService) invalidateStatusCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "status:*"); err != nil {
		s.logger.Warn("status cache invalidation failed", zap.Error(err))
	}
}
