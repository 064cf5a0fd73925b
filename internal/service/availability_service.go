package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/opencampus/classroom-occupancy-api/internal/dto"
	"github.com/opencampus/classroom-occupancy-api/internal/models"
	appErrors "github.com/opencampus/classroom-occupancy-api/pkg/errors"
)

type sessionBatchLister interface {
	ListByClassroomIDs(ctx context.Context, classroomIDs []string) (map[string][]models.ClassSession, error)
}

type snapshotBatchLister interface {
	SnapshotsByClassroomIDs(ctx context.Context, classroomIDs []string) (map[string]models.OccupancySnapshot, error)
}

type detectionImageResolver interface {
	Exists(filename string) bool
}

type statusBoardCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// AvailabilityServiceConfig tunes classification thresholds and the optional
// Redis-backed board cache.
type AvailabilityServiceConfig struct {
	LowThreshold     float64
	CrowdedThreshold float64
	ImageURLPrefix   string
	CacheTTL         time.Duration
}

// AvailabilityService assembles the classroom status board: directory
// attributes, the latest occupancy snapshot, and the computed status for the
// requested evaluation point.
type AvailabilityService struct {
	classrooms classroomStore
	sessions   sessionBatchLister
	snapshots  snapshotBatchLister
	images     detectionImageResolver
	cache      statusBoardCache
	classifier StatusClassifier
	logger     *zap.Logger
	cfg        AvailabilityServiceConfig
}

// NewAvailabilityService constructs the service. images and cache may be nil.
func NewAvailabilityService(classrooms classroomStore, sessions sessionBatchLister, snapshots snapshotBatchLister, images detectionImageResolver, cache statusBoardCache, logger *zap.Logger, cfg AvailabilityServiceConfig) *AvailabilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{
		classrooms: classrooms,
		sessions:   sessions,
		snapshots:  snapshots,
		images:     images,
		cache:      cache,
		classifier: NewStatusClassifier(cfg.LowThreshold, cfg.CrowdedThreshold),
		logger:     logger,
		cfg:        cfg,
	}
}

// StatusBoard computes the status of every classroom matching the filter at
// one evaluation point. Current-time boards are served from the Redis cache
// when one is configured; future-mode boards are always recomputed.
func (s *AvailabilityService) StatusBoard(ctx context.Context, filter models.OccupancyFilter, point models.EvaluationPoint) (*dto.StatusListResponse, error) {
	cacheKey := s.boardCacheKey(filter, point)
	if s.cache != nil && point.Mode == models.EvalNow && cacheKey != "" {
		var cached dto.StatusListResponse
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	rooms, _, err := s.classrooms.List(ctx, models.ClassroomFilter{
		Faculty:    filter.Faculty,
		BuildingID: filter.BuildingID,
		Floor:      filter.Floor,
		PageSize:   200,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classrooms")
	}

	ids := make([]string, len(rooms))
	for i, room := range rooms {
		ids[i] = room.ID
	}

	sessionsByRoom, err := s.sessions.ListByClassroomIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	snapshotsByRoom, err := s.snapshots.SnapshotsByClassroomIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load occupancy snapshots")
	}

	results := make([]models.ClassroomStatusReport, 0, len(rooms))
	for _, room := range rooms {
		report, err := s.assemble(room, sessionsByRoom[room.ID], snapshotsByRoom, point)
		if err != nil {
			return nil, err
		}
		if filter.AvailableOnly && !report.IsAvailable {
			continue
		}
		results = append(results, *report)
	}

	resp := &dto.StatusListResponse{Results: results, Total: len(results)}
	if s.cache != nil && point.Mode == models.EvalNow && cacheKey != "" && s.cfg.CacheTTL > 0 {
		if err := s.cache.Set(ctx, cacheKey, resp, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("status board cache write failed", zap.Error(err))
		}
	}
	return resp, nil
}

// ClassroomStatus computes one room's status at an evaluation point.
func (s *AvailabilityService) ClassroomStatus(ctx context.Context, classroomID string, point models.EvaluationPoint) (*models.ClassroomStatusReport, error) {
	room, err := s.classrooms.FindByID(ctx, classroomID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "classroom not found")
	}

	sessionsByRoom, err := s.sessions.ListByClassroomIDs(ctx, []string{classroomID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	snapshotsByRoom, err := s.snapshots.SnapshotsByClassroomIDs(ctx, []string{classroomID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load occupancy snapshot")
	}

	return s.assemble(*room, sessionsByRoom[classroomID], snapshotsByRoom, point)
}

func (s *AvailabilityService) assemble(room models.Classroom, sessions []models.ClassSession, snapshotsByRoom map[string]models.OccupancySnapshot, point models.EvaluationPoint) (*models.ClassroomStatusReport, error) {
	var snapshot *models.OccupancySnapshot
	if snap, ok := snapshotsByRoom[room.ID]; ok {
		snapshot = &snap
	}

	var session *models.ClassSession
	switch point.Mode {
	case models.EvalFuture:
		matched, err := MatchSessionFuture(sessions, point.TargetDate, point.TargetPeriod)
		if err != nil {
			return nil, err
		}
		session = matched
	default:
		session = MatchSessionNow(sessions, point.At)
	}

	report := &models.ClassroomStatusReport{
		Classroom:    room,
		Occupancy:    snapshot,
		StatusResult: s.classifier.Classify(room.Capacity, snapshot, session, point.Mode),
	}
	if s.images != nil && s.images.Exists(room.ID+".jpg") {
		url := s.cfg.ImageURLPrefix + "/" + room.ID + ".jpg"
		report.ImageURL = &url
	}
	return report, nil
}

func (s *AvailabilityService) boardCacheKey(filter models.OccupancyFilter, point models.EvaluationPoint) string {
	if point.Mode != models.EvalNow {
		return ""
	}
	// One bucket per minute keeps cache entries aligned with the TTL.
	minute := point.At.UTC().Format("2006-01-02T15:04")
	floor := ""
	if filter.Floor != nil {
		floor = strconv.Itoa(*filter.Floor)
	}
	return fmt.Sprintf("status:%s:%s:%s:%t:%s", filter.Faculty, filter.BuildingID, floor, filter.AvailableOnly, minute)
}
