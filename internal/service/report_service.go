package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/opencampus/classroom-occupancy-api/internal/dto"
	"github.com/opencampus/classroom-occupancy-api/internal/models"
	appErrors "github.com/opencampus/classroom-occupancy-api/pkg/errors"
	"github.com/opencampus/classroom-occupancy-api/pkg/export"
	"github.com/opencampus/classroom-occupancy-api/pkg/jobs"
)

type reportStore interface {
	Create(ctx context.Context, job *models.ReportJob) error
	FindByID(ctx context.Context, id string) (*models.ReportJob, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]models.ReportJob, error)
	UpdateStatus(ctx context.Context, id string, status models.ReportStatus, progress int) error
	MarkFinished(ctx context.Context, id, resultURL string) error
	MarkFailed(ctx context.Context, id, reason string) error
}

type historyRangeLister interface {
	HistoryRange(ctx context.Context, classroomID string, from, to time.Time) ([]models.OccupancyObservation, error)
}

type reportFileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
}

type reportURLSigner interface {
	Generate(jobID, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error)
}

type reportQueue interface {
	Enqueue(job jobs.Job) error
}

// ReportService queues and renders asynchronous occupancy exports.
type ReportService struct {
	repo       reportStore
	history    historyRangeLister
	classrooms classroomStore
	storage    reportFileStorage
	signer     reportURLSigner
	queue      reportQueue
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	validator  *validator.Validate
	logger     *zap.Logger
	apiPrefix  string
}

// NewReportService constructs the service. The caller wires the queue's
// handler to Process.
func NewReportService(repo reportStore, history historyRangeLister, classrooms classroomStore, storage reportFileStorage, signer reportURLSigner, validate *validator.Validate, logger *zap.Logger, apiPrefix string) *ReportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		repo:       repo,
		history:    history,
		classrooms: classrooms,
		storage:    storage,
		signer:     signer,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		validator:  validate,
		logger:     logger,
		apiPrefix:  apiPrefix,
	}
}

// SetQueue attaches the worker queue after construction. The queue handler
// calls back into Process, so the two reference each other.
func (s *ReportService) SetQueue(queue reportQueue) {
	s.queue = queue
}

// Create validates a request, persists the job as QUEUED, and enqueues it.
func (s *ReportService) Create(ctx context.Context, userID string, req dto.CreateReportRequest) (*models.ReportJob, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	params := models.ReportJobParams{
		ClassroomID: req.ClassroomID,
		Faculty:     req.Faculty,
		Format:      req.Format,
	}
	if req.From != nil {
		from, err := ParseTargetDate(*req.From)
		if err != nil {
			return nil, err
		}
		params.From = &from
	}
	if req.To != nil {
		to, err := ParseTargetDate(*req.To)
		if err != nil {
			return nil, err
		}
		end := to.Add(24*time.Hour - time.Nanosecond)
		params.To = &end
	}

	job := &models.ReportJob{
		Type:      req.Type,
		Params:    params,
		Status:    models.ReportStatusQueued,
		CreatedBy: userID,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create report job")
	}

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Type)}); err != nil {
		reason := "worker queue is full"
		_ = s.repo.MarkFailed(ctx, job.ID, reason)
		return nil, appErrors.Clone(appErrors.ErrInternal, reason)
	}
	s.logger.Info("report job queued", zap.String("job_id", job.ID), zap.String("type", string(job.Type)), zap.String("format", string(params.Format)))
	return job, nil
}

// Get returns one job with a signed download URL once it finished.
func (s *ReportService) Get(ctx context.Context, userID, jobID string) (*dto.ReportJobResponse, error) {
	job, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report job")
	}
	if job.CreatedBy != userID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "report job belongs to another user")
	}

	resp := &dto.ReportJobResponse{ReportJob: *job}
	if job.Status == models.ReportStatusFinished && job.ResultURL != nil {
		token, _, err := s.signer.Generate(job.ID, *job.ResultURL)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download url")
		}
		url := fmt.Sprintf("%s/reports/download/%s", s.apiPrefix, token)
		resp.DownloadURL = &url
	}
	return resp, nil
}

// List returns the user's recent jobs.
func (s *ReportService) List(ctx context.Context, userID string, limit int) ([]models.ReportJob, error) {
	jobList, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list report jobs")
	}
	if jobList == nil {
		jobList = []models.ReportJob{}
	}
	return jobList, nil
}

// Download resolves a signed token to the stored artifact.
func (s *ReportService) Download(ctx context.Context, token string) (*os.File, string, error) {
	jobID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download link")
	}
	job, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "report job not found")
	}
	if job.Status != models.ReportStatusFinished || job.ResultURL == nil || *job.ResultURL != relPath {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "report artifact not available")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "report artifact not available")
	}
	return file, fmt.Sprintf("%s-%s.%s", job.Type, job.ID, job.Params.Format), nil
}

// Process is the queue handler: it renders the report and stores the artifact.
func (s *ReportService) Process(ctx context.Context, job jobs.Job) error {
	record, err := s.repo.FindByID(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("load report job %s: %w", job.ID, err)
	}
	if err := s.repo.UpdateStatus(ctx, record.ID, models.ReportStatusProcessing, 10); err != nil {
		return err
	}

	data, err := s.buildDataset(ctx, record)
	if err != nil {
		_ = s.repo.MarkFailed(ctx, record.ID, err.Error())
		return err
	}
	if err := s.repo.UpdateStatus(ctx, record.ID, models.ReportStatusProcessing, 60); err != nil {
		return err
	}

	var payload []byte
	filename := fmt.Sprintf("%s-%s.%s", record.Type, record.ID, record.Params.Format)
	switch record.Params.Format {
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(*data, fmt.Sprintf("Classroom %s report", record.Type))
	default:
		payload, err = s.csv.Render(*data)
	}
	if err != nil {
		_ = s.repo.MarkFailed(ctx, record.ID, err.Error())
		return err
	}

	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		_ = s.repo.MarkFailed(ctx, record.ID, err.Error())
		return err
	}
	if err := s.repo.MarkFinished(ctx, record.ID, relPath); err != nil {
		return err
	}
	s.logger.Info("report job finished", zap.String("job_id", record.ID), zap.String("file", relPath))
	return nil
}

func (s *ReportService) buildDataset(ctx context.Context, job *models.ReportJob) (*export.Dataset, error) {
	from, to := s.window(job.Params)
	rooms, err := s.targetRooms(ctx, job.Params)
	if err != nil {
		return nil, err
	}

	switch job.Type {
	case models.ReportTypeHistory:
		data := &export.Dataset{Headers: []string{"room_number", "timestamp", "count", "detection_confidence", "camera_id"}}
		for _, room := range rooms {
			observations, err := s.history.HistoryRange(ctx, room.ID, from, to)
			if err != nil {
				return nil, err
			}
			for _, obs := range observations {
				camera := ""
				if obs.CameraID != nil {
					camera = *obs.CameraID
				}
				data.Rows = append(data.Rows, map[string]string{
					"room_number":          room.RoomNumber,
					"timestamp":            obs.Timestamp.UTC().Format(time.RFC3339),
					"count":                fmt.Sprintf("%d", obs.Count),
					"detection_confidence": fmt.Sprintf("%.2f", obs.DetectionConfidence),
					"camera_id":            camera,
				})
			}
		}
		return data, nil
	default:
		data := &export.Dataset{Headers: []string{"room_number", "capacity", "samples", "avg_count", "peak_count", "avg_occupancy_rate"}}
		for _, room := range rooms {
			observations, err := s.history.HistoryRange(ctx, room.ID, from, to)
			if err != nil {
				return nil, err
			}
			var sum, peak int
			for _, obs := range observations {
				sum += obs.Count
				if obs.Count > peak {
					peak = obs.Count
				}
			}
			avg := 0.0
			if len(observations) > 0 {
				avg = float64(sum) / float64(len(observations))
			}
			rate := 0.0
			if room.Capacity > 0 {
				rate = avg / float64(room.Capacity)
				if rate > 1 {
					rate = 1
				}
			}
			data.Rows = append(data.Rows, map[string]string{
				"room_number":        room.RoomNumber,
				"capacity":           fmt.Sprintf("%d", room.Capacity),
				"samples":            fmt.Sprintf("%d", len(observations)),
				"avg_count":          fmt.Sprintf("%.1f", avg),
				"peak_count":         fmt.Sprintf("%d", peak),
				"avg_occupancy_rate": fmt.Sprintf("%.2f", rate),
			})
		}
		return data, nil
	}
}

func (s *ReportService) targetRooms(ctx context.Context, params models.ReportJobParams) ([]models.Classroom, error) {
	if params.ClassroomID != nil {
		room, err := s.classrooms.FindByID(ctx, *params.ClassroomID)
		if err != nil {
			return nil, fmt.Errorf("classroom %s not found", *params.ClassroomID)
		}
		return []models.Classroom{*room}, nil
	}
	filter := models.ClassroomFilter{PageSize: 200}
	if params.Faculty != nil {
		filter.Faculty = *params.Faculty
	}
	rooms, _, err := s.classrooms.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return rooms, nil
}

func (s *ReportService) window(params models.ReportJobParams) (time.Time, time.Time) {
	to := time.Now().UTC()
	if params.To != nil {
		to = *params.To
	}
	from := to.Add(-7 * 24 * time.Hour)
	if params.From != nil {
		from = *params.From
	}
	return from, to
}
