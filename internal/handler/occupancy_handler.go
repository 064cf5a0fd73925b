package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/opencampus/classroom-occupancy-api/internal/dto"
	"github.com/opencampus/classroom-occupancy-api/internal/models"
	"github.com/opencampus/classroom-occupancy-api/internal/service"
	appErrors "github.com/opencampus/classroom-occupancy-api/pkg/errors"
	"github.com/opencampus/classroom-occupancy-api/pkg/response"
)

type occupancyService interface {
	Get(ctx context.Context, classroomID string) (*models.OccupancySnapshot, error)
	Update(ctx context.Context, classroomID string, req dto.UpdateOccupancyRequest) (*models.OccupancySnapshot, error)
	History(ctx context.Context, filter models.HistoryFilter) (*dto.HistoryResponse, error)
}

type availabilityService interface {
	StatusBoard(ctx context.Context, filter models.OccupancyFilter, point models.EvaluationPoint) (*dto.StatusListResponse, error)
	ClassroomStatus(ctx context.Context, classroomID string, point models.EvaluationPoint) (*models.ClassroomStatusReport, error)
}

type occupancyGauge interface {
	SetOccupancy(classroomID string, count int)
}

// OccupancyHandler serves occupancy snapshots, camera updates, history, and
// the computed status board.
type OccupancyHandler struct {
	occupancy    occupancyService
	availability availabilityService
	metrics      occupancyGauge
}

// NewOccupancyHandler constructs handler. metrics may be nil.
func NewOccupancyHandler(occupancy occupancyService, availability availabilityService, metrics occupancyGauge) *OccupancyHandler {
	return &OccupancyHandler{occupancy: occupancy, availability: availability, metrics: metrics}
}

// evaluationPoint resolves the requested evaluation point once, at the API
// boundary. Supplying only one of date and period is an error; supplying
// neither means "now", optionally pinned with ?at for reproducible reads.
func evaluationPoint(c *gin.Context) (models.EvaluationPoint, error) {
	rawDate := c.Query("date")
	rawPeriod := c.Query("period")
	if rawDate == "" && rawPeriod == "" {
		if rawAt := c.Query("at"); rawAt != "" {
			at, err := time.Parse(time.RFC3339, rawAt)
			if err != nil {
				return models.EvaluationPoint{}, appErrors.Clone(appErrors.ErrValidation, "at must be an RFC3339 timestamp")
			}
			return models.NowAt(at), nil
		}
		return models.NowAt(time.Now()), nil
	}
	if rawDate == "" || rawPeriod == "" {
		return models.EvaluationPoint{}, appErrors.Clone(appErrors.ErrValidation, "date and period must be supplied together")
	}
	date, err := service.ParseTargetDate(rawDate)
	if err != nil {
		return models.EvaluationPoint{}, err
	}
	period, err := strconv.Atoi(rawPeriod)
	if err != nil {
		return models.EvaluationPoint{}, appErrors.Clone(appErrors.ErrInvalidPeriod, "period must be a number between 1 and 7")
	}
	if _, err := models.WindowForPeriod(period); err != nil {
		return models.EvaluationPoint{}, err
	}
	return models.FutureAt(date, period), nil
}

// StatusBoard godoc
// @Summary Classroom status board
// @Tags Occupancy
// @Produce json
// @Param faculty query string false "Filter by faculty"
// @Param building_id query string false "Filter by building"
// @Param floor query int false "Filter by floor"
// @Param available_only query bool false "Only currently usable rooms"
// @Param at query string false "RFC3339 instant pinning current mode"
// @Param date query string false "Future date (YYYY-MM-DD), requires period"
// @Param period query int false "Future period (1-7), requires date"
// @Success 200 {object} response.Envelope
// @Router /occupancy/status [get]
func (h *OccupancyHandler) StatusBoard(c *gin.Context) {
	point, err := evaluationPoint(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	filter := models.OccupancyFilter{
		Faculty:       c.Query("faculty"),
		BuildingID:    c.Query("building_id"),
		AvailableOnly: c.Query("available_only") == "true",
	}
	if raw := c.Query("floor"); raw != "" {
		if floor, err := strconv.Atoi(raw); err == nil {
			filter.Floor = &floor
		}
	}

	board, err := h.availability.StatusBoard(c.Request.Context(), filter, point)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, board, nil)
}

// ClassroomStatus godoc
// @Summary Status of one classroom
// @Tags Occupancy
// @Produce json
// @Param id path string true "Classroom ID"
// @Param date query string false "Future date (YYYY-MM-DD), requires period"
// @Param period query int false "Future period (1-7), requires date"
// @Success 200 {object} response.Envelope
// @Router /classrooms/{id}/status [get]
func (h *OccupancyHandler) ClassroomStatus(c *gin.Context) {
	point, err := evaluationPoint(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	report, err := h.availability.ClassroomStatus(c.Request.Context(), c.Param("id"), point)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Get godoc
// @Summary Latest occupancy snapshot
// @Tags Occupancy
// @Produce json
// @Param id path string true "Classroom ID"
// @Success 200 {object} response.Envelope
// @Router /classrooms/{id}/occupancy [get]
func (h *OccupancyHandler) Get(c *gin.Context) {
	snapshot, err := h.occupancy.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot, nil)
}

// Update godoc
// @Summary Ingest a camera occupancy reading
// @Tags Occupancy
// @Accept json
// @Produce json
// @Param id path string true "Classroom ID"
// @Param payload body dto.UpdateOccupancyRequest true "Reading payload"
// @Success 200 {object} response.Envelope
// @Router /classrooms/{id}/occupancy [put]
func (h *OccupancyHandler) Update(c *gin.Context) {
	var req dto.UpdateOccupancyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	snapshot, err := h.occupancy.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.SetOccupancy(snapshot.ClassroomID, snapshot.CurrentCount)
	}
	response.JSON(c, http.StatusOK, snapshot, nil)
}

// History godoc
// @Summary Occupancy history of one classroom
// @Tags Occupancy
// @Produce json
// @Param id path string true "Classroom ID"
// @Param from query string false "Window start (YYYY-MM-DD)"
// @Param to query string false "Window end (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /classrooms/{id}/occupancy/history [get]
func (h *OccupancyHandler) History(c *gin.Context) {
	filter := models.HistoryFilter{ClassroomID: c.Param("id")}
	if raw := c.Query("from"); raw != "" {
		from, err := service.ParseTargetDate(raw)
		if err != nil {
			response.Error(c, err)
			return
		}
		filter.From = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := service.ParseTargetDate(raw)
		if err != nil {
			response.Error(c, err)
			return
		}
		end := to.Add(24*time.Hour - time.Nanosecond)
		filter.To = &end
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "100")); err == nil {
		filter.PageSize = limit
	}

	history, err := h.occupancy.History(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, history.Observations, &history.Pagination)
}
