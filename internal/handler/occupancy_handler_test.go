package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencampus/classroom-occupancy-api/internal/dto"
	"github.com/opencampus/classroom-occupancy-api/internal/models"
	appErrors "github.com/opencampus/classroom-occupancy-api/pkg/errors"
)

type occupancyServiceMock struct {
	snapshot   *models.OccupancySnapshot
	getErr     error
	updateErr  error
	history    *dto.HistoryResponse
	historyErr error
	lastUpdate dto.UpdateOccupancyRequest
	lastFilter models.HistoryFilter
}

func (m *occupancyServiceMock) Get(ctx context.Context, classroomID string) (*models.OccupancySnapshot, error) {
	return m.snapshot, m.getErr
}

func (m *occupancyServiceMock) Update(ctx context.Context, classroomID string, req dto.UpdateOccupancyRequest) (*models.OccupancySnapshot, error) {
	m.lastUpdate = req
	return m.snapshot, m.updateErr
}

func (m *occupancyServiceMock) History(ctx context.Context, filter models.HistoryFilter) (*dto.HistoryResponse, error) {
	m.lastFilter = filter
	return m.history, m.historyErr
}

type availabilityServiceMock struct {
	board           *dto.StatusListResponse
	boardErr        error
	report          *models.ClassroomStatusReport
	reportErr       error
	lastPoint       models.EvaluationPoint
	lastBoardFilter models.OccupancyFilter
}

func (m *availabilityServiceMock) StatusBoard(ctx context.Context, filter models.OccupancyFilter, point models.EvaluationPoint) (*dto.StatusListResponse, error) {
	m.lastPoint = point
	m.lastBoardFilter = filter
	return m.board, m.boardErr
}

func (m *availabilityServiceMock) ClassroomStatus(ctx context.Context, classroomID string, point models.EvaluationPoint) (*models.ClassroomStatusReport, error) {
	m.lastPoint = point
	return m.report, m.reportErr
}

type gaugeMock struct {
	classroomID string
	count       int
	called      bool
}

func (m *gaugeMock) SetOccupancy(classroomID string, count int) {
	m.classroomID = classroomID
	m.count = count
	m.called = true
}

func TestOccupancyHandlerStatusBoardDefaultsToNow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &availabilityServiceMock{board: &dto.StatusListResponse{}}
	handler := NewOccupancyHandler(&occupancyServiceMock{}, mockSvc, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/occupancy/status", nil)
	c.Request = req

	handler.StatusBoard(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.EvalNow, mockSvc.lastPoint.Mode)
	assert.WithinDuration(t, time.Now(), mockSvc.lastPoint.At, time.Second)
}

func TestOccupancyHandlerStatusBoardPinnedInstant(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &availabilityServiceMock{board: &dto.StatusListResponse{}}
	handler := NewOccupancyHandler(&occupancyServiceMock{}, mockSvc, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/occupancy/status?at=2025-01-15T13:45:00Z", nil)
	c.Request = req

	handler.StatusBoard(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.EvalNow, mockSvc.lastPoint.Mode)
	assert.Equal(t, time.Date(2025, 1, 15, 13, 45, 0, 0, time.UTC), mockSvc.lastPoint.At)
}

func TestOccupancyHandlerStatusBoardParsesFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &availabilityServiceMock{board: &dto.StatusListResponse{}}
	handler := NewOccupancyHandler(&occupancyServiceMock{}, mockSvc, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/occupancy/status?faculty=Engineering&building_id=bldg-1&floor=3&available_only=true", nil)
	c.Request = req

	handler.StatusBoard(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Engineering", mockSvc.lastBoardFilter.Faculty)
	assert.Equal(t, "bldg-1", mockSvc.lastBoardFilter.BuildingID)
	require.NotNil(t, mockSvc.lastBoardFilter.Floor)
	assert.Equal(t, 3, *mockSvc.lastBoardFilter.Floor)
	assert.True(t, mockSvc.lastBoardFilter.AvailableOnly)
}

func TestOccupancyHandlerStatusBoardFutureMode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &availabilityServiceMock{board: &dto.StatusListResponse{}}
	handler := NewOccupancyHandler(&occupancyServiceMock{}, mockSvc, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/occupancy/status?date=2025-01-13&period=3", nil)
	c.Request = req

	handler.StatusBoard(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.EvalFuture, mockSvc.lastPoint.Mode)
	assert.Equal(t, 3, mockSvc.lastPoint.TargetPeriod)
	assert.Equal(t, "2025-01-13", mockSvc.lastPoint.TargetDate.Format("2006-01-02"))
}

func TestOccupancyHandlerStatusBoardDateWithoutPeriod(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &availabilityServiceMock{board: &dto.StatusListResponse{}}
	handler := NewOccupancyHandler(&occupancyServiceMock{}, mockSvc, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/occupancy/status?date=2025-01-13", nil)
	c.Request = req

	handler.StatusBoard(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOccupancyHandlerStatusBoardPeriodOutOfRange(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewOccupancyHandler(&occupancyServiceMock{}, &availabilityServiceMock{}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/occupancy/status?date=2025-01-13&period=9", nil)
	c.Request = req

	handler.StatusBoard(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOccupancyHandlerUpdateFeedsGauge(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &occupancyServiceMock{
		snapshot: &models.OccupancySnapshot{ClassroomID: "room-1", CurrentCount: 18},
	}
	gauge := &gaugeMock{}
	handler := NewOccupancyHandler(mockSvc, &availabilityServiceMock{}, gauge)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPut, "/classrooms/room-1/occupancy", bytes.NewBufferString(`{"current_count":18,"detection_confidence":0.92}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "room-1"}}

	handler.Update(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 18, mockSvc.lastUpdate.CurrentCount)
	assert.True(t, gauge.called)
	assert.Equal(t, "room-1", gauge.classroomID)
	assert.Equal(t, 18, gauge.count)
}

func TestOccupancyHandlerUpdateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewOccupancyHandler(&occupancyServiceMock{}, &availabilityServiceMock{}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPut, "/classrooms/room-1/occupancy", bytes.NewBufferString(`{"current_count":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "room-1"}}

	handler.Update(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOccupancyHandlerHistoryWindow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &occupancyServiceMock{
		history: &dto.HistoryResponse{ClassroomID: "room-1"},
	}
	handler := NewOccupancyHandler(mockSvc, &availabilityServiceMock{}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/classrooms/room-1/occupancy/history?from=2025-01-13&to=2025-01-15&page=2&limit=50", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "room-1"}}

	handler.History(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, mockSvc.lastFilter.From)
	require.NotNil(t, mockSvc.lastFilter.To)
	assert.Equal(t, "2025-01-13", mockSvc.lastFilter.From.Format("2006-01-02"))
	assert.Equal(t, "2025-01-15", mockSvc.lastFilter.To.Format("2006-01-02"))
	assert.Equal(t, 2, mockSvc.lastFilter.Page)
	assert.Equal(t, 50, mockSvc.lastFilter.PageSize)
}

func TestOccupancyHandlerClassroomStatusNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &availabilityServiceMock{reportErr: appErrors.ErrNotFound}
	handler := NewOccupancyHandler(&occupancyServiceMock{}, mockSvc, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/classrooms/ghost/status", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "ghost"}}

	handler.ClassroomStatus(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}
