package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencampus/classroom-occupancy-api/internal/dto"
	"github.com/opencampus/classroom-occupancy-api/internal/models"
	appErrors "github.com/opencampus/classroom-occupancy-api/pkg/errors"
)

type classroomServiceMock struct {
	listResp   *dto.ClassroomListResponse
	listErr    error
	getResp    *models.Classroom
	getErr     error
	createResp *models.Classroom
	createErr  error
	deleteErr  error
	buildings  []models.Building
	lastFilter models.ClassroomFilter
	lastCreate dto.CreateClassroomRequest
}

func (m *classroomServiceMock) List(ctx context.Context, filter models.ClassroomFilter) (*dto.ClassroomListResponse, error) {
	m.lastFilter = filter
	return m.listResp, m.listErr
}

func (m *classroomServiceMock) Get(ctx context.Context, id string) (*models.Classroom, error) {
	return m.getResp, m.getErr
}

func (m *classroomServiceMock) Create(ctx context.Context, req dto.CreateClassroomRequest) (*models.Classroom, error) {
	m.lastCreate = req
	return m.createResp, m.createErr
}

func (m *classroomServiceMock) Update(ctx context.Context, id string, req dto.UpdateClassroomRequest) (*models.Classroom, error) {
	return m.getResp, m.getErr
}

func (m *classroomServiceMock) Delete(ctx context.Context, id string) error {
	return m.deleteErr
}

func (m *classroomServiceMock) ListBuildings(ctx context.Context) ([]models.Building, error) {
	return m.buildings, nil
}

func TestClassroomHandlerListParsesFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &classroomServiceMock{
		listResp: &dto.ClassroomListResponse{
			Classrooms: []models.Classroom{{ID: "room-1"}},
			Pagination: models.Pagination{Page: 2, PageSize: 10, TotalCount: 11},
		},
	}
	handler := NewClassroomHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/classrooms?faculty=science&building_id=bldg-2&floor=3&page=2&limit=10", nil)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "science", mockSvc.lastFilter.Faculty)
	assert.Equal(t, "bldg-2", mockSvc.lastFilter.BuildingID)
	require.NotNil(t, mockSvc.lastFilter.Floor)
	assert.Equal(t, 3, *mockSvc.lastFilter.Floor)
	assert.Equal(t, 2, mockSvc.lastFilter.Page)
	assert.Equal(t, 10, mockSvc.lastFilter.PageSize)
}

func TestClassroomHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewClassroomHandler(&classroomServiceMock{getErr: appErrors.ErrNotFound})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/classrooms/ghost", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "ghost"}}

	handler.Get(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestClassroomHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &classroomServiceMock{
		createResp: &models.Classroom{ID: "room-1", RoomNumber: "A-101"},
	}
	handler := NewClassroomHandler(mockSvc)

	payload, _ := json.Marshal(dto.CreateClassroomRequest{
		RoomNumber: "A-101",
		BuildingID: "bldg-1",
		Faculty:    "science",
		Capacity:   40,
	})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/classrooms", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "A-101", mockSvc.lastCreate.RoomNumber)
}

func TestClassroomHandlerCreateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewClassroomHandler(&classroomServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/classrooms", bytes.NewBufferString(`{"room_number":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClassroomHandlerDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewClassroomHandler(&classroomServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodDelete, "/classrooms/room-1", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "room-1"}}

	handler.Delete(c)
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusNoContent, w.Code)
}
