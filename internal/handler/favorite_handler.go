package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/opencampus/classroom-occupancy-api/internal/dto"
	"github.com/opencampus/classroom-occupancy-api/internal/models"
	appErrors "github.com/opencampus/classroom-occupancy-api/pkg/errors"
	"github.com/opencampus/classroom-occupancy-api/pkg/response"
)

type favoriteService interface {
	List(ctx context.Context, userID string) ([]models.FavoriteWithClassroom, error)
	Add(ctx context.Context, userID string, req dto.CreateFavoriteRequest) (*models.Favorite, error)
	Remove(ctx context.Context, userID, classroomID string) error
}

type searchHistoryService interface {
	List(ctx context.Context, userID string, limit int) ([]models.SearchEntry, error)
	Record(ctx context.Context, userID string, req dto.CreateSearchEntryRequest) (*models.SearchEntry, error)
	Remove(ctx context.Context, userID, entryID string) error
	Clear(ctx context.Context, userID string) error
}

// FavoriteHandler serves per-user favorites and search history.
type FavoriteHandler struct {
	favorites favoriteService
	searches  searchHistoryService
}

// NewFavoriteHandler constructs handler.
func NewFavoriteHandler(favorites favoriteService, searches searchHistoryService) *FavoriteHandler {
	return &FavoriteHandler{favorites: favorites, searches: searches}
}

// List godoc
// @Summary List favorite classrooms
// @Tags Favorites
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /favorites [get]
func (h *FavoriteHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	favorites, err := h.favorites.List(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, favorites, nil)
}

// Add godoc
// @Summary Pin a classroom
// @Tags Favorites
// @Accept json
// @Produce json
// @Param payload body dto.CreateFavoriteRequest true "Favorite payload"
// @Success 201 {object} response.Envelope
// @Router /favorites [post]
func (h *FavoriteHandler) Add(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateFavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	favorite, err := h.favorites.Add(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, favorite)
}

// Remove godoc
// @Summary Unpin a classroom
// @Tags Favorites
// @Param classroomId path string true "Classroom ID"
// @Success 204
// @Router /favorites/{classroomId} [delete]
func (h *FavoriteHandler) Remove(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.favorites.Remove(c.Request.Context(), claims.UserID, c.Param("classroomId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// SearchHistory godoc
// @Summary List recent searches
// @Tags Favorites
// @Produce json
// @Param limit query int false "Max entries"
// @Success 200 {object} response.Envelope
// @Router /search-history [get]
func (h *FavoriteHandler) SearchHistory(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	entries, err := h.searches.List(c.Request.Context(), claims.UserID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// RecordSearch godoc
// @Summary Record a search
// @Tags Favorites
// @Accept json
// @Produce json
// @Param payload body dto.CreateSearchEntryRequest true "Search payload"
// @Success 201 {object} response.Envelope
// @Router /search-history [post]
func (h *FavoriteHandler) RecordSearch(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateSearchEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	entry, err := h.searches.Record(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// RemoveSearch godoc
// @Summary Delete one search entry
// @Tags Favorites
// @Param id path string true "Entry ID"
// @Success 204
// @Router /search-history/{id} [delete]
func (h *FavoriteHandler) RemoveSearch(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.searches.Remove(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ClearSearches godoc
// @Summary Clear search history
// @Tags Favorites
// @Success 204
// @Router /search-history [delete]
func (h *FavoriteHandler) ClearSearches(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.searches.Clear(c.Request.Context(), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
