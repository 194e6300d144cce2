package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acadsys/class-record-api/internal/models"
	"github.com/acadsys/class-record-api/internal/service"
	appErrors "github.com/acadsys/class-record-api/pkg/errors"
	"github.com/acadsys/class-record-api/pkg/response"
)

// ActivityHandler exposes scored-activity endpoints.
type ActivityHandler struct {
	activities *service.ActivityService
	loads      *service.TeachingLoadService
}

// NewActivityHandler constructs handler.
func NewActivityHandler(activities *service.ActivityService, loads *service.TeachingLoadService) *ActivityHandler {
	return &ActivityHandler{activities: activities, loads: loads}
}

// List godoc
// @Summary List activities
// @Tags Activities
// @Produce json
// @Param teachingLoadDetailId query string true "Class section ID"
// @Param categoryId query string false "Filter by category"
// @Param termId query string false "Filter by term"
// @Success 200 {object} response.Envelope{data=[]models.Activity}
// @Router /activities [get]
func (h *ActivityHandler) List(c *gin.Context) {
	var filter models.ActivityFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	if filter.TeachingLoadDetailID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "teachingLoadDetailId is required"))
		return
	}

	claims := claimsFromContext(c)
	if err := ensureSectionAccess(c.Request.Context(), claims, h.loads, filter.TeachingLoadDetailID); err != nil {
		response.Error(c, err)
		return
	}

	activities, err := h.activities.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, activities, nil)
}

// Get godoc
// @Summary Get activity by ID
// @Tags Activities
// @Produce json
// @Param id path string true "Activity ID"
// @Success 200 {object} response.Envelope{data=models.Activity}
// @Failure 404 {object} response.Envelope
// @Router /activities/{id} [get]
func (h *ActivityHandler) Get(c *gin.Context) {
	activity, err := h.activities.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	claims := claimsFromContext(c)
	if err := ensureSectionAccess(c.Request.Context(), claims, h.loads, activity.TeachingLoadDetailID); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, activity, nil)
}

// Create godoc
// @Summary Create activity
// @Tags Activities
// @Accept json
// @Produce json
// @Param request body service.CreateActivityRequest true "Activity"
// @Success 201 {object} response.Envelope{data=models.Activity}
// @Failure 400 {object} response.Envelope
// @Router /activities [post]
func (h *ActivityHandler) Create(c *gin.Context) {
	var req service.CreateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid request body"))
		return
	}

	claims := claimsFromContext(c)
	if err := ensureSectionAccess(c.Request.Context(), claims, h.loads, req.TeachingLoadDetailID); err != nil {
		response.Error(c, err)
		return
	}

	activity, err := h.activities.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, activity)
}

// Update godoc
// @Summary Update activity
// @Tags Activities
// @Accept json
// @Produce json
// @Param id path string true "Activity ID"
// @Param request body service.UpdateActivityRequest true "Activity"
// @Success 200 {object} response.Envelope{data=models.Activity}
// @Router /activities/{id} [put]
func (h *ActivityHandler) Update(c *gin.Context) {
	var req service.UpdateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid request body"))
		return
	}

	existing, err := h.activities.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	claims := claimsFromContext(c)
	if err := ensureSectionAccess(c.Request.Context(), claims, h.loads, existing.TeachingLoadDetailID); err != nil {
		response.Error(c, err)
		return
	}

	activity, err := h.activities.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, activity, nil)
}

// Delete godoc
// @Summary Delete activity
// @Description Removes the activity and its recorded scores.
// @Tags Activities
// @Param id path string true "Activity ID"
// @Success 204
// @Router /activities/{id} [delete]
func (h *ActivityHandler) Delete(c *gin.Context) {
	existing, err := h.activities.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	claims := claimsFromContext(c)
	if err := ensureSectionAccess(c.Request.Context(), claims, h.loads, existing.TeachingLoadDetailID); err != nil {
		response.Error(c, err)
		return
	}

	if err := h.activities.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
