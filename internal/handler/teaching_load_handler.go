package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/acadsys/class-record-api/internal/models"
	"github.com/acadsys/class-record-api/internal/service"
	appErrors "github.com/acadsys/class-record-api/pkg/errors"
	"github.com/acadsys/class-record-api/pkg/response"
)

// TeachingLoadHandler exposes teaching load and class section endpoints.
type TeachingLoadHandler struct {
	loads *service.TeachingLoadService
}

// NewTeachingLoadHandler constructs handler.
func NewTeachingLoadHandler(loads *service.TeachingLoadService) *TeachingLoadHandler {
	return &TeachingLoadHandler{loads: loads}
}

// List godoc
// @Summary List teaching loads
// @Tags Teaching Loads
// @Produce json
// @Param teacherId query string false "Filter by teacher"
// @Param academicYear query string false "Filter by academic year"
// @Param semester query int false "Filter by semester"
// @Success 200 {object} response.Envelope
// @Router /teaching-loads [get]
func (h *TeachingLoadHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := models.TeachingLoadFilter{
		TeacherID:    c.Query("teacherId"),
		AcademicYear: c.Query("academicYear"),
	}
	filter.Semester, _ = strconv.Atoi(c.Query("semester"))
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	// teachers only ever see their own assignments
	if claims.Role == models.RoleTeacher {
		filter.TeacherID = claims.UserID
	}

	loads, pagination, err := h.loads.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, loads, pagination)
}

// Get godoc
// @Summary Get teaching load with class sections
// @Tags Teaching Loads
// @Produce json
// @Param id path string true "Teaching load ID"
// @Success 200 {object} response.Envelope
// @Router /teaching-loads/{id} [get]
func (h *TeachingLoadHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	load, details, err := h.loads.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if claims.Role == models.RoleTeacher && load.TeacherID != claims.UserID {
		response.Error(c, appErrors.ErrForbidden)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"load": load, "sections": details}, nil)
}

// Create godoc
// @Summary Assign teaching load
// @Tags Teaching Loads
// @Accept json
// @Produce json
// @Param payload body service.CreateTeachingLoadRequest true "Teaching load payload"
// @Success 201 {object} response.Envelope
// @Router /teaching-loads [post]
func (h *TeachingLoadHandler) Create(c *gin.Context) {
	var req service.CreateTeachingLoadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	load, err := h.loads.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, load)
}

// AddSection godoc
// @Summary Add class section to teaching load
// @Tags Teaching Loads
// @Accept json
// @Produce json
// @Param id path string true "Teaching load ID"
// @Param payload body service.CreateSectionRequest true "Section payload"
// @Success 201 {object} response.Envelope
// @Router /teaching-loads/{id}/sections [post]
func (h *TeachingLoadHandler) AddSection(c *gin.Context) {
	var req service.CreateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	detail, err := h.loads.AddSection(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, detail)
}

// GetSection godoc
// @Summary Get class section
// @Tags Teaching Loads
// @Produce json
// @Param id path string true "Class section ID"
// @Success 200 {object} response.Envelope
// @Router /sections/{id} [get]
func (h *TeachingLoadHandler) GetSection(c *gin.Context) {
	claims := claimsFromContext(c)
	if err := ensureSectionAccess(c.Request.Context(), claims, h.loads, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	detail, err := h.loads.GetSection(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}
