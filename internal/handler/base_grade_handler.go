package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acadsys/class-record-api/internal/service"
	appErrors "github.com/acadsys/class-record-api/pkg/errors"
	"github.com/acadsys/class-record-api/pkg/response"
)

// BaseGradeHandler exposes the semester blend settings per class section.
type BaseGradeHandler struct {
	baseGrades *service.BaseGradeService
	loads      *service.TeachingLoadService
}

// NewBaseGradeHandler constructs handler.
func NewBaseGradeHandler(baseGrades *service.BaseGradeService, loads *service.TeachingLoadService) *BaseGradeHandler {
	return &BaseGradeHandler{baseGrades: baseGrades, loads: loads}
}

// Get godoc
// @Summary Get base grade setting for a class section
// @Tags Grading
// @Produce json
// @Param id path string true "Class section ID"
// @Success 200 {object} response.Envelope{data=service.BaseGradeStatus}
// @Router /sections/{id}/base-grade [get]
func (h *BaseGradeHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if err := ensureSectionAccess(c.Request.Context(), claims, h.loads, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	status, err := h.baseGrades.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Save godoc
// @Summary Save base grade setting
// @Description Base grade and percentage must total 100.
// @Tags Grading
// @Accept json
// @Produce json
// @Param id path string true "Class section ID"
// @Param request body service.SaveBaseGradeRequest true "Base grade setting"
// @Success 200 {object} response.Envelope{data=models.BaseGrade}
// @Failure 400 {object} response.Envelope
// @Router /sections/{id}/base-grade [put]
func (h *BaseGradeHandler) Save(c *gin.Context) {
	var req service.SaveBaseGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid request body"))
		return
	}
	req.TeachingLoadDetailID = c.Param("id")

	claims := claimsFromContext(c)
	if err := ensureSectionAccess(c.Request.Context(), claims, h.loads, req.TeachingLoadDetailID); err != nil {
		response.Error(c, err)
		return
	}

	baseGrade, err := h.baseGrades.Save(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, baseGrade, nil)
}
