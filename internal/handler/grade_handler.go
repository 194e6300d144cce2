package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acadsys/class-record-api/internal/service"
	appErrors "github.com/acadsys/class-record-api/pkg/errors"
	"github.com/acadsys/class-record-api/pkg/response"
)

// GradeHandler exposes computed grade endpoints. Results are read-only
// projections over scores and composition; nothing here mutates state.
type GradeHandler struct {
	termGrades     *service.TermGradeService
	semesterGrades *service.SemesterGradeService
	loads          *service.TeachingLoadService
}

// NewGradeHandler constructs handler.
func NewGradeHandler(termGrades *service.TermGradeService, semesterGrades *service.SemesterGradeService, loads *service.TeachingLoadService) *GradeHandler {
	return &GradeHandler{termGrades: termGrades, semesterGrades: semesterGrades, loads: loads}
}

// TermGrades godoc
// @Summary Computed term grades for a class section
// @Description Weighted category totals per enrolled student for one term. Missing scores count as zero.
// @Tags Grades
// @Produce json
// @Param id path string true "Class section ID"
// @Param termId query string true "Term ID"
// @Success 200 {object} response.Envelope{data=models.TermGradeResult}
// @Failure 404 {object} response.Envelope
// @Router /sections/{id}/grades/term [get]
func (h *GradeHandler) TermGrades(c *gin.Context) {
	termID := c.Query("termId")
	if termID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "termId is required"))
		return
	}

	claims := claimsFromContext(c)
	if err := ensureSectionAccess(c.Request.Context(), claims, h.loads, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.termGrades.Compute(c.Request.Context(), c.Param("id"), termID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// SemesterGrades godoc
// @Summary Computed semester grades for a class section
// @Description Blends the base grade with the midterm/finals average per the section's base grade setting.
// @Tags Grades
// @Produce json
// @Param id path string true "Class section ID"
// @Success 200 {object} response.Envelope{data=models.SemesterGradeResult}
// @Failure 404 {object} response.Envelope
// @Router /sections/{id}/grades/semester [get]
func (h *GradeHandler) SemesterGrades(c *gin.Context) {
	claims := claimsFromContext(c)
	if err := ensureSectionAccess(c.Request.Context(), claims, h.loads, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.semesterGrades.Compute(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
