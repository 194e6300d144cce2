package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acadsys/class-record-api/internal/service"
	appErrors "github.com/acadsys/class-record-api/pkg/errors"
	"github.com/acadsys/class-record-api/pkg/response"
)

// CompositionHandler exposes grading composition endpoints.
type CompositionHandler struct {
	compositions *service.CompositionService
	loads        *service.TeachingLoadService
}

// NewCompositionHandler constructs handler.
func NewCompositionHandler(compositions *service.CompositionService, loads *service.TeachingLoadService) *CompositionHandler {
	return &CompositionHandler{compositions: compositions, loads: loads}
}

// Get godoc
// @Summary Get grading composition for a class section
// @Tags Grading
// @Produce json
// @Param id path string true "Class section ID"
// @Success 200 {object} response.Envelope{data=service.CompositionStatus}
// @Router /sections/{id}/composition [get]
func (h *CompositionHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if err := ensureSectionAccess(c.Request.Context(), claims, h.loads, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	status, err := h.compositions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Save godoc
// @Summary Save grading composition
// @Description Replaces the full weighting scheme for a class section. Weights must total 100.
// @Tags Grading
// @Accept json
// @Produce json
// @Param id path string true "Class section ID"
// @Param request body service.SaveCompositionRequest true "Composition entries"
// @Success 200 {object} response.Envelope{data=models.GradingComposition}
// @Failure 400 {object} response.Envelope
// @Router /sections/{id}/composition [put]
func (h *CompositionHandler) Save(c *gin.Context) {
	var req service.SaveCompositionRequest
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

	composition, err := h.compositions.Save(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, composition, nil)
}

// UpdateEntry godoc
// @Summary Update one composition entry
// @Tags Grading
// @Accept json
// @Produce json
// @Param id path string true "Class section ID"
// @Param categoryId path string true "Category ID"
// @Param request body service.UpdateEntryRequest true "New weight"
// @Success 200 {object} response.Envelope{data=models.GradingComposition}
// @Router /sections/{id}/composition/{categoryId} [patch]
func (h *CompositionHandler) UpdateEntry(c *gin.Context) {
	var req service.UpdateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid request body"))
		return
	}
	req.TeachingLoadDetailID = c.Param("id")
	req.CategoryID = c.Param("categoryId")

	claims := claimsFromContext(c)
	if err := ensureSectionAccess(c.Request.Context(), claims, h.loads, req.TeachingLoadDetailID); err != nil {
		response.Error(c, err)
		return
	}

	composition, err := h.compositions.UpdateEntry(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, composition, nil)
}
