package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acadsys/class-record-api/internal/service"
	"github.com/acadsys/class-record-api/pkg/response"
)

// ReferenceHandler serves the fixed grading vocabularies.
type ReferenceHandler struct {
	reference *service.ReferenceService
}

// NewReferenceHandler constructs handler.
func NewReferenceHandler(reference *service.ReferenceService) *ReferenceHandler {
	return &ReferenceHandler{reference: reference}
}

// ListCategories godoc
// @Summary List grading categories
// @Tags Reference
// @Produce json
// @Success 200 {object} response.Envelope{data=[]models.Category}
// @Router /categories [get]
func (h *ReferenceHandler) ListCategories(c *gin.Context) {
	categories, err := h.reference.ListCategories(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, categories, nil)
}

// ListTerms godoc
// @Summary List grading terms
// @Tags Reference
// @Produce json
// @Success 200 {object} response.Envelope{data=[]models.Term}
// @Router /terms [get]
func (h *ReferenceHandler) ListTerms(c *gin.Context) {
	terms, err := h.reference.ListTerms(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, terms, nil)
}
