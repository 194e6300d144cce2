package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acadsys/class-record-api/internal/service"
	appErrors "github.com/acadsys/class-record-api/pkg/errors"
	"github.com/acadsys/class-record-api/pkg/response"
)

// ScoreHandler exposes score recording endpoints.
type ScoreHandler struct {
	scores     *service.ScoreService
	activities *service.ActivityService
	loads      *service.TeachingLoadService
}

// NewScoreHandler constructs handler.
func NewScoreHandler(scores *service.ScoreService, activities *service.ActivityService, loads *service.TeachingLoadService) *ScoreHandler {
	return &ScoreHandler{scores: scores, activities: activities, loads: loads}
}

// guardActivity checks that the caller may touch the section owning the
// given activity.
func (h *ScoreHandler) guardActivity(c *gin.Context, activityID string) bool {
	activity, err := h.activities.Get(c.Request.Context(), activityID)
	if err != nil {
		response.Error(c, err)
		return false
	}
	claims := claimsFromContext(c)
	if err := ensureSectionAccess(c.Request.Context(), claims, h.loads, activity.TeachingLoadDetailID); err != nil {
		response.Error(c, err)
		return false
	}
	return true
}

// Sheet godoc
// @Summary Score sheet for an activity
// @Description Returns the full roster with each student's recorded score, nil where unscored.
// @Tags Scores
// @Produce json
// @Param id path string true "Activity ID"
// @Success 200 {object} response.Envelope{data=service.ActivitySheet}
// @Failure 404 {object} response.Envelope
// @Router /activities/{id}/scores [get]
func (h *ScoreHandler) Sheet(c *gin.Context) {
	if !h.guardActivity(c, c.Param("id")) {
		return
	}
	sheet, err := h.scores.Sheet(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheet, nil)
}

// Record godoc
// @Summary Record one score
// @Description Upserts a student's score for an activity. Score must stay within [0, number_of_items].
// @Tags Scores
// @Accept json
// @Produce json
// @Param id path string true "Activity ID"
// @Param request body service.RecordScoreRequest true "Score"
// @Success 200 {object} response.Envelope{data=models.ScoreRecord}
// @Failure 400 {object} response.Envelope
// @Router /activities/{id}/scores [put]
func (h *ScoreHandler) Record(c *gin.Context) {
	var req service.RecordScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid request body"))
		return
	}
	req.ActivityID = c.Param("id")

	if !h.guardActivity(c, req.ActivityID) {
		return
	}

	claims := claimsFromContext(c)
	record, err := h.scores.Record(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// RecordBatch godoc
// @Summary Record a batch of scores
// @Description Validates every entry before writing; one bad row rejects the whole batch.
// @Tags Scores
// @Accept json
// @Produce json
// @Param id path string true "Activity ID"
// @Param request body service.RecordBatchRequest true "Scores"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /activities/{id}/scores/batch [put]
func (h *ScoreHandler) RecordBatch(c *gin.Context) {
	var req service.RecordBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid request body"))
		return
	}
	req.ActivityID = c.Param("id")

	if !h.guardActivity(c, req.ActivityID) {
		return
	}

	claims := claimsFromContext(c)
	count, err := h.scores.RecordBatch(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"recorded": count}, nil)
}
