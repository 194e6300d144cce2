package dto

import "github.com/acadsys/class-record-api/internal/models"

// ReportRequest is the payload for queueing a report export.
type ReportRequest struct {
	Type                 models.ReportType   `json:"type" binding:"required"`
	TeachingLoadDetailID string              `json:"teaching_load_detail_id" binding:"required"`
	TermID               *string             `json:"term_id,omitempty"`
	Format               models.ReportFormat `json:"format" binding:"required"`
}

// ReportJobResponse acknowledges an accepted job.
type ReportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ReportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ReportStatusResponse exposes job progress to clients.
type ReportStatusResponse struct {
	ID        string              `json:"id"`
	Status    models.ReportStatus `json:"status"`
	Progress  int                 `json:"progress"`
	ResultURL *string             `json:"result_url,omitempty"`
	Error     *string             `json:"error,omitempty"`
}
