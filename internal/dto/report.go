package dto

import "github.com/fitdesk/coach-ops-api/internal/models"

// ReportRequest captures POST /reports payload.
type ReportRequest struct {
	Type    models.ReportType   `json:"type"`
	From    string              `json:"from"`
	To      string              `json:"to"`
	CoachID *string             `json:"coach_id,omitempty"`
	Format  models.ReportFormat `json:"format"`
}

// ReportJobResponse is returned after enqueueing a report.
type ReportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ReportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ReportStatusResponse exposes job progress metadata.
type ReportStatusResponse struct {
	ID        string              `json:"id"`
	Status    models.ReportStatus `json:"status"`
	Progress  int                 `json:"progress"`
	ResultURL *string             `json:"result_url,omitempty"`
	Error     *string             `json:"error,omitempty"`
}
