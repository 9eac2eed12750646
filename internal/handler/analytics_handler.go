package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fitdesk/coach-ops-api/internal/middleware"
	"github.com/fitdesk/coach-ops-api/internal/service"
	appErrors "github.com/fitdesk/coach-ops-api/pkg/errors"
	"github.com/fitdesk/coach-ops-api/pkg/response"
)

// AnalyticsHandler exposes attendance reporting endpoints.
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
}

// NewAnalyticsHandler constructs the analytics handler.
func NewAnalyticsHandler(analytics *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// Attendance godoc
// @Summary Attendance report
// @Description Sessions in the range grouped by day and hour label with attending totals.
// @Tags Analytics
// @Produce json
// @Param from query string true "Range start (YYYY-MM-DD)"
// @Param to query string true "Range end (YYYY-MM-DD)"
// @Param order query string false "Bucket order: label (default) or chronological"
// @Success 200 {object} response.Envelope
// @Router /analytics/attendance [get]
func (h *AnalyticsHandler) Attendance(c *gin.Context) {
	if h.analytics == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	from, to, err := parseReportRange(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	start := time.Now()
	report, cacheHit, err := h.analytics.AttendanceReport(c.Request.Context(), from, to, c.Query("order"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	middleware.SetMeta(c, "processing_time_ms", time.Since(start).Milliseconds())
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = make(map[string]interface{})
	}
	response.JSON(c, http.StatusOK, report, nil, meta)
}

// ExportAttendance godoc
// @Summary Export the attendance report
// @Tags Analytics
// @Produce text/csv
// @Produce application/pdf
// @Param from query string true "Range start (YYYY-MM-DD)"
// @Param to query string true "Range end (YYYY-MM-DD)"
// @Param format query string true "csv or pdf"
// @Success 200 {file} file
// @Router /analytics/attendance/export [get]
func (h *AnalyticsHandler) ExportAttendance(c *gin.Context) {
	if h.analytics == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	from, to, err := parseReportRange(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	format := c.DefaultQuery("format", "csv")
	payload, contentType, err := h.analytics.ExportAttendance(c.Request.Context(), from, to, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("attendance_%s_%s.%s", from.Format("2006-01-02"), to.Format("2006-01-02"), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}

// System godoc
// @Summary Instrumentation snapshot
// @Tags Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /analytics/system [get]
func (h *AnalyticsHandler) System(c *gin.Context) {
	if h.analytics == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	metrics := h.analytics.SystemMetrics()
	middleware.SetCacheHit(c, false)
	response.JSON(c, http.StatusOK, metrics, nil, middleware.ExtractMeta(c))
}

func parseReportRange(c *gin.Context) (time.Time, time.Time, error) {
	rawFrom := c.Query("from")
	rawTo := c.Query("to")
	if rawFrom == "" || rawTo == "" {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "from and to are required")
	}
	from, err := time.Parse("2006-01-02", rawFrom)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "from must be YYYY-MM-DD")
	}
	to, err := time.Parse("2006-01-02", rawTo)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "to must be YYYY-MM-DD")
	}
	return from, to, nil
}
