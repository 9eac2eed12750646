package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fitdesk/coach-ops-api/internal/dto"
	"github.com/fitdesk/coach-ops-api/internal/models"
	"github.com/fitdesk/coach-ops-api/internal/timeline"
	appErrors "github.com/fitdesk/coach-ops-api/pkg/errors"
	"github.com/fitdesk/coach-ops-api/pkg/export"
)

// Bucket orderings accepted by the attendance report.
const (
	OrderLabel         = "label"
	OrderChronological = "chronological"
)

// AnalyticsService provides read-optimised attendance reporting with cache integration.
type AnalyticsService struct {
	sessions sessionRepository
	cache    *CacheService
	metrics  *MetricsService
	logger   *zap.Logger
	cacheTTL time.Duration
}

// NewAnalyticsService constructs an analytics service.
func NewAnalyticsService(sessions sessionRepository, cache *CacheService, metrics *MetricsService, logger *zap.Logger, cacheTTL time.Duration) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &AnalyticsService{sessions: sessions, cache: cache, metrics: metrics, logger: logger, cacheTTL: cacheTTL}
}

// AttendanceReport aggregates attendance buckets for the inclusive date range.
// The boolean indicates whether data originated from cache. Order selects
// bucket sorting: "label" (default, formatted-label string order) or
// "chronological".
func (s *AnalyticsService) AttendanceReport(ctx context.Context, from, to time.Time, order string) (*dto.AttendanceReportResponse, bool, error) {
	switch order {
	case "", OrderLabel:
		order = OrderLabel
	case OrderChronological:
	default:
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "order must be label or chronological")
	}
	if to.Before(from) {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "to must be on or after from")
	}

	rangeStart := timeline.StartOfDay(from)
	rangeEnd := timeline.EndOfDay(to)

	cacheKey := makeAnalyticsCacheKey("attendance",
		rangeStart.Format(timeline.DayKeyFormat), rangeEnd.Format(timeline.DayKeyFormat), order)
	var cached dto.AttendanceReportResponse
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err != nil {
			return nil, false, fmt.Errorf("get attendance cache: %w", err)
		} else if hit {
			return &cached, true, nil
		}
	}

	start := time.Now()
	sessions, err := s.sessions.ListBetween(ctx, rangeStart, rangeEnd)
	if err != nil {
		return nil, false, err
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("analytics_attendance", time.Since(start))
	}

	// Range membership uses the day-granularity predicate, so a session
	// straddling midnight into the range still counts.
	query := timeline.Interval{Start: rangeStart, End: rangeEnd}
	scoped := make([]models.Session, 0, len(sessions))
	for _, session := range sessions {
		interval := timeline.Interval{Start: session.StartAt, End: session.EffectiveEnd()}
		if timeline.DayOverlaps(interval, query) {
			scoped = append(scoped, session)
		}
	}

	result := timeline.Aggregate(scoped)
	if order == OrderChronological {
		timeline.SortBucketsChronological(result.Buckets)
	}

	response := buildAttendanceReport(rangeStart, rangeEnd, order, result)
	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, response, s.cacheTTL); err != nil {
			s.logger.Warn("cache attendance", zap.Error(err))
		}
	}
	return response, false, nil
}

// ExportAttendance renders the attendance report for the range as CSV or PDF
// bytes, returning the payload and its content type.
func (s *AnalyticsService) ExportAttendance(ctx context.Context, from, to time.Time, format string) ([]byte, string, error) {
	if format != "csv" && format != "pdf" {
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	report, _, err := s.AttendanceReport(ctx, from, to, OrderChronological)
	if err != nil {
		return nil, "", err
	}

	dataset := export.Dataset{
		Headers: []string{"Day", "Time", "Sessions", "Attendance"},
		Rows:    make([]map[string]string, 0, len(report.Buckets)),
	}
	for _, bucket := range report.Buckets {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Day":        bucket.Day,
			"Time":       bucket.Time,
			"Sessions":   strconv.Itoa(bucket.SessionCount),
			"Attendance": strconv.Itoa(bucket.TotalAttendance),
		})
	}

	if format == "csv" {
		payload, err := export.NewCSVExporter().Render(dataset)
		if err != nil {
			return nil, "", fmt.Errorf("render csv: %w", err)
		}
		return payload, "text/csv", nil
	}

	title := fmt.Sprintf("Attendance %s to %s", report.From, report.To)
	payload, err := export.NewPDFExporter().Render(dataset, title)
	if err != nil {
		return nil, "", fmt.Errorf("render pdf: %w", err)
	}
	return payload, "application/pdf", nil
}

// SystemMetrics returns system instrumentation snapshot.
func (s *AnalyticsService) SystemMetrics() models.SystemMetrics {
	if s.metrics == nil {
		return models.SystemMetrics{}
	}
	return s.metrics.Snapshot()
}

func buildAttendanceReport(from, to time.Time, order string, result timeline.AggregateResult) *dto.AttendanceReportResponse {
	response := &dto.AttendanceReportResponse{
		From:    from.Format(timeline.DayKeyFormat),
		To:      to.Format(timeline.DayKeyFormat),
		Order:   order,
		Buckets: make([]dto.AttendanceBucketView, 0, len(result.Buckets)),
		Summary: dto.AttendanceSummaryView{
			TotalSessions:     result.Summary.TotalSessions,
			TotalAttendance:   result.Summary.TotalAttendance,
			AverageAttendance: result.Summary.AverageAttendance,
		},
	}
	for _, bucket := range result.Buckets {
		view := dto.AttendanceBucketView{
			Day:             bucket.DayKey,
			Time:            bucket.TimeLabel,
			SessionCount:    len(bucket.Sessions),
			TotalAttendance: bucket.TotalAttendance,
		}
		for _, session := range bucket.Sessions {
			view.SessionIDs = append(view.SessionIDs, session.ID)
		}
		response.Buckets = append(response.Buckets, view)
	}
	return response
}

func makeAnalyticsCacheKey(parts ...string) string {
	var builder strings.Builder
	builder.Grow(len(parts) * 16)
	builder.WriteString("analytics")
	for _, part := range parts {
		if part == "" {
			continue
		}
		builder.WriteByte(':')
		builder.WriteString(strings.ReplaceAll(part, ":", "|"))
	}
	return builder.String()
}
