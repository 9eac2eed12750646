package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fitdesk/coach-ops-api/internal/models"
	"github.com/fitdesk/coach-ops-api/internal/service"
)

type fakeAnalyticsRepo struct {
	between []models.Session
}

func (f *fakeAnalyticsRepo) List(context.Context, models.SessionFilter) ([]models.Session, int, error) {
	return nil, 0, nil
}

func (f *fakeAnalyticsRepo) ListBetween(context.Context, time.Time, time.Time) ([]models.Session, error) {
	return f.between, nil
}

func (f *fakeAnalyticsRepo) GetByID(context.Context, string) (*models.Session, error) {
	return nil, sql.ErrNoRows
}

func (f *fakeAnalyticsRepo) Create(context.Context, *models.Session) error  { return nil }
func (f *fakeAnalyticsRepo) Update(context.Context, *models.Session) error  { return nil }
func (f *fakeAnalyticsRepo) Delete(context.Context, string) error           { return nil }
func (f *fakeAnalyticsRepo) SetAttendance(context.Context, string, string, models.AttendanceStatus) error {
	return nil
}

func analyticsTestHandler(between []models.Session) *AnalyticsHandler {
	svc := service.NewAnalyticsService(&fakeAnalyticsRepo{between: between}, nil, nil, zap.NewNop(), time.Minute)
	return NewAnalyticsHandler(svc)
}

func TestAnalyticsHandlerAttendanceRequiresRange(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := analyticsTestHandler(nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/analytics/attendance", nil)

	handler.Attendance(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyticsHandlerAttendanceSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	day := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	handler := analyticsTestHandler([]models.Session{
		{
			ID:      "a",
			Title:   "Yoga",
			Kind:    models.SessionKindGroup,
			StartAt: day.Add(9 * time.Hour),
			Attendance: []models.AttendanceEntry{
				{UserID: "u1", Status: models.AttendanceAttending},
				{UserID: "u2", Status: models.AttendanceDeclined},
			},
		},
	})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/analytics/attendance?from=2024-03-04&to=2024-03-04", nil)

	handler.Attendance(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	buckets, ok := envelope.Data["buckets"].([]interface{})
	require.True(t, ok)
	require.Len(t, buckets, 1)
	bucket := buckets[0].(map[string]interface{})
	assert.Equal(t, "2024-03-04", bucket["day"])
	assert.Equal(t, "9:00 AM", bucket["time"])
	assert.InDelta(t, 1.0, bucket["total_attendance"], 0.001)
}

func TestAnalyticsHandlerAttendanceRejectsBadOrder(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := analyticsTestHandler(nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/analytics/attendance?from=2024-03-04&to=2024-03-04&order=reverse", nil)

	handler.Attendance(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyticsHandlerExportCSV(t *testing.T) {
	gin.SetMode(gin.TestMode)
	day := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	handler := analyticsTestHandler([]models.Session{
		{ID: "a", Title: "Yoga", Kind: models.SessionKindGroup, StartAt: day.Add(9 * time.Hour)},
	})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/analytics/attendance/export?from=2024-03-04&to=2024-03-04&format=csv", nil)

	handler.ExportAttendance(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attendance_2024-03-04_2024-03-04.csv")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "Day,Time,Sessions,Attendance"))
}
