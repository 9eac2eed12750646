package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitdesk/coach-ops-api/internal/models"
)

func attendingSession(id string, start time.Time, duration time.Duration, attending int) models.Session {
	session := sessionAt(id, start, duration)
	for i := 0; i < attending; i++ {
		session.Attendance = append(session.Attendance, models.AttendanceEntry{
			UserID: id, Status: models.AttendanceAttending,
		})
	}
	return session
}

func TestAggregateMergesSameInstantSessions(t *testing.T) {
	start := time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)
	sessions := []models.Session{
		attendingSession("a", start, time.Hour, 3),
		attendingSession("b", start, 30*time.Minute, 2),
	}

	result := Aggregate(sessions)

	require.Len(t, result.Buckets, 1)
	bucket := result.Buckets[0]
	assert.Equal(t, "2024-01-01", bucket.DayKey)
	assert.Equal(t, "9:00 AM", bucket.TimeLabel)
	assert.Equal(t, 5, bucket.TotalAttendance)
	assert.Len(t, bucket.Sessions, 2)

	assert.Equal(t, 2, result.Summary.TotalSessions)
	assert.Equal(t, 5, result.Summary.TotalAttendance)
	assert.InDelta(t, 2.5, result.Summary.AverageAttendance, 1e-9)
}

func TestAggregateSameDayDifferentTimesDoNotMerge(t *testing.T) {
	day := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	sessions := []models.Session{
		attendingSession("a", day.Add(9*time.Hour), time.Hour, 1),
		attendingSession("b", day.Add(17*time.Hour), time.Hour, 1),
	}

	result := Aggregate(sessions)
	assert.Len(t, result.Buckets, 2)
}

func TestAggregateOnlyCountsAttending(t *testing.T) {
	start := time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)
	session := sessionAt("mixed", start, time.Hour)
	session.Attendance = []models.AttendanceEntry{
		{UserID: "u1", Status: models.AttendanceAttending},
		{UserID: "u2", Status: models.AttendanceDeclined},
		{UserID: "u3", Status: models.AttendancePending},
	}

	result := Aggregate([]models.Session{session})
	require.Len(t, result.Buckets, 1)
	assert.Equal(t, 1, result.Buckets[0].TotalAttendance)
	assert.Equal(t, 1, result.Summary.TotalAttendance)
}

func TestAggregateEmptyInput(t *testing.T) {
	result := Aggregate(nil)

	assert.NotNil(t, result.Buckets)
	assert.Empty(t, result.Buckets)
	assert.Equal(t, Summary{}, result.Summary)
}

func TestAggregateConservation(t *testing.T) {
	day := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	sessions := []models.Session{
		attendingSession("a", day.Add(6*time.Hour), time.Hour, 4),
		attendingSession("b", day.Add(6*time.Hour), time.Hour, 1),
		attendingSession("c", day.Add(12*time.Hour), time.Hour, 7),
		attendingSession("d", day.AddDate(0, 0, 1).Add(6*time.Hour), time.Hour, 2),
	}

	result := Aggregate(sessions)

	bucketTotal := 0
	for _, bucket := range result.Buckets {
		bucketTotal += bucket.TotalAttendance
	}
	assert.Equal(t, result.Summary.TotalAttendance, bucketTotal)
}

func TestAggregateDefaultSortIsLexicalOnLabels(t *testing.T) {
	day := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	sessions := []models.Session{
		attendingSession("nine", day.Add(9*time.Hour), time.Hour, 1),
		attendingSession("ten", day.Add(10*time.Hour), time.Hour, 1),
	}

	result := Aggregate(sessions)

	// "10:00 AM" < "9:00 AM" lexically: the known label-ordering quirk.
	require.Len(t, result.Buckets, 2)
	assert.Equal(t, "10:00 AM", result.Buckets[0].TimeLabel)
	assert.Equal(t, "9:00 AM", result.Buckets[1].TimeLabel)
}

func TestSortBucketsChronologicalFixesLabelOrder(t *testing.T) {
	day := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	sessions := []models.Session{
		attendingSession("nine", day.Add(9*time.Hour), time.Hour, 1),
		attendingSession("ten", day.Add(10*time.Hour), time.Hour, 1),
		attendingSession("afternoon", day.Add(14*time.Hour), time.Hour, 1),
	}

	result := Aggregate(sessions)
	SortBucketsChronological(result.Buckets)

	require.Len(t, result.Buckets, 3)
	assert.Equal(t, "9:00 AM", result.Buckets[0].TimeLabel)
	assert.Equal(t, "10:00 AM", result.Buckets[1].TimeLabel)
	assert.Equal(t, "2:00 PM", result.Buckets[2].TimeLabel)
}

func TestSortBucketsChronologicalSortsAcrossDaysFirst(t *testing.T) {
	day := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	sessions := []models.Session{
		attendingSession("late-day-one", day.Add(20*time.Hour), time.Hour, 1),
		attendingSession("early-day-two", day.AddDate(0, 0, 1).Add(6*time.Hour), time.Hour, 1),
	}

	result := Aggregate(sessions)
	SortBucketsChronological(result.Buckets)

	require.Len(t, result.Buckets, 2)
	assert.Equal(t, "2024-01-01", result.Buckets[0].DayKey)
	assert.Equal(t, "2024-01-02", result.Buckets[1].DayKey)
}
