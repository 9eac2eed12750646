package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitdesk/coach-ops-api/internal/models"
)

func sessionAt(id string, start time.Time, duration time.Duration) models.Session {
	end := start.Add(duration)
	return models.Session{ID: id, Title: id, StartAt: start, EndAt: &end}
}

func TestBucketSessionsAssignsByStartInstant(t *testing.T) {
	day := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	grid := DayGrid(day, 5, 23)

	sessions := []models.Session{
		sessionAt("s-0900", day.Add(9*time.Hour), time.Hour),
		sessionAt("s-0930", day.Add(9*time.Hour+30*time.Minute), 30*time.Minute),
		sessionAt("s-1700", day.Add(17*time.Hour), time.Hour),
	}

	buckets := BucketSessions(sessions, grid)

	require.Len(t, buckets[4], 2, "both 9am sessions share the 09:00 slot")
	require.Len(t, buckets[12], 1)
	assert.Equal(t, "s-1700", buckets[12][0].ID)
}

func TestBucketSessionsDropsOutOfWindowStarts(t *testing.T) {
	day := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	grid := DayGrid(day, 5, 23)

	sessions := []models.Session{
		sessionAt("too-early", day.Add(4*time.Hour+30*time.Minute), time.Hour),
		sessionAt("at-grid-end", day.Add(24*time.Hour), time.Hour),
	}

	buckets := BucketSessions(sessions, grid)
	assert.Empty(t, buckets)
}

func TestBucketSessionsUniqueMembership(t *testing.T) {
	day := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	grid := DayGrid(day, 5, 23)

	// Spans three slots but is bucketed once, by its start.
	long := sessionAt("long", day.Add(10*time.Hour), 3*time.Hour)
	buckets := BucketSessions([]models.Session{long}, grid)

	seen := 0
	for _, slotSessions := range buckets {
		for _, s := range slotSessions {
			if s.ID == "long" {
				seen++
			}
		}
	}
	assert.Equal(t, 1, seen)
	require.Len(t, buckets[5], 1)
}

func TestBucketSessionsEmptyGrid(t *testing.T) {
	buckets := BucketSessions([]models.Session{sessionAt("s", time.Now(), time.Hour)}, nil)
	assert.Empty(t, buckets)
}

func TestSplitPastUpcomingUsesEffectiveEndInstant(t *testing.T) {
	now := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)

	finished := sessionAt("finished", now.Add(-2*time.Hour), time.Hour)
	running := sessionAt("running", now.Add(-30*time.Minute), time.Hour)
	later := sessionAt("later", now.Add(3*time.Hour), time.Hour)
	// Ends exactly at now: not strictly before, so still upcoming.
	boundary := sessionAt("boundary", now.Add(-time.Hour), time.Hour)

	past, upcoming := SplitPastUpcoming([]models.Session{finished, running, later, boundary}, now)

	require.Len(t, past, 1)
	assert.Equal(t, "finished", past[0].ID)
	require.Len(t, upcoming, 3)
}

func TestSplitPastUpcomingDefaultDuration(t *testing.T) {
	now := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)

	// No explicit end: effective end is start + 60min.
	open := models.Session{ID: "open", StartAt: now.Add(-45 * time.Minute)}
	past, upcoming := SplitPastUpcoming([]models.Session{open}, now)

	assert.Empty(t, past)
	require.Len(t, upcoming, 1)
}
