package timeline

import (
	"sort"
	"time"

	"github.com/fitdesk/coach-ops-api/internal/models"
)

// Formats for the composite aggregation key.
const (
	DayKeyFormat    = "2006-01-02"
	TimeLabelFormat = "3:04 PM"
)

// AttendanceBucket groups sessions sharing a (day, time-of-day label) key.
// Two sessions starting at the same instant merge into one bucket; same day
// at different times do not.
type AttendanceBucket struct {
	DayKey          string           `json:"day"`
	TimeLabel       string           `json:"time"`
	Sessions        []models.Session `json:"sessions"`
	TotalAttendance int              `json:"total_attendance"`
}

// Summary carries the aggregate totals across all input sessions.
type Summary struct {
	TotalSessions     int     `json:"total_sessions"`
	TotalAttendance   int     `json:"total_attendance"`
	AverageAttendance float64 `json:"average_attendance"`
}

// AggregateResult is the analytics payload: chronologically sorted buckets
// plus the overall summary.
type AggregateResult struct {
	Buckets []AttendanceBucket `json:"buckets"`
	Summary Summary            `json:"summary"`
}

// Aggregate groups attendance-bearing sessions into (day, time label)
// buckets and computes summary statistics. Only "attending" entries count.
// Empty input yields an empty bucket list and a zeroed summary, never an
// error.
//
// Buckets sort by day key, then by a plain string comparison of the
// formatted time label. The label comparison can misorder across the hour
// digit-count boundary ("10:00 AM" sorts before "9:00 AM"); downstream
// consumers may rely on that order, so it stays the default. Use
// SortBucketsChronological for the corrected ordering.
func Aggregate(sessions []models.Session) AggregateResult {
	type key struct {
		day   string
		label string
	}

	index := make(map[key]int)
	buckets := make([]AttendanceBucket, 0)
	totalAttendance := 0

	for _, session := range sessions {
		k := key{
			day:   session.StartAt.Format(DayKeyFormat),
			label: session.StartAt.Format(TimeLabelFormat),
		}
		position, ok := index[k]
		if !ok {
			position = len(buckets)
			index[k] = position
			buckets = append(buckets, AttendanceBucket{DayKey: k.day, TimeLabel: k.label})
		}
		attending := session.AttendingCount()
		buckets[position].Sessions = append(buckets[position].Sessions, session)
		buckets[position].TotalAttendance += attending
		totalAttendance += attending
	}

	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].DayKey != buckets[j].DayKey {
			return buckets[i].DayKey < buckets[j].DayKey
		}
		return buckets[i].TimeLabel < buckets[j].TimeLabel
	})

	summary := Summary{
		TotalSessions:   len(sessions),
		TotalAttendance: totalAttendance,
	}
	if summary.TotalSessions > 0 {
		summary.AverageAttendance = float64(summary.TotalAttendance) / float64(summary.TotalSessions)
	}

	return AggregateResult{Buckets: buckets, Summary: summary}
}

// SortBucketsChronological re-sorts buckets by actual time-of-day instead of
// the formatted label, fixing the AM/PM digit-count misordering. Offered as
// an explicit alternative; labels that fail to parse fall back to string
// order.
func SortBucketsChronological(buckets []AttendanceBucket) {
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].DayKey != buckets[j].DayKey {
			return buckets[i].DayKey < buckets[j].DayKey
		}
		ti, errI := time.Parse(TimeLabelFormat, buckets[i].TimeLabel)
		tj, errJ := time.Parse(TimeLabelFormat, buckets[j].TimeLabel)
		if errI != nil || errJ != nil {
			return buckets[i].TimeLabel < buckets[j].TimeLabel
		}
		return ti.Before(tj)
	})
}
