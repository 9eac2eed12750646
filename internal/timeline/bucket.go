package timeline

import (
	"time"

	"github.com/fitdesk/coach-ops-api/internal/models"
)

// BucketSessions assigns each session to the single grid slot containing its
// start instant. A session belongs to at most one bucket regardless of how
// many slots its duration spans; multi-hour rendering is handled by the
// positioner, never by duplicating bucket membership.
//
// Sessions starting before the first slot, or at or after the last slot's
// end, are dropped from bucketing. They remain eligible for positioning if
// the caller renders an extended canvas.
func BucketSessions(sessions []models.Session, grid []TimeSlot) map[int][]models.Session {
	buckets := make(map[int][]models.Session)
	if len(grid) == 0 {
		return buckets
	}
	for _, session := range sessions {
		if index, ok := slotIndexFor(session.StartAt, grid); ok {
			buckets[index] = append(buckets[index], session)
		}
	}
	return buckets
}

// slotIndexFor finds the slot with slot.Start <= t < slot.End. The grid is
// contiguous so the offset from the first slot start resolves it directly.
func slotIndexFor(t time.Time, grid []TimeSlot) (int, bool) {
	first := grid[0].Start
	if t.Before(first) {
		return 0, false
	}
	index := int(t.Sub(first) / time.Hour)
	if index >= len(grid) {
		return 0, false
	}
	return index, true
}

// SplitPastUpcoming partitions sessions around the current instant: a
// session is past iff its effective end is strictly before now. Inclusion in
// a day is decided by DayOverlaps at day granularity; this split is an
// instant-granularity classification applied after inclusion. The two rules
// are intentionally separate.
func SplitPastUpcoming(sessions []models.Session, now time.Time) (past, upcoming []models.Session) {
	for _, session := range sessions {
		if session.EffectiveEnd().Before(now) {
			past = append(past, session)
		} else {
			upcoming = append(upcoming, session)
		}
	}
	return past, upcoming
}
