package timeline

import "time"

// Interval is a time interval with inclusive comparison semantics. The same
// type backs two deliberately distinct predicates: Overlaps compares exact
// instants (used for pixel geometry), DayOverlaps compares whole days (used
// for range inclusion). Call sites must pick one explicitly; conflating the
// two has caused off-by-one-day inclusion bugs before.
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval builds an interval, collapsing an end before the start to a
// zero-width interval at the start. Malformed input is normalised, not
// rejected.
func NewInterval(start, end time.Time) Interval {
	if end.Before(start) {
		end = start
	}
	return Interval{Start: start, End: end}
}

// Duration returns the interval span, never negative.
func (i Interval) Duration() time.Duration {
	if i.End.Before(i.Start) {
		return 0
	}
	return i.End.Sub(i.Start)
}

// Overlaps reports whether two intervals intersect using closed
// exact-instant comparison: a.Start <= b.End && a.End >= b.Start.
func Overlaps(a, b Interval) bool {
	return !a.Start.After(b.End) && !a.End.Before(b.Start)
}

// DayOverlaps reports whether two intervals intersect at day granularity.
// Both intervals are widened to 00:00:00 and 23:59:59.999 of their
// respective days before the closed comparison, so any shared calendar day
// counts as overlap. This is the single shared predicate for both "active
// today" and "window intersects range" queries.
func DayOverlaps(a, b Interval) bool {
	return Overlaps(normalizeToDayBounds(a), normalizeToDayBounds(b))
}

// StartOfDay returns midnight of t's calendar day. Idempotent.
func StartOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59.999 of t's calendar day. Idempotent.
func EndOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

func normalizeToDayBounds(i Interval) Interval {
	i = NewInterval(i.Start, i.End)
	return Interval{Start: StartOfDay(i.Start), End: EndOfDay(i.End)}
}

// DayBounds returns the interval covering t's whole calendar day.
func DayBounds(t time.Time) Interval {
	return Interval{Start: StartOfDay(t), End: EndOfDay(t)}
}
