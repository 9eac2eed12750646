package timeline

import (
	"time"

	"github.com/fitdesk/coach-ops-api/internal/models"
)

// PositionedSession is the pixel geometry of a session on the timeline
// canvas, relative to the grid's first slot start. Derived on every render,
// never persisted.
type PositionedSession struct {
	Session models.Session `json:"session"`
	Top     float64        `json:"top"`
	Height  float64        `json:"height"`
}

// Position maps a session onto the pixel axis. The mapping is linear: one
// slot duration (an hour) corresponds to slotHeightPx.
//
// Top is never clamped: a session starting before the grid window gets a
// negative offset and the caller decides whether to clip it. Only Height has
// a floor, so near-zero and malformed (end before start) durations stay
// visible at minHeightPx instead of collapsing or going negative.
func Position(session models.Session, gridStart time.Time, slotHeightPx, minHeightPx float64) PositionedSession {
	startMinutes := session.StartAt.Sub(gridStart).Minutes()
	durationMinutes := session.EffectiveEnd().Sub(session.StartAt).Minutes()
	if durationMinutes < 0 {
		durationMinutes = 0
	}

	height := durationMinutes / 60 * slotHeightPx
	if height < minHeightPx {
		height = minHeightPx
	}

	return PositionedSession{
		Session: session,
		Top:     startMinutes / 60 * slotHeightPx,
		Height:  height,
	}
}

// PositionAll positions every session against the same grid origin,
// preserving input order.
func PositionAll(sessions []models.Session, gridStart time.Time, slotHeightPx, minHeightPx float64) []PositionedSession {
	positioned := make([]PositionedSession, 0, len(sessions))
	for _, session := range sessions {
		positioned = append(positioned, Position(session, gridStart, slotHeightPx, minHeightPx))
	}
	return positioned
}

// CollisionResolver rearranges positioned sessions that occupy overlapping
// pixel regions, e.g. by assigning lanes. The default pipeline does no
// de-collision; concurrent sessions render on top of each other.
type CollisionResolver func([]PositionedSession) []PositionedSession

// IdentityResolver returns its input unchanged. It is the default
// CollisionResolver until a lane-assignment strategy exists.
func IdentityResolver(positioned []PositionedSession) []PositionedSession {
	return positioned
}
