package dto

import (
	"github.com/fitdesk/coach-ops-api/internal/models"
	"github.com/fitdesk/coach-ops-api/internal/timeline"
)

// SlotGroup pairs a grid slot with the sessions starting inside it.
type SlotGroup struct {
	Slot     timeline.TimeSlot `json:"slot"`
	Sessions []SessionSummary  `json:"sessions"`
}

// SessionSummary is the compact session shape embedded in timeline payloads.
type SessionSummary struct {
	ID             string             `json:"id"`
	Label          string             `json:"label"`
	Kind           models.SessionKind `json:"kind"`
	StartAt        string             `json:"start_at"`
	EndAt          string             `json:"end_at"`
	AttendingCount int                `json:"attending_count"`
}

// PositionedSessionView carries rendering geometry for one session.
type PositionedSessionView struct {
	SessionSummary
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
}

// DayTimelineResponse is the full render payload for one calendar day.
type DayTimelineResponse struct {
	Date       string                  `json:"date"`
	StartHour  int                     `json:"start_hour"`
	EndHour    int                     `json:"end_hour"`
	Slots      []SlotGroup             `json:"slots"`
	Positioned []PositionedSessionView `json:"positioned"`
	Past       []SessionSummary        `json:"past"`
	Upcoming   []SessionSummary        `json:"upcoming"`
}
