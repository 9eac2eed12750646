package models

import "time"

// SessionKind distinguishes one-on-one coaching sessions from group classes.
type SessionKind string

const (
	// SessionKindPersonal sessions take their display label from the single
	// attending member rather than the session title.
	SessionKindPersonal SessionKind = "personal"
	SessionKindGroup    SessionKind = "group"
)

// Valid returns true when the kind is a supported value.
func (k SessionKind) Valid() bool {
	switch k {
	case SessionKindPersonal, SessionKindGroup:
		return true
	default:
		return false
	}
}

// AttendanceStatus tracks a member's RSVP state on a session. Only
// "attending" entries count toward occupancy and aggregation.
type AttendanceStatus string

const (
	AttendanceAttending AttendanceStatus = "attending"
	AttendanceDeclined  AttendanceStatus = "declined"
	AttendancePending   AttendanceStatus = "pending"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceAttending, AttendanceDeclined, AttendancePending:
		return true
	default:
		return false
	}
}

// AttendanceEntry is a single member's RSVP on a session.
type AttendanceEntry struct {
	UserID   string           `db:"user_id" json:"user_id"`
	UserName string           `db:"user_name" json:"user_name,omitempty"`
	Status   AttendanceStatus `db:"status" json:"status"`
}

// Session represents a scheduled coaching session.
//
// EndAt is optional; the effective end defaults to StartAt + 60 minutes when
// absent. EndAt earlier than StartAt is tolerated and treated as zero
// duration downstream, never rejected.
type Session struct {
	ID          string            `db:"id" json:"id"`
	Title       string            `db:"title" json:"title"`
	Description *string           `db:"description" json:"description,omitempty"`
	CoachID     string            `db:"coach_id" json:"coach_id"`
	Kind        SessionKind       `db:"kind" json:"kind"`
	StartAt     time.Time         `db:"start_at" json:"start_at"`
	EndAt       *time.Time        `db:"end_at" json:"end_at,omitempty"`
	Location    *string           `db:"location" json:"location,omitempty"`
	Attendance  []AttendanceEntry `json:"attendance"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time         `db:"updated_at" json:"updated_at"`
}

// DefaultSessionDuration applies when a session has no explicit end.
const DefaultSessionDuration = 60 * time.Minute

// EffectiveEnd returns EndAt when present, otherwise StartAt plus the
// default duration. A stored end before the start collapses to the start.
func (s Session) EffectiveEnd() time.Time {
	if s.EndAt == nil {
		return s.StartAt.Add(DefaultSessionDuration)
	}
	if s.EndAt.Before(s.StartAt) {
		return s.StartAt
	}
	return *s.EndAt
}

// AttendingCount reports how many attendance entries are "attending".
func (s Session) AttendingCount() int {
	count := 0
	for _, entry := range s.Attendance {
		if entry.Status == AttendanceAttending {
			count++
		}
	}
	return count
}

// DisplayLabel resolves the name shown on the timeline: personal sessions
// are labelled after the assigned member, group sessions after the title.
func (s Session) DisplayLabel() string {
	if s.Kind == SessionKindPersonal {
		for _, entry := range s.Attendance {
			if entry.Status == AttendanceAttending && entry.UserName != "" {
				return entry.UserName
			}
		}
	}
	return s.Title
}

// SessionFilter narrows session listings.
type SessionFilter struct {
	CoachID   string
	Kind      *SessionKind
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
