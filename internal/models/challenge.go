package models

import "time"

// Challenge represents a timed challenge members can enroll in.
type Challenge struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	StartDate   time.Time `db:"start_date" json:"start_date"`
	EndDate     time.Time `db:"end_date" json:"end_date"`
	CreatedBy   string    `db:"created_by" json:"created_by"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ChallengeEnrollment links a member to a challenge.
type ChallengeEnrollment struct {
	ID          string    `db:"id" json:"id"`
	ChallengeID string    `db:"challenge_id" json:"challenge_id"`
	UserID      string    `db:"user_id" json:"user_id"`
	JoinedAt    time.Time `db:"joined_at" json:"joined_at"`
}

// ChallengeFilter narrows challenge listings. DateFrom/DateTo select
// challenges whose window overlaps the requested range at day granularity.
type ChallengeFilter struct {
	DateFrom *time.Time
	DateTo   *time.Time
	UserID   string
	Page     int
	PageSize int
}
