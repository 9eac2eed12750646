package models

import "time"

// Workout represents a reusable workout template authored by a coach.
type Workout struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	CoachID     string    `db:"coach_id" json:"coach_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// WorkoutAssignment hands a workout to a member with an optional due date.
type WorkoutAssignment struct {
	ID         string     `db:"id" json:"id"`
	WorkoutID  string     `db:"workout_id" json:"workout_id"`
	UserID     string     `db:"user_id" json:"user_id"`
	AssignedBy string     `db:"assigned_by" json:"assigned_by"`
	DueDate    *time.Time `db:"due_date" json:"due_date,omitempty"`
	Completed  bool       `db:"completed" json:"completed"`
	AssignedAt time.Time  `db:"assigned_at" json:"assigned_at"`
}

// WorkoutFilter narrows workout listings.
type WorkoutFilter struct {
	CoachID  string
	Search   string
	Page     int
	PageSize int
}
