package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fitdesk/coach-ops-api/internal/models"
)

// WorkoutRepository persists workout templates and assignments.
type WorkoutRepository struct {
	db *sqlx.DB
}

// NewWorkoutRepository constructs a workout repository.
func NewWorkoutRepository(db *sqlx.DB) *WorkoutRepository {
	return &WorkoutRepository{db: db}
}

const workoutColumns = `id, name, description, coach_id, created_at, updated_at`

// List returns workouts matching the filter.
func (r *WorkoutRepository) List(ctx context.Context, filter models.WorkoutFilter) ([]models.Workout, int, error) {
	base := "FROM workouts"
	where := []string{"1=1"}
	args := []interface{}{}

	if filter.CoachID != "" {
		where = append(where, fmt.Sprintf("coach_id = $%d", len(args)+1))
		args = append(args, filter.CoachID)
	}
	if filter.Search != "" {
		where = append(where, fmt.Sprintf("LOWER(name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s WHERE %s ORDER BY name ASC LIMIT %d OFFSET %d",
		workoutColumns, base, whereClause, size, offset)
	var workouts []models.Workout
	if err := r.db.SelectContext(ctx, &workouts, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list workouts: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count workouts: %w", err)
	}
	return workouts, total, nil
}

// GetByID fetches a workout.
func (r *WorkoutRepository) GetByID(ctx context.Context, id string) (*models.Workout, error) {
	query := fmt.Sprintf("SELECT %s FROM workouts WHERE id = $1", workoutColumns)
	var workout models.Workout
	if err := r.db.GetContext(ctx, &workout, query, id); err != nil {
		return nil, err
	}
	return &workout, nil
}

// Create inserts a workout.
func (r *WorkoutRepository) Create(ctx context.Context, workout *models.Workout) error {
	if workout.ID == "" {
		workout.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if workout.CreatedAt.IsZero() {
		workout.CreatedAt = now
	}
	workout.UpdatedAt = now
	const query = `INSERT INTO workouts (id, name, description, coach_id, created_at, updated_at)
VALUES (:id, :name, :description, :coach_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, workout); err != nil {
		return fmt.Errorf("create workout: %w", err)
	}
	return nil
}

// Update modifies a workout.
func (r *WorkoutRepository) Update(ctx context.Context, workout *models.Workout) error {
	workout.UpdatedAt = time.Now().UTC()
	const query = `UPDATE workouts SET name = :name, description = :description, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, workout); err != nil {
		return fmt.Errorf("update workout: %w", err)
	}
	return nil
}

// Delete removes a workout and its assignments.
func (r *WorkoutRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM workout_assignments WHERE workout_id = $1", id); err != nil {
		return fmt.Errorf("delete workout assignments: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, "DELETE FROM workouts WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete workout: %w", err)
	}
	return nil
}

// Assign hands a workout to a member.
func (r *WorkoutRepository) Assign(ctx context.Context, assignment *models.WorkoutAssignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	if assignment.AssignedAt.IsZero() {
		assignment.AssignedAt = time.Now().UTC()
	}
	const query = `INSERT INTO workout_assignments (id, workout_id, user_id, assigned_by, due_date, completed, assigned_at)
VALUES (:id, :workout_id, :user_id, :assigned_by, :due_date, :completed, :assigned_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("assign workout: %w", err)
	}
	return nil
}

// ListAssignmentsByUser returns a member's workout assignments.
func (r *WorkoutRepository) ListAssignmentsByUser(ctx context.Context, userID string) ([]models.WorkoutAssignment, error) {
	const query = `SELECT id, workout_id, user_id, assigned_by, due_date, completed, assigned_at
FROM workout_assignments WHERE user_id = $1 ORDER BY assigned_at DESC`
	var assignments []models.WorkoutAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, userID); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return assignments, nil
}

// MarkCompleted flags an assignment as done.
func (r *WorkoutRepository) MarkCompleted(ctx context.Context, assignmentID string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE workout_assignments SET completed = TRUE WHERE id = $1", assignmentID)
	if err != nil {
		return fmt.Errorf("complete assignment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("complete assignment: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
