package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fitdesk/coach-ops-api/internal/models"
)

// ChallengeRepository persists challenges and enrollments.
type ChallengeRepository struct {
	db *sqlx.DB
}

// NewChallengeRepository constructs a challenge repository.
func NewChallengeRepository(db *sqlx.DB) *ChallengeRepository {
	return &ChallengeRepository{db: db}
}

const challengeColumns = `id, name, description, start_date, end_date, created_by, created_at, updated_at`

// List returns challenges matching the filter. Date bounds use the closed
// day-granularity overlap rule: a challenge is included when its window
// touches any day of the requested range.
func (r *ChallengeRepository) List(ctx context.Context, filter models.ChallengeFilter) ([]models.Challenge, int, error) {
	base := "FROM challenges c"
	where := []string{"1=1"}
	args := []interface{}{}

	if filter.DateFrom != nil {
		where = append(where, fmt.Sprintf("c.end_date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		where = append(where, fmt.Sprintf("c.start_date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	if filter.UserID != "" {
		base += " JOIN challenge_enrollments ce ON ce.challenge_id = c.id"
		where = append(where, fmt.Sprintf("ce.user_id = $%d", len(args)+1))
		args = append(args, filter.UserID)
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

	const cols = `c.id, c.name, c.description, c.start_date, c.end_date, c.created_by, c.created_at, c.updated_at`
	query := fmt.Sprintf("SELECT %s %s WHERE %s ORDER BY c.start_date ASC LIMIT %d OFFSET %d",
		cols, base, whereClause, size, offset)
	var challenges []models.Challenge
	if err := r.db.SelectContext(ctx, &challenges, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list challenges: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count challenges: %w", err)
	}
	return challenges, total, nil
}

// GetByID fetches a challenge.
func (r *ChallengeRepository) GetByID(ctx context.Context, id string) (*models.Challenge, error) {
	query := fmt.Sprintf("SELECT %s FROM challenges WHERE id = $1", challengeColumns)
	var challenge models.Challenge
	if err := r.db.GetContext(ctx, &challenge, query, id); err != nil {
		return nil, err
	}
	return &challenge, nil
}

// Create inserts a challenge.
func (r *ChallengeRepository) Create(ctx context.Context, challenge *models.Challenge) error {
	if challenge.ID == "" {
		challenge.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if challenge.CreatedAt.IsZero() {
		challenge.CreatedAt = now
	}
	challenge.UpdatedAt = now
	const query = `INSERT INTO challenges (id, name, description, start_date, end_date, created_by, created_at, updated_at)
VALUES (:id, :name, :description, :start_date, :end_date, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, challenge); err != nil {
		return fmt.Errorf("create challenge: %w", err)
	}
	return nil
}

// Update modifies a challenge.
func (r *ChallengeRepository) Update(ctx context.Context, challenge *models.Challenge) error {
	challenge.UpdatedAt = time.Now().UTC()
	const query = `UPDATE challenges SET name = :name, description = :description,
start_date = :start_date, end_date = :end_date, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, challenge); err != nil {
		return fmt.Errorf("update challenge: %w", err)
	}
	return nil
}

// Delete removes a challenge and its enrollments.
func (r *ChallengeRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM challenge_enrollments WHERE challenge_id = $1", id); err != nil {
		return fmt.Errorf("delete challenge enrollments: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, "DELETE FROM challenges WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete challenge: %w", err)
	}
	return nil
}

// Enroll adds a member to a challenge.
func (r *ChallengeRepository) Enroll(ctx context.Context, enrollment *models.ChallengeEnrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.JoinedAt.IsZero() {
		enrollment.JoinedAt = time.Now().UTC()
	}
	const query = `INSERT INTO challenge_enrollments (id, challenge_id, user_id, joined_at)
VALUES (:id, :challenge_id, :user_id, :joined_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("enroll member: %w", err)
	}
	return nil
}

// Withdraw removes a member's enrollment. Returns the number of rows
// removed so the service can distinguish a no-op.
func (r *ChallengeRepository) Withdraw(ctx context.Context, challengeID, userID string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM challenge_enrollments WHERE challenge_id = $1 AND user_id = $2", challengeID, userID)
	if err != nil {
		return 0, fmt.Errorf("withdraw member: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("withdraw rows affected: %w", err)
	}
	return affected, nil
}

// ListEnrollments returns the enrollments for a challenge.
func (r *ChallengeRepository) ListEnrollments(ctx context.Context, challengeID string) ([]models.ChallengeEnrollment, error) {
	const query = `SELECT id, challenge_id, user_id, joined_at FROM challenge_enrollments
WHERE challenge_id = $1 ORDER BY joined_at ASC`
	var enrollments []models.ChallengeEnrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, challengeID); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return enrollments, nil
}

// IsEnrolled reports whether the member already joined the challenge.
func (r *ChallengeRepository) IsEnrolled(ctx context.Context, challengeID, userID string) (bool, error) {
	const query = `SELECT COUNT(*) FROM challenge_enrollments WHERE challenge_id = $1 AND user_id = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, challengeID, userID); err != nil {
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return count > 0, nil
}
