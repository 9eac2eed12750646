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

// SessionRepository persists coaching sessions and their attendance rows.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs a session repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, title, description, coach_id, kind, start_at, end_at, location, created_at, updated_at`

// List returns sessions matching the filter with a total count. Date bounds
// select on start_at; callers needing day-granularity overlap fetch a padded
// range and filter in the service layer.
func (r *SessionRepository) List(ctx context.Context, filter models.SessionFilter) ([]models.Session, int, error) {
	base := "FROM sessions"
	where := []string{"1=1"}
	args := []interface{}{}

	if filter.CoachID != "" {
		where = append(where, fmt.Sprintf("coach_id = $%d", len(args)+1))
		args = append(args, filter.CoachID)
	}
	if filter.Kind != nil {
		where = append(where, fmt.Sprintf("kind = $%d", len(args)+1))
		args = append(args, *filter.Kind)
	}
	if filter.DateFrom != nil {
		where = append(where, fmt.Sprintf("COALESCE(end_at, start_at + interval '60 minutes') >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		where = append(where, fmt.Sprintf("start_at <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
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

	query := fmt.Sprintf("SELECT %s %s WHERE %s ORDER BY start_at ASC LIMIT %d OFFSET %d",
		sessionColumns, base, whereClause, size, offset)
	var sessions []models.Session
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list sessions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count sessions: %w", err)
	}

	if err := r.attachAttendance(ctx, sessions); err != nil {
		return nil, 0, err
	}
	return sessions, total, nil
}

// ListBetween returns all sessions whose effective span touches the given
// instants, attendance included. Used by the timeline and analytics paths.
func (r *SessionRepository) ListBetween(ctx context.Context, from, to time.Time) ([]models.Session, error) {
	query := fmt.Sprintf(`SELECT %s FROM sessions
WHERE start_at <= $2 AND COALESCE(end_at, start_at + interval '60 minutes') >= $1
ORDER BY start_at ASC`, sessionColumns)
	var sessions []models.Session
	if err := r.db.SelectContext(ctx, &sessions, query, from, to); err != nil {
		return nil, fmt.Errorf("list sessions between: %w", err)
	}
	if err := r.attachAttendance(ctx, sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// GetByID fetches a session with its attendance entries.
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*models.Session, error) {
	query := fmt.Sprintf("SELECT %s FROM sessions WHERE id = $1", sessionColumns)
	var session models.Session
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	entries, err := r.listAttendance(ctx, id)
	if err != nil {
		return nil, err
	}
	session.Attendance = entries
	return &session, nil
}

// Create inserts a session.
func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now
	const query = `INSERT INTO sessions (id, title, description, coach_id, kind, start_at, end_at, location, created_at, updated_at)
VALUES (:id, :title, :description, :coach_id, :kind, :start_at, :end_at, :location, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// Update modifies a session's mutable fields.
func (r *SessionRepository) Update(ctx context.Context, session *models.Session) error {
	session.UpdatedAt = time.Now().UTC()
	const query = `UPDATE sessions SET title = :title, description = :description, kind = :kind,
start_at = :start_at, end_at = :end_at, location = :location, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

// Delete removes a session and its attendance rows.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM session_attendance WHERE session_id = $1", id); err != nil {
		return fmt.Errorf("delete session attendance: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// SetAttendance upserts a member's RSVP on a session.
func (r *SessionRepository) SetAttendance(ctx context.Context, sessionID, userID string, status models.AttendanceStatus) error {
	const query = `INSERT INTO session_attendance (session_id, user_id, status, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (session_id, user_id) DO UPDATE SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, sessionID, userID, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("set attendance: %w", err)
	}
	return nil
}

func (r *SessionRepository) listAttendance(ctx context.Context, sessionID string) ([]models.AttendanceEntry, error) {
	const query = `SELECT sa.user_id, u.full_name AS user_name, sa.status
FROM session_attendance sa
JOIN users u ON u.id = sa.user_id
WHERE sa.session_id = $1
ORDER BY u.full_name ASC`
	var entries []models.AttendanceEntry
	if err := r.db.SelectContext(ctx, &entries, query, sessionID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return entries, nil
}

type attendanceRow struct {
	SessionID string                  `db:"session_id"`
	UserID    string                  `db:"user_id"`
	UserName  string                  `db:"user_name"`
	Status    models.AttendanceStatus `db:"status"`
}

// attachAttendance loads attendance for a batch of sessions in one query.
func (r *SessionRepository) attachAttendance(ctx context.Context, sessions []models.Session) error {
	if len(sessions) == 0 {
		return nil
	}
	ids := make([]string, len(sessions))
	for i, session := range sessions {
		ids[i] = session.ID
	}
	query, args, err := sqlx.In(`SELECT sa.session_id, sa.user_id, u.full_name AS user_name, sa.status
FROM session_attendance sa
JOIN users u ON u.id = sa.user_id
WHERE sa.session_id IN (?)
ORDER BY u.full_name ASC`, ids)
	if err != nil {
		return fmt.Errorf("build attendance query: %w", err)
	}
	query = r.db.Rebind(query)

	var rows []attendanceRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return fmt.Errorf("batch attendance: %w", err)
	}

	grouped := make(map[string][]models.AttendanceEntry, len(sessions))
	for _, row := range rows {
		grouped[row.SessionID] = append(grouped[row.SessionID], models.AttendanceEntry{
			UserID:   row.UserID,
			UserName: row.UserName,
			Status:   row.Status,
		})
	}
	for i := range sessions {
		sessions[i].Attendance = grouped[sessions[i].ID]
	}
	return nil
}
