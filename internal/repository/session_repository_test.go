package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitdesk/coach-ops-api/internal/models"
)

func TestSessionRepositoryGetByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	now := time.Now()
	end := now.Add(time.Hour)
	sessionRows := sqlmock.NewRows([]string{"id", "title", "description", "coach_id", "kind", "start_at", "end_at", "location", "created_at", "updated_at"}).
		AddRow("sess-1", "Morning HIIT", nil, "coach-1", string(models.SessionKindGroup), now, end, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title, description, coach_id, kind, start_at, end_at, location, created_at, updated_at FROM sessions WHERE id = $1")).
		WithArgs("sess-1").
		WillReturnRows(sessionRows)

	attendanceRows := sqlmock.NewRows([]string{"user_id", "user_name", "status"}).
		AddRow("u1", "Ada", string(models.AttendanceAttending)).
		AddRow("u2", "Ben", string(models.AttendanceDeclined))
	mock.ExpectQuery("SELECT sa.user_id, u.full_name AS user_name, sa.status").
		WithArgs("sess-1").
		WillReturnRows(attendanceRows)

	session, err := repo.GetByID(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "Morning HIIT", session.Title)
	require.Len(t, session.Attendance, 2)
	assert.Equal(t, 1, session.AttendingCount())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryListBetweenAttachesAttendance(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	from := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.January, 1, 23, 59, 59, 0, time.UTC)
	start := from.Add(9 * time.Hour)
	end := start.Add(time.Hour)

	sessionRows := sqlmock.NewRows([]string{"id", "title", "description", "coach_id", "kind", "start_at", "end_at", "location", "created_at", "updated_at"}).
		AddRow("sess-1", "Spin", nil, "coach-1", string(models.SessionKindGroup), start, end, nil, start, start)
	mock.ExpectQuery("SELECT id, title, description, coach_id, kind, start_at, end_at, location, created_at, updated_at FROM sessions").
		WithArgs(from, to).
		WillReturnRows(sessionRows)

	attendanceRows := sqlmock.NewRows([]string{"session_id", "user_id", "user_name", "status"}).
		AddRow("sess-1", "u1", "Ada", string(models.AttendanceAttending))
	mock.ExpectQuery("SELECT sa.session_id, sa.user_id, u.full_name AS user_name, sa.status").
		WithArgs("sess-1").
		WillReturnRows(attendanceRows)

	sessions, err := repo.ListBetween(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.Len(t, sessions[0].Attendance, 1)
	assert.Equal(t, "Ada", sessions[0].Attendance[0].UserName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectExec("INSERT INTO sessions").WillReturnResult(sqlmock.NewResult(1, 1))

	session := &models.Session{
		Title:   "1:1 Strength",
		CoachID: "coach-1",
		Kind:    models.SessionKindPersonal,
		StartAt: time.Now(),
	}
	err := repo.Create(context.Background(), session)
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositorySetAttendanceUpserts(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectExec("INSERT INTO session_attendance").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SetAttendance(context.Background(), "sess-1", "u1", models.AttendanceAttending)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryDeleteRemovesAttendanceFirst(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM session_attendance WHERE session_id = $1")).
		WithArgs("sess-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions WHERE id = $1")).
		WithArgs("sess-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Delete(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
