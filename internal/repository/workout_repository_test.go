package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitdesk/coach-ops-api/internal/models"
)

func TestWorkoutRepositoryAssignDefaults(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewWorkoutRepository(db)

	mock.ExpectExec("INSERT INTO workout_assignments").WillReturnResult(sqlmock.NewResult(1, 1))

	assignment := &models.WorkoutAssignment{WorkoutID: "w-1", UserID: "u1", AssignedBy: "coach-1"}
	err := repo.Assign(context.Background(), assignment)
	require.NoError(t, err)
	assert.NotEmpty(t, assignment.ID)
	assert.False(t, assignment.AssignedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkoutRepositoryListAssignmentsByUser(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewWorkoutRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "workout_id", "user_id", "assigned_by", "due_date", "completed", "assigned_at"}).
		AddRow("a-1", "w-1", "u1", "coach-1", nil, false, now)
	mock.ExpectQuery("SELECT id, workout_id, user_id, assigned_by, due_date, completed, assigned_at").
		WithArgs("u1").
		WillReturnRows(rows)

	assignments, err := repo.ListAssignmentsByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, "w-1", assignments[0].WorkoutID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
