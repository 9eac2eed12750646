package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fitdesk/coach-ops-api/internal/models"
	appErrors "github.com/fitdesk/coach-ops-api/pkg/errors"
)

type workoutRepository interface {
	List(ctx context.Context, filter models.WorkoutFilter) ([]models.Workout, int, error)
	GetByID(ctx context.Context, id string) (*models.Workout, error)
	Create(ctx context.Context, workout *models.Workout) error
	Update(ctx context.Context, workout *models.Workout) error
	Delete(ctx context.Context, id string) error
	Assign(ctx context.Context, assignment *models.WorkoutAssignment) error
	ListAssignmentsByUser(ctx context.Context, userID string) ([]models.WorkoutAssignment, error)
	MarkCompleted(ctx context.Context, assignmentID string) error
}

// WorkoutService manages workout templates and member assignments.
type WorkoutService struct {
	repo      workoutRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewWorkoutService constructs the service.
func NewWorkoutService(repo workoutRepository, validate *validator.Validate, logger *zap.Logger) *WorkoutService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkoutService{repo: repo, validator: validate, logger: logger}
}

// CreateWorkoutRequest describes the create payload.
type CreateWorkoutRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description"`
	CoachID     string  `json:"coach_id" validate:"required"`
}

// UpdateWorkoutRequest describes the update payload.
type UpdateWorkoutRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description"`
}

// AssignWorkoutRequest hands a workout to a member.
type AssignWorkoutRequest struct {
	WorkoutID  string     `json:"workout_id" validate:"required"`
	UserID     string     `json:"user_id" validate:"required"`
	AssignedBy string     `json:"assigned_by" validate:"required"`
	DueDate    *time.Time `json:"due_date"`
}

// List returns workouts matching the filter.
func (s *WorkoutService) List(ctx context.Context, filter models.WorkoutFilter) ([]models.Workout, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}
	workouts, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list workouts")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return workouts, pagination, nil
}

// Get returns a workout by id.
func (s *WorkoutService) Get(ctx context.Context, id string) (*models.Workout, error) {
	workout, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "workout not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get workout")
	}
	return workout, nil
}

// Create persists a new workout template.
func (s *WorkoutService) Create(ctx context.Context, req CreateWorkoutRequest) (*models.Workout, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	workout := &models.Workout{
		Name:        req.Name,
		Description: req.Description,
		CoachID:     req.CoachID,
	}
	if err := s.repo.Create(ctx, workout); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create workout")
	}
	s.logger.Info("workout created", zap.String("workout_id", workout.ID), zap.String("coach_id", workout.CoachID))
	return workout, nil
}

// Update modifies an existing workout.
func (s *WorkoutService) Update(ctx context.Context, id string, req UpdateWorkoutRequest) (*models.Workout, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	workout, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	workout.Name = req.Name
	workout.Description = req.Description
	if err := s.repo.Update(ctx, workout); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update workout")
	}
	return workout, nil
}

// Delete removes a workout template.
func (s *WorkoutService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete workout")
	}
	return nil
}

// Assign hands a workout to a member.
func (s *WorkoutService) Assign(ctx context.Context, req AssignWorkoutRequest) (*models.WorkoutAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if _, err := s.Get(ctx, req.WorkoutID); err != nil {
		return nil, err
	}
	assignment := &models.WorkoutAssignment{
		WorkoutID:  req.WorkoutID,
		UserID:     req.UserID,
		AssignedBy: req.AssignedBy,
		DueDate:    req.DueDate,
	}
	if err := s.repo.Assign(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign workout")
	}
	s.logger.Info("workout assigned",
		zap.String("workout_id", assignment.WorkoutID),
		zap.String("user_id", assignment.UserID))
	return assignment, nil
}

// AssignmentsForUser lists a member's workout assignments.
func (s *WorkoutService) AssignmentsForUser(ctx context.Context, userID string) ([]models.WorkoutAssignment, error) {
	assignments, err := s.repo.ListAssignmentsByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, nil
}

// Complete marks an assignment as done.
func (s *WorkoutService) Complete(ctx context.Context, assignmentID string) error {
	if err := s.repo.MarkCompleted(ctx, assignmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to complete assignment")
	}
	return nil
}
