package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fitdesk/coach-ops-api/internal/models"
	"github.com/fitdesk/coach-ops-api/internal/timeline"
	appErrors "github.com/fitdesk/coach-ops-api/pkg/errors"
)

type challengeRepository interface {
	List(ctx context.Context, filter models.ChallengeFilter) ([]models.Challenge, int, error)
	GetByID(ctx context.Context, id string) (*models.Challenge, error)
	Create(ctx context.Context, challenge *models.Challenge) error
	Update(ctx context.Context, challenge *models.Challenge) error
	Delete(ctx context.Context, id string) error
	Enroll(ctx context.Context, enrollment *models.ChallengeEnrollment) error
	Withdraw(ctx context.Context, challengeID, userID string) (int64, error)
	ListEnrollments(ctx context.Context, challengeID string) ([]models.ChallengeEnrollment, error)
	IsEnrolled(ctx context.Context, challengeID, userID string) (bool, error)
}

// ChallengeService manages timed challenges and enrollment.
type ChallengeService struct {
	repo      challengeRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewChallengeService constructs the service.
func NewChallengeService(repo challengeRepository, validate *validator.Validate, logger *zap.Logger) *ChallengeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChallengeService{repo: repo, validator: validate, logger: logger}
}

// ChallengeListRequest describes list filters. From/To select challenges
// whose window overlaps the range at day granularity.
type ChallengeListRequest struct {
	From     *time.Time
	To       *time.Time
	UserID   string
	Page     int
	PageSize int
}

// CreateChallengeRequest describes the create payload.
type CreateChallengeRequest struct {
	Name        string    `json:"name" validate:"required"`
	Description *string   `json:"description"`
	StartDate   time.Time `json:"start_date" validate:"required"`
	EndDate     time.Time `json:"end_date" validate:"required"`
	CreatedBy   string    `json:"created_by" validate:"required"`
}

// UpdateChallengeRequest describes the update payload.
type UpdateChallengeRequest struct {
	Name        string    `json:"name" validate:"required"`
	Description *string   `json:"description"`
	StartDate   time.Time `json:"start_date" validate:"required"`
	EndDate     time.Time `json:"end_date" validate:"required"`
}

// List returns challenges overlapping the requested range. The repository
// applies the coarse SQL bounds; the day-granularity predicate shared with
// the timeline runs here so both call sites use identical semantics.
func (s *ChallengeService) List(ctx context.Context, req ChallengeListRequest) ([]models.Challenge, *models.Pagination, error) {
	filter := models.ChallengeFilter{
		UserID:   req.UserID,
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	// The SQL pre-filter compares instants, so widen each bound to its whole
	// day before querying; otherwise a challenge starting later in the day on
	// the range's last day never reaches the day-overlap pass below.
	if req.From != nil {
		from := timeline.StartOfDay(*req.From)
		filter.DateFrom = &from
	}
	if req.To != nil {
		to := timeline.EndOfDay(*req.To)
		filter.DateTo = &to
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}
	challenges, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list challenges")
	}
	if req.From != nil && req.To != nil {
		query := timeline.Interval{Start: *req.From, End: *req.To}
		filtered := challenges[:0]
		for _, challenge := range challenges {
			window := timeline.Interval{Start: challenge.StartDate, End: challenge.EndDate}
			if timeline.DayOverlaps(window, query) {
				filtered = append(filtered, challenge)
			}
		}
		challenges = filtered
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return challenges, pagination, nil
}

// ActiveToday returns challenges whose window includes the given day, using
// the same day-overlap predicate as range queries.
func (s *ChallengeService) ActiveToday(ctx context.Context, day time.Time) ([]models.Challenge, error) {
	bounds := timeline.DayBounds(day)
	challenges, _, err := s.List(ctx, ChallengeListRequest{From: &bounds.Start, To: &bounds.End, PageSize: 200})
	return challenges, err
}

// Get returns a challenge by id.
func (s *ChallengeService) Get(ctx context.Context, id string) (*models.Challenge, error) {
	challenge, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "challenge not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get challenge")
	}
	return challenge, nil
}

// Create registers a challenge.
func (s *ChallengeService) Create(ctx context.Context, req CreateChallengeRequest) (*models.Challenge, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if req.EndDate.Before(req.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_date must be on or after start_date")
	}
	challenge := &models.Challenge{
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		CreatedBy:   req.CreatedBy,
	}
	if err := s.repo.Create(ctx, challenge); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create challenge")
	}
	return challenge, nil
}

// Update modifies a challenge.
func (s *ChallengeService) Update(ctx context.Context, id string, req UpdateChallengeRequest) (*models.Challenge, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if req.EndDate.Before(req.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_date must be on or after start_date")
	}
	challenge, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	challenge.Name = req.Name
	challenge.Description = req.Description
	challenge.StartDate = req.StartDate
	challenge.EndDate = req.EndDate
	if err := s.repo.Update(ctx, challenge); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update challenge")
	}
	return challenge, nil
}

// Delete removes a challenge.
func (s *ChallengeService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete challenge")
	}
	return nil
}

// Enroll joins a member to a challenge.
func (s *ChallengeService) Enroll(ctx context.Context, challengeID, userID string) (*models.ChallengeEnrollment, error) {
	if _, err := s.Get(ctx, challengeID); err != nil {
		return nil, err
	}
	enrolled, err := s.repo.IsEnrolled(ctx, challengeID, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	if enrolled {
		return nil, appErrors.Clone(appErrors.ErrAlreadyEnrolled, "")
	}
	enrollment := &models.ChallengeEnrollment{ChallengeID: challengeID, UserID: userID}
	if err := s.repo.Enroll(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll")
	}
	return enrollment, nil
}

// Withdraw removes a member's enrollment.
func (s *ChallengeService) Withdraw(ctx context.Context, challengeID, userID string) error {
	affected, err := s.repo.Withdraw(ctx, challengeID, userID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to withdraw")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotEnrolled, "")
	}
	return nil
}

// Enrollments lists the members enrolled in a challenge.
func (s *ChallengeService) Enrollments(ctx context.Context, challengeID string) ([]models.ChallengeEnrollment, error) {
	if _, err := s.Get(ctx, challengeID); err != nil {
		return nil, err
	}
	enrollments, err := s.repo.ListEnrollments(ctx, challengeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, nil
}
