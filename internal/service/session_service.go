package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fitdesk/coach-ops-api/internal/dto"
	"github.com/fitdesk/coach-ops-api/internal/models"
	"github.com/fitdesk/coach-ops-api/internal/timeline"
	"github.com/fitdesk/coach-ops-api/pkg/config"
	appErrors "github.com/fitdesk/coach-ops-api/pkg/errors"
)

type sessionRepository interface {
	List(ctx context.Context, filter models.SessionFilter) ([]models.Session, int, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]models.Session, error)
	GetByID(ctx context.Context, id string) (*models.Session, error)
	Create(ctx context.Context, session *models.Session) error
	Update(ctx context.Context, session *models.Session) error
	Delete(ctx context.Context, id string) error
	SetAttendance(ctx context.Context, sessionID, userID string, status models.AttendanceStatus) error
}

// SessionService manages coaching sessions and renders the day timeline.
type SessionService struct {
	repo      sessionRepository
	validator *validator.Validate
	logger    *zap.Logger
	cfg       config.TimelineConfig
	resolver  timeline.CollisionResolver
	now       func() time.Time
}

// NewSessionService constructs the service. The collision resolver defaults
// to identity; overlapping sessions are rendered as-is.
func NewSessionService(repo sessionRepository, validate *validator.Validate, logger *zap.Logger, cfg config.TimelineConfig) *SessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.StartHour == 0 && cfg.EndHour == 0 {
		cfg.StartHour = timeline.DefaultStartHour
		cfg.EndHour = timeline.DefaultEndHour
	}
	if cfg.SlotHeightPx <= 0 {
		cfg.SlotHeightPx = 60
	}
	if cfg.MinHeightPx <= 0 {
		cfg.MinHeightPx = 20
	}
	return &SessionService{
		repo:      repo,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		resolver:  timeline.IdentityResolver,
		now:       time.Now,
	}
}

// CreateSessionRequest describes the create payload.
type CreateSessionRequest struct {
	Title       string     `json:"title" validate:"required"`
	Description *string    `json:"description"`
	CoachID     string     `json:"coach_id" validate:"required"`
	Kind        string     `json:"kind" validate:"required"`
	StartAt     time.Time  `json:"start_at" validate:"required"`
	EndAt       *time.Time `json:"end_at"`
	Location    *string    `json:"location"`
}

// UpdateSessionRequest describes the update payload.
type UpdateSessionRequest struct {
	Title       string     `json:"title" validate:"required"`
	Description *string    `json:"description"`
	Kind        string     `json:"kind" validate:"required"`
	StartAt     time.Time  `json:"start_at" validate:"required"`
	EndAt       *time.Time `json:"end_at"`
	Location    *string    `json:"location"`
}

// SessionListRequest describes list filters.
type SessionListRequest struct {
	CoachID  string
	Kind     string
	DateFrom *time.Time
	DateTo   *time.Time
	Page     int
	PageSize int
}

// List returns sessions with pagination.
func (s *SessionService) List(ctx context.Context, req SessionListRequest) ([]models.Session, *models.Pagination, error) {
	filter := models.SessionFilter{
		CoachID:  req.CoachID,
		DateFrom: req.DateFrom,
		DateTo:   req.DateTo,
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}
	if req.Kind != "" {
		kind := models.SessionKind(req.Kind)
		if !kind.Valid() {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid session kind")
		}
		filter.Kind = &kind
	}
	sessions, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return sessions, pagination, nil
}

// Get returns a session by id.
func (s *SessionService) Get(ctx context.Context, id string) (*models.Session, error) {
	session, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get session")
	}
	return session, nil
}

// Create registers a new session. An end before the start is stored as given
// and normalised to zero duration on read, matching the tolerant interval
// semantics of the timeline.
func (s *SessionService) Create(ctx context.Context, req CreateSessionRequest) (*models.Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	kind := models.SessionKind(req.Kind)
	if !kind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "kind must be personal or group")
	}
	session := &models.Session{
		Title:       req.Title,
		Description: req.Description,
		CoachID:     req.CoachID,
		Kind:        kind,
		StartAt:     req.StartAt,
		EndAt:       req.EndAt,
		Location:    req.Location,
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session")
	}
	return session, nil
}

// Update modifies a session.
func (s *SessionService) Update(ctx context.Context, id string, req UpdateSessionRequest) (*models.Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	kind := models.SessionKind(req.Kind)
	if !kind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "kind must be personal or group")
	}
	session, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	session.Title = req.Title
	session.Description = req.Description
	session.Kind = kind
	session.StartAt = req.StartAt
	session.EndAt = req.EndAt
	session.Location = req.Location
	if err := s.repo.Update(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update session")
	}
	return session, nil
}

// Delete removes a session.
func (s *SessionService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete session")
	}
	return nil
}

// SetAttendance records a member RSVP.
func (s *SessionService) SetAttendance(ctx context.Context, sessionID, userID string, status string) error {
	parsed := models.AttendanceStatus(status)
	if !parsed.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "status must be attending, declined or pending")
	}
	if _, err := s.Get(ctx, sessionID); err != nil {
		return err
	}
	if err := s.repo.SetAttendance(ctx, sessionID, userID, parsed); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to set attendance")
	}
	return nil
}

// DayTimeline composes the render payload for one calendar day: the hour
// grid, per-slot session groups, continuous pixel geometry and the
// past/upcoming split. Everything is recomputed from source data on each
// call; nothing is cached or persisted.
func (s *SessionService) DayTimeline(ctx context.Context, day time.Time) (*dto.DayTimelineResponse, error) {
	bounds := timeline.DayBounds(day)
	candidates, err := s.repo.ListBetween(ctx, bounds.Start, bounds.End)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sessions")
	}

	// Same day-granularity predicate as challenge range queries.
	sessions := make([]models.Session, 0, len(candidates))
	for _, session := range candidates {
		interval := timeline.Interval{Start: session.StartAt, End: session.EffectiveEnd()}
		if timeline.DayOverlaps(interval, bounds) {
			sessions = append(sessions, session)
		}
	}

	grid := timeline.DayGrid(day, s.cfg.StartHour, s.cfg.EndHour)
	buckets := timeline.BucketSessions(sessions, grid)

	slots := make([]dto.SlotGroup, len(grid))
	for i, slot := range grid {
		group := dto.SlotGroup{Slot: slot}
		for _, session := range buckets[i] {
			group.Sessions = append(group.Sessions, summarize(session))
		}
		slots[i] = group
	}

	var positioned []dto.PositionedSessionView
	if len(grid) > 0 {
		raw := timeline.PositionAll(sessions, grid[0].Start, s.cfg.SlotHeightPx, s.cfg.MinHeightPx)
		raw = s.resolver(raw)
		positioned = make([]dto.PositionedSessionView, len(raw))
		for i, p := range raw {
			positioned[i] = dto.PositionedSessionView{
				SessionSummary: summarize(p.Session),
				Top:            p.Top,
				Height:         p.Height,
			}
		}
	}

	past, upcoming := timeline.SplitPastUpcoming(sessions, s.now())

	return &dto.DayTimelineResponse{
		Date:       day.Format("2006-01-02"),
		StartHour:  s.cfg.StartHour,
		EndHour:    s.cfg.EndHour,
		Slots:      slots,
		Positioned: positioned,
		Past:       summarizeAll(past),
		Upcoming:   summarizeAll(upcoming),
	}, nil
}

func summarize(session models.Session) dto.SessionSummary {
	return dto.SessionSummary{
		ID:             session.ID,
		Label:          session.DisplayLabel(),
		Kind:           session.Kind,
		StartAt:        session.StartAt.Format(time.RFC3339),
		EndAt:          session.EffectiveEnd().Format(time.RFC3339),
		AttendingCount: session.AttendingCount(),
	}
}

func summarizeAll(sessions []models.Session) []dto.SessionSummary {
	summaries := make([]dto.SessionSummary, 0, len(sessions))
	for _, session := range sessions {
		summaries = append(summaries, summarize(session))
	}
	return summaries
}
