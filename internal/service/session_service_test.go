package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fitdesk/coach-ops-api/internal/models"
	"github.com/fitdesk/coach-ops-api/pkg/config"
)

type mockSessionRepo struct {
	sessions     map[string]*models.Session
	between      []models.Session
	betweenErr   error
	betweenCalls int
	attendance   map[string]models.AttendanceStatus
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{
		sessions:   make(map[string]*models.Session),
		attendance: make(map[string]models.AttendanceStatus),
	}
}

func (m *mockSessionRepo) List(ctx context.Context, filter models.SessionFilter) ([]models.Session, int, error) {
	var sessions []models.Session
	for _, s := range m.sessions {
		sessions = append(sessions, *s)
	}
	return sessions, len(sessions), nil
}

func (m *mockSessionRepo) ListBetween(ctx context.Context, from, to time.Time) ([]models.Session, error) {
	m.betweenCalls++
	if m.betweenErr != nil {
		return nil, m.betweenErr
	}
	return m.between, nil
}

func (m *mockSessionRepo) GetByID(ctx context.Context, id string) (*models.Session, error) {
	if session, ok := m.sessions[id]; ok {
		copy := *session
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSessionRepo) Create(ctx context.Context, session *models.Session) error {
	if session.ID == "" {
		session.ID = "generated"
	}
	copy := *session
	m.sessions[session.ID] = &copy
	return nil
}

func (m *mockSessionRepo) Update(ctx context.Context, session *models.Session) error {
	copy := *session
	m.sessions[session.ID] = &copy
	return nil
}

func (m *mockSessionRepo) Delete(ctx context.Context, id string) error {
	delete(m.sessions, id)
	return nil
}

func (m *mockSessionRepo) SetAttendance(ctx context.Context, sessionID, userID string, status models.AttendanceStatus) error {
	m.attendance[sessionID+":"+userID] = status
	return nil
}

func timelineConfig() config.TimelineConfig {
	return config.TimelineConfig{StartHour: 5, EndHour: 23, SlotHeightPx: 60, MinHeightPx: 20}
}

func day(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)
	return parsed
}

func TestSessionServiceCreateRejectsUnknownKind(t *testing.T) {
	svc := NewSessionService(newMockSessionRepo(), validator.New(), zap.NewNop(), timelineConfig())
	_, err := svc.Create(context.Background(), CreateSessionRequest{
		Title:   "HIIT",
		CoachID: "c1",
		Kind:    "bootcamp",
		StartAt: time.Now(),
	})
	require.Error(t, err)
}

func TestSessionServiceCreateToleratesInvertedEnd(t *testing.T) {
	repo := newMockSessionRepo()
	svc := NewSessionService(repo, validator.New(), zap.NewNop(), timelineConfig())
	start := day(t, "2024-01-01").Add(9 * time.Hour)
	end := start.Add(-30 * time.Minute)
	session, err := svc.Create(context.Background(), CreateSessionRequest{
		Title:   "HIIT",
		CoachID: "c1",
		Kind:    "group",
		StartAt: start,
		EndAt:   &end,
	})
	require.NoError(t, err)
	assert.Equal(t, start, session.EffectiveEnd())
}

func TestSessionServiceSetAttendance(t *testing.T) {
	repo := newMockSessionRepo()
	repo.sessions["s1"] = &models.Session{ID: "s1", Title: "Spin", Kind: models.SessionKindGroup}
	svc := NewSessionService(repo, validator.New(), zap.NewNop(), timelineConfig())

	require.NoError(t, svc.SetAttendance(context.Background(), "s1", "u1", "attending"))
	assert.Equal(t, models.AttendanceAttending, repo.attendance["s1:u1"])

	err := svc.SetAttendance(context.Background(), "s1", "u1", "maybe")
	require.Error(t, err)

	err = svc.SetAttendance(context.Background(), "missing", "u1", "attending")
	require.Error(t, err)
}

func TestDayTimelineBucketsAndGeometry(t *testing.T) {
	base := day(t, "2024-01-01")
	end := base.Add(10*time.Hour + 15*time.Minute)
	repo := newMockSessionRepo()
	repo.between = []models.Session{
		{ID: "a", Title: "Yoga", Kind: models.SessionKindGroup, StartAt: base.Add(9 * time.Hour)},
		{ID: "b", Title: "Row", Kind: models.SessionKindGroup, StartAt: base.Add(8*time.Hour + 45*time.Minute), EndAt: &end},
	}
	svc := NewSessionService(repo, validator.New(), zap.NewNop(), timelineConfig())

	resp, err := svc.DayTimeline(context.Background(), base)
	require.NoError(t, err)
	require.Len(t, resp.Slots, 19)
	assert.Equal(t, "2024-01-01", resp.Date)

	// 09:00 lands in the fifth slot of a 05:00 grid; 08:45 in the fourth.
	assert.Len(t, resp.Slots[4].Sessions, 1)
	assert.Equal(t, "a", resp.Slots[4].Sessions[0].ID)
	assert.Len(t, resp.Slots[3].Sessions, 1)
	assert.Equal(t, "b", resp.Slots[3].Sessions[0].ID)

	require.Len(t, resp.Positioned, 2)
	for _, p := range resp.Positioned {
		if p.ID == "b" {
			assert.InDelta(t, 225.0, p.Top, 0.001)
			assert.InDelta(t, 90.0, p.Height, 0.001)
		}
	}
}

func TestDayTimelineSplitsPastUpcoming(t *testing.T) {
	base := day(t, "2024-01-01")
	repo := newMockSessionRepo()
	repo.between = []models.Session{
		{ID: "early", Title: "Dawn", Kind: models.SessionKindGroup, StartAt: base.Add(6 * time.Hour)},
		{ID: "late", Title: "Dusk", Kind: models.SessionKindGroup, StartAt: base.Add(18 * time.Hour)},
	}
	svc := NewSessionService(repo, validator.New(), zap.NewNop(), timelineConfig())
	svc.now = func() time.Time { return base.Add(12 * time.Hour) }

	resp, err := svc.DayTimeline(context.Background(), base)
	require.NoError(t, err)
	require.Len(t, resp.Past, 1)
	assert.Equal(t, "early", resp.Past[0].ID)
	require.Len(t, resp.Upcoming, 1)
	assert.Equal(t, "late", resp.Upcoming[0].ID)
}

func TestDayTimelineExcludesOtherDays(t *testing.T) {
	base := day(t, "2024-01-01")
	repo := newMockSessionRepo()
	repo.between = []models.Session{
		{ID: "next", Title: "Tomorrow", Kind: models.SessionKindGroup, StartAt: base.Add(26 * time.Hour)},
	}
	svc := NewSessionService(repo, validator.New(), zap.NewNop(), timelineConfig())

	resp, err := svc.DayTimeline(context.Background(), base)
	require.NoError(t, err)
	for _, slot := range resp.Slots {
		assert.Empty(t, slot.Sessions)
	}
	assert.Empty(t, resp.Positioned)
}

func TestDayTimelinePersonalSessionLabel(t *testing.T) {
	base := day(t, "2024-01-01")
	repo := newMockSessionRepo()
	repo.between = []models.Session{
		{
			ID:      "p1",
			Title:   "PT",
			Kind:    models.SessionKindPersonal,
			StartAt: base.Add(9 * time.Hour),
			Attendance: []models.AttendanceEntry{
				{UserID: "u1", UserName: "Dana", Status: models.AttendanceAttending},
			},
		},
	}
	svc := NewSessionService(repo, validator.New(), zap.NewNop(), timelineConfig())

	resp, err := svc.DayTimeline(context.Background(), base)
	require.NoError(t, err)
	require.Len(t, resp.Slots[4].Sessions, 1)
	assert.Equal(t, "Dana", resp.Slots[4].Sessions[0].Label)
}
