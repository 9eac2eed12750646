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
	appErrors "github.com/fitdesk/coach-ops-api/pkg/errors"
)

type mockChallengeRepo struct {
	challenges  map[string]*models.Challenge
	enrollments map[string][]models.ChallengeEnrollment
	listResult  []models.Challenge
	// lastFilter records what the service asked the store for.
	lastFilter models.ChallengeFilter
}

func newMockChallengeRepo() *mockChallengeRepo {
	return &mockChallengeRepo{
		challenges:  make(map[string]*models.Challenge),
		enrollments: make(map[string][]models.ChallengeEnrollment),
	}
}

// List mirrors the SQL store's instant-granular pre-filter
// (end_date >= DateFrom, start_date <= DateTo) so service tests see the
// same rows a real query would return.
func (m *mockChallengeRepo) List(ctx context.Context, filter models.ChallengeFilter) ([]models.Challenge, int, error) {
	m.lastFilter = filter
	source := m.listResult
	if source == nil {
		for _, c := range m.challenges {
			source = append(source, *c)
		}
	}
	var challenges []models.Challenge
	for _, c := range source {
		if filter.DateFrom != nil && c.EndDate.Before(*filter.DateFrom) {
			continue
		}
		if filter.DateTo != nil && c.StartDate.After(*filter.DateTo) {
			continue
		}
		challenges = append(challenges, c)
	}
	return challenges, len(challenges), nil
}

func (m *mockChallengeRepo) GetByID(ctx context.Context, id string) (*models.Challenge, error) {
	if challenge, ok := m.challenges[id]; ok {
		copy := *challenge
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockChallengeRepo) Create(ctx context.Context, challenge *models.Challenge) error {
	if challenge.ID == "" {
		challenge.ID = "generated"
	}
	copy := *challenge
	m.challenges[challenge.ID] = &copy
	return nil
}

func (m *mockChallengeRepo) Update(ctx context.Context, challenge *models.Challenge) error {
	copy := *challenge
	m.challenges[challenge.ID] = &copy
	return nil
}

func (m *mockChallengeRepo) Delete(ctx context.Context, id string) error {
	delete(m.challenges, id)
	return nil
}

func (m *mockChallengeRepo) Enroll(ctx context.Context, enrollment *models.ChallengeEnrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = "e-generated"
	}
	m.enrollments[enrollment.ChallengeID] = append(m.enrollments[enrollment.ChallengeID], *enrollment)
	return nil
}

func (m *mockChallengeRepo) Withdraw(ctx context.Context, challengeID, userID string) (int64, error) {
	entries := m.enrollments[challengeID]
	for i, e := range entries {
		if e.UserID == userID {
			m.enrollments[challengeID] = append(entries[:i], entries[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (m *mockChallengeRepo) ListEnrollments(ctx context.Context, challengeID string) ([]models.ChallengeEnrollment, error) {
	return m.enrollments[challengeID], nil
}

func (m *mockChallengeRepo) IsEnrolled(ctx context.Context, challengeID, userID string) (bool, error) {
	for _, e := range m.enrollments[challengeID] {
		if e.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func challengeSpanning(id, from, to string, t *testing.T) models.Challenge {
	t.Helper()
	start, err := time.Parse("2006-01-02", from)
	require.NoError(t, err)
	end, err := time.Parse("2006-01-02", to)
	require.NoError(t, err)
	return models.Challenge{ID: id, Name: id, StartDate: start, EndDate: end, CreatedBy: "c1"}
}

func TestChallengeListFiltersByDayOverlap(t *testing.T) {
	repo := newMockChallengeRepo()
	repo.listResult = []models.Challenge{
		challengeSpanning("in", "2024-01-01", "2024-01-10", t),
		challengeSpanning("edge", "2023-12-20", "2024-01-05", t),
		challengeSpanning("out", "2024-02-01", "2024-02-10", t),
	}
	svc := NewChallengeService(repo, validator.New(), zap.NewNop())

	from := time.Date(2024, time.January, 5, 12, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.January, 7, 12, 0, 0, 0, time.UTC)
	challenges, _, err := svc.List(context.Background(), ChallengeListRequest{From: &from, To: &to})
	require.NoError(t, err)

	var ids []string
	for _, c := range challenges {
		ids = append(ids, c.ID)
	}
	assert.ElementsMatch(t, []string{"in", "edge"}, ids)
}

func TestChallengeListIncludesBoundaryDayWithTimeOfDay(t *testing.T) {
	repo := newMockChallengeRepo()
	repo.listResult = []models.Challenge{
		{
			ID:        "finale",
			Name:      "finale",
			StartDate: time.Date(2024, time.January, 7, 15, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2024, time.January, 7, 18, 0, 0, 0, time.UTC),
			CreatedBy: "c1",
		},
	}
	svc := NewChallengeService(repo, validator.New(), zap.NewNop())

	// Midnight instants, the way the handler parses ?from and ?to.
	from := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.January, 7, 0, 0, 0, 0, time.UTC)
	challenges, _, err := svc.List(context.Background(), ChallengeListRequest{From: &from, To: &to})
	require.NoError(t, err)

	require.Len(t, challenges, 1)
	assert.Equal(t, "finale", challenges[0].ID)

	// The store must be queried with whole-day bounds, not raw instants.
	require.NotNil(t, repo.lastFilter.DateFrom)
	require.NotNil(t, repo.lastFilter.DateTo)
	assert.True(t, repo.lastFilter.DateTo.After(to))
}

func TestChallengeListOpenEndedBoundIsDayGranular(t *testing.T) {
	repo := newMockChallengeRepo()
	repo.listResult = []models.Challenge{
		challengeSpanning("early", "2024-01-01", "2024-01-03", t),
		{
			ID:        "lateday",
			Name:      "lateday",
			StartDate: time.Date(2024, time.January, 7, 15, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2024, time.January, 7, 18, 0, 0, 0, time.UTC),
			CreatedBy: "c1",
		},
	}
	svc := NewChallengeService(repo, validator.New(), zap.NewNop())

	// Only ?to is set; there is no in-memory pass, so the store bound alone
	// must capture everything up to the end of Jan 7.
	to := time.Date(2024, time.January, 7, 0, 0, 0, 0, time.UTC)
	challenges, _, err := svc.List(context.Background(), ChallengeListRequest{To: &to})
	require.NoError(t, err)

	var ids []string
	for _, c := range challenges {
		ids = append(ids, c.ID)
	}
	assert.ElementsMatch(t, []string{"early", "lateday"}, ids)
}

func TestChallengeCreateRejectsInvertedWindow(t *testing.T) {
	svc := NewChallengeService(newMockChallengeRepo(), validator.New(), zap.NewNop())
	_, err := svc.Create(context.Background(), CreateChallengeRequest{
		Name:      "Winter Burn",
		StartDate: time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		CreatedBy: "c1",
	})
	require.Error(t, err)
}

func TestChallengeEnrollTwiceConflicts(t *testing.T) {
	repo := newMockChallengeRepo()
	repo.challenges["ch1"] = &models.Challenge{ID: "ch1", Name: "Steps"}
	svc := NewChallengeService(repo, validator.New(), zap.NewNop())

	_, err := svc.Enroll(context.Background(), "ch1", "u1")
	require.NoError(t, err)

	_, err = svc.Enroll(context.Background(), "ch1", "u1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadyEnrolled.Code, appErrors.FromError(err).Code)
}

func TestChallengeWithdrawWithoutEnrollment(t *testing.T) {
	repo := newMockChallengeRepo()
	repo.challenges["ch1"] = &models.Challenge{ID: "ch1", Name: "Steps"}
	svc := NewChallengeService(repo, validator.New(), zap.NewNop())

	err := svc.Withdraw(context.Background(), "ch1", "u1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotEnrolled.Code, appErrors.FromError(err).Code)
}

func TestChallengeEnrollUnknownChallenge(t *testing.T) {
	svc := NewChallengeService(newMockChallengeRepo(), validator.New(), zap.NewNop())
	_, err := svc.Enroll(context.Background(), "missing", "u1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
