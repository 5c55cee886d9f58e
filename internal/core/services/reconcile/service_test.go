package reconcile

import (
	"PropDesk/internal/core/domain"
	"PropDesk/internal/core/ports"
	"PropDesk/internal/shared/validation"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

type MockProfileRepository struct {
	mock.Mock
}

var _ ports.ProfileRepository = (*MockProfileRepository)(nil)

func (m *MockProfileRepository) List(ctx context.Context, filter domain.Filter) ([]domain.UserProfile, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.UserProfile), args.Error(1)
}

type MockChallengeRepository struct {
	mock.Mock
}

var _ ports.ChallengeRepository = (*MockChallengeRepository)(nil)

func (m *MockChallengeRepository) List(ctx context.Context, filter domain.Filter) ([]domain.Challenge, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Challenge), args.Error(1)
}

func (m *MockChallengeRepository) GetByID(ctx context.Context, id string) (*domain.Challenge, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Challenge), args.Error(1)
}

func (m *MockChallengeRepository) Update(ctx context.Context, c *domain.Challenge) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockChallengeRepository) Pass(ctx context.Context, passed, next *domain.Challenge) error {
	return m.Called(ctx, passed, next).Error(0)
}

type MockAuthDirectory struct {
	mock.Mock
}

func (m *MockAuthDirectory) ListUsers(ctx context.Context, filter domain.Filter) ([]domain.AuthUser, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AuthUser), args.Error(1)
}

// panicProfiles simulates an adapter bug.
type panicProfiles struct{}

func (panicProfiles) List(context.Context, domain.Filter) ([]domain.UserProfile, error) {
	panic("boom")
}

// slowChallenges blocks until its context expires.
type slowChallenges struct {
	MockChallengeRepository
}

func (s *slowChallenges) List(ctx context.Context, _ domain.Filter) ([]domain.Challenge, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// --- Helpers ---

func newSource(name domain.Source, profiles []domain.UserProfile, challenges []domain.Challenge) *ports.Source {
	p := new(MockProfileRepository)
	p.On("List", mock.Anything, mock.Anything).Return(profiles, nil)
	c := new(MockChallengeRepository)
	c.On("List", mock.Anything, mock.Anything).Return(challenges, nil)
	return &ports.Source{Name: name, Profiles: p, Challenges: c}
}

func newFailingSource(name domain.Source, err error) *ports.Source {
	p := new(MockProfileRepository)
	p.On("List", mock.Anything, mock.Anything).Return(nil, err)
	c := new(MockChallengeRepository)
	c.On("List", mock.Anything, mock.Anything).Return(nil, err)
	return &ports.Source{Name: name, Profiles: p, Challenges: c}
}

func newTestService(sources ports.SourceSet, auth ports.AuthDirectory, timeout time.Duration) *Service {
	nopLogger := zerolog.Nop()
	return NewService(sources, auth, Config{FetchTimeout: timeout}, nil, &nopLogger)
}

func provisioned(id, user string) domain.Challenge {
	login := "login-" + id
	return domain.Challenge{
		ID:               id,
		UserID:           user,
		Status:           domain.StatusActive,
		TradingAccountID: &login,
		ContractSigned:   true,
		CredentialsSent:  true,
	}
}

// --- Tests ---

func TestService_ForAdmin_FailureIsolation(t *testing.T) {
	primaryProfiles := []domain.UserProfile{{UserID: "u1", Email: "a@x.com"}}
	oldProfiles := []domain.UserProfile{{UserID: "u2", Email: "old@x.com"}}
	primaryRows := []domain.Challenge{provisioned("p1", "u1")}
	oldRows := []domain.Challenge{provisioned("o1", "u2")}

	healthy := newTestService(ports.SourceSet{
		newSource(domain.SourcePrimary, primaryProfiles, primaryRows),
		newSource(domain.SourceOld, oldProfiles, oldRows),
	}, nil, time.Second)
	degraded := newTestService(ports.SourceSet{
		newSource(domain.SourcePrimary, primaryProfiles, primaryRows),
		newFailingSource(domain.SourceBolt, errors.New("connection refused")),
		newSource(domain.SourceOld, oldProfiles, oldRows),
	}, nil, time.Second)

	want, err := healthy.ForAdmin(context.Background())
	require.NoError(t, err)
	got, err := degraded.ForAdmin(context.Background())
	require.NoError(t, err)

	assert.Equal(t, want.Accounts, got.Accounts)
	assert.Equal(t, want.Pending, got.Pending)
	assert.Equal(t, want.Profiles, got.Profiles)
	assert.True(t, got.Report.Degraded())
	require.Error(t, got.Report.Err())
	assert.Contains(t, got.Report.Err().Error(), "BOLT")
}

func TestService_ForAdmin_NilAndPanickingSources(t *testing.T) {
	challenges := new(MockChallengeRepository)
	challenges.On("List", mock.Anything, mock.Anything).Return([]domain.Challenge{provisioned("b1", "u1")}, nil)

	svc := newTestService(ports.SourceSet{
		newSource(domain.SourcePrimary, []domain.UserProfile{{UserID: "u1", Email: "a@x.com"}}, nil),
		{Name: domain.SourceBolt, Profiles: panicProfiles{}, Challenges: challenges},
		nil,
		{Name: domain.SourceOld},
	}, nil, time.Second)

	res, err := svc.ForAdmin(context.Background())
	require.NoError(t, err)

	// BOLT's challenges still count; its panicking profile query does not.
	require.Len(t, res.Accounts, 1)
	assert.Equal(t, domain.SourceBolt, res.Accounts[0].DBSource)
	assert.Equal(t, "a@x.com", res.Accounts[0].UserEmail)

	require.Len(t, res.Report.Sources, 4)
	assert.Error(t, res.Report.Sources[1].Err)
	assert.False(t, res.Report.Sources[2].Available)
	assert.False(t, res.Report.Sources[3].Available)
	assert.NoError(t, res.Report.Sources[3].Err)
}

func TestService_ForAdmin_SlowSourceTimesOut(t *testing.T) {
	slow := &slowChallenges{}
	profiles := new(MockProfileRepository)
	profiles.On("List", mock.Anything, mock.Anything).Return([]domain.UserProfile{}, nil)

	svc := newTestService(ports.SourceSet{
		newSource(domain.SourcePrimary, nil, []domain.Challenge{provisioned("p1", "u1")}),
		{Name: domain.SourceBolt, Profiles: profiles, Challenges: slow},
	}, nil, 50*time.Millisecond)

	start := time.Now()
	res, err := svc.ForAdmin(context.Background())
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 2*time.Second)
	require.Len(t, res.Accounts, 1)
	assert.ErrorIs(t, res.Report.Sources[1].Err, context.DeadlineExceeded)
}

func TestService_ForAdmin_AuthFallbackAndAuthFailure(t *testing.T) {
	auth := new(MockAuthDirectory)
	auth.On("ListUsers", mock.Anything, domain.Filter{}).
		Return([]domain.AuthUser{{ID: "u2", Email: "c@x.com"}}, nil)

	svc := newTestService(ports.SourceSet{
		newSource(domain.SourcePrimary, nil, []domain.Challenge{provisioned("p1", "u2")}),
	}, auth, time.Second)

	res, err := svc.ForAdmin(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Accounts, 1)
	assert.Equal(t, "c@x.com", res.Accounts[0].UserEmail)
	assert.Zero(t, res.Report.Unresolved)

	failing := new(MockAuthDirectory)
	failing.On("ListUsers", mock.Anything, mock.Anything).Return(nil, errors.New("forbidden"))
	svc = newTestService(ports.SourceSet{
		newSource(domain.SourcePrimary, nil, []domain.Challenge{provisioned("p1", "u2")}),
	}, failing, time.Second)

	res, err = svc.ForAdmin(context.Background())
	require.NoError(t, err)
	assert.Equal(t, UnknownName, res.Accounts[0].UserName)
	assert.Equal(t, 1, res.Report.Unresolved)
	assert.Error(t, res.Report.AuthErr)
}

func TestService_ForUser_FiltersRows(t *testing.T) {
	profiles := new(MockProfileRepository)
	profiles.On("List", mock.Anything, domain.Filter{UserID: "u1"}).
		Return([]domain.UserProfile{{UserID: "u1", Email: "a@x.com"}}, nil).Once()
	challenges := new(MockChallengeRepository)
	// This source ignores the filter and returns another user's row too.
	challenges.On("List", mock.Anything, domain.Filter{UserID: "u1"}).
		Return([]domain.Challenge{provisioned("mine", "u1"), provisioned("theirs", "u2")}, nil).Once()

	svc := newTestService(ports.SourceSet{
		{Name: domain.SourcePrimary, Profiles: profiles, Challenges: challenges},
	}, nil, time.Second)

	res, err := svc.ForUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, res.Accounts, 1)
	assert.Equal(t, "mine", res.Accounts[0].ID)
	assert.Len(t, res.Active(), 1)
	assert.Empty(t, res.Breached())
	profiles.AssertExpectations(t)
	challenges.AssertExpectations(t)

}

func TestService_ForUser_BlankIDIsValidationError(t *testing.T) {
	challenges := new(MockChallengeRepository)
	svc := newTestService(ports.SourceSet{
		{Name: domain.SourcePrimary, Challenges: challenges},
	}, nil, time.Second)

	for _, id := range []string{"", "   "} {
		_, err := svc.ForUser(context.Background(), id)
		require.Error(t, err)
		assert.True(t, validation.IsValidation(err), "id %q", id)
	}
	challenges.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestService_ForAdmin_CancelledContext(t *testing.T) {
	svc := newTestService(ports.SourceSet{
		newSource(domain.SourcePrimary, nil, nil),
	}, nil, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.ForAdmin(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
