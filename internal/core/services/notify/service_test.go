package notify

import (
	"PropDesk/internal/core/domain"
	"PropDesk/internal/core/ports"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) SendCredentials(ctx context.Context, notice ports.CredentialsNotice) error {
	args := m.Called(ctx, notice)
	return args.Error(0)
}

func (m *MockBackend) NotifyStatus(ctx context.Context, notice ports.StatusNotice) error {
	args := m.Called(ctx, notice)
	return args.Error(0)
}

type MockAdminNotifier struct {
	mock.Mock
}

func (m *MockAdminNotifier) NotifyAdmins(ctx context.Context, text string) error {
	args := m.Called(ctx, text)
	return args.Error(0)
}

type recordingBus struct {
	topics []string
}

func (b *recordingBus) Publish(context.Context, string, any) error { return nil }
func (b *recordingBus) Subscribe(topic string, _ ports.EventHandler) {
	b.topics = append(b.topics, topic)
}

// --- Helpers ---

func provisioned() domain.Challenge {
	return domain.Challenge{
		ID:                     "c1",
		UserID:                 "u1",
		ChallengeType:          "two_step",
		AccountSize:            decimal.NewFromInt(25000),
		Status:                 domain.StatusActive,
		TradingAccountID:       domain.StringPtr("500100"),
		TradingAccountPassword: domain.StringPtr("pw"),
		TradingAccountServer:   domain.StringPtr("Demo-1"),
		DBSource:               domain.SourceBolt,
	}
}

func event(evt domain.ChallengeEvent) ports.Event {
	return ports.Event{Topic: evt.Topic, Data: evt}
}

// --- Tests ---

func TestService_Register(t *testing.T) {
	nopLogger := zerolog.Nop()
	bus := &recordingBus{}
	NewService(nil, nil, &nopLogger).Register(bus)

	assert.Equal(t, domain.LifecycleTopics, bus.topics)
}

func TestService_CredentialsReleased(t *testing.T) {
	nopLogger := zerolog.Nop()
	backend := new(MockBackend)
	admins := new(MockAdminNotifier)
	svc := NewService(backend, admins, &nopLogger)

	backend.On("SendCredentials", mock.Anything, ports.CredentialsNotice{
		UserID:        "u1",
		ChallengeID:   "c1",
		Source:        "BOLT",
		Login:         "500100",
		Password:      "pw",
		Server:        "Demo-1",
		AccountSize:   "25000",
		Phase:         1,
		ChallengeType: "two_step",
	}).Return(nil).Once()
	admins.On("NotifyAdmins", mock.Anything, "📤 Credentials released: BOLT/c1").Return(nil).Once()

	err := svc.Handle(context.Background(), event(domain.ChallengeEvent{
		Topic:     domain.TopicCredentialsReleased,
		Challenge: provisioned(),
	}))
	require.NoError(t, err)
	backend.AssertExpectations(t)
	admins.AssertExpectations(t)
}

func TestService_StatusTopics(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		topic     string
		status    domain.ChallengeStatus
		reason    string
		next      *domain.Challenge
		wantNext  string
		wantAdmin string
	}{
		{"breach", domain.TopicBreached, domain.StatusBreached, "daily loss", nil, "", "⛔ Breached: BOLT/c1: daily loss"},
		{"reject", domain.TopicRejected, domain.StatusRejected, "", nil, "", "❌ Rejected: BOLT/c1"},
		{"unbreach", domain.TopicUnbreached, domain.StatusActive, "", nil, "", "♻️ Unbreached: BOLT/c1"},
		{
			"pass", domain.TopicPassed, domain.StatusPassed, "",
			&domain.Challenge{ID: "c2", Phase: func() *int { p := 2; return &p }(), AccountSize: decimal.NewFromInt(50000), DBSource: domain.SourceBolt},
			"c2",
			"🏆 Passed: BOLT/c1, phase 2 opened as BOLT/c2 (size 50000)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nopLogger := zerolog.Nop()
			backend := new(MockBackend)
			admins := new(MockAdminNotifier)
			svc := NewService(backend, admins, &nopLogger)

			c := provisioned()
			c.Status = tt.status

			backend.On("NotifyStatus", mock.Anything, ports.StatusNotice{
				UserID:      "u1",
				ChallengeID: "c1",
				Source:      "BOLT",
				Status:      string(tt.status),
				Reason:      tt.reason,
				Phase:       1,
				NextID:      tt.wantNext,
				At:          at,
			}).Return(nil).Once()
			admins.On("NotifyAdmins", mock.Anything, tt.wantAdmin).Return(nil).Once()

			err := svc.Handle(context.Background(), event(domain.ChallengeEvent{
				Topic:     tt.topic,
				Challenge: c,
				Next:      tt.next,
				Reason:    tt.reason,
				At:        at,
			}))
			require.NoError(t, err)
			backend.AssertExpectations(t)
			admins.AssertExpectations(t)
		})
	}
}

func TestService_QuietTopics(t *testing.T) {
	nopLogger := zerolog.Nop()
	backend := new(MockBackend)
	admins := new(MockAdminNotifier)
	svc := NewService(backend, admins, &nopLogger)

	for _, topic := range []string{domain.TopicNoteSaved, domain.TopicEdited} {
		require.NoError(t, svc.Handle(context.Background(), event(domain.ChallengeEvent{Topic: topic, Challenge: provisioned()})))
	}
	backend.AssertNotCalled(t, "NotifyStatus", mock.Anything, mock.Anything)
	backend.AssertNotCalled(t, "SendCredentials", mock.Anything, mock.Anything)
	admins.AssertNotCalled(t, "NotifyAdmins", mock.Anything, mock.Anything)
}

func TestService_ErrorsAreCombined(t *testing.T) {
	nopLogger := zerolog.Nop()
	backend := new(MockBackend)
	admins := new(MockAdminNotifier)
	svc := NewService(backend, admins, &nopLogger)

	backendErr := errors.New("backend down")
	adminErr := errors.New("telegram down")
	backend.On("NotifyStatus", mock.Anything, mock.Anything).Return(backendErr).Once()
	admins.On("NotifyAdmins", mock.Anything, mock.Anything).Return(adminErr).Once()

	c := provisioned()
	c.Status = domain.StatusBreached
	err := svc.Handle(context.Background(), event(domain.ChallengeEvent{Topic: domain.TopicBreached, Challenge: c}))

	assert.ErrorIs(t, err, backendErr)
	assert.ErrorIs(t, err, adminErr)
}

func TestService_ReleaseWithoutLogin(t *testing.T) {
	nopLogger := zerolog.Nop()
	backend := new(MockBackend)
	svc := NewService(backend, nil, &nopLogger)

	c := provisioned()
	c.TradingAccountID = nil
	err := svc.Handle(context.Background(), event(domain.ChallengeEvent{Topic: domain.TopicCredentialsReleased, Challenge: c}))

	assert.ErrorIs(t, err, domain.ErrMissingCredentials)
	backend.AssertNotCalled(t, "SendCredentials", mock.Anything, mock.Anything)
}

func TestService_NilCollaboratorsAndBadPayload(t *testing.T) {
	nopLogger := zerolog.Nop()
	svc := NewService(nil, nil, &nopLogger)

	assert.NoError(t, svc.Handle(context.Background(), event(domain.ChallengeEvent{Topic: domain.TopicBreached, Challenge: provisioned()})))
	assert.NoError(t, svc.Handle(context.Background(), ports.Event{Topic: domain.TopicBreached, Data: "not an event"}))
}
