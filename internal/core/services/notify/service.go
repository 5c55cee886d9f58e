package notify

import (
	"PropDesk/internal/core/domain"
	"PropDesk/internal/core/ports"
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.uber.org/multierr"
)

// Service turns lifecycle events into backend emails and admin alerts.
// Either collaborator may be nil when it is not configured.
type Service struct {
	backend ports.Backend
	admins  ports.AdminNotifier
	log     zerolog.Logger
}

// NewService creates the notification subscriber.
func NewService(backend ports.Backend, admins ports.AdminNotifier, baseLogger *zerolog.Logger) *Service {
	return &Service{
		backend: backend,
		admins:  admins,
		log:     baseLogger.With().Str("component", "notify_service").Logger(),
	}
}

// Register subscribes the service to every lifecycle topic.
func (s *Service) Register(bus ports.EventBus) {
	for _, topic := range domain.LifecycleTopics {
		bus.Subscribe(topic, s.Handle)
	}
}

// Handle processes one lifecycle event. Both side effects are attempted
// and their errors combined.
func (s *Service) Handle(ctx context.Context, event ports.Event) error {
	evt, ok := event.Data.(domain.ChallengeEvent)
	if !ok {
		s.log.Error().Str("topic", event.Topic).Msg("Received bad lifecycle event from bus")
		return nil // Don't retry
	}

	log := s.log.With().
		Str("topic", evt.Topic).
		Str("challenge", evt.Challenge.Ref().String()).
		Str("user_id", evt.Challenge.UserID).
		Logger()

	var err error
	if s.backend != nil {
		if berr := s.toBackend(ctx, evt); berr != nil {
			log.Error().Err(berr).Msg("Backend notification failed")
			err = multierr.Append(err, berr)
		}
	}

	if s.admins != nil {
		if text := adminLine(evt); text != "" {
			if aerr := s.admins.NotifyAdmins(ctx, text); aerr != nil {
				log.Error().Err(aerr).Msg("Admin notification failed")
				err = multierr.Append(err, aerr)
			}
		}
	}
	return err
}

func (s *Service) toBackend(ctx context.Context, evt domain.ChallengeEvent) error {
	c := evt.Challenge
	switch evt.Topic {
	case domain.TopicCredentialsReleased:
		if !c.IsProvisioned() {
			return fmt.Errorf("%w: %s", domain.ErrMissingCredentials, c.Ref())
		}
		return s.backend.SendCredentials(ctx, ports.CredentialsNotice{
			UserID:        c.UserID,
			ChallengeID:   c.ID,
			Source:        c.DBSource.String(),
			Login:         domain.StringValue(c.TradingAccountID),
			Password:      domain.StringValue(c.TradingAccountPassword),
			Server:        domain.StringValue(c.TradingAccountServer),
			AccountSize:   c.AccountSize.String(),
			Phase:         c.CurrentPhase(),
			ChallengeType: c.ChallengeType,
		})

	case domain.TopicBreached, domain.TopicUnbreached, domain.TopicRejected, domain.TopicPassed:
		notice := ports.StatusNotice{
			UserID:      c.UserID,
			ChallengeID: c.ID,
			Source:      c.DBSource.String(),
			Status:      string(c.Status),
			Reason:      evt.Reason,
			Phase:       c.CurrentPhase(),
			At:          evt.At,
		}
		if evt.Next != nil {
			notice.NextID = evt.Next.ID
		}
		return s.backend.NotifyStatus(ctx, notice)
	}
	return nil
}

// adminLine is the one-line summary posted to the admin channel, or ""
// for topics admins do not need to hear about.
func adminLine(evt domain.ChallengeEvent) string {
	c := evt.Challenge
	ref := c.Ref().String()
	switch evt.Topic {
	case domain.TopicCredentialsAssigned:
		return fmt.Sprintf("🔑 Credentials assigned: %s (login %s)", ref, domain.StringValue(c.TradingAccountID))
	case domain.TopicContractSigned:
		return fmt.Sprintf("✍️ Contract signed: %s, ready for release", ref)
	case domain.TopicCredentialsReleased:
		return fmt.Sprintf("📤 Credentials released: %s", ref)
	case domain.TopicPassed:
		if evt.Next != nil {
			return fmt.Sprintf("🏆 Passed: %s, phase %d opened as %s/%s (size %s)",
				ref, evt.Next.CurrentPhase(), evt.Next.DBSource, evt.Next.ID, evt.Next.AccountSize.String())
		}
		return fmt.Sprintf("🏆 Passed: %s", ref)
	case domain.TopicBreached:
		return withReason(fmt.Sprintf("⛔ Breached: %s", ref), evt.Reason)
	case domain.TopicUnbreached:
		return fmt.Sprintf("♻️ Unbreached: %s", ref)
	case domain.TopicRejected:
		return withReason(fmt.Sprintf("❌ Rejected: %s", ref), evt.Reason)
	}
	return ""
}

func withReason(line, reason string) string {
	if reason == "" {
		return line
	}
	return line + ": " + reason
}
