package lifecycle

import (
	"PropDesk/internal/core/domain"
	"PropDesk/internal/core/ports"
	"PropDesk/internal/shared/validation"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Service applies admin and trader transitions to single challenge rows.
// Every operation validates first and writes only to the row's own source.
type Service struct {
	sources ports.SourceSet
	bus     ports.EventBus
	metrics ports.ReconcileMetrics
	log     zerolog.Logger

	now   func() time.Time
	newID func() string
}

// NewService creates the lifecycle service.
func NewService(sources ports.SourceSet, bus ports.EventBus, metrics ports.ReconcileMetrics, baseLogger *zerolog.Logger) *Service {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &Service{
		sources: sources,
		bus:     bus,
		metrics: metrics,
		log:     baseLogger.With().Str("component", "lifecycle_service").Logger(),
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// AssignCredentials provisions a trading login. Re-assigning hides the
// previous release until the new login is released again.
func (s *Service) AssignCredentials(ctx context.Context, ref domain.ChallengeRef, creds Credentials) (*domain.Challenge, error) {
	creds = creds.trimmed()
	return s.apply(ctx, "assign_credentials", ref, domain.TopicCredentialsAssigned, "",
		func() error { return validation.Struct(creds) },
		func(c *domain.Challenge) error {
			if isClosed(c) || c.Status == domain.StatusPendingPayment {
				return fmt.Errorf("%w: cannot assign credentials to a %s challenge", domain.ErrInvalidTransition, c.Status)
			}
			c.TradingAccountID = &creds.Login
			c.TradingAccountPassword = &creds.Password
			c.TradingAccountServer = &creds.Server
			c.Status = domain.StatusActive
			c.CredentialsSent = false
			c.CredentialsVisible = false
			return nil
		})
}

// SignContract records the trader's acceptance of the contract.
func (s *Service) SignContract(ctx context.Context, ref domain.ChallengeRef, userID string) (*domain.Challenge, error) {
	userID = strings.TrimSpace(userID)
	return s.apply(ctx, "sign_contract", ref, domain.TopicContractSigned, "",
		func() error { return validation.Struct(ownerInput{UserID: userID}) },
		func(c *domain.Challenge) error {
			if c.UserID != userID {
				return domain.ErrNotOwner
			}
			if isClosed(c) {
				return fmt.Errorf("%w: challenge is %s", domain.ErrInvalidTransition, c.Status)
			}
			if !c.IsProvisioned() {
				return domain.ErrMissingCredentials
			}
			if c.ContractSigned {
				return fmt.Errorf("%w: contract already signed", domain.ErrInvalidTransition)
			}
			c.ContractSigned = true
			return nil
		})
}

// ReleaseCredentials makes a signed account's login visible to its trader.
func (s *Service) ReleaseCredentials(ctx context.Context, ref domain.ChallengeRef) (*domain.Challenge, error) {
	return s.apply(ctx, "release_credentials", ref, domain.TopicCredentialsReleased, "", nil,
		func(c *domain.Challenge) error {
			if isClosed(c) {
				return fmt.Errorf("%w: challenge is %s", domain.ErrInvalidTransition, c.Status)
			}
			if !c.IsProvisioned() {
				return domain.ErrMissingCredentials
			}
			if !c.ContractSigned {
				return domain.ErrContractNotSigned
			}
			c.Status = domain.StatusActive
			c.CredentialsVisible = true
			c.CredentialsSent = true
			return nil
		})
}

// Breach closes an account for a rule violation. reason is kept in admin_note.
// Only a signed, provisioned account can be breached, so an unbreach always
// lands back on released credentials.
func (s *Service) Breach(ctx context.Context, ref domain.ChallengeRef, reason string) (*domain.Challenge, error) {
	reason = strings.TrimSpace(reason)
	return s.apply(ctx, "breach", ref, domain.TopicBreached, reason,
		func() error { return validation.Struct(reasonInput{Reason: reason}) },
		func(c *domain.Challenge) error {
			if isClosed(c) || c.Status == domain.StatusPendingPayment {
				return fmt.Errorf("%w: cannot breach a %s challenge", domain.ErrInvalidTransition, c.Status)
			}
			if !c.IsProvisioned() {
				return domain.ErrMissingCredentials
			}
			if !c.ContractSigned {
				return domain.ErrContractNotSigned
			}
			c.Status = domain.StatusBreached
			c.CredentialsVisible = false
			c.AdminNote = &reason
			return nil
		})
}

// Unbreach reverts a breach. A signed, provisioned account comes back active
// with its credentials visible. Rows breached before that rule existed are
// restored to the status their fields support instead of being refused.
func (s *Service) Unbreach(ctx context.Context, ref domain.ChallengeRef) (*domain.Challenge, error) {
	return s.apply(ctx, "unbreach", ref, domain.TopicUnbreached, "", nil,
		func(c *domain.Challenge) error {
			if c.Status != domain.StatusBreached {
				return fmt.Errorf("%w: only breached challenges can be unbreached, got %s", domain.ErrInvalidTransition, c.Status)
			}
			switch {
			case !c.IsProvisioned():
				c.Status = domain.StatusPendingCredentials
				c.CredentialsVisible = false
			case !c.ContractSigned:
				c.Status = domain.StatusActive
				c.CredentialsVisible = false
			default:
				c.Status = domain.StatusActive
				c.CredentialsVisible = true
			}
			return nil
		})
}

// Reject refuses a purchase. reason is kept in admin_note.
func (s *Service) Reject(ctx context.Context, ref domain.ChallengeRef, reason string) (*domain.Challenge, error) {
	reason = strings.TrimSpace(reason)
	return s.apply(ctx, "reject", ref, domain.TopicRejected, reason,
		func() error { return validation.Struct(reasonInput{Reason: reason}) },
		func(c *domain.Challenge) error {
			if isClosed(c) {
				return fmt.Errorf("%w: cannot reject a %s challenge", domain.ErrInvalidTransition, c.Status)
			}
			c.Status = domain.StatusRejected
			c.CredentialsVisible = false
			c.AdminNote = &reason
			return nil
		})
}

// SaveNote replaces the admin note. An empty note clears it.
func (s *Service) SaveNote(ctx context.Context, ref domain.ChallengeRef, note string) (*domain.Challenge, error) {
	return s.apply(ctx, "save_note", ref, domain.TopicNoteSaved, note,
		func() error { return validation.Struct(noteInput{Note: note}) },
		func(c *domain.Challenge) error {
			c.AdminNote = domain.StringPtr(note)
			return nil
		})
}

// Edit changes admin-editable details of a challenge.
func (s *Service) Edit(ctx context.Context, ref domain.ChallengeRef, edit Edit) (*domain.Challenge, error) {
	return s.apply(ctx, "edit", ref, domain.TopicEdited, "",
		func() error {
			if err := validation.Struct(edit); err != nil {
				return err
			}
			if edit.AccountSize != nil && !edit.AccountSize.IsPositive() {
				return validation.Field("account_size", "gt")
			}
			return nil
		},
		func(c *domain.Challenge) error {
			if edit.ChallengeType != nil {
				c.ChallengeType = *edit.ChallengeType
			}
			if edit.AccountSize != nil {
				c.AccountSize = *edit.AccountSize
			}
			if edit.Phase != nil {
				phase := *edit.Phase
				c.Phase = &phase
			}
			if edit.TradingAccountServer != nil {
				c.TradingAccountServer = domain.StringPtr(*edit.TradingAccountServer)
			}
			return nil
		})
}

// MarkPassed closes the current phase and opens the next one as a new
// challenge: next phase, double the account size, nothing paid. The old row
// keeps its size and only moves to passed.
func (s *Service) MarkPassed(ctx context.Context, ref domain.ChallengeRef) (*domain.Challenge, error) {
	const action = "mark_passed"
	log := s.log.With().Str("action", action).Str("challenge", ref.String()).Logger()

	src, current, err := s.load(ctx, ref)
	if err != nil {
		s.metrics.ObserveTransition(action, err)
		return nil, err
	}

	switch {
	case isClosed(current) || current.Status == domain.StatusPendingPayment:
		err = fmt.Errorf("%w: cannot pass a %s challenge", domain.ErrInvalidTransition, current.Status)
	case !current.IsProvisioned():
		err = domain.ErrMissingCredentials
	case current.CurrentPhase() >= domain.LivePhase:
		err = domain.ErrFinalPhase
	}
	if err != nil {
		s.metrics.ObserveTransition(action, err)
		return nil, err
	}

	now := s.now().UTC()
	nextPhase := current.CurrentPhase() + 1
	next := &domain.Challenge{
		ID:            s.newID(),
		UserID:        current.UserID,
		ChallengeType: current.ChallengeType,
		AccountSize:   current.AccountSize.Mul(decimal.NewFromInt(2)),
		AmountPaid:    decimal.Zero,
		Status:        domain.StatusPendingCredentials,
		Phase:         &nextPhase,
		PurchaseDate:  &now,
		CreatedAt:     now,
		DBSource:      src.Name,
	}
	passed := current.Clone()
	passed.Status = domain.StatusPassed
	passed.CredentialsVisible = false

	if err := src.Challenges.Pass(ctx, passed, next); err != nil {
		log.Error().Err(err).Msg("Failed to record phase pass")
		s.metrics.ObserveTransition(action, err)
		return nil, fmt.Errorf("mark passed %s: %w", ref, err)
	}

	log.Info().Str("next_id", next.ID).Int("next_phase", nextPhase).Msg("Challenge passed")
	s.metrics.ObserveTransition(action, nil)
	s.publish(ctx, domain.ChallengeEvent{Topic: domain.TopicPassed, Challenge: *passed, Next: next, At: now})
	return next, nil
}

// apply runs validate, load, mutate and a single-row update, in that order.
// Nothing is written unless every check passes.
func (s *Service) apply(
	ctx context.Context,
	action string,
	ref domain.ChallengeRef,
	topic string,
	reason string,
	validate func() error,
	mutate func(c *domain.Challenge) error,
) (*domain.Challenge, error) {
	log := s.log.With().Str("action", action).Str("challenge", ref.String()).Logger()

	result, err := func() (*domain.Challenge, error) {
		// 1. Validate input before touching storage
		if validate != nil {
			if err := validate(); err != nil {
				return nil, err
			}
		}

		// 2. Load the row from its own source
		src, current, err := s.load(ctx, ref)
		if err != nil {
			return nil, err
		}

		// 3. Mutate a copy so a rejected transition leaves nothing behind
		updated := current.Clone()
		if err := mutate(updated); err != nil {
			return nil, err
		}

		// 4. Commit
		if err := src.Challenges.Update(ctx, updated); err != nil {
			log.Error().Err(err).Msg("Failed to update challenge")
			return nil, fmt.Errorf("%s %s: %w", action, ref, err)
		}
		return updated, nil
	}()

	s.metrics.ObserveTransition(action, err)
	if err != nil {
		log.Warn().Err(err).Msg("Transition refused")
		return nil, err
	}

	log.Info().Str("status", string(result.Status)).Msg("Transition applied")
	s.publish(ctx, domain.ChallengeEvent{Topic: topic, Challenge: *result, Reason: reason, At: s.now().UTC()})
	return result, nil
}

// load resolves the source and fetches the row, tagging it with its provenance.
func (s *Service) load(ctx context.Context, ref domain.ChallengeRef) (*ports.Source, *domain.Challenge, error) {
	if ref.ID == "" {
		return nil, nil, validation.Field("id", "required")
	}
	src := s.sources.Lookup(ref.Source)
	if !src.Available() {
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrSourceUnavailable, ref.Source)
	}

	c, err := src.Challenges.GetByID(ctx, ref.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("load %s: %w", ref, err)
	}
	if c == nil {
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrChallengeNotFound, ref)
	}
	c.DBSource = src.Name
	return src, c, nil
}

func (s *Service) publish(ctx context.Context, evt domain.ChallengeEvent) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, evt.Topic, evt); err != nil {
		// The row is committed; only the notification is lost.
		s.log.Error().Err(err).Str("topic", evt.Topic).Msg("Failed to publish lifecycle event")
	}
}

// isClosed reports whether the stored status admits no further admin transition
// other than an unbreach.
func isClosed(c *domain.Challenge) bool {
	switch c.Status {
	case domain.StatusPassed, domain.StatusBreached, domain.StatusRejected:
		return true
	}
	return false
}
