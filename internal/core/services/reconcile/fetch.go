package reconcile

import (
	"PropDesk/internal/core/domain"
	"PropDesk/internal/core/ports"
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// sourceRows is what one source returned. Failed queries leave empty slices.
type sourceRows struct {
	report     SourceReport
	profiles   []domain.UserProfile
	challenges []domain.Challenge
}

// fetchAll queries every source and the auth directory in parallel and waits
// for all of them. No branch can fail the others: errors are recorded and
// the branch contributes nothing.
func (s *Service) fetchAll(ctx context.Context, filter domain.Filter) ([]sourceRows, []domain.AuthUser, error) {
	results := make([]sourceRows, len(s.sources))
	var authUsers []domain.AuthUser
	var authErr error

	var g errgroup.Group
	for i, src := range s.sources {
		g.Go(func() error {
			results[i] = s.fetchSource(ctx, src, filter)
			return nil
		})
	}
	if s.auth != nil {
		g.Go(func() error {
			authUsers, authErr = s.fetchAuth(ctx, filter)
			return nil
		})
	}
	_ = g.Wait()

	return results, authUsers, authErr
}

// fetchSource reads profiles and challenges from one source under its own timeout.
func (s *Service) fetchSource(ctx context.Context, src *ports.Source, filter domain.Filter) sourceRows {
	if !src.Available() {
		name := domain.Source("")
		if src != nil {
			name = src.Name
		}
		s.log.Info().Str("source", name.String()).Msg("Source not configured, contributing no rows")
		return sourceRows{report: SourceReport{Source: name}}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out := sourceRows{report: SourceReport{Source: src.Name, Available: true}}
	var profilesErr, challengesErr error

	var g errgroup.Group
	g.Go(func() error {
		start := time.Now()
		profilesErr = guard(func() error {
			var err error
			out.profiles, err = src.Profiles.List(ctx, filter)
			return err
		})
		s.metrics.ObserveFetch(src.Name, "profiles", profilesErr, time.Since(start))
		return nil
	})
	g.Go(func() error {
		start := time.Now()
		challengesErr = guard(func() error {
			var err error
			out.challenges, err = src.Challenges.List(ctx, filter)
			return err
		})
		s.metrics.ObserveFetch(src.Name, "challenges", challengesErr, time.Since(start))
		return nil
	})
	_ = g.Wait()

	if profilesErr != nil {
		s.log.Error().Err(profilesErr).Str("source", src.Name.String()).Msg("Failed to fetch profiles")
		out.profiles = nil
	}
	if challengesErr != nil {
		s.log.Error().Err(challengesErr).Str("source", src.Name.String()).Msg("Failed to fetch challenges")
		out.challenges = nil
	}

	out.report.Err = multierr.Combine(profilesErr, challengesErr)
	out.report.Profiles = len(out.profiles)
	out.report.Challenges = len(out.challenges)
	return out
}

func (s *Service) fetchAuth(ctx context.Context, filter domain.Filter) ([]domain.AuthUser, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var users []domain.AuthUser
	err := guard(func() error {
		var err error
		users, err = s.auth.ListUsers(ctx, filter)
		return err
	})
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list auth users")
		return nil, err
	}
	return users, nil
}

// guard turns a panic inside an adapter into an error for that branch only.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("source panicked: %v", r)
		}
	}()
	return fn()
}
