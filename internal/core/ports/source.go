package ports

import (
	"PropDesk/internal/core/domain"
	"context"
)

// ProfileRepository reads user_profile rows from one source.
type ProfileRepository interface {
	List(ctx context.Context, filter domain.Filter) ([]domain.UserProfile, error)
}

// ChallengeRepository reads and writes user_challenges rows in one source.
type ChallengeRepository interface {
	// List returns every challenge matching the filter.
	List(ctx context.Context, filter domain.Filter) ([]domain.Challenge, error)

	// GetByID returns nil, nil when the challenge does not exist.
	GetByID(ctx context.Context, id string) (*domain.Challenge, error)

	// Update writes every mutable column of a single row.
	Update(ctx context.Context, c *domain.Challenge) error

	// Pass marks passed as passed and inserts next in one transaction.
	Pass(ctx context.Context, passed *domain.Challenge, next *domain.Challenge) error
}

// AuthDirectory lists the authentication provider's users.
type AuthDirectory interface {
	ListUsers(ctx context.Context, filter domain.Filter) ([]domain.AuthUser, error)
}

// Source is a handle to one backing database. A nil Source, or one without
// repositories, is unavailable and contributes nothing.
type Source struct {
	Name       domain.Source
	Profiles   ProfileRepository
	Challenges ChallengeRepository
}

// Available reports whether the source can be queried.
func (s *Source) Available() bool {
	return s != nil && s.Profiles != nil && s.Challenges != nil
}

// SourceSet is the ordered list of sources; order is merge precedence.
type SourceSet []*Source

// Lookup returns the source with the given name, or nil.
func (set SourceSet) Lookup(name domain.Source) *Source {
	for _, s := range set {
		if s != nil && s.Name == name {
			return s
		}
	}
	return nil
}
