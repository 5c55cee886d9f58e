package reconcile

import (
	"PropDesk/internal/core/domain"

	"github.com/rs/zerolog"
)

// MergePolicy folds an incoming profile row into whatever is already merged
// for the same user. existing is nil for the first row seen.
type MergePolicy func(existing *domain.UserProfile, incoming domain.UserProfile) domain.UserProfile

// LastWriteWinsWholeRow keeps the later row in its entirety. A partially
// populated later row blanks out fields an earlier source had.
func LastWriteWinsWholeRow(_ *domain.UserProfile, incoming domain.UserProfile) domain.UserProfile {
	return incoming
}

// ProfileMerger builds one profile per user from several sources plus the
// authentication provider's listing.
type ProfileMerger struct {
	policy MergePolicy
	log    zerolog.Logger
}

// NewProfileMerger creates a merger. A nil policy means LastWriteWinsWholeRow.
func NewProfileMerger(policy MergePolicy, baseLogger *zerolog.Logger) *ProfileMerger {
	if policy == nil {
		policy = LastWriteWinsWholeRow
	}
	return &ProfileMerger{
		policy: policy,
		log:    baseLogger.With().Str("component", "profile_merger").Logger(),
	}
}

// Merge applies the policy over bySource in order, then adds a synthesized
// profile for every auth user that no source row covers.
func (m *ProfileMerger) Merge(bySource [][]domain.UserProfile, authUsers []domain.AuthUser) map[string]domain.UserProfile {
	merged := make(map[string]domain.UserProfile)
	dropped := 0

	for _, rows := range bySource {
		for _, row := range rows {
			if row.UserID == "" {
				dropped++
				continue
			}
			if row.FullName == "" {
				row.FullName = domain.JoinName(row.FirstName, row.LastName)
			}
			if existing, ok := merged[row.UserID]; ok {
				merged[row.UserID] = m.policy(&existing, row)
			} else {
				merged[row.UserID] = m.policy(nil, row)
			}
		}
	}

	synthesized := 0
	for _, u := range authUsers {
		if u.ID == "" {
			continue
		}
		if _, ok := merged[u.ID]; ok {
			continue
		}
		merged[u.ID] = profileFromAuth(u)
		synthesized++
	}

	m.log.Debug().
		Int("profiles", len(merged)).
		Int("synthesized", synthesized).
		Int("dropped", dropped).
		Msg("Profiles merged")
	return merged
}

// profileFromAuth builds a minimal profile from provider metadata.
func profileFromAuth(u domain.AuthUser) domain.UserProfile {
	p := domain.UserProfile{
		UserID:     u.ID,
		Email:      u.Email,
		FirstName:  u.MetadataString("first_name"),
		LastName:   u.MetadataString("last_name"),
		FriendlyID: u.MetadataString("friendly_id"),
	}
	p.FullName = domain.JoinName(p.FirstName, p.LastName)
	if p.FullName == "" {
		p.FullName = u.MetadataString("full_name")
	}
	if p.FullName == "" {
		p.FullName = u.MetadataString("name")
	}
	return p
}
