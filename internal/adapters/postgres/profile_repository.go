package postgres

import (
	"PropDesk/internal/core/domain"
	"PropDesk/internal/core/ports"
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

type profileRepository struct {
	db  *DB
	log zerolog.Logger
}

var _ ports.ProfileRepository = (*profileRepository)(nil)

// NewProfileRepository creates a repository over the source's user_profile table.
func NewProfileRepository(db *DB, baseLogger *zerolog.Logger) ports.ProfileRepository {
	return &profileRepository{
		db:  db,
		log: baseLogger.With().Str("component", "profile_repo").Str("source", db.name.String()).Logger(),
	}
}

const profileQueryCols = `user_id::text, email, first_name, last_name, friendly_id`

// List returns every profile row, or only the filtered user's.
func (r *profileRepository) List(ctx context.Context, filter domain.Filter) ([]domain.UserProfile, error) {
	query := `SELECT ` + profileQueryCols + ` FROM user_profile`
	var args []any
	if filter.UserID != "" {
		query += ` WHERE user_id::text = $1`
		args = append(args, filter.UserID)
	}

	rows, err := r.db.pool.Query(ctx, query, args...)
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to query profiles")
		return nil, err
	}

	profiles, err := pgx.CollectRows(rows, scanProfile)
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to scan profile rows")
		return nil, err
	}
	return profiles, nil
}

func scanProfile(row pgx.CollectableRow) (domain.UserProfile, error) {
	var userID, email, first, last, friendly *string
	if err := row.Scan(&userID, &email, &first, &last, &friendly); err != nil {
		return domain.UserProfile{}, err
	}
	p := domain.UserProfile{
		UserID:     domain.StringValue(userID),
		Email:      domain.StringValue(email),
		FirstName:  domain.StringValue(first),
		LastName:   domain.StringValue(last),
		FriendlyID: domain.StringValue(friendly),
	}
	p.FullName = domain.JoinName(p.FirstName, p.LastName)
	return p, nil
}
