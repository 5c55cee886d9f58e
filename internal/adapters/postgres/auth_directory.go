package postgres

import (
	"PropDesk/internal/core/domain"
	"PropDesk/internal/core/ports"
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

type authDirectory struct {
	db  *DB
	log zerolog.Logger
}

var _ ports.AuthDirectory = (*authDirectory)(nil)

// NewAuthDirectory lists users from the auth.users table the hosted
// database keeps for its authentication provider.
func NewAuthDirectory(db *DB, baseLogger *zerolog.Logger) ports.AuthDirectory {
	return &authDirectory{
		db:  db,
		log: baseLogger.With().Str("component", "auth_directory").Str("source", db.name.String()).Logger(),
	}
}

func (d *authDirectory) ListUsers(ctx context.Context, filter domain.Filter) ([]domain.AuthUser, error) {
	query := `SELECT id::text, COALESCE(email, ''), COALESCE(raw_user_meta_data, '{}'::jsonb) FROM auth.users`
	var args []any
	if filter.UserID != "" {
		query += ` WHERE id::text = $1`
		args = append(args, filter.UserID)
	}

	rows, err := d.db.pool.Query(ctx, query, args...)
	if err != nil {
		d.log.Error().Err(err).Msg("Failed to query auth users")
		return nil, err
	}

	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.AuthUser, error) {
		var u domain.AuthUser
		err := row.Scan(&u.ID, &u.Email, &u.Metadata)
		return u, err
	})
	if err != nil {
		d.log.Error().Err(err).Msg("Failed to scan auth users")
		return nil, err
	}
	return users, nil
}
