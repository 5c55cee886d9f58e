package postgres

import (
	"PropDesk/internal/core/domain"
	"PropDesk/internal/core/ports"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type challengeRepository struct {
	db     *DB
	sealer ports.SecretSealer // nil stores passwords as given
	log    zerolog.Logger
}

var _ ports.ChallengeRepository = (*challengeRepository)(nil)

// NewChallengeRepository creates a repository over the source's user_challenges table.
func NewChallengeRepository(db *DB, sealer ports.SecretSealer, baseLogger *zerolog.Logger) ports.ChallengeRepository {
	return &challengeRepository{
		db:     db,
		sealer: sealer,
		log:    baseLogger.With().Str("component", "challenge_repo").Str("source", db.name.String()).Logger(),
	}
}

// challengeQueryCols casts amounts to text so they scan into decimals exactly.
const challengeQueryCols = `
	id::text, user_id::text, COALESCE(challenge_type, ''),
	COALESCE(account_size, 0)::text, COALESCE(amount_paid, 0)::text, COALESCE(status, ''),
	trading_account_id, trading_account_password, trading_account_server,
	COALESCE(credentials_sent, false), COALESCE(contract_signed, false), COALESCE(credentials_visible, false),
	phase, admin_note, purchase_date, created_at
`

// scanChallenge reads a row. Password opening is left to the caller.
func scanChallenge(row pgx.Row) (*domain.Challenge, error) {
	var c domain.Challenge
	var userID *string
	var size, paid string

	err := row.Scan(
		&c.ID,
		&userID,
		&c.ChallengeType,
		&size,
		&paid,
		&c.Status,
		&c.TradingAccountID,
		&c.TradingAccountPassword,
		&c.TradingAccountServer,
		&c.CredentialsSent,
		&c.ContractSigned,
		&c.CredentialsVisible,
		&c.Phase,
		&c.AdminNote,
		&c.PurchaseDate,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.UserID = domain.StringValue(userID)

	if c.AccountSize, err = decimal.NewFromString(size); err != nil {
		return nil, fmt.Errorf("account_size %q: %w", size, err)
	}
	if c.AmountPaid, err = decimal.NewFromString(paid); err != nil {
		return nil, fmt.Errorf("amount_paid %q: %w", paid, err)
	}
	return &c, nil
}

// List returns every challenge, or only the filtered user's. A row whose
// sealed password cannot be opened is still listed, without a password.
func (r *challengeRepository) List(ctx context.Context, filter domain.Filter) ([]domain.Challenge, error) {
	query := `SELECT ` + challengeQueryCols + ` FROM user_challenges`
	var args []any
	if filter.UserID != "" {
		query += ` WHERE user_id::text = $1`
		args = append(args, filter.UserID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.pool.Query(ctx, query, args...)
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to query challenges")
		return nil, err
	}
	defer rows.Close()

	var out []domain.Challenge
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			r.log.Error().Err(err).Msg("Failed to scan challenge row")
			return nil, err
		}
		if err := r.openPassword(c); err != nil {
			r.log.Error().Err(err).Str("challenge_id", c.ID).Msg("Failed to open trading password (tampered?)")
			c.TradingAccountPassword = nil
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		r.log.Error().Err(err).Msg("Failed to iterate challenge rows")
		return nil, err
	}
	return out, nil
}

// GetByID finds a challenge by id.
func (r *challengeRepository) GetByID(ctx context.Context, id string) (*domain.Challenge, error) {
	query := `SELECT ` + challengeQueryCols + ` FROM user_challenges WHERE id::text = $1`

	c, err := scanChallenge(r.db.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.log.Info().Str("challenge_id", id).Msg("Challenge not found")
			return nil, nil // Return nil, nil for "not found"
		}
		r.log.Error().Err(err).Str("challenge_id", id).Msg("Failed to get challenge")
		return nil, err
	}

	// Unlike List, refuse here: writing this row back would destroy the stored secret.
	if err := r.openPassword(c); err != nil {
		r.log.Error().Err(err).Str("challenge_id", id).Msg("Failed to open trading password (tampered?)")
		return nil, err
	}
	return c, nil
}

const updateChallengeSQL = `
	UPDATE user_challenges SET
		challenge_type = $2,
		account_size = $3::numeric,
		amount_paid = $4::numeric,
		status = $5,
		trading_account_id = $6,
		trading_account_password = $7,
		trading_account_server = $8,
		credentials_sent = $9,
		contract_signed = $10,
		credentials_visible = $11,
		phase = $12,
		admin_note = $13
	WHERE id::text = $1
`

// Update writes every mutable column of one row.
func (r *challengeRepository) Update(ctx context.Context, c *domain.Challenge) error {
	return r.update(ctx, r.db.pool, c)
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func (r *challengeRepository) update(ctx context.Context, q querier, c *domain.Challenge) error {
	password, err := r.sealPassword(c.TradingAccountPassword)
	if err != nil {
		return err
	}

	tag, err := q.Exec(ctx, updateChallengeSQL,
		c.ID,
		c.ChallengeType,
		c.AccountSize.String(),
		c.AmountPaid.String(),
		c.Status,
		c.TradingAccountID,
		password,
		c.TradingAccountServer,
		c.CredentialsSent,
		c.ContractSigned,
		c.CredentialsVisible,
		c.Phase,
		c.AdminNote,
	)
	if err != nil {
		r.log.Error().Err(err).Str("challenge_id", c.ID).Msg("Failed to update challenge")
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrChallengeNotFound, c.ID)
	}
	return nil
}

const insertChallengeSQL = `
	INSERT INTO user_challenges (
		id, user_id, challenge_type, account_size, amount_paid, status,
		trading_account_id, trading_account_password, trading_account_server,
		credentials_sent, contract_signed, credentials_visible,
		phase, admin_note, purchase_date, created_at
	) VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
`

// Pass closes passed and inserts next in a single transaction.
func (r *challengeRepository) Pass(ctx context.Context, passed *domain.Challenge, next *domain.Challenge) error {
	nextPassword, err := r.sealPassword(next.TradingAccountPassword)
	if err != nil {
		return err
	}
	createdAt := next.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	err = pgx.BeginFunc(ctx, r.db.pool, func(tx pgx.Tx) error {
		if err := r.update(ctx, tx, passed); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, insertChallengeSQL,
			next.ID,
			next.UserID,
			next.ChallengeType,
			next.AccountSize.String(),
			next.AmountPaid.String(),
			next.Status,
			next.TradingAccountID,
			nextPassword,
			next.TradingAccountServer,
			next.CredentialsSent,
			next.ContractSigned,
			next.CredentialsVisible,
			next.Phase,
			next.AdminNote,
			next.PurchaseDate,
			createdAt,
		)
		return err
	})
	if err != nil {
		r.log.Error().Err(err).Str("challenge_id", passed.ID).Str("next_id", next.ID).Msg("Failed to pass challenge")
		return err
	}

	r.log.Info().Str("challenge_id", passed.ID).Str("next_id", next.ID).Msg("Challenge passed to next phase")
	return nil
}

// openPassword replaces a sealed password with its plaintext. Legacy
// plaintext values are left as they are.
func (r *challengeRepository) openPassword(c *domain.Challenge) error {
	if r.sealer == nil || c.TradingAccountPassword == nil || !r.sealer.IsSealed(*c.TradingAccountPassword) {
		return nil
	}
	plain, err := r.sealer.Open(*c.TradingAccountPassword)
	if err != nil {
		return err
	}
	c.TradingAccountPassword = &plain
	return nil
}

func (r *challengeRepository) sealPassword(pw *string) (*string, error) {
	if r.sealer == nil || pw == nil || *pw == "" || r.sealer.IsSealed(*pw) {
		return pw, nil
	}
	sealed, err := r.sealer.Seal(*pw)
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to seal trading password")
		return nil, err
	}
	return &sealed, nil
}
