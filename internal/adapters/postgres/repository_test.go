package postgres

import (
	"PropDesk/internal/core/domain"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func insertChallenge(t *testing.T, userID, status string, password *string) string {
	t.Helper()
	id := uuid.NewString()
	_, err := testDB.pool.Exec(context.Background(), `
		INSERT INTO user_challenges (id, user_id, challenge_type, account_size, amount_paid, status,
			trading_account_id, trading_account_password, trading_account_server, phase)
		VALUES ($1, $2, 'two_step', 50000, 299.10, $3, '500100', $4, 'Demo-1', NULL)
	`, id, userID, status, password)
	require.NoError(t, err)
	t.Cleanup(func() { cleanupChallenge(t, id) })
	return id
}

func TestProfileRepository_List(t *testing.T) {
	requireDB(t)
	nopLogger := zerolog.Nop()
	repo := NewProfileRepository(testDB, &nopLogger)
	ctx := context.Background()

	userID := uuid.NewString()
	_, err := testDB.pool.Exec(ctx,
		`INSERT INTO user_profile (user_id, email, first_name, last_name, friendly_id) VALUES ($1, $2, $3, NULL, $4)`,
		userID, "ada@example.com", "Ada", "TR-77")
	require.NoError(t, err)
	defer cleanupUser(t, userID)

	profiles, err := repo.List(ctx, domain.Filter{UserID: userID})
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "ada@example.com", profiles[0].Email)
	assert.Equal(t, "Ada", profiles[0].FullName)
	assert.Empty(t, profiles[0].LastName)
	assert.Equal(t, "TR-77", profiles[0].FriendlyID)
}

func TestAuthDirectory_ListUsers(t *testing.T) {
	requireDB(t)
	nopLogger := zerolog.Nop()
	dir := NewAuthDirectory(testDB, &nopLogger)
	ctx := context.Background()

	userID := uuid.NewString()
	_, err := testDB.pool.Exec(ctx,
		`INSERT INTO auth.users (id, email, raw_user_meta_data) VALUES ($1, $2, $3)`,
		userID, "grace@example.com", map[string]any{"first_name": "Grace"})
	require.NoError(t, err)
	defer cleanupUser(t, userID)

	users, err := dir.ListUsers(ctx, domain.Filter{UserID: userID})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "grace@example.com", users[0].Email)
	assert.Equal(t, "Grace", users[0].MetadataString("first_name"))
}

func TestChallengeRepository_GetByID_DecimalsAndDefaults(t *testing.T) {
	requireDB(t)
	nopLogger := zerolog.Nop()
	repo := NewChallengeRepository(testDB, testSealer, &nopLogger)

	userID := uuid.NewString()
	legacy := "plain-legacy"
	id := insertChallenge(t, userID, "active", &legacy)

	c, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, c)

	assert.Equal(t, userID, c.UserID)
	assert.True(t, c.AccountSize.Equal(decimal.NewFromInt(50000)))
	assert.Equal(t, "299.1", c.AmountPaid.String())
	assert.Equal(t, domain.StatusActive, c.Status)
	assert.Nil(t, c.Phase)
	assert.Equal(t, domain.FirstPhase, c.CurrentPhase())
	assert.Equal(t, "plain-legacy", domain.StringValue(c.TradingAccountPassword), "legacy plaintext reads as-is")
}

func TestChallengeRepository_GetByID_NotFound(t *testing.T) {
	requireDB(t)
	nopLogger := zerolog.Nop()
	repo := NewChallengeRepository(testDB, nil, &nopLogger)

	c, err := repo.GetByID(context.Background(), uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestChallengeRepository_Update_SealsPassword(t *testing.T) {
	requireDB(t)
	nopLogger := zerolog.Nop()
	repo := NewChallengeRepository(testDB, testSealer, &nopLogger)
	ctx := context.Background()

	id := insertChallenge(t, uuid.NewString(), "pending_credentials", nil)
	c, err := repo.GetByID(ctx, id)
	require.NoError(t, err)

	c.TradingAccountPassword = func(s string) *string { return &s }("n3w-pass")
	c.ContractSigned = true
	require.NoError(t, repo.Update(ctx, c))

	var stored string
	require.NoError(t, testDB.pool.QueryRow(ctx,
		`SELECT trading_account_password FROM user_challenges WHERE id::text = $1`, id).Scan(&stored))
	assert.True(t, testSealer.IsSealed(stored), "password must be sealed at rest")

	reread, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "n3w-pass", domain.StringValue(reread.TradingAccountPassword))
	assert.True(t, reread.ContractSigned)

	missing := *c
	missing.ID = uuid.NewString()
	assert.ErrorIs(t, repo.Update(ctx, &missing), domain.ErrChallengeNotFound)
}

func TestChallengeRepository_Pass_IsAtomic(t *testing.T) {
	requireDB(t)
	nopLogger := zerolog.Nop()
	repo := NewChallengeRepository(testDB, nil, &nopLogger)
	ctx := context.Background()

	userID := uuid.NewString()
	id := insertChallenge(t, userID, "active", nil)
	current, err := repo.GetByID(ctx, id)
	require.NoError(t, err)

	passed := current.Clone()
	passed.Status = domain.StatusPassed
	phase := 2
	now := time.Now().UTC().Truncate(time.Microsecond)
	next := &domain.Challenge{
		ID:            uuid.NewString(),
		UserID:        userID,
		ChallengeType: current.ChallengeType,
		AccountSize:   current.AccountSize.Mul(decimal.NewFromInt(2)),
		AmountPaid:    decimal.Zero,
		Status:        domain.StatusPendingCredentials,
		Phase:         &phase,
		PurchaseDate:  &now,
		CreatedAt:     now,
	}
	require.NoError(t, repo.Pass(ctx, passed, next))
	defer cleanupChallenge(t, next.ID)

	rows, err := repo.List(ctx, domain.Filter{UserID: userID})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byID := map[string]domain.Challenge{}
	for _, r := range rows {
		byID[r.ID] = r
	}
	assert.Equal(t, domain.StatusPassed, byID[id].Status)
	assert.True(t, byID[id].AccountSize.Equal(decimal.NewFromInt(50000)))
	assert.True(t, byID[next.ID].AccountSize.Equal(decimal.NewFromInt(100000)))
	nextRow := byID[next.ID]
	assert.Equal(t, 2, nextRow.CurrentPhase())

	// A duplicate next id fails the insert, so the update must roll back too.
	again := byID[id]
	again.Status = domain.StatusBreached
	dup := *next
	err = repo.Pass(ctx, &again, &dup)
	require.Error(t, err)

	unchanged, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPassed, unchanged.Status)
}
