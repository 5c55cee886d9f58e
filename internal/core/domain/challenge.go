package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ChallengeStatus is the stored status column of a challenge.
type ChallengeStatus string

const (
	StatusPendingPayment     ChallengeStatus = "pending_payment"
	StatusPendingCredentials ChallengeStatus = "pending_credentials"
	StatusActive             ChallengeStatus = "active"
	StatusPassed             ChallengeStatus = "passed"
	StatusBreached           ChallengeStatus = "breached"
	StatusRejected           ChallengeStatus = "rejected"
)

const (
	FirstPhase = 1
	LivePhase  = 3
)

// Challenge is a purchased trading-evaluation account.
type Challenge struct {
	ID                     string
	UserID                 string
	ChallengeType          string
	AccountSize            decimal.Decimal
	AmountPaid             decimal.Decimal
	Status                 ChallengeStatus
	TradingAccountID       *string // Nullable
	TradingAccountPassword *string // Sealed at rest when a key is configured
	TradingAccountServer   *string // Nullable
	CredentialsSent        bool
	ContractSigned         bool
	CredentialsVisible     bool
	Phase                  *int    // Nullable, defaults to 1
	AdminNote              *string // Also holds breach/rejection reasons
	PurchaseDate           *time.Time
	CreatedAt              time.Time

	// DBSource is the provenance tag added at fetch time. It is never stored.
	DBSource Source
}

// ChallengeRef addresses a challenge globally: ids are only unique per source.
type ChallengeRef struct {
	Source Source
	ID     string
}

// Filter narrows a listing to one user. An empty UserID means all users.
type Filter struct {
	UserID string
}

func (r ChallengeRef) String() string {
	return string(r.Source) + "/" + r.ID
}

// Ref returns the global address of the challenge.
func (c *Challenge) Ref() ChallengeRef {
	return ChallengeRef{Source: c.DBSource, ID: c.ID}
}

// IsProvisioned reports whether trading credentials have been assigned.
func (c *Challenge) IsProvisioned() bool {
	return c.TradingAccountID != nil && *c.TradingAccountID != ""
}

// CurrentPhase returns the phase, defaulting to 1 when unset.
func (c *Challenge) CurrentPhase() int {
	if c.Phase == nil || *c.Phase < FirstPhase {
		return FirstPhase
	}
	return *c.Phase
}

// PurchasedAt returns the purchase date, falling back to the row creation time.
func (c *Challenge) PurchasedAt() time.Time {
	if c.PurchaseDate != nil && !c.PurchaseDate.IsZero() {
		return *c.PurchaseDate
	}
	return c.CreatedAt
}

// Clone returns a deep copy so callers can mutate without touching the original.
func (c *Challenge) Clone() *Challenge {
	cp := *c
	cp.TradingAccountID = cloneString(c.TradingAccountID)
	cp.TradingAccountPassword = cloneString(c.TradingAccountPassword)
	cp.TradingAccountServer = cloneString(c.TradingAccountServer)
	cp.AdminNote = cloneString(c.AdminNote)
	if c.Phase != nil {
		p := *c.Phase
		cp.Phase = &p
	}
	if c.PurchaseDate != nil {
		t := *c.PurchaseDate
		cp.PurchaseDate = &t
	}
	return &cp
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// StringPtr returns a pointer to s, or nil for the empty string.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StringValue dereferences s, returning "" for nil.
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
