package domain

import "github.com/shopspring/decimal"

// Stats is a rollup over reconciled accounts and pending challenges.
type Stats struct {
	TotalAccounts       int             `json:"total_accounts"`
	ActiveAccounts      int             `json:"active_accounts"`
	BreachedAccounts    int             `json:"breached_accounts"`
	PassedAccounts      int             `json:"passed_accounts"`
	PendingChallenges   int             `json:"pending_challenges"`
	RejectedChallenges  int             `json:"rejected_challenges"`
	AwaitingCredentials int             `json:"awaiting_credentials"`
	TotalAccountSize    decimal.Decimal `json:"total_account_size"`
	ActiveAccountSize   decimal.Decimal `json:"active_account_size"`
	TotalAmountPaid     decimal.Decimal `json:"total_amount_paid"`
}
