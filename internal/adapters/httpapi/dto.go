package httpapi

import (
	"PropDesk/internal/core/domain"
	"PropDesk/internal/core/services/reconcile"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

// view selects which fields a caller may see.
type view int

const (
	adminView view = iota
	traderView
)

// AccountDTO is a challenge as returned by the API. User fields are only
// filled for reconciled accounts.
type AccountDTO struct {
	ID                     string          `json:"id"`
	UserID                 string          `json:"user_id"`
	DBSource               domain.Source   `json:"db_source"`
	ChallengeType          string          `json:"challenge_type"`
	AccountSize            decimal.Decimal `json:"account_size"`
	AmountPaid             decimal.Decimal `json:"amount_paid"`
	Status                 string          `json:"status"`
	DisplayStatus          string          `json:"display_status"`
	Phase                  int             `json:"phase"`
	TradingAccountID       *string         `json:"trading_account_id,omitempty"`
	TradingAccountPassword *string         `json:"trading_account_password,omitempty"`
	TradingAccountServer   *string         `json:"trading_account_server,omitempty"`
	CredentialsSent        bool            `json:"credentials_sent"`
	ContractSigned         bool            `json:"contract_signed"`
	CredentialsVisible     bool            `json:"credentials_visible"`
	CredentialsDisplayable bool            `json:"credentials_displayable"`
	AdminNote              *string         `json:"admin_note,omitempty"`
	PurchaseDate           time.Time       `json:"purchase_date"`
	UserEmail              string          `json:"user_email,omitempty"`
	UserName               string          `json:"user_name,omitempty"`
	FriendlyID             string          `json:"friendly_id,omitempty"`
}

// SourceDTO is one line of the reconciliation report.
type SourceDTO struct {
	Source     domain.Source `json:"source"`
	Available  bool          `json:"available"`
	Profiles   int           `json:"profiles"`
	Challenges int           `json:"challenges"`
	Error      string        `json:"error,omitempty"`
}

// DashboardDTO is the full reconciled view for an admin or a trader.
type DashboardDTO struct {
	Pending  []AccountDTO `json:"pending"`
	Rejected []AccountDTO `json:"rejected"`
	Accounts []AccountDTO `json:"accounts"`
	Stats    domain.Stats `json:"stats"`
	Sources  []SourceDTO  `json:"sources"`
	Degraded bool         `json:"degraded"`
	Warnings []string     `json:"warnings,omitempty"`
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

type noteRequest struct {
	Note string `json:"note"`
}

func newChallengeDTO(c domain.Challenge, v view) AccountDTO {
	status := domain.DeriveStatus(&c)
	dto := AccountDTO{
		ID:                     c.ID,
		UserID:                 c.UserID,
		DBSource:               c.DBSource,
		ChallengeType:          c.ChallengeType,
		AccountSize:            c.AccountSize,
		AmountPaid:             c.AmountPaid,
		Status:                 string(c.Status),
		DisplayStatus:          string(status),
		Phase:                  c.CurrentPhase(),
		TradingAccountID:       c.TradingAccountID,
		TradingAccountPassword: c.TradingAccountPassword,
		TradingAccountServer:   c.TradingAccountServer,
		CredentialsSent:        c.CredentialsSent,
		ContractSigned:         c.ContractSigned,
		CredentialsVisible:     c.CredentialsVisible,
		CredentialsDisplayable: status.CredentialsDisplayable(),
		AdminNote:              c.AdminNote,
		PurchaseDate:           c.PurchasedAt(),
	}
	if status == domain.DisplayBreached {
		redacted := domain.RedactedPassword
		dto.TradingAccountPassword = &redacted
	}
	if v == traderView {
		dto.AdminNote = nil
		if !dto.CredentialsDisplayable {
			dto.TradingAccountID = nil
			dto.TradingAccountPassword = nil
			dto.TradingAccountServer = nil
		}
	}
	return dto
}

func newAccountDTO(a reconcile.Account, v view) AccountDTO {
	dto := newChallengeDTO(a.Challenge, v)
	dto.DisplayStatus = string(a.DisplayStatus)
	dto.UserEmail = a.UserEmail
	dto.UserName = a.UserName
	dto.FriendlyID = a.FriendlyID
	return dto
}

func newAccountDTOs(accounts []reconcile.Account, v view) []AccountDTO {
	out := make([]AccountDTO, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, newAccountDTO(a, v))
	}
	return out
}

func newDashboardDTO(res *reconcile.Result, v view) DashboardDTO {
	dto := DashboardDTO{
		Pending:  newAccountDTOs(res.Pending, v),
		Rejected: newAccountDTOs(res.Rejected, v),
		Accounts: newAccountDTOs(res.Accounts, v),
		Stats:    res.Stats,
		Sources:  make([]SourceDTO, 0, len(res.Report.Sources)),
		Degraded: res.Report.Degraded(),
	}
	for _, s := range res.Report.Sources {
		sd := SourceDTO{
			Source:     s.Source,
			Available:  s.Available,
			Profiles:   s.Profiles,
			Challenges: s.Challenges,
		}
		if s.Err != nil && v == adminView {
			sd.Error = s.Err.Error()
		}
		dto.Sources = append(dto.Sources, sd)
	}
	if v == adminView {
		for _, err := range multierr.Errors(res.Report.Err()) {
			dto.Warnings = append(dto.Warnings, err.Error())
		}
	}
	return dto
}
