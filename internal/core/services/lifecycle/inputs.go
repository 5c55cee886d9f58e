package lifecycle

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Credentials are the trading-platform login assigned by an admin.
type Credentials struct {
	Login    string `json:"login" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=128"`
	Server   string `json:"server" validate:"required,max=128"`
}

// trimmed drops surrounding whitespace so a blank field fails "required".
func (c Credentials) trimmed() Credentials {
	return Credentials{
		Login:    strings.TrimSpace(c.Login),
		Password: strings.TrimSpace(c.Password),
		Server:   strings.TrimSpace(c.Server),
	}
}

// Edit changes admin-editable challenge details. Nil fields are left alone.
type Edit struct {
	ChallengeType        *string          `json:"challenge_type" validate:"omitempty,min=1,max=64"`
	AccountSize          *decimal.Decimal `json:"account_size"`
	Phase                *int             `json:"phase" validate:"omitempty,min=1,max=3"`
	TradingAccountServer *string          `json:"trading_account_server" validate:"omitempty,max=128"`
}

type reasonInput struct {
	Reason string `json:"reason" validate:"required,max=2000"`
}

type noteInput struct {
	Note string `json:"note" validate:"max=2000"`
}

type ownerInput struct {
	UserID string `json:"user_id" validate:"required"`
}
