package domain

import "errors"

var (
	ErrUnknownSource      = errors.New("unknown source")
	ErrSourceUnavailable  = errors.New("source unavailable")
	ErrChallengeNotFound  = errors.New("challenge not found")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrMissingCredentials = errors.New("challenge has no trading account")
	ErrContractNotSigned  = errors.New("contract not signed")
	ErrFinalPhase         = errors.New("challenge is already in the final phase")
	ErrNotOwner           = errors.New("challenge belongs to another user")
)
