package ports

import (
	"context"
	"time"
)

// CredentialsNotice asks the backend to email released trading credentials.
type CredentialsNotice struct {
	UserID        string `json:"user_id"`
	ChallengeID   string `json:"challenge_id"`
	Source        string `json:"db_source"`
	Login         string `json:"login"`
	Password      string `json:"password"`
	Server        string `json:"server"`
	AccountSize   string `json:"account_size"`
	Phase         int    `json:"phase"`
	ChallengeType string `json:"challenge_type"`
}

// StatusNotice tells the backend a challenge changed status.
type StatusNotice struct {
	UserID      string    `json:"user_id"`
	ChallengeID string    `json:"challenge_id"`
	Source      string    `json:"db_source"`
	Status      string    `json:"status"`
	Reason      string    `json:"reason,omitempty"`
	Phase       int       `json:"phase"`
	NextID      string    `json:"next_challenge_id,omitempty"`
	At          time.Time `json:"at"`
}

// Backend is the small REST service that owns email side effects.
type Backend interface {
	SendCredentials(ctx context.Context, notice CredentialsNotice) error
	NotifyStatus(ctx context.Context, notice StatusNotice) error
}

// AdminNotifier posts short operational messages to the admin channel.
type AdminNotifier interface {
	NotifyAdmins(ctx context.Context, text string) error
}
