package domain

import "strings"

// UserProfile is a user's profile row. After merging there is exactly one per UserID.
type UserProfile struct {
	UserID     string
	Email      string
	FirstName  string
	LastName   string
	FriendlyID string
	FullName   string
}

// AuthUser is one entry of the authentication provider's user listing.
type AuthUser struct {
	ID       string
	Email    string
	Metadata map[string]any
}

// JoinName trims "first last" into a display name.
func JoinName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}

// DisplayName prefers the joined first/last name and falls back to FullName.
func (p UserProfile) DisplayName() string {
	if name := JoinName(p.FirstName, p.LastName); name != "" {
		return name
	}
	return strings.TrimSpace(p.FullName)
}

// MetadataString reads a string value from the provider metadata.
func (u AuthUser) MetadataString(key string) string {
	if u.Metadata == nil {
		return ""
	}
	v, ok := u.Metadata[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}
