package domain

import (
	"strings"
	"time"
)

// User represents a registered member of a school. Username is always
// identical to Email; registration overwrites whatever the caller sent.
type User struct {
	ID           int64
	Username     string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// APIKey is the single opaque bearer token issued to a user. It is
// created lazily on first login and reused for every later login.
type APIKey struct {
	ID        int64
	UserID    int64
	Key       string
	CreatedAt time.Time
}

// EmailDomain returns the part of the user's email after "@", or "" when
// the email has no domain part.
func (u User) EmailDomain() string {
	if i := strings.LastIndex(u.Email, "@"); i >= 0 {
		return u.Email[i+1:]
	}
	return ""
}
