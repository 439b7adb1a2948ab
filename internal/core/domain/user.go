package domain

import (
	"strings"
	"time"
)

type User struct {
	ID                string
	Email             string
	Name              string
	EncryptedPassword string
	CreatedAt         time.Time
}

// Principal is the verified identity of a caller. UserID is the stable
// identifier tasks are owned by (the user's normalized email).
type Principal struct {
	UserID string
	Name   string
}

func (p Principal) IsAuthenticated() bool {
	return p.UserID != ""
}

func (u *User) Principal() Principal {
	return Principal{UserID: u.Email, Name: u.Name}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// DefaultName derives a display name from the local part of an email.
func DefaultName(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return strings.TrimSpace(local)
}
