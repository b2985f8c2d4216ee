package user

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound = errors.New("user not found")
	ErrConflict = errors.New("user already exists")
)

type User struct {
	ID           int64
	Email        string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Public is the only shape of a user that leaves the store boundary.
type Public struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

func (u *User) Public() Public {
	return Public{ID: u.ID, Email: u.Email}
}

func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
