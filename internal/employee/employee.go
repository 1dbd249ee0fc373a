package employee

import (
	"errors"
	"time"
)

// Roles. Admins manage employees, grant bonuses and read audit entries.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

var (
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrDuplicateEmail   = errors.New("email already registered")
	ErrInvalidRole      = errors.New("role must be user or admin")
)

// Employee is the domain view; the password hash never leaves the package.
type Employee struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Department string    `json:"department"`
	Role       string    `json:"role"`
	SlackID    string    `json:"slack_id,omitempty"`
	BonusCoins int       `json:"bonus_coins"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}
