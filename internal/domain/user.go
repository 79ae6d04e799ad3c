package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID       uuid.UUID
	Username string
	// PasswordHash is the bcrypt hash of the account password. Plaintext
	// passwords never reach the domain layer.
	PasswordHash string
	CreatedAt    time.Time
}

type UserRepository interface {
	GetByID(ctx context.Context, userID uuid.UUID) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	// Create inserts a new account. Returns ErrUsernameTaken when the
	// username's unique constraint is violated.
	Create(ctx context.Context, username, passwordHash string) (*User, error)
}
