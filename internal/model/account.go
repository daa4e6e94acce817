package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Account is a provider-side account record with credential material. It is
// internal to the auth provider; the session layer only ever sees User.
type Account struct {
	ID           uuid.UUID
	Email        string
	DisplayName  string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AccountStore defines persistence operations for provider accounts.
type AccountStore interface {
	CreateAccount(ctx context.Context, account Account) (Account, error)
	GetAccountByEmail(ctx context.Context, email string) (Account, error)
	GetAccountByID(ctx context.Context, id uuid.UUID) (Account, error)
	UpdateAccountDisplayName(ctx context.Context, id uuid.UUID, name string) error
	UpdateAccountPassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

// AsUser converts the account to its session-level view.
func (a Account) AsUser() User {
	return User{
		ID:          a.ID,
		Email:       a.Email,
		DisplayName: a.DisplayName,
		CreatedAt:   a.CreatedAt,
	}
}
