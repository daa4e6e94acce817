package model

import (
	"context"

	"github.com/google/uuid"
)

// Credentials is an email/password pair used for sign-in and
// reauthentication.
type Credentials struct {
	Email    string
	Password string
}

// AuthState is one auth-state-changed notification from the provider.
// SignedIn false means User is zero.
type AuthState struct {
	SignedIn bool
	User     User
}

// AuthProvider is the authentication capability consumed by the session
// manager. Failures are typed *AuthError values.
type AuthProvider interface {
	SignIn(ctx context.Context, email, password string) (User, error)
	SignUp(ctx context.Context, email, password string) (User, error)
	SignOut(ctx context.Context) error
	// AuthStates opens a stream of auth-state-changed notifications. The
	// current state is delivered first. The returned cancel func stops
	// delivery and releases the subscription.
	AuthStates(ctx context.Context) (<-chan AuthState, func(), error)
	UpdateDisplayName(ctx context.Context, userID uuid.UUID, name string) error
	Reauthenticate(ctx context.Context, cred Credentials) error
	UpdatePassword(ctx context.Context, userID uuid.UUID, newPassword string) error
}
