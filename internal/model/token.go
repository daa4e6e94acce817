package model

import "github.com/google/uuid"

// TokenManager generates and validates access tokens minted by the local
// auth provider on sign-in.
type TokenManager interface {
	GenerateAccessToken(userID uuid.UUID) (string, error)
	ParseAccessToken(token string) (uuid.UUID, error)
}
