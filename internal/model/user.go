package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User represents an authenticated account as reported by the auth provider.
type User struct {
	ID          uuid.UUID
	Email       string
	DisplayName string
	CreatedAt   time.Time
}

// Profile is the remote profile record kept alongside the provider account,
// keyed by the user id.
type Profile struct {
	Name      string
	Email     string
	CreatedAt time.Time
}

// ProfilePatch describes an update to a profile record. Nil fields are left
// untouched.
type ProfilePatch struct {
	Name *string
}

// ResolveDisplayName picks the name shown for a user: the provider display
// name when set, otherwise the profile record name, otherwise the local part
// of the email address. This is the single fallback chain used everywhere a
// display name is resolved.
func ResolveDisplayName(displayName, profileName, email string) string {
	if displayName != "" {
		return displayName
	}
	if profileName != "" {
		return profileName
	}
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return email
}
