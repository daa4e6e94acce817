package model

// SessionState enumerates the auth session state machine.
type SessionState int

const (
	// SessionSignedOut is the anonymous state.
	SessionSignedOut SessionState = iota
	// SessionAuthenticating is the transient state during sign-in or
	// registration.
	SessionAuthenticating
	// SessionSignedIn means a current user is established.
	SessionSignedIn
)

func (s SessionState) String() string {
	switch s {
	case SessionSignedOut:
		return "signed-out"
	case SessionAuthenticating:
		return "authenticating"
	case SessionSignedIn:
		return "signed-in"
	default:
		return "unknown"
	}
}
