package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrUnauthenticated means no current user is signed in.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrForbidden means the entry is owned by a different user.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound means the requested record does not exist.
	ErrNotFound = errors.New("not found")
)

// ValidationError reports malformed input rejected before any remote call.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("validation failed: %s", strings.Join(names, ", "))
}

// RemoteError wraps a rejected remote store or provider call.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote %s failed: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// AuthCode is a provider-specific failure subcode. Mapping codes to
// user-facing copy is a presentation concern.
type AuthCode string

const (
	AuthCodeInvalidCredential AuthCode = "invalid-credential"
	AuthCodeEmailInUse        AuthCode = "email-in-use"
	AuthCodeWeakPassword      AuthCode = "weak-password"
	AuthCodeUserNotFound      AuthCode = "user-not-found"
)

// AuthError is a sign-in, register or reauthenticate rejection from the
// auth provider.
type AuthError struct {
	Code AuthCode
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth failed (%s): %v", e.Code, e.Err)
	}
	return fmt.Sprintf("auth failed (%s)", e.Code)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// NewAuthError wraps err with a provider subcode.
func NewAuthError(code AuthCode, err error) *AuthError {
	return &AuthError{Code: code, Err: err}
}
