package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/avasiliev/muscletrack/internal/logger"
	"github.com/avasiliev/muscletrack/internal/model"
)

// ProfileUpdate is the patch accepted by UpdateProfile. A password change
// requires both password fields; supplying only one fails closed.
type ProfileUpdate struct {
	Name            *string
	CurrentPassword string
	NewPassword     string
}

// Session owns the current-user identity. It drives the
// SignedOut/Authenticating/SignedIn state machine against the auth
// provider, persists the session pointer in the secure store and exposes
// the identity the entry service scopes everything to.
type Session struct {
	provider model.AuthProvider
	profiles model.ProfileStore
	secure   model.SecureStore
	logger   *logger.Logger

	mu    sync.Mutex
	state model.SessionState
	user  model.User

	loading atomic.Bool

	errMu   sync.Mutex
	lastErr error
}

func NewSession(
	provider model.AuthProvider,
	profiles model.ProfileStore,
	secure model.SecureStore,
	logger *logger.Logger,
) *Session {
	return &Session{
		provider: provider,
		profiles: profiles,
		secure:   secure,
		logger:   logger,
		state:    model.SessionSignedOut,
	}
}

// CurrentUser returns the signed-in user, with ok false when anonymous.
func (s *Session) CurrentUser() (model.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != model.SessionSignedIn {
		return model.User{}, false
	}
	return s.user, true
}

// State returns the current session state.
func (s *Session) State() model.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Loading reports whether an auth operation is in flight.
func (s *Session) Loading() bool {
	return s.loading.Load()
}

// LastError returns the most recent failure, for callers that ignored a
// return value.
func (s *Session) LastError() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.lastErr
}

// SignIn authenticates against the provider and establishes the session.
// The raw password is never logged.
func (s *Session) SignIn(ctx context.Context, email, password string) error {
	s.loading.Store(true)
	defer s.loading.Store(false)

	s.setState(model.SessionAuthenticating, model.User{})
	s.logger.Debug("session: signing in", "email", email)

	user, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		s.setState(model.SessionSignedOut, model.User{})
		s.logger.Info("session: sign-in failed", "email", email, "error", err.Error())
		return s.fail(err)
	}

	user.DisplayName = s.resolveDisplayName(ctx, user)

	if err := s.secure.Set(model.SessionPointerKey, user.ID.String()); err != nil {
		s.setState(model.SessionSignedOut, model.User{})
		return s.fail(&model.RemoteError{Op: "persist-session-pointer", Err: err})
	}

	s.setState(model.SessionSignedIn, user)
	s.logger.Info("session: signed in", "user_id", user.ID)
	return nil
}

// Register creates a provider account, sets its display name, writes the
// profile record keyed by the new user id and establishes the session.
func (s *Session) Register(ctx context.Context, name, email, password string) error {
	s.loading.Store(true)
	defer s.loading.Store(false)

	s.setState(model.SessionAuthenticating, model.User{})
	s.logger.Debug("session: registering", "email", email)

	user, err := s.provider.SignUp(ctx, email, password)
	if err != nil {
		s.setState(model.SessionSignedOut, model.User{})
		s.logger.Info("session: registration failed", "email", email, "error", err.Error())
		return s.fail(err)
	}

	if err := s.provider.UpdateDisplayName(ctx, user.ID, name); err != nil {
		s.setState(model.SessionSignedOut, model.User{})
		return s.fail(err)
	}

	if err := s.profiles.CreateProfile(ctx, user.ID, model.Profile{Name: name, Email: email}); err != nil {
		s.setState(model.SessionSignedOut, model.User{})
		return s.fail(&model.RemoteError{Op: "create-profile", Err: err})
	}

	if err := s.secure.Set(model.SessionPointerKey, user.ID.String()); err != nil {
		s.setState(model.SessionSignedOut, model.User{})
		return s.fail(&model.RemoteError{Op: "persist-session-pointer", Err: err})
	}

	user.DisplayName = name
	s.setState(model.SessionSignedIn, user)
	s.logger.Info("session: registered", "user_id", user.ID)
	return nil
}

// RestoreSession is the one-shot bootstrap invoked at process start. It
// awaits exactly the first auth-state notification, then unsubscribes. A
// stale session pointer left behind by a previous process is deleted when
// the provider reports signed-out.
func (s *Session) RestoreSession(ctx context.Context) error {
	states, cancel, err := s.provider.AuthStates(ctx)
	if err != nil {
		return s.fail(&model.RemoteError{Op: "auth-states", Err: err})
	}
	defer cancel()

	state, err := firstState(ctx, states)
	if err != nil {
		return s.fail(fmt.Errorf("failed to observe auth state: %w", err))
	}

	if !state.SignedIn {
		if _, ok, err := s.secure.Get(model.SessionPointerKey); err == nil && ok {
			s.logger.Info("session: deleting stale session pointer")
			if err := s.secure.Delete(model.SessionPointerKey); err != nil {
				return s.fail(&model.RemoteError{Op: "delete-session-pointer", Err: err})
			}
		}
		s.setState(model.SessionSignedOut, model.User{})
		return nil
	}

	user := state.User
	user.DisplayName = s.resolveDisplayName(ctx, user)

	if err := s.secure.Set(model.SessionPointerKey, user.ID.String()); err != nil {
		return s.fail(&model.RemoteError{Op: "persist-session-pointer", Err: err})
	}

	s.setState(model.SessionSignedIn, user)
	s.logger.Info("session: restored", "user_id", user.ID)
	return nil
}

// SignOut clears local state unconditionally. A failed provider call still
// leaves the device signed out locally; the error is reported but the
// session is gone either way.
func (s *Session) SignOut(ctx context.Context) error {
	s.loading.Store(true)
	defer s.loading.Store(false)

	err := s.provider.SignOut(ctx)

	if deleteErr := s.secure.Delete(model.SessionPointerKey); deleteErr != nil && err == nil {
		err = &model.RemoteError{Op: "delete-session-pointer", Err: deleteErr}
	}

	s.setState(model.SessionSignedOut, model.User{})
	s.logger.Info("session: signed out")

	if err != nil {
		return s.fail(err)
	}
	return nil
}

// UpdateProfile applies a display-name and/or password change. A password
// change re-authenticates with the current credential first and fails
// closed when that step fails or half the password pair is missing.
func (s *Session) UpdateProfile(ctx context.Context, patch ProfileUpdate) error {
	user, ok := s.CurrentUser()
	if !ok {
		return s.fail(model.ErrUnauthenticated)
	}

	s.loading.Store(true)
	defer s.loading.Store(false)

	wantsPasswordChange := patch.CurrentPassword != "" || patch.NewPassword != ""
	if wantsPasswordChange && (patch.CurrentPassword == "" || patch.NewPassword == "") {
		return s.fail(&model.ValidationError{Fields: map[string]string{
			"password": "both current and new password are required",
		}})
	}

	if wantsPasswordChange {
		cred := model.Credentials{Email: user.Email, Password: patch.CurrentPassword}
		if err := s.provider.Reauthenticate(ctx, cred); err != nil {
			s.logger.Info("session: reauthentication failed", "user_id", user.ID)
			return s.fail(err)
		}
		if err := s.provider.UpdatePassword(ctx, user.ID, patch.NewPassword); err != nil {
			return s.fail(err)
		}
	}

	if patch.Name != nil {
		if err := s.provider.UpdateDisplayName(ctx, user.ID, *patch.Name); err != nil {
			return s.fail(err)
		}

		err := s.profiles.UpdateProfile(ctx, user.ID, model.ProfilePatch{Name: patch.Name})
		if errors.Is(err, model.ErrNotFound) {
			// Older accounts may predate profile records; create on demand.
			err = s.profiles.CreateProfile(ctx, user.ID, model.Profile{Name: *patch.Name, Email: user.Email})
		}
		if err != nil {
			return s.fail(&model.RemoteError{Op: "update-profile", Err: err})
		}

		s.mu.Lock()
		if s.state == model.SessionSignedIn {
			s.user.DisplayName = *patch.Name
		}
		s.mu.Unlock()
	}

	s.logger.Info("session: profile updated", "user_id", user.ID)
	return nil
}

func (s *Session) resolveDisplayName(ctx context.Context, user model.User) string {
	profileName := ""
	profile, err := s.profiles.GetProfile(ctx, user.ID)
	if err == nil {
		profileName = profile.Name
	} else if !errors.Is(err, model.ErrNotFound) {
		s.logger.Debug("session: profile lookup failed", "user_id", user.ID, "error", err.Error())
	}
	return model.ResolveDisplayName(user.DisplayName, profileName, user.Email)
}

func (s *Session) setState(state model.SessionState, user model.User) {
	s.mu.Lock()
	s.state = state
	s.user = user
	s.mu.Unlock()
}

func (s *Session) fail(err error) error {
	s.errMu.Lock()
	s.lastErr = err
	s.errMu.Unlock()
	return err
}
