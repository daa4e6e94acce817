// Package provider implements the auth provider capability locally:
// accounts live in the application database, passwords are verified with
// Argon2id and sign-in mints a JWT that is persisted through the secure
// store so a session survives process restarts.
package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/avasiliev/muscletrack/internal/logger"
	"github.com/avasiliev/muscletrack/internal/model"
	"github.com/avasiliev/muscletrack/internal/security"
)

var _ model.AuthProvider = (*Local)(nil)

// tokenKey is the secure-store key holding the persisted provider token.
// It is distinct from the session manager's cached user id pointer.
const tokenKey = "authToken"

// minPasswordLen is the weak-password threshold applied on sign-up and
// password change.
const minPasswordLen = 6

// Local is a database-backed AuthProvider.
type Local struct {
	accounts model.AccountStore
	tokens   model.TokenManager
	secure   model.SecureStore
	params   security.Params
	logger   *logger.Logger

	mu      sync.Mutex
	current *model.User
	subs    map[int]chan model.AuthState
	nextSub int
}

func NewLocal(
	accounts model.AccountStore,
	tokens model.TokenManager,
	secure model.SecureStore,
	params security.Params,
	logger *logger.Logger,
) *Local {
	return &Local{
		accounts: accounts,
		tokens:   tokens,
		secure:   secure,
		params:   params,
		logger:   logger,
		subs:     map[int]chan model.AuthState{},
	}
}

// Start loads a previously persisted provider token and re-establishes the
// signed-in user from it. An expired or orphaned token is discarded and the
// provider starts signed out; that is not an error.
func (p *Local) Start(ctx context.Context) error {
	token, ok, err := p.secure.Get(tokenKey)
	if err != nil {
		return fmt.Errorf("failed to read persisted token: %w", err)
	}
	if !ok {
		return nil
	}

	userID, err := p.tokens.ParseAccessToken(token)
	if err != nil {
		p.logger.Info("auth provider: discarding invalid persisted token", "error", err.Error())
		return p.secure.Delete(tokenKey)
	}

	account, err := p.accounts.GetAccountByID(ctx, userID)
	if errors.Is(err, model.ErrNotFound) {
		p.logger.Info("auth provider: persisted token references unknown account", "user_id", userID)
		return p.secure.Delete(tokenKey)
	}
	if err != nil {
		return fmt.Errorf("failed to load account for persisted token: %w", err)
	}

	p.setCurrent(account.AsUser())
	return nil
}

func (p *Local) SignIn(ctx context.Context, email, password string) (model.User, error) {
	account, err := p.accounts.GetAccountByEmail(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		return model.User{}, model.NewAuthError(model.AuthCodeInvalidCredential, errors.New("unknown email or wrong password"))
	}
	if err != nil {
		return model.User{}, &model.RemoteError{Op: "sign-in", Err: err}
	}

	ok, err := security.VerifyPassword(password, account.PasswordHash)
	if err != nil {
		return model.User{}, &model.RemoteError{Op: "sign-in", Err: err}
	}
	if !ok {
		return model.User{}, model.NewAuthError(model.AuthCodeInvalidCredential, errors.New("unknown email or wrong password"))
	}

	if err := p.persistToken(account.ID); err != nil {
		return model.User{}, err
	}

	user := account.AsUser()
	p.setCurrent(user)
	p.logger.Info("auth provider: user signed in", "user_id", user.ID)

	return user, nil
}

func (p *Local) SignUp(ctx context.Context, email, password string) (model.User, error) {
	if len(password) < minPasswordLen {
		return model.User{}, model.NewAuthError(model.AuthCodeWeakPassword,
			fmt.Errorf("password must be at least %d characters", minPasswordLen))
	}

	_, err := p.accounts.GetAccountByEmail(ctx, email)
	if err == nil {
		return model.User{}, model.NewAuthError(model.AuthCodeEmailInUse, fmt.Errorf("email %s already registered", email))
	}
	if !errors.Is(err, model.ErrNotFound) {
		return model.User{}, &model.RemoteError{Op: "sign-up", Err: err}
	}

	hash, err := security.HashPassword(password, p.params)
	if err != nil {
		return model.User{}, &model.RemoteError{Op: "sign-up", Err: err}
	}

	account, err := p.accounts.CreateAccount(ctx, model.Account{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		return model.User{}, &model.RemoteError{Op: "sign-up", Err: err}
	}

	if err := p.persistToken(account.ID); err != nil {
		return model.User{}, err
	}

	user := account.AsUser()
	p.setCurrent(user)
	p.logger.Info("auth provider: user registered", "user_id", user.ID)

	return user, nil
}

func (p *Local) SignOut(ctx context.Context) error {
	err := p.secure.Delete(tokenKey)

	p.mu.Lock()
	p.current = nil
	p.mu.Unlock()
	p.broadcast(model.AuthState{})

	if err != nil {
		return &model.RemoteError{Op: "sign-out", Err: err}
	}
	return nil
}

// AuthStates opens an auth-state stream. The current state is delivered
// first; later transitions follow. Cancel stops delivery and closes the
// channel.
func (p *Local) AuthStates(ctx context.Context) (<-chan model.AuthState, func(), error) {
	ch := make(chan model.AuthState, 8)

	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = ch
	ch <- p.stateLocked()
	p.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subs, id)
			p.mu.Unlock()
			close(ch)
		})
	}

	stop := context.AfterFunc(ctx, cancel)
	return ch, func() {
		stop()
		cancel()
	}, nil
}

func (p *Local) UpdateDisplayName(ctx context.Context, userID uuid.UUID, name string) error {
	if err := p.accounts.UpdateAccountDisplayName(ctx, userID, name); err != nil {
		return &model.RemoteError{Op: "update-display-name", Err: err}
	}

	p.mu.Lock()
	if p.current != nil && p.current.ID == userID {
		p.current.DisplayName = name
	}
	p.mu.Unlock()

	return nil
}

func (p *Local) Reauthenticate(ctx context.Context, cred model.Credentials) error {
	account, err := p.accounts.GetAccountByEmail(ctx, cred.Email)
	if errors.Is(err, model.ErrNotFound) {
		return model.NewAuthError(model.AuthCodeInvalidCredential, errors.New("unknown email or wrong password"))
	}
	if err != nil {
		return &model.RemoteError{Op: "reauthenticate", Err: err}
	}

	ok, err := security.VerifyPassword(cred.Password, account.PasswordHash)
	if err != nil {
		return &model.RemoteError{Op: "reauthenticate", Err: err}
	}
	if !ok {
		return model.NewAuthError(model.AuthCodeInvalidCredential, errors.New("unknown email or wrong password"))
	}

	return nil
}

func (p *Local) UpdatePassword(ctx context.Context, userID uuid.UUID, newPassword string) error {
	if len(newPassword) < minPasswordLen {
		return model.NewAuthError(model.AuthCodeWeakPassword,
			fmt.Errorf("password must be at least %d characters", minPasswordLen))
	}

	hash, err := security.HashPassword(newPassword, p.params)
	if err != nil {
		return &model.RemoteError{Op: "update-password", Err: err}
	}

	if err := p.accounts.UpdateAccountPassword(ctx, userID, hash); err != nil {
		return &model.RemoteError{Op: "update-password", Err: err}
	}

	return nil
}

func (p *Local) persistToken(userID uuid.UUID) error {
	token, err := p.tokens.GenerateAccessToken(userID)
	if err != nil {
		return &model.RemoteError{Op: "mint-token", Err: err}
	}
	if err := p.secure.Set(tokenKey, token); err != nil {
		return &model.RemoteError{Op: "persist-token", Err: err}
	}
	return nil
}

func (p *Local) setCurrent(user model.User) {
	p.mu.Lock()
	p.current = &user
	p.mu.Unlock()
	p.broadcast(model.AuthState{SignedIn: true, User: user})
}

func (p *Local) stateLocked() model.AuthState {
	if p.current == nil {
		return model.AuthState{}
	}
	return model.AuthState{SignedIn: true, User: *p.current}
}

func (p *Local) broadcast(state model.AuthState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, ch := range p.subs {
		select {
		case ch <- state:
		default:
			p.logger.Debug("auth provider: dropping state for slow subscriber", "sub", id)
		}
	}
}
