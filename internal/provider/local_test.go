package provider

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/avasiliev/muscletrack/internal/model"
	"github.com/avasiliev/muscletrack/internal/security"
	"github.com/avasiliev/muscletrack/internal/testutil"
	"github.com/avasiliev/muscletrack/internal/token"
)

var testParams = security.Params{Time: 1, MemKiB: 1024, Par: 1}

// MockAccountStore mocks the AccountStore interface
type MockAccountStore struct {
	mock.Mock
}

func (m *MockAccountStore) CreateAccount(ctx context.Context, account model.Account) (model.Account, error) {
	args := m.Called(ctx, account)
	return args.Get(0).(model.Account), args.Error(1)
}

func (m *MockAccountStore) GetAccountByEmail(ctx context.Context, email string) (model.Account, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.Account), args.Error(1)
}

func (m *MockAccountStore) GetAccountByID(ctx context.Context, id uuid.UUID) (model.Account, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Account), args.Error(1)
}

func (m *MockAccountStore) UpdateAccountDisplayName(ctx context.Context, id uuid.UUID, name string) error {
	args := m.Called(ctx, id, name)
	return args.Error(0)
}

func (m *MockAccountStore) UpdateAccountPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

// memStore is an in-memory SecureStore for tests.
type memStore struct {
	values map[string]string
}

func newMemStore() *memStore {
	return &memStore{values: map[string]string{}}
}

func (s *memStore) Get(key string) (string, bool, error) {
	value, ok := s.values[key]
	return value, ok, nil
}

func (s *memStore) Set(key, value string) error {
	s.values[key] = value
	return nil
}

func (s *memStore) Delete(key string) error {
	delete(s.values, key)
	return nil
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, testParams)
	require.NoError(t, err)
	return hash
}

func newTestProvider(accounts model.AccountStore, secure model.SecureStore) *Local {
	return NewLocal(accounts, token.NewJWT("test-secret"), secure, testParams, testutil.MakeNoopLogger())
}

func TestLocal_SignIn_Success(t *testing.T) {
	ctx := context.Background()
	accounts := &MockAccountStore{}
	secure := newMemStore()

	accountID := uuid.New()
	accounts.On("GetAccountByEmail", mock.Anything, "a@b.c").Return(model.Account{
		ID:           accountID,
		Email:        "a@b.c",
		DisplayName:  "Alice",
		PasswordHash: hashed(t, "sesame123"),
	}, nil)

	p := newTestProvider(accounts, secure)

	user, err := p.SignIn(ctx, "a@b.c", "sesame123")
	require.NoError(t, err)
	assert.Equal(t, accountID, user.ID)
	assert.Equal(t, "Alice", user.DisplayName)

	_, ok, err := secure.Get(tokenKey)
	require.NoError(t, err)
	assert.True(t, ok, "token should be persisted")
}

func TestLocal_SignIn_WrongPassword(t *testing.T) {
	ctx := context.Background()
	accounts := &MockAccountStore{}

	accounts.On("GetAccountByEmail", mock.Anything, "a@b.c").Return(model.Account{
		ID:           uuid.New(),
		Email:        "a@b.c",
		PasswordHash: hashed(t, "sesame123"),
	}, nil)

	p := newTestProvider(accounts, newMemStore())

	_, err := p.SignIn(ctx, "a@b.c", "open sesame")
	var authErr *model.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, model.AuthCodeInvalidCredential, authErr.Code)
}

func TestLocal_SignIn_UnknownEmail(t *testing.T) {
	ctx := context.Background()
	accounts := &MockAccountStore{}

	accounts.On("GetAccountByEmail", mock.Anything, "nobody@b.c").Return(model.Account{}, model.ErrNotFound)

	p := newTestProvider(accounts, newMemStore())

	_, err := p.SignIn(ctx, "nobody@b.c", "whatever1")
	var authErr *model.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, model.AuthCodeInvalidCredential, authErr.Code)
}

func TestLocal_SignUp_Success(t *testing.T) {
	ctx := context.Background()
	accounts := &MockAccountStore{}

	accounts.On("GetAccountByEmail", mock.Anything, "new@b.c").Return(model.Account{}, model.ErrNotFound)
	accounts.On("CreateAccount", mock.Anything, mock.MatchedBy(func(a model.Account) bool {
		return a.Email == "new@b.c" && a.PasswordHash != "" && a.PasswordHash != "sesame123"
	})).Return(model.Account{ID: uuid.New(), Email: "new@b.c"}, nil)

	p := newTestProvider(accounts, newMemStore())

	user, err := p.SignUp(ctx, "new@b.c", "sesame123")
	require.NoError(t, err)
	assert.Equal(t, "new@b.c", user.Email)
	accounts.AssertExpectations(t)
}

func TestLocal_SignUp_EmailInUse(t *testing.T) {
	ctx := context.Background()
	accounts := &MockAccountStore{}

	accounts.On("GetAccountByEmail", mock.Anything, "taken@b.c").Return(model.Account{ID: uuid.New()}, nil)

	p := newTestProvider(accounts, newMemStore())

	_, err := p.SignUp(ctx, "taken@b.c", "sesame123")
	var authErr *model.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, model.AuthCodeEmailInUse, authErr.Code)
}

func TestLocal_SignUp_WeakPassword(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(&MockAccountStore{}, newMemStore())

	_, err := p.SignUp(ctx, "new@b.c", "short")
	var authErr *model.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, model.AuthCodeWeakPassword, authErr.Code)
}

func TestLocal_AuthStates_FirstEventIsCurrentState(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(&MockAccountStore{}, newMemStore())

	states, cancel, err := p.AuthStates(ctx)
	require.NoError(t, err)
	defer cancel()

	first := <-states
	assert.False(t, first.SignedIn)
}

func TestLocal_AuthStates_SeesSignInAndOut(t *testing.T) {
	ctx := context.Background()
	accounts := &MockAccountStore{}
	accountID := uuid.New()
	accounts.On("GetAccountByEmail", mock.Anything, "a@b.c").Return(model.Account{
		ID:           accountID,
		Email:        "a@b.c",
		PasswordHash: hashed(t, "sesame123"),
	}, nil)

	p := newTestProvider(accounts, newMemStore())

	states, cancel, err := p.AuthStates(ctx)
	require.NoError(t, err)
	defer cancel()

	<-states // initial signed-out

	_, err = p.SignIn(ctx, "a@b.c", "sesame123")
	require.NoError(t, err)

	signedIn := <-states
	require.True(t, signedIn.SignedIn)
	assert.Equal(t, accountID, signedIn.User.ID)

	require.NoError(t, p.SignOut(ctx))
	signedOut := <-states
	assert.False(t, signedOut.SignedIn)
}

func TestLocal_Start_RestoresPersistedSession(t *testing.T) {
	ctx := context.Background()
	accounts := &MockAccountStore{}
	secure := newMemStore()
	accountID := uuid.New()

	tokens := token.NewJWT("test-secret")
	persisted, err := tokens.GenerateAccessToken(accountID)
	require.NoError(t, err)
	require.NoError(t, secure.Set(tokenKey, persisted))

	accounts.On("GetAccountByID", mock.Anything, accountID).Return(model.Account{
		ID:    accountID,
		Email: "a@b.c",
	}, nil)

	p := NewLocal(accounts, tokens, secure, testParams, testutil.MakeNoopLogger())
	require.NoError(t, p.Start(ctx))

	states, cancel, err := p.AuthStates(ctx)
	require.NoError(t, err)
	defer cancel()

	first := <-states
	require.True(t, first.SignedIn)
	assert.Equal(t, accountID, first.User.ID)
}

func TestLocal_Start_DiscardsBadToken(t *testing.T) {
	ctx := context.Background()
	secure := newMemStore()
	require.NoError(t, secure.Set(tokenKey, "garbage"))

	p := newTestProvider(&MockAccountStore{}, secure)
	require.NoError(t, p.Start(ctx))

	_, ok, err := secure.Get(tokenKey)
	require.NoError(t, err)
	assert.False(t, ok, "bad token should be deleted")
}

func TestLocal_Reauthenticate(t *testing.T) {
	ctx := context.Background()
	accounts := &MockAccountStore{}
	accounts.On("GetAccountByEmail", mock.Anything, "a@b.c").Return(model.Account{
		ID:           uuid.New(),
		Email:        "a@b.c",
		PasswordHash: hashed(t, "sesame123"),
	}, nil)

	p := newTestProvider(accounts, newMemStore())

	require.NoError(t, p.Reauthenticate(ctx, model.Credentials{Email: "a@b.c", Password: "sesame123"}))

	err := p.Reauthenticate(ctx, model.Credentials{Email: "a@b.c", Password: "nope nope"})
	var authErr *model.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, model.AuthCodeInvalidCredential, authErr.Code)
}
