package securestore

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avasiliev/muscletrack/internal/model"
)

const testKey = "6d7573636c65747261636b2d6465762d7365637572652d73746f72652d6b6579"

func newTestStore(t *testing.T) *File {
	t.Helper()
	store, err := NewFile(filepath.Join(t.TempDir(), "keystore"), testKey)
	require.NoError(t, err)
	return store
}

func TestNewFile_BadKey(t *testing.T) {
	_, err := NewFile("x", "not-hex")
	assert.Error(t, err)

	_, err = NewFile("x", hex.EncodeToString([]byte("short")))
	assert.Error(t, err)
}

func TestFile_GetAbsent(t *testing.T) {
	store := newTestStore(t)

	_, ok, err := store.Get(model.SessionPointerKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFile_SetGetDelete(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set(model.SessionPointerKey, "user-123"))

	value, ok, err := store.Get(model.SessionPointerKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "user-123", value)

	require.NoError(t, store.Delete(model.SessionPointerKey))

	_, ok, err = store.Get(model.SessionPointerKey)
	require.NoError(t, err)
	assert.False(t, ok)

	// deleting again is a no-op
	require.NoError(t, store.Delete(model.SessionPointerKey))
}

func TestFile_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keystore")

	first, err := NewFile(path, testKey)
	require.NoError(t, err)
	require.NoError(t, first.Set(model.SessionPointerKey, "user-456"))

	second, err := NewFile(path, testKey)
	require.NoError(t, err)
	value, ok, err := second.Get(model.SessionPointerKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "user-456", value)
}

func TestFile_CiphertextOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keystore")

	store, err := NewFile(path, testKey)
	require.NoError(t, err)
	require.NoError(t, store.Set(model.SessionPointerKey, "user-789"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "user-789")
}

func TestFile_WrongKeyFailsClosed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keystore")

	store, err := NewFile(path, testKey)
	require.NoError(t, err)
	require.NoError(t, store.Set(model.SessionPointerKey, "user-000"))

	otherKey := hex.EncodeToString(make([]byte, 32))
	other, err := NewFile(path, otherKey)
	require.NoError(t, err)

	_, _, err = other.Get(model.SessionPointerKey)
	assert.Error(t, err)
}
