// Package securestore realizes the local secure key-value capability as a
// single encrypted file. It only ever holds the cached session pointer, so
// a whole-file rewrite per mutation is fine.
package securestore

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/avasiliev/muscletrack/internal/model"
)

var _ model.SecureStore = (*File)(nil)

// File is an encrypted-file secure store. Values are kept as a JSON map
// sealed with XChaCha20-Poly1305; the nonce is prepended to the ciphertext.
type File struct {
	mu   sync.Mutex
	path string
	key  []byte
}

// NewFile creates a secure store at path. hexKey must decode to 32 bytes.
func NewFile(path, hexKey string) (*File, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode secure store key: %w", err)
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("secure store key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}

	return &File{path: path, key: key}, nil
}

// Get returns the value stored under key, with ok false when absent.
func (f *File) Get(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return "", false, err
	}

	value, ok := values[key]
	return value, ok, nil
}

// Set stores value under key.
func (f *File) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return err
	}

	values[key] = value
	return f.save(values)
}

// Delete removes key. Deleting an absent key is not an error.
func (f *File) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return err
	}

	if _, ok := values[key]; !ok {
		return nil
	}

	delete(values, key)
	return f.save(values)
}

func (f *File) load() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read secure store: %w", err)
	}

	aead, err := chacha20poly1305.NewX(f.key)
	if err != nil {
		return nil, fmt.Errorf("failed to init cipher: %w", err)
	}
	if len(data) < aead.NonceSize() {
		return nil, fmt.Errorf("secure store file is truncated")
	}

	nonce, ciphertext := data[:aead.NonceSize()], data[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt secure store: %w", err)
	}

	values := map[string]string{}
	if err := json.Unmarshal(plaintext, &values); err != nil {
		return nil, fmt.Errorf("failed to decode secure store: %w", err)
	}

	return values, nil
}

func (f *File) save(values map[string]string) error {
	plaintext, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to encode secure store: %w", err)
	}

	aead, err := chacha20poly1305.NewX(f.key)
	if err != nil {
		return fmt.Errorf("failed to init cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, plaintext, nil)
	if err := os.WriteFile(f.path, sealed, 0o600); err != nil {
		return fmt.Errorf("failed to write secure store: %w", err)
	}

	return nil
}
