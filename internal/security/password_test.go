package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testParams = Params{Time: 1, MemKiB: 1024, Par: 1}

func TestHashPassword_Verify(t *testing.T) {
	encoded, err := HashPassword("correct horse", testParams)
	require.NoError(t, err)

	ok, err := VerifyPassword("correct horse", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong horse", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPassword_Empty(t *testing.T) {
	_, err := HashPassword("", testParams)
	assert.Error(t, err)
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	a, err := HashPassword("same", testParams)
	require.NoError(t, err)
	b, err := HashPassword("same", testParams)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
	}{
		{"empty", ""},
		{"wrong algorithm", "$bcrypt$v=19$m=1024,t=1,p=1$c2FsdA$aGFzaA"},
		{"missing parts", "$argon2id$v=19$m=1024,t=1,p=1"},
		{"bad salt encoding", "$argon2id$v=19$m=1024,t=1,p=1$***$aGFzaA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := VerifyPassword("pw", tt.encoded)
			assert.ErrorIs(t, err, ErrInvalidHash)
		})
	}
}
