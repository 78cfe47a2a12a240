package bootstrap

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/corruptguard/helix/internal/data/cryptoutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateEncryptor_EmptyKey(t *testing.T) {
	enc, err := CreateEncryptor("", nil)
	require.NoError(t, err)
	assert.IsType(t, cryptoutil.NoopEncryptor{}, enc)
}

func TestCreateEncryptor_RoundTrip(t *testing.T) {
	enc, err := CreateEncryptor("correct horse battery staple", nil)
	require.NoError(t, err)

	sealed, err := enc.Seal("authToken", []byte("tok-1"))
	require.NoError(t, err)
	assert.NotEqual(t, []byte("tok-1"), sealed)

	plain, err := enc.Open("authToken", sealed)
	require.NoError(t, err)
	assert.Equal(t, []byte("tok-1"), plain)
}

func TestDeriveKey(t *testing.T) {
	raw := bytes.Repeat([]byte{0xab}, 32)
	assert.Equal(t, raw, deriveKey(hex.EncodeToString(raw)))

	hashed := deriveKey("short")
	assert.Len(t, hashed, 32)
	assert.Equal(t, hashed, deriveKey("short"))
	assert.NotEqual(t, hashed, deriveKey("other"))
}
