package cryptoutil

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// Encryptor seals slot values at rest. The slot name is bound to the ciphertext,
// so a value copied into a different slot fails to open.
type Encryptor interface {
	Seal(slot string, plaintext []byte) ([]byte, error)
	Open(slot string, sealed []byte) ([]byte, error)
}

// AESGCMEncryptor implements Encryptor using AES-256-GCM.
type AESGCMEncryptor struct {
	aead cipher.AEAD
}

// Versioned prefix to allow future key/algorithm rotations without data migrations.
var sealedPrefixV1 = []byte("v1:")

// ErrEncryptedSlot is returned when an encrypted slot is read without a key.
var ErrEncryptedSlot = errors.New("slot is encrypted but no encryption key is configured")

// NewAESGCMEncryptor constructs a new AESGCMEncryptor. Key must be 32 bytes (AES-256).
func NewAESGCMEncryptor(key []byte) (*AESGCMEncryptor, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("aes-gcm key must be 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &AESGCMEncryptor{aead: gcm}, nil
}

// Seal encrypts plaintext with a random nonce and returns "v1:" + base64(nonce||ciphertext).
func (e *AESGCMEncryptor) Seal(slot string, plaintext []byte) ([]byte, error) {
	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	ct := e.aead.Seal(nonce, nonce, plaintext, []byte(slot))

	out := make([]byte, len(sealedPrefixV1)+base64.StdEncoding.EncodedLen(len(ct)))
	copy(out, sealedPrefixV1)
	base64.StdEncoding.Encode(out[len(sealedPrefixV1):], ct)
	return out, nil
}

// Open decrypts a value produced by Seal.
// Values without the version prefix were written before a key was configured and are returned as-is.
func (e *AESGCMEncryptor) Open(slot string, sealed []byte) ([]byte, error) {
	if !bytes.HasPrefix(sealed, sealedPrefixV1) {
		return sealed, nil
	}
	data := make([]byte, base64.StdEncoding.DecodedLen(len(sealed)-len(sealedPrefixV1)))
	n, err := base64.StdEncoding.Decode(data, sealed[len(sealedPrefixV1):])
	if err != nil {
		return nil, fmt.Errorf("decode sealed slot: %w", err)
	}
	data = data[:n]

	nonceSize := e.aead.NonceSize()
	if len(data) < nonceSize {
		return nil, errors.New("ciphertext too short")
	}
	pt, err := e.aead.Open(nil, data[:nonceSize], data[nonceSize:], []byte(slot))
	if err != nil {
		return nil, fmt.Errorf("open slot %s: %w", slot, err)
	}
	return pt, nil
}

// NoopEncryptor stores plaintext. It refuses to hand back sealed values it cannot read.
type NoopEncryptor struct{}

func (NoopEncryptor) Seal(_ string, plaintext []byte) ([]byte, error) {
	return plaintext, nil
}

func (NoopEncryptor) Open(_ string, sealed []byte) ([]byte, error) {
	if bytes.HasPrefix(sealed, sealedPrefixV1) {
		return nil, ErrEncryptedSlot
	}
	return sealed, nil
}
