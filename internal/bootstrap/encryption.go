package bootstrap

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"

	"github.com/corruptguard/helix/internal/data/cryptoutil"
)

// CreateEncryptor returns the slot encryptor for key. An empty key disables encryption.
//
//nolint:ireturn // callers only need the Encryptor behaviour.
func CreateEncryptor(key string, logger *slog.Logger) (cryptoutil.Encryptor, error) {
	if key == "" {
		if logger != nil {
			logger.Warn("SESSION_ENCRYPTION_KEY is empty, session slots are stored in plaintext")
		}
		return cryptoutil.NoopEncryptor{}, nil
	}
	return cryptoutil.NewAESGCMEncryptor(deriveKey(key))
}

// deriveKey accepts a 64-char hex key as-is and hashes anything else to 32 bytes.
func deriveKey(key string) []byte {
	if decoded, err := hex.DecodeString(key); err == nil && len(decoded) == 32 {
		return decoded
	}
	sum := sha256.Sum256([]byte(key))
	return sum[:]
}
