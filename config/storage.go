package config

import (
	"fmt"
	"strings"
)

// StoreKind selects the session slot backend.
type StoreKind string

const (
	StoreKindFile     StoreKind = "file"
	StoreKindMemory   StoreKind = "memory"
	StoreKindRedis    StoreKind = "redis"
	StoreKindPostgres StoreKind = "postgres"
)

// UnmarshalText implements encoding.TextUnmarshaler for StoreKind.
func (k *StoreKind) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "file", "memory", "redis", "postgres":
		*k = StoreKind(v)
		return nil
	default:
		return fmt.Errorf("invalid StoreKind: %q (valid options: file, memory, redis, postgres)", v)
	}
}

// StorageConfig controls where session slots are persisted.
type StorageConfig struct {
	Kind        StoreKind `env:"SESSION_STORE"        envDefault:"file"`
	File        string    `env:"SESSION_FILE"         envDefault:".helix/session.json"`
	RedisPrefix string    `env:"SESSION_REDIS_PREFIX" envDefault:"helix:session:"`
	// EncryptionKey enables AES-GCM encryption of stored slots.
	// A 64-char hex string is used as-is; anything else is hashed to 32 bytes.
	EncryptionKey string `env:"SESSION_ENCRYPTION_KEY"`
}

// Sanitize restores defaults for blank values.
func (c *StorageConfig) Sanitize() {
	if c.Kind == "" {
		c.Kind = StoreKindFile
	}
	c.File = strings.TrimSpace(c.File)
	if c.File == "" {
		c.File = ".helix/session.json"
	}
	if c.RedisPrefix == "" {
		c.RedisPrefix = "helix:session:"
	}
}
