package cryptoutil

import (
	"context"

	"github.com/corruptguard/helix/internal/ports"
)

var _ ports.SessionStore = (*SealedStore)(nil)

// SealedStore wraps a SessionStore and seals every value with an Encryptor.
type SealedStore struct {
	inner ports.SessionStore
	enc   Encryptor
}

// NewSealedStore returns inner unchanged when enc is nil.
func NewSealedStore(inner ports.SessionStore, enc Encryptor) ports.SessionStore {
	if enc == nil {
		return inner
	}
	return &SealedStore{inner: inner, enc: enc}
}

func (s *SealedStore) Get(ctx context.Context, key string) ([]byte, error) {
	sealed, err := s.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.enc.Open(key, sealed)
}

func (s *SealedStore) Set(ctx context.Context, key string, value []byte) error {
	sealed, err := s.enc.Seal(key, value)
	if err != nil {
		return err
	}
	return s.inner.Set(ctx, key, sealed)
}

func (s *SealedStore) Delete(ctx context.Context, keys ...string) error {
	return s.inner.Delete(ctx, keys...)
}

func (s *SealedStore) Update(ctx context.Context, key string, fn func([]byte) ([]byte, error)) error {
	return s.inner.Update(ctx, key, func(current []byte) ([]byte, error) {
		var plain []byte
		if current != nil {
			var err error
			if plain, err = s.enc.Open(key, current); err != nil {
				return nil, err
			}
		}
		next, err := fn(plain)
		if err != nil || next == nil {
			return nil, err
		}
		return s.enc.Seal(key, next)
	})
}
