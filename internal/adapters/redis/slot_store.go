package redis

// Package redis provides the Redis-backed session slot store.

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/corruptguard/helix/internal/errors"
	"github.com/corruptguard/helix/internal/ports"
	"github.com/redis/go-redis/v9"
)

var _ ports.SessionStore = (*SlotStore)(nil)

// maxUpdateAttempts bounds optimistic retries when a WATCHed key changes under us.
const maxUpdateAttempts = 5

// SlotStore keeps session slots as plain Redis strings under a key prefix.
// Slots have no TTL; the session is cleared explicitly on logout or failed verification.
type SlotStore struct {
	client redis.UniversalClient
	prefix string
}

// NewSlotStore creates a slot store with the default "helix:session:" prefix.
func NewSlotStore(client redis.UniversalClient) *SlotStore {
	return NewSlotStoreWithPrefix(client, "helix:session:")
}

// NewSlotStoreWithPrefix creates a slot store with a custom key prefix.
func NewSlotStoreWithPrefix(client redis.UniversalClient, prefix string) *SlotStore {
	return &SlotStore{client: client, prefix: prefix}
}

func (s *SlotStore) key(name string) string { return s.prefix + name }

func (s *SlotStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFoundf("session slot %q not found", key)
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return data, nil
}

func (s *SlotStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *SlotStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	// Delete one key at a time so cluster mode never sees a cross-slot DEL.
	var errs []error
	for _, k := range keys {
		if err := s.client.Del(ctx, s.key(k)).Err(); err != nil {
			errs = append(errs, fmt.Errorf("redis del %s: %w", k, err))
		}
	}
	return errors.Join(errs...)
}

// Update runs fn inside WATCH/MULTI and retries when another writer touched the key.
func (s *SlotStore) Update(ctx context.Context, key string, fn func([]byte) ([]byte, error)) error {
	full := s.key(key)
	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, full).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("redis get: %w", err)
		}
		if errors.Is(err, redis.Nil) {
			current = nil
		}
		next, err := fn(current)
		if err != nil {
			return err
		}
		if next == nil {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, full, next, 0)
			return nil
		})
		return err
	}

	for range maxUpdateAttempts {
		err := s.client.Watch(ctx, txf, full)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return apperrors.Conflict("session slot was modified concurrently")
}
