package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/qrlink/internal/domain"
	"github.com/MrSnakeDoc/qrlink/internal/store"
	"github.com/redis/go-redis/v9"
)

const (
	// scanCount is the SCAN batch size hint.
	scanCount = 100
	// maxUpdateRetries bounds optimistic WATCH/MULTI retries in Update.
	maxUpdateRetries = 32
)

// Store is the durable backend on top of a go-redis client.
type Store struct {
	client *redis.Client
}

// NewStore wraps an already connected client.
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}

var _ store.Store = (*Store)(nil)

func storageErr(op, key string, err error) error {
	return fmt.Errorf("%w: redis %s %q: %w", domain.ErrStorage, op, key, err)
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, store.ErrNotFound
		}
		return nil, storageErr("get", key, err)
	}
	return data, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return storageErr("set", key, err)
	}
	return nil
}

func (s *Store) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, storageErr("setnx", key, err)
	}
	return ok, nil
}

func (s *Store) Del(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return storageErr("del", key, err)
	}
	return nil
}

// Keys walks the keyspace with SCAN, never KEYS.
func (s *Store) Keys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, pattern, scanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, storageErr("scan", pattern, err)
	}
	return keys, nil
}

func (s *Store) HIncrBy(ctx context.Context, key, field string, amount int64) (int64, error) {
	n, err := s.client.HIncrBy(ctx, key, field, amount).Result()
	if err != nil {
		return 0, storageErr("hincrby", key, err)
	}
	return n, nil
}

// callerError marks errors produced by the update callback so they are
// returned untouched instead of being classified as storage failures.
type callerError struct{ err error }

func (e callerError) Error() string { return e.err.Error() }

// Update runs fn inside WATCH/MULTI and retries when another writer
// touched the key in between.
func (s *Store) Update(ctx context.Context, key string, fn store.UpdateFunc) error {
	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return callerError{store.ErrNotFound}
			}
			return err
		}

		next, err := fn(current)
		if err != nil {
			return callerError{err}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, redis.KeepTTL)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		var ce callerError
		if errors.As(err, &ce) {
			return ce.err
		}
		return storageErr("update", key, err)
	}
	return storageErr("update", key, fmt.Errorf("gave up after %d conflicting writes", maxUpdateRetries))
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: redis ping: %w", domain.ErrStorage, err)
	}
	return nil
}

func (s *Store) Backend() string { return "redis" }

func (s *Store) Close() error { return s.client.Close() }
