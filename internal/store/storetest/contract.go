// Package storetest holds the behavior every store.Store backend must share.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/MrSnakeDoc/qrlink/internal/store"
)

// Run exercises s against the store contract. s must start empty.
func Run(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("get missing", func(t *testing.T) {
		if _, err := s.Get(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("Get() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("set get del", func(t *testing.T) {
		if err := s.Set(ctx, "k1", []byte("v1"), 0); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		got, err := s.Get(ctx, "k1")
		if err != nil || string(got) != "v1" {
			t.Fatalf("Get() = %q, %v", got, err)
		}
		if err := s.Del(ctx, "k1"); err != nil {
			t.Fatalf("Del() error = %v", err)
		}
		if _, err := s.Get(ctx, "k1"); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("Get() after Del error = %v, want ErrNotFound", err)
		}
		if err := s.Del(ctx, "k1"); err != nil {
			t.Errorf("Del() of missing key error = %v", err)
		}
	})

	t.Run("setnx", func(t *testing.T) {
		ok, err := s.SetNX(ctx, "nx", []byte("first"), 0)
		if err != nil || !ok {
			t.Fatalf("SetNX() first = %v, %v", ok, err)
		}
		ok, err = s.SetNX(ctx, "nx", []byte("second"), 0)
		if err != nil || ok {
			t.Fatalf("SetNX() second = %v, %v", ok, err)
		}
		got, _ := s.Get(ctx, "nx")
		if string(got) != "first" {
			t.Errorf("SetNX() overwrote value: %q", got)
		}
	})

	t.Run("keys", func(t *testing.T) {
		for _, k := range []string{"link:a", "link:b", "session:x"} {
			if err := s.Set(ctx, k, []byte("{}"), 0); err != nil {
				t.Fatalf("Set(%s) error = %v", k, err)
			}
		}
		keys, err := s.Keys(ctx, "link:*")
		if err != nil {
			t.Fatalf("Keys() error = %v", err)
		}
		if len(keys) != 2 {
			t.Errorf("Keys(link:*) = %v, want 2 keys", keys)
		}
	})

	t.Run("hincrby", func(t *testing.T) {
		for i := int64(1); i <= 3; i++ {
			n, err := s.HIncrBy(ctx, "counter", "clicks", 1)
			if err != nil {
				t.Fatalf("HIncrBy() error = %v", err)
			}
			if n != i {
				t.Errorf("HIncrBy() = %d, want %d", n, i)
			}
		}
		if _, err := s.HIncrBy(ctx, "nx", "clicks", 1); err == nil {
			t.Error("HIncrBy() on a string key expected error")
		}
	})

	t.Run("update", func(t *testing.T) {
		err := s.Update(ctx, "absent", func(b []byte) ([]byte, error) { return b, nil })
		if !errors.Is(err, store.ErrNotFound) {
			t.Errorf("Update() missing key error = %v, want ErrNotFound", err)
		}

		if err := s.Set(ctx, "n", []byte("0"), 0); err != nil {
			t.Fatalf("Set() error = %v", err)
		}

		abort := errors.New("abort")
		if err := s.Update(ctx, "n", func([]byte) ([]byte, error) { return nil, abort }); !errors.Is(err, abort) {
			t.Errorf("Update() error = %v, want abort", err)
		}

		const workers = 20
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = s.Update(ctx, "n", func(b []byte) ([]byte, error) {
					var n int
					_, _ = fmt.Sscanf(string(b), "%d", &n)
					return []byte(fmt.Sprint(n + 1)), nil
				})
			}()
		}
		wg.Wait()

		got, _ := s.Get(ctx, "n")
		if string(got) != fmt.Sprint(workers) {
			t.Errorf("concurrent Update() = %s, want %d", got, workers)
		}
	})

	t.Run("ping", func(t *testing.T) {
		if err := s.Ping(ctx); err != nil {
			t.Errorf("Ping() error = %v", err)
		}
		if s.Backend() == "" {
			t.Error("Backend() is empty")
		}
	})
}
