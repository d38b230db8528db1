package app

import (
	"context"
	"errors"
	"testing"

	"github.com/MrSnakeDoc/qrlink/internal/links"
	"github.com/MrSnakeDoc/qrlink/internal/logger"
	"github.com/MrSnakeDoc/qrlink/internal/metrics"
	"github.com/MrSnakeDoc/qrlink/internal/redirect"
	"github.com/MrSnakeDoc/qrlink/internal/store/memory"
)

type stuckServer struct{ err error }

func (s stuckServer) Start() error                   { return nil }
func (s stuckServer) Stop(ctx context.Context) error { return s.err }

type closeCounter struct {
	*memory.Store
	closed int
}

func (c *closeCounter) Close() error {
	c.closed++
	return c.Store.Close()
}

func newTeardownApp(srv stopper) (*App, *closeCounter) {
	st := &closeCounter{Store: memory.New()}
	reg := links.NewRegistry(st, logger.Nop())
	return &App{
		logger:   logger.Nop(),
		server:   srv,
		store:    st,
		resolver: redirect.NewResolver(reg, nil, metrics.New(), logger.Nop()),
	}, st
}

func TestTeardown(t *testing.T) {
	tests := []struct {
		name    string
		stopErr error
	}{
		{"clean stop", nil},
		{"server stop times out", context.DeadlineExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, st := newTeardownApp(stuckServer{err: tt.stopErr})

			err := a.teardown(context.Background())
			if !errors.Is(err, tt.stopErr) || (tt.stopErr == nil && err != nil) {
				t.Errorf("teardown() error = %v, want %v", err, tt.stopErr)
			}
			if st.closed != 1 {
				t.Errorf("store closed %d times, want 1", st.closed)
			}
		})
	}
}
