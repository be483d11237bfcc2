package ports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	name string
	err  error
}

func (s stubChecker) Name() string { return s.name }

func (s stubChecker) Check(context.Context) error { return s.err }

// blockingChecker returns only when ctx ends.
type blockingChecker struct{ name string }

func (b blockingChecker) Name() string { return b.name }

func (b blockingChecker) Check(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestRegistry_Register(t *testing.T) {
	reg := NewHealthRegistry()

	require.NoError(t, reg.Register(stubChecker{name: "dataset-store"}))
	require.NoError(t, reg.Register(stubChecker{name: "remote-source"}))

	err := reg.Register(stubChecker{name: "dataset-store"})

	require.ErrorIs(t, err, ErrDuplicateChecker)
	assert.Contains(t, err.Error(), "dataset-store")
	assert.Equal(t, []string{"dataset-store", "remote-source"}, reg.Names())
}

func TestRegistry_CheckAll(t *testing.T) {
	tests := []struct {
		name       string
		checkers   []HealthChecker
		wantStatus HealthStatus
		wantFailed []string
	}{
		{
			name:       "no checkers",
			wantStatus: HealthStatusHealthy,
		},
		{
			name: "all healthy",
			checkers: []HealthChecker{
				stubChecker{name: "dataset-store"},
				stubChecker{name: "remote-source"},
				stubChecker{name: "inbox-watcher"},
			},
			wantStatus: HealthStatusHealthy,
		},
		{
			name: "one failing",
			checkers: []HealthChecker{
				stubChecker{name: "dataset-store"},
				stubChecker{name: "remote-source", err: errors.New("connection refused")},
			},
			wantStatus: HealthStatusUnhealthy,
			wantFailed: []string{"remote-source"},
		},
		{
			name: "several failing",
			checkers: []HealthChecker{
				stubChecker{name: "inbox-watcher", err: errors.New("inbox missing")},
				stubChecker{name: "dataset-store", err: errors.New("capacity exhausted")},
			},
			wantStatus: HealthStatusUnhealthy,
			wantFailed: []string{"dataset-store", "inbox-watcher"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewHealthRegistry()
			for _, c := range tt.checkers {
				require.NoError(t, reg.Register(c))
			}

			res := reg.CheckAll(context.Background())

			assert.Equal(t, tt.wantStatus, res.Status)
			assert.Len(t, res.Checks, len(tt.checkers))
			assert.Equal(t, tt.wantFailed, res.Failed())
			assert.False(t, res.Timestamp.IsZero())

			for _, c := range tt.checkers {
				got := res.Checks[c.Name()]
				require.NotNil(t, got)

				if err := c.Check(context.Background()); err != nil {
					assert.Equal(t, err.Error(), got.Message)
				} else {
					assert.Empty(t, got.Message)
				}
			}
		})
	}
}

func TestRegistry_CheckAll_Canceled(t *testing.T) {
	reg := NewHealthRegistry()
	require.NoError(t, reg.Register(blockingChecker{name: "remote-source"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := reg.CheckAll(ctx)

	assert.Equal(t, HealthStatusUnhealthy, res.Status)
	assert.Contains(t, res.Checks["remote-source"].Message, "context canceled")
}

func TestRegistry_CheckTimeout(t *testing.T) {
	reg := NewHealthRegistry(WithCheckTimeout(20 * time.Millisecond))
	require.NoError(t, reg.Register(blockingChecker{name: "remote-source"}))
	require.NoError(t, reg.Register(stubChecker{name: "dataset-store"}))

	start := time.Now()
	res := reg.CheckAll(context.Background())

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, []string{"remote-source"}, res.Failed())
	assert.Contains(t, res.Checks["remote-source"].Message, "deadline exceeded")
}
