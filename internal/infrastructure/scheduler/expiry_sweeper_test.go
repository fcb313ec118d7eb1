package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aidledger/backend/internal/application/relief"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeExpirer struct {
	calls   atomic.Int32
	err     error
	block   chan struct{}
	mu      sync.Mutex
	lastCtx context.Context
}

func (f *fakeExpirer) ExpireOverdue(ctx context.Context) (*relief.ExpirySweepStats, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.lastCtx = ctx
	f.mu.Unlock()

	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &relief.ExpirySweepStats{Examined: 3, Expired: 2, ProcessedAt: time.Now()}, nil
}

func TestExpirySweeperConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultExpirySweeperConfig().Validate())
	assert.NoError(t, ExpirySweeperConfig{Enabled: false}.Validate())
	assert.ErrorIs(t, ExpirySweeperConfig{Enabled: true}.Validate(), ErrInvalidConfig)
	assert.ErrorIs(t, ExpirySweeperConfig{Enabled: true, Interval: time.Second, Timeout: -1}.Validate(), ErrInvalidConfig)
}

func TestExpirySweeper_RunsOnInterval(t *testing.T) {
	expirer := &fakeExpirer{}
	s := NewExpirySweeper(expirer, ExpirySweeperConfig{Enabled: true, Interval: 10 * time.Millisecond}, zap.NewNop())

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())

	require.Eventually(t, func() bool { return expirer.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.False(t, s.IsRunning())

	after := expirer.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, expirer.calls.Load(), "no sweep after stop")
}

func TestExpirySweeper_Disabled(t *testing.T) {
	expirer := &fakeExpirer{}
	s := NewExpirySweeper(expirer, ExpirySweeperConfig{Enabled: false}, nil)

	require.NoError(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
	assert.NoError(t, s.Stop(context.Background()))
	assert.Zero(t, expirer.calls.Load())
}

func TestExpirySweeper_InvalidConfig(t *testing.T) {
	s := NewExpirySweeper(&fakeExpirer{}, ExpirySweeperConfig{Enabled: true}, nil)
	assert.ErrorIs(t, s.Start(context.Background()), ErrInvalidConfig)
	assert.False(t, s.IsRunning())
}

func TestExpirySweeper_KeepsRunningAfterFailure(t *testing.T) {
	expirer := &fakeExpirer{err: errors.New("database is locked")}
	s := NewExpirySweeper(expirer, ExpirySweeperConfig{Enabled: true, Interval: 5 * time.Millisecond}, zap.NewNop())

	require.NoError(t, s.Start(context.Background()))
	require.Eventually(t, func() bool { return expirer.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	require.NoError(t, s.Stop(context.Background()))
}

func TestExpirySweeper_RunOnce(t *testing.T) {
	t.Run("returns stats", func(t *testing.T) {
		s := NewExpirySweeper(&fakeExpirer{}, DefaultExpirySweeperConfig(), nil)
		stats, err := s.RunOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, stats.Expired)
	})

	t.Run("applies timeout", func(t *testing.T) {
		expirer := &fakeExpirer{}
		s := NewExpirySweeper(expirer, ExpirySweeperConfig{Enabled: true, Interval: time.Hour, Timeout: time.Minute}, nil)
		_, err := s.RunOnce(context.Background())
		require.NoError(t, err)

		expirer.mu.Lock()
		defer expirer.mu.Unlock()
		_, hasDeadline := expirer.lastCtx.Deadline()
		assert.True(t, hasDeadline)
	})

	t.Run("wraps errors", func(t *testing.T) {
		cause := errors.New("boom")
		s := NewExpirySweeper(&fakeExpirer{err: cause}, DefaultExpirySweeperConfig(), nil)
		_, err := s.RunOnce(context.Background())
		assert.ErrorIs(t, err, cause)
	})

	t.Run("rejects overlapping sweeps", func(t *testing.T) {
		expirer := &fakeExpirer{block: make(chan struct{})}
		s := NewExpirySweeper(expirer, DefaultExpirySweeperConfig(), nil)

		done := make(chan error, 1)
		go func() {
			_, err := s.RunOnce(context.Background())
			done <- err
		}()
		require.Eventually(t, func() bool { return expirer.calls.Load() == 1 }, time.Second, time.Millisecond)

		_, err := s.RunOnce(context.Background())
		assert.ErrorIs(t, err, ErrSweepInProgress)

		close(expirer.block)
		assert.NoError(t, <-done)
	})
}

func TestExpirySweeper_StopWaitsForInFlightSweep(t *testing.T) {
	expirer := &fakeExpirer{block: make(chan struct{})}
	s := NewExpirySweeper(expirer, ExpirySweeperConfig{Enabled: true, Interval: time.Hour}, zap.NewNop())

	require.NoError(t, s.Start(context.Background()))
	require.Eventually(t, func() bool { return expirer.calls.Load() == 1 }, time.Second, time.Millisecond)

	// The blocked sweep observes the cancelled context and returns.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}
