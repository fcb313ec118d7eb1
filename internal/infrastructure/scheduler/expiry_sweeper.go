// Package scheduler runs periodic background jobs of the relief ledger.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aidledger/backend/internal/application/relief"
	"go.uber.org/zap"
)

// OverdueExpirer expires vouchers past their validity
type OverdueExpirer interface {
	ExpireOverdue(ctx context.Context) (*relief.ExpirySweepStats, error)
}

// ExpirySweeperConfig holds configuration for the voucher expiry sweeper
type ExpirySweeperConfig struct {
	// Enabled determines if the sweeper is active
	Enabled bool

	// Interval is the time between two sweeps
	Interval time.Duration

	// Timeout bounds a single sweep
	Timeout time.Duration
}

// DefaultExpirySweeperConfig returns default configuration
func DefaultExpirySweeperConfig() ExpirySweeperConfig {
	return ExpirySweeperConfig{
		Enabled:  true,
		Interval: time.Hour,
		Timeout:  5 * time.Minute,
	}
}

// Validate checks the sweeper configuration
func (c ExpirySweeperConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Interval <= 0 {
		return fmt.Errorf("%w: sweep interval must be positive", ErrInvalidConfig)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: sweep timeout must not be negative", ErrInvalidConfig)
	}
	return nil
}

// ExpirySweeper marks overdue ISSUED vouchers EXPIRED on a fixed interval.
// Reads already treat overdue vouchers as expired, so a missed sweep only delays the stored status.
type ExpirySweeper struct {
	expirer OverdueExpirer
	config  ExpirySweeperConfig
	logger  *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	sweeping  atomic.Bool
}

// NewExpirySweeper creates a new expiry sweeper
func NewExpirySweeper(expirer OverdueExpirer, config ExpirySweeperConfig, logger *zap.Logger) *ExpirySweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExpirySweeper{
		expirer: expirer,
		config:  config,
		logger:  logger.Named("expiry_sweeper"),
	}
}

// Start launches the sweep loop. The first sweep runs immediately.
func (s *ExpirySweeper) Start(ctx context.Context) error {
	if err := s.config.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.config.Enabled {
		s.mu.Unlock()
		s.logger.Info("Expiry sweeper is disabled")
		return nil
	}
	s.isRunning = true
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("Expiry sweeper started", zap.Duration("interval", s.config.Interval))
	return nil
}

// Stop cancels the loop and waits for an in-flight sweep, bounded by ctx
func (s *ExpirySweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Expiry sweeper stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Expiry sweeper stop timed out")
		return ctx.Err()
	}
}

// IsRunning reports whether the loop is active
func (s *ExpirySweeper) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// RunOnce performs a single sweep. Overlapping calls fail with ErrSweepInProgress.
func (s *ExpirySweeper) RunOnce(ctx context.Context) (*relief.ExpirySweepStats, error) {
	if !s.sweeping.CompareAndSwap(false, true) {
		return nil, ErrSweepInProgress
	}
	defer s.sweeping.Store(false)

	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	start := time.Now()
	stats, err := s.expirer.ExpireOverdue(ctx)
	if err != nil {
		return stats, fmt.Errorf("expire overdue vouchers: %w", err)
	}

	if stats.Expired > 0 || stats.Failed > 0 {
		s.logger.Info("Expiry sweep completed",
			zap.Int("examined", stats.Examined),
			zap.Int("expired", stats.Expired),
			zap.Int("failed", stats.Failed),
			zap.Duration("duration", time.Since(start)),
		)
	}
	return stats, nil
}

func (s *ExpirySweeper) runLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		s.sweep(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *ExpirySweeper) sweep(ctx context.Context) {
	if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("Expiry sweep failed", zap.Error(err))
	}
}
