package relief

import (
	"context"
	"time"

	"github.com/aidledger/backend/internal/domain/relief"
	"github.com/aidledger/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DefaultSweepBatchSize bounds how many vouchers one sweep transaction locks
const DefaultSweepBatchSize = 500

// ExpiryService persists the EXPIRED status of overdue vouchers
type ExpiryService struct {
	eventPublishing
	txScope   TransactionScope
	batchSize int
	now       func() time.Time
}

// NewExpiryService creates a new ExpiryService
func NewExpiryService(txScope TransactionScope, batchSize int, logger *zap.Logger) *ExpiryService {
	if batchSize <= 0 {
		batchSize = DefaultSweepBatchSize
	}
	return &ExpiryService{
		eventPublishing: eventPublishing{logger: logger},
		txScope:         txScope,
		batchSize:       batchSize,
		now:             time.Now,
	}
}

// ExpireOverdue moves every ISSUED voucher past its expiry to EXPIRED,
// one batch per transaction, until a batch comes back short or makes no progress.
func (s *ExpiryService) ExpireOverdue(ctx context.Context) (*ExpirySweepStats, error) {
	stats := &ExpirySweepStats{ProcessedAt: s.now()}

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		examined, expired, failed, err := s.sweepBatch(ctx, stats.ProcessedAt)
		stats.Examined += examined
		stats.Expired += expired
		stats.Failed += failed
		if err != nil {
			s.logger.Error("Voucher expiry sweep failed", zap.Error(err))
			return stats, err
		}
		if examined < s.batchSize || expired == 0 {
			break
		}
	}

	if stats.Examined > 0 {
		s.logger.Info("Voucher expiry sweep finished",
			zap.Int("examined", stats.Examined),
			zap.Int("expired", stats.Expired),
			zap.Int("failed", stats.Failed),
		)
	}
	return stats, nil
}

func (s *ExpiryService) sweepBatch(ctx context.Context, now time.Time) (examined, expired, failed int, err error) {
	var done []*relief.Voucher
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		overdue, txErr := repos.Vouchers().FindOverdueForUpdate(ctx, now, s.batchSize)
		if txErr != nil {
			return txErr
		}
		examined = len(overdue)

		for i := range overdue {
			v := &overdue[i]
			spErr := repos.Savepoint(ctx, func(sp TransactionalRepositories) error {
				if err := v.Expire(now); err != nil {
					return err
				}
				return sp.Vouchers().SaveWithLock(ctx, v)
			})
			if spErr != nil {
				failed++
				s.logger.Warn("Failed to expire voucher",
					zap.String("voucher_id", v.ID.String()),
					zap.Error(spErr),
				)
				continue
			}
			done = append(done, v)
		}
		return nil
	})
	if err != nil {
		return examined, 0, 0, err
	}

	roots := make([]shared.AggregateRoot, len(done))
	for i, v := range done {
		roots[i] = v
	}
	s.publish(ctx, drainEvents(roots...)...)
	return examined, len(done), failed, nil
}
