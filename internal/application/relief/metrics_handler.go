package relief

import (
	"context"

	"github.com/aidledger/backend/internal/domain/relief"
	"github.com/aidledger/backend/internal/domain/shared"
	"github.com/aidledger/backend/internal/infrastructure/telemetry"
)

// MetricsEventHandler turns committed domain events into Prometheus counts
type MetricsEventHandler struct {
	metrics *telemetry.Metrics
}

// NewMetricsEventHandler creates a new MetricsEventHandler
func NewMetricsEventHandler(metrics *telemetry.Metrics) *MetricsEventHandler {
	return &MetricsEventHandler{metrics: metrics}
}

// EventTypes returns the event types this handler is interested in
func (h *MetricsEventHandler) EventTypes() []string {
	return []string{
		relief.EventTypeDonationCompleted,
		relief.EventTypeVoucherIssued,
		relief.EventTypeVoucherRedeemed,
		relief.EventTypeVoucherExpired,
	}
}

// Handle records the event
func (h *MetricsEventHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *relief.DonationCompletedEvent:
		h.metrics.RecordDonation(e.Amount)
	case *relief.VoucherIssuedEvent:
		h.metrics.RecordVoucherIssued(e.Path)
	case *relief.VoucherRedeemedEvent:
		h.metrics.RecordVoucherRedeemed()
	case *relief.VoucherExpiredEvent:
		h.metrics.RecordVoucherExpired()
	}
	return nil
}

var _ shared.EventHandler = (*MetricsEventHandler)(nil)
