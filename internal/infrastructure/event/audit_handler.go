package event

import (
	"context"
	"encoding/json"

	"github.com/aidledger/backend/internal/domain/shared"
	"github.com/aidledger/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// AuditLogHandler writes every committed event and its JSON payload to the log.
// Registered as a wildcard handler it gives a replayable trail of ledger movements.
type AuditLogHandler struct {
	serializer *EventSerializer
	logger     *zap.Logger
}

// NewAuditLogHandler creates a new AuditLogHandler
func NewAuditLogHandler(serializer *EventSerializer, logger *zap.Logger) *AuditLogHandler {
	return &AuditLogHandler{
		serializer: serializer,
		logger:     logger.Named("audit"),
	}
}

// EventTypes returns nil so the handler receives all events
func (h *AuditLogHandler) EventTypes() []string {
	return nil
}

// Handle logs the event
func (h *AuditLogHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	payload, err := h.serializer.Serialize(event)
	if err != nil {
		return err
	}
	logger.WithTraceContext(ctx, h.logger).Info("domain event",
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
		zap.Any("payload", json.RawMessage(payload)),
	)
	return nil
}

var _ shared.EventHandler = (*AuditLogHandler)(nil)
