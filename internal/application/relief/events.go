package relief

import (
	"context"

	"github.com/aidledger/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// eventPublishing is embedded by services that publish domain events after commit
type eventPublishing struct {
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// SetEventPublisher sets the event publisher for publishing domain events
func (p *eventPublishing) SetEventPublisher(publisher shared.EventPublisher) {
	p.eventPublisher = publisher
}

// drainEvents collects and clears the pending events of each root
func drainEvents(roots ...shared.AggregateRoot) []shared.DomainEvent {
	var events []shared.DomainEvent
	for _, root := range roots {
		events = append(events, root.GetDomainEvents()...)
		root.ClearDomainEvents()
	}
	return events
}

// publish hands committed events to the bus. Failures are logged, never returned:
// the state change they describe is already durable.
func (p *eventPublishing) publish(ctx context.Context, events ...shared.DomainEvent) {
	if p.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := p.eventPublisher.Publish(ctx, events...); err != nil {
		p.logger.Warn("Failed to publish domain events",
			zap.Int("count", len(events)),
			zap.Error(err),
		)
	}
}
