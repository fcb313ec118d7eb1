package relief

import (
	"context"

	"github.com/aidledger/backend/internal/domain/relief"
	"github.com/aidledger/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ZoneService provisions and reads disaster zones
type ZoneService struct {
	eventPublishing
	zones relief.ZoneRepository
}

// NewZoneService creates a new ZoneService
func NewZoneService(zones relief.ZoneRepository, logger *zap.Logger) *ZoneService {
	return &ZoneService{
		eventPublishing: eventPublishing{logger: logger},
		zones:           zones,
	}
}

// Create provisions a zone with empty allocation counters
func (s *ZoneService) Create(ctx context.Context, req CreateZoneRequest) (*ZoneResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "zone", "create")
	defer span.End()

	zone, err := relief.NewZone(relief.NewZoneInput{
		Name:      req.Name,
		Location:  req.Location,
		Type:      req.Type,
		Budget:    req.Budget,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Radius:    req.Radius,
		Status:    req.Status,
		Severity:  req.Severity,
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.zones.Create(ctx, zone); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrZoneID, zone.ID.String())
	s.publish(ctx, drainEvents(zone)...)
	resp := ToZoneResponse(zone)
	return &resp, nil
}

// GetByID returns a zone by ID
func (s *ZoneService) GetByID(ctx context.Context, id uuid.UUID) (*ZoneResponse, error) {
	zone, err := s.zones.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToZoneResponse(zone)
	return &resp, nil
}

// List returns all zones, newest first
func (s *ZoneService) List(ctx context.Context) ([]ZoneResponse, error) {
	zones, err := s.zones.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ZoneResponse, len(zones))
	for i := range zones {
		out[i] = ToZoneResponse(&zones[i])
	}
	return out, nil
}
