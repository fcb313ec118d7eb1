// Package relief models disaster-zone budgets, donations and the vouchers drawn against them.
package relief

import (
	"strings"

	"github.com/aidledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ZoneStatus represents the lifecycle status of a zone
type ZoneStatus string

const (
	ZoneStatusPending ZoneStatus = "PENDING"
	ZoneStatusActive  ZoneStatus = "ACTIVE"
	ZoneStatusClosed  ZoneStatus = "CLOSED"
)

// Severity grades how badly a zone is affected
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Zone defaults applied when provisioning leaves them unset
const (
	DefaultZoneType   = "General"
	DefaultZoneRadius = 1000
)

// IsValid returns true if the severity is known
func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// IsValid returns true if the status is known
func (s ZoneStatus) IsValid() bool {
	switch s {
	case ZoneStatusPending, ZoneStatusActive, ZoneStatusClosed:
		return true
	}
	return false
}

// Zone is the aggregate root tracking how much money has flowed into a
// disaster zone (Allocated) and how much of it is committed to vouchers
// (Distributed). Distributed never exceeds Allocated and Allocated never shrinks.
// Budget is an informational ceiling only.
type Zone struct {
	shared.BaseAggregateRoot
	Name          string
	Location      string
	Type          string
	Latitude      float64
	Longitude     float64
	Radius        int
	Budget        decimal.Decimal
	Allocated     decimal.Decimal
	Distributed   decimal.Decimal
	Beneficiaries int
	Status        ZoneStatus
	Severity      Severity
}

// NewZoneInput carries the provisioning attributes of a zone
type NewZoneInput struct {
	Name      string
	Location  string
	Type      string
	Budget    decimal.Decimal
	Latitude  float64
	Longitude float64
	Radius    int
	Status    ZoneStatus
	Severity  Severity
}

// NewZone provisions a zone with empty counters
func NewZone(in NewZoneInput) (*Zone, error) {
	name := strings.TrimSpace(in.Name)
	location := strings.TrimSpace(in.Location)
	if name == "" || location == "" {
		return nil, shared.NewValidationError("Zone name and location are required")
	}
	if err := shared.ValidateAmount("Zone budget", in.Budget); err != nil {
		return nil, err
	}

	zoneType := strings.TrimSpace(in.Type)
	if zoneType == "" {
		zoneType = DefaultZoneType
	}
	radius := in.Radius
	if radius <= 0 {
		radius = DefaultZoneRadius
	}
	status := in.Status
	if status == "" {
		status = ZoneStatusPending
	}
	if !status.IsValid() {
		return nil, shared.NewValidationError("Zone status must be one of PENDING, ACTIVE, CLOSED")
	}
	severity := in.Severity
	if severity == "" {
		severity = SeverityMedium
	}
	if !severity.IsValid() {
		return nil, shared.NewValidationError("Zone severity must be one of LOW, MEDIUM, HIGH, CRITICAL")
	}

	zone := &Zone{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Location:          location,
		Type:              zoneType,
		Latitude:          in.Latitude,
		Longitude:         in.Longitude,
		Radius:            radius,
		Budget:            in.Budget,
		Allocated:         decimal.Zero,
		Distributed:       decimal.Zero,
		Status:            status,
		Severity:          severity,
	}
	zone.AddDomainEvent(NewZoneCreatedEvent(zone))
	return zone, nil
}

// IncreaseAllocated records donated money flowing into the zone
func (z *Zone) IncreaseAllocated(amount decimal.Decimal) error {
	if err := shared.ValidateAmount("Allocation amount", amount); err != nil {
		return err
	}
	if err := shared.ValidateTotal("Zone allocation", z.Allocated.Add(amount)); err != nil {
		return err
	}
	z.Allocated = z.Allocated.Add(amount)
	z.Touch()
	z.IncrementVersion()
	return nil
}

// ReserveDistribution commits part of the allocation to one beneficiary.
// It is all-or-nothing: on failure no counter moves.
func (z *Zone) ReserveDistribution(amount decimal.Decimal) error {
	if err := shared.ValidateAmount("Voucher amount", amount); err != nil {
		return err
	}
	if z.Distributed.Add(amount).GreaterThan(z.Allocated) {
		return shared.ErrAllocationExceeded
	}
	z.Distributed = z.Distributed.Add(amount)
	z.Beneficiaries++
	z.Touch()
	z.IncrementVersion()
	return nil
}

// Remaining returns the allocation not yet committed to vouchers
func (z *Zone) Remaining() decimal.Decimal {
	return z.Allocated.Sub(z.Distributed)
}
