package relief

import (
	"github.com/aidledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constants
const (
	AggregateTypeZone     = "Zone"
	AggregateTypeDonation = "Donation"
	AggregateTypeVoucher  = "Voucher"
)

// Event type constants
const (
	EventTypeZoneCreated       = "ZoneCreated"
	EventTypeDonationCompleted = "DonationCompleted"
	EventTypeVoucherIssued     = "VoucherIssued"
	EventTypeVoucherRedeemed   = "VoucherRedeemed"
	EventTypeVoucherExpired    = "VoucherExpired"
)

// ZoneCreatedEvent is published when a zone is provisioned
type ZoneCreatedEvent struct {
	shared.BaseDomainEvent
	ZoneID uuid.UUID       `json:"zone_id"`
	Name   string          `json:"name"`
	Budget decimal.Decimal `json:"budget"`
}

// NewZoneCreatedEvent creates a new ZoneCreatedEvent
func NewZoneCreatedEvent(z *Zone) *ZoneCreatedEvent {
	return &ZoneCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeZoneCreated, AggregateTypeZone, z.ID),
		ZoneID:          z.ID,
		Name:            z.Name,
		Budget:          z.Budget,
	}
}

// DonationCompletedEvent is published after a donation commits
type DonationCompletedEvent struct {
	shared.BaseDomainEvent
	DonationID   uuid.UUID       `json:"donation_id"`
	ZoneID       uuid.UUID       `json:"zone_id"`
	Amount       decimal.Decimal `json:"amount"`
	DonorAddress string          `json:"donor_address"`
	NewAllocated decimal.Decimal `json:"new_allocated"`
}

// NewDonationCompletedEvent creates a new DonationCompletedEvent
func NewDonationCompletedEvent(d *Donation, newAllocated decimal.Decimal) *DonationCompletedEvent {
	return &DonationCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDonationCompleted, AggregateTypeDonation, d.ID),
		DonationID:      d.ID,
		ZoneID:          d.ZoneID,
		Amount:          d.Amount,
		DonorAddress:    d.DonorAddress,
		NewAllocated:    newAllocated,
	}
}

// VoucherIssuedEvent is published when a voucher is created
type VoucherIssuedEvent struct {
	shared.BaseDomainEvent
	VoucherID     uuid.UUID       `json:"voucher_id"`
	ZoneID        uuid.UUID       `json:"zone_id"`
	BeneficiaryID uuid.UUID       `json:"beneficiary_id"`
	Amount        decimal.Decimal `json:"amount"`
	DonationID    *uuid.UUID      `json:"donation_id,omitempty"`
	Path          string          `json:"path"`
}

// NewVoucherIssuedEvent creates a new VoucherIssuedEvent
func NewVoucherIssuedEvent(v *Voucher) *VoucherIssuedEvent {
	return &VoucherIssuedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVoucherIssued, AggregateTypeVoucher, v.ID),
		VoucherID:       v.ID,
		ZoneID:          v.ZoneID,
		BeneficiaryID:   v.BeneficiaryID,
		Amount:          v.Amount,
		DonationID:      v.DonationID,
		Path:            v.IssuePath(),
	}
}

// VoucherRedeemedEvent is published when a voucher is spent
type VoucherRedeemedEvent struct {
	shared.BaseDomainEvent
	VoucherID uuid.UUID       `json:"voucher_id"`
	ZoneID    uuid.UUID       `json:"zone_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// NewVoucherRedeemedEvent creates a new VoucherRedeemedEvent
func NewVoucherRedeemedEvent(v *Voucher) *VoucherRedeemedEvent {
	return &VoucherRedeemedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVoucherRedeemed, AggregateTypeVoucher, v.ID),
		VoucherID:       v.ID,
		ZoneID:          v.ZoneID,
		Amount:          v.Amount,
	}
}

// VoucherExpiredEvent is published when the sweep expires a voucher
type VoucherExpiredEvent struct {
	shared.BaseDomainEvent
	VoucherID uuid.UUID       `json:"voucher_id"`
	ZoneID    uuid.UUID       `json:"zone_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// NewVoucherExpiredEvent creates a new VoucherExpiredEvent
func NewVoucherExpiredEvent(v *Voucher) *VoucherExpiredEvent {
	return &VoucherExpiredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVoucherExpired, AggregateTypeVoucher, v.ID),
		VoucherID:       v.ID,
		ZoneID:          v.ZoneID,
		Amount:          v.Amount,
	}
}
