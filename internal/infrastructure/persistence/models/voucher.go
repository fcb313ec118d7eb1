package models

import (
	"time"

	"github.com/aidledger/backend/internal/domain/relief"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VoucherModel is the persistence model for the Voucher aggregate root.
// qr_code carries the store-level uniqueness guarantee for redemption tokens.
type VoucherModel struct {
	AggregateModel
	ZoneID        uuid.UUID            `gorm:"type:uuid;not null;index"`
	BeneficiaryID uuid.UUID            `gorm:"type:uuid;not null;index:idx_vouchers_beneficiary_created,priority:1"`
	Amount        decimal.Decimal      `gorm:"type:decimal(20,6);not null"`
	QRCode        string               `gorm:"column:qr_code;type:varchar(128);not null;uniqueIndex:idx_vouchers_qr_code"`
	Status        relief.VoucherStatus `gorm:"type:varchar(20);not null;default:'ISSUED';index:idx_vouchers_status_expires,priority:1"`
	DonationID    *uuid.UUID           `gorm:"type:uuid;index"`
	ExpiresAt     time.Time            `gorm:"not null;index:idx_vouchers_status_expires,priority:2"`
	RedeemedAt    *time.Time
	Zone          *ZoneModel     `gorm:"foreignKey:ZoneID;references:ID;constraint:OnDelete:RESTRICT"`
	Beneficiary   *AccountModel  `gorm:"foreignKey:BeneficiaryID;references:ID;constraint:OnDelete:RESTRICT"`
	Donation      *DonationModel `gorm:"foreignKey:DonationID;references:ID;constraint:OnDelete:SET NULL"`
}

// TableName returns the table name for GORM
func (VoucherModel) TableName() string {
	return "vouchers"
}

// ToDomain converts the persistence model to a domain Voucher.
func (m *VoucherModel) ToDomain() *relief.Voucher {
	v := &relief.Voucher{
		BaseAggregateRoot: m.ToAggregateRoot(),
		ZoneID:            m.ZoneID,
		BeneficiaryID:     m.BeneficiaryID,
		Amount:            m.Amount,
		QRCode:            m.QRCode,
		Status:            m.Status,
		DonationID:        m.DonationID,
		ExpiresAt:         m.ExpiresAt.UTC(),
	}
	if m.RedeemedAt != nil {
		t := m.RedeemedAt.UTC()
		v.RedeemedAt = &t
	}
	return v
}

// FromDomain populates the persistence model from a domain Voucher.
func (m *VoucherModel) FromDomain(v *relief.Voucher) {
	m.FromDomainAggregateRoot(v.BaseAggregateRoot)
	m.ZoneID = v.ZoneID
	m.BeneficiaryID = v.BeneficiaryID
	m.Amount = v.Amount
	m.QRCode = v.QRCode
	m.Status = v.Status
	m.DonationID = v.DonationID
	m.ExpiresAt = v.ExpiresAt
	m.RedeemedAt = v.RedeemedAt
}

// VoucherModelFromDomain creates a new persistence model from a domain Voucher.
func VoucherModelFromDomain(v *relief.Voucher) *VoucherModel {
	m := &VoucherModel{}
	m.FromDomain(v)
	return m
}
