package models

import (
	"github.com/aidledger/backend/internal/domain/relief"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DonationModel is the persistence model for a Donation record.
// Donations are append-only.
type DonationModel struct {
	BaseModel
	ZoneID       uuid.UUID             `gorm:"type:uuid;not null;index"`
	Amount       decimal.Decimal       `gorm:"type:decimal(20,6);not null"`
	DonorAddress string                `gorm:"type:varchar(128);not null;index"`
	Status       relief.DonationStatus `gorm:"type:varchar(20);not null;default:'COMPLETED'"`
	Currency     string                `gorm:"type:varchar(10);not null;default:'USDC'"`
	Zone         *ZoneModel            `gorm:"foreignKey:ZoneID;references:ID;constraint:OnDelete:RESTRICT"`
}

// TableName returns the table name for GORM
func (DonationModel) TableName() string {
	return "donations"
}

// ToDomain converts the persistence model to a domain Donation.
func (m *DonationModel) ToDomain() *relief.Donation {
	return &relief.Donation{
		BaseEntity:   m.BaseModel.ToDomain(),
		ZoneID:       m.ZoneID,
		Amount:       m.Amount,
		DonorAddress: m.DonorAddress,
		Status:       m.Status,
		Currency:     m.Currency,
	}
}

// DonationModelFromDomain creates a new persistence model from a domain Donation.
func DonationModelFromDomain(d *relief.Donation) *DonationModel {
	m := &DonationModel{
		ZoneID:       d.ZoneID,
		Amount:       d.Amount,
		DonorAddress: d.DonorAddress,
		Status:       d.Status,
		Currency:     d.Currency,
	}
	m.FromDomainBaseEntity(d.BaseEntity)
	return m
}
