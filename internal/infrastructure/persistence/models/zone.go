package models

import (
	"github.com/aidledger/backend/internal/domain/relief"
	"github.com/shopspring/decimal"
)

// ZoneModel is the persistence model for the Zone aggregate root.
type ZoneModel struct {
	AggregateModel
	Name          string            `gorm:"type:varchar(200);not null"`
	Location      string            `gorm:"type:varchar(200);not null"`
	Type          string            `gorm:"type:varchar(50);not null;default:'General'"`
	Latitude      float64           `gorm:"not null;default:0"`
	Longitude     float64           `gorm:"not null;default:0"`
	Radius        int               `gorm:"not null;default:1000"`
	Budget        decimal.Decimal   `gorm:"type:decimal(20,6);not null"`
	Allocated     decimal.Decimal   `gorm:"type:decimal(20,6);not null;default:0"`
	Distributed   decimal.Decimal   `gorm:"type:decimal(20,6);not null;default:0"`
	Beneficiaries int               `gorm:"not null;default:0"`
	Status        relief.ZoneStatus `gorm:"type:varchar(20);not null;default:'PENDING'"`
	Severity      relief.Severity   `gorm:"type:varchar(20);not null;default:'MEDIUM'"`
}

// TableName returns the table name for GORM
func (ZoneModel) TableName() string {
	return "zones"
}

// ToDomain converts the persistence model to a domain Zone.
func (m *ZoneModel) ToDomain() *relief.Zone {
	return &relief.Zone{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Name:              m.Name,
		Location:          m.Location,
		Type:              m.Type,
		Latitude:          m.Latitude,
		Longitude:         m.Longitude,
		Radius:            m.Radius,
		Budget:            m.Budget,
		Allocated:         m.Allocated,
		Distributed:       m.Distributed,
		Beneficiaries:     m.Beneficiaries,
		Status:            m.Status,
		Severity:          m.Severity,
	}
}

// FromDomain populates the persistence model from a domain Zone.
func (m *ZoneModel) FromDomain(z *relief.Zone) {
	m.FromDomainAggregateRoot(z.BaseAggregateRoot)
	m.Name = z.Name
	m.Location = z.Location
	m.Type = z.Type
	m.Latitude = z.Latitude
	m.Longitude = z.Longitude
	m.Radius = z.Radius
	m.Budget = z.Budget
	m.Allocated = z.Allocated
	m.Distributed = z.Distributed
	m.Beneficiaries = z.Beneficiaries
	m.Status = z.Status
	m.Severity = z.Severity
}

// ZoneModelFromDomain creates a new persistence model from a domain Zone.
func ZoneModelFromDomain(z *relief.Zone) *ZoneModel {
	m := &ZoneModel{}
	m.FromDomain(z)
	return m
}
