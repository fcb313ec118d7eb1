package models

import (
	"github.com/aidledger/backend/internal/domain/ledger"
	"github.com/shopspring/decimal"
)

// AccountModel is the persistence model for the Account aggregate root.
type AccountModel struct {
	AggregateModel
	Address string          `gorm:"type:varchar(128);not null;uniqueIndex:idx_accounts_address"`
	Balance decimal.Decimal `gorm:"type:decimal(20,6);not null;default:0"`
	Role    ledger.Role     `gorm:"type:varchar(20);not null;default:'DONOR';index"`
}

// TableName returns the table name for GORM
func (AccountModel) TableName() string {
	return "accounts"
}

// ToDomain converts the persistence model to a domain Account.
func (m *AccountModel) ToDomain() *ledger.Account {
	return &ledger.Account{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Address:           m.Address,
		Balance:           m.Balance,
		Role:              m.Role,
	}
}

// FromDomain populates the persistence model from a domain Account.
func (m *AccountModel) FromDomain(a *ledger.Account) {
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	m.Address = a.Address
	m.Balance = a.Balance
	m.Role = a.Role
}

// AccountModelFromDomain creates a new persistence model from a domain Account.
func AccountModelFromDomain(a *ledger.Account) *AccountModel {
	m := &AccountModel{}
	m.FromDomain(a)
	return m
}
