// Package ledger holds the cash accounts that donors and beneficiaries transact from.
package ledger

import (
	"strings"

	"github.com/aidledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Role classifies an account holder
type Role string

const (
	RoleDonor       Role = "DONOR"
	RoleBeneficiary Role = "BENEFICIARY"
	RoleAgency      Role = "AGENCY"
	RoleAdmin       Role = "ADMIN"
)

// IsValid returns true if the role is a known role
func (r Role) IsValid() bool {
	switch r {
	case RoleDonor, RoleBeneficiary, RoleAgency, RoleAdmin:
		return true
	}
	return false
}

// Account is the aggregate root for a wallet-addressed cash balance.
// Balance never goes negative.
type Account struct {
	shared.BaseAggregateRoot
	Address string
	Balance decimal.Decimal
	Role    Role
}

// NormalizeAddress canonicalizes a wallet address so lookups are case-insensitive
func NormalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// NewAccount creates an account with a zero balance
func NewAccount(address string, role Role) (*Account, error) {
	address = NormalizeAddress(address)
	if address == "" {
		return nil, shared.NewValidationError("Account address cannot be empty")
	}
	if role == "" {
		role = RoleDonor
	}
	if !role.IsValid() {
		return nil, shared.NewValidationError("Account role must be one of DONOR, BENEFICIARY, AGENCY, ADMIN")
	}

	account := &Account{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Address:           address,
		Balance:           decimal.Zero,
		Role:              role,
	}
	account.AddDomainEvent(NewAccountOpenedEvent(account))
	return account, nil
}

// Credit adds a positive amount to the balance
func (a *Account) Credit(amount decimal.Decimal) error {
	if err := shared.ValidateAmount("Amount", amount); err != nil {
		return err
	}
	if err := shared.ValidateTotal("Balance", a.Balance.Add(amount)); err != nil {
		return err
	}

	old := a.Balance
	a.Balance = a.Balance.Add(amount)
	a.Touch()
	a.IncrementVersion()
	a.AddDomainEvent(NewBalanceChangedEvent(a, old, "credit"))
	return nil
}

// Debit removes a positive amount from the balance, failing when funds are short
func (a *Account) Debit(amount decimal.Decimal) error {
	if err := shared.ValidateAmount("Amount", amount); err != nil {
		return err
	}
	if a.Balance.LessThan(amount) {
		return shared.ErrInsufficientFunds
	}

	old := a.Balance
	a.Balance = a.Balance.Sub(amount)
	a.Touch()
	a.IncrementVersion()
	a.AddDomainEvent(NewBalanceChangedEvent(a, old, "debit"))
	return nil
}
