package ledger

import (
	"github.com/aidledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeAccount is the aggregate type for account events
const AggregateTypeAccount = "Account"

// Event type constants
const (
	EventTypeAccountOpened  = "AccountOpened"
	EventTypeBalanceChanged = "AccountBalanceChanged"
)

// AccountOpenedEvent is published when a new account is created
type AccountOpenedEvent struct {
	shared.BaseDomainEvent
	AccountID uuid.UUID `json:"account_id"`
	Address   string    `json:"address"`
	Role      Role      `json:"role"`
}

// NewAccountOpenedEvent creates a new AccountOpenedEvent
func NewAccountOpenedEvent(a *Account) *AccountOpenedEvent {
	return &AccountOpenedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAccountOpened, AggregateTypeAccount, a.ID),
		AccountID:       a.ID,
		Address:         a.Address,
		Role:            a.Role,
	}
}

// BalanceChangedEvent is published on every credit or debit
type BalanceChangedEvent struct {
	shared.BaseDomainEvent
	AccountID  uuid.UUID       `json:"account_id"`
	Address    string          `json:"address"`
	OldBalance decimal.Decimal `json:"old_balance"`
	NewBalance decimal.Decimal `json:"new_balance"`
	Direction  string          `json:"direction"`
}

// NewBalanceChangedEvent creates a new BalanceChangedEvent
func NewBalanceChangedEvent(a *Account, old decimal.Decimal, direction string) *BalanceChangedEvent {
	return &BalanceChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBalanceChanged, AggregateTypeAccount, a.ID),
		AccountID:       a.ID,
		Address:         a.Address,
		OldBalance:      old,
		NewBalance:      a.Balance,
		Direction:       direction,
	}
}
