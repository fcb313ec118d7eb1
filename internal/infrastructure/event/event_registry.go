package event

import (
	"github.com/aidledger/backend/internal/domain/ledger"
	"github.com/aidledger/backend/internal/domain/relief"
)

// RegisterLedgerEvents registers every domain event type with the serializer
func RegisterLedgerEvents(serializer *EventSerializer) {
	serializer.Register(ledger.EventTypeAccountOpened, &ledger.AccountOpenedEvent{})
	serializer.Register(ledger.EventTypeBalanceChanged, &ledger.BalanceChangedEvent{})

	serializer.Register(relief.EventTypeZoneCreated, &relief.ZoneCreatedEvent{})
	serializer.Register(relief.EventTypeDonationCompleted, &relief.DonationCompletedEvent{})
	serializer.Register(relief.EventTypeVoucherIssued, &relief.VoucherIssuedEvent{})
	serializer.Register(relief.EventTypeVoucherRedeemed, &relief.VoucherRedeemedEvent{})
	serializer.Register(relief.EventTypeVoucherExpired, &relief.VoucherExpiredEvent{})
}
