package relief

import (
	"context"

	"github.com/aidledger/backend/internal/domain/ledger"
	"github.com/aidledger/backend/internal/domain/relief"
)

// TransactionScope provides transactional access to the ledger repositories.
// When a function is executed within a transaction scope, all repository operations
// will be part of the same database transaction and will be committed or rolled back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all repositories within a transaction.
// All repositories returned share the same underlying database transaction.
type TransactionalRepositories interface {
	Accounts() ledger.AccountRepository
	Zones() relief.ZoneRepository
	Donations() relief.DonationRepository
	Vouchers() relief.VoucherRepository
	// Savepoint runs fn inside a nested transaction. An error from fn rolls back
	// only the work done inside it; the outer transaction stays usable.
	Savepoint(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// NoOpTransactionScope is a transaction scope that doesn't actually use transactions.
// This is useful for testing with in-memory repositories.
type NoOpTransactionScope struct {
	accounts  ledger.AccountRepository
	zones     relief.ZoneRepository
	donations relief.DonationRepository
	vouchers  relief.VoucherRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	accounts ledger.AccountRepository,
	zones relief.ZoneRepository,
	donations relief.DonationRepository,
	vouchers relief.VoucherRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		accounts:  accounts,
		zones:     zones,
		donations: donations,
		vouchers:  vouchers,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Accounts returns the account repository.
func (s *NoOpTransactionScope) Accounts() ledger.AccountRepository {
	return s.accounts
}

// Zones returns the zone repository.
func (s *NoOpTransactionScope) Zones() relief.ZoneRepository {
	return s.zones
}

// Donations returns the donation repository.
func (s *NoOpTransactionScope) Donations() relief.DonationRepository {
	return s.donations
}

// Vouchers returns the voucher repository.
func (s *NoOpTransactionScope) Vouchers() relief.VoucherRepository {
	return s.vouchers
}

// Savepoint runs fn directly; nothing is rolled back on error.
func (s *NoOpTransactionScope) Savepoint(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

var (
	_ TransactionScope          = (*NoOpTransactionScope)(nil)
	_ TransactionalRepositories = (*NoOpTransactionScope)(nil)
)
