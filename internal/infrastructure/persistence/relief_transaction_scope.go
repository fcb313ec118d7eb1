package persistence

import (
	"context"

	apprelief "github.com/aidledger/backend/internal/application/relief"
	"github.com/aidledger/backend/internal/domain/ledger"
	"github.com/aidledger/backend/internal/domain/relief"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos apprelief.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// Accounts returns the account repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Accounts() ledger.AccountRepository {
	return NewGormAccountRepository(r.tx)
}

// Zones returns the zone repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Zones() relief.ZoneRepository {
	return NewGormZoneRepository(r.tx)
}

// Donations returns the donation repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Donations() relief.DonationRepository {
	return NewGormDonationRepository(r.tx)
}

// Vouchers returns the voucher repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Vouchers() relief.VoucherRepository {
	return NewGormVoucherRepository(r.tx)
}

// Savepoint nests a transaction; GORM emits SAVEPOINT / ROLLBACK TO SAVEPOINT.
func (r *gormTransactionalRepositories) Savepoint(ctx context.Context, fn func(repos apprelief.TransactionalRepositories) error) error {
	return r.tx.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// Ensure GormTransactionScope implements TransactionScope
var _ apprelief.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ apprelief.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
