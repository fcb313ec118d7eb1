package ledger

import (
	"context"

	"github.com/google/uuid"
)

// AccountRepository persists Account aggregates.
// Lookups by address use the normalized form.
type AccountRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)
	// FindByIDForUpdate reads the row under a write lock held until the transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Account, error)
	FindByAddress(ctx context.Context, address string) (*Account, error)
	FindByAddressForUpdate(ctx context.Context, address string) (*Account, error)
	// FindFirstByRole returns the oldest account holding the role
	FindFirstByRole(ctx context.Context, role Role) (*Account, error)
	// CreateIfAbsent inserts the account unless the address is taken.
	// Returns true when the row was inserted.
	CreateIfAbsent(ctx context.Context, account *Account) (bool, error)
	Create(ctx context.Context, account *Account) error
	// SaveWithLock writes the balance when the stored version is account.Version-1
	SaveWithLock(ctx context.Context, account *Account) error
}
