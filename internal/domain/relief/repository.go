package relief

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ZoneRepository persists Zone aggregates
type ZoneRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Zone, error)
	// FindByIDForUpdate reads the zone under a write lock held until the transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Zone, error)
	// FindByIDs returns the zones that exist among ids, in no particular order
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Zone, error)
	// FindAll returns every zone, newest first
	FindAll(ctx context.Context) ([]Zone, error)
	Create(ctx context.Context, zone *Zone) error
	// SaveWithLock writes the counters when the stored version is zone.Version-1
	SaveWithLock(ctx context.Context, zone *Zone) error
}

// DonationRepository persists immutable Donation records
type DonationRepository interface {
	Create(ctx context.Context, donation *Donation) error
	FindByID(ctx context.Context, id uuid.UUID) (*Donation, error)
	// FindByIDs returns the donations that exist among ids; unknown ids are skipped
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Donation, error)
}

// VoucherRepository persists Voucher aggregates
type VoucherRepository interface {
	// Create inserts the voucher, returning shared.ErrDuplicateToken when the token is taken
	Create(ctx context.Context, voucher *Voucher) error
	FindByQRCode(ctx context.Context, qrCode string) (*Voucher, error)
	FindByQRCodeForUpdate(ctx context.Context, qrCode string) (*Voucher, error)
	// FindByBeneficiary returns the beneficiary's vouchers, newest first
	FindByBeneficiary(ctx context.Context, beneficiaryID uuid.UUID) ([]Voucher, error)
	// FindOverdueForUpdate locks up to limit ISSUED vouchers whose expiry is at or before now
	FindOverdueForUpdate(ctx context.Context, now time.Time, limit int) ([]Voucher, error)
	SaveWithLock(ctx context.Context, voucher *Voucher) error
}
