package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	apprelief "github.com/aidledger/backend/internal/application/relief"
	"github.com/aidledger/backend/internal/domain/ledger"
	"github.com/aidledger/backend/internal/domain/relief"
	"github.com/aidledger/backend/internal/domain/shared"
	"github.com/aidledger/backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type reliefFixture struct {
	db        *gorm.DB
	accounts  *GormAccountRepository
	zones     *GormZoneRepository
	donations *GormDonationRepository
	vouchers  *GormVoucherRepository
}

func newReliefFixture(t *testing.T) *reliefFixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	return &reliefFixture{
		db:        db,
		accounts:  NewGormAccountRepository(db),
		zones:     NewGormZoneRepository(db),
		donations: NewGormDonationRepository(db),
		vouchers:  NewGormVoucherRepository(db),
	}
}

func (f *reliefFixture) account(t *testing.T, address string, role ledger.Role) *ledger.Account {
	t.Helper()
	a, err := ledger.NewAccount(address, role)
	require.NoError(t, err)
	require.NoError(t, f.accounts.Create(context.Background(), a))
	return a
}

func (f *reliefFixture) zone(t *testing.T, allocated int64) *relief.Zone {
	t.Helper()
	z, err := relief.NewZone(relief.NewZoneInput{Name: "Delta", Location: "River", Budget: decimal.NewFromInt(100000)})
	require.NoError(t, err)
	z.Allocated = decimal.NewFromInt(allocated)
	require.NoError(t, f.zones.Create(context.Background(), z))
	return z
}

func (f *reliefFixture) voucher(t *testing.T, zone *relief.Zone, beneficiary *ledger.Account, qr string, issuedAt time.Time) *relief.Voucher {
	t.Helper()
	v, err := relief.NewVoucher(relief.NewVoucherInput{
		ZoneID:        zone.ID,
		BeneficiaryID: beneficiary.ID,
		Amount:        decimal.NewFromInt(50),
		QRCode:        qr,
		IssuedAt:      issuedAt,
	})
	require.NoError(t, err)
	require.NoError(t, f.vouchers.Create(context.Background(), v))
	return v
}

func TestAccountRepository_CreateIfAbsent(t *testing.T) {
	f := newReliefFixture(t)
	ctx := context.Background()

	first, err := ledger.NewAccount("0xDonor", ledger.RoleDonor)
	require.NoError(t, err)
	created, err := f.accounts.CreateIfAbsent(ctx, first)
	require.NoError(t, err)
	assert.True(t, created)

	second, err := ledger.NewAccount("0xdonor", ledger.RoleAgency)
	require.NoError(t, err)
	created, err = f.accounts.CreateIfAbsent(ctx, second)
	require.NoError(t, err)
	assert.False(t, created)

	stored, err := f.accounts.FindByAddress(ctx, "0XDONOR")
	require.NoError(t, err)
	assert.Equal(t, first.ID, stored.ID)
	assert.Equal(t, ledger.RoleDonor, stored.Role)
	assert.True(t, stored.Balance.IsZero())
}

func TestAccountRepository_CreateDuplicateAddress(t *testing.T) {
	f := newReliefFixture(t)
	f.account(t, "0xdup", ledger.RoleDonor)

	dup, err := ledger.NewAccount("0xDUP", ledger.RoleDonor)
	require.NoError(t, err)

	err = f.accounts.Create(context.Background(), dup)
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestAccountRepository_FindFirstByRole(t *testing.T) {
	f := newReliefFixture(t)
	ctx := context.Background()

	_, err := f.accounts.FindFirstByRole(ctx, ledger.RoleBeneficiary)
	assert.ErrorIs(t, err, shared.ErrAccountNotFound)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, address := range []string{"0xlater", "0xearliest", "0xdonor"} {
		role := ledger.RoleBeneficiary
		if address == "0xdonor" {
			role = ledger.RoleDonor
		}
		a, err := ledger.NewAccount(address, role)
		require.NoError(t, err)
		a.CreatedAt = base.Add(time.Duration(2-i) * time.Hour)
		if address == "0xdonor" {
			a.CreatedAt = base.Add(-time.Hour)
		}
		require.NoError(t, f.accounts.Create(ctx, a))
	}

	first, err := f.accounts.FindFirstByRole(ctx, ledger.RoleBeneficiary)
	require.NoError(t, err)
	assert.Equal(t, "0xearliest", first.Address)
}

func TestAccountRepository_SaveWithLock(t *testing.T) {
	f := newReliefFixture(t)
	ctx := context.Background()
	a := f.account(t, "0xsaver", ledger.RoleDonor)

	require.NoError(t, a.Credit(decimal.NewFromInt(200)))
	require.NoError(t, f.accounts.SaveWithLock(ctx, a))

	stale, err := f.accounts.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, stale.Balance.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, 2, stale.Version)

	require.NoError(t, a.Debit(decimal.NewFromInt(150)))
	require.NoError(t, f.accounts.SaveWithLock(ctx, a))

	require.NoError(t, stale.Debit(decimal.NewFromInt(10)))
	assert.ErrorIs(t, f.accounts.SaveWithLock(ctx, stale), shared.ErrConcurrencyConflict)

	reloaded, err := f.accounts.FindByAddress(ctx, "0xsaver")
	require.NoError(t, err)
	assert.True(t, reloaded.Balance.Equal(decimal.NewFromInt(50)))
}

func TestZoneRepository(t *testing.T) {
	f := newReliefFixture(t)
	ctx := context.Background()

	_, err := f.zones.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrZoneNotFound)

	older := f.zone(t, 0)
	newer, err := relief.NewZone(relief.NewZoneInput{Name: "Newer", Location: "Coast", Budget: decimal.NewFromInt(10)})
	require.NoError(t, err)
	newer.CreatedAt = older.CreatedAt.Add(time.Minute)
	require.NoError(t, f.zones.Create(ctx, newer))

	all, err := f.zones.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, newer.ID, all[0].ID)

	some, err := f.zones.FindByIDs(ctx, []uuid.UUID{older.ID, uuid.New()})
	require.NoError(t, err)
	require.Len(t, some, 1)
	assert.Equal(t, older.ID, some[0].ID)

	none, err := f.zones.FindByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)

	require.NoError(t, older.IncreaseAllocated(decimal.NewFromInt(500)))
	require.NoError(t, f.zones.SaveWithLock(ctx, older))
	require.NoError(t, older.ReserveDistribution(decimal.RequireFromString("62.5")))
	require.NoError(t, f.zones.SaveWithLock(ctx, older))

	stored, err := f.zones.FindByIDForUpdate(ctx, older.ID)
	require.NoError(t, err)
	assert.True(t, stored.Allocated.Equal(decimal.NewFromInt(500)))
	assert.True(t, stored.Distributed.Equal(decimal.RequireFromString("62.5")))
	assert.Equal(t, 1, stored.Beneficiaries)
	assert.Equal(t, older.Version, stored.Version)
}

func TestDonationRepository(t *testing.T) {
	f := newReliefFixture(t)
	ctx := context.Background()
	z := f.zone(t, 0)

	d, err := relief.NewDonation(z.ID, decimal.NewFromInt(500), "")
	require.NoError(t, err)
	require.NoError(t, f.donations.Create(ctx, d))

	stored, err := f.donations.FindByID(ctx, d.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsAnonymous())
	assert.Equal(t, "USDC", stored.Currency)

	_, err = f.donations.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)

	found, err := f.donations.FindByIDs(ctx, []uuid.UUID{d.ID})
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestDonationRepository_RequiresExistingZone(t *testing.T) {
	f := newReliefFixture(t)

	d, err := relief.NewDonation(uuid.New(), decimal.NewFromInt(5), "0xdonor")
	require.NoError(t, err)
	assert.Error(t, f.donations.Create(context.Background(), d))
}

func TestVoucherRepository_DuplicateToken(t *testing.T) {
	f := newReliefFixture(t)
	z := f.zone(t, 1000)
	b := f.account(t, "0xbeneficiary", ledger.RoleBeneficiary)
	f.voucher(t, z, b, "same-token", time.Now())

	dup, err := relief.NewVoucher(relief.NewVoucherInput{
		ZoneID:        z.ID,
		BeneficiaryID: b.ID,
		Amount:        decimal.NewFromInt(10),
		QRCode:        "same-token",
	})
	require.NoError(t, err)

	err = f.vouchers.Create(context.Background(), dup)
	assert.ErrorIs(t, err, shared.ErrDuplicateToken)
}

func TestVoucherRepository_FindAndRedeem(t *testing.T) {
	f := newReliefFixture(t)
	ctx := context.Background()
	z := f.zone(t, 1000)
	b := f.account(t, "0xben", ledger.RoleBeneficiary)
	older := f.voucher(t, z, b, "qr-old", time.Now().Add(-time.Hour))
	newer := f.voucher(t, z, b, "qr-new", time.Now())

	list, err := f.vouchers.FindByBeneficiary(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, older.ID, list[1].ID)

	_, err = f.vouchers.FindByQRCode(ctx, "missing")
	assert.ErrorIs(t, err, shared.ErrVoucherNotFound)

	v, err := f.vouchers.FindByQRCodeForUpdate(ctx, "qr-new")
	require.NoError(t, err)
	require.NoError(t, v.Redeem(time.Now()))
	require.NoError(t, f.vouchers.SaveWithLock(ctx, v))

	stored, err := f.vouchers.FindByQRCode(ctx, "qr-new")
	require.NoError(t, err)
	assert.Equal(t, relief.VoucherStatusRedeemed, stored.Status)
	require.NotNil(t, stored.RedeemedAt)

	assert.ErrorIs(t, f.vouchers.SaveWithLock(ctx, v), shared.ErrConcurrencyConflict)
}

func TestVoucherRepository_FindOverdueForUpdate(t *testing.T) {
	f := newReliefFixture(t)
	ctx := context.Background()
	z := f.zone(t, 1000)
	b := f.account(t, "0xben", ledger.RoleBeneficiary)

	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	overdue := f.voucher(t, z, b, "qr-overdue", now.AddDate(0, -4, 0))
	mostOverdue := f.voucher(t, z, b, "qr-most", now.AddDate(0, -5, 0))
	f.voucher(t, z, b, "qr-fresh", now.AddDate(0, -1, 0))
	redeemed := f.voucher(t, z, b, "qr-redeemed", now.AddDate(0, -6, 0))
	redeemed.Status = relief.VoucherStatusRedeemed
	redeemed.IncrementVersion()
	require.NoError(t, f.vouchers.SaveWithLock(ctx, redeemed))

	got, err := f.vouchers.FindOverdueForUpdate(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, mostOverdue.ID, got[0].ID)
	assert.Equal(t, overdue.ID, got[1].ID)

	limited, err := f.vouchers.FindOverdueForUpdate(ctx, now, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestGormTransactionScope(t *testing.T) {
	f := newReliefFixture(t)
	ctx := context.Background()
	scope := NewGormTransactionScope(f.db)
	z := f.zone(t, 0)

	t.Run("rolls back every write on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := scope.Execute(ctx, func(repos apprelief.TransactionalRepositories) error {
			zone, err := repos.Zones().FindByIDForUpdate(ctx, z.ID)
			require.NoError(t, err)
			require.NoError(t, zone.IncreaseAllocated(decimal.NewFromInt(100)))
			require.NoError(t, repos.Zones().SaveWithLock(ctx, zone))
			return boom
		})
		assert.ErrorIs(t, err, boom)

		stored, err := f.zones.FindByID(ctx, z.ID)
		require.NoError(t, err)
		assert.True(t, stored.Allocated.IsZero())
	})

	t.Run("savepoint failure keeps the outer work", func(t *testing.T) {
		b := f.account(t, "0xsp", ledger.RoleBeneficiary)

		err := scope.Execute(ctx, func(repos apprelief.TransactionalRepositories) error {
			zone, err := repos.Zones().FindByIDForUpdate(ctx, z.ID)
			if err != nil {
				return err
			}
			if err := zone.IncreaseAllocated(decimal.NewFromInt(100)); err != nil {
				return err
			}
			if err := repos.Zones().SaveWithLock(ctx, zone); err != nil {
				return err
			}

			spErr := repos.Savepoint(ctx, func(inner apprelief.TransactionalRepositories) error {
				v, err := relief.NewVoucher(relief.NewVoucherInput{
					ZoneID: z.ID, BeneficiaryID: b.ID,
					Amount: decimal.NewFromInt(10), QRCode: "sp-token",
				})
				if err != nil {
					return err
				}
				if err := inner.Vouchers().Create(ctx, v); err != nil {
					return err
				}
				return errors.New("discard voucher")
			})
			assert.Error(t, spErr)
			return nil
		})
		require.NoError(t, err)

		stored, err := f.zones.FindByID(ctx, z.ID)
		require.NoError(t, err)
		assert.True(t, stored.Allocated.Equal(decimal.NewFromInt(100)))

		_, err = f.vouchers.FindByQRCode(ctx, "sp-token")
		assert.ErrorIs(t, err, shared.ErrVoucherNotFound)
	})
}
