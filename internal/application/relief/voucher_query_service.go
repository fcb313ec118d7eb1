package relief

import (
	"context"
	"time"

	"github.com/aidledger/backend/internal/domain/ledger"
	"github.com/aidledger/backend/internal/domain/relief"
	"github.com/aidledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// VoucherQueryService serves the beneficiary-facing voucher projection
type VoucherQueryService struct {
	accounts  ledger.AccountRepository
	zones     relief.ZoneRepository
	donations relief.DonationRepository
	vouchers  relief.VoucherRepository
	now       func() time.Time
}

// NewVoucherQueryService creates a new VoucherQueryService
func NewVoucherQueryService(
	accounts ledger.AccountRepository,
	zones relief.ZoneRepository,
	donations relief.DonationRepository,
	vouchers relief.VoucherRepository,
) *VoucherQueryService {
	return &VoucherQueryService{
		accounts:  accounts,
		zones:     zones,
		donations: donations,
		vouchers:  vouchers,
		now:       time.Now,
	}
}

// ListVouchers returns the beneficiary's vouchers, newest first.
// Zones and donations that no longer resolve fall back to fixed labels.
func (s *VoucherQueryService) ListVouchers(ctx context.Context, beneficiaryAddress string) ([]VoucherSummary, error) {
	address := ledger.NormalizeAddress(beneficiaryAddress)
	if address == "" {
		return nil, shared.ErrMissingFields
	}

	account, err := s.accounts.FindByAddress(ctx, address)
	if err != nil {
		return nil, err
	}
	vouchers, err := s.vouchers.FindByBeneficiary(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	if len(vouchers) == 0 {
		return []VoucherSummary{}, nil
	}

	zoneIDs, donationIDs := referencedIDs(vouchers)
	zoneNames := make(map[uuid.UUID]string, len(zoneIDs))
	donors := make(map[uuid.UUID]string, len(donationIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zones, err := s.zones.FindByIDs(gctx, zoneIDs)
		if err != nil {
			return err
		}
		for _, z := range zones {
			zoneNames[z.ID] = z.Name
		}
		return nil
	})
	g.Go(func() error {
		donations, err := s.donations.FindByIDs(gctx, donationIDs)
		if err != nil {
			return err
		}
		for _, d := range donations {
			if !d.IsAnonymous() {
				donors[d.ID] = d.DonorAddress
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := s.now()
	out := make([]VoucherSummary, len(vouchers))
	for i := range vouchers {
		v := &vouchers[i]
		summary := VoucherSummary{
			ID:     v.ID,
			Type:   DefaultVoucherType,
			Amount: v.Amount,
			Status: v.EffectiveStatus(now),
			Expiry: v.ExpiresAt.UTC().Format(ExpiryDateLayout),
			Zone:   GlobalZoneName,
			QRCode: v.QRCode,
			Donor:  AnonymousDonorName,
		}
		if name, ok := zoneNames[v.ZoneID]; ok {
			summary.Type = name
			summary.Zone = name
		}
		if v.DonationID != nil {
			if donor, ok := donors[*v.DonationID]; ok {
				summary.Donor = donor
			}
		}
		out[i] = summary
	}
	return out, nil
}

func referencedIDs(vouchers []relief.Voucher) (zoneIDs, donationIDs []uuid.UUID) {
	seenZones := make(map[uuid.UUID]struct{})
	seenDonations := make(map[uuid.UUID]struct{})
	for _, v := range vouchers {
		if _, ok := seenZones[v.ZoneID]; !ok {
			seenZones[v.ZoneID] = struct{}{}
			zoneIDs = append(zoneIDs, v.ZoneID)
		}
		if v.DonationID != nil {
			if _, ok := seenDonations[*v.DonationID]; !ok {
				seenDonations[*v.DonationID] = struct{}{}
				donationIDs = append(donationIDs, *v.DonationID)
			}
		}
	}
	return zoneIDs, donationIDs
}
