package relief

import (
	"strings"

	"github.com/aidledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DonationStatus is the status of a donation record
type DonationStatus string

// Donations are only ever recorded once they have settled
const DonationStatusCompleted DonationStatus = "COMPLETED"

// CurrencyUSDC is the single settlement currency
const CurrencyUSDC = "USDC"

// AnonymousDonor marks donations without a donor address
const AnonymousDonor = "anonymous"

// Donation is an immutable record of money given to a zone
type Donation struct {
	shared.BaseEntity
	ZoneID       uuid.UUID
	Amount       decimal.Decimal
	DonorAddress string
	Status       DonationStatus
	Currency     string
}

// NewDonation records a completed donation.
// An empty donor address is stored as AnonymousDonor.
func NewDonation(zoneID uuid.UUID, amount decimal.Decimal, donorAddress string) (*Donation, error) {
	if zoneID == uuid.Nil {
		return nil, shared.ErrMissingFields
	}
	if err := shared.ValidateAmount("Donation amount", amount); err != nil {
		return nil, err
	}

	donor := strings.ToLower(strings.TrimSpace(donorAddress))
	if donor == "" {
		donor = AnonymousDonor
	}

	return &Donation{
		BaseEntity:   shared.NewBaseEntity(),
		ZoneID:       zoneID,
		Amount:       amount,
		DonorAddress: donor,
		Status:       DonationStatusCompleted,
		Currency:     CurrencyUSDC,
	}, nil
}

// IsAnonymous reports whether the donor is unknown
func (d *Donation) IsAnonymous() bool {
	return d.DonorAddress == AnonymousDonor
}
