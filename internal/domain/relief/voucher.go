package relief

import (
	"strings"
	"time"

	"github.com/aidledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VoucherStatus is the lifecycle state of a voucher
type VoucherStatus string

const (
	VoucherStatusIssued   VoucherStatus = "ISSUED"
	VoucherStatusRedeemed VoucherStatus = "REDEEMED"
	VoucherStatusExpired  VoucherStatus = "EXPIRED"
)

// DefaultValidityMonths is how long a voucher stays redeemable
const DefaultValidityMonths = 3

// IsTerminal reports whether no further transition is possible
func (s VoucherStatus) IsTerminal() bool {
	return s == VoucherStatusRedeemed || s == VoucherStatusExpired
}

// Voucher is a redeemable claim on part of a zone's allocation.
// Allowed transitions: ISSUED -> REDEEMED, ISSUED -> EXPIRED.
type Voucher struct {
	shared.BaseAggregateRoot
	ZoneID        uuid.UUID
	BeneficiaryID uuid.UUID
	Amount        decimal.Decimal
	QRCode        string
	Status        VoucherStatus
	DonationID    *uuid.UUID
	ExpiresAt     time.Time
	RedeemedAt    *time.Time
}

// NewVoucherInput carries the attributes of a voucher about to be issued
type NewVoucherInput struct {
	ZoneID         uuid.UUID
	BeneficiaryID  uuid.UUID
	Amount         decimal.Decimal
	QRCode         string
	DonationID     *uuid.UUID
	IssuedAt       time.Time
	ValidityMonths int
}

// NewVoucher creates an ISSUED voucher expiring ValidityMonths after IssuedAt
func NewVoucher(in NewVoucherInput) (*Voucher, error) {
	if in.ZoneID == uuid.Nil || in.BeneficiaryID == uuid.Nil {
		return nil, shared.ErrMissingFields
	}
	if err := shared.ValidateAmount("Voucher amount", in.Amount); err != nil {
		return nil, err
	}
	qr := strings.TrimSpace(in.QRCode)
	if qr == "" {
		return nil, shared.NewValidationError("Voucher token cannot be empty")
	}

	issuedAt := in.IssuedAt
	if issuedAt.IsZero() {
		issuedAt = time.Now()
	}
	months := in.ValidityMonths
	if months <= 0 {
		months = DefaultValidityMonths
	}

	root := shared.NewBaseAggregateRoot()
	root.BaseEntity = shared.NewBaseEntityAt(issuedAt)

	v := &Voucher{
		BaseAggregateRoot: root,
		ZoneID:            in.ZoneID,
		BeneficiaryID:     in.BeneficiaryID,
		Amount:            in.Amount,
		QRCode:            qr,
		Status:            VoucherStatusIssued,
		DonationID:        in.DonationID,
		ExpiresAt:         root.CreatedAt.AddDate(0, months, 0),
	}
	v.AddDomainEvent(NewVoucherIssuedEvent(v))
	return v, nil
}

// Issuance paths reported on VoucherIssuedEvent
const (
	IssuePathDirect   = "issue"
	IssuePathClaim    = "claim"
	IssuePathDonation = "donation"
)

// IssuePath tells how the voucher came to exist
func (v *Voucher) IssuePath() string {
	switch {
	case v.DonationID != nil:
		return IssuePathDonation
	case strings.HasPrefix(v.QRCode, ClaimTokenPrefix):
		return IssuePathClaim
	default:
		return IssuePathDirect
	}
}

// IsOverdue reports whether the voucher is past its expiry at now
func (v *Voucher) IsOverdue(now time.Time) bool {
	return !now.Before(v.ExpiresAt)
}

// EffectiveStatus is the status as observed at now.
// An ISSUED voucher past its expiry reads as EXPIRED even before the sweep persists it.
func (v *Voucher) EffectiveStatus(now time.Time) VoucherStatus {
	if v.Status == VoucherStatusIssued && v.IsOverdue(now) {
		return VoucherStatusExpired
	}
	return v.Status
}

// Redeem spends the voucher exactly once
func (v *Voucher) Redeem(now time.Time) error {
	switch v.EffectiveStatus(now) {
	case VoucherStatusRedeemed:
		return shared.NewDomainError(shared.CodeInvalidState, "Voucher has already been redeemed")
	case VoucherStatusExpired:
		return shared.ErrVoucherExpired
	}

	redeemedAt := now.UTC()
	v.Status = VoucherStatusRedeemed
	v.RedeemedAt = &redeemedAt
	v.Touch()
	v.IncrementVersion()
	v.AddDomainEvent(NewVoucherRedeemedEvent(v))
	return nil
}

// Expire moves an overdue ISSUED voucher to EXPIRED
func (v *Voucher) Expire(now time.Time) error {
	if v.Status != VoucherStatusIssued {
		return shared.NewDomainError(shared.CodeInvalidState, "Only issued vouchers can expire")
	}
	if !v.IsOverdue(now) {
		return shared.NewDomainError(shared.CodeInvalidState, "Voucher has not reached its expiry")
	}

	v.Status = VoucherStatusExpired
	v.Touch()
	v.IncrementVersion()
	v.AddDomainEvent(NewVoucherExpiredEvent(v))
	return nil
}
