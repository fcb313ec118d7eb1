package relief

import (
	"time"

	"github.com/aidledger/backend/internal/domain/ledger"
	"github.com/aidledger/backend/internal/domain/relief"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Labels used by the beneficiary voucher projection when joins do not resolve
const (
	DefaultVoucherType = "Relief Aid"
	GlobalZoneName     = "Global"
	AnonymousDonorName = "Anonymous"
	ExpiryDateLayout   = "2006-01-02"
)

// TopUpRequest credits an account, creating it on first use
type TopUpRequest struct {
	Address string
	Amount  decimal.Decimal
}

// BalanceResponse reports an account balance
type BalanceResponse struct {
	Address string          `json:"address"`
	Balance decimal.Decimal `json:"balance"`
}

// RegisterAccountRequest creates an account with an explicit role
type RegisterAccountRequest struct {
	Address string
	Role    ledger.Role
}

// AccountResponse represents an account in API responses
type AccountResponse struct {
	ID        uuid.UUID       `json:"id"`
	Address   string          `json:"address"`
	Balance   decimal.Decimal `json:"balance"`
	Role      ledger.Role     `json:"role"`
	CreatedAt time.Time       `json:"created_at"`
}

// ToAccountResponse converts a domain Account to its response
func ToAccountResponse(a *ledger.Account) AccountResponse {
	return AccountResponse{
		ID:        a.ID,
		Address:   a.Address,
		Balance:   a.Balance,
		Role:      a.Role,
		CreatedAt: a.CreatedAt,
	}
}

// CreateZoneRequest provisions a zone
type CreateZoneRequest struct {
	Name      string
	Location  string
	Type      string
	Budget    decimal.Decimal
	Latitude  float64
	Longitude float64
	Radius    int
	Status    relief.ZoneStatus
	Severity  relief.Severity
}

// ZoneResponse represents a zone in API responses
type ZoneResponse struct {
	ID            uuid.UUID         `json:"id"`
	Name          string            `json:"name"`
	Location      string            `json:"location"`
	Type          string            `json:"type"`
	Latitude      float64           `json:"latitude"`
	Longitude     float64           `json:"longitude"`
	Radius        int               `json:"radius"`
	Budget        decimal.Decimal   `json:"budget"`
	Allocated     decimal.Decimal   `json:"allocated"`
	Distributed   decimal.Decimal   `json:"distributed"`
	Remaining     decimal.Decimal   `json:"remaining"`
	Beneficiaries int               `json:"beneficiaries"`
	Status        relief.ZoneStatus `json:"status"`
	Severity      relief.Severity   `json:"severity"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// ToZoneResponse converts a domain Zone to its response
func ToZoneResponse(z *relief.Zone) ZoneResponse {
	return ZoneResponse{
		ID:            z.ID,
		Name:          z.Name,
		Location:      z.Location,
		Type:          z.Type,
		Latitude:      z.Latitude,
		Longitude:     z.Longitude,
		Radius:        z.Radius,
		Budget:        z.Budget,
		Allocated:     z.Allocated,
		Distributed:   z.Distributed,
		Remaining:     z.Remaining(),
		Beneficiaries: z.Beneficiaries,
		Status:        z.Status,
		Severity:      z.Severity,
		CreatedAt:     z.CreatedAt,
		UpdatedAt:     z.UpdatedAt,
	}
}

// DonateRequest moves money from a donor into a zone.
// BeneficiaryID, when set, targets the auto-issued voucher.
type DonateRequest struct {
	ZoneID         uuid.UUID
	Amount         decimal.Decimal
	DonorAddress   string
	BeneficiaryID  *uuid.UUID
	IdempotencyKey string
}

// DonationResponse represents a donation in API responses
type DonationResponse struct {
	ID           uuid.UUID             `json:"id"`
	ZoneID       uuid.UUID             `json:"zone_id"`
	Amount       decimal.Decimal       `json:"amount"`
	DonorAddress string                `json:"donor_address"`
	Status       relief.DonationStatus `json:"status"`
	Currency     string                `json:"currency"`
	CreatedAt    time.Time             `json:"created_at"`
}

// DonateResult is the outcome of a committed donation
type DonateResult struct {
	Donation     DonationResponse `json:"donation"`
	NewAllocated decimal.Decimal  `json:"new_allocated"`
	// Voucher is set when auto-issuance succeeded
	Voucher *VoucherResponse `json:"voucher,omitempty"`
}

// ToDonationResponse converts a domain Donation to its response
func ToDonationResponse(d *relief.Donation) DonationResponse {
	return DonationResponse{
		ID:           d.ID,
		ZoneID:       d.ZoneID,
		Amount:       d.Amount,
		DonorAddress: d.DonorAddress,
		Status:       d.Status,
		Currency:     d.Currency,
		CreatedAt:    d.CreatedAt,
	}
}

// IssueVoucherRequest issues a voucher on behalf of an agency
type IssueVoucherRequest struct {
	ZoneID        uuid.UUID
	BeneficiaryID uuid.UUID
	Amount        decimal.Decimal
}

// ClaimVoucherRequest is a beneficiary's self-service claim of the default amount
type ClaimVoucherRequest struct {
	BeneficiaryAddress string
	ZoneID             uuid.UUID
}

// VoucherResponse represents a voucher in API responses
type VoucherResponse struct {
	ID            uuid.UUID            `json:"id"`
	ZoneID        uuid.UUID            `json:"zone_id"`
	BeneficiaryID uuid.UUID            `json:"beneficiary_id"`
	Amount        decimal.Decimal      `json:"amount"`
	QRCode        string               `json:"qr_code"`
	Status        relief.VoucherStatus `json:"status"`
	DonationID    *uuid.UUID           `json:"donation_id,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
	ExpiresAt     time.Time            `json:"expires_at"`
	RedeemedAt    *time.Time           `json:"redeemed_at,omitempty"`
}

// ToVoucherResponse converts a domain Voucher to its response, reporting the status observed at now
func ToVoucherResponse(v *relief.Voucher, now time.Time) VoucherResponse {
	return VoucherResponse{
		ID:            v.ID,
		ZoneID:        v.ZoneID,
		BeneficiaryID: v.BeneficiaryID,
		Amount:        v.Amount,
		QRCode:        v.QRCode,
		Status:        v.EffectiveStatus(now),
		DonationID:    v.DonationID,
		CreatedAt:     v.CreatedAt,
		ExpiresAt:     v.ExpiresAt,
		RedeemedAt:    v.RedeemedAt,
	}
}

// VoucherSummary is the beneficiary-facing voucher view
type VoucherSummary struct {
	ID     uuid.UUID            `json:"id"`
	Type   string               `json:"type"`
	Amount decimal.Decimal      `json:"amount"`
	Status relief.VoucherStatus `json:"status"`
	Expiry string               `json:"expiry"`
	Zone   string               `json:"zone"`
	QRCode string               `json:"qr_code"`
	Donor  string               `json:"donor"`
}

// ExpirySweepStats summarizes one sweep run
type ExpirySweepStats struct {
	Examined    int       `json:"examined"`
	Expired     int       `json:"expired"`
	Failed      int       `json:"failed"`
	ProcessedAt time.Time `json:"processed_at"`
}
