package relief

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aidledger/backend/internal/domain/ledger"
	"github.com/aidledger/backend/internal/domain/relief"
	"github.com/aidledger/backend/internal/domain/shared"
	"github.com/aidledger/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultClaimAmount is the value of a self-claimed voucher
var DefaultClaimAmount = decimal.NewFromInt(50)

// DefaultTokenAttempts bounds token regeneration after a collision
const DefaultTokenAttempts = 5

// VoucherPolicy holds the tunables of voucher issuance
type VoucherPolicy struct {
	ClaimAmount    decimal.Decimal
	ValidityMonths int
	TokenAttempts  int
}

// DefaultVoucherPolicy returns the built-in issuance policy
func DefaultVoucherPolicy() VoucherPolicy {
	return VoucherPolicy{
		ClaimAmount:    DefaultClaimAmount,
		ValidityMonths: relief.DefaultValidityMonths,
		TokenAttempts:  DefaultTokenAttempts,
	}
}

func (p VoucherPolicy) withDefaults() VoucherPolicy {
	d := DefaultVoucherPolicy()
	if !p.ClaimAmount.IsPositive() {
		p.ClaimAmount = d.ClaimAmount
	}
	if p.ValidityMonths <= 0 {
		p.ValidityMonths = d.ValidityMonths
	}
	if p.TokenAttempts <= 0 {
		p.TokenAttempts = d.TokenAttempts
	}
	return p
}

// VoucherService issues, claims and redeems vouchers
type VoucherService struct {
	eventPublishing
	txScope TransactionScope
	tokens  relief.TokenGenerator
	policy  VoucherPolicy
	metrics *telemetry.Metrics
	now     func() time.Time
}

// NewVoucherService creates a new VoucherService
func NewVoucherService(txScope TransactionScope, tokens relief.TokenGenerator, policy VoucherPolicy, logger *zap.Logger) *VoucherService {
	return &VoucherService{
		eventPublishing: eventPublishing{logger: logger},
		txScope:         txScope,
		tokens:          tokens,
		policy:          policy.withDefaults(),
		now:             time.Now,
	}
}

// SetMetrics attaches Prometheus collectors
func (s *VoucherService) SetMetrics(m *telemetry.Metrics) {
	s.metrics = m
}

// Policy returns the effective issuance policy
func (s *VoucherService) Policy() VoucherPolicy {
	return s.policy
}

// issueParams describes one voucher about to be carved out of a zone allocation
type issueParams struct {
	zoneID        uuid.UUID
	beneficiaryID uuid.UUID
	amount        decimal.Decimal
	donationID    *uuid.UUID
	mint          func() (string, error)
}

// Issue creates a voucher for a beneficiary against the zone's remaining allocation
func (s *VoucherService) Issue(ctx context.Context, req IssueVoucherRequest) (resp *VoucherResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "voucher", "issue")
	defer span.End()
	defer func(start time.Time) { s.metrics.ObserveOperation("issue_voucher", start, err) }(time.Now())

	telemetry.SetAttributes(span,
		telemetry.SpanAttrZoneID, req.ZoneID.String(),
		telemetry.SpanAttrBeneficiaryID, req.BeneficiaryID.String(),
		telemetry.SpanAttrAmount, req.Amount.String(),
	)

	var voucher *relief.Voucher
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var txErr error
		voucher, txErr = s.issueInTx(ctx, repos, issueParams{
			zoneID:        req.ZoneID,
			beneficiaryID: req.BeneficiaryID,
			amount:        req.Amount,
			mint: func() (string, error) {
				return s.tokens.IssueToken(req.ZoneID, req.BeneficiaryID, req.Amount)
			},
		})
		return txErr
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrVoucherID, voucher.ID.String())
	telemetry.SetOK(span)
	s.publish(ctx, drainEvents(voucher)...)
	out := ToVoucherResponse(voucher, s.now())
	return &out, nil
}

// Claim lets a registered beneficiary claim a voucher of the default amount
func (s *VoucherService) Claim(ctx context.Context, req ClaimVoucherRequest) (resp *VoucherResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "voucher", "claim")
	defer span.End()
	defer func(start time.Time) { s.metrics.ObserveOperation("claim_voucher", start, err) }(time.Now())

	address := ledger.NormalizeAddress(req.BeneficiaryAddress)
	telemetry.SetAttributes(span,
		telemetry.SpanAttrWallet, address,
		telemetry.SpanAttrZoneID, req.ZoneID.String(),
	)
	if address == "" || req.ZoneID == uuid.Nil {
		return nil, shared.ErrMissingFields
	}

	var voucher *relief.Voucher
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		beneficiary, txErr := repos.Accounts().FindByAddress(ctx, address)
		if txErr != nil {
			return txErr
		}
		voucher, txErr = s.issueInTx(ctx, repos, issueParams{
			zoneID:        req.ZoneID,
			beneficiaryID: beneficiary.ID,
			amount:        s.policy.ClaimAmount,
			mint:          s.tokens.ClaimToken,
		})
		return txErr
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetOK(span)
	s.publish(ctx, drainEvents(voucher)...)
	out := ToVoucherResponse(voucher, s.now())
	return &out, nil
}

// Redeem spends the voucher identified by qrCode exactly once
func (s *VoucherService) Redeem(ctx context.Context, qrCode string) (resp *VoucherResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "voucher", "redeem")
	defer span.End()
	defer func(start time.Time) { s.metrics.ObserveOperation("redeem_voucher", start, err) }(time.Now())

	qrCode = strings.TrimSpace(qrCode)
	if qrCode == "" {
		return nil, shared.ErrMissingFields
	}

	var voucher *relief.Voucher
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var txErr error
		voucher, txErr = repos.Vouchers().FindByQRCodeForUpdate(ctx, qrCode)
		if txErr != nil {
			return txErr
		}
		if txErr = voucher.Redeem(s.now()); txErr != nil {
			return txErr
		}
		return repos.Vouchers().SaveWithLock(ctx, voucher)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrVoucherID, voucher.ID.String())
	telemetry.SetOK(span)
	s.publish(ctx, drainEvents(voucher)...)
	out := ToVoucherResponse(voucher, s.now())
	return &out, nil
}

// issueInTx reserves the amount on the locked zone and inserts the voucher.
// Token collisions are retried in a savepoint so the reservation survives them.
func (s *VoucherService) issueInTx(ctx context.Context, repos TransactionalRepositories, p issueParams) (*relief.Voucher, error) {
	if p.zoneID == uuid.Nil || p.beneficiaryID == uuid.Nil || p.amount.IsZero() {
		return nil, shared.ErrMissingFields
	}
	if err := shared.ValidateAmount("Voucher amount", p.amount); err != nil {
		return nil, err
	}

	zone, err := repos.Zones().FindByIDForUpdate(ctx, p.zoneID)
	if err != nil {
		return nil, err
	}
	if _, err := repos.Accounts().FindByID(ctx, p.beneficiaryID); err != nil {
		return nil, err
	}

	if err := zone.ReserveDistribution(p.amount); err != nil {
		if errors.Is(err, shared.ErrAllocationExceeded) {
			s.metrics.RecordAllocationRejected()
		}
		return nil, err
	}
	if err := repos.Zones().SaveWithLock(ctx, zone); err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= s.policy.TokenAttempts; attempt++ {
		token, err := p.mint()
		if err != nil {
			return nil, fmt.Errorf("failed to mint voucher token: %w", err)
		}
		voucher, err := relief.NewVoucher(relief.NewVoucherInput{
			ZoneID:         p.zoneID,
			BeneficiaryID:  p.beneficiaryID,
			Amount:         p.amount,
			QRCode:         token,
			DonationID:     p.donationID,
			IssuedAt:       s.now(),
			ValidityMonths: s.policy.ValidityMonths,
		})
		if err != nil {
			return nil, err
		}

		err = repos.Savepoint(ctx, func(sp TransactionalRepositories) error {
			return sp.Vouchers().Create(ctx, voucher)
		})
		if err == nil {
			return voucher, nil
		}
		if !errors.Is(err, shared.ErrDuplicateToken) {
			return nil, err
		}

		s.metrics.RecordTokenRetry()
		s.logger.Warn("Voucher token collision, retrying",
			zap.String("zone_id", p.zoneID.String()),
			zap.Int("attempt", attempt),
		)
	}
	return nil, shared.ErrIssuanceFailed
}
