package relief

import (
	"context"
	"errors"
	"time"

	"github.com/aidledger/backend/internal/domain/ledger"
	"github.com/aidledger/backend/internal/domain/relief"
	"github.com/aidledger/backend/internal/domain/shared"
	"github.com/aidledger/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AutoIssuePolicy selects who receives the voucher minted alongside a donation
// when the request names no beneficiary
type AutoIssuePolicy string

const (
	// AutoIssueNone mints no voucher unless a beneficiary is named
	AutoIssueNone AutoIssuePolicy = "none"
	// AutoIssueFirstBeneficiary targets the oldest BENEFICIARY account
	AutoIssueFirstBeneficiary AutoIssuePolicy = "first_beneficiary"
)

const idempotencyKeyPrefix = "donation:"

// DonationService coordinates donor debit, donation record, zone allocation
// and optional voucher issuance as one transaction
type DonationService struct {
	eventPublishing
	txScope     TransactionScope
	vouchers    *VoucherService
	policy      AutoIssuePolicy
	idempotency shared.IdempotencyStore
	idemTTL     time.Duration
	metrics     *telemetry.Metrics
}

// NewDonationService creates a new DonationService
func NewDonationService(txScope TransactionScope, vouchers *VoucherService, policy AutoIssuePolicy, logger *zap.Logger) *DonationService {
	if policy == "" {
		policy = AutoIssueNone
	}
	return &DonationService{
		eventPublishing: eventPublishing{logger: logger},
		txScope:         txScope,
		vouchers:        vouchers,
		policy:          policy,
	}
}

// SetIdempotencyStore enables Idempotency-Key handling
func (s *DonationService) SetIdempotencyStore(store shared.IdempotencyStore, ttl time.Duration) {
	s.idempotency = store
	s.idemTTL = ttl
}

// SetMetrics attaches Prometheus collectors
func (s *DonationService) SetMetrics(m *telemetry.Metrics) {
	s.metrics = m
}

// Donate debits the donor when it holds an account, records the donation and
// raises the zone allocation atomically. Voucher auto-issuance is best effort.
func (s *DonationService) Donate(ctx context.Context, req DonateRequest) (result *DonateResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "donation", "donate")
	defer span.End()
	defer func(start time.Time) { s.metrics.ObserveOperation("donate", start, err) }(time.Now())

	donor := ledger.NormalizeAddress(req.DonorAddress)
	telemetry.SetAttributes(span,
		telemetry.SpanAttrZoneID, req.ZoneID.String(),
		telemetry.SpanAttrAmount, req.Amount.String(),
		telemetry.SpanAttrWallet, donor,
	)
	if req.ZoneID == uuid.Nil || req.Amount.IsZero() {
		return nil, shared.ErrMissingFields
	}
	if err := shared.ValidateAmount("Donation amount", req.Amount); err != nil {
		return nil, err
	}

	if err := s.claimIdempotencyKey(ctx, req.IdempotencyKey); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	defer func() {
		if err != nil {
			s.releaseIdempotencyKey(ctx, req.IdempotencyKey)
		}
	}()

	var (
		donation  *relief.Donation
		zone      *relief.Zone
		voucher   *relief.Voucher
		donorAcct *ledger.Account
	)
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if donor != "" {
			account, txErr := repos.Accounts().FindByAddressForUpdate(ctx, donor)
			switch {
			case errors.Is(txErr, shared.ErrAccountNotFound):
				s.logger.Debug("Donor holds no account, skipping debit", zap.String("donor", donor))
			case txErr != nil:
				return txErr
			default:
				if txErr = debitLocked(ctx, repos.Accounts(), account, req.Amount); txErr != nil {
					return txErr
				}
				donorAcct = account
			}
		}

		var txErr error
		zone, txErr = repos.Zones().FindByIDForUpdate(ctx, req.ZoneID)
		if txErr != nil {
			return txErr
		}
		donation, txErr = relief.NewDonation(req.ZoneID, req.Amount, donor)
		if txErr != nil {
			return txErr
		}
		if txErr = repos.Donations().Create(ctx, donation); txErr != nil {
			return txErr
		}
		if txErr = zone.IncreaseAllocated(req.Amount); txErr != nil {
			return txErr
		}
		if txErr = repos.Zones().SaveWithLock(ctx, zone); txErr != nil {
			return txErr
		}

		voucher = s.autoIssue(ctx, repos, donation, req.BeneficiaryID)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	events := make([]shared.DomainEvent, 0, 4)
	if donorAcct != nil {
		events = append(events, drainEvents(donorAcct)...)
	}
	events = append(events, relief.NewDonationCompletedEvent(donation, zone.Allocated))
	result = &DonateResult{
		Donation:     ToDonationResponse(donation),
		NewAllocated: zone.Allocated,
	}
	if voucher != nil {
		events = append(events, drainEvents(voucher)...)
		v := ToVoucherResponse(voucher, s.vouchers.now())
		result.Voucher = &v
	}
	s.publish(ctx, events...)

	telemetry.SetAttribute(span, telemetry.SpanAttrDonationID, donation.ID.String())
	telemetry.SetOK(span)
	return result, nil
}

// autoIssue mints a voucher of the donated amount inside a savepoint.
// Any failure rolls back only the voucher and is logged.
func (s *DonationService) autoIssue(ctx context.Context, repos TransactionalRepositories, donation *relief.Donation, explicit *uuid.UUID) *relief.Voucher {
	if s.vouchers == nil {
		return nil
	}
	beneficiaryID, ok := s.resolveBeneficiary(ctx, repos, explicit)
	if !ok {
		return nil
	}

	donationID := donation.ID
	var voucher *relief.Voucher
	err := repos.Savepoint(ctx, func(sp TransactionalRepositories) error {
		var err error
		voucher, err = s.vouchers.issueInTx(ctx, sp, issueParams{
			zoneID:        donation.ZoneID,
			beneficiaryID: beneficiaryID,
			amount:        donation.Amount,
			donationID:    &donationID,
			mint: func() (string, error) {
				return s.vouchers.tokens.IssueToken(donation.ZoneID, beneficiaryID, donation.Amount)
			},
		})
		return err
	})
	if err != nil {
		s.logger.Warn("Auto-issuance failed, donation kept without voucher",
			zap.String("donation_id", donation.ID.String()),
			zap.String("beneficiary_id", beneficiaryID.String()),
			zap.Error(err),
		)
		return nil
	}
	return voucher
}

func (s *DonationService) resolveBeneficiary(ctx context.Context, repos TransactionalRepositories, explicit *uuid.UUID) (uuid.UUID, bool) {
	if explicit != nil && *explicit != uuid.Nil {
		return *explicit, true
	}
	if s.policy != AutoIssueFirstBeneficiary {
		return uuid.Nil, false
	}

	account, err := repos.Accounts().FindFirstByRole(ctx, ledger.RoleBeneficiary)
	if err != nil {
		if !errors.Is(err, shared.ErrAccountNotFound) {
			s.logger.Warn("Failed to resolve auto-issue beneficiary", zap.Error(err))
		}
		return uuid.Nil, false
	}
	return account.ID, true
}

func (s *DonationService) claimIdempotencyKey(ctx context.Context, key string) error {
	if s.idempotency == nil || key == "" {
		return nil
	}
	claimed, err := s.idempotency.MarkProcessed(ctx, idempotencyKeyPrefix+key, s.idemTTL)
	if err != nil {
		return err
	}
	if !claimed {
		return shared.ErrDuplicateRequest
	}
	return nil
}

func (s *DonationService) releaseIdempotencyKey(ctx context.Context, key string) {
	if s.idempotency == nil || key == "" {
		return
	}
	if err := s.idempotency.Release(ctx, idempotencyKeyPrefix+key); err != nil {
		s.logger.Warn("Failed to release idempotency key", zap.String("key", key), zap.Error(err))
	}
}
