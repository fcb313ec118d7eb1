// Package relief holds the application services of the relief ledger:
// account top-ups, zone provisioning, donations and the voucher lifecycle.
package relief

import (
	"context"
	"errors"
	"time"

	"github.com/aidledger/backend/internal/domain/ledger"
	"github.com/aidledger/backend/internal/domain/shared"
	"github.com/aidledger/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LedgerService handles account balances
type LedgerService struct {
	eventPublishing
	accounts ledger.AccountRepository
	txScope  TransactionScope
	metrics  *telemetry.Metrics
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(accounts ledger.AccountRepository, txScope TransactionScope, logger *zap.Logger) *LedgerService {
	return &LedgerService{
		eventPublishing: eventPublishing{logger: logger},
		accounts:        accounts,
		txScope:         txScope,
	}
}

// SetMetrics attaches Prometheus collectors
func (s *LedgerService) SetMetrics(m *telemetry.Metrics) {
	s.metrics = m
}

// TopUp credits the account at req.Address, opening it as a DONOR account on first use
func (s *LedgerService) TopUp(ctx context.Context, req TopUpRequest) (resp *BalanceResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "top_up")
	defer span.End()
	defer func(start time.Time) { s.metrics.ObserveOperation("top_up", start, err) }(time.Now())

	address := ledger.NormalizeAddress(req.Address)
	telemetry.SetAttributes(span,
		telemetry.SpanAttrWallet, address,
		telemetry.SpanAttrAmount, req.Amount.String(),
	)
	if address == "" || req.Amount.IsZero() {
		return nil, shared.ErrMissingFields
	}
	if err := shared.ValidateAmount("Amount", req.Amount); err != nil {
		return nil, err
	}

	var events []shared.DomainEvent
	var account *ledger.Account
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var txErr error
		account, events, txErr = creditAccount(ctx, repos.Accounts(), address, req.Amount)
		return txErr
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publish(ctx, events...)
	telemetry.SetOK(span)
	return &BalanceResponse{Address: account.Address, Balance: account.Balance}, nil
}

// GetBalance returns the balance at address. Unknown addresses read as zero.
func (s *LedgerService) GetBalance(ctx context.Context, address string) (*BalanceResponse, error) {
	address = ledger.NormalizeAddress(address)
	if address == "" {
		return nil, shared.ErrMissingFields
	}

	account, err := s.accounts.FindByAddress(ctx, address)
	if err != nil {
		if errors.Is(err, shared.ErrAccountNotFound) {
			return &BalanceResponse{Address: address, Balance: decimal.Zero}, nil
		}
		return nil, err
	}
	return &BalanceResponse{Address: account.Address, Balance: account.Balance}, nil
}

// RegisterAccount opens an account with an explicit role
func (s *LedgerService) RegisterAccount(ctx context.Context, req RegisterAccountRequest) (*AccountResponse, error) {
	if ledger.NormalizeAddress(req.Address) == "" {
		return nil, shared.ErrMissingFields
	}
	account, err := ledger.NewAccount(req.Address, req.Role)
	if err != nil {
		return nil, err
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}

	s.publish(ctx, drainEvents(account)...)
	resp := ToAccountResponse(account)
	return &resp, nil
}

// GetAccount returns the account at address
func (s *LedgerService) GetAccount(ctx context.Context, address string) (*AccountResponse, error) {
	address = ledger.NormalizeAddress(address)
	if address == "" {
		return nil, shared.ErrMissingFields
	}
	account, err := s.accounts.FindByAddress(ctx, address)
	if err != nil {
		return nil, err
	}
	resp := ToAccountResponse(account)
	return &resp, nil
}

// creditAccount upserts the account row, then locks and credits it.
// The insert-or-skip runs first so two concurrent first top-ups both land.
func creditAccount(ctx context.Context, accounts ledger.AccountRepository, address string, amount decimal.Decimal) (*ledger.Account, []shared.DomainEvent, error) {
	candidate, err := ledger.NewAccount(address, ledger.RoleDonor)
	if err != nil {
		return nil, nil, err
	}
	inserted, err := accounts.CreateIfAbsent(ctx, candidate)
	if err != nil {
		return nil, nil, err
	}

	account, err := accounts.FindByAddressForUpdate(ctx, address)
	if err != nil {
		return nil, nil, err
	}
	if err := account.Credit(amount); err != nil {
		return nil, nil, err
	}
	if err := accounts.SaveWithLock(ctx, account); err != nil {
		return nil, nil, err
	}

	var events []shared.DomainEvent
	if inserted {
		events = drainEvents(candidate)
	}
	return account, append(events, drainEvents(account)...), nil
}

// debitLocked debits an account already read under lock and writes it back
func debitLocked(ctx context.Context, accounts ledger.AccountRepository, account *ledger.Account, amount decimal.Decimal) error {
	if err := account.Debit(amount); err != nil {
		return err
	}
	return accounts.SaveWithLock(ctx, account)
}
