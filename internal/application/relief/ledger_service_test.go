package relief_test

import (
	"context"
	"errors"
	"testing"

	apprelief "github.com/aidledger/backend/internal/application/relief"
	"github.com/aidledger/backend/internal/domain/ledger"
	"github.com/aidledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerService_TopUp(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	resp, err := h.ledger.TopUp(ctx, apprelief.TopUpRequest{Address: "0xABC", Amount: dec("200")})
	require.NoError(t, err)
	assert.Equal(t, "0xabc", resp.Address)
	assert.True(t, resp.Balance.Equal(dec("200")))

	resp, err = h.ledger.TopUp(ctx, apprelief.TopUpRequest{Address: "0xabc", Amount: dec("0.5")})
	require.NoError(t, err)
	assert.True(t, resp.Balance.Equal(dec("200.5")))

	account, err := h.ledger.GetAccount(ctx, "0xAbC")
	require.NoError(t, err)
	assert.Equal(t, ledger.RoleDonor, account.Role)

	assert.Equal(t, []string{
		ledger.EventTypeAccountOpened,
		ledger.EventTypeBalanceChanged,
		ledger.EventTypeBalanceChanged,
	}, h.publisher.EventTypes())
}

func TestLedgerService_TopUpValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.ledger.TopUp(ctx, apprelief.TopUpRequest{Address: "", Amount: dec("1")})
	assert.ErrorIs(t, err, shared.ErrMissingFields)

	_, err = h.ledger.TopUp(ctx, apprelief.TopUpRequest{Address: "0xabc"})
	assert.ErrorIs(t, err, shared.ErrMissingFields)

	_, err = h.ledger.TopUp(ctx, apprelief.TopUpRequest{Address: "0xabc", Amount: dec("-5")})
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, shared.CodeValidation, domainErr.Code)

	assert.True(t, h.balance(t, "0xabc").IsZero())
}

func TestLedgerService_TopUpRejectsAmountsTheStoreWouldRound(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.ledger.TopUp(ctx, apprelief.TopUpRequest{Address: "0xfine", Amount: dec("0.0000004")})
	assert.ErrorIs(t, err, shared.NewValidationError(""))
	_, err = h.ledger.GetAccount(ctx, "0xfine")
	assert.ErrorIs(t, err, shared.ErrAccountNotFound, "no account opened by a rejected top-up")

	_, err = h.ledger.TopUp(ctx, apprelief.TopUpRequest{Address: "0xfine", Amount: dec("100000000000000")})
	assert.ErrorIs(t, err, shared.NewValidationError(""))

	resp, err := h.ledger.TopUp(ctx, apprelief.TopUpRequest{Address: "0xfine", Amount: dec("99999999999999.999999")})
	require.NoError(t, err)
	assert.True(t, resp.Balance.Equal(dec("99999999999999.999999")))

	_, err = h.ledger.TopUp(ctx, apprelief.TopUpRequest{Address: "0xfine", Amount: dec("0.000001")})
	assert.ErrorIs(t, err, shared.NewValidationError(""), "balance would overflow the column")
	assert.True(t, h.balance(t, "0xfine").Equal(dec("99999999999999.999999")))
}

func TestLedgerService_GetBalanceOfUnknownAddressIsZero(t *testing.T) {
	h := newHarness(t)

	resp, err := h.ledger.GetBalance(context.Background(), "0xNobody")
	require.NoError(t, err)
	assert.Equal(t, "0xnobody", resp.Address)
	assert.True(t, resp.Balance.Equal(decimal.Zero))

	_, err = h.ledger.GetBalance(context.Background(), "  ")
	assert.ErrorIs(t, err, shared.ErrMissingFields)
}

func TestLedgerService_RegisterAccount(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	created := h.register(t, "0xBen", ledger.RoleBeneficiary)
	assert.Equal(t, "0xben", created.Address)
	assert.Equal(t, ledger.RoleBeneficiary, created.Role)

	_, err := h.ledger.RegisterAccount(ctx, apprelief.RegisterAccountRequest{Address: "0XBEN", Role: ledger.RoleDonor})
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	_, err = h.ledger.RegisterAccount(ctx, apprelief.RegisterAccountRequest{Address: "0xnew", Role: "PIRATE"})
	assert.Error(t, err)

	_, err = h.ledger.GetAccount(ctx, "0xmissing")
	assert.ErrorIs(t, err, shared.ErrAccountNotFound)
}

func TestLedgerService_PublishFailureDoesNotFailTopUp(t *testing.T) {
	h := newHarness(t)
	h.publisher.SetError(errors.New("bus down"))

	resp, err := h.ledger.TopUp(context.Background(), apprelief.TopUpRequest{Address: "0xabc", Amount: dec("10")})
	require.NoError(t, err)
	assert.True(t, resp.Balance.Equal(dec("10")))
}
