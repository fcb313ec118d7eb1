package relief

import (
	"testing"

	"github.com/aidledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDonation(t *testing.T) {
	zoneID := uuid.New()

	d, err := NewDonation(zoneID, decimal.NewFromInt(150), " 0xDonor ")
	require.NoError(t, err)
	assert.Equal(t, "0xdonor", d.DonorAddress)
	assert.Equal(t, DonationStatusCompleted, d.Status)
	assert.Equal(t, CurrencyUSDC, d.Currency)
	assert.False(t, d.IsAnonymous())

	anon, err := NewDonation(zoneID, decimal.NewFromInt(1), "")
	require.NoError(t, err)
	assert.True(t, anon.IsAnonymous())

	_, err = NewDonation(uuid.Nil, decimal.NewFromInt(1), "")
	assert.ErrorIs(t, err, shared.ErrMissingFields)

	_, err = NewDonation(zoneID, decimal.Zero, "")
	assert.Error(t, err)
}
