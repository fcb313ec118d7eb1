package relief

import (
	"errors"
	"testing"

	"github.com/aidledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestZone(t *testing.T) *Zone {
	t.Helper()
	zone, err := NewZone(NewZoneInput{
		Name:     "Riverbend",
		Location: "Delta Province",
		Budget:   decimal.NewFromInt(100000),
	})
	require.NoError(t, err)
	zone.ClearDomainEvents()
	return zone
}

func TestNewZone(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		zone, err := NewZone(NewZoneInput{
			Name:     "  Riverbend ",
			Location: "Delta Province",
			Budget:   decimal.NewFromInt(100000),
		})

		require.NoError(t, err)
		assert.Equal(t, "Riverbend", zone.Name)
		assert.Equal(t, DefaultZoneType, zone.Type)
		assert.Equal(t, DefaultZoneRadius, zone.Radius)
		assert.Equal(t, ZoneStatusPending, zone.Status)
		assert.Equal(t, SeverityMedium, zone.Severity)
		assert.True(t, zone.Allocated.IsZero())
		assert.True(t, zone.Distributed.IsZero())
		assert.Zero(t, zone.Beneficiaries)

		events := zone.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeZoneCreated, events[0].EventType())
	})

	tests := []struct {
		name string
		in   NewZoneInput
	}{
		{"missing name", NewZoneInput{Location: "x", Budget: decimal.NewFromInt(1)}},
		{"missing location", NewZoneInput{Name: "x", Budget: decimal.NewFromInt(1)}},
		{"zero budget", NewZoneInput{Name: "x", Location: "y"}},
		{"negative budget", NewZoneInput{Name: "x", Location: "y", Budget: decimal.NewFromInt(-1)}},
		{"bad severity", NewZoneInput{Name: "x", Location: "y", Budget: decimal.NewFromInt(1), Severity: "EXTREME"}},
		{"bad status", NewZoneInput{Name: "x", Location: "y", Budget: decimal.NewFromInt(1), Status: "OPEN"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			zone, err := NewZone(tt.in)
			assert.Nil(t, zone)
			var domainErr *shared.DomainError
			require.True(t, errors.As(err, &domainErr))
			assert.Equal(t, shared.CodeValidation, domainErr.Code)
		})
	}
}

func TestZone_ReserveDistribution(t *testing.T) {
	zone := newTestZone(t)
	require.NoError(t, zone.IncreaseAllocated(decimal.NewFromInt(500)))
	assert.True(t, zone.Allocated.Equal(decimal.NewFromInt(500)))

	require.NoError(t, zone.ReserveDistribution(decimal.NewFromInt(500)))
	assert.True(t, zone.Distributed.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, 1, zone.Beneficiaries)
	assert.True(t, zone.Remaining().IsZero())

	t.Run("rejects amounts beyond allocation without moving counters", func(t *testing.T) {
		version := zone.Version
		err := zone.ReserveDistribution(decimal.NewFromInt(1))

		assert.ErrorIs(t, err, shared.ErrAllocationExceeded)
		assert.True(t, zone.Distributed.Equal(decimal.NewFromInt(500)))
		assert.Equal(t, 1, zone.Beneficiaries)
		assert.Equal(t, version, zone.Version)
	})

	t.Run("budget does not cap allocation", func(t *testing.T) {
		require.NoError(t, zone.IncreaseAllocated(decimal.NewFromInt(200000)))
		assert.True(t, zone.Allocated.GreaterThan(zone.Budget))
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		assert.Error(t, zone.ReserveDistribution(decimal.Zero))
		assert.Error(t, zone.IncreaseAllocated(decimal.NewFromInt(-10)))
	})

	t.Run("rejects amounts the store would round or overflow", func(t *testing.T) {
		allocated := zone.Allocated
		assert.ErrorIs(t, zone.IncreaseAllocated(decimal.RequireFromString("1.0000001")), shared.NewValidationError(""))
		assert.ErrorIs(t, zone.IncreaseAllocated(decimal.RequireFromString("99999999999999.999999")), shared.NewValidationError(""))
		assert.ErrorIs(t, zone.ReserveDistribution(decimal.RequireFromString("0.0000005")), shared.NewValidationError(""))
		assert.True(t, zone.Allocated.Equal(allocated))
	})
}
