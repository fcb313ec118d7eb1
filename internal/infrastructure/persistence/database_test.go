package persistence

import (
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aidledger/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"translated", gorm.ErrDuplicatedKey, true},
		{"wrapped translated", fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), true},
		{"postgres text", errors.New(`ERROR: duplicate key value violates unique constraint "idx_vouchers_qr_code" (SQLSTATE 23505)`), true},
		{"sqlite text", errors.New("UNIQUE constraint failed: vouchers.qr_code"), true},
		{"other", errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUniqueViolation(tt.err))
		})
	}
}

func TestDatabase_PingAndStats(t *testing.T) {
	db := &Database{DB: testutil.NewSQLiteDB(t)}

	require.NoError(t, db.Ping())

	stats, err := db.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.MaxOpenConnections)
	assert.Equal(t, stats.OpenConnections, stats.InUse+stats.Idle)
}

func TestDatabase_Transaction(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	db := &Database{DB: mockDB.DB}

	t.Run("commits on success", func(t *testing.T) {
		mockDB.Mock.ExpectBegin()
		mockDB.Mock.ExpectExec(`UPDATE zones`).WillReturnResult(sqlmock.NewResult(0, 1))
		mockDB.Mock.ExpectCommit()

		err := db.Transaction(func(tx *gorm.DB) error {
			return tx.Exec("UPDATE zones SET status = 'ACTIVE'").Error
		})
		require.NoError(t, err)
		mockDB.ExpectationsWereMet(t)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		mockDB.Mock.ExpectBegin()
		mockDB.Mock.ExpectRollback()

		boom := errors.New("boom")
		err := db.Transaction(func(*gorm.DB) error { return boom })
		assert.ErrorIs(t, err, boom)
		mockDB.ExpectationsWereMet(t)
	})
}

func TestDatabase_Close(t *testing.T) {
	db := &Database{DB: testutil.NewSQLiteDB(t)}

	require.NoError(t, db.Close())
	assert.Error(t, db.Ping())
}
