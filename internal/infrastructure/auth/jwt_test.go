package auth

import (
	"testing"
	"time"

	"github.com/aidledger/backend/internal/domain/ledger"
	"github.com/aidledger/backend/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *JWTService {
	return NewJWTService(config.AuthConfig{
		Enabled:  true,
		Secret:   "test-secret-key-at-least-32-chars",
		Issuer:   "test-issuer",
		TokenTTL: 15 * time.Minute,
	})
}

func TestNewJWTService_DefaultExpiration(t *testing.T) {
	svc := NewJWTService(config.AuthConfig{Secret: "s", Issuer: "i"})
	assert.Equal(t, 24*time.Hour, svc.Expiration())
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := newTestJWTService()

	token, err := svc.GenerateToken(" 0xdonor ", ledger.RoleDonor)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.True(t, token.ExpiresAt.After(time.Now()))

	claims, err := svc.ValidateToken(token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "0xdonor", claims.Wallet)
	assert.Equal(t, "0xdonor", claims.Subject)
	assert.Equal(t, "test-issuer", claims.Issuer)
	assert.True(t, claims.HasRole(ledger.RoleAgency, ledger.RoleDonor))
	assert.False(t, claims.HasRole(ledger.RoleAdmin))
	assert.NotEmpty(t, claims.ID)
}

func TestGenerateToken_RequiresWallet(t *testing.T) {
	_, err := newTestJWTService().GenerateToken("  ", ledger.RoleDonor)
	assert.ErrorIs(t, err, ErrMissingWallet)
}

func TestValidateToken_Errors(t *testing.T) {
	svc := newTestJWTService()

	t.Run("expired", func(t *testing.T) {
		past := newTestJWTService()
		past.now = func() time.Time { return time.Now().Add(-time.Hour) }
		token, err := past.GenerateToken("0xabc", ledger.RoleDonor)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token.AccessToken)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("not yet valid", func(t *testing.T) {
		future := newTestJWTService()
		future.now = func() time.Time { return time.Now().Add(time.Hour) }
		token, err := future.GenerateToken("0xabc", ledger.RoleDonor)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token.AccessToken)
		assert.ErrorIs(t, err, ErrTokenNotYetValid)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTService(config.AuthConfig{Secret: "another-secret-key-32-characters!", Issuer: "test-issuer"})
		token, err := other.GenerateToken("0xabc", ledger.RoleDonor)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewJWTService(config.AuthConfig{Secret: "test-secret-key-at-least-32-chars", Issuer: "someone-else"})
		token, err := other.GenerateToken("0xabc", ledger.RoleDonor)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unsigned algorithm rejected", func(t *testing.T) {
		claims := &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "test-issuer",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
			Wallet: "0xabc",
		}
		raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = svc.ValidateToken(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing wallet", func(t *testing.T) {
		claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "test-issuer",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret-key-at-least-32-chars"))
		require.NoError(t, err)

		_, err = svc.ValidateToken(raw)
		assert.ErrorIs(t, err, ErrMissingWallet)
	})
}
