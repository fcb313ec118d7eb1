package cache

import (
	"context"
	"testing"

	"github.com/aidledger/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// unreachableRedis points at a port nothing listens on
var unreachableRedis = config.RedisConfig{Host: "127.0.0.1", Port: 1}

func TestIdempotencyStoreFactory_Memory(t *testing.T) {
	f := NewIdempotencyStoreFactory(unreachableRedis, WithLogger(zap.NewNop()))

	for _, backend := range []string{"", config.IdempotencyBackendMemory} {
		store, err := f.Create(context.Background(), backend)
		require.NoError(t, err)
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
		_ = store.Close()
	}
}

func TestIdempotencyStoreFactory_UnknownBackend(t *testing.T) {
	f := NewIdempotencyStoreFactory(unreachableRedis)

	_, err := f.Create(context.Background(), "memcached")
	assert.ErrorContains(t, err, "unknown idempotency backend")
}

func TestIdempotencyStoreFactory_RedisFallback(t *testing.T) {
	t.Run("falls back to memory when allowed", func(t *testing.T) {
		f := NewIdempotencyStoreFactory(unreachableRedis)

		store, err := f.Create(context.Background(), config.IdempotencyBackendRedis)
		require.NoError(t, err)
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
		_ = store.Close()
	})

	t.Run("fails when fallback is disabled", func(t *testing.T) {
		f := NewIdempotencyStoreFactory(unreachableRedis, WithInMemoryFallback(false))

		_, err := f.Create(context.Background(), config.IdempotencyBackendRedis)
		assert.ErrorContains(t, err, "redis required")
	})
}
