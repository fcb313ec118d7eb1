package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type tracedRow struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:100"`
}

func setupTracedDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&tracedRow{}))
	return db
}

func TestDefaultDBTracingConfig(t *testing.T) {
	cfg := DefaultDBTracingConfig()

	assert.False(t, cfg.Enabled)
	assert.False(t, cfg.LogFullSQL)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThresh)
}

func TestDBTracingPlugin_Disabled(t *testing.T) {
	db := setupTracedDB(t)
	plugin := NewDBTracingPlugin(DefaultDBTracingConfig(), zaptest.NewLogger(t))

	require.NoError(t, plugin.Register(db))
	_, ok := db.Plugins["otelgorm"]
	assert.False(t, ok)
}

func TestDBTracingPlugin_MarksSlowQueries(t *testing.T) {
	db := setupTracedDB(t)
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	plugin := NewDBTracingPlugin(DBTracingConfig{
		Enabled:         true,
		SlowQueryThresh: time.Nanosecond,
	}, zaptest.NewLogger(t))

	ctx, span := tp.Tracer("test").Start(context.Background(), "zone.create")
	ctx = WithQueryStartTime(ctx)
	result := db.WithContext(ctx).Create(&tracedRow{Name: "riverbend"})
	require.NoError(t, result.Error)

	plugin.after(result)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	attrs := map[string]bool{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = true
	}
	assert.True(t, attrs["db.slow_query"])
	assert.True(t, attrs["db.rows_affected"])
	assert.True(t, attrs["db.sql.table"])
}

func TestDBTracingPlugin_DoubleRegistration(t *testing.T) {
	db := setupTracedDB(t)
	plugin := NewDBTracingPlugin(DBTracingConfig{Enabled: true}, zaptest.NewLogger(t))

	require.NoError(t, plugin.Register(db))
	assert.Error(t, plugin.Register(db))
}
