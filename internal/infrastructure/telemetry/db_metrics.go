package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBMetricsConfig holds configuration for database metrics collection.
type DBMetricsConfig struct {
	// SlowQueryThreshold defines the threshold for slow query detection (default: 200ms).
	SlowQueryThreshold time.Duration
	// DBName labels the connection pool collector.
	DBName string
}

// DefaultDBMetricsConfig returns default configuration for database metrics.
func DefaultDBMetricsConfig() DBMetricsConfig {
	return DBMetricsConfig{
		SlowQueryThreshold: 200 * time.Millisecond,
		DBName:             "relief",
	}
}

// DBMetrics holds the query collectors fed by DBMetricsPlugin.
type DBMetrics struct {
	queryTotal     *prometheus.CounterVec
	queryDuration  *prometheus.HistogramVec
	slowQueryTotal *prometheus.CounterVec
	reg            prometheus.Registerer
	config         DBMetricsConfig
}

// NewDBMetrics registers the query collectors on reg.
func NewDBMetrics(reg prometheus.Registerer, cfg DBMetricsConfig) *DBMetrics {
	if cfg.SlowQueryThreshold == 0 {
		cfg.SlowQueryThreshold = 200 * time.Millisecond
	}
	f := promauto.With(reg)

	return &DBMetrics{
		queryTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "db",
			Name:      "query_total",
			Help:      "Total number of database queries by operation, table and outcome",
		}, []string{"operation", "table", "status"}),
		queryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Database query latency distribution in seconds",
			Buckets:   durationBuckets,
		}, []string{"operation", "table"}),
		slowQueryTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "db",
			Name:      "slow_query_total",
			Help:      "Total number of queries slower than the configured threshold",
		}, []string{"operation", "table"}),
		reg:    reg,
		config: cfg,
	}
}

// WatchPool exports the sql.DB pool statistics.
func (m *DBMetrics) WatchPool(sqlDB *sql.DB) error {
	return m.reg.Register(collectors.NewDBStatsCollector(sqlDB, m.config.DBName))
}

// RecordQuery records a completed query. Record-not-found is not a failure.
func (m *DBMetrics) RecordQuery(operation, table string, duration time.Duration, err error) {
	if table == "" {
		table = "unknown"
	}
	status := "success"
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		status = "error"
	}

	m.queryTotal.WithLabelValues(operation, table, status).Inc()
	m.queryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if duration >= m.config.SlowQueryThreshold {
		m.slowQueryTotal.WithLabelValues(operation, table).Inc()
	}
}

// DBMetricsPlugin is a GORM plugin timing every statement.
type DBMetricsPlugin struct {
	metrics *DBMetrics
	logger  *zap.Logger
}

// NewDBMetricsPlugin creates a new GORM plugin for database metrics.
func NewDBMetricsPlugin(metrics *DBMetrics, logger *zap.Logger) *DBMetricsPlugin {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DBMetricsPlugin{metrics: metrics, logger: logger}
}

// Name returns the plugin name.
func (p *DBMetricsPlugin) Name() string {
	return "db_metrics"
}

// Initialize registers the GORM callbacks and the pool collector.
func (p *DBMetricsPlugin) Initialize(db *gorm.DB) error {
	before := func(tx *gorm.DB) {
		ctx := tx.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		tx.Statement.Context = context.WithValue(ctx, dbMetricsStartTimeKey, time.Now())
	}
	after := func(operation string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			op := operation
			if op == "" {
				op = detectOperationType(tx.Statement.SQL.String())
			}
			p.record(tx, op)
		}
	}

	type register func(name string, fn func(*gorm.DB)) error
	cb := db.Callback()
	hooks := []struct {
		name          string
		before, after register
		operation     string
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register, "INSERT"},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register, "SELECT"},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register, "UPDATE"},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register, "DELETE"},
		{"row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register, ""},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register, ""},
	}
	for _, h := range hooks {
		if err := h.before("db_metrics:before_"+h.name, before); err != nil {
			return err
		}
		if err := h.after("db_metrics:after_"+h.name, after(h.operation)); err != nil {
			return err
		}
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := p.metrics.WatchPool(sqlDB); err != nil {
			p.logger.Warn("Connection pool metrics not registered", zap.Error(err))
		}
	}

	p.logger.Info("Database metrics plugin initialized")
	return nil
}

func (p *DBMetricsPlugin) record(tx *gorm.DB, operation string) {
	var duration time.Duration
	if tx.Statement.Context != nil {
		if start, ok := tx.Statement.Context.Value(dbMetricsStartTimeKey).(time.Time); ok {
			duration = time.Since(start)
		}
	}
	p.metrics.RecordQuery(operation, tx.Statement.Table, duration, tx.Error)
}

// detectOperationType attempts to detect the SQL operation type from the query.
func detectOperationType(sql string) string {
	sql = strings.TrimSpace(strings.ToUpper(sql))

	switch {
	case strings.HasPrefix(sql, "SELECT"):
		return "SELECT"
	case strings.HasPrefix(sql, "INSERT"):
		return "INSERT"
	case strings.HasPrefix(sql, "UPDATE"):
		return "UPDATE"
	case strings.HasPrefix(sql, "DELETE"):
		return "DELETE"
	default:
		return "OTHER"
	}
}

type dbMetricsContextKey string

const dbMetricsStartTimeKey dbMetricsContextKey = "db_metrics_start_time"
