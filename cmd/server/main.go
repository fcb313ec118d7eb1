package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/aidledger/backend/internal/application/relief"
	domain "github.com/aidledger/backend/internal/domain/relief"
	"github.com/aidledger/backend/internal/infrastructure/auth"
	"github.com/aidledger/backend/internal/infrastructure/cache"
	"github.com/aidledger/backend/internal/infrastructure/config"
	"github.com/aidledger/backend/internal/infrastructure/event"
	"github.com/aidledger/backend/internal/infrastructure/logger"
	"github.com/aidledger/backend/internal/infrastructure/persistence"
	"github.com/aidledger/backend/internal/infrastructure/scheduler"
	"github.com/aidledger/backend/internal/infrastructure/telemetry"
	"github.com/aidledger/backend/internal/interfaces/http/handler"
	"github.com/aidledger/backend/internal/interfaces/http/middleware"
	"github.com/aidledger/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			Relief Ledger API
//	@version		1.0
//	@description	Donations, zone allocations and beneficiary vouchers for aid distribution

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("Server exited with error", zap.Error(err))
	}
	log.Info("Server exited gracefully")
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("Starting relief ledger",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Failed to shut down tracer provider", zap.Error(err))
		}
	}()

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Database.SlowThreshold),
	)
	var dbOpts []persistence.Option
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		tracingCfg := telemetry.DefaultDBTracingConfig()
		tracingCfg.Enabled = true
		tracingCfg.LogFullSQL = cfg.Telemetry.DBLogFullSQL
		tracingCfg.SlowQueryThresh = cfg.Database.SlowThreshold
		dbOpts = append(dbOpts, persistence.WithTracing(telemetry.NewDBTracingPlugin(tracingCfg, log)))
	}
	var metrics *telemetry.Metrics
	if cfg.Telemetry.MetricsEnabled {
		metrics = telemetry.NewMetrics(prometheus.NewRegistry())
		dbMetricsCfg := telemetry.DefaultDBMetricsConfig()
		dbMetricsCfg.SlowQueryThreshold = cfg.Database.SlowThreshold
		dbMetricsCfg.DBName = cfg.Database.DBName
		dbMetrics := telemetry.NewDBMetrics(metrics.Registry(), dbMetricsCfg)
		dbOpts = append(dbOpts, persistence.WithMetrics(telemetry.NewDBMetricsPlugin(dbMetrics, log)))
	}
	db, err := persistence.NewDatabase(&cfg.Database, gormLog, dbOpts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	idempotency, err := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log)).
		Create(ctx, cfg.Donation.IdempotencyBackend)
	if err != nil {
		return err
	}
	defer func() { _ = idempotency.Close() }()

	// Repositories and transaction scope
	accounts := persistence.NewGormAccountRepository(db.DB)
	zones := persistence.NewGormZoneRepository(db.DB)
	donations := persistence.NewGormDonationRepository(db.DB)
	vouchers := persistence.NewGormVoucherRepository(db.DB)
	scope := persistence.NewGormTransactionScope(db.DB)

	// Event bus: metrics counting and an audit trail of committed events
	serializer := event.NewEventSerializer()
	event.RegisterLedgerEvents(serializer)
	bus := event.NewInMemoryEventBus(log)
	if metrics != nil {
		bus.Subscribe(relief.NewMetricsEventHandler(metrics))
	}
	bus.Subscribe(event.NewIdempotentHandler(event.NewAuditLogHandler(serializer, log), idempotency, cfg.Donation.IdempotencyTTL, log))
	if err := bus.Start(ctx); err != nil {
		return err
	}

	// Application services
	ledgerService := relief.NewLedgerService(accounts, scope, log)
	zoneService := relief.NewZoneService(zones, log)
	voucherService := relief.NewVoucherService(scope, domain.NewCryptoTokenGenerator(), relief.VoucherPolicy{
		ClaimAmount:    cfg.Voucher.ClaimAmount,
		ValidityMonths: cfg.Voucher.ValidityMonths,
		TokenAttempts:  cfg.Voucher.TokenAttempts,
	}, log)
	donationService := relief.NewDonationService(scope, voucherService, relief.AutoIssuePolicy(cfg.Donation.AutoIssuePolicy), log)
	donationService.SetIdempotencyStore(idempotency, cfg.Donation.IdempotencyTTL)
	expiryService := relief.NewExpiryService(scope, cfg.Voucher.SweepBatchSize, log)
	queryService := relief.NewVoucherQueryService(accounts, zones, donations, vouchers)

	ledgerService.SetEventPublisher(bus)
	zoneService.SetEventPublisher(bus)
	voucherService.SetEventPublisher(bus)
	donationService.SetEventPublisher(bus)
	expiryService.SetEventPublisher(bus)
	ledgerService.SetMetrics(metrics)
	voucherService.SetMetrics(metrics)
	donationService.SetMetrics(metrics)

	engine := newEngine(cfg, log, metrics)

	r := router.NewRouter(engine)
	if cfg.Auth.Enabled {
		jwtCfg := middleware.DefaultJWTConfig(auth.NewJWTService(cfg.Auth))
		jwtCfg.Logger = log
		r.Use(middleware.JWTAuthMiddleware(jwtCfg))
	} else {
		log.Warn("Authentication disabled, wallet parameters are trusted as given")
	}
	if cfg.Telemetry.Enabled {
		r.Use(middleware.SpanAttributes())
	}

	systemHandler := handler.NewSystemHandler(db, cfg.App.Name, version)
	router.RegisterReliefRoutes(r, router.Handlers{
		Donations: handler.NewDonationHandler(donationService),
		Vouchers:  handler.NewVoucherHandler(voucherService, queryService),
		Accounts:  handler.NewAccountHandler(ledgerService),
		Zones:     handler.NewZoneHandler(zoneService),
		System:    systemHandler,
	}).Setup()

	// Unversioned health and metrics endpoints for load balancers and scrapers
	engine.GET("/health", systemHandler.Health)
	if metrics != nil {
		engine.GET(cfg.Telemetry.MetricsPath, gin.WrapH(metrics.Handler()))
	}

	sweeper := scheduler.NewExpirySweeper(expiryService, scheduler.ExpirySweeperConfig{
		Enabled:  cfg.Voucher.SweepEnabled,
		Interval: cfg.Voucher.SweepInterval,
		Timeout:  cfg.Voucher.SweepInterval,
	}, log)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return sweeper.Start(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()

		return errors.Join(
			srv.Shutdown(shutdownCtx),
			sweeper.Stop(shutdownCtx),
			bus.Stop(shutdownCtx),
		)
	})
	return g.Wait()
}

func newEngine(cfg *config.Config, log *zap.Logger, metrics *telemetry.Metrics) *gin.Engine {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Warn("Invalid trusted proxies, trusting none", zap.Error(err))
		_ = engine.SetTrustedProxies(nil)
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSOrigins

	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		logger.GinMiddleware(log),
		middleware.Secure(),
		middleware.CORSWithConfig(cors),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
		middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		}),
		middleware.SpanErrorMarker(),
		middleware.HTTPMetrics(metrics),
	)
	return engine
}
