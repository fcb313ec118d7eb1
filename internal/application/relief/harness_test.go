package relief_test

import (
	"context"
	"sync"
	"testing"

	apprelief "github.com/aidledger/backend/internal/application/relief"
	"github.com/aidledger/backend/internal/domain/ledger"
	"github.com/aidledger/backend/internal/domain/relief"
	"github.com/aidledger/backend/internal/infrastructure/persistence"
	"github.com/aidledger/backend/internal/infrastructure/telemetry"
	"github.com/aidledger/backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type harnessConfig struct {
	tokens    relief.TokenGenerator
	autoIssue apprelief.AutoIssuePolicy
	batchSize int
}

type harness struct {
	db        *gorm.DB
	accounts  *persistence.GormAccountRepository
	zoneRepo  *persistence.GormZoneRepository
	vouchers  *persistence.GormVoucherRepository
	publisher *testutil.RecordingPublisher
	metrics   *telemetry.Metrics

	ledger    *apprelief.LedgerService
	zones     *apprelief.ZoneService
	issuer    *apprelief.VoucherService
	donations *apprelief.DonationService
	query     *apprelief.VoucherQueryService
	expiry    *apprelief.ExpiryService
}

func newHarness(t *testing.T, opts ...func(*harnessConfig)) *harness {
	t.Helper()

	cfg := harnessConfig{tokens: relief.NewCryptoTokenGenerator(), autoIssue: apprelief.AutoIssueNone}
	for _, opt := range opts {
		opt(&cfg)
	}

	db := testutil.NewSQLiteDB(t)
	logger := zap.NewNop()
	accounts := persistence.NewGormAccountRepository(db)
	zones := persistence.NewGormZoneRepository(db)
	donations := persistence.NewGormDonationRepository(db)
	vouchers := persistence.NewGormVoucherRepository(db)
	scope := persistence.NewGormTransactionScope(db)

	h := &harness{
		db:        db,
		accounts:  accounts,
		zoneRepo:  zones,
		vouchers:  vouchers,
		publisher: testutil.NewRecordingPublisher(),
		metrics:   telemetry.NewMetrics(prometheus.NewRegistry()),
		ledger:    apprelief.NewLedgerService(accounts, scope, logger),
		zones:     apprelief.NewZoneService(zones, logger),
		issuer:    apprelief.NewVoucherService(scope, cfg.tokens, apprelief.DefaultVoucherPolicy(), logger),
		query:     apprelief.NewVoucherQueryService(accounts, zones, donations, vouchers),
		expiry:    apprelief.NewExpiryService(scope, cfg.batchSize, logger),
	}
	h.donations = apprelief.NewDonationService(scope, h.issuer, cfg.autoIssue, logger)

	h.ledger.SetEventPublisher(h.publisher)
	h.zones.SetEventPublisher(h.publisher)
	h.issuer.SetEventPublisher(h.publisher)
	h.donations.SetEventPublisher(h.publisher)
	h.expiry.SetEventPublisher(h.publisher)

	h.ledger.SetMetrics(h.metrics)
	h.issuer.SetMetrics(h.metrics)
	h.donations.SetMetrics(h.metrics)
	return h
}

func withTokens(g relief.TokenGenerator) func(*harnessConfig) {
	return func(c *harnessConfig) { c.tokens = g }
}

func withAutoIssue(p apprelief.AutoIssuePolicy) func(*harnessConfig) {
	return func(c *harnessConfig) { c.autoIssue = p }
}

func withBatchSize(n int) func(*harnessConfig) {
	return func(c *harnessConfig) { c.batchSize = n }
}

func (h *harness) createZone(t *testing.T, budget int64) *apprelief.ZoneResponse {
	t.Helper()
	z, err := h.zones.Create(context.Background(), apprelief.CreateZoneRequest{
		Name:     "Riverside",
		Location: "Lower Delta",
		Budget:   decimal.NewFromInt(budget),
	})
	require.NoError(t, err)
	return z
}

// fundedZone creates a zone and raises its allocation with an anonymous donation
func (h *harness) fundedZone(t *testing.T, allocation int64) *apprelief.ZoneResponse {
	t.Helper()
	z := h.createZone(t, 100000)
	if allocation > 0 {
		_, err := h.donations.Donate(context.Background(), apprelief.DonateRequest{
			ZoneID: z.ID,
			Amount: decimal.NewFromInt(allocation),
		})
		require.NoError(t, err)
	}
	h.publisher.Reset()
	return z
}

func (h *harness) register(t *testing.T, address string, role ledger.Role) *apprelief.AccountResponse {
	t.Helper()
	a, err := h.ledger.RegisterAccount(context.Background(), apprelief.RegisterAccountRequest{Address: address, Role: role})
	require.NoError(t, err)
	return a
}

func (h *harness) zone(t *testing.T, id uuid.UUID) *apprelief.ZoneResponse {
	t.Helper()
	z, err := h.zones.GetByID(context.Background(), id)
	require.NoError(t, err)
	return z
}

func (h *harness) balance(t *testing.T, address string) decimal.Decimal {
	t.Helper()
	b, err := h.ledger.GetBalance(context.Background(), address)
	require.NoError(t, err)
	return b.Balance
}

// scriptedTokens hands out a fixed sequence of tokens and repeats the last one
type scriptedTokens struct {
	mu     sync.Mutex
	tokens []string
	calls  int
}

func newScriptedTokens(tokens ...string) *scriptedTokens {
	return &scriptedTokens{tokens: tokens}
}

func (g *scriptedTokens) next() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := g.calls
	if i >= len(g.tokens) {
		i = len(g.tokens) - 1
	}
	g.calls++
	return g.tokens[i], nil
}

func (g *scriptedTokens) IssueToken(uuid.UUID, uuid.UUID, decimal.Decimal) (string, error) {
	return g.next()
}

func (g *scriptedTokens) ClaimToken() (string, error) {
	return g.next()
}

func (g *scriptedTokens) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
