package quota

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"article-forge-api/internal/domain/entity"
	apperrors "article-forge-api/pkg/errors"
	"article-forge-api/pkg/metrics"
)

type memoryCounters struct {
	mu      sync.Mutex
	rows    map[entity.KeywordProvider]*entity.UsageCounter
	failing error
}

func newMemoryCounters() *memoryCounters {
	return &memoryCounters{rows: make(map[entity.KeywordProvider]*entity.UsageCounter)}
}

func (m *memoryCounters) Increment(_ context.Context, p entity.KeywordProvider, period string) (*entity.UsageCounter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing != nil {
		return nil, m.failing
	}
	row, ok := m.rows[p]
	if !ok || row.PeriodKey != period {
		row = &entity.UsageCounter{Provider: p, PeriodKey: period}
		m.rows[p] = row
	}
	row.CallCount++
	row.UpdatedAt = time.Now()
	cp := *row
	return &cp, nil
}

func (m *memoryCounters) List(context.Context) ([]*entity.UsageCounter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing != nil {
		return nil, m.failing
	}
	out := make([]*entity.UsageCounter, 0, len(m.rows))
	for _, r := range m.rows {
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memoryCounters) set(p entity.KeywordProvider, period string, count int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[p] = &entity.UsageCounter{Provider: p, PeriodKey: period, CallCount: count}
}

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

var march = time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC)

func TestLedgerRecordCallIsAtomicUnderConcurrency(t *testing.T) {
	repo := newMemoryCounters()
	ledger := NewLedger(repo)
	ledger.now = fixedClock(march)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.RecordCall(context.Background(), entity.KeywordProviderSerper)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	usage, err := ledger.CurrentUsage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(50), usage[entity.KeywordProviderSerper].CallCount)
	assert.Equal(t, int64(0), usage[entity.KeywordProviderSerpAPI].CallCount)
}

func TestLedgerMeteredRolloverKeepsLifetime(t *testing.T) {
	repo := newMemoryCounters()
	ledger := NewLedger(repo)
	ctx := context.Background()

	ledger.now = fixedClock(march)
	for i := 0; i < 3; i++ {
		_, err := ledger.RecordCall(ctx, entity.KeywordProviderSerpAPI)
		require.NoError(t, err)
		_, err = ledger.RecordCall(ctx, entity.KeywordProviderSerper)
		require.NoError(t, err)
	}

	ledger.now = fixedClock(march.AddDate(0, 1, 0))
	usage, err := ledger.CurrentUsage(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), usage[entity.KeywordProviderSerpAPI].CallCount, "stale month reads as zero")
	assert.Equal(t, "2026-04", usage[entity.KeywordProviderSerpAPI].PeriodKey)
	assert.Equal(t, int64(3), usage[entity.KeywordProviderSerper].CallCount)

	rows, _ := repo.List(ctx)
	for _, r := range rows {
		if r.Provider == entity.KeywordProviderSerpAPI {
			assert.Equal(t, "2026-03", r.PeriodKey, "reads never mutate the store")
		}
	}

	c, err := ledger.RecordCall(ctx, entity.KeywordProviderSerpAPI)
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.CallCount)
	assert.Equal(t, "2026-04", c.PeriodKey)

	c, err = ledger.RecordCall(ctx, entity.KeywordProviderSerper)
	require.NoError(t, err)
	assert.Equal(t, int64(4), c.CallCount)
}

func TestLedgerRecordCallUpdatesRemainingGauge(t *testing.T) {
	repo := newMemoryCounters()
	repo.set(entity.KeywordProviderSerpAPI, "2026-03", 98)
	ledger := NewLedger(repo)
	ledger.now = fixedClock(march)
	gauge := metrics.QuotaRemaining.WithLabelValues(string(entity.KeywordProviderSerpAPI))

	_, err := ledger.RecordCall(context.Background(), entity.KeywordProviderSerpAPI)
	require.NoError(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(gauge))

	// 超额记账时指标不为负
	for i := 0; i < 3; i++ {
		_, err = ledger.RecordCall(context.Background(), entity.KeywordProviderSerpAPI)
		require.NoError(t, err)
	}
	assert.Equal(t, float64(0), testutil.ToFloat64(gauge))
}

func TestLedgerStorageUnavailable(t *testing.T) {
	repo := newMemoryCounters()
	repo.failing = errors.New("connection refused")
	ledger := NewLedger(repo)

	_, err := ledger.RecordCall(context.Background(), entity.KeywordProviderSerpAPI)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeStorageUnavailable))

	_, err = ledger.CurrentUsage(context.Background())
	assert.True(t, apperrors.HasCode(err, apperrors.CodeStorageUnavailable))
}

func TestLedgerRejectsUnknownProvider(t *testing.T) {
	_, err := NewLedger(newMemoryCounters()).RecordCall(context.Background(), "bing")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidParam))
}

func newGovernor(repo *memoryCounters) *Governor {
	ledger := NewLedger(repo)
	ledger.now = fixedClock(march)
	return NewGovernor(ledger)
}

func TestGovernorPrefersMeteredProvider(t *testing.T) {
	g := newGovernor(newMemoryCounters())

	p, err := g.ChooseProvider(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entity.KeywordProviderSerpAPI, p)
}

func TestGovernorFallsBackToFreeTier(t *testing.T) {
	repo := newMemoryCounters()
	repo.set(entity.KeywordProviderSerpAPI, "2026-03", entity.MeteredMonthlyLimit)
	g := newGovernor(repo)

	p, err := g.ChooseProvider(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entity.KeywordProviderSerper, p)

	ok, err := g.CanProceed(context.Background(), entity.KeywordProviderSerpAPI)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGovernorBothExhausted(t *testing.T) {
	repo := newMemoryCounters()
	repo.set(entity.KeywordProviderSerpAPI, "2026-03", 120)
	repo.set(entity.KeywordProviderSerper, entity.LifetimePeriodKey, entity.FreeTierLifetimeLimit)
	g := newGovernor(repo)

	_, err := g.ChooseProvider(context.Background())
	assert.True(t, errors.Is(err, apperrors.ErrQuotaExhausted))

	remaining, err := g.Remaining(context.Background(), entity.KeywordProviderSerpAPI)
	require.NoError(t, err)
	assert.Equal(t, int64(0), remaining, "overshoot floors at zero")
}

func TestGovernorLastLifetimeCall(t *testing.T) {
	repo := newMemoryCounters()
	repo.set(entity.KeywordProviderSerper, entity.LifetimePeriodKey, entity.FreeTierLifetimeLimit-1)
	g := newGovernor(repo)
	ctx := context.Background()

	ok, err := g.CanProceed(ctx, entity.KeywordProviderSerper)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = repo.Increment(ctx, entity.KeywordProviderSerper, entity.LifetimePeriodKey)
	require.NoError(t, err)

	ok, err = g.CanProceed(ctx, entity.KeywordProviderSerper)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGovernorSnapshot(t *testing.T) {
	repo := newMemoryCounters()
	repo.set(entity.KeywordProviderSerpAPI, "2026-03", 40)
	repo.set(entity.KeywordProviderSerper, entity.LifetimePeriodKey, 7)
	g := newGovernor(repo)
	gauge := metrics.QuotaRemaining.WithLabelValues(string(entity.KeywordProviderSerpAPI))
	gauge.Set(-1)

	snap, err := g.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, float64(-1), testutil.ToFloat64(gauge))
	assert.Equal(t, Snapshot{Provider: entity.KeywordProviderSerpAPI, Period: "2026-03", Used: 40, Limit: 100, Remaining: 60}, snap[entity.KeywordProviderSerpAPI])
	assert.Equal(t, Snapshot{Provider: entity.KeywordProviderSerper, Period: "lifetime", Used: 7, Limit: 2500, Remaining: 2493}, snap[entity.KeywordProviderSerper])
}

func TestGovernorPropagatesStorageFailure(t *testing.T) {
	repo := newMemoryCounters()
	repo.failing = errors.New("timeout")
	g := newGovernor(repo)

	_, err := g.ChooseProvider(context.Background())
	assert.True(t, apperrors.HasCode(err, apperrors.CodeStorageUnavailable))
}
