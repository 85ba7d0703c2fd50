package fin

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/sobook-erp/sobook/internal/ledger"
)

type memorySource struct {
	snap *ledger.Snapshot
}

func (s *memorySource) Snapshot(ctx context.Context) (*ledger.Snapshot, error) {
	return s.snap, nil
}

type staticStates struct {
	closed map[string]bool
}

func (s staticStates) IsClosed(ctx context.Context, period string) (bool, error) {
	return s.closed[period], nil
}

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Hour)
}

func TestServiceMemoizesClosedPeriods(t *testing.T) {
	snap, _, _ := fixtureSnapshot()
	source := &memorySource{snap: snap}
	svc := NewService(source, newTestCache(t), Config{}, nil)
	svc.WithPeriodStates(staticStates{closed: map[string]bool{"2024-03": true}})

	ctx := context.Background()
	first, err := svc.GetPeriodFinancials(ctx, "2024-03")
	require.NoError(t, err)
	require.True(t, first.Revenue.Equal(d(2_500_000)))

	// A closed period's report is served from cache: dropping the source
	// data must not change the answer.
	source.snap = &ledger.Snapshot{Partners: snap.Partners, TaxSettings: snap.TaxSettings}
	second, err := svc.GetPeriodFinancials(ctx, "2024-03")
	require.NoError(t, err)
	require.True(t, second.Revenue.Equal(d(2_500_000)))
}

func TestServiceRecompilesOpenPeriods(t *testing.T) {
	snap, _, _ := fixtureSnapshot()
	source := &memorySource{snap: snap}
	svc := NewService(source, newTestCache(t), Config{}, nil)
	svc.WithPeriodStates(staticStates{closed: map[string]bool{}})

	ctx := context.Background()
	first, err := svc.GetPeriodFinancials(ctx, "2024-03")
	require.NoError(t, err)
	require.True(t, first.Revenue.Equal(d(2_500_000)))

	source.snap = &ledger.Snapshot{Partners: snap.Partners, TaxSettings: snap.TaxSettings}
	second, err := svc.GetPeriodFinancials(ctx, "2024-03")
	require.NoError(t, err)
	require.True(t, second.Revenue.IsZero(), "open periods always recompile")
}

func TestWarmCachePrimesTheReport(t *testing.T) {
	snap, _, _ := fixtureSnapshot()
	source := &memorySource{snap: snap}
	cache := newTestCache(t)
	svc := NewService(source, cache, Config{}, nil)

	ctx := context.Background()
	require.NoError(t, svc.WarmCache(ctx, "2024-03"))

	cached, ok := cache.Get(ctx, "2024-03")
	require.True(t, ok)
	require.True(t, cached.Revenue.Equal(d(2_500_000)))

	svc.InvalidateCache(ctx, "2024-03")
	_, ok = cache.Get(ctx, "2024-03")
	require.False(t, ok)
}

func TestDebtScheduleFiltersQuietItems(t *testing.T) {
	snap, _, _ := fixtureSnapshot()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	due := ledger.Liability{
		ID: uuid.New(), Counterparty: "Bank A", TotalAmount: d(1_200_000),
		Currency: "VND", Date: start, IsInstallment: true,
		StartDate: &start, NumberOfInstallments: 12,
	}
	future := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	notYet := ledger.Liability{
		ID: uuid.New(), Counterparty: "Bank B", TotalAmount: d(600_000),
		Currency: "VND", Date: future, IsInstallment: true,
		StartDate: &future, NumberOfInstallments: 6,
	}
	snap.Liabilities = []ledger.Liability{due, notYet}

	rows, err := NewService(&memorySource{snap: snap}, nil, Config{}, nil).DebtSchedule(context.Background(), "2024-03")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "Bank A", rows[0].Counterparty)
	require.True(t, rows[0].DueThisPeriod.Equal(d(300_000)))
}
