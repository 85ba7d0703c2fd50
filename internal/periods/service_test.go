package periods

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/sobook-erp/sobook/internal/fin"
	"github.com/sobook-erp/sobook/internal/ledger"
)

type memoryRepo struct {
	periods map[string]Period
	capital map[uuid.UUID]decimal.Decimal
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{periods: map[string]Period{}, capital: map[uuid.UUID]decimal.Decimal{}}
}

func (m *memoryRepo) GetPeriod(ctx context.Context, id string) (Period, error) {
	p, ok := m.periods[id]
	if !ok {
		return Period{}, ErrPeriodNotFound
	}
	return p, nil
}

func (m *memoryRepo) ActivePeriod(ctx context.Context) (*Period, error) {
	for _, p := range m.periods {
		if p.Status == StatusActive {
			active := p
			return &active, nil
		}
	}
	return nil, nil
}

func (m *memoryRepo) ListPeriods(ctx context.Context) ([]Period, error) {
	var out []Period
	for _, p := range m.periods {
		out = append(out, p)
	}
	return out, nil
}

func (m *memoryRepo) InsertPeriod(ctx context.Context, p Period) error {
	m.periods[p.ID] = p
	return nil
}

func (m *memoryRepo) ClosePeriod(ctx context.Context, id string, closedAt time.Time, report []byte, shares []PartnerProfit) error {
	p, ok := m.periods[id]
	if !ok || p.Status != StatusActive {
		return ErrNotActive
	}
	p.Status = StatusClosed
	p.ClosedAt = &closedAt
	p.Report = report
	m.periods[id] = p
	for _, share := range shares {
		m.capital[share.PartnerID] = m.capital[share.PartnerID].Add(share.NetProfit)
	}
	return nil
}

type fakeCompiler struct {
	report *fin.Report
	warmed []string
}

func (f *fakeCompiler) GetPeriodFinancials(ctx context.Context, period string) (*fin.Report, error) {
	return f.report, nil
}

func (f *fakeCompiler) WarmCache(ctx context.Context, period string) error {
	f.warmed = append(f.warmed, period)
	return nil
}

func at(y int, m time.Month, d int) func() time.Time {
	return func() time.Time { return time.Date(y, m, d, 12, 0, 0, 0, time.UTC) }
}

func testService(repo RepositoryPort, compiler Compiler) *Service {
	return NewService(repo, compiler, 5, nil)
}

func TestOpenRejectsSecondActivePeriod(t *testing.T) {
	repo := newMemoryRepo()
	svc := testService(repo, &fakeCompiler{report: &fin.Report{}}).WithNow(at(2024, 1, 1))

	_, err := svc.Open(context.Background(), "2024-01")
	require.NoError(t, err)

	_, err = svc.Open(context.Background(), "2024-02")
	require.ErrorIs(t, err, ErrActivePeriodExists)
}

func TestOpenRejectsBadPeriod(t *testing.T) {
	svc := testService(newMemoryRepo(), &fakeCompiler{})
	_, err := svc.Open(context.Background(), "Jan 2024")
	require.ErrorIs(t, err, ledger.ErrInvalidPeriod)
}

func TestCloseHonorsClosingDayCutoff(t *testing.T) {
	an := uuid.New()
	binh := uuid.New()
	report := &fin.Report{
		Period:    "2024-01",
		NetProfit: decimal.NewFromInt(900_000),
		PartnerPnl: []fin.PartnerPnl{
			{PartnerID: an, PartnerName: "An", Profit: decimal.NewFromInt(600_000), TaxPayable: decimal.NewFromInt(60_000)},
			{PartnerID: binh, PartnerName: "Binh", Profit: decimal.NewFromInt(400_000), TaxPayable: decimal.NewFromInt(40_000)},
		},
	}
	repo := newMemoryRepo()
	compiler := &fakeCompiler{report: report}
	svc := testService(repo, compiler).WithNow(at(2024, 1, 2))

	_, err := svc.Open(context.Background(), "2024-01")
	require.NoError(t, err)

	// Closing day is 5: February 3rd is too early.
	svc.WithNow(at(2024, 2, 3))
	_, err = svc.Close(context.Background(), "2024-01")
	require.ErrorIs(t, err, ErrBeforeCutoff)

	svc.WithNow(at(2024, 2, 6))
	closed, err := svc.Close(context.Background(), "2024-01")
	require.NoError(t, err)
	require.Equal(t, StatusClosed, closed.Status)
	require.NotNil(t, closed.ClosedAt)
	require.NotEmpty(t, closed.Report)

	// Each partner's capital grows by profit net of their tax share.
	require.True(t, repo.capital[an].Equal(decimal.NewFromInt(540_000)), "capital %s", repo.capital[an])
	require.True(t, repo.capital[binh].Equal(decimal.NewFromInt(360_000)))

	require.Equal(t, []string{"2024-01"}, compiler.warmed)
}

func TestCloseIsTerminal(t *testing.T) {
	repo := newMemoryRepo()
	svc := testService(repo, &fakeCompiler{report: &fin.Report{}}).WithNow(at(2024, 1, 2))

	_, err := svc.Open(context.Background(), "2024-01")
	require.NoError(t, err)
	svc.WithNow(at(2024, 2, 10))
	_, err = svc.Close(context.Background(), "2024-01")
	require.NoError(t, err)

	_, err = svc.Close(context.Background(), "2024-01")
	require.ErrorIs(t, err, ErrNotActive)

	// A closed month never reopens.
	_, err = svc.Open(context.Background(), "2024-01")
	require.ErrorIs(t, err, ErrPeriodClosed)

	closed, err := svc.IsClosed(context.Background(), "2024-01")
	require.NoError(t, err)
	require.True(t, closed)
}

func TestEnsureWritableGatesByDate(t *testing.T) {
	repo := newMemoryRepo()
	svc := testService(repo, &fakeCompiler{report: &fin.Report{}}).WithNow(at(2024, 1, 2))
	ctx := context.Background()

	// No period open yet.
	err := svc.EnsureWritable(ctx, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))
	require.ErrorIs(t, err, ErrNoActivePeriod)

	_, err = svc.Open(ctx, "2024-01")
	require.NoError(t, err)
	require.NoError(t, svc.EnsureWritable(ctx, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)))

	// Dated outside the active month.
	err = svc.EnsureWritable(ctx, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	require.ErrorIs(t, err, ErrDateOutsideActive)

	svc.WithNow(at(2024, 2, 10))
	_, err = svc.Close(ctx, "2024-01")
	require.NoError(t, err)
	_, err = svc.Open(ctx, "2024-02")
	require.NoError(t, err)

	// January is locked history now.
	err = svc.EnsureWritable(ctx, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	require.ErrorIs(t, err, ErrPeriodClosed)
}

func TestClosingCutoffClampsDay(t *testing.T) {
	cutoff, err := ClosingCutoff("2024-01", 99)
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC), cutoff)

	cutoff, err = ClosingCutoff("2024-01", 0)
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), cutoff)
}
