package fin

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/sobook-erp/sobook/internal/ledger"
)

func depositAt(account string, day time.Time, rate int64) ledger.AdDeposit {
	return ledger.AdDeposit{
		ID:              uuid.New(),
		AdAccountNumber: account,
		Date:            day,
		USDAmount:       decimal.NewFromInt(100),
		Rate:            decimal.NewFromInt(rate),
		VNDAmount:       decimal.NewFromInt(100 * rate),
	}
}

func TestEffectiveRatePicksLatestPrecedingDeposit(t *testing.T) {
	jan := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	snap := &ledger.Snapshot{AdDeposits: []ledger.AdDeposit{
		depositAt("ACC-1", jan, 24_500),
		depositAt("ACC-1", feb, 25_000),
		depositAt("ACC-1", mar, 25_500),
		depositAt("ACC-2", feb, 99_999),
	}}

	rate, ok := EffectiveRate(snap, "ACC-1", time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC))
	require.True(t, ok)
	require.True(t, rate.Equal(decimal.NewFromInt(25_000)))
}

func TestEffectiveRateFallsBackToEarliest(t *testing.T) {
	feb := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	snap := &ledger.Snapshot{AdDeposits: []ledger.AdDeposit{
		depositAt("ACC-1", mar, 25_500),
		depositAt("ACC-1", feb, 25_000),
	}}

	// Cost predates all funding: the earliest deposit's rate applies.
	rate, ok := EffectiveRate(snap, "ACC-1", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC))
	require.True(t, ok)
	require.True(t, rate.Equal(decimal.NewFromInt(25_000)))
}

func TestEffectiveRateUnfundedAccount(t *testing.T) {
	snap := &ledger.Snapshot{}
	rate, ok := EffectiveRate(snap, "ACC-9", time.Now())
	require.False(t, ok)
	require.True(t, rate.IsZero())
}

func TestCompileFlagsUnresolvedAdRate(t *testing.T) {
	snap, _, _ := fixtureSnapshot()
	snap.DailyAdCosts = append(snap.DailyAdCosts, ledger.DailyAdCost{
		ID:              uuid.New(),
		ProjectID:       snap.Projects[0].ID,
		AdAccountNumber: "ACC-UNFUNDED",
		Date:            time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		USDAmount:       decimal.NewFromInt(75),
	})

	report, err := Compile(snap, "2024-03", Config{})
	require.NoError(t, err)
	// The unresolved line contributes zero cost but the report still balances.
	require.True(t, report.UnresolvedAdRates)
	require.True(t, report.TotalAdCost.Equal(decimal.NewFromInt(1_260_000)))
}
