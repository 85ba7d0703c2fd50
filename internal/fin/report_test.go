package fin

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/sobook-erp/sobook/internal/ledger"
	"github.com/sobook-erp/sobook/internal/money"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// fixtureSnapshot builds one month of mixed activity: a 60/40 partnership
// project, ad spend funded through one account, an exchange conversion and
// partner capital movements.
func fixtureSnapshot() (*ledger.Snapshot, ledger.Partner, ledger.Partner) {
	self := ledger.Partner{ID: uuid.New(), Name: "An", IsSelf: true}
	partner := ledger.Partner{ID: uuid.New(), Name: "Binh"}
	vcb := ledger.Asset{ID: uuid.New(), Name: "VCB", Currency: money.VND}
	payoneer := ledger.Asset{ID: uuid.New(), Name: "Payoneer", Currency: money.USD}

	project := ledger.Project{
		ID:            uuid.New(),
		Name:          "Affiliate Q1",
		Period:        "2024-03",
		IsPartnership: true,
		PartnerShares: []ledger.PartnerShare{
			{PartnerID: self.ID, SharePercentage: d(60)},
			{PartnerID: partner.ID, SharePercentage: d(40)},
		},
	}

	day := func(n int) time.Time { return time.Date(2024, 3, n, 0, 0, 0, 0, time.UTC) }

	snap := &ledger.Snapshot{
		Partners: []ledger.Partner{self, partner},
		Assets:   []ledger.Asset{vcb, payoneer},
		Projects: []ledger.Project{project},
		Commissions: []ledger.Commission{{
			ID: uuid.New(), ProjectID: project.ID, AssetID: payoneer.ID,
			Date: day(5), USDAmount: d(100), PredictedRate: d(25_000), VNDAmount: d(2_500_000),
		}},
		AdDeposits: []ledger.AdDeposit{{
			ID: uuid.New(), AdAccountNumber: "ACC-1", AssetID: vcb.ID,
			Date: day(2), USDAmount: d(200), Rate: d(25_200), VNDAmount: d(5_040_000),
			Status: ledger.AdDepositStatusActive,
		}},
		DailyAdCosts: []ledger.DailyAdCost{{
			ID: uuid.New(), ProjectID: project.ID, AdAccountNumber: "ACC-1",
			Date: day(10), USDAmount: d(50), VATRate: d(8),
		}},
		MiscExpenses: []ledger.MiscellaneousExpense{{
			ID: uuid.New(), AssetID: vcb.ID, Description: "Hosting",
			Date: day(12), Amount: d(500_000), VNDAmount: d(500_000),
		}},
		ExchangeLogs: []ledger.ExchangeLog{{
			ID: uuid.New(), SellingAssetID: payoneer.ID, ReceivingAssetID: vcb.ID,
			Date: day(20), USDAmount: d(100), Rate: d(25_500), VNDAmount: d(2_550_000),
		}},
		CapitalInflows: []ledger.CapitalInflow{{
			ID: uuid.New(), AssetID: vcb.ID, Amount: d(10_000_000), Date: day(1),
		}},
		Withdrawals: []ledger.Withdrawal{{
			ID: uuid.New(), AssetID: vcb.ID, WithdrawnBy: self.ID, Amount: d(1_000_000), Date: day(25),
		}},
		TaxSettings: ledger.TaxSettings{
			Method:       ledger.TaxMethodRevenue,
			RevenueRate:  decimal.NewFromFloat(1.5),
			RevenueBasis: ledger.AllocationTotal,
			ProfitBasis:  ledger.AllocationTotal,
			VATBasis:     ledger.AllocationTotal,
		},
	}
	return snap, self, partner
}

func TestCompileAggregates(t *testing.T) {
	snap, _, _ := fixtureSnapshot()

	report, err := Compile(snap, "2024-03", Config{})
	require.NoError(t, err)

	require.True(t, report.Revenue.Equal(d(2_500_000)), "revenue %s", report.Revenue)
	// 50 USD at the account's deposit rate of 25,200.
	require.True(t, report.TotalAdCost.Equal(d(1_260_000)), "ad cost %s", report.TotalAdCost)
	require.True(t, report.TotalMiscCost.Equal(d(500_000)))
	require.True(t, report.TotalCost.Equal(d(1_760_000)))
	// Sold 100 USD at 25,500 against a booked predicted rate of 25,000.
	require.True(t, report.ExchangeRateGainLoss.Equal(d(50_000)), "fx %s", report.ExchangeRateGainLoss)
	require.True(t, report.ProfitBeforeTax.Equal(d(790_000)), "pbt %s", report.ProfitBeforeTax)
	require.False(t, report.UnresolvedAdRates)

	require.Len(t, report.RevenueDetails, 1)
	require.Equal(t, "Affiliate Q1", report.RevenueDetails[0].ProjectName)
	require.Len(t, report.AdCostDetails, 1)
	require.True(t, report.AdCostDetails[0].VATAmount.Equal(d(100_800)))
	require.Len(t, report.MiscCostDetails, 1)
}

func TestCompilePartnerAttribution(t *testing.T) {
	snap, self, partner := fixtureSnapshot()

	report, err := Compile(snap, "2024-03", Config{})
	require.NoError(t, err)
	require.Len(t, report.PartnerPnl, 2)

	rows := map[uuid.UUID]PartnerPnl{}
	for _, row := range report.PartnerPnl {
		rows[row.PartnerID] = row
	}

	// Self: 60% of revenue plus the exchange variance; 60% of ad cost plus
	// the unshared misc expense.
	require.True(t, rows[self.ID].Revenue.Equal(d(1_550_000)), "self revenue %s", rows[self.ID].Revenue)
	require.True(t, rows[self.ID].Cost.Equal(d(1_256_000)))
	require.True(t, rows[partner.ID].Revenue.Equal(d(1_000_000)))
	require.True(t, rows[partner.ID].Cost.Equal(d(504_000)))

	profitSum := decimal.Zero
	taxSum := decimal.Zero
	for _, row := range report.PartnerPnl {
		profitSum = profitSum.Add(row.Profit)
		taxSum = taxSum.Add(row.TaxPayable)
	}
	require.True(t, profitSum.Equal(report.ProfitBeforeTax), "partner profits must sum to PBT")
	require.True(t, taxSum.Equal(report.Tax.TaxPayable), "partner tax must sum to payable")
}

func TestCompileCashFlowIdentity(t *testing.T) {
	snap, _, _ := fixtureSnapshot()

	report, err := Compile(snap, "2024-03", Config{})
	require.NoError(t, err)

	cf := report.CashFlow
	require.True(t, cf.EndBalance.VND.Equal(cf.BeginningBalance.VND.Add(cf.NetChange.VND)),
		"VND identity: end %s begin %s net %s", cf.EndBalance.VND, cf.BeginningBalance.VND, cf.NetChange.VND)
	require.True(t, cf.EndBalance.USD.Equal(cf.BeginningBalance.USD.Add(cf.NetChange.USD)))

	changeVND, changeUSD := decimal.Zero, decimal.Zero
	for _, detail := range report.AssetDetails {
		require.True(t, detail.Change.Equal(detail.ClosingBalance.Sub(detail.OpeningBalance)))
		if detail.Currency == money.USD {
			changeUSD = changeUSD.Add(detail.Change)
		} else {
			changeVND = changeVND.Add(detail.Change)
		}
	}
	require.True(t, changeVND.Equal(cf.NetChange.VND), "asset changes %s vs net change %s", changeVND, cf.NetChange.VND)
	require.True(t, changeUSD.Equal(cf.NetChange.USD))

	require.True(t, cf.NetChange.VND.Equal(d(6_010_000)))
	require.True(t, cf.NetChange.USD.IsZero())
}

func TestCompileIdempotent(t *testing.T) {
	snap, _, _ := fixtureSnapshot()

	first, err := Compile(snap, "2024-03", Config{})
	require.NoError(t, err)
	second, err := Compile(snap, "2024-03", Config{})
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	require.Equal(t, string(a), string(b), "re-derivation must be bit-identical")
}

func TestCompileIgnoresOtherPeriods(t *testing.T) {
	snap, _, _ := fixtureSnapshot()

	report, err := Compile(snap, "2024-04", Config{})
	require.NoError(t, err)
	require.True(t, report.Revenue.IsZero())
	require.True(t, report.TotalCost.IsZero())
	// March activity is already in the opening balances of April.
	require.True(t, report.CashFlow.BeginningBalance.VND.Equal(d(6_010_000)))
	require.True(t, report.CashFlow.NetChange.VND.IsZero())
}

func TestExchangeGainLossFallsBackToBaseline(t *testing.T) {
	snap, _, _ := fixtureSnapshot()
	snap.Commissions = nil

	// No commission context: variance is taken against the configured baseline.
	report, err := Compile(snap, "2024-03", Config{BaselineRate: d(25_200)})
	require.NoError(t, err)
	require.True(t, report.ExchangeRateGainLoss.Equal(d(30_000)), "fx %s", report.ExchangeRateGainLoss)

	// A zero baseline reports zero rather than guessing.
	noBaseline, err := Compile(snap, "2024-03", Config{})
	require.NoError(t, err)
	require.True(t, noBaseline.ExchangeRateGainLoss.IsZero())
}

func TestCompileRejectsBadPeriod(t *testing.T) {
	snap, _, _ := fixtureSnapshot()
	_, err := Compile(snap, "March 2024", Config{})
	require.ErrorIs(t, err, ledger.ErrInvalidPeriod)
}
