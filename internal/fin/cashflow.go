package fin

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sobook-erp/sobook/internal/balances"
	"github.com/sobook-erp/sobook/internal/ledger"
	"github.com/sobook-erp/sobook/internal/money"
)

// Totals keeps a figure per currency. Currencies never mix implicitly, so
// the statement reports VND and USD side by side instead of converting.
type Totals struct {
	VND decimal.Decimal `json:"vnd"`
	USD decimal.Decimal `json:"usd"`
}

func (t *Totals) add(c money.Currency, v decimal.Decimal) {
	if c == money.USD {
		t.USD = t.USD.Add(v)
	} else {
		t.VND = t.VND.Add(v)
	}
}

func (t *Totals) sub(c money.Currency, v decimal.Decimal) {
	t.add(c, v.Neg())
}

// Plus returns the element-wise sum of two totals.
func (t Totals) Plus(o Totals) Totals {
	return Totals{VND: t.VND.Add(o.VND), USD: t.USD.Add(o.USD)}
}

// CashFlowLine is one aggregated movement within a bucket.
type CashFlowLine struct {
	Label    string          `json:"label"`
	Currency money.Currency  `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
}

// CashFlowBucket groups cash movements of one activity class.
type CashFlowBucket struct {
	Label    string         `json:"label"`
	Inflows  []CashFlowLine `json:"inflows"`
	Outflows []CashFlowLine `json:"outflows"`
	Net      Totals         `json:"net"`
}

// CashFlowStatement is the three-bucket statement with the balance identity:
// endBalance = beginningBalance + netChange, per currency.
type CashFlowStatement struct {
	Operating        CashFlowBucket `json:"operating"`
	Investing        CashFlowBucket `json:"investing"`
	Financing        CashFlowBucket `json:"financing"`
	NetChange        Totals         `json:"netChange"`
	BeginningBalance Totals         `json:"beginningBalance"`
	EndBalance       Totals         `json:"endBalance"`
}

type lineKey struct {
	label    string
	currency money.Currency
}

type bucketBuilder struct {
	label    string
	inflows  map[lineKey]decimal.Decimal
	outflows map[lineKey]decimal.Decimal
}

func newBucketBuilder(label string) *bucketBuilder {
	return &bucketBuilder{
		label:    label,
		inflows:  make(map[lineKey]decimal.Decimal),
		outflows: make(map[lineKey]decimal.Decimal),
	}
}

func (b *bucketBuilder) in(label string, c money.Currency, v decimal.Decimal) {
	if v.IsZero() {
		return
	}
	k := lineKey{label: label, currency: c}
	b.inflows[k] = b.inflows[k].Add(v)
}

func (b *bucketBuilder) out(label string, c money.Currency, v decimal.Decimal) {
	if v.IsZero() {
		return
	}
	k := lineKey{label: label, currency: c}
	b.outflows[k] = b.outflows[k].Add(v)
}

func (b *bucketBuilder) build() CashFlowBucket {
	bucket := CashFlowBucket{Label: b.label}
	for k, v := range b.inflows {
		bucket.Inflows = append(bucket.Inflows, CashFlowLine{Label: k.label, Currency: k.currency, Amount: v})
		bucket.Net.add(k.currency, v)
	}
	for k, v := range b.outflows {
		bucket.Outflows = append(bucket.Outflows, CashFlowLine{Label: k.label, Currency: k.currency, Amount: v})
		bucket.Net.sub(k.currency, v)
	}
	sortLines(bucket.Inflows)
	sortLines(bucket.Outflows)
	return bucket
}

func sortLines(lines []CashFlowLine) {
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].Label == lines[j].Label {
			return lines[i].Currency < lines[j].Currency
		}
		return lines[i].Label < lines[j].Label
	})
}

// compileCashFlow classifies every cash-moving transaction dated in the
// period into operating, investing and financing activity, and derives the
// per-asset opening/change/closing rows from the same flow set — which is
// what makes the balance identity hold by construction.
func compileCashFlow(snap *ledger.Snapshot, period string) ([]AssetPeriodDetail, CashFlowStatement, error) {
	start, end, err := ledger.PeriodBounds(period)
	if err != nil {
		return nil, CashFlowStatement{}, err
	}
	var statement CashFlowStatement
	details := make([]AssetPeriodDetail, 0, len(snap.Assets))
	for _, asset := range snap.Assets {
		opening, err := balances.BalanceAsOf(snap, asset.ID, start)
		if err != nil {
			return nil, CashFlowStatement{}, err
		}
		closing, err := balances.BalanceAsOf(snap, asset.ID, end)
		if err != nil {
			return nil, CashFlowStatement{}, err
		}
		details = append(details, AssetPeriodDetail{
			AssetID:        asset.ID,
			AssetName:      asset.Name,
			Currency:       asset.Currency,
			OpeningBalance: opening,
			Change:         closing.Sub(opening),
			ClosingBalance: closing,
		})
		statement.BeginningBalance.add(asset.Currency, opening)
		statement.EndBalance.add(asset.Currency, closing)
	}
	sort.Slice(details, func(i, j int) bool {
		if details[i].AssetName == details[j].AssetName {
			return details[i].AssetID.String() < details[j].AssetID.String()
		}
		return details[i].AssetName < details[j].AssetName
	})

	currencyOf := func(assetID uuid.UUID) (money.Currency, bool) {
		a, ok := snap.Asset(assetID)
		if !ok {
			return "", false
		}
		return a.Currency, true
	}

	operating := newBucketBuilder("Operating")
	investing := newBucketBuilder("Investing")
	financing := newBucketBuilder("Financing")

	for _, c := range snap.Commissions {
		if !ledger.PeriodContains(period, c.Date) {
			continue
		}
		if cur, ok := currencyOf(c.AssetID); ok {
			amount := c.VNDAmount
			if cur == money.USD {
				amount = c.USDAmount
			}
			operating.in("Commissions", cur, amount)
		}
	}
	for _, d := range snap.AdDeposits {
		if !ledger.PeriodContains(period, d.Date) {
			continue
		}
		if cur, ok := currencyOf(d.AssetID); ok {
			amount := d.VNDAmount
			if cur == money.USD {
				amount = d.USDAmount
			}
			operating.out("Ad account funding", cur, amount)
		}
	}
	for _, e := range snap.MiscExpenses {
		if !ledger.PeriodContains(period, e.Date) {
			continue
		}
		if cur, ok := currencyOf(e.AssetID); ok {
			operating.out("Miscellaneous expenses", cur, e.Amount)
		}
	}
	for _, x := range snap.ExchangeLogs {
		if !ledger.PeriodContains(period, x.Date) {
			continue
		}
		if cur, ok := currencyOf(x.SellingAssetID); ok {
			operating.out("Currency exchange", cur, x.USDAmount)
		}
		if cur, ok := currencyOf(x.ReceivingAssetID); ok {
			operating.in("Currency exchange", cur, x.VNDAmount)
		}
	}
	for _, pl := range snap.PeriodLiabilities {
		if pl.IsPaid && pl.AssetID != nil && pl.PaidDate != nil && ledger.PeriodContains(period, *pl.PaidDate) {
			if cur, ok := currencyOf(*pl.AssetID); ok {
				operating.out("Period obligations paid", cur, pl.Amount)
			}
		}
	}
	for _, pr := range snap.PeriodReceivables {
		if pr.IsReceived && pr.AssetID != nil && pr.ReceivedDate != nil && ledger.PeriodContains(period, *pr.ReceivedDate) {
			if cur, ok := currencyOf(*pr.AssetID); ok {
				operating.in("Period claims collected", cur, pr.Amount)
			}
		}
	}

	for _, sv := range snap.Savings {
		if ledger.PeriodContains(period, sv.StartDate) {
			if cur, ok := currencyOf(sv.AssetID); ok {
				investing.out("Savings placed", cur, sv.Principal)
			}
		}
		if sv.Status == ledger.SavingStatusMatured && sv.MaturedDate != nil && ledger.PeriodContains(period, *sv.MaturedDate) {
			if cur, ok := currencyOf(sv.AssetID); ok {
				investing.in("Savings matured", cur, sv.MaturedAmount)
			}
		}
	}
	for _, inv := range snap.Investments {
		if ledger.PeriodContains(period, inv.StartDate) {
			if cur, ok := currencyOf(inv.AssetID); ok {
				investing.out("Investments placed", cur, inv.InvestmentAmount)
			}
		}
		if inv.Status == ledger.InvestmentStatusLiquidated && inv.LiquidationDate != nil && ledger.PeriodContains(period, *inv.LiquidationDate) {
			if cur, ok := currencyOf(inv.AssetID); ok {
				investing.in("Investments liquidated", cur, inv.LiquidationAmount)
			}
		}
	}
	for _, p := range snap.ReceivablePayments {
		if !ledger.PeriodContains(period, p.Date) {
			continue
		}
		if cur, ok := currencyOf(p.AssetID); ok {
			investing.in("Receivable collections", cur, p.Amount)
		}
	}
	for _, l := range snap.Liabilities {
		if l.InflowAssetID != nil && ledger.PeriodContains(period, l.Date) {
			if cur, ok := currencyOf(*l.InflowAssetID); ok {
				investing.in("Debt-funded inflows", cur, l.TotalAmount)
			}
		}
	}

	for _, ci := range snap.CapitalInflows {
		if !ledger.PeriodContains(period, ci.Date) {
			continue
		}
		if cur, ok := currencyOf(ci.AssetID); ok {
			financing.in("Capital contributions", cur, ci.Amount)
		}
	}
	for _, w := range snap.Withdrawals {
		if !ledger.PeriodContains(period, w.Date) {
			continue
		}
		if cur, ok := currencyOf(w.AssetID); ok {
			financing.out("Partner withdrawals", cur, w.Amount)
		}
	}
	for _, p := range snap.DebtPayments {
		if !ledger.PeriodContains(period, p.Date) {
			continue
		}
		if cur, ok := currencyOf(p.AssetID); ok {
			financing.out("Debt payments", cur, p.Amount)
		}
	}
	for _, r := range snap.Receivables {
		if r.OutflowAssetID != nil && ledger.PeriodContains(period, r.Date) {
			if cur, ok := currencyOf(*r.OutflowAssetID); ok {
				financing.out("Receivable disbursements", cur, r.TotalAmount)
			}
		}
	}

	statement.Operating = operating.build()
	statement.Investing = investing.build()
	statement.Financing = financing.build()
	statement.NetChange = statement.Operating.Net.
		Plus(statement.Investing.Net).
		Plus(statement.Financing.Net)

	return details, statement, nil
}
