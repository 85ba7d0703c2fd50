// Package fin compiles a period's ledger activity into the financial report:
// revenue, cost breakdown, exchange variance, tax, partner P&L and the
// cash-flow statement.
package fin

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/sobook-erp/sobook/internal/ledger"
)

// EffectiveRate imputes the USD→VND rate for an ad cost from its account's
// funding history: the latest deposit dated at or before the cost, falling
// back to the earliest deposit when the cost predates all funding. An
// account with no deposits resolves to zero with resolved=false; the cost is
// reported flagged rather than rejected.
func EffectiveRate(snap *ledger.Snapshot, adAccount string, date time.Time) (decimal.Decimal, bool) {
	deposits := snap.DepositsForAdAccount(adAccount)
	if len(deposits) == 0 {
		return decimal.Zero, false
	}

	var best *ledger.AdDeposit
	var earliest *ledger.AdDeposit
	for i := range deposits {
		d := &deposits[i]
		if earliest == nil || d.Date.Before(earliest.Date) {
			earliest = d
		}
		if d.Date.After(date) {
			continue
		}
		if best == nil || d.Date.After(best.Date) {
			best = d
		}
	}
	if best == nil {
		best = earliest
	}
	return best.Rate, true
}
