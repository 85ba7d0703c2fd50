package fin

import (
	"github.com/shopspring/decimal"

	"github.com/sobook-erp/sobook/internal/ledger"
	"github.com/sobook-erp/sobook/internal/money"
)

// TaxBases are the aggregates the tax calculation runs on, already narrowed
// to personal or total figures per the configured allocation flags.
type TaxBases struct {
	RevenueBase   decimal.Decimal
	CostBase      decimal.Decimal
	ProfitBase    decimal.Decimal
	VATOutputBase decimal.Decimal
	VATInputBase  decimal.Decimal
}

// TaxResult is the payable breakdown for a period.
type TaxResult struct {
	OutputVAT decimal.Decimal
	InputVAT  decimal.Decimal
	// NetVAT may be negative: a VAT credit carried forward, not a liability.
	NetVAT     decimal.Decimal
	IncomeTax  decimal.Decimal
	TaxPayable decimal.Decimal
}

// CalculateTax derives the payable tax from compiled bases and the
// configured method. Pure: it never touches the ledger.
func CalculateTax(bases TaxBases, settings ledger.TaxSettings) TaxResult {
	switch settings.Method {
	case ledger.TaxMethodProfitVAT:
		out := money.Percent(bases.VATOutputBase, settings.VATRate)
		in := bases.VATInputBase
		if settings.VATInputMethod == ledger.VATInputManual {
			in = settings.ManualVATInput
		}
		net := out.Sub(in)

		profit := bases.ProfitBase
		if profit.IsNegative() {
			profit = decimal.Zero
		}
		income := money.Percent(profit, settings.IncomeRate)

		payableVAT := net
		if payableVAT.IsNegative() {
			payableVAT = decimal.Zero
		}
		return TaxResult{
			OutputVAT:  out,
			InputVAT:   in,
			NetVAT:     net,
			IncomeTax:  income,
			TaxPayable: payableVAT.Add(income),
		}
	default:
		// Revenue method: a flat rate on the revenue base.
		payable := money.Percent(bases.RevenueBase, settings.RevenueRate)
		return TaxResult{TaxPayable: payable}
	}
}
