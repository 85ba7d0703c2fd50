package fin

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/sobook-erp/sobook/internal/ledger"
)

func TestCalculateTaxRevenueMethod(t *testing.T) {
	result := CalculateTax(TaxBases{RevenueBase: d(100_000_000)}, ledger.TaxSettings{
		Method:      ledger.TaxMethodRevenue,
		RevenueRate: decimal.NewFromFloat(1.5),
	})
	require.True(t, result.TaxPayable.Equal(d(1_500_000)))
	require.True(t, result.OutputVAT.IsZero())
}

func TestCalculateTaxProfitVATAutoSum(t *testing.T) {
	bases := TaxBases{
		ProfitBase:    d(50_000_000),
		VATOutputBase: d(200_000_000),
		VATInputBase:  d(6_000_000),
	}
	result := CalculateTax(bases, ledger.TaxSettings{
		Method:         ledger.TaxMethodProfitVAT,
		VATRate:        d(8),
		IncomeRate:     d(20),
		VATInputMethod: ledger.VATInputAutoSum,
	})

	require.True(t, result.OutputVAT.Equal(d(16_000_000)))
	require.True(t, result.InputVAT.Equal(d(6_000_000)))
	require.True(t, result.NetVAT.Equal(d(10_000_000)))
	require.True(t, result.IncomeTax.Equal(d(10_000_000)))
	require.True(t, result.TaxPayable.Equal(d(20_000_000)))
}

func TestCalculateTaxProfitVATManualInput(t *testing.T) {
	bases := TaxBases{VATOutputBase: d(100_000_000), VATInputBase: d(999)}
	result := CalculateTax(bases, ledger.TaxSettings{
		Method:         ledger.TaxMethodProfitVAT,
		VATRate:        d(10),
		VATInputMethod: ledger.VATInputManual,
		ManualVATInput: d(4_000_000),
	})
	require.True(t, result.InputVAT.Equal(d(4_000_000)))
	require.True(t, result.NetVAT.Equal(d(6_000_000)))
}

func TestCalculateTaxVATCreditIsNotALiability(t *testing.T) {
	bases := TaxBases{
		ProfitBase:    d(-3_000_000),
		VATOutputBase: d(10_000_000),
		VATInputBase:  d(2_000_000),
	}
	result := CalculateTax(bases, ledger.TaxSettings{
		Method:         ledger.TaxMethodProfitVAT,
		VATRate:        d(10),
		IncomeRate:     d(20),
		VATInputMethod: ledger.VATInputAutoSum,
	})

	// Net VAT is negative: a credit carried forward, floored at zero for
	// payable; a loss likewise owes no income tax.
	require.True(t, result.NetVAT.Equal(d(-1_000_000)))
	require.True(t, result.IncomeTax.IsZero())
	require.True(t, result.TaxPayable.IsZero())
}
