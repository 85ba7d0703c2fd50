// Package attribution holds the single fan-out rule that splits a monetary
// line across partners. Resolver and compiler both go through it, so an
// amount is never attributed twice and never attributed differently.
package attribution

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sobook-erp/sobook/internal/ledger"
)

var hundred = decimal.NewFromInt(100)

// Stake is one partner's fraction of a line.
type Stake struct {
	PartnerID uuid.UUID
	Fraction  decimal.Decimal
}

// Portion is one partner's absolute share of a split amount.
type Portion struct {
	PartnerID uuid.UUID
	Amount    decimal.Decimal
}

// SelfOnly attributes everything to the distinguished partner.
func SelfOnly(selfID uuid.UUID) []Stake {
	return []Stake{{PartnerID: selfID, Fraction: decimal.NewFromInt(1)}}
}

// FromShares converts a percentage share list into fractional stakes,
// preserving list order.
func FromShares(shares []ledger.PartnerShare) []Stake {
	stakes := make([]Stake, 0, len(shares))
	for _, s := range shares {
		stakes = append(stakes, Stake{
			PartnerID: s.PartnerID,
			Fraction:  s.SharePercentage.Div(hundred),
		})
	}
	return stakes
}

// ForProject resolves the stakes of a project-owned line: the project's
// share list when it is a partnership, otherwise everything to self.
func ForProject(p ledger.Project, selfID uuid.UUID) []Stake {
	if p.IsPartnership && len(p.PartnerShares) > 0 {
		return FromShares(p.PartnerShares)
	}
	return SelfOnly(selfID)
}

// ForExpense resolves the stakes of a misc expense: the expense's own split
// when it carries one, else its project's split, else self.
func ForExpense(e ledger.MiscellaneousExpense, project *ledger.Project, selfID uuid.UUID) []Stake {
	if e.IsPartnership && len(e.PartnerShares) > 0 {
		return FromShares(e.PartnerShares)
	}
	if project != nil {
		return ForProject(*project, selfID)
	}
	return SelfOnly(selfID)
}

// Split fans an amount out across stakes. The final stake absorbs the
// rounding residual so the portions always sum to the amount exactly.
func Split(amount decimal.Decimal, stakes []Stake) []Portion {
	if len(stakes) == 0 {
		return nil
	}
	portions := make([]Portion, len(stakes))
	allocated := decimal.Zero
	for i, s := range stakes {
		var part decimal.Decimal
		if i == len(stakes)-1 {
			part = amount.Sub(allocated)
		} else {
			part = amount.Mul(s.Fraction)
			allocated = allocated.Add(part)
		}
		portions[i] = Portion{PartnerID: s.PartnerID, Amount: part}
	}
	return portions
}
