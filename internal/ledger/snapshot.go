package ledger

import (
	"github.com/google/uuid"
)

// Snapshot is an immutable read model of the whole ledger. Every derivation
// in the engine is a pure function over one Snapshot, so results are
// deterministic and safe to recompute in parallel.
type Snapshot struct {
	Assets             []Asset
	Partners           []Partner
	Projects           []Project
	Commissions        []Commission
	AdDeposits         []AdDeposit
	AdFundTransfers    []AdFundTransfer
	DailyAdCosts       []DailyAdCost
	MiscExpenses       []MiscellaneousExpense
	Liabilities        []Liability
	Receivables        []Receivable
	DebtPayments       []DebtPayment
	ReceivablePayments []ReceivablePayment
	PeriodLiabilities  []PeriodLiability
	PeriodReceivables  []PeriodReceivable
	CapitalInflows     []CapitalInflow
	Withdrawals        []Withdrawal
	ExchangeLogs       []ExchangeLog
	Savings            []Saving
	Investments        []Investment
	TaxSettings        TaxSettings
}

// Asset looks up an asset by id.
func (s *Snapshot) Asset(id uuid.UUID) (Asset, bool) {
	for _, a := range s.Assets {
		if a.ID == id {
			return a, true
		}
	}
	return Asset{}, false
}

// Partner looks up a partner by id.
func (s *Snapshot) Partner(id uuid.UUID) (Partner, bool) {
	for _, p := range s.Partners {
		if p.ID == id {
			return p, true
		}
	}
	return Partner{}, false
}

// SelfPartner returns the distinguished "me" partner.
func (s *Snapshot) SelfPartner() (Partner, bool) {
	for _, p := range s.Partners {
		if p.IsSelf {
			return p, true
		}
	}
	return Partner{}, false
}

// Project looks up a project by id.
func (s *Snapshot) Project(id uuid.UUID) (Project, bool) {
	for _, p := range s.Projects {
		if p.ID == id {
			return p, true
		}
	}
	return Project{}, false
}

// Liability looks up a liability by id.
func (s *Snapshot) Liability(id uuid.UUID) (Liability, bool) {
	for _, l := range s.Liabilities {
		if l.ID == id {
			return l, true
		}
	}
	return Liability{}, false
}

// Receivable looks up a receivable by id.
func (s *Snapshot) Receivable(id uuid.UUID) (Receivable, bool) {
	for _, r := range s.Receivables {
		if r.ID == id {
			return r, true
		}
	}
	return Receivable{}, false
}

// PaymentsForLiability returns payments settling the given liability.
func (s *Snapshot) PaymentsForLiability(id uuid.UUID) []DebtPayment {
	var out []DebtPayment
	for _, p := range s.DebtPayments {
		if p.LiabilityID == id {
			out = append(out, p)
		}
	}
	return out
}

// PaymentsForReceivable returns collections against the given receivable.
func (s *Snapshot) PaymentsForReceivable(id uuid.UUID) []ReceivablePayment {
	var out []ReceivablePayment
	for _, p := range s.ReceivablePayments {
		if p.ReceivableID == id {
			out = append(out, p)
		}
	}
	return out
}

// DepositsForAdAccount returns all deposits funding the given ad account.
func (s *Snapshot) DepositsForAdAccount(account string) []AdDeposit {
	var out []AdDeposit
	for _, d := range s.AdDeposits {
		if d.AdAccountNumber == account {
			out = append(out, d)
		}
	}
	return out
}
