package ledger_test

import (
	"context"

	"github.com/google/uuid"

	"github.com/sobook-erp/sobook/internal/ledger"
)

// memoryRepo keeps the whole workspace in one snapshot value.
type memoryRepo struct {
	snap ledger.Snapshot
}

func upsert[T any](list []T, item T, id uuid.UUID, idOf func(T) uuid.UUID) []T {
	for i := range list {
		if idOf(list[i]) == id {
			list[i] = item
			return list
		}
	}
	return append(list, item)
}

func remove[T any](list []T, id uuid.UUID, idOf func(T) uuid.UUID) ([]T, bool) {
	for i := range list {
		if idOf(list[i]) == id {
			return append(list[:i], list[i+1:]...), true
		}
	}
	return list, false
}

func removeOr(ok bool) error {
	if !ok {
		return ledger.ErrNotFound
	}
	return nil
}

func (m *memoryRepo) Snapshot(ctx context.Context) (*ledger.Snapshot, error) {
	snap := m.snap
	return &snap, nil
}

func (m *memoryRepo) ReplaceAll(ctx context.Context, snap *ledger.Snapshot) error {
	m.snap = *snap
	return nil
}

func (m *memoryRepo) SaveAsset(ctx context.Context, a ledger.Asset) error {
	m.snap.Assets = upsert(m.snap.Assets, a, a.ID, func(v ledger.Asset) uuid.UUID { return v.ID })
	return nil
}

func (m *memoryRepo) DeleteAsset(ctx context.Context, id uuid.UUID) error {
	var ok bool
	m.snap.Assets, ok = remove(m.snap.Assets, id, func(v ledger.Asset) uuid.UUID { return v.ID })
	return removeOr(ok)
}

func (m *memoryRepo) SavePartner(ctx context.Context, p ledger.Partner) error {
	m.snap.Partners = upsert(m.snap.Partners, p, p.ID, func(v ledger.Partner) uuid.UUID { return v.ID })
	return nil
}

func (m *memoryRepo) DeletePartner(ctx context.Context, id uuid.UUID) error {
	var ok bool
	m.snap.Partners, ok = remove(m.snap.Partners, id, func(v ledger.Partner) uuid.UUID { return v.ID })
	return removeOr(ok)
}

func (m *memoryRepo) SaveProject(ctx context.Context, p ledger.Project) error {
	m.snap.Projects = upsert(m.snap.Projects, p, p.ID, func(v ledger.Project) uuid.UUID { return v.ID })
	return nil
}

func (m *memoryRepo) DeleteProject(ctx context.Context, id uuid.UUID) error {
	var ok bool
	m.snap.Projects, ok = remove(m.snap.Projects, id, func(v ledger.Project) uuid.UUID { return v.ID })
	return removeOr(ok)
}

func (m *memoryRepo) SaveCommission(ctx context.Context, c ledger.Commission) error {
	m.snap.Commissions = upsert(m.snap.Commissions, c, c.ID, func(v ledger.Commission) uuid.UUID { return v.ID })
	return nil
}

func (m *memoryRepo) DeleteCommission(ctx context.Context, id uuid.UUID) error {
	var ok bool
	m.snap.Commissions, ok = remove(m.snap.Commissions, id, func(v ledger.Commission) uuid.UUID { return v.ID })
	return removeOr(ok)
}

func (m *memoryRepo) SaveAdDeposit(ctx context.Context, d ledger.AdDeposit) error {
	m.snap.AdDeposits = upsert(m.snap.AdDeposits, d, d.ID, func(v ledger.AdDeposit) uuid.UUID { return v.ID })
	return nil
}

func (m *memoryRepo) DeleteAdDeposit(ctx context.Context, id uuid.UUID) error {
	var ok bool
	m.snap.AdDeposits, ok = remove(m.snap.AdDeposits, id, func(v ledger.AdDeposit) uuid.UUID { return v.ID })
	return removeOr(ok)
}

func (m *memoryRepo) SaveAdFundTransfer(ctx context.Context, t ledger.AdFundTransfer) error {
	m.snap.AdFundTransfers = upsert(m.snap.AdFundTransfers, t, t.ID, func(v ledger.AdFundTransfer) uuid.UUID { return v.ID })
	return nil
}

func (m *memoryRepo) DeleteAdFundTransfer(ctx context.Context, id uuid.UUID) error {
	var ok bool
	m.snap.AdFundTransfers, ok = remove(m.snap.AdFundTransfers, id, func(v ledger.AdFundTransfer) uuid.UUID { return v.ID })
	return removeOr(ok)
}

func (m *memoryRepo) SaveDailyAdCost(ctx context.Context, c ledger.DailyAdCost) error {
	m.snap.DailyAdCosts = upsert(m.snap.DailyAdCosts, c, c.ID, func(v ledger.DailyAdCost) uuid.UUID { return v.ID })
	return nil
}

func (m *memoryRepo) DeleteDailyAdCost(ctx context.Context, id uuid.UUID) error {
	var ok bool
	m.snap.DailyAdCosts, ok = remove(m.snap.DailyAdCosts, id, func(v ledger.DailyAdCost) uuid.UUID { return v.ID })
	return removeOr(ok)
}

func (m *memoryRepo) SaveMiscExpense(ctx context.Context, e ledger.MiscellaneousExpense) error {
	m.snap.MiscExpenses = upsert(m.snap.MiscExpenses, e, e.ID, func(v ledger.MiscellaneousExpense) uuid.UUID { return v.ID })
	return nil
}

func (m *memoryRepo) DeleteMiscExpense(ctx context.Context, id uuid.UUID) error {
	var ok bool
	m.snap.MiscExpenses, ok = remove(m.snap.MiscExpenses, id, func(v ledger.MiscellaneousExpense) uuid.UUID { return v.ID })
	return removeOr(ok)
}

func (m *memoryRepo) SaveLiability(ctx context.Context, l ledger.Liability) error {
	m.snap.Liabilities = upsert(m.snap.Liabilities, l, l.ID, func(v ledger.Liability) uuid.UUID { return v.ID })
	return nil
}

func (m *memoryRepo) DeleteLiability(ctx context.Context, id uuid.UUID) error {
	var ok bool
	m.snap.Liabilities, ok = remove(m.snap.Liabilities, id, func(v ledger.Liability) uuid.UUID { return v.ID })
	return removeOr(ok)
}

func (m *memoryRepo) SaveReceivable(ctx context.Context, v ledger.Receivable) error {
	m.snap.Receivables = upsert(m.snap.Receivables, v, v.ID, func(x ledger.Receivable) uuid.UUID { return x.ID })
	return nil
}

func (m *memoryRepo) DeleteReceivable(ctx context.Context, id uuid.UUID) error {
	var ok bool
	m.snap.Receivables, ok = remove(m.snap.Receivables, id, func(v ledger.Receivable) uuid.UUID { return v.ID })
	return removeOr(ok)
}

func (m *memoryRepo) SaveDebtPayment(ctx context.Context, p ledger.DebtPayment) error {
	m.snap.DebtPayments = upsert(m.snap.DebtPayments, p, p.ID, func(v ledger.DebtPayment) uuid.UUID { return v.ID })
	return nil
}

func (m *memoryRepo) DeleteDebtPayment(ctx context.Context, id uuid.UUID) error {
	var ok bool
	m.snap.DebtPayments, ok = remove(m.snap.DebtPayments, id, func(v ledger.DebtPayment) uuid.UUID { return v.ID })
	return removeOr(ok)
}

func (m *memoryRepo) SaveReceivablePayment(ctx context.Context, p ledger.ReceivablePayment) error {
	m.snap.ReceivablePayments = upsert(m.snap.ReceivablePayments, p, p.ID, func(v ledger.ReceivablePayment) uuid.UUID { return v.ID })
	return nil
}

func (m *memoryRepo) DeleteReceivablePayment(ctx context.Context, id uuid.UUID) error {
	var ok bool
	m.snap.ReceivablePayments, ok = remove(m.snap.ReceivablePayments, id, func(v ledger.ReceivablePayment) uuid.UUID { return v.ID })
	return removeOr(ok)
}

func (m *memoryRepo) SavePeriodLiability(ctx context.Context, p ledger.PeriodLiability) error {
	m.snap.PeriodLiabilities = upsert(m.snap.PeriodLiabilities, p, p.ID, func(v ledger.PeriodLiability) uuid.UUID { return v.ID })
	return nil
}

func (m *memoryRepo) DeletePeriodLiability(ctx context.Context, id uuid.UUID) error {
	var ok bool
	m.snap.PeriodLiabilities, ok = remove(m.snap.PeriodLiabilities, id, func(v ledger.PeriodLiability) uuid.UUID { return v.ID })
	return removeOr(ok)
}

func (m *memoryRepo) SavePeriodReceivable(ctx context.Context, p ledger.PeriodReceivable) error {
	m.snap.PeriodReceivables = upsert(m.snap.PeriodReceivables, p, p.ID, func(v ledger.PeriodReceivable) uuid.UUID { return v.ID })
	return nil
}

func (m *memoryRepo) DeletePeriodReceivable(ctx context.Context, id uuid.UUID) error {
	var ok bool
	m.snap.PeriodReceivables, ok = remove(m.snap.PeriodReceivables, id, func(v ledger.PeriodReceivable) uuid.UUID { return v.ID })
	return removeOr(ok)
}

func (m *memoryRepo) SaveCapitalInflow(ctx context.Context, c ledger.CapitalInflow) error {
	m.snap.CapitalInflows = upsert(m.snap.CapitalInflows, c, c.ID, func(v ledger.CapitalInflow) uuid.UUID { return v.ID })
	return nil
}

func (m *memoryRepo) DeleteCapitalInflow(ctx context.Context, id uuid.UUID) error {
	var ok bool
	m.snap.CapitalInflows, ok = remove(m.snap.CapitalInflows, id, func(v ledger.CapitalInflow) uuid.UUID { return v.ID })
	return removeOr(ok)
}

func (m *memoryRepo) SaveWithdrawal(ctx context.Context, w ledger.Withdrawal) error {
	m.snap.Withdrawals = upsert(m.snap.Withdrawals, w, w.ID, func(v ledger.Withdrawal) uuid.UUID { return v.ID })
	return nil
}

func (m *memoryRepo) DeleteWithdrawal(ctx context.Context, id uuid.UUID) error {
	var ok bool
	m.snap.Withdrawals, ok = remove(m.snap.Withdrawals, id, func(v ledger.Withdrawal) uuid.UUID { return v.ID })
	return removeOr(ok)
}

func (m *memoryRepo) SaveExchangeLog(ctx context.Context, e ledger.ExchangeLog) error {
	m.snap.ExchangeLogs = upsert(m.snap.ExchangeLogs, e, e.ID, func(v ledger.ExchangeLog) uuid.UUID { return v.ID })
	return nil
}

func (m *memoryRepo) DeleteExchangeLog(ctx context.Context, id uuid.UUID) error {
	var ok bool
	m.snap.ExchangeLogs, ok = remove(m.snap.ExchangeLogs, id, func(v ledger.ExchangeLog) uuid.UUID { return v.ID })
	return removeOr(ok)
}

func (m *memoryRepo) SaveSaving(ctx context.Context, s ledger.Saving) error {
	m.snap.Savings = upsert(m.snap.Savings, s, s.ID, func(v ledger.Saving) uuid.UUID { return v.ID })
	return nil
}

func (m *memoryRepo) DeleteSaving(ctx context.Context, id uuid.UUID) error {
	var ok bool
	m.snap.Savings, ok = remove(m.snap.Savings, id, func(v ledger.Saving) uuid.UUID { return v.ID })
	return removeOr(ok)
}

func (m *memoryRepo) SaveInvestment(ctx context.Context, inv ledger.Investment) error {
	m.snap.Investments = upsert(m.snap.Investments, inv, inv.ID, func(v ledger.Investment) uuid.UUID { return v.ID })
	return nil
}

func (m *memoryRepo) DeleteInvestment(ctx context.Context, id uuid.UUID) error {
	var ok bool
	m.snap.Investments, ok = remove(m.snap.Investments, id, func(v ledger.Investment) uuid.UUID { return v.ID })
	return removeOr(ok)
}

func (m *memoryRepo) SaveTaxSettings(ctx context.Context, t ledger.TaxSettings) error {
	m.snap.TaxSettings = t
	return nil
}
