package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/sobook-erp/sobook/internal/platform/db"
)

func queryAll[T any](ctx context.Context, q interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}, sql string, scan func(pgx.Rows) (T, error)) ([]T, error) {
	rows, err := q.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// Snapshot loads the entire ledger as an immutable read model. Records come
// back date-ordered so derivations are deterministic.
func (r *Repository) Snapshot(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}
	var err error

	snap.Assets, err = queryAll(ctx, r.pool, `
		SELECT id, name, type, currency, opening_balance, created_at, updated_at
		FROM assets ORDER BY name, id`,
		func(rows pgx.Rows) (Asset, error) {
			var a Asset
			err := rows.Scan(&a.ID, &a.Name, &a.Type, &a.Currency, &a.OpeningBalance, &a.CreatedAt, &a.UpdatedAt)
			return a, err
		})
	if err != nil {
		return nil, err
	}

	snap.Partners, err = queryAll(ctx, r.pool, `
		SELECT id, name, is_self, capital_baseline, created_at, updated_at
		FROM partners ORDER BY name, id`,
		func(rows pgx.Rows) (Partner, error) {
			var p Partner
			err := rows.Scan(&p.ID, &p.Name, &p.IsSelf, &p.CapitalBaseline, &p.CreatedAt, &p.UpdatedAt)
			return p, err
		})
	if err != nil {
		return nil, err
	}

	snap.Projects, err = queryAll(ctx, r.pool, `
		SELECT id, name, period, is_partnership, created_at, updated_at
		FROM projects ORDER BY period, name, id`,
		func(rows pgx.Rows) (Project, error) {
			var p Project
			err := rows.Scan(&p.ID, &p.Name, &p.Period, &p.IsPartnership, &p.CreatedAt, &p.UpdatedAt)
			return p, err
		})
	if err != nil {
		return nil, err
	}
	if err := r.attachProjectShares(ctx, snap); err != nil {
		return nil, err
	}

	snap.Commissions, err = queryAll(ctx, r.pool, `
		SELECT id, project_id, asset_id, date, usd_amount, predicted_rate, vnd_amount, created_at, updated_at
		FROM commissions ORDER BY date, id`,
		func(rows pgx.Rows) (Commission, error) {
			var c Commission
			err := rows.Scan(&c.ID, &c.ProjectID, &c.AssetID, &c.Date, &c.USDAmount, &c.PredictedRate, &c.VNDAmount, &c.CreatedAt, &c.UpdatedAt)
			return c, err
		})
	if err != nil {
		return nil, err
	}

	snap.AdDeposits, err = queryAll(ctx, r.pool, `
		SELECT id, ad_account_number, asset_id, date, usd_amount, rate, vnd_amount, status, created_at, updated_at
		FROM ad_deposits ORDER BY date, id`,
		func(rows pgx.Rows) (AdDeposit, error) {
			var d AdDeposit
			err := rows.Scan(&d.ID, &d.AdAccountNumber, &d.AssetID, &d.Date, &d.USDAmount, &d.Rate, &d.VNDAmount, &d.Status, &d.CreatedAt, &d.UpdatedAt)
			return d, err
		})
	if err != nil {
		return nil, err
	}

	snap.AdFundTransfers, err = queryAll(ctx, r.pool, `
		SELECT id, from_ad_account_number, to_ad_account_number, date, usd_amount, created_at, updated_at
		FROM ad_fund_transfers ORDER BY date, id`,
		func(rows pgx.Rows) (AdFundTransfer, error) {
			var t AdFundTransfer
			err := rows.Scan(&t.ID, &t.FromAdAccountNumber, &t.ToAdAccountNumber, &t.Date, &t.USDAmount, &t.CreatedAt, &t.UpdatedAt)
			return t, err
		})
	if err != nil {
		return nil, err
	}

	snap.DailyAdCosts, err = queryAll(ctx, r.pool, `
		SELECT id, project_id, ad_account_number, date, usd_amount, vat_rate, created_at, updated_at
		FROM daily_ad_costs ORDER BY date, id`,
		func(rows pgx.Rows) (DailyAdCost, error) {
			var c DailyAdCost
			err := rows.Scan(&c.ID, &c.ProjectID, &c.AdAccountNumber, &c.Date, &c.USDAmount, &c.VATRate, &c.CreatedAt, &c.UpdatedAt)
			return c, err
		})
	if err != nil {
		return nil, err
	}

	snap.MiscExpenses, err = queryAll(ctx, r.pool, `
		SELECT id, asset_id, project_id, description, date, amount, rate, vnd_amount, vat_rate, is_partnership, created_at, updated_at
		FROM misc_expenses ORDER BY date, id`,
		func(rows pgx.Rows) (MiscellaneousExpense, error) {
			var e MiscellaneousExpense
			err := rows.Scan(&e.ID, &e.AssetID, &e.ProjectID, &e.Description, &e.Date, &e.Amount, &e.Rate, &e.VNDAmount, &e.VATRate, &e.IsPartnership, &e.CreatedAt, &e.UpdatedAt)
			return e, err
		})
	if err != nil {
		return nil, err
	}
	if err := r.attachExpenseShares(ctx, snap); err != nil {
		return nil, err
	}

	snap.Liabilities, err = queryAll(ctx, r.pool, `
		SELECT id, counterparty, total_amount, currency, date, is_installment, start_date, number_of_installments, inflow_asset_id, completion_date, created_at, updated_at
		FROM liabilities ORDER BY date, id`,
		func(rows pgx.Rows) (Liability, error) {
			var l Liability
			err := rows.Scan(&l.ID, &l.Counterparty, &l.TotalAmount, &l.Currency, &l.Date, &l.IsInstallment, &l.StartDate, &l.NumberOfInstallments, &l.InflowAssetID, &l.CompletionDate, &l.CreatedAt, &l.UpdatedAt)
			return l, err
		})
	if err != nil {
		return nil, err
	}

	snap.Receivables, err = queryAll(ctx, r.pool, `
		SELECT id, counterparty, total_amount, currency, date, is_installment, start_date, number_of_installments, outflow_asset_id, completion_date, created_at, updated_at
		FROM receivables ORDER BY date, id`,
		func(rows pgx.Rows) (Receivable, error) {
			var v Receivable
			err := rows.Scan(&v.ID, &v.Counterparty, &v.TotalAmount, &v.Currency, &v.Date, &v.IsInstallment, &v.StartDate, &v.NumberOfInstallments, &v.OutflowAssetID, &v.CompletionDate, &v.CreatedAt, &v.UpdatedAt)
			return v, err
		})
	if err != nil {
		return nil, err
	}

	snap.DebtPayments, err = queryAll(ctx, r.pool, `
		SELECT id, liability_id, asset_id, amount, date, created_at, updated_at
		FROM debt_payments ORDER BY date, id`,
		func(rows pgx.Rows) (DebtPayment, error) {
			var p DebtPayment
			err := rows.Scan(&p.ID, &p.LiabilityID, &p.AssetID, &p.Amount, &p.Date, &p.CreatedAt, &p.UpdatedAt)
			return p, err
		})
	if err != nil {
		return nil, err
	}

	snap.ReceivablePayments, err = queryAll(ctx, r.pool, `
		SELECT id, receivable_id, asset_id, amount, date, created_at, updated_at
		FROM receivable_payments ORDER BY date, id`,
		func(rows pgx.Rows) (ReceivablePayment, error) {
			var p ReceivablePayment
			err := rows.Scan(&p.ID, &p.ReceivableID, &p.AssetID, &p.Amount, &p.Date, &p.CreatedAt, &p.UpdatedAt)
			return p, err
		})
	if err != nil {
		return nil, err
	}

	snap.PeriodLiabilities, err = queryAll(ctx, r.pool, `
		SELECT id, period, name, amount, currency, is_paid, asset_id, paid_date, created_at, updated_at
		FROM period_liabilities ORDER BY period, name, id`,
		func(rows pgx.Rows) (PeriodLiability, error) {
			var p PeriodLiability
			err := rows.Scan(&p.ID, &p.Period, &p.Name, &p.Amount, &p.Currency, &p.IsPaid, &p.AssetID, &p.PaidDate, &p.CreatedAt, &p.UpdatedAt)
			return p, err
		})
	if err != nil {
		return nil, err
	}

	snap.PeriodReceivables, err = queryAll(ctx, r.pool, `
		SELECT id, period, name, amount, currency, is_received, asset_id, received_date, created_at, updated_at
		FROM period_receivables ORDER BY period, name, id`,
		func(rows pgx.Rows) (PeriodReceivable, error) {
			var p PeriodReceivable
			err := rows.Scan(&p.ID, &p.Period, &p.Name, &p.Amount, &p.Currency, &p.IsReceived, &p.AssetID, &p.ReceivedDate, &p.CreatedAt, &p.UpdatedAt)
			return p, err
		})
	if err != nil {
		return nil, err
	}

	snap.CapitalInflows, err = queryAll(ctx, r.pool, `
		SELECT id, asset_id, amount, date, partner_id, external_investor, created_at, updated_at
		FROM capital_inflows ORDER BY date, id`,
		func(rows pgx.Rows) (CapitalInflow, error) {
			var c CapitalInflow
			err := rows.Scan(&c.ID, &c.AssetID, &c.Amount, &c.Date, &c.PartnerID, &c.ExternalInvestor, &c.CreatedAt, &c.UpdatedAt)
			return c, err
		})
	if err != nil {
		return nil, err
	}

	snap.Withdrawals, err = queryAll(ctx, r.pool, `
		SELECT id, asset_id, withdrawn_by, amount, date, note, created_at, updated_at
		FROM withdrawals ORDER BY date, id`,
		func(rows pgx.Rows) (Withdrawal, error) {
			var w Withdrawal
			err := rows.Scan(&w.ID, &w.AssetID, &w.WithdrawnBy, &w.Amount, &w.Date, &w.Note, &w.CreatedAt, &w.UpdatedAt)
			return w, err
		})
	if err != nil {
		return nil, err
	}

	snap.ExchangeLogs, err = queryAll(ctx, r.pool, `
		SELECT id, selling_asset_id, receiving_asset_id, date, usd_amount, rate, vnd_amount, created_at, updated_at
		FROM exchange_logs ORDER BY date, id`,
		func(rows pgx.Rows) (ExchangeLog, error) {
			var e ExchangeLog
			err := rows.Scan(&e.ID, &e.SellingAssetID, &e.ReceivingAssetID, &e.Date, &e.USDAmount, &e.Rate, &e.VNDAmount, &e.CreatedAt, &e.UpdatedAt)
			return e, err
		})
	if err != nil {
		return nil, err
	}

	snap.Savings, err = queryAll(ctx, r.pool, `
		SELECT id, asset_id, principal, start_date, maturity_date, interest_rate, status, matured_amount, matured_date, created_at, updated_at
		FROM savings ORDER BY start_date, id`,
		func(rows pgx.Rows) (Saving, error) {
			var s Saving
			err := rows.Scan(&s.ID, &s.AssetID, &s.Principal, &s.StartDate, &s.MaturityDate, &s.InterestRate, &s.Status, &s.MaturedAmount, &s.MaturedDate, &s.CreatedAt, &s.UpdatedAt)
			return s, err
		})
	if err != nil {
		return nil, err
	}

	snap.Investments, err = queryAll(ctx, r.pool, `
		SELECT id, asset_id, name, investment_amount, start_date, status, liquidation_amount, liquidation_date, created_at, updated_at
		FROM investments ORDER BY start_date, id`,
		func(rows pgx.Rows) (Investment, error) {
			var inv Investment
			err := rows.Scan(&inv.ID, &inv.AssetID, &inv.Name, &inv.InvestmentAmount, &inv.StartDate, &inv.Status, &inv.LiquidationAmount, &inv.LiquidationDate, &inv.CreatedAt, &inv.UpdatedAt)
			return inv, err
		})
	if err != nil {
		return nil, err
	}

	if err := r.loadTaxSettings(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func (r *Repository) attachProjectShares(ctx context.Context, snap *Snapshot) error {
	type ownedShare struct {
		owner uuid.UUID
		share PartnerShare
	}
	shares, err := queryAll(ctx, r.pool, `
		SELECT project_id, partner_id, share_percentage
		FROM project_partner_shares ORDER BY project_id, partner_id`,
		func(rows pgx.Rows) (ownedShare, error) {
			var s ownedShare
			err := rows.Scan(&s.owner, &s.share.PartnerID, &s.share.SharePercentage)
			return s, err
		})
	if err != nil {
		return err
	}
	byProject := map[uuid.UUID][]PartnerShare{}
	for _, s := range shares {
		byProject[s.owner] = append(byProject[s.owner], s.share)
	}
	for i := range snap.Projects {
		snap.Projects[i].PartnerShares = byProject[snap.Projects[i].ID]
	}
	return nil
}

func (r *Repository) attachExpenseShares(ctx context.Context, snap *Snapshot) error {
	type ownedShare struct {
		owner uuid.UUID
		share PartnerShare
	}
	shares, err := queryAll(ctx, r.pool, `
		SELECT expense_id, partner_id, share_percentage
		FROM misc_expense_shares ORDER BY expense_id, partner_id`,
		func(rows pgx.Rows) (ownedShare, error) {
			var s ownedShare
			err := rows.Scan(&s.owner, &s.share.PartnerID, &s.share.SharePercentage)
			return s, err
		})
	if err != nil {
		return err
	}
	byExpense := map[uuid.UUID][]PartnerShare{}
	for _, s := range shares {
		byExpense[s.owner] = append(byExpense[s.owner], s.share)
	}
	for i := range snap.MiscExpenses {
		snap.MiscExpenses[i].PartnerShares = byExpense[snap.MiscExpenses[i].ID]
	}
	return nil
}

func (r *Repository) loadTaxSettings(ctx context.Context, snap *Snapshot) error {
	row := r.pool.QueryRow(ctx, `
		SELECT method, revenue_rate, vat_rate, income_rate, revenue_basis, profit_basis, vat_basis, vat_input_method, manual_vat_input, tax_separation_amount, updated_at
		FROM tax_settings WHERE singleton`)
	t := &snap.TaxSettings
	err := row.Scan(&t.Method, &t.RevenueRate, &t.VATRate, &t.IncomeRate, &t.RevenueBasis,
		&t.ProfitBasis, &t.VATBasis, &t.VATInputMethod, &t.ManualVATInput, &t.TaxSeparationAmount, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// Defaults until the settings are first saved.
		snap.TaxSettings = TaxSettings{
			Method:         TaxMethodRevenue,
			RevenueBasis:   AllocationTotal,
			ProfitBasis:    AllocationTotal,
			VATBasis:       AllocationTotal,
			VATInputMethod: VATInputAutoSum,
		}
		return nil
	}
	return err
}

// ReplaceAll wipes the ledger and loads the given snapshot, used by the
// workspace import. Everything happens in one transaction so a bad import
// leaves the ledger untouched.
func (r *Repository) ReplaceAll(ctx context.Context, snap *Snapshot) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		// Children before parents.
		for _, table := range []string{
			"debt_payments", "receivable_payments", "project_partner_shares",
			"misc_expense_shares", "commissions", "ad_deposits", "ad_fund_transfers",
			"daily_ad_costs", "misc_expenses", "liabilities", "receivables",
			"period_liabilities", "period_receivables", "capital_inflows",
			"withdrawals", "exchange_logs", "savings", "investments",
			"projects", "partners", "assets", "tax_settings",
		} {
			if _, err := tx.Exec(ctx, `DELETE FROM `+table); err != nil {
				return mapPgError(err)
			}
		}

		for _, a := range snap.Assets {
			if _, err := tx.Exec(ctx, `
				INSERT INTO assets (id, name, type, currency, opening_balance, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				a.ID, a.Name, a.Type, a.Currency, a.OpeningBalance, a.CreatedAt, a.UpdatedAt); err != nil {
				return mapPgError(err)
			}
		}
		for _, p := range snap.Partners {
			if _, err := tx.Exec(ctx, `
				INSERT INTO partners (id, name, is_self, capital_baseline, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				p.ID, p.Name, p.IsSelf, p.CapitalBaseline, p.CreatedAt, p.UpdatedAt); err != nil {
				return mapPgError(err)
			}
		}
		for _, p := range snap.Projects {
			if _, err := tx.Exec(ctx, `
				INSERT INTO projects (id, name, period, is_partnership, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				p.ID, p.Name, p.Period, p.IsPartnership, p.CreatedAt, p.UpdatedAt); err != nil {
				return mapPgError(err)
			}
			if err := replaceShares(ctx, tx, "project_partner_shares", "project_id", p.ID, p.PartnerShares); err != nil {
				return err
			}
		}
		for _, c := range snap.Commissions {
			if _, err := tx.Exec(ctx, `
				INSERT INTO commissions (id, project_id, asset_id, date, usd_amount, predicted_rate, vnd_amount, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
				c.ID, c.ProjectID, c.AssetID, c.Date, c.USDAmount, c.PredictedRate, c.VNDAmount, c.CreatedAt, c.UpdatedAt); err != nil {
				return mapPgError(err)
			}
		}
		for _, d := range snap.AdDeposits {
			if _, err := tx.Exec(ctx, `
				INSERT INTO ad_deposits (id, ad_account_number, asset_id, date, usd_amount, rate, vnd_amount, status, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
				d.ID, d.AdAccountNumber, d.AssetID, d.Date, d.USDAmount, d.Rate, d.VNDAmount, d.Status, d.CreatedAt, d.UpdatedAt); err != nil {
				return mapPgError(err)
			}
		}
		for _, t := range snap.AdFundTransfers {
			if _, err := tx.Exec(ctx, `
				INSERT INTO ad_fund_transfers (id, from_ad_account_number, to_ad_account_number, date, usd_amount, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				t.ID, t.FromAdAccountNumber, t.ToAdAccountNumber, t.Date, t.USDAmount, t.CreatedAt, t.UpdatedAt); err != nil {
				return mapPgError(err)
			}
		}
		for _, c := range snap.DailyAdCosts {
			if _, err := tx.Exec(ctx, `
				INSERT INTO daily_ad_costs (id, project_id, ad_account_number, date, usd_amount, vat_rate, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				c.ID, c.ProjectID, c.AdAccountNumber, c.Date, c.USDAmount, c.VATRate, c.CreatedAt, c.UpdatedAt); err != nil {
				return mapPgError(err)
			}
		}
		for _, e := range snap.MiscExpenses {
			if _, err := tx.Exec(ctx, `
				INSERT INTO misc_expenses (id, asset_id, project_id, description, date, amount, rate, vnd_amount, vat_rate, is_partnership, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
				e.ID, e.AssetID, e.ProjectID, e.Description, e.Date, e.Amount, e.Rate, e.VNDAmount, e.VATRate, e.IsPartnership, e.CreatedAt, e.UpdatedAt); err != nil {
				return mapPgError(err)
			}
			if err := replaceShares(ctx, tx, "misc_expense_shares", "expense_id", e.ID, e.PartnerShares); err != nil {
				return err
			}
		}
		for _, l := range snap.Liabilities {
			if _, err := tx.Exec(ctx, `
				INSERT INTO liabilities (id, counterparty, total_amount, currency, date, is_installment, start_date, number_of_installments, inflow_asset_id, completion_date, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
				l.ID, l.Counterparty, l.TotalAmount, l.Currency, l.Date, l.IsInstallment, l.StartDate, l.NumberOfInstallments, l.InflowAssetID, l.CompletionDate, l.CreatedAt, l.UpdatedAt); err != nil {
				return mapPgError(err)
			}
		}
		for _, v := range snap.Receivables {
			if _, err := tx.Exec(ctx, `
				INSERT INTO receivables (id, counterparty, total_amount, currency, date, is_installment, start_date, number_of_installments, outflow_asset_id, completion_date, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
				v.ID, v.Counterparty, v.TotalAmount, v.Currency, v.Date, v.IsInstallment, v.StartDate, v.NumberOfInstallments, v.OutflowAssetID, v.CompletionDate, v.CreatedAt, v.UpdatedAt); err != nil {
				return mapPgError(err)
			}
		}
		for _, p := range snap.DebtPayments {
			if _, err := tx.Exec(ctx, `
				INSERT INTO debt_payments (id, liability_id, asset_id, amount, date, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				p.ID, p.LiabilityID, p.AssetID, p.Amount, p.Date, p.CreatedAt, p.UpdatedAt); err != nil {
				return mapPgError(err)
			}
		}
		for _, p := range snap.ReceivablePayments {
			if _, err := tx.Exec(ctx, `
				INSERT INTO receivable_payments (id, receivable_id, asset_id, amount, date, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				p.ID, p.ReceivableID, p.AssetID, p.Amount, p.Date, p.CreatedAt, p.UpdatedAt); err != nil {
				return mapPgError(err)
			}
		}
		for _, p := range snap.PeriodLiabilities {
			if _, err := tx.Exec(ctx, `
				INSERT INTO period_liabilities (id, period, name, amount, currency, is_paid, asset_id, paid_date, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
				p.ID, p.Period, p.Name, p.Amount, p.Currency, p.IsPaid, p.AssetID, p.PaidDate, p.CreatedAt, p.UpdatedAt); err != nil {
				return mapPgError(err)
			}
		}
		for _, p := range snap.PeriodReceivables {
			if _, err := tx.Exec(ctx, `
				INSERT INTO period_receivables (id, period, name, amount, currency, is_received, asset_id, received_date, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
				p.ID, p.Period, p.Name, p.Amount, p.Currency, p.IsReceived, p.AssetID, p.ReceivedDate, p.CreatedAt, p.UpdatedAt); err != nil {
				return mapPgError(err)
			}
		}
		for _, c := range snap.CapitalInflows {
			if _, err := tx.Exec(ctx, `
				INSERT INTO capital_inflows (id, asset_id, amount, date, partner_id, external_investor, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				c.ID, c.AssetID, c.Amount, c.Date, c.PartnerID, c.ExternalInvestor, c.CreatedAt, c.UpdatedAt); err != nil {
				return mapPgError(err)
			}
		}
		for _, w := range snap.Withdrawals {
			if _, err := tx.Exec(ctx, `
				INSERT INTO withdrawals (id, asset_id, withdrawn_by, amount, date, note, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				w.ID, w.AssetID, w.WithdrawnBy, w.Amount, w.Date, w.Note, w.CreatedAt, w.UpdatedAt); err != nil {
				return mapPgError(err)
			}
		}
		for _, e := range snap.ExchangeLogs {
			if _, err := tx.Exec(ctx, `
				INSERT INTO exchange_logs (id, selling_asset_id, receiving_asset_id, date, usd_amount, rate, vnd_amount, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
				e.ID, e.SellingAssetID, e.ReceivingAssetID, e.Date, e.USDAmount, e.Rate, e.VNDAmount, e.CreatedAt, e.UpdatedAt); err != nil {
				return mapPgError(err)
			}
		}
		for _, s := range snap.Savings {
			if _, err := tx.Exec(ctx, `
				INSERT INTO savings (id, asset_id, principal, start_date, maturity_date, interest_rate, status, matured_amount, matured_date, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
				s.ID, s.AssetID, s.Principal, s.StartDate, s.MaturityDate, s.InterestRate, s.Status, s.MaturedAmount, s.MaturedDate, s.CreatedAt, s.UpdatedAt); err != nil {
				return mapPgError(err)
			}
		}
		for _, inv := range snap.Investments {
			if _, err := tx.Exec(ctx, `
				INSERT INTO investments (id, asset_id, name, investment_amount, start_date, status, liquidation_amount, liquidation_date, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
				inv.ID, inv.AssetID, inv.Name, inv.InvestmentAmount, inv.StartDate, inv.Status, inv.LiquidationAmount, inv.LiquidationDate, inv.CreatedAt, inv.UpdatedAt); err != nil {
				return mapPgError(err)
			}
		}

		t := snap.TaxSettings
		if _, err := tx.Exec(ctx, `
			INSERT INTO tax_settings (singleton, method, revenue_rate, vat_rate, income_rate, revenue_basis, profit_basis, vat_basis, vat_input_method, manual_vat_input, tax_separation_amount, updated_at)
			VALUES (TRUE, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())`,
			t.Method, t.RevenueRate, t.VATRate, t.IncomeRate, t.RevenueBasis, t.ProfitBasis,
			t.VATBasis, t.VATInputMethod, t.ManualVATInput, t.TaxSeparationAmount); err != nil {
			return mapPgError(err)
		}
		return nil
	})
}
