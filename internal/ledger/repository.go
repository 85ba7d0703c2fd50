package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sobook-erp/sobook/internal/platform/db"
	"github.com/sobook-erp/sobook/internal/platform/httpx"
)

// Repository persists ledger records in Postgres. Writes are upserts keyed
// by id; the service layer owns id assignment and business rules.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository using the provided pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// mapPgError converts constraint failures into domain errors. Unique
// violations (the single-self partner index) surface as duplicates so a
// racing write conflicts instead of 500ing.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23503": // foreign_key_violation
			return fmt.Errorf("%w: %s", ErrNotFound, pgErr.ConstraintName)
		case "23505": // unique_violation
			return fmt.Errorf("%w: %s", httpx.ErrDuplicate, pgErr.ConstraintName)
		case "23514": // check_violation
			return fmt.Errorf("ledger: constraint %s: %w", pgErr.ConstraintName, err)
		}
	}
	return err
}

func (r *Repository) exec(ctx context.Context, sql string, args ...any) error {
	if _, err := r.pool.Exec(ctx, sql, args...); err != nil {
		return mapPgError(err)
	}
	return nil
}

func (r *Repository) deleteByID(ctx context.Context, table string, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) SaveAsset(ctx context.Context, a Asset) error {
	return r.exec(ctx, `
		INSERT INTO assets (id, name, type, currency, opening_balance, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, type = EXCLUDED.type, currency = EXCLUDED.currency,
			opening_balance = EXCLUDED.opening_balance, updated_at = now()`,
		a.ID, a.Name, a.Type, a.Currency, a.OpeningBalance)
}

func (r *Repository) DeleteAsset(ctx context.Context, id uuid.UUID) error {
	return r.deleteByID(ctx, "assets", id)
}

func (r *Repository) SavePartner(ctx context.Context, p Partner) error {
	return r.exec(ctx, `
		INSERT INTO partners (id, name, is_self, capital_baseline, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, is_self = EXCLUDED.is_self,
			capital_baseline = EXCLUDED.capital_baseline, updated_at = now()`,
		p.ID, p.Name, p.IsSelf, p.CapitalBaseline)
}

func (r *Repository) DeletePartner(ctx context.Context, id uuid.UUID) error {
	return r.deleteByID(ctx, "partners", id)
}

func (r *Repository) SaveProject(ctx context.Context, p Project) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO projects (id, name, period, is_partnership, updated_at)
			VALUES ($1, $2, $3, $4, now())
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name, period = EXCLUDED.period,
				is_partnership = EXCLUDED.is_partnership, updated_at = now()`,
			p.ID, p.Name, p.Period, p.IsPartnership); err != nil {
			return mapPgError(err)
		}
		return replaceShares(ctx, tx, "project_partner_shares", "project_id", p.ID, p.PartnerShares)
	})
}

func (r *Repository) DeleteProject(ctx context.Context, id uuid.UUID) error {
	return r.deleteByID(ctx, "projects", id)
}

func replaceShares(ctx context.Context, tx pgx.Tx, table, ownerColumn string, owner uuid.UUID, shares []PartnerShare) error {
	if _, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE `+ownerColumn+` = $1`, owner); err != nil {
		return mapPgError(err)
	}
	for _, s := range shares {
		if _, err := tx.Exec(ctx,
			`INSERT INTO `+table+` (`+ownerColumn+`, partner_id, share_percentage) VALUES ($1, $2, $3)`,
			owner, s.PartnerID, s.SharePercentage); err != nil {
			return mapPgError(err)
		}
	}
	return nil
}

func (r *Repository) SaveCommission(ctx context.Context, c Commission) error {
	return r.exec(ctx, `
		INSERT INTO commissions (id, project_id, asset_id, date, usd_amount, predicted_rate, vnd_amount, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (id) DO UPDATE SET
			project_id = EXCLUDED.project_id, asset_id = EXCLUDED.asset_id, date = EXCLUDED.date,
			usd_amount = EXCLUDED.usd_amount, predicted_rate = EXCLUDED.predicted_rate,
			vnd_amount = EXCLUDED.vnd_amount, updated_at = now()`,
		c.ID, c.ProjectID, c.AssetID, c.Date, c.USDAmount, c.PredictedRate, c.VNDAmount)
}

func (r *Repository) DeleteCommission(ctx context.Context, id uuid.UUID) error {
	return r.deleteByID(ctx, "commissions", id)
}

func (r *Repository) SaveAdDeposit(ctx context.Context, d AdDeposit) error {
	return r.exec(ctx, `
		INSERT INTO ad_deposits (id, ad_account_number, asset_id, date, usd_amount, rate, vnd_amount, status, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (id) DO UPDATE SET
			ad_account_number = EXCLUDED.ad_account_number, asset_id = EXCLUDED.asset_id,
			date = EXCLUDED.date, usd_amount = EXCLUDED.usd_amount, rate = EXCLUDED.rate,
			vnd_amount = EXCLUDED.vnd_amount, status = EXCLUDED.status, updated_at = now()`,
		d.ID, d.AdAccountNumber, d.AssetID, d.Date, d.USDAmount, d.Rate, d.VNDAmount, d.Status)
}

func (r *Repository) DeleteAdDeposit(ctx context.Context, id uuid.UUID) error {
	return r.deleteByID(ctx, "ad_deposits", id)
}

func (r *Repository) SaveAdFundTransfer(ctx context.Context, t AdFundTransfer) error {
	return r.exec(ctx, `
		INSERT INTO ad_fund_transfers (id, from_ad_account_number, to_ad_account_number, date, usd_amount, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (id) DO UPDATE SET
			from_ad_account_number = EXCLUDED.from_ad_account_number,
			to_ad_account_number = EXCLUDED.to_ad_account_number,
			date = EXCLUDED.date, usd_amount = EXCLUDED.usd_amount, updated_at = now()`,
		t.ID, t.FromAdAccountNumber, t.ToAdAccountNumber, t.Date, t.USDAmount)
}

func (r *Repository) DeleteAdFundTransfer(ctx context.Context, id uuid.UUID) error {
	return r.deleteByID(ctx, "ad_fund_transfers", id)
}

func (r *Repository) SaveDailyAdCost(ctx context.Context, c DailyAdCost) error {
	return r.exec(ctx, `
		INSERT INTO daily_ad_costs (id, project_id, ad_account_number, date, usd_amount, vat_rate, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (id) DO UPDATE SET
			project_id = EXCLUDED.project_id, ad_account_number = EXCLUDED.ad_account_number,
			date = EXCLUDED.date, usd_amount = EXCLUDED.usd_amount,
			vat_rate = EXCLUDED.vat_rate, updated_at = now()`,
		c.ID, c.ProjectID, c.AdAccountNumber, c.Date, c.USDAmount, c.VATRate)
}

func (r *Repository) DeleteDailyAdCost(ctx context.Context, id uuid.UUID) error {
	return r.deleteByID(ctx, "daily_ad_costs", id)
}

func (r *Repository) SaveMiscExpense(ctx context.Context, e MiscellaneousExpense) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO misc_expenses (id, asset_id, project_id, description, date, amount, rate, vnd_amount, vat_rate, is_partnership, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
			ON CONFLICT (id) DO UPDATE SET
				asset_id = EXCLUDED.asset_id, project_id = EXCLUDED.project_id,
				description = EXCLUDED.description, date = EXCLUDED.date,
				amount = EXCLUDED.amount, rate = EXCLUDED.rate, vnd_amount = EXCLUDED.vnd_amount,
				vat_rate = EXCLUDED.vat_rate, is_partnership = EXCLUDED.is_partnership, updated_at = now()`,
			e.ID, e.AssetID, e.ProjectID, e.Description, e.Date, e.Amount, e.Rate, e.VNDAmount, e.VATRate, e.IsPartnership); err != nil {
			return mapPgError(err)
		}
		return replaceShares(ctx, tx, "misc_expense_shares", "expense_id", e.ID, e.PartnerShares)
	})
}

func (r *Repository) DeleteMiscExpense(ctx context.Context, id uuid.UUID) error {
	return r.deleteByID(ctx, "misc_expenses", id)
}

func (r *Repository) SaveLiability(ctx context.Context, l Liability) error {
	return r.exec(ctx, `
		INSERT INTO liabilities (id, counterparty, total_amount, currency, date, is_installment, start_date, number_of_installments, inflow_asset_id, completion_date, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
		ON CONFLICT (id) DO UPDATE SET
			counterparty = EXCLUDED.counterparty, total_amount = EXCLUDED.total_amount,
			currency = EXCLUDED.currency, date = EXCLUDED.date,
			is_installment = EXCLUDED.is_installment, start_date = EXCLUDED.start_date,
			number_of_installments = EXCLUDED.number_of_installments,
			inflow_asset_id = EXCLUDED.inflow_asset_id,
			completion_date = EXCLUDED.completion_date, updated_at = now()`,
		l.ID, l.Counterparty, l.TotalAmount, l.Currency, l.Date, l.IsInstallment,
		l.StartDate, l.NumberOfInstallments, l.InflowAssetID, l.CompletionDate)
}

func (r *Repository) DeleteLiability(ctx context.Context, id uuid.UUID) error {
	return r.deleteByID(ctx, "liabilities", id)
}

func (r *Repository) SaveReceivable(ctx context.Context, v Receivable) error {
	return r.exec(ctx, `
		INSERT INTO receivables (id, counterparty, total_amount, currency, date, is_installment, start_date, number_of_installments, outflow_asset_id, completion_date, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
		ON CONFLICT (id) DO UPDATE SET
			counterparty = EXCLUDED.counterparty, total_amount = EXCLUDED.total_amount,
			currency = EXCLUDED.currency, date = EXCLUDED.date,
			is_installment = EXCLUDED.is_installment, start_date = EXCLUDED.start_date,
			number_of_installments = EXCLUDED.number_of_installments,
			outflow_asset_id = EXCLUDED.outflow_asset_id,
			completion_date = EXCLUDED.completion_date, updated_at = now()`,
		v.ID, v.Counterparty, v.TotalAmount, v.Currency, v.Date, v.IsInstallment,
		v.StartDate, v.NumberOfInstallments, v.OutflowAssetID, v.CompletionDate)
}

func (r *Repository) DeleteReceivable(ctx context.Context, id uuid.UUID) error {
	return r.deleteByID(ctx, "receivables", id)
}

func (r *Repository) SaveDebtPayment(ctx context.Context, p DebtPayment) error {
	return r.exec(ctx, `
		INSERT INTO debt_payments (id, liability_id, asset_id, amount, date, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (id) DO UPDATE SET
			liability_id = EXCLUDED.liability_id, asset_id = EXCLUDED.asset_id,
			amount = EXCLUDED.amount, date = EXCLUDED.date, updated_at = now()`,
		p.ID, p.LiabilityID, p.AssetID, p.Amount, p.Date)
}

func (r *Repository) DeleteDebtPayment(ctx context.Context, id uuid.UUID) error {
	return r.deleteByID(ctx, "debt_payments", id)
}

func (r *Repository) SaveReceivablePayment(ctx context.Context, p ReceivablePayment) error {
	return r.exec(ctx, `
		INSERT INTO receivable_payments (id, receivable_id, asset_id, amount, date, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (id) DO UPDATE SET
			receivable_id = EXCLUDED.receivable_id, asset_id = EXCLUDED.asset_id,
			amount = EXCLUDED.amount, date = EXCLUDED.date, updated_at = now()`,
		p.ID, p.ReceivableID, p.AssetID, p.Amount, p.Date)
}

func (r *Repository) DeleteReceivablePayment(ctx context.Context, id uuid.UUID) error {
	return r.deleteByID(ctx, "receivable_payments", id)
}

func (r *Repository) SavePeriodLiability(ctx context.Context, p PeriodLiability) error {
	return r.exec(ctx, `
		INSERT INTO period_liabilities (id, period, name, amount, currency, is_paid, asset_id, paid_date, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (id) DO UPDATE SET
			period = EXCLUDED.period, name = EXCLUDED.name, amount = EXCLUDED.amount,
			currency = EXCLUDED.currency, is_paid = EXCLUDED.is_paid,
			asset_id = EXCLUDED.asset_id, paid_date = EXCLUDED.paid_date, updated_at = now()`,
		p.ID, p.Period, p.Name, p.Amount, p.Currency, p.IsPaid, p.AssetID, p.PaidDate)
}

func (r *Repository) DeletePeriodLiability(ctx context.Context, id uuid.UUID) error {
	return r.deleteByID(ctx, "period_liabilities", id)
}

func (r *Repository) SavePeriodReceivable(ctx context.Context, p PeriodReceivable) error {
	return r.exec(ctx, `
		INSERT INTO period_receivables (id, period, name, amount, currency, is_received, asset_id, received_date, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (id) DO UPDATE SET
			period = EXCLUDED.period, name = EXCLUDED.name, amount = EXCLUDED.amount,
			currency = EXCLUDED.currency, is_received = EXCLUDED.is_received,
			asset_id = EXCLUDED.asset_id, received_date = EXCLUDED.received_date, updated_at = now()`,
		p.ID, p.Period, p.Name, p.Amount, p.Currency, p.IsReceived, p.AssetID, p.ReceivedDate)
}

func (r *Repository) DeletePeriodReceivable(ctx context.Context, id uuid.UUID) error {
	return r.deleteByID(ctx, "period_receivables", id)
}

func (r *Repository) SaveCapitalInflow(ctx context.Context, c CapitalInflow) error {
	return r.exec(ctx, `
		INSERT INTO capital_inflows (id, asset_id, amount, date, partner_id, external_investor, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (id) DO UPDATE SET
			asset_id = EXCLUDED.asset_id, amount = EXCLUDED.amount, date = EXCLUDED.date,
			partner_id = EXCLUDED.partner_id, external_investor = EXCLUDED.external_investor,
			updated_at = now()`,
		c.ID, c.AssetID, c.Amount, c.Date, c.PartnerID, c.ExternalInvestor)
}

func (r *Repository) DeleteCapitalInflow(ctx context.Context, id uuid.UUID) error {
	return r.deleteByID(ctx, "capital_inflows", id)
}

func (r *Repository) SaveWithdrawal(ctx context.Context, w Withdrawal) error {
	return r.exec(ctx, `
		INSERT INTO withdrawals (id, asset_id, withdrawn_by, amount, date, note, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (id) DO UPDATE SET
			asset_id = EXCLUDED.asset_id, withdrawn_by = EXCLUDED.withdrawn_by,
			amount = EXCLUDED.amount, date = EXCLUDED.date, note = EXCLUDED.note,
			updated_at = now()`,
		w.ID, w.AssetID, w.WithdrawnBy, w.Amount, w.Date, w.Note)
}

func (r *Repository) DeleteWithdrawal(ctx context.Context, id uuid.UUID) error {
	return r.deleteByID(ctx, "withdrawals", id)
}

func (r *Repository) SaveExchangeLog(ctx context.Context, e ExchangeLog) error {
	return r.exec(ctx, `
		INSERT INTO exchange_logs (id, selling_asset_id, receiving_asset_id, date, usd_amount, rate, vnd_amount, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (id) DO UPDATE SET
			selling_asset_id = EXCLUDED.selling_asset_id,
			receiving_asset_id = EXCLUDED.receiving_asset_id, date = EXCLUDED.date,
			usd_amount = EXCLUDED.usd_amount, rate = EXCLUDED.rate,
			vnd_amount = EXCLUDED.vnd_amount, updated_at = now()`,
		e.ID, e.SellingAssetID, e.ReceivingAssetID, e.Date, e.USDAmount, e.Rate, e.VNDAmount)
}

func (r *Repository) DeleteExchangeLog(ctx context.Context, id uuid.UUID) error {
	return r.deleteByID(ctx, "exchange_logs", id)
}

func (r *Repository) SaveSaving(ctx context.Context, s Saving) error {
	return r.exec(ctx, `
		INSERT INTO savings (id, asset_id, principal, start_date, maturity_date, interest_rate, status, matured_amount, matured_date, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		ON CONFLICT (id) DO UPDATE SET
			asset_id = EXCLUDED.asset_id, principal = EXCLUDED.principal,
			start_date = EXCLUDED.start_date, maturity_date = EXCLUDED.maturity_date,
			interest_rate = EXCLUDED.interest_rate, status = EXCLUDED.status,
			matured_amount = EXCLUDED.matured_amount, matured_date = EXCLUDED.matured_date,
			updated_at = now()`,
		s.ID, s.AssetID, s.Principal, s.StartDate, s.MaturityDate, s.InterestRate, s.Status, s.MaturedAmount, s.MaturedDate)
}

func (r *Repository) DeleteSaving(ctx context.Context, id uuid.UUID) error {
	return r.deleteByID(ctx, "savings", id)
}

func (r *Repository) SaveInvestment(ctx context.Context, inv Investment) error {
	return r.exec(ctx, `
		INSERT INTO investments (id, asset_id, name, investment_amount, start_date, status, liquidation_amount, liquidation_date, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (id) DO UPDATE SET
			asset_id = EXCLUDED.asset_id, name = EXCLUDED.name,
			investment_amount = EXCLUDED.investment_amount, start_date = EXCLUDED.start_date,
			status = EXCLUDED.status, liquidation_amount = EXCLUDED.liquidation_amount,
			liquidation_date = EXCLUDED.liquidation_date, updated_at = now()`,
		inv.ID, inv.AssetID, inv.Name, inv.InvestmentAmount, inv.StartDate, inv.Status, inv.LiquidationAmount, inv.LiquidationDate)
}

func (r *Repository) DeleteInvestment(ctx context.Context, id uuid.UUID) error {
	return r.deleteByID(ctx, "investments", id)
}

func (r *Repository) SaveTaxSettings(ctx context.Context, t TaxSettings) error {
	return r.exec(ctx, `
		INSERT INTO tax_settings (singleton, method, revenue_rate, vat_rate, income_rate, revenue_basis, profit_basis, vat_basis, vat_input_method, manual_vat_input, tax_separation_amount, updated_at)
		VALUES (TRUE, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
		ON CONFLICT (singleton) DO UPDATE SET
			method = EXCLUDED.method, revenue_rate = EXCLUDED.revenue_rate,
			vat_rate = EXCLUDED.vat_rate, income_rate = EXCLUDED.income_rate,
			revenue_basis = EXCLUDED.revenue_basis, profit_basis = EXCLUDED.profit_basis,
			vat_basis = EXCLUDED.vat_basis, vat_input_method = EXCLUDED.vat_input_method,
			manual_vat_input = EXCLUDED.manual_vat_input,
			tax_separation_amount = EXCLUDED.tax_separation_amount, updated_at = now()`,
		t.Method, t.RevenueRate, t.VATRate, t.IncomeRate, t.RevenueBasis, t.ProfitBasis,
		t.VATBasis, t.VATInputMethod, t.ManualVATInput, t.TaxSeparationAmount)
}
