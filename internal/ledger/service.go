package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sobook-erp/sobook/internal/money"
)

// RepositoryPort abstracts ledger persistence so the service can be tested
// against an in-memory fake.
type RepositoryPort interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
	ReplaceAll(ctx context.Context, snap *Snapshot) error

	SaveAsset(ctx context.Context, a Asset) error
	DeleteAsset(ctx context.Context, id uuid.UUID) error
	SavePartner(ctx context.Context, p Partner) error
	DeletePartner(ctx context.Context, id uuid.UUID) error
	SaveProject(ctx context.Context, p Project) error
	DeleteProject(ctx context.Context, id uuid.UUID) error
	SaveCommission(ctx context.Context, c Commission) error
	DeleteCommission(ctx context.Context, id uuid.UUID) error
	SaveAdDeposit(ctx context.Context, d AdDeposit) error
	DeleteAdDeposit(ctx context.Context, id uuid.UUID) error
	SaveAdFundTransfer(ctx context.Context, t AdFundTransfer) error
	DeleteAdFundTransfer(ctx context.Context, id uuid.UUID) error
	SaveDailyAdCost(ctx context.Context, c DailyAdCost) error
	DeleteDailyAdCost(ctx context.Context, id uuid.UUID) error
	SaveMiscExpense(ctx context.Context, e MiscellaneousExpense) error
	DeleteMiscExpense(ctx context.Context, id uuid.UUID) error
	SaveLiability(ctx context.Context, l Liability) error
	DeleteLiability(ctx context.Context, id uuid.UUID) error
	SaveReceivable(ctx context.Context, v Receivable) error
	DeleteReceivable(ctx context.Context, id uuid.UUID) error
	SaveDebtPayment(ctx context.Context, p DebtPayment) error
	DeleteDebtPayment(ctx context.Context, id uuid.UUID) error
	SaveReceivablePayment(ctx context.Context, p ReceivablePayment) error
	DeleteReceivablePayment(ctx context.Context, id uuid.UUID) error
	SavePeriodLiability(ctx context.Context, p PeriodLiability) error
	DeletePeriodLiability(ctx context.Context, id uuid.UUID) error
	SavePeriodReceivable(ctx context.Context, p PeriodReceivable) error
	DeletePeriodReceivable(ctx context.Context, id uuid.UUID) error
	SaveCapitalInflow(ctx context.Context, c CapitalInflow) error
	DeleteCapitalInflow(ctx context.Context, id uuid.UUID) error
	SaveWithdrawal(ctx context.Context, w Withdrawal) error
	DeleteWithdrawal(ctx context.Context, id uuid.UUID) error
	SaveExchangeLog(ctx context.Context, e ExchangeLog) error
	DeleteExchangeLog(ctx context.Context, id uuid.UUID) error
	SaveSaving(ctx context.Context, s Saving) error
	DeleteSaving(ctx context.Context, id uuid.UUID) error
	SaveInvestment(ctx context.Context, inv Investment) error
	DeleteInvestment(ctx context.Context, id uuid.UUID) error
	SaveTaxSettings(ctx context.Context, t TaxSettings) error
}

// PeriodGate decides whether a dated mutation is allowed. Writes only land
// inside the currently active period.
type PeriodGate interface {
	EnsureWritable(ctx context.Context, date time.Time) error
}

// ReportInvalidator drops memoized reports after a ledger write.
type ReportInvalidator interface {
	InvalidateCache(ctx context.Context, period string)
}

// BalanceRules exposes the derived balances the write rules depend on. The
// resolver lives downstream of this package, so it arrives by injection.
type BalanceRules interface {
	Balance(snap *Snapshot, assetID uuid.UUID) (decimal.Decimal, error)
	AvailableShare(snap *Snapshot, assetID, partnerID uuid.UUID) (decimal.Decimal, error)
}

// Service owns all ledger mutations: id assignment, derived VND amounts,
// business rules and the period write lock.
type Service struct {
	repo        RepositoryPort
	gate        PeriodGate
	invalidator ReportInvalidator
	rules       BalanceRules
	logger      *slog.Logger
	now         func() time.Time
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// WithPeriodGate wires the period lifecycle check.
func (s *Service) WithPeriodGate(gate PeriodGate) *Service {
	s.gate = gate
	return s
}

// WithInvalidator wires report cache invalidation.
func (s *Service) WithInvalidator(inv ReportInvalidator) *Service {
	s.invalidator = inv
	return s
}

// WithBalanceRules wires the balance resolver used by withdrawal and
// exchange checks.
func (s *Service) WithBalanceRules(rules BalanceRules) *Service {
	s.rules = rules
	return s
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// Snapshot loads the full ledger read model.
func (s *Service) Snapshot(ctx context.Context) (*Snapshot, error) {
	return s.repo.Snapshot(ctx)
}

func (s *Service) ensureWritable(ctx context.Context, dates ...time.Time) error {
	if s.gate == nil {
		return nil
	}
	for _, d := range dates {
		if err := s.gate.EnsureWritable(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) invalidate(ctx context.Context, dates ...time.Time) {
	if s.invalidator == nil {
		return
	}
	seen := map[string]bool{}
	for _, d := range dates {
		period := PeriodOf(d)
		if !seen[period] {
			seen[period] = true
			s.invalidator.InvalidateCache(ctx, period)
		}
	}
}

func assignID(id uuid.UUID) uuid.UUID {
	if id == uuid.Nil {
		return uuid.New()
	}
	return id
}

// --- Master data ---

// SaveAsset creates or updates an asset. Master data carries no date, so it
// is not period gated.
func (s *Service) SaveAsset(ctx context.Context, a Asset) (Asset, error) {
	if a.Name == "" {
		return Asset{}, fmt.Errorf("%w: asset name required", ErrInvalidInput)
	}
	if !a.Currency.Valid() {
		return Asset{}, fmt.Errorf("%w: unsupported currency %q", ErrInvalidInput, a.Currency)
	}
	a.ID = assignID(a.ID)
	if err := s.repo.SaveAsset(ctx, a); err != nil {
		return Asset{}, err
	}
	return a, nil
}

// DeleteAsset removes an asset. Referencing transactions block the delete at
// the storage layer.
func (s *Service) DeleteAsset(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteAsset(ctx, id)
}

// SavePartner creates or updates a partner. At most one partner carries the
// self flag.
func (s *Service) SavePartner(ctx context.Context, p Partner) (Partner, error) {
	if p.Name == "" {
		return Partner{}, fmt.Errorf("%w: partner name required", ErrInvalidInput)
	}
	if p.IsSelf {
		snap, err := s.repo.Snapshot(ctx)
		if err != nil {
			return Partner{}, err
		}
		if existing, ok := snap.SelfPartner(); ok && existing.ID != p.ID {
			return Partner{}, fmt.Errorf("%w: %s already holds the self flag", ErrInvalidInput, existing.Name)
		}
	}
	p.ID = assignID(p.ID)
	if err := s.repo.SavePartner(ctx, p); err != nil {
		return Partner{}, err
	}
	return p, nil
}

func (s *Service) DeletePartner(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeletePartner(ctx, id)
}

// SaveProject creates or updates a project. Partnership projects must carry
// shares summing to exactly 100.
func (s *Service) SaveProject(ctx context.Context, p Project) (Project, error) {
	if p.Name == "" {
		return Project{}, fmt.Errorf("%w: project name required", ErrInvalidInput)
	}
	if _, err := ParsePeriod(p.Period); err != nil {
		return Project{}, err
	}
	if p.IsPartnership {
		if err := ValidateShares(p.PartnerShares); err != nil {
			return Project{}, err
		}
	} else {
		p.PartnerShares = nil
	}
	p.ID = assignID(p.ID)
	if err := s.repo.SaveProject(ctx, p); err != nil {
		return Project{}, err
	}
	return p, nil
}

func (s *Service) DeleteProject(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteProject(ctx, id)
}

// TaxSettings returns the workspace tax configuration.
func (s *Service) TaxSettings(ctx context.Context) (TaxSettings, error) {
	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return TaxSettings{}, err
	}
	return snap.TaxSettings, nil
}

// UpdateTaxSettings replaces the tax configuration singleton.
func (s *Service) UpdateTaxSettings(ctx context.Context, t TaxSettings) error {
	switch t.Method {
	case TaxMethodRevenue, TaxMethodProfitVAT:
	default:
		return fmt.Errorf("%w: unknown tax method %q", ErrInvalidInput, t.Method)
	}
	if err := s.repo.SaveTaxSettings(ctx, t); err != nil {
		return err
	}
	// Tax settings feed every open report.
	if s.invalidator != nil {
		s.invalidator.InvalidateCache(ctx, PeriodOf(s.now()))
	}
	return nil
}

// --- Revenue and advertising ---

// SaveCommission books revenue. The VND amount is derived from the predicted
// rate at save time and never silently recomputed afterwards.
func (s *Service) SaveCommission(ctx context.Context, c Commission) (Commission, error) {
	if err := s.ensureWritable(ctx, c.Date); err != nil {
		return Commission{}, err
	}
	if !c.USDAmount.IsPositive() || !c.PredictedRate.IsPositive() {
		return Commission{}, fmt.Errorf("%w: commission needs positive amount and rate", ErrInvalidInput)
	}
	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return Commission{}, err
	}
	if _, ok := snap.Project(c.ProjectID); !ok {
		return Commission{}, fmt.Errorf("%w: project %s", ErrNotFound, c.ProjectID)
	}
	if _, ok := snap.Asset(c.AssetID); !ok {
		return Commission{}, fmt.Errorf("%w: asset %s", ErrNotFound, c.AssetID)
	}
	c.ID = assignID(c.ID)
	c.VNDAmount = money.Convert(c.USDAmount, c.PredictedRate)
	if err := s.repo.SaveCommission(ctx, c); err != nil {
		return Commission{}, err
	}
	s.invalidate(ctx, c.Date)
	return c, nil
}

func (s *Service) DeleteCommission(ctx context.Context, id uuid.UUID) error {
	return s.deleteDated(ctx, id, func(snap *Snapshot) (time.Time, bool) {
		for _, c := range snap.Commissions {
			if c.ID == id {
				return c.Date, true
			}
		}
		return time.Time{}, false
	}, s.repo.DeleteCommission)
}

// SaveAdDeposit funds an ad account from an asset at an explicit rate.
func (s *Service) SaveAdDeposit(ctx context.Context, d AdDeposit) (AdDeposit, error) {
	if err := s.ensureWritable(ctx, d.Date); err != nil {
		return AdDeposit{}, err
	}
	if d.AdAccountNumber == "" {
		return AdDeposit{}, fmt.Errorf("%w: ad account required", ErrInvalidInput)
	}
	if !d.USDAmount.IsPositive() || !d.Rate.IsPositive() {
		return AdDeposit{}, fmt.Errorf("%w: deposit needs positive amount and rate", ErrInvalidInput)
	}
	if d.Status == "" {
		d.Status = AdDepositStatusActive
	}
	d.ID = assignID(d.ID)
	d.VNDAmount = money.Convert(d.USDAmount, d.Rate)
	if err := s.repo.SaveAdDeposit(ctx, d); err != nil {
		return AdDeposit{}, err
	}
	s.invalidate(ctx, d.Date)
	return d, nil
}

func (s *Service) DeleteAdDeposit(ctx context.Context, id uuid.UUID) error {
	return s.deleteDated(ctx, id, func(snap *Snapshot) (time.Time, bool) {
		for _, d := range snap.AdDeposits {
			if d.ID == id {
				return d.Date, true
			}
		}
		return time.Time{}, false
	}, s.repo.DeleteAdDeposit)
}

// SaveAdFundTransfer moves budget between two distinct ad accounts.
func (s *Service) SaveAdFundTransfer(ctx context.Context, t AdFundTransfer) (AdFundTransfer, error) {
	if err := s.ensureWritable(ctx, t.Date); err != nil {
		return AdFundTransfer{}, err
	}
	if t.FromAdAccountNumber == t.ToAdAccountNumber {
		return AdFundTransfer{}, ErrSelfTransfer
	}
	if !t.USDAmount.IsPositive() {
		return AdFundTransfer{}, fmt.Errorf("%w: transfer amount must be positive", ErrInvalidInput)
	}
	t.ID = assignID(t.ID)
	if err := s.repo.SaveAdFundTransfer(ctx, t); err != nil {
		return AdFundTransfer{}, err
	}
	s.invalidate(ctx, t.Date)
	return t, nil
}

func (s *Service) DeleteAdFundTransfer(ctx context.Context, id uuid.UUID) error {
	return s.deleteDated(ctx, id, func(snap *Snapshot) (time.Time, bool) {
		for _, t := range snap.AdFundTransfers {
			if t.ID == id {
				return t.Date, true
			}
		}
		return time.Time{}, false
	}, s.repo.DeleteAdFundTransfer)
}

// SaveDailyAdCost records spend against an ad account. The cost carries no
// rate; conversion resolves against the account's deposits at report time.
func (s *Service) SaveDailyAdCost(ctx context.Context, c DailyAdCost) (DailyAdCost, error) {
	if err := s.ensureWritable(ctx, c.Date); err != nil {
		return DailyAdCost{}, err
	}
	if !c.USDAmount.IsPositive() {
		return DailyAdCost{}, fmt.Errorf("%w: ad cost must be positive", ErrInvalidInput)
	}
	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return DailyAdCost{}, err
	}
	if _, ok := snap.Project(c.ProjectID); !ok {
		return DailyAdCost{}, fmt.Errorf("%w: project %s", ErrNotFound, c.ProjectID)
	}
	c.ID = assignID(c.ID)
	if err := s.repo.SaveDailyAdCost(ctx, c); err != nil {
		return DailyAdCost{}, err
	}
	s.invalidate(ctx, c.Date)
	return c, nil
}

func (s *Service) DeleteDailyAdCost(ctx context.Context, id uuid.UUID) error {
	return s.deleteDated(ctx, id, func(snap *Snapshot) (time.Time, bool) {
		for _, c := range snap.DailyAdCosts {
			if c.ID == id {
				return c.Date, true
			}
		}
		return time.Time{}, false
	}, s.repo.DeleteDailyAdCost)
}

// SaveMiscExpense records a cost line. Expenses may carry their own split,
// fall back to a project's split or default to the self partner.
func (s *Service) SaveMiscExpense(ctx context.Context, e MiscellaneousExpense) (MiscellaneousExpense, error) {
	if err := s.ensureWritable(ctx, e.Date); err != nil {
		return MiscellaneousExpense{}, err
	}
	if !e.Amount.IsPositive() {
		return MiscellaneousExpense{}, fmt.Errorf("%w: expense amount must be positive", ErrInvalidInput)
	}
	if e.IsPartnership {
		if err := ValidateShares(e.PartnerShares); err != nil {
			return MiscellaneousExpense{}, err
		}
	} else {
		e.PartnerShares = nil
	}
	e.ID = assignID(e.ID)
	if e.Rate.IsPositive() {
		e.VNDAmount = money.Convert(e.Amount, e.Rate)
	} else {
		e.VNDAmount = e.Amount
	}
	if err := s.repo.SaveMiscExpense(ctx, e); err != nil {
		return MiscellaneousExpense{}, err
	}
	s.invalidate(ctx, e.Date)
	return e, nil
}

func (s *Service) DeleteMiscExpense(ctx context.Context, id uuid.UUID) error {
	return s.deleteDated(ctx, id, func(snap *Snapshot) (time.Time, bool) {
		for _, e := range snap.MiscExpenses {
			if e.ID == id {
				return e.Date, true
			}
		}
		return time.Time{}, false
	}, s.repo.DeleteMiscExpense)
}

// deleteDated removes a dated record after checking its period is writable,
// then drops the affected report from cache.
func (s *Service) deleteDated(ctx context.Context, id uuid.UUID, find func(*Snapshot) (time.Time, bool), del func(context.Context, uuid.UUID) error) error {
	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return err
	}
	date, ok := find(snap)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := s.ensureWritable(ctx, date); err != nil {
		return err
	}
	if err := del(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, date)
	return nil
}
