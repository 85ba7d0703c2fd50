package fin

import (
	"context"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/sobook-erp/sobook/internal/amortize"
	"github.com/sobook-erp/sobook/internal/ledger"
	"github.com/sobook-erp/sobook/internal/money"
)

// SnapshotSource loads an immutable ledger snapshot.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (*ledger.Snapshot, error)
}

// PeriodStates reports whether a period has been closed, which gates
// report memoization.
type PeriodStates interface {
	IsClosed(ctx context.Context, period string) (bool, error)
}

// Service compiles period financials, deduplicating concurrent compilations
// and memoizing closed periods.
type Service struct {
	source SnapshotSource
	cache  *Cache
	cfg    Config
	states PeriodStates
	group  singleflight.Group
	logger *slog.Logger
}

// NewService builds a Service instance.
func NewService(source SnapshotSource, cache *Cache, cfg Config, logger *slog.Logger) *Service {
	return &Service{source: source, cache: cache, cfg: cfg, logger: logger}
}

// WithPeriodStates wires the period status lookup after construction;
// the lifecycle controller depends on this service, so the back-reference
// arrives late.
func (s *Service) WithPeriodStates(states PeriodStates) {
	s.states = states
}

func (s *Service) isClosed(ctx context.Context, period string) bool {
	if s.states == nil {
		return false
	}
	closed, err := s.states.IsClosed(ctx, period)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("period status lookup", slog.String("period", period), slog.Any("error", err))
		}
		return false
	}
	return closed
}

// GetPeriodFinancials returns the compiled report for a period. Closed
// periods are immutable, so their reports come from cache when warm;
// concurrent requests for the same period share one compilation.
func (s *Service) GetPeriodFinancials(ctx context.Context, period string) (*Report, error) {
	closed := s.isClosed(ctx, period)
	if closed {
		if report, ok := s.cache.Get(ctx, period); ok {
			return report, nil
		}
	}

	resultChan := s.group.DoChan(period, func() (any, error) {
		snap, err := s.source.Snapshot(ctx)
		if err != nil {
			return nil, err
		}
		return Compile(snap, period, s.cfg)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return nil, res.Err
		}
		report := res.Val.(*Report)
		if closed {
			if err := s.cache.Set(ctx, report); err != nil && s.logger != nil {
				s.logger.Warn("cache report", slog.String("period", period), slog.Any("error", err))
			}
		}
		return report, nil
	}
}

// GetTaxEstimate compiles the period and returns only the tax view.
func (s *Service) GetTaxEstimate(ctx context.Context, period string) (TaxBases, TaxResult, error) {
	report, err := s.GetPeriodFinancials(ctx, period)
	if err != nil {
		return TaxBases{}, TaxResult{}, err
	}
	return report.TaxBases, report.Tax, nil
}

// WarmCache recompiles a period and stores the result unconditionally.
// Used by the post-close warmup job.
func (s *Service) WarmCache(ctx context.Context, period string) error {
	snap, err := s.source.Snapshot(ctx)
	if err != nil {
		return err
	}
	report, err := Compile(snap, period, s.cfg)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, report)
}

// InvalidateCache drops a period's memoized report after a ledger write.
func (s *Service) InvalidateCache(ctx context.Context, period string) {
	s.cache.Invalidate(ctx, period)
}

// ScheduleRow is one liability or receivable on a period's due-list.
type ScheduleRow struct {
	ID             uuid.UUID       `json:"id"`
	Counterparty   string          `json:"counterparty"`
	Currency       money.Currency  `json:"currency"`
	Installment    decimal.Decimal `json:"installment"`
	DueThisPeriod  decimal.Decimal `json:"dueThisPeriod"`
	PaidThisPeriod decimal.Decimal `json:"paidThisPeriod"`
	TotalRemaining decimal.Decimal `json:"totalRemaining"`
	Scheduled      bool            `json:"scheduled"`
	Completed      bool            `json:"completed"`
}

// DebtSchedule lists liabilities with activity relative to the period.
// Items with nothing due and nothing paid are left off the list.
func (s *Service) DebtSchedule(ctx context.Context, period string) ([]ScheduleRow, error) {
	snap, err := s.source.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	var rows []ScheduleRow
	for _, l := range snap.Liabilities {
		due, err := amortize.Schedule(amortize.FromLiability(l), debtPayments(snap, l.ID), period)
		if err != nil {
			return nil, err
		}
		if !due.Visible() {
			continue
		}
		rows = append(rows, scheduleRow(l.ID, l.Counterparty, l.Currency, due))
	}
	sortScheduleRows(rows)
	return rows, nil
}

// ReceivableSchedule lists receivables with activity relative to the period.
func (s *Service) ReceivableSchedule(ctx context.Context, period string) ([]ScheduleRow, error) {
	snap, err := s.source.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	var rows []ScheduleRow
	for _, r := range snap.Receivables {
		due, err := amortize.Schedule(amortize.FromReceivable(r), receivablePayments(snap, r.ID), period)
		if err != nil {
			return nil, err
		}
		if !due.Visible() {
			continue
		}
		rows = append(rows, scheduleRow(r.ID, r.Counterparty, r.Currency, due))
	}
	sortScheduleRows(rows)
	return rows, nil
}

func debtPayments(snap *ledger.Snapshot, id uuid.UUID) []amortize.PaymentRecord {
	var out []amortize.PaymentRecord
	for _, p := range snap.PaymentsForLiability(id) {
		out = append(out, amortize.PaymentRecord{Amount: p.Amount, Date: p.Date})
	}
	return out
}

func receivablePayments(snap *ledger.Snapshot, id uuid.UUID) []amortize.PaymentRecord {
	var out []amortize.PaymentRecord
	for _, p := range snap.PaymentsForReceivable(id) {
		out = append(out, amortize.PaymentRecord{Amount: p.Amount, Date: p.Date})
	}
	return out
}

func scheduleRow(id uuid.UUID, counterparty string, currency money.Currency, due amortize.Due) ScheduleRow {
	return ScheduleRow{
		ID:             id,
		Counterparty:   counterparty,
		Currency:       currency,
		Installment:    due.Installment,
		DueThisPeriod:  due.DueThisPeriod,
		PaidThisPeriod: due.PaidThisPeriod,
		TotalRemaining: due.TotalRemaining,
		Scheduled:      due.Scheduled,
		Completed:      due.Settled(),
	}
}

func sortScheduleRows(rows []ScheduleRow) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Counterparty == rows[j].Counterparty {
			return rows[i].ID.String() < rows[j].ID.String()
		}
		return rows[i].Counterparty < rows[j].Counterparty
	})
}
