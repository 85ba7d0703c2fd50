package periods

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sobook-erp/sobook/internal/fin"
	"github.com/sobook-erp/sobook/internal/ledger"
)

// Compiler produces the final financial report frozen into a closed period.
type Compiler interface {
	GetPeriodFinancials(ctx context.Context, period string) (*fin.Report, error)
	WarmCache(ctx context.Context, period string) error
}

// WarmupEnqueuer schedules the post-close report warmup job. Optional; when
// nil the close path warms the cache inline.
type WarmupEnqueuer interface {
	EnqueueReportWarmup(ctx context.Context, period string) error
}

// Service drives the period lifecycle.
type Service struct {
	repo       RepositoryPort
	compiler   Compiler
	closingDay int
	enqueuer   WarmupEnqueuer
	logger     *slog.Logger
	now        func() time.Time
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, compiler Compiler, closingDay int, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		compiler:   compiler,
		closingDay: closingDay,
		logger:     logger,
		now:        time.Now,
	}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithEnqueuer wires the async warmup job client.
func (s *Service) WithEnqueuer(e WarmupEnqueuer) *Service {
	s.enqueuer = e
	return s
}

// Open transitions a month from none to active. At most one period may be
// active, and a closed month never reopens.
func (s *Service) Open(ctx context.Context, period string) (Period, error) {
	if _, err := ledger.ParsePeriod(period); err != nil {
		return Period{}, err
	}
	active, err := s.repo.ActivePeriod(ctx)
	if err != nil {
		return Period{}, err
	}
	if active != nil {
		return Period{}, fmt.Errorf("%w: %s", ErrActivePeriodExists, active.ID)
	}
	existing, err := s.repo.GetPeriod(ctx, period)
	if err == nil && existing.Status == StatusClosed {
		return Period{}, fmt.Errorf("%w: %s", ErrPeriodClosed, period)
	}
	if err != nil && !errors.Is(err, ErrPeriodNotFound) {
		return Period{}, err
	}

	p := Period{ID: period, Status: StatusActive, OpenedAt: s.now().UTC()}
	if err := s.repo.InsertPeriod(ctx, p); err != nil {
		return Period{}, err
	}
	if s.logger != nil {
		s.logger.Info("period opened", slog.String("period", period))
	}
	return p, nil
}

// Close transitions the active period to closed: the closing-day cutoff must
// have passed, the final report is compiled and frozen on the period row, and
// each partner's net profit share rolls into their capital baseline.
func (s *Service) Close(ctx context.Context, period string) (Period, error) {
	p, err := s.repo.GetPeriod(ctx, period)
	if err != nil {
		return Period{}, err
	}
	if p.Status != StatusActive {
		return Period{}, fmt.Errorf("%w: %s is %s", ErrNotActive, period, p.Status)
	}

	cutoff, err := ClosingCutoff(period, s.closingDay)
	if err != nil {
		return Period{}, err
	}
	now := s.now().UTC()
	if now.Before(cutoff) {
		return Period{}, fmt.Errorf("%w: %s may close from %s", ErrBeforeCutoff, period, cutoff.Format("2006-01-02"))
	}

	report, err := s.compiler.GetPeriodFinancials(ctx, period)
	if err != nil {
		return Period{}, fmt.Errorf("periods: compile final report for %s: %w", period, err)
	}
	frozen, err := json.Marshal(report)
	if err != nil {
		return Period{}, fmt.Errorf("periods: freeze report for %s: %w", period, err)
	}

	shares := make([]PartnerProfit, 0, len(report.PartnerPnl))
	for _, row := range report.PartnerPnl {
		shares = append(shares, PartnerProfit{
			PartnerID: row.PartnerID,
			NetProfit: row.Profit.Sub(row.TaxPayable),
		})
	}

	if err := s.repo.ClosePeriod(ctx, period, now, frozen, shares); err != nil {
		return Period{}, err
	}
	if s.logger != nil {
		s.logger.Info("period closed",
			slog.String("period", period),
			slog.String("netProfit", report.NetProfit.String()))
	}

	s.warmup(ctx, period)

	p.Status = StatusClosed
	p.ClosedAt = &now
	p.Report = frozen
	return p, nil
}

func (s *Service) warmup(ctx context.Context, period string) {
	if s.enqueuer != nil {
		if err := s.enqueuer.EnqueueReportWarmup(ctx, period); err == nil {
			return
		} else if s.logger != nil {
			s.logger.Warn("enqueue report warmup", slog.String("period", period), slog.Any("error", err))
		}
	}
	if err := s.compiler.WarmCache(ctx, period); err != nil && s.logger != nil {
		s.logger.Warn("warm report cache", slog.String("period", period), slog.Any("error", err))
	}
}

// EnsureWritable gates ledger mutations: the record's date must fall inside
// the currently active period.
func (s *Service) EnsureWritable(ctx context.Context, date time.Time) error {
	active, err := s.repo.ActivePeriod(ctx)
	if err != nil {
		return err
	}
	if active == nil {
		return fmt.Errorf("%w: %w", ledger.ErrPeriodLocked, ErrNoActivePeriod)
	}
	period := ledger.PeriodOf(date)
	if period == active.ID {
		return nil
	}
	existing, err := s.repo.GetPeriod(ctx, period)
	if err == nil && existing.Status == StatusClosed {
		return fmt.Errorf("%w: %w: %s", ledger.ErrPeriodLocked, ErrPeriodClosed, period)
	}
	if err != nil && !errors.Is(err, ErrPeriodNotFound) {
		return err
	}
	return fmt.Errorf("%w: %w: %s is dated %s, active period is %s",
		ledger.ErrPeriodLocked, ErrDateOutsideActive, date.Format("2006-01-02"), period, active.ID)
}

// IsClosed reports whether a period has been closed. Months with no record
// are not closed.
func (s *Service) IsClosed(ctx context.Context, period string) (bool, error) {
	p, err := s.repo.GetPeriod(ctx, period)
	if errors.Is(err, ErrPeriodNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return p.Status == StatusClosed, nil
}

// Current returns the active period, or ErrNoActivePeriod.
func (s *Service) Current(ctx context.Context) (Period, error) {
	active, err := s.repo.ActivePeriod(ctx)
	if err != nil {
		return Period{}, err
	}
	if active == nil {
		return Period{}, ErrNoActivePeriod
	}
	return *active, nil
}

// List returns all periods, newest first.
func (s *Service) List(ctx context.Context) ([]Period, error) {
	return s.repo.ListPeriods(ctx)
}

// Get returns one period with its frozen report, when closed.
func (s *Service) Get(ctx context.Context, period string) (Period, error) {
	if _, err := ledger.ParsePeriod(period); err != nil {
		return Period{}, err
	}
	return s.repo.GetPeriod(ctx, period)
}
