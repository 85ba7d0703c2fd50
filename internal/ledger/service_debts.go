package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sobook-erp/sobook/internal/money"
)

func validateSchedule(isInstallment bool, start *time.Time, installments int) error {
	if !isInstallment {
		return nil
	}
	if start == nil || installments <= 0 {
		return fmt.Errorf("%w: installment schedule needs a start date and installment count", ErrInvalidInput)
	}
	return nil
}

// SaveLiability records money owed to a counterparty. Schedule fields are
// fixed here; the amortizer only ever reads them.
func (s *Service) SaveLiability(ctx context.Context, l Liability) (Liability, error) {
	if err := s.ensureWritable(ctx, l.Date); err != nil {
		return Liability{}, err
	}
	if l.Counterparty == "" || !l.TotalAmount.IsPositive() {
		return Liability{}, fmt.Errorf("%w: liability needs a counterparty and positive amount", ErrInvalidInput)
	}
	if err := validateSchedule(l.IsInstallment, l.StartDate, l.NumberOfInstallments); err != nil {
		return Liability{}, err
	}
	l.ID = assignID(l.ID)
	if err := s.repo.SaveLiability(ctx, l); err != nil {
		return Liability{}, err
	}
	s.invalidate(ctx, l.Date)
	return l, nil
}

func (s *Service) DeleteLiability(ctx context.Context, id uuid.UUID) error {
	return s.deleteDated(ctx, id, func(snap *Snapshot) (time.Time, bool) {
		for _, l := range snap.Liabilities {
			if l.ID == id {
				return l.Date, true
			}
		}
		return time.Time{}, false
	}, s.repo.DeleteLiability)
}

// SaveReceivable records money owed by a counterparty.
func (s *Service) SaveReceivable(ctx context.Context, v Receivable) (Receivable, error) {
	if err := s.ensureWritable(ctx, v.Date); err != nil {
		return Receivable{}, err
	}
	if v.Counterparty == "" || !v.TotalAmount.IsPositive() {
		return Receivable{}, fmt.Errorf("%w: receivable needs a counterparty and positive amount", ErrInvalidInput)
	}
	if err := validateSchedule(v.IsInstallment, v.StartDate, v.NumberOfInstallments); err != nil {
		return Receivable{}, err
	}
	v.ID = assignID(v.ID)
	if err := s.repo.SaveReceivable(ctx, v); err != nil {
		return Receivable{}, err
	}
	s.invalidate(ctx, v.Date)
	return v, nil
}

func (s *Service) DeleteReceivable(ctx context.Context, id uuid.UUID) error {
	return s.deleteDated(ctx, id, func(snap *Snapshot) (time.Time, bool) {
		for _, v := range snap.Receivables {
			if v.ID == id {
				return v.Date, true
			}
		}
		return time.Time{}, false
	}, s.repo.DeleteReceivable)
}

func paidTotal(payments []DebtPayment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	return total
}

func collectedTotal(payments []ReceivablePayment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	return total
}

// CreateDebtPayment settles part of a liability. Overpaying is rejected, and
// a payment that clears the remaining amount stamps the completion date.
func (s *Service) CreateDebtPayment(ctx context.Context, p DebtPayment) (DebtPayment, error) {
	if err := s.ensureWritable(ctx, p.Date); err != nil {
		return DebtPayment{}, err
	}
	if !p.Amount.IsPositive() {
		return DebtPayment{}, fmt.Errorf("%w: payment amount must be positive", ErrInvalidInput)
	}
	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return DebtPayment{}, err
	}
	liability, ok := snap.Liability(p.LiabilityID)
	if !ok {
		return DebtPayment{}, fmt.Errorf("%w: liability %s", ErrNotFound, p.LiabilityID)
	}
	if _, ok := snap.Asset(p.AssetID); !ok {
		return DebtPayment{}, fmt.Errorf("%w: asset %s", ErrNotFound, p.AssetID)
	}

	remaining := liability.TotalAmount.Sub(paidTotal(snap.PaymentsForLiability(liability.ID)))
	if p.Amount.Sub(remaining).GreaterThan(money.Epsilon) {
		return DebtPayment{}, fmt.Errorf("%w: %s remaining, %s paid", ErrOverpayment, remaining, p.Amount)
	}

	p.ID = assignID(p.ID)
	if err := s.repo.SaveDebtPayment(ctx, p); err != nil {
		return DebtPayment{}, err
	}
	if money.Settled(remaining.Sub(p.Amount)) && liability.CompletionDate == nil {
		date := p.Date
		liability.CompletionDate = &date
		if err := s.repo.SaveLiability(ctx, liability); err != nil {
			return DebtPayment{}, err
		}
	}
	s.invalidate(ctx, p.Date)
	return p, nil
}

// DeleteDebtPayment reverses a settlement. A liability that is no longer
// fully paid loses its completion date.
func (s *Service) DeleteDebtPayment(ctx context.Context, id uuid.UUID) error {
	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return err
	}
	var payment DebtPayment
	found := false
	for _, p := range snap.DebtPayments {
		if p.ID == id {
			payment, found = p, true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := s.ensureWritable(ctx, payment.Date); err != nil {
		return err
	}
	if err := s.repo.DeleteDebtPayment(ctx, id); err != nil {
		return err
	}
	if liability, ok := snap.Liability(payment.LiabilityID); ok && liability.CompletionDate != nil {
		remaining := liability.TotalAmount.Sub(paidTotal(snap.PaymentsForLiability(liability.ID))).Add(payment.Amount)
		if !money.Settled(remaining) {
			liability.CompletionDate = nil
			if err := s.repo.SaveLiability(ctx, liability); err != nil {
				return err
			}
		}
	}
	s.invalidate(ctx, payment.Date)
	return nil
}

// CreateReceivablePayment records a collection against a receivable.
func (s *Service) CreateReceivablePayment(ctx context.Context, p ReceivablePayment) (ReceivablePayment, error) {
	if err := s.ensureWritable(ctx, p.Date); err != nil {
		return ReceivablePayment{}, err
	}
	if !p.Amount.IsPositive() {
		return ReceivablePayment{}, fmt.Errorf("%w: payment amount must be positive", ErrInvalidInput)
	}
	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return ReceivablePayment{}, err
	}
	receivable, ok := snap.Receivable(p.ReceivableID)
	if !ok {
		return ReceivablePayment{}, fmt.Errorf("%w: receivable %s", ErrNotFound, p.ReceivableID)
	}
	if _, ok := snap.Asset(p.AssetID); !ok {
		return ReceivablePayment{}, fmt.Errorf("%w: asset %s", ErrNotFound, p.AssetID)
	}

	remaining := receivable.TotalAmount.Sub(collectedTotal(snap.PaymentsForReceivable(receivable.ID)))
	if p.Amount.Sub(remaining).GreaterThan(money.Epsilon) {
		return ReceivablePayment{}, fmt.Errorf("%w: %s remaining, %s collected", ErrOverpayment, remaining, p.Amount)
	}

	p.ID = assignID(p.ID)
	if err := s.repo.SaveReceivablePayment(ctx, p); err != nil {
		return ReceivablePayment{}, err
	}
	if money.Settled(remaining.Sub(p.Amount)) && receivable.CompletionDate == nil {
		date := p.Date
		receivable.CompletionDate = &date
		if err := s.repo.SaveReceivable(ctx, receivable); err != nil {
			return ReceivablePayment{}, err
		}
	}
	s.invalidate(ctx, p.Date)
	return p, nil
}

// DeleteReceivablePayment reverses a collection.
func (s *Service) DeleteReceivablePayment(ctx context.Context, id uuid.UUID) error {
	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return err
	}
	var payment ReceivablePayment
	found := false
	for _, p := range snap.ReceivablePayments {
		if p.ID == id {
			payment, found = p, true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := s.ensureWritable(ctx, payment.Date); err != nil {
		return err
	}
	if err := s.repo.DeleteReceivablePayment(ctx, id); err != nil {
		return err
	}
	if receivable, ok := snap.Receivable(payment.ReceivableID); ok && receivable.CompletionDate != nil {
		remaining := receivable.TotalAmount.Sub(collectedTotal(snap.PaymentsForReceivable(receivable.ID))).Add(payment.Amount)
		if !money.Settled(remaining) {
			receivable.CompletionDate = nil
			if err := s.repo.SaveReceivable(ctx, receivable); err != nil {
				return err
			}
		}
	}
	s.invalidate(ctx, payment.Date)
	return nil
}

// --- Period obligations ---

func (s *Service) gatePeriodKey(ctx context.Context, period string) error {
	start, err := ParsePeriod(period)
	if err != nil {
		return err
	}
	return s.ensureWritable(ctx, start)
}

// SavePeriodLiability records a one-off obligation scoped to a single period.
func (s *Service) SavePeriodLiability(ctx context.Context, p PeriodLiability) (PeriodLiability, error) {
	if err := s.gatePeriodKey(ctx, p.Period); err != nil {
		return PeriodLiability{}, err
	}
	if p.Name == "" || !p.Amount.IsPositive() {
		return PeriodLiability{}, fmt.Errorf("%w: obligation needs a name and positive amount", ErrInvalidInput)
	}
	p.ID = assignID(p.ID)
	if err := s.repo.SavePeriodLiability(ctx, p); err != nil {
		return PeriodLiability{}, err
	}
	s.invalidatePeriodKey(ctx, p.Period)
	return p, nil
}

// MarkPeriodLiabilityPaid settles a period obligation from an asset. The
// payment becomes a cash outflow of its period.
func (s *Service) MarkPeriodLiabilityPaid(ctx context.Context, id, assetID uuid.UUID, date time.Time) (PeriodLiability, error) {
	if err := s.ensureWritable(ctx, date); err != nil {
		return PeriodLiability{}, err
	}
	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return PeriodLiability{}, err
	}
	var target PeriodLiability
	found := false
	for _, p := range snap.PeriodLiabilities {
		if p.ID == id {
			target, found = p, true
			break
		}
	}
	if !found {
		return PeriodLiability{}, fmt.Errorf("%w: period liability %s", ErrNotFound, id)
	}
	if _, ok := snap.Asset(assetID); !ok {
		return PeriodLiability{}, fmt.Errorf("%w: asset %s", ErrNotFound, assetID)
	}
	target.IsPaid = true
	target.AssetID = &assetID
	target.PaidDate = &date
	if err := s.repo.SavePeriodLiability(ctx, target); err != nil {
		return PeriodLiability{}, err
	}
	s.invalidate(ctx, date)
	return target, nil
}

func (s *Service) DeletePeriodLiability(ctx context.Context, id uuid.UUID) error {
	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return err
	}
	for _, p := range snap.PeriodLiabilities {
		if p.ID == id {
			if err := s.gatePeriodKey(ctx, p.Period); err != nil {
				return err
			}
			if err := s.repo.DeletePeriodLiability(ctx, id); err != nil {
				return err
			}
			s.invalidatePeriodKey(ctx, p.Period)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// SavePeriodReceivable records a one-off claim scoped to a single period.
func (s *Service) SavePeriodReceivable(ctx context.Context, p PeriodReceivable) (PeriodReceivable, error) {
	if err := s.gatePeriodKey(ctx, p.Period); err != nil {
		return PeriodReceivable{}, err
	}
	if p.Name == "" || !p.Amount.IsPositive() {
		return PeriodReceivable{}, fmt.Errorf("%w: claim needs a name and positive amount", ErrInvalidInput)
	}
	p.ID = assignID(p.ID)
	if err := s.repo.SavePeriodReceivable(ctx, p); err != nil {
		return PeriodReceivable{}, err
	}
	s.invalidatePeriodKey(ctx, p.Period)
	return p, nil
}

// MarkPeriodReceivableReceived collects a period claim into an asset.
func (s *Service) MarkPeriodReceivableReceived(ctx context.Context, id, assetID uuid.UUID, date time.Time) (PeriodReceivable, error) {
	if err := s.ensureWritable(ctx, date); err != nil {
		return PeriodReceivable{}, err
	}
	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return PeriodReceivable{}, err
	}
	var target PeriodReceivable
	found := false
	for _, p := range snap.PeriodReceivables {
		if p.ID == id {
			target, found = p, true
			break
		}
	}
	if !found {
		return PeriodReceivable{}, fmt.Errorf("%w: period receivable %s", ErrNotFound, id)
	}
	if _, ok := snap.Asset(assetID); !ok {
		return PeriodReceivable{}, fmt.Errorf("%w: asset %s", ErrNotFound, assetID)
	}
	target.IsReceived = true
	target.AssetID = &assetID
	target.ReceivedDate = &date
	if err := s.repo.SavePeriodReceivable(ctx, target); err != nil {
		return PeriodReceivable{}, err
	}
	s.invalidate(ctx, date)
	return target, nil
}

func (s *Service) DeletePeriodReceivable(ctx context.Context, id uuid.UUID) error {
	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return err
	}
	for _, p := range snap.PeriodReceivables {
		if p.ID == id {
			if err := s.gatePeriodKey(ctx, p.Period); err != nil {
				return err
			}
			if err := s.repo.DeletePeriodReceivable(ctx, id); err != nil {
				return err
			}
			s.invalidatePeriodKey(ctx, p.Period)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

func (s *Service) invalidatePeriodKey(ctx context.Context, period string) {
	if s.invalidator != nil {
		s.invalidator.InvalidateCache(ctx, period)
	}
}
