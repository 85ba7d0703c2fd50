package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sobook-erp/sobook/internal/money"
)

// SaveCapitalInflow contributes funds into an asset. The contributor is the
// named partner, an external investor, or the self partner when neither is
// given; naming both is rejected.
func (s *Service) SaveCapitalInflow(ctx context.Context, c CapitalInflow) (CapitalInflow, error) {
	if err := s.ensureWritable(ctx, c.Date); err != nil {
		return CapitalInflow{}, err
	}
	if !c.Amount.IsPositive() {
		return CapitalInflow{}, fmt.Errorf("%w: inflow amount must be positive", ErrInvalidInput)
	}
	if c.PartnerID != nil && c.ExternalInvestor != "" {
		return CapitalInflow{}, ErrAmbiguousContributor
	}
	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return CapitalInflow{}, err
	}
	if _, ok := snap.Asset(c.AssetID); !ok {
		return CapitalInflow{}, fmt.Errorf("%w: asset %s", ErrNotFound, c.AssetID)
	}
	if c.PartnerID != nil {
		if _, ok := snap.Partner(*c.PartnerID); !ok {
			return CapitalInflow{}, fmt.Errorf("%w: partner %s", ErrNotFound, *c.PartnerID)
		}
	}
	c.ID = assignID(c.ID)
	if err := s.repo.SaveCapitalInflow(ctx, c); err != nil {
		return CapitalInflow{}, err
	}
	s.invalidate(ctx, c.Date)
	return c, nil
}

func (s *Service) DeleteCapitalInflow(ctx context.Context, id uuid.UUID) error {
	return s.deleteDated(ctx, id, func(snap *Snapshot) (time.Time, bool) {
		for _, c := range snap.CapitalInflows {
			if c.ID == id {
				return c.Date, true
			}
		}
		return time.Time{}, false
	}, s.repo.DeleteCapitalInflow)
}

// CreateWithdrawal takes money out of an asset against one partner's share.
// A withdrawal exceeding the partner's resolved available share is rejected
// outright.
func (s *Service) CreateWithdrawal(ctx context.Context, w Withdrawal) (Withdrawal, error) {
	if err := s.ensureWritable(ctx, w.Date); err != nil {
		return Withdrawal{}, err
	}
	if !w.Amount.IsPositive() {
		return Withdrawal{}, fmt.Errorf("%w: withdrawal amount must be positive", ErrInvalidInput)
	}
	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return Withdrawal{}, err
	}
	if _, ok := snap.Asset(w.AssetID); !ok {
		return Withdrawal{}, fmt.Errorf("%w: asset %s", ErrNotFound, w.AssetID)
	}
	partner, ok := snap.Partner(w.WithdrawnBy)
	if !ok {
		return Withdrawal{}, fmt.Errorf("%w: partner %s", ErrNotFound, w.WithdrawnBy)
	}
	if s.rules != nil {
		available, err := s.rules.AvailableShare(snap, w.AssetID, w.WithdrawnBy)
		if err != nil {
			return Withdrawal{}, err
		}
		if w.Amount.Sub(available).GreaterThan(money.Epsilon) {
			return Withdrawal{}, fmt.Errorf("%w: %s has %s available", ErrInsufficientShare, partner.Name, available)
		}
	}
	w.ID = assignID(w.ID)
	if err := s.repo.SaveWithdrawal(ctx, w); err != nil {
		return Withdrawal{}, err
	}
	s.invalidate(ctx, w.Date)
	return w, nil
}

func (s *Service) DeleteWithdrawal(ctx context.Context, id uuid.UUID) error {
	return s.deleteDated(ctx, id, func(snap *Snapshot) (time.Time, bool) {
		for _, w := range snap.Withdrawals {
			if w.ID == id {
				return w.Date, true
			}
		}
		return time.Time{}, false
	}, s.repo.DeleteWithdrawal)
}

// CreateExchange converts a USD asset balance into a VND asset at an actual
// rate. The sale cannot exceed the selling asset's resolved balance.
func (s *Service) CreateExchange(ctx context.Context, e ExchangeLog) (ExchangeLog, error) {
	if err := s.ensureWritable(ctx, e.Date); err != nil {
		return ExchangeLog{}, err
	}
	if !e.USDAmount.IsPositive() || !e.Rate.IsPositive() {
		return ExchangeLog{}, fmt.Errorf("%w: exchange needs positive amount and rate", ErrInvalidInput)
	}
	if e.SellingAssetID == e.ReceivingAssetID {
		return ExchangeLog{}, ErrSelfTransfer
	}
	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return ExchangeLog{}, err
	}
	selling, ok := snap.Asset(e.SellingAssetID)
	if !ok {
		return ExchangeLog{}, fmt.Errorf("%w: asset %s", ErrNotFound, e.SellingAssetID)
	}
	receiving, ok := snap.Asset(e.ReceivingAssetID)
	if !ok {
		return ExchangeLog{}, fmt.Errorf("%w: asset %s", ErrNotFound, e.ReceivingAssetID)
	}
	if selling.Currency != money.USD || receiving.Currency != money.VND {
		return ExchangeLog{}, fmt.Errorf("%w: exchange sells USD into VND", ErrInvalidInput)
	}
	if s.rules != nil {
		balance, err := s.rules.Balance(snap, e.SellingAssetID)
		if err != nil {
			return ExchangeLog{}, err
		}
		if e.USDAmount.Sub(balance).GreaterThan(money.Epsilon) {
			return ExchangeLog{}, fmt.Errorf("%w: %s holds %s", ErrInsufficientBalance, selling.Name, balance)
		}
	}
	e.ID = assignID(e.ID)
	e.VNDAmount = money.Convert(e.USDAmount, e.Rate)
	if err := s.repo.SaveExchangeLog(ctx, e); err != nil {
		return ExchangeLog{}, err
	}
	s.invalidate(ctx, e.Date)
	return e, nil
}

func (s *Service) DeleteExchange(ctx context.Context, id uuid.UUID) error {
	return s.deleteDated(ctx, id, func(snap *Snapshot) (time.Time, bool) {
		for _, e := range snap.ExchangeLogs {
			if e.ID == id {
				return e.Date, true
			}
		}
		return time.Time{}, false
	}, s.repo.DeleteExchangeLog)
}

// CreateSaving parks principal from an asset into a term deposit.
func (s *Service) CreateSaving(ctx context.Context, v Saving) (Saving, error) {
	if err := s.ensureWritable(ctx, v.StartDate); err != nil {
		return Saving{}, err
	}
	if !v.Principal.IsPositive() {
		return Saving{}, fmt.Errorf("%w: principal must be positive", ErrInvalidInput)
	}
	if v.MaturityDate.Before(v.StartDate) {
		return Saving{}, fmt.Errorf("%w: maturity precedes start", ErrInvalidInput)
	}
	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return Saving{}, err
	}
	asset, ok := snap.Asset(v.AssetID)
	if !ok {
		return Saving{}, fmt.Errorf("%w: asset %s", ErrNotFound, v.AssetID)
	}
	if s.rules != nil {
		balance, err := s.rules.Balance(snap, v.AssetID)
		if err != nil {
			return Saving{}, err
		}
		if v.Principal.Sub(balance).GreaterThan(money.Epsilon) {
			return Saving{}, fmt.Errorf("%w: %s holds %s", ErrInsufficientBalance, asset.Name, balance)
		}
	}
	v.ID = assignID(v.ID)
	v.Status = SavingStatusActive
	if err := s.repo.SaveSaving(ctx, v); err != nil {
		return Saving{}, err
	}
	s.invalidate(ctx, v.StartDate)
	return v, nil
}

// MatureSaving returns principal plus interest to the asset.
func (s *Service) MatureSaving(ctx context.Context, id uuid.UUID, amount money.Amount, date time.Time) (Saving, error) {
	if err := s.ensureWritable(ctx, date); err != nil {
		return Saving{}, err
	}
	if !amount.Value.IsPositive() {
		return Saving{}, fmt.Errorf("%w: matured amount must be positive", ErrInvalidInput)
	}
	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return Saving{}, err
	}
	var target Saving
	found := false
	for _, v := range snap.Savings {
		if v.ID == id {
			target, found = v, true
			break
		}
	}
	if !found {
		return Saving{}, fmt.Errorf("%w: saving %s", ErrNotFound, id)
	}
	if target.Status != SavingStatusActive {
		return Saving{}, fmt.Errorf("%w: saving already matured", ErrInvalidInput)
	}
	target.Status = SavingStatusMatured
	target.MaturedAmount = amount.Value
	target.MaturedDate = &date
	if err := s.repo.SaveSaving(ctx, target); err != nil {
		return Saving{}, err
	}
	s.invalidate(ctx, date)
	return target, nil
}

func (s *Service) DeleteSaving(ctx context.Context, id uuid.UUID) error {
	return s.deleteDated(ctx, id, func(snap *Snapshot) (time.Time, bool) {
		for _, v := range snap.Savings {
			if v.ID == id {
				return v.StartDate, true
			}
		}
		return time.Time{}, false
	}, s.repo.DeleteSaving)
}

// CreateInvestment removes capital from circulation until liquidation.
func (s *Service) CreateInvestment(ctx context.Context, inv Investment) (Investment, error) {
	if err := s.ensureWritable(ctx, inv.StartDate); err != nil {
		return Investment{}, err
	}
	if inv.Name == "" || !inv.InvestmentAmount.IsPositive() {
		return Investment{}, fmt.Errorf("%w: investment needs a name and positive amount", ErrInvalidInput)
	}
	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return Investment{}, err
	}
	asset, ok := snap.Asset(inv.AssetID)
	if !ok {
		return Investment{}, fmt.Errorf("%w: asset %s", ErrNotFound, inv.AssetID)
	}
	if s.rules != nil {
		balance, err := s.rules.Balance(snap, inv.AssetID)
		if err != nil {
			return Investment{}, err
		}
		if inv.InvestmentAmount.Sub(balance).GreaterThan(money.Epsilon) {
			return Investment{}, fmt.Errorf("%w: %s holds %s", ErrInsufficientBalance, asset.Name, balance)
		}
	}
	inv.ID = assignID(inv.ID)
	inv.Status = InvestmentStatusActive
	if err := s.repo.SaveInvestment(ctx, inv); err != nil {
		return Investment{}, err
	}
	s.invalidate(ctx, inv.StartDate)
	return inv, nil
}

// LiquidateInvestment returns the proceeds to the asset, gain or loss and all.
func (s *Service) LiquidateInvestment(ctx context.Context, id uuid.UUID, amount money.Amount, date time.Time) (Investment, error) {
	if err := s.ensureWritable(ctx, date); err != nil {
		return Investment{}, err
	}
	if amount.Value.IsNegative() {
		return Investment{}, fmt.Errorf("%w: liquidation amount cannot be negative", ErrInvalidInput)
	}
	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return Investment{}, err
	}
	var target Investment
	found := false
	for _, inv := range snap.Investments {
		if inv.ID == id {
			target, found = inv, true
			break
		}
	}
	if !found {
		return Investment{}, fmt.Errorf("%w: investment %s", ErrNotFound, id)
	}
	if target.Status != InvestmentStatusActive {
		return Investment{}, fmt.Errorf("%w: investment already liquidated", ErrInvalidInput)
	}
	target.Status = InvestmentStatusLiquidated
	target.LiquidationAmount = amount.Value
	target.LiquidationDate = &date
	if err := s.repo.SaveInvestment(ctx, target); err != nil {
		return Investment{}, err
	}
	s.invalidate(ctx, date)
	return target, nil
}

func (s *Service) DeleteInvestment(ctx context.Context, id uuid.UUID) error {
	return s.deleteDated(ctx, id, func(snap *Snapshot) (time.Time, bool) {
		for _, inv := range snap.Investments {
			if inv.ID == id {
				return inv.StartDate, true
			}
		}
		return time.Time{}, false
	}, s.repo.DeleteInvestment)
}

// Export dumps the entire workspace as one snapshot for backup.
func (s *Service) Export(ctx context.Context) (*Snapshot, error) {
	return s.repo.Snapshot(ctx)
}

// Import replaces the entire workspace with the given snapshot. Partnership
// splits are re-validated so a hand-edited backup cannot smuggle in broken
// shares.
func (s *Service) Import(ctx context.Context, snap *Snapshot) error {
	if snap == nil {
		return fmt.Errorf("%w: empty snapshot", ErrInvalidInput)
	}
	for _, p := range snap.Projects {
		if p.IsPartnership {
			if err := ValidateShares(p.PartnerShares); err != nil {
				return fmt.Errorf("project %s: %w", p.Name, err)
			}
		}
	}
	for _, e := range snap.MiscExpenses {
		if e.IsPartnership {
			if err := ValidateShares(e.PartnerShares); err != nil {
				return fmt.Errorf("expense %s: %w", e.Description, err)
			}
		}
	}
	return s.repo.ReplaceAll(ctx, snap)
}
