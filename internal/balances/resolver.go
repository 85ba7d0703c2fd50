// Package balances derives live asset balances and per-partner ownership
// attribution from a ledger snapshot.
package balances

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/sobook-erp/sobook/internal/attribution"
	"github.com/sobook-erp/sobook/internal/ledger"
	"github.com/sobook-erp/sobook/internal/money"
)

// OwnerStake is one partner's running position in an asset.
type OwnerStake struct {
	PartnerID uuid.UUID
	Received  decimal.Decimal
	Withdrawn decimal.Decimal
}

// AssetBalance is the resolved view of one asset.
type AssetBalance struct {
	Asset          ledger.Asset
	Balance        decimal.Decimal
	TotalReceived  decimal.Decimal
	TotalWithdrawn decimal.Decimal
	// Unattributed carries inflows from external investors: counted in the
	// asset total but in no partner's stake.
	Unattributed decimal.Decimal
	Owners       []OwnerStake
	IsExpandable bool
}

// flow is one cash movement touching an asset, expressed in the asset's
// currency. Portions carry the partner fan-out; a nil list means the money
// is tracked in the asset total only.
type flow struct {
	date     time.Time
	amount   decimal.Decimal
	inflow   bool
	portions []attribution.Portion
}

func assetAmount(a ledger.Asset, vnd, usd decimal.Decimal) decimal.Decimal {
	if a.Currency == money.USD {
		return usd
	}
	return vnd
}

// assetFlows enumerates every transaction type referencing the asset.
// Ad fund transfers never appear here: they move ad-account balance only.
func assetFlows(snap *ledger.Snapshot, asset ledger.Asset) ([]flow, error) {
	self, ok := snap.SelfPartner()
	if !ok {
		return nil, ledger.ErrSelfPartnerMissing
	}
	selfOnly := attribution.SelfOnly(self.ID)

	var flows []flow
	add := func(date time.Time, amount decimal.Decimal, inflow bool, portions []attribution.Portion) {
		if amount.IsZero() {
			return
		}
		flows = append(flows, flow{date: date, amount: amount, inflow: inflow, portions: portions})
	}

	for _, c := range snap.Commissions {
		if c.AssetID != asset.ID {
			continue
		}
		amount := assetAmount(asset, c.VNDAmount, c.USDAmount)
		stakes := selfOnly
		if project, ok := snap.Project(c.ProjectID); ok {
			stakes = attribution.ForProject(project, self.ID)
		}
		add(c.Date, amount, true, attribution.Split(amount, stakes))
	}

	for _, ci := range snap.CapitalInflows {
		if ci.AssetID != asset.ID {
			continue
		}
		switch {
		case ci.ExternalInvestor != "":
			add(ci.Date, ci.Amount, true, nil)
		case ci.PartnerID != nil:
			add(ci.Date, ci.Amount, true, attribution.Split(ci.Amount, attribution.SelfOnly(*ci.PartnerID)))
		default:
			add(ci.Date, ci.Amount, true, attribution.Split(ci.Amount, selfOnly))
		}
	}

	for _, x := range snap.ExchangeLogs {
		if x.ReceivingAssetID == asset.ID {
			add(x.Date, x.VNDAmount, true, attribution.Split(x.VNDAmount, selfOnly))
		}
		if x.SellingAssetID == asset.ID {
			add(x.Date, x.USDAmount, false, attribution.Split(x.USDAmount, selfOnly))
		}
	}

	for _, l := range snap.Liabilities {
		if l.InflowAssetID != nil && *l.InflowAssetID == asset.ID {
			add(l.Date, l.TotalAmount, true, attribution.Split(l.TotalAmount, selfOnly))
		}
	}
	for _, r := range snap.Receivables {
		if r.OutflowAssetID != nil && *r.OutflowAssetID == asset.ID {
			add(r.Date, r.TotalAmount, false, attribution.Split(r.TotalAmount, selfOnly))
		}
	}
	for _, p := range snap.DebtPayments {
		if p.AssetID == asset.ID {
			add(p.Date, p.Amount, false, attribution.Split(p.Amount, selfOnly))
		}
	}
	for _, p := range snap.ReceivablePayments {
		if p.AssetID == asset.ID {
			add(p.Date, p.Amount, true, attribution.Split(p.Amount, selfOnly))
		}
	}

	for _, pl := range snap.PeriodLiabilities {
		if pl.IsPaid && pl.AssetID != nil && *pl.AssetID == asset.ID && pl.PaidDate != nil {
			add(*pl.PaidDate, pl.Amount, false, attribution.Split(pl.Amount, selfOnly))
		}
	}
	for _, pr := range snap.PeriodReceivables {
		if pr.IsReceived && pr.AssetID != nil && *pr.AssetID == asset.ID && pr.ReceivedDate != nil {
			add(*pr.ReceivedDate, pr.Amount, true, attribution.Split(pr.Amount, selfOnly))
		}
	}

	for _, d := range snap.AdDeposits {
		if d.AssetID != asset.ID {
			continue
		}
		amount := assetAmount(asset, d.VNDAmount, d.USDAmount)
		add(d.Date, amount, false, attribution.Split(amount, selfOnly))
	}

	for _, e := range snap.MiscExpenses {
		if e.AssetID != asset.ID {
			continue
		}
		var project *ledger.Project
		if e.ProjectID != nil {
			if p, ok := snap.Project(*e.ProjectID); ok {
				project = &p
			}
		}
		stakes := attribution.ForExpense(e, project, self.ID)
		add(e.Date, e.Amount, false, attribution.Split(e.Amount, stakes))
	}

	for _, w := range snap.Withdrawals {
		if w.AssetID == asset.ID {
			add(w.Date, w.Amount, false, attribution.Split(w.Amount, attribution.SelfOnly(w.WithdrawnBy)))
		}
	}

	for _, sv := range snap.Savings {
		if sv.AssetID != asset.ID {
			continue
		}
		add(sv.StartDate, sv.Principal, false, attribution.Split(sv.Principal, selfOnly))
		if sv.Status == ledger.SavingStatusMatured && sv.MaturedDate != nil {
			add(*sv.MaturedDate, sv.MaturedAmount, true, attribution.Split(sv.MaturedAmount, selfOnly))
		}
	}
	for _, inv := range snap.Investments {
		if inv.AssetID != asset.ID {
			continue
		}
		add(inv.StartDate, inv.InvestmentAmount, false, attribution.Split(inv.InvestmentAmount, selfOnly))
		if inv.Status == ledger.InvestmentStatusLiquidated && inv.LiquidationDate != nil {
			add(*inv.LiquidationDate, inv.LiquidationAmount, true, attribution.Split(inv.LiquidationAmount, selfOnly))
		}
	}

	return flows, nil
}

// resolveWindow folds flows dated before the cutoff into an AssetBalance.
// A zero cutoff means the full history.
func resolveWindow(snap *ledger.Snapshot, asset ledger.Asset, until time.Time) (AssetBalance, error) {
	flows, err := assetFlows(snap, asset)
	if err != nil {
		return AssetBalance{}, err
	}

	received := make(map[uuid.UUID]decimal.Decimal)
	withdrawn := make(map[uuid.UUID]decimal.Decimal)
	out := AssetBalance{
		Asset:          asset,
		TotalReceived:  decimal.Zero,
		TotalWithdrawn: decimal.Zero,
		Unattributed:   decimal.Zero,
	}

	for _, f := range flows {
		if !until.IsZero() && !f.date.Before(until) {
			continue
		}
		if f.inflow {
			out.TotalReceived = out.TotalReceived.Add(f.amount)
			if f.portions == nil {
				out.Unattributed = out.Unattributed.Add(f.amount)
				continue
			}
			for _, p := range f.portions {
				received[p.PartnerID] = received[p.PartnerID].Add(p.Amount)
			}
		} else {
			out.TotalWithdrawn = out.TotalWithdrawn.Add(f.amount)
			for _, p := range f.portions {
				withdrawn[p.PartnerID] = withdrawn[p.PartnerID].Add(p.Amount)
			}
		}
	}

	out.Balance = asset.OpeningBalance.Add(out.TotalReceived).Sub(out.TotalWithdrawn)

	ids := make(map[uuid.UUID]struct{}, len(received)+len(withdrawn))
	for id := range received {
		ids[id] = struct{}{}
	}
	for id := range withdrawn {
		ids[id] = struct{}{}
	}
	for id := range ids {
		out.Owners = append(out.Owners, OwnerStake{
			PartnerID: id,
			Received:  received[id],
			Withdrawn: withdrawn[id],
		})
	}
	sort.Slice(out.Owners, func(i, j int) bool {
		return out.Owners[i].PartnerID.String() < out.Owners[j].PartnerID.String()
	})

	active := 0
	for _, o := range out.Owners {
		if !o.Received.IsZero() || !o.Withdrawn.IsZero() {
			active++
		}
	}
	out.IsExpandable = active > 1

	return out, nil
}

// Resolve computes the live balance and ownership breakdown of one asset.
func Resolve(snap *ledger.Snapshot, assetID uuid.UUID) (AssetBalance, error) {
	asset, ok := snap.Asset(assetID)
	if !ok {
		return AssetBalance{}, ledger.ErrNotFound
	}
	return resolveWindow(snap, asset, time.Time{})
}

// BalanceAsOf returns an asset's balance counting only flows dated strictly
// before the cutoff.
func BalanceAsOf(snap *ledger.Snapshot, assetID uuid.UUID, cutoff time.Time) (decimal.Decimal, error) {
	asset, ok := snap.Asset(assetID)
	if !ok {
		return decimal.Zero, ledger.ErrNotFound
	}
	resolved, err := resolveWindow(snap, asset, cutoff)
	if err != nil {
		return decimal.Zero, err
	}
	return resolved.Balance, nil
}

// AvailableShare returns a partner's withdrawable stake in an asset:
// attributed receipts minus attributed withdrawals.
func AvailableShare(snap *ledger.Snapshot, assetID, partnerID uuid.UUID) (decimal.Decimal, error) {
	resolved, err := Resolve(snap, assetID)
	if err != nil {
		return decimal.Zero, err
	}
	for _, o := range resolved.Owners {
		if o.PartnerID == partnerID {
			return o.Received.Sub(o.Withdrawn), nil
		}
	}
	return decimal.Zero, nil
}

// ResolveAll resolves every asset concurrently. Each asset's derivation is
// independent, so the fan-out has no ordering requirement; output is sorted
// by asset name for stable presentation.
func ResolveAll(ctx context.Context, snap *ledger.Snapshot) ([]AssetBalance, error) {
	results := make([]AssetBalance, len(snap.Assets))
	g, _ := errgroup.WithContext(ctx)
	for i, asset := range snap.Assets {
		i, asset := i, asset
		g.Go(func() error {
			resolved, err := resolveWindow(snap, asset, time.Time{})
			if err != nil {
				return err
			}
			results[i] = resolved
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Asset.Name == results[j].Asset.Name {
			return results[i].Asset.ID.String() < results[j].Asset.ID.String()
		}
		return results[i].Asset.Name < results[j].Asset.Name
	})
	return results, nil
}
