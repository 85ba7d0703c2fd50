package balances

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sobook-erp/sobook/internal/ledger"
	"github.com/sobook-erp/sobook/internal/money"
)

// SnapshotSource loads an immutable ledger snapshot.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (*ledger.Snapshot, error)
}

// OwnerView is one partner's position in an asset, annotated for display.
type OwnerView struct {
	PartnerID   uuid.UUID       `json:"partnerId"`
	PartnerName string          `json:"partnerName"`
	Received    decimal.Decimal `json:"received"`
	Withdrawn   decimal.Decimal `json:"withdrawn"`
	Available   decimal.Decimal `json:"available"`
}

// AssetView is the enriched presentation of one asset: its live balance plus
// the per-partner ownership fan-out.
type AssetView struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	Currency       money.Currency  `json:"currency"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
	Balance        decimal.Decimal `json:"balance"`
	TotalReceived  decimal.Decimal `json:"totalReceived"`
	TotalWithdrawn decimal.Decimal `json:"totalWithdrawn"`
	Unattributed   decimal.Decimal `json:"unattributed"`
	IsExpandable   bool            `json:"isExpandable"`
	Owners         []OwnerView     `json:"owners"`
}

// Service resolves live balances and ownership views from the current ledger
// state. Resolution is a pure fold over the snapshot, so the service carries
// no state of its own.
type Service struct {
	source SnapshotSource
}

// NewService builds a Service instance.
func NewService(source SnapshotSource) *Service {
	return &Service{source: source}
}

// EnrichedAssets resolves every asset with its ownership breakdown.
func (s *Service) EnrichedAssets(ctx context.Context) ([]AssetView, error) {
	snap, err := s.source.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	resolved, err := ResolveAll(ctx, snap)
	if err != nil {
		return nil, err
	}
	views := make([]AssetView, 0, len(resolved))
	for _, rb := range resolved {
		views = append(views, toView(snap, rb))
	}
	return views, nil
}

// AssetView resolves a single asset with its ownership breakdown.
func (s *Service) AssetView(ctx context.Context, assetID uuid.UUID) (AssetView, error) {
	snap, err := s.source.Snapshot(ctx)
	if err != nil {
		return AssetView{}, err
	}
	resolved, err := Resolve(snap, assetID)
	if err != nil {
		return AssetView{}, err
	}
	return toView(snap, resolved), nil
}

func toView(snap *ledger.Snapshot, rb AssetBalance) AssetView {
	view := AssetView{
		ID:             rb.Asset.ID,
		Name:           rb.Asset.Name,
		Currency:       rb.Asset.Currency,
		OpeningBalance: rb.Asset.OpeningBalance,
		Balance:        rb.Balance,
		TotalReceived:  rb.TotalReceived,
		TotalWithdrawn: rb.TotalWithdrawn,
		Unattributed:   rb.Unattributed,
		IsExpandable:   rb.IsExpandable,
		Owners:         make([]OwnerView, 0, len(rb.Owners)),
	}
	for _, o := range rb.Owners {
		name := ""
		if partner, ok := snap.Partner(o.PartnerID); ok {
			name = partner.Name
		}
		view.Owners = append(view.Owners, OwnerView{
			PartnerID:   o.PartnerID,
			PartnerName: name,
			Received:    o.Received,
			Withdrawn:   o.Withdrawn,
			Available:   o.Received.Sub(o.Withdrawn),
		})
	}
	return view
}
