package balances

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sobook-erp/sobook/internal/ledger"
)

// Rules adapts the resolver to the write-side checks the ledger service
// performs before accepting withdrawals, exchanges and placements.
type Rules struct{}

// Balance returns the asset's current resolved balance.
func (Rules) Balance(snap *ledger.Snapshot, assetID uuid.UUID) (decimal.Decimal, error) {
	resolved, err := Resolve(snap, assetID)
	if err != nil {
		return decimal.Zero, err
	}
	return resolved.Balance, nil
}

// AvailableShare returns what the partner may still withdraw from the asset.
func (Rules) AvailableShare(snap *ledger.Snapshot, assetID, partnerID uuid.UUID) (decimal.Decimal, error) {
	return AvailableShare(snap, assetID, partnerID)
}
