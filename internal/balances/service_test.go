package balances

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/sobook-erp/sobook/internal/ledger"
)

type staticSource struct {
	snap *ledger.Snapshot
}

func (s staticSource) Snapshot(context.Context) (*ledger.Snapshot, error) {
	return s.snap, nil
}

func TestEnrichedAssetsAnnotatesPartnerNames(t *testing.T) {
	snap, self, asset := baseSnapshot()
	day := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	snap.CapitalInflows = []ledger.CapitalInflow{
		{ID: uuid.New(), AssetID: asset.ID, Amount: d(2_000_000), Date: day},
	}

	svc := NewService(staticSource{snap: snap})
	views, err := svc.EnrichedAssets(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 1)

	view := views[0]
	require.Equal(t, asset.ID, view.ID)
	require.True(t, view.Balance.Equal(d(2_000_000)))
	require.Len(t, view.Owners, 1)
	require.Equal(t, self.Name, view.Owners[0].PartnerName)
	require.True(t, view.Owners[0].Available.Equal(d(2_000_000)))
}

func TestAssetViewUnknownAsset(t *testing.T) {
	snap, _, _ := baseSnapshot()
	svc := NewService(staticSource{snap: snap})

	_, err := svc.AssetView(context.Background(), uuid.New())
	require.ErrorIs(t, err, ledger.ErrNotFound)
}
