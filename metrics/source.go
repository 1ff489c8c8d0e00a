package metrics

import (
	"context"

	"github.com/warp/shop-engine/shop"
)

// StoreSource adapts the shop stores into a SnapshotSource. Hidden
// accounts are filtered here so no collector ever sees them in a rebuild.
type StoreSource struct {
	Accounts shop.AccountStore
	Items    shop.ItemStore
	History  shop.HistoryStore
}

func (s StoreSource) MetricSnapshot(ctx context.Context) (Snapshot, error) {
	accounts, err := s.Accounts.ListAccounts(ctx, false)
	if err != nil {
		return Snapshot{}, err
	}
	items, err := s.Items.ListItems(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	history, err := s.History.AllHistory(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Accounts: accounts, Items: items, History: history}, nil
}
