package sqlite_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/shop-engine/shop"
	"github.com/warp/shop-engine/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAccounts_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	missing, err := s.GetAccount(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, missing, "missing account is (nil, nil), not an error")

	a := shop.NewAccount("alice", "Alice", "alice@example.org")
	a.Balance = decimal.RequireFromString("12.34")
	a.TotalSpent = decimal.RequireFromString("5.00")
	a.Kiosk = true
	require.NoError(t, s.SaveAccount(ctx, a))

	got, err := s.GetAccount(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Alice", got.DisplayName)
	assert.Equal(t, "alice@example.org", got.Email)
	assert.True(t, got.Kiosk)
	assert.True(t, got.Enabled)
	assert.True(t, got.Balance.Equal(a.Balance), "decimal survives the TEXT round trip exactly")
	assert.True(t, got.TotalSpent.Equal(a.TotalSpent))

	// Save is an upsert.
	a.Balance = decimal.RequireFromString("-2.50")
	require.NoError(t, s.SaveAccount(ctx, a))
	got, err = s.GetAccount(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "-2.50", got.Balance.StringFixed(2))
}

func TestListAccounts_HiddenFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	visible := shop.NewAccount("alice", "Alice", "")
	hidden := shop.NewAccount("treasury", "Treasury", "")
	hidden.Hidden = true
	require.NoError(t, s.SaveAccount(ctx, visible))
	require.NoError(t, s.SaveAccount(ctx, hidden))

	all, err := s.ListAccounts(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	shown, err := s.ListAccounts(ctx, false)
	require.NoError(t, err)
	require.Len(t, shown, 1)
	assert.Equal(t, shop.AccountID("alice"), shown[0].ID)
}

func TestItems_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	exists, err := s.ItemExists(ctx, "coffee")
	require.NoError(t, err)
	assert.False(t, exists)

	item := shop.Item{
		ID:          "coffee",
		Category:    "drinks",
		DisplayName: "Coffee",
		Price:       decimal.RequireFromString("0.50"),
		Enabled:     true,
	}
	require.NoError(t, s.SaveItem(ctx, item))

	exists, err = s.ItemExists(ctx, "coffee")
	require.NoError(t, err)
	assert.True(t, exists)

	got, err := s.GetItem(ctx, "coffee")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "0.50", got.Price.StringFixed(2))

	require.NoError(t, s.DeleteItem(ctx, "coffee"))
	got, err = s.GetItem(ctx, "coffee")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestHistory_PagingNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 12; i++ {
		account := shop.AccountID("alice")
		if i%2 == 1 {
			account = "bob"
		}
		require.NoError(t, s.AppendHistory(ctx, shop.HistoryEntry{
			ID:         fmt.Sprintf("hist-%02d", i),
			AccountID:  account,
			ItemID:     "coffee",
			Quantity:   1,
			AmountPaid: decimal.RequireFromString("0.50"),
			TransferID: fmt.Sprintf("tx-%02d", i),
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}))
	}

	page, err := s.ListHistory(ctx, 0, 5, "")
	require.NoError(t, err)
	assert.Equal(t, 12, page.TotalCount)
	require.Len(t, page.Entries, 5)
	assert.Equal(t, "hist-11", page.Entries[0].ID)
	assert.Equal(t, "hist-07", page.Entries[4].ID)

	page, err = s.ListHistory(ctx, 2, 5, "")
	require.NoError(t, err)
	assert.Len(t, page.Entries, 2, "last page holds the remainder")

	filtered, err := s.ListHistory(ctx, 0, 10, "bob")
	require.NoError(t, err)
	assert.Equal(t, 6, filtered.TotalCount)
	for _, e := range filtered.Entries {
		assert.Equal(t, shop.AccountID("bob"), e.AccountID)
	}

	byAccount, err := s.HistoryByAccount(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, byAccount, 6)

	all, err := s.AllHistory(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 12)
}

func TestTransfers_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := shop.TransferRecord{
		ID:        "tx-1",
		PayerID:   "alice",
		PayeeID:   "kiosk",
		Kind:      shop.KindPurchase,
		Amount:    decimal.RequireFromString("1.50"),
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.AppendTransfer(ctx, rec))
	require.NoError(t, s.AppendTransfer(ctx, shop.TransferRecord{
		ID:        "tx-2",
		PayerID:   "bob",
		PayeeID:   "carol",
		Kind:      shop.KindDeposit,
		Amount:    decimal.RequireFromString("10.00"),
		CreatedAt: time.Now().UTC(),
	}))

	all, err := s.ListTransfers(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// The account filter matches payer or payee side.
	byAlice, err := s.ListTransfers(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, byAlice, 1)
	assert.Equal(t, "tx-1", byAlice[0].ID)
	assert.Equal(t, shop.KindPurchase, byAlice[0].Kind)
	assert.True(t, byAlice[0].Amount.Equal(rec.Amount))

	byCarol, err := s.ListTransfers(ctx, "carol")
	require.NoError(t, err)
	assert.Len(t, byCarol, 1)
}
