package metrics_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/shop-engine/metrics"
	"github.com/warp/shop-engine/shop"
	memstore "github.com/warp/shop-engine/shop/store"
)

func entry(account shop.AccountID, item shop.ItemID, quantity int, paid string, at time.Time) shop.HistoryEntry {
	return shop.HistoryEntry{
		ID:         string(account) + "-" + string(item) + "-" + at.Format(time.RFC3339Nano),
		AccountID:  account,
		ItemID:     item,
		Quantity:   quantity,
		AmountPaid: decimal.RequireFromString(paid),
		CreatedAt:  at,
	}
}

// =============================================================================
// COLLECTORS
// =============================================================================

func TestBalanceCollector_Totals(t *testing.T) {
	c := metrics.NewBalanceCollector()

	a := shop.NewAccount("a", "A", "")
	a.Balance = decimal.RequireFromString("10.00")
	a.TotalSpent = decimal.RequireFromString("2.00")
	b := shop.NewAccount("b", "B", "")
	b.Balance = decimal.RequireFromString("-3.00")
	c.InitAccounts([]shop.Account{a, b})

	totals := c.Totals()
	assert.Equal(t, 2, totals.Accounts)
	assert.Equal(t, "7.00", totals.TotalBalance.StringFixed(2))
	assert.Equal(t, "2.00", totals.TotalSpent.StringFixed(2))

	// Repeated updates for one account replace, never double-count.
	a.Balance = decimal.RequireFromString("20.00")
	c.UpdateAccount(a)
	c.UpdateAccount(a)
	assert.Equal(t, "17.00", c.Totals().TotalBalance.StringFixed(2))
}

func TestBalanceCollector_HiddenAccountDropsOut(t *testing.T) {
	c := metrics.NewBalanceCollector()
	a := shop.NewAccount("a", "A", "")
	a.Balance = decimal.RequireFromString("10.00")
	c.InitAccounts([]shop.Account{a})

	a.Hidden = true
	c.UpdateAccount(a)
	assert.Equal(t, 0, c.Totals().Accounts, "hiding an account removes its contribution")
}

func TestItemSalesCollector_Ranking(t *testing.T) {
	c := metrics.NewItemSalesCollector()
	now := time.Now()

	c.InitHistory([]shop.HistoryEntry{
		entry("a", "coffee", 3, "1.50", now),
		entry("b", "coffee", 2, "1.00", now),
		entry("a", "mate", 4, "6.00", now),
		entry("b", "chocolate", 1, "1.20", now),
	})

	top := c.Top(2)
	require.Len(t, top, 2)
	assert.Equal(t, shop.ItemID("coffee"), top[0].ItemID)
	assert.Equal(t, 5, top[0].Quantity)
	assert.Equal(t, shop.ItemID("mate"), top[1].ItemID)

	c.RemoveHistoryEntry(entry("b", "chocolate", 1, "1.20", now))
	assert.Len(t, c.Top(10), 2, "fully removed items leave the ranking")
}

func TestSpenderCollector_Ranking(t *testing.T) {
	c := metrics.NewSpenderCollector()
	now := time.Now()

	c.UpdateHistoryEntry(entry("alice", "coffee", 1, "0.50", now))
	c.UpdateHistoryEntry(entry("alice", "mate", 2, "3.00", now))
	c.UpdateHistoryEntry(entry("bob", "coffee", 1, "0.50", now))

	top := c.Top(10)
	require.Len(t, top, 2)
	assert.Equal(t, shop.AccountID("alice"), top[0].AccountID)
	assert.Equal(t, "3.50", top[0].Spent.StringFixed(2))
	assert.Equal(t, shop.AccountID("bob"), top[1].AccountID)
}

func TestHourlyActivityCollector_Histogram(t *testing.T) {
	c := metrics.NewHourlyActivityCollector()
	at := time.Date(2026, 8, 29, 14, 30, 0, 0, time.UTC)

	c.UpdateHistoryEntry(entry("a", "coffee", 1, "0.50", at))
	c.UpdateHistoryEntry(entry("b", "coffee", 1, "0.50", at.Add(5*time.Minute)))
	c.UpdateHistoryEntry(entry("a", "mate", 1, "1.50", at.Add(-3*time.Hour)))

	h := c.Histogram()
	assert.Equal(t, 2, h[14])
	assert.Equal(t, 1, h[11])
}

// =============================================================================
// REGISTRY
// =============================================================================

// panicker blows up on every call to prove the registry isolates it.
type panicker struct{}

func (panicker) Name() string { return "panicker" }

func (panicker) InitHistory([]shop.HistoryEntry) { panic("boom") }

func (panicker) UpdateHistoryEntry(shop.HistoryEntry) { panic("boom") }

func (panicker) RemoveHistoryEntry(shop.HistoryEntry) { panic("boom") }

func TestRegistry_PanickingCollectorIsIsolated(t *testing.T) {
	reg := metrics.NewRegistry()
	sales := metrics.NewItemSalesCollector()
	reg.RegisterHistoryCollector(panicker{})
	reg.RegisterHistoryCollector(sales)

	e := entry("alice", "coffee", 2, "1.00", time.Now())
	assert.NotPanics(t, func() {
		reg.UpdateHistoryEntry(e)
		reg.Rebuild(metrics.Snapshot{History: []shop.HistoryEntry{e}})
	})

	top := sales.Top(1)
	require.Len(t, top, 1)
	assert.Equal(t, 2, top[0].Quantity, "healthy siblings keep working")
}

func TestRegistry_RebuildMatchesIncremental(t *testing.T) {
	// Feeding entries incrementally and rebuilding from the same set must
	// produce identical aggregates.
	now := time.Now()
	entries := []shop.HistoryEntry{
		entry("alice", "coffee", 1, "0.50", now),
		entry("alice", "mate", 2, "3.00", now),
		entry("bob", "coffee", 3, "1.50", now),
	}

	incremental := metrics.NewItemSalesCollector()
	for _, e := range entries {
		incremental.UpdateHistoryEntry(e)
	}

	rebuilt := metrics.NewItemSalesCollector()
	reg := metrics.NewRegistry()
	reg.RegisterHistoryCollector(rebuilt)
	reg.Rebuild(metrics.Snapshot{History: entries})

	assert.Equal(t, incremental.Top(10), rebuilt.Top(10))
}

func TestRegistry_RebuildDiscardsPriorState(t *testing.T) {
	reg := metrics.NewRegistry()
	sales := metrics.NewItemSalesCollector()
	reg.RegisterHistoryCollector(sales)

	reg.UpdateHistoryEntry(entry("alice", "ghost", 9, "9.00", time.Now()))
	reg.Rebuild(metrics.Snapshot{History: nil})

	assert.Empty(t, sales.Top(10), "a rebuild from an empty set clears everything")
}

// =============================================================================
// SNAPSHOT SOURCE AND SCHEDULER
// =============================================================================

func TestStoreSource_ExcludesHiddenAccounts(t *testing.T) {
	mem := memstore.NewMemory()
	ctx := context.Background()

	visible := shop.NewAccount("alice", "Alice", "")
	hidden := shop.NewAccount("treasury", "Treasury", "")
	hidden.Hidden = true
	require.NoError(t, mem.SaveAccount(ctx, visible))
	require.NoError(t, mem.SaveAccount(ctx, hidden))

	snap, err := metrics.StoreSource{Accounts: mem, Items: mem, History: mem}.MetricSnapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Accounts, 1)
	assert.Equal(t, shop.AccountID("alice"), snap.Accounts[0].ID)
}

func TestResetScheduler_RunNowRebuilds(t *testing.T) {
	mem := memstore.NewMemory()
	ctx := context.Background()
	require.NoError(t, mem.AppendHistory(ctx, entry("alice", "coffee", 2, "1.00", time.Now())))

	reg := metrics.NewRegistry()
	sales := metrics.NewItemSalesCollector()
	reg.RegisterHistoryCollector(sales)

	scheduler := metrics.NewResetScheduler(reg, metrics.StoreSource{Accounts: mem, Items: mem, History: mem})
	scheduler.RunNow()

	top := sales.Top(1)
	require.Len(t, top, 1)
	assert.Equal(t, shop.ItemID("coffee"), top[0].ItemID)
}

func TestResetScheduler_StartStop(t *testing.T) {
	mem := memstore.NewMemory()
	reg := metrics.NewRegistry()
	reg.RegisterHistoryCollector(metrics.NewItemSalesCollector())

	scheduler := metrics.NewResetScheduler(reg, metrics.StoreSource{Accounts: mem, Items: mem, History: mem})
	scheduler.Interval = 10 * time.Millisecond
	scheduler.Start()
	time.Sleep(25 * time.Millisecond)
	assert.NotPanics(t, scheduler.Stop)
}
