/*
collectors.go - Concrete metric collectors

Each collector owns a mutex guarding its internal state; incremental
updates from concurrent purchases interleave safely with the periodic
rebuild. Snapshot accessors copy state out, never leak internals.
*/
package metrics

import (
	"sort"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/warp/shop-engine/shop"
)

// =============================================================================
// BALANCE COLLECTOR (accounts)
// =============================================================================

// BalanceTotals is the aggregate view over all visible accounts.
type BalanceTotals struct {
	Accounts     int
	TotalBalance decimal.Decimal
	TotalSpent   decimal.Decimal
}

// BalanceCollector tracks account count, summed balance, and summed spend.
// UpdateAccount replaces the account's previous contribution, so repeated
// updates for the same account converge instead of double-counting.
type BalanceCollector struct {
	mu   sync.Mutex
	seen map[shop.AccountID]shop.Account
}

func NewBalanceCollector() *BalanceCollector {
	return &BalanceCollector{seen: make(map[shop.AccountID]shop.Account)}
}

func (c *BalanceCollector) Name() string { return "balance" }

func (c *BalanceCollector) InitAccounts(accounts []shop.Account) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seen = make(map[shop.AccountID]shop.Account, len(accounts))
	for _, a := range accounts {
		c.seen[a.ID] = a
	}
}

func (c *BalanceCollector) UpdateAccount(a shop.Account) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if a.Hidden {
		delete(c.seen, a.ID)
		return
	}
	c.seen[a.ID] = a
}

func (c *BalanceCollector) RemoveAccount(a shop.Account) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.seen, a.ID)
}

// Totals returns the current aggregate.
func (c *BalanceCollector) Totals() BalanceTotals {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := BalanceTotals{
		Accounts:     len(c.seen),
		TotalBalance: decimal.Zero,
		TotalSpent:   decimal.Zero,
	}
	for _, a := range c.seen {
		t.TotalBalance = t.TotalBalance.Add(a.Balance)
		t.TotalSpent = t.TotalSpent.Add(a.TotalSpent)
	}
	return t
}

// =============================================================================
// ITEM SALES COLLECTOR (history)
// =============================================================================

// ItemSales is one item's ranking entry.
type ItemSales struct {
	ItemID   shop.ItemID
	Quantity int
}

// ItemSalesCollector counts purchased quantity per item.
type ItemSalesCollector struct {
	mu     sync.Mutex
	counts map[shop.ItemID]int
}

func NewItemSalesCollector() *ItemSalesCollector {
	return &ItemSalesCollector{counts: make(map[shop.ItemID]int)}
}

func (c *ItemSalesCollector) Name() string { return "item_sales" }

func (c *ItemSalesCollector) InitHistory(entries []shop.HistoryEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.counts = make(map[shop.ItemID]int)
	for _, e := range entries {
		c.counts[e.ItemID] += e.Quantity
	}
}

func (c *ItemSalesCollector) UpdateHistoryEntry(e shop.HistoryEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[e.ItemID] += e.Quantity
}

func (c *ItemSalesCollector) RemoveHistoryEntry(e shop.HistoryEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[e.ItemID] -= e.Quantity
	if c.counts[e.ItemID] <= 0 {
		delete(c.counts, e.ItemID)
	}
}

// Top returns up to n items by quantity sold, descending. Ties break by
// item id for deterministic output.
func (c *ItemSalesCollector) Top(n int) []ItemSales {
	c.mu.Lock()
	defer c.mu.Unlock()

	ranked := make([]ItemSales, 0, len(c.counts))
	for id, q := range c.counts {
		ranked = append(ranked, ItemSales{ItemID: id, Quantity: q})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Quantity != ranked[j].Quantity {
			return ranked[i].Quantity > ranked[j].Quantity
		}
		return ranked[i].ItemID < ranked[j].ItemID
	})
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

// =============================================================================
// SPENDER COLLECTOR (history)
// =============================================================================

// SpenderTotal is one buyer's ranking entry.
type SpenderTotal struct {
	AccountID shop.AccountID
	Spent     decimal.Decimal
}

// SpenderCollector sums amount paid per buyer account.
type SpenderCollector struct {
	mu    sync.Mutex
	spent map[shop.AccountID]decimal.Decimal
}

func NewSpenderCollector() *SpenderCollector {
	return &SpenderCollector{spent: make(map[shop.AccountID]decimal.Decimal)}
}

func (c *SpenderCollector) Name() string { return "spenders" }

func (c *SpenderCollector) InitHistory(entries []shop.HistoryEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.spent = make(map[shop.AccountID]decimal.Decimal)
	for _, e := range entries {
		c.spent[e.AccountID] = c.spent[e.AccountID].Add(e.AmountPaid)
	}
}

func (c *SpenderCollector) UpdateHistoryEntry(e shop.HistoryEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.spent[e.AccountID] = c.spent[e.AccountID].Add(e.AmountPaid)
}

func (c *SpenderCollector) RemoveHistoryEntry(e shop.HistoryEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	remaining := c.spent[e.AccountID].Sub(e.AmountPaid)
	if remaining.IsPositive() {
		c.spent[e.AccountID] = remaining
	} else {
		delete(c.spent, e.AccountID)
	}
}

// Top returns up to n buyers by total spend, descending.
func (c *SpenderCollector) Top(n int) []SpenderTotal {
	c.mu.Lock()
	defer c.mu.Unlock()

	ranked := make([]SpenderTotal, 0, len(c.spent))
	for id, s := range c.spent {
		ranked = append(ranked, SpenderTotal{AccountID: id, Spent: s})
	}
	sort.Slice(ranked, func(i, j int) bool {
		cmp := ranked[i].Spent.Cmp(ranked[j].Spent)
		if cmp != 0 {
			return cmp > 0
		}
		return ranked[i].AccountID < ranked[j].AccountID
	})
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

// =============================================================================
// HOURLY ACTIVITY COLLECTOR (history)
// =============================================================================

// HourlyActivityCollector histograms purchases by hour of day (0-23).
type HourlyActivityCollector struct {
	mu    sync.Mutex
	hours [24]int
}

func NewHourlyActivityCollector() *HourlyActivityCollector {
	return &HourlyActivityCollector{}
}

func (c *HourlyActivityCollector) Name() string { return "hourly_activity" }

func (c *HourlyActivityCollector) InitHistory(entries []shop.HistoryEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.hours = [24]int{}
	for _, e := range entries {
		c.hours[e.CreatedAt.Hour()]++
	}
}

func (c *HourlyActivityCollector) UpdateHistoryEntry(e shop.HistoryEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hours[e.CreatedAt.Hour()]++
}

func (c *HourlyActivityCollector) RemoveHistoryEntry(e shop.HistoryEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hours[e.CreatedAt.Hour()] > 0 {
		c.hours[e.CreatedAt.Hour()]--
	}
}

// Histogram returns purchase counts per hour of day.
func (c *HourlyActivityCollector) Histogram() [24]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hours
}
