// Package store provides an in-memory implementation of the shop storage
// interfaces, used by tests and the dev server.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/shop-engine/shop"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements shop.AccountStore, shop.ItemStore, shop.HistoryStore
// and shop.TransferStore with RWMutex-guarded maps. Reads hand out copies;
// callers never share memory with the store.
type Memory struct {
	mu        sync.RWMutex
	accounts  map[shop.AccountID]shop.Account
	items     map[shop.ItemID]shop.Item
	history   []shop.HistoryEntry
	transfers []shop.TransferRecord
}

func NewMemory() *Memory {
	return &Memory{
		accounts: make(map[shop.AccountID]shop.Account),
		items:    make(map[shop.ItemID]shop.Item),
	}
}

// =============================================================================
// ACCOUNTS
// =============================================================================

func (m *Memory) GetAccount(_ context.Context, id shop.AccountID) (*shop.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.accounts[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (m *Memory) SaveAccount(_ context.Context, a shop.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.accounts[a.ID] = a
	return nil
}

func (m *Memory) ListAccounts(_ context.Context, includeHidden bool) ([]shop.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]shop.Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		if !includeHidden && a.Hidden {
			continue
		}
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// =============================================================================
// ITEMS
// =============================================================================

func (m *Memory) GetItem(_ context.Context, id shop.ItemID) (*shop.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	item, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (m *Memory) ItemExists(_ context.Context, id shop.ItemID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.items[id]
	return ok, nil
}

func (m *Memory) SaveItem(_ context.Context, item shop.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[item.ID] = item
	return nil
}

func (m *Memory) DeleteItem(_ context.Context, id shop.ItemID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, id)
	return nil
}

func (m *Memory) ListItems(_ context.Context) ([]shop.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]shop.Item, 0, len(m.items))
	for _, item := range m.items {
		result = append(result, item)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// =============================================================================
// HISTORY
// =============================================================================

func (m *Memory) AppendHistory(_ context.Context, e shop.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.history = append(m.history, e)
	return nil
}

func (m *Memory) ListHistory(_ context.Context, page, size int, accountID shop.AccountID) (shop.HistoryPage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var filtered []shop.HistoryEntry
	for _, e := range m.history {
		if accountID != "" && e.AccountID != accountID {
			continue
		}
		filtered = append(filtered, e)
	}

	// Newest first.
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})

	start := page * size
	if start > len(filtered) {
		start = len(filtered)
	}
	end := start + size
	if end > len(filtered) {
		end = len(filtered)
	}

	entries := make([]shop.HistoryEntry, end-start)
	copy(entries, filtered[start:end])

	return shop.HistoryPage{
		Entries:    entries,
		Page:       page,
		Size:       size,
		TotalCount: len(filtered),
	}, nil
}

func (m *Memory) AllHistory(_ context.Context) ([]shop.HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]shop.HistoryEntry, len(m.history))
	copy(result, m.history)
	return result, nil
}

func (m *Memory) HistoryByAccount(_ context.Context, id shop.AccountID) ([]shop.HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []shop.HistoryEntry
	for _, e := range m.history {
		if e.AccountID == id {
			result = append(result, e)
		}
	}
	return result, nil
}

// =============================================================================
// TRANSFERS
// =============================================================================

func (m *Memory) AppendTransfer(_ context.Context, rec shop.TransferRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.transfers = append(m.transfers, rec)
	return nil
}

func (m *Memory) ListTransfers(_ context.Context, accountID shop.AccountID) ([]shop.TransferRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []shop.TransferRecord
	for _, rec := range m.transfers {
		if accountID == "" || rec.PayerID == accountID || rec.PayeeID == accountID {
			result = append(result, rec)
		}
	}
	return result, nil
}
