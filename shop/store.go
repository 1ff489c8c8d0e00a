/*
store.go - Persistence interfaces for shop entities

PURPOSE:
  Defines the boundary between the shop core and the database. The core
  consumes lookup-by-id, existence checks, and writes; implementations
  decide the schema.

IMPLEMENTATIONS:
  - shop/store/memory.go: In-memory (testing/dev)
  - store/sqlite/sqlite.go: Production SQLite

HISTORY IS APPEND-ONLY:
  HistoryStore has no update method. Entries are immutable once written;
  the only removal path is account deregistration handled by the
  surrounding application.

SEE ALSO:
  - catalog.go, authorize.go: Consumers of these interfaces
  - ledger/ledger.go: Mutates balances through AccountStore
*/
package shop

import "context"

// =============================================================================
// ACCOUNT STORE
// =============================================================================

// AccountStore provides account lookup and persistence.
// GetAccount returns (nil, nil) when no account exists for the id.
type AccountStore interface {
	GetAccount(ctx context.Context, id AccountID) (*Account, error)
	SaveAccount(ctx context.Context, a Account) error

	// ListAccounts returns all accounts. With includeHidden=false,
	// accounts flagged hidden are excluded (metric snapshots use this).
	ListAccounts(ctx context.Context, includeHidden bool) ([]Account, error)
}

// =============================================================================
// ITEM STORE
// =============================================================================

// ItemStore provides catalog item persistence.
// GetItem returns (nil, nil) when no item exists for the id.
type ItemStore interface {
	GetItem(ctx context.Context, id ItemID) (*Item, error)
	ItemExists(ctx context.Context, id ItemID) (bool, error)
	SaveItem(ctx context.Context, item Item) error
	DeleteItem(ctx context.Context, id ItemID) error
	ListItems(ctx context.Context) ([]Item, error)
}

// =============================================================================
// HISTORY STORE - Append-only purchase history
// =============================================================================

// HistoryPage is one page of history entries, newest first.
type HistoryPage struct {
	Entries    []HistoryEntry
	Page       int
	Size       int
	TotalCount int
}

type HistoryStore interface {
	AppendHistory(ctx context.Context, e HistoryEntry) error

	// ListHistory returns a page of entries, newest first. A non-empty
	// accountID filters to that buyer. Page is zero-based; size is
	// clamped by the caller to [1,100].
	ListHistory(ctx context.Context, page, size int, accountID AccountID) (HistoryPage, error)

	// HistoryByAccount returns all entries for one buyer (metric removal
	// on deregistration walks these).
	HistoryByAccount(ctx context.Context, id AccountID) ([]HistoryEntry, error)

	// AllHistory returns every entry. Metric rebuilds recompute from this.
	AllHistory(ctx context.Context) ([]HistoryEntry, error)
}

// =============================================================================
// TRANSFER STORE - Records produced by the ledger
// =============================================================================

type TransferStore interface {
	AppendTransfer(ctx context.Context, rec TransferRecord) error
	ListTransfers(ctx context.Context, accountID AccountID) ([]TransferRecord, error)
}
