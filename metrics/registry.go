/*
Package metrics maintains live aggregate statistics over shop entities.

PURPOSE:
  A registry of independent collectors, each registered against one entity
  category (account, item, history entry). Collectors receive:
    - Rebuild:  full recompute from a snapshot (the source of truth)
    - Update*:  incremental incorporation of one created/changed entity
    - Remove*:  incremental removal of one entity's contribution

  The periodic Rebuild (see scheduler.go) bounds drift from any missed or
  double-applied incremental update: aggregates are always a pure function
  of the entity set and are eventually corrected by the next cycle.

ISOLATION:
  Collectors are mutually independent. Every call into a collector runs
  under recover(); a panicking collector is logged and skipped, and can
  never poison a sibling or roll back an already-committed purchase. The
  registry supports any number of collectors per category, and callers
  (the authorizer in particular) never know collector identities.

DISPATCH:
  Explicit typed interfaces keyed by category, iterated in registration
  order. No reflection.

SEE ALSO:
  - collectors.go: The concrete collectors
  - scheduler.go: The periodic full rebuild
  - shop/authorize.go: Fires UpdateAccount/UpdateHistoryEntry on purchase
*/
package metrics

import (
	"log"

	"github.com/warp/shop-engine/shop"
)

// =============================================================================
// CATEGORIES AND COLLECTOR CONTRACTS
// =============================================================================

// Category is the entity class a collector aggregates over.
type Category string

const (
	CategoryAccount Category = "account"
	CategoryItem    Category = "item"
	CategoryHistory Category = "history"
)

// AccountCollector aggregates over accounts. InitAccounts receives the
// full visible set (hidden accounts already excluded) and must discard
// prior state.
type AccountCollector interface {
	Name() string
	InitAccounts(accounts []shop.Account)
	UpdateAccount(a shop.Account)
	RemoveAccount(a shop.Account)
}

// ItemCollector aggregates over catalog items.
type ItemCollector interface {
	Name() string
	InitItems(items []shop.Item)
	UpdateItem(item shop.Item)
	RemoveItem(item shop.Item)
}

// HistoryCollector aggregates over purchase history entries.
type HistoryCollector interface {
	Name() string
	InitHistory(entries []shop.HistoryEntry)
	UpdateHistoryEntry(e shop.HistoryEntry)
	RemoveHistoryEntry(e shop.HistoryEntry)
}

// Snapshot is the full entity set a rebuild recomputes from. Accounts
// must already exclude hidden ones; the stores' ListAccounts(false)
// provides exactly that.
type Snapshot struct {
	Accounts []shop.Account
	Items    []shop.Item
	History  []shop.HistoryEntry
}

// =============================================================================
// REGISTRY
// =============================================================================

// Registry fans entity changes out to registered collectors.
// It implements shop.MetricSink.
type Registry struct {
	accounts []AccountCollector
	items    []ItemCollector
	history  []HistoryCollector
}

func NewRegistry() *Registry {
	return &Registry{}
}

// RegisterAccountCollector adds a collector for the account category.
// Registration happens during wiring, before concurrent use.
func (r *Registry) RegisterAccountCollector(c AccountCollector) {
	r.accounts = append(r.accounts, c)
}

func (r *Registry) RegisterItemCollector(c ItemCollector) {
	r.items = append(r.items, c)
}

func (r *Registry) RegisterHistoryCollector(c HistoryCollector) {
	r.history = append(r.history, c)
}

// Rebuild discards all collector state and recomputes it from the
// snapshot. This is initAll for every category and the source of truth
// that corrects incremental drift.
func (r *Registry) Rebuild(snap Snapshot) {
	for _, c := range r.accounts {
		guard(c.Name(), func() { c.InitAccounts(snap.Accounts) })
	}
	for _, c := range r.items {
		guard(c.Name(), func() { c.InitItems(snap.Items) })
	}
	for _, c := range r.history {
		guard(c.Name(), func() { c.InitHistory(snap.History) })
	}
}

// UpdateAccount incrementally incorporates one account into every
// account-category collector.
func (r *Registry) UpdateAccount(a shop.Account) {
	for _, c := range r.accounts {
		guard(c.Name(), func() { c.UpdateAccount(a) })
	}
}

// RemoveAccount removes one account's contribution (deregistration path,
// invoked by the surrounding application).
func (r *Registry) RemoveAccount(a shop.Account) {
	for _, c := range r.accounts {
		guard(c.Name(), func() { c.RemoveAccount(a) })
	}
}

func (r *Registry) UpdateItem(item shop.Item) {
	for _, c := range r.items {
		guard(c.Name(), func() { c.UpdateItem(item) })
	}
}

func (r *Registry) RemoveItem(item shop.Item) {
	for _, c := range r.items {
		guard(c.Name(), func() { c.RemoveItem(item) })
	}
}

func (r *Registry) UpdateHistoryEntry(e shop.HistoryEntry) {
	for _, c := range r.history {
		guard(c.Name(), func() { c.UpdateHistoryEntry(e) })
	}
}

func (r *Registry) RemoveHistoryEntry(e shop.HistoryEntry) {
	for _, c := range r.history {
		guard(c.Name(), func() { c.RemoveHistoryEntry(e) })
	}
}

// guard isolates one collector call: a panic is logged and swallowed so
// one broken collector cannot take down the others or the purchase path.
func guard(name string, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[Metrics] collector %s panicked: %v", name, rec)
		}
	}()
	fn()
}

// Compile-time check that Registry satisfies the authorizer's sink contract.
var _ shop.MetricSink = (*Registry)(nil)
