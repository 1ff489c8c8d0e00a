/*
authorize.go - The purchase state machine

PURPOSE:
  Consume() is the single entry point for purchases. It validates inputs,
  evaluates the role-based permission matrix, enforces the per-bearer
  cooldown, invokes the fund transfer, and on success records history and
  notifies the metric registry.

VALIDATION ORDER (each failure short-circuits with no side effect):
  1. quantity >= 1
  2. item exists and is enabled; buyer exists and is enabled
  3. if bearer != buyer, bearer exists and is enabled
  4. permission matrix by role
  5. bearer not inside its cooldown window (atomic reserve)

PERMISSION MATRIX:
  unassigned  -> always denied
  admin       -> always allowed, on anyone's behalf
  kiosk       -> allowed iff the buyer opted in (Account.Kiosk)
  member      -> allowed iff bearer == buyer (self-checkout)

FAILURE DOMAINS:
  A failed transfer means the purchase never happened: the cooldown
  reservation is released unstamped, no history entry is written, and no
  metric update fires. Metric notification itself is best-effort and can
  never roll back a committed transfer.

SEE ALSO:
  - cooldown.go: Reserve/Commit/Release semantics
  - ledger/ledger.go: The Transferrer implementation
  - metrics/registry.go: The MetricSink implementation
*/
package shop

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCooldownWindow throttles repeat purchases by the same bearer.
const DefaultCooldownWindow = 5 * time.Second

// =============================================================================
// COLLABORATOR CONTRACTS
// =============================================================================

// Transferrer is the atomic fund-movement primitive. It is consumed here,
// implemented elsewhere (ledger package in this repo).
//
// Contract: atomic (balances never observed half-updated); rejects
// non-positive or malformed amounts; fails with a nil record and no
// mutation when validation fails. Never retried by the authorizer.
type Transferrer interface {
	Transfer(ctx context.Context, amount decimal.Decimal, payerID, payeeID AccountID, kind TransferKind) (*TransferRecord, error)
}

// MetricSink receives entity-change notifications after a committed
// purchase. Implementations must be safe for concurrent use and must not
// fail the purchase path; the authorizer fires and forgets.
type MetricSink interface {
	UpdateAccount(a Account)
	UpdateHistoryEntry(e HistoryEntry)
}

// =============================================================================
// AUTHORIZER
// =============================================================================

// Authorizer coordinates a purchase end to end.
type Authorizer struct {
	Items     ItemStore
	Accounts  AccountStore
	History   HistoryStore
	Transfers Transferrer
	Cooldown  *CooldownGuard

	// Metrics is optional; nil disables notifications.
	Metrics MetricSink

	// ShopAccount, when set, receives purchase payments. When empty the
	// bearer is the payee (a kiosk terminal collecting into its own till).
	ShopAccount AccountID

	clock   Clock
	histSeq atomic.Int64
}

// NewAuthorizer wires an authorizer over the given collaborators.
// A nil clock defaults to time.Now.
func NewAuthorizer(items ItemStore, accounts AccountStore, history HistoryStore, transfers Transferrer, cooldown *CooldownGuard, clock Clock) *Authorizer {
	if clock == nil {
		clock = time.Now
	}
	return &Authorizer{
		Items:     items,
		Accounts:  accounts,
		History:   history,
		Transfers: transfers,
		Cooldown:  cooldown,
		clock:     clock,
	}
}

// Consume authorizes and executes a purchase of quantity units of itemID,
// paid by buyerID, initiated by bearerID acting under role. The boolean
// outcome is definite: permission denials, missing entities, cooldowns,
// and transfer failures all collapse to false so callers cannot probe for
// account existence.
func (a *Authorizer) Consume(ctx context.Context, itemID ItemID, buyerID AccountID, quantity int, bearerID AccountID, role Role) bool {
	if quantity < 1 {
		return false
	}

	item, err := a.Items.GetItem(ctx, itemID)
	if err != nil || item == nil || !item.Enabled {
		return false
	}
	buyer, err := a.Accounts.GetAccount(ctx, buyerID)
	if err != nil || buyer == nil || !buyer.Enabled {
		return false
	}
	if bearerID != buyerID {
		bearer, err := a.Accounts.GetAccount(ctx, bearerID)
		if err != nil || bearer == nil || !bearer.Enabled {
			return false
		}
	}

	if !a.HasBearerPermissions(ctx, itemID, buyerID, quantity, bearerID, role) {
		return false
	}

	if !a.Cooldown.Reserve(bearerID) {
		return false
	}

	total := item.Price.Mul(decimal.NewFromInt(int64(quantity)))
	rec, err := a.Transfers.Transfer(ctx, total, buyerID, a.payee(bearerID), KindPurchase)
	if err != nil || rec == nil {
		// The purchase never happened: no stamp, no history, no metrics.
		a.Cooldown.Release(bearerID)
		return false
	}

	entry := HistoryEntry{
		ID:         fmt.Sprintf("hist-%d-%d", a.clock().UnixNano(), a.histSeq.Add(1)),
		AccountID:  buyerID,
		ItemID:     itemID,
		Quantity:   quantity,
		AmountPaid: total,
		TransferID: rec.ID,
		CreatedAt:  a.clock(),
	}
	if err := a.History.AppendHistory(ctx, entry); err != nil {
		// The transfer is committed; history is best-effort from here.
		// The hourly metric rebuild corrects any resulting drift.
		a.Cooldown.Commit(bearerID)
		return true
	}

	a.Cooldown.Commit(bearerID)
	a.notify(ctx, buyerID, entry)
	return true
}

// HasBearerPermissions evaluates the role matrix for a prospective
// purchase. Exported so administrative surfaces can pre-check without
// executing a transfer.
func (a *Authorizer) HasBearerPermissions(ctx context.Context, itemID ItemID, buyerID AccountID, quantity int, bearerID AccountID, role Role) bool {
	switch role {
	case RoleAdmin:
		return permitAdmin()
	case RoleKiosk:
		buyer, err := a.Accounts.GetAccount(ctx, buyerID)
		if err != nil || buyer == nil {
			return false
		}
		return permitKiosk(buyer)
	case RoleMember:
		return permitMember(buyerID, bearerID)
	default:
		return false
	}
}

// HasBearerCooldown reports whether the bearer is currently throttled.
func (a *Authorizer) HasBearerCooldown(bearerID AccountID) bool {
	return a.Cooldown.Active(bearerID)
}

// =============================================================================
// ROLE MATRIX - One evaluation function per role variant
// =============================================================================

func permitAdmin() bool { return true }

func permitKiosk(buyer *Account) bool { return buyer.Kiosk }

func permitMember(buyerID, bearerID AccountID) bool { return buyerID == bearerID }

// =============================================================================
// INTERNAL
// =============================================================================

func (a *Authorizer) payee(bearerID AccountID) AccountID {
	if a.ShopAccount != "" {
		return a.ShopAccount
	}
	return bearerID
}

// notify pushes the changed entities to the metric registry. Failures in
// a collector are its own problem (the registry isolates them); the
// purchase is already committed.
func (a *Authorizer) notify(ctx context.Context, buyerID AccountID, entry HistoryEntry) {
	if a.Metrics == nil {
		return
	}
	if buyer, err := a.Accounts.GetAccount(ctx, buyerID); err == nil && buyer != nil {
		a.Metrics.UpdateAccount(*buyer)
	}
	a.Metrics.UpdateHistoryEntry(entry)
}
