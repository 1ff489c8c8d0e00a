/*
Package shop implements the kiosk shop core: the item catalog, the purchase
authorizer with its role matrix and per-bearer cooldown, and the entity types
shared by storage, ledger, and metrics.

KEY CONCEPTS IN THIS FILE (types.go):
  - Account: A member account with balance, spend total, and capability flags
  - Item: A purchasable catalog entry with a fixed-point price
  - TransferRecord: An immutable record of a completed fund movement
  - HistoryEntry: Links a purchase to its account, item, and transfer
  - Role: Closed enumeration of acting-party roles for the permission matrix

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal for all money, never floats
  2. Immutability: TransferRecord and HistoryEntry are never modified
  3. Type Safety: AccountID/ItemID prevent mixing identifier kinds

SEE ALSO:
  - catalog.go: Item mutation with price validation
  - authorize.go: The purchase state machine
  - cooldown.go: Per-bearer purchase throttling
*/
package shop

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type AccountID string
type ItemID string

// =============================================================================
// ACCOUNT - Member account (registration is external; transfers mutate it)
// =============================================================================

type Account struct {
	ID          AccountID
	Balance     decimal.Decimal
	TotalSpent  decimal.Decimal
	DisplayName string
	Email       string
	Enabled     bool

	// Kiosk marks the account as opted in to kiosk-initiated purchases:
	// a kiosk-role bearer may spend on this account's behalf.
	Kiosk bool

	// Hidden excludes the account from aggregate statistics.
	// The account itself stays fully functional.
	Hidden bool
}

// NewAccount returns an enabled account with zero balance and spend.
func NewAccount(id AccountID, displayName, email string) Account {
	return Account{
		ID:          id,
		Balance:     decimal.Zero,
		TotalSpent:  decimal.Zero,
		DisplayName: displayName,
		Email:       email,
		Enabled:     true,
	}
}

// =============================================================================
// ITEM - Catalog entry
// =============================================================================

type Item struct {
	ID          ItemID
	Category    string
	DisplayName string
	Price       decimal.Decimal
	Enabled     bool
}

// =============================================================================
// TRANSFER RECORD - Produced only by the ledger, immutable once created
// =============================================================================

type TransferKind string

const (
	KindPurchase   TransferKind = "purchase"
	KindDeposit    TransferKind = "deposit"
	KindAdjustment TransferKind = "adjustment"
)

type TransferRecord struct {
	ID        string
	PayerID   AccountID
	PayeeID   AccountID
	Kind      TransferKind
	Amount    decimal.Decimal
	CreatedAt time.Time
}

// =============================================================================
// HISTORY ENTRY - One purchase, immutable once created
// =============================================================================

type HistoryEntry struct {
	ID         string
	AccountID  AccountID
	ItemID     ItemID
	Quantity   int
	AmountPaid decimal.Decimal
	TransferID string
	CreatedAt  time.Time
}

// =============================================================================
// ROLE - Closed enumeration for the permission matrix
// =============================================================================

// Role identifies the capability class of the acting party (bearer).
// The permission matrix in authorize.go dispatches on this enumeration;
// there is deliberately no "custom role" escape hatch.
type Role string

const (
	RoleUnassigned Role = "unassigned" // no role granted, always denied
	RoleAdmin      Role = "admin"      // may purchase on anyone's behalf
	RoleKiosk      Role = "kiosk"      // may purchase for kiosk-eligible buyers
	RoleMember     Role = "member"     // self-checkout only
)

// ParseRole maps external role text onto the closed enumeration.
// Anything unrecognized collapses to RoleUnassigned (deny by default).
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleAdmin, RoleKiosk, RoleMember:
		return Role(s)
	default:
		return RoleUnassigned
	}
}

// =============================================================================
// CLOCK - Injectable time source
// =============================================================================

// Clock supplies the current time. Production wiring passes time.Now;
// tests substitute a fixed or stepped clock.
type Clock func() time.Time
