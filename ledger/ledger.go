/*
Package ledger implements the atomic fund-movement primitive consumed by
the shop authorizer.

PURPOSE:
  Transfer() moves an amount between two accounts and records an immutable
  TransferRecord, or fails without touching any balance. The shop core
  treats this package as an external collaborator: it calls Transfer once
  per purchase and never retries.

ATOMICITY:
  A single mutex spans validate + debit + credit + record, so balances are
  never observed half-updated. That coarse lock is acceptable here because
  transfers are short and purely in-memory/DB-write bound; the authorizer
  holds no locks of its own while calling in.

VALIDATION:
  - amount must be positive with at most two fractional digits
  - payer and payee must both exist
  - the debit must not push the payer below the configured floor
    (no floor configured = overdraft allowed, the club-tab default)

SELF-TRANSFERS:
  Payer == payee is legal (self-checkout with no shop account wired). The
  balance nets to zero but purchase transfers still grow TotalSpent.

SEE ALSO:
  - shop/authorize.go: The only purchase-path caller
  - shop/store.go: AccountStore / TransferStore contracts
*/
package ledger

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/shop-engine/shop"
)

// Ledger executes atomic transfers against an account store.
type Ledger struct {
	Accounts  shop.AccountStore
	Transfers shop.TransferStore

	// MinBalance, when non-nil, is the floor a payer balance may not
	// cross. Nil permits overdraft.
	MinBalance *decimal.Decimal

	mu    sync.Mutex
	clock shop.Clock
	seq   atomic.Int64
}

// New creates a ledger. A nil clock defaults to time.Now.
func New(accounts shop.AccountStore, transfers shop.TransferStore, clock shop.Clock) *Ledger {
	if clock == nil {
		clock = time.Now
	}
	return &Ledger{Accounts: accounts, Transfers: transfers, clock: clock}
}

// Transfer atomically moves amount from payer to payee and records it.
// Returns (nil, nil) on any validation failure: a nil record with no
// mutation is the "transfer refused" outcome the authorizer expects.
func (l *Ledger) Transfer(ctx context.Context, amount decimal.Decimal, payerID, payeeID shop.AccountID, kind shop.TransferKind) (*shop.TransferRecord, error) {
	if !amount.IsPositive() || !shop.HasValidScale(amount) {
		return nil, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	payer, err := l.Accounts.GetAccount(ctx, payerID)
	if err != nil {
		return nil, err
	}
	payee, err := l.Accounts.GetAccount(ctx, payeeID)
	if err != nil {
		return nil, err
	}
	if payer == nil || payee == nil {
		return nil, nil
	}

	newBalance := payer.Balance.Sub(amount)
	if l.MinBalance != nil && newBalance.LessThan(*l.MinBalance) {
		return nil, nil
	}

	payer.Balance = newBalance
	if kind == shop.KindPurchase {
		payer.TotalSpent = payer.TotalSpent.Add(amount)
	}

	if payerID == payeeID {
		// Self-transfer: credit back on the same record so the single
		// SaveAccount below writes the net state.
		payer.Balance = payer.Balance.Add(amount)
		if err := l.Accounts.SaveAccount(ctx, *payer); err != nil {
			return nil, err
		}
	} else {
		payee.Balance = payee.Balance.Add(amount)
		if err := l.Accounts.SaveAccount(ctx, *payer); err != nil {
			return nil, err
		}
		if err := l.Accounts.SaveAccount(ctx, *payee); err != nil {
			return nil, err
		}
	}

	rec := shop.TransferRecord{
		ID:        fmt.Sprintf("tx-%d-%d", l.clock().UnixNano(), l.seq.Add(1)),
		PayerID:   payerID,
		PayeeID:   payeeID,
		Kind:      kind,
		Amount:    amount,
		CreatedAt: l.clock(),
	}
	if err := l.Transfers.AppendTransfer(ctx, rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
