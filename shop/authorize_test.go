package shop_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/shop-engine/shop"
	memstore "github.com/warp/shop-engine/shop/store"
)

// =============================================================================
// TEST INFRASTRUCTURE
// =============================================================================

// stubTransferrer stands in for the ledger so tests control the transfer
// outcome precisely.
type stubTransferrer struct {
	fail   bool
	calls  int
	amount decimal.Decimal
	payer  shop.AccountID
	payee  shop.AccountID
}

func (s *stubTransferrer) Transfer(_ context.Context, amount decimal.Decimal, payerID, payeeID shop.AccountID, kind shop.TransferKind) (*shop.TransferRecord, error) {
	s.calls++
	s.amount = amount
	s.payer = payerID
	s.payee = payeeID
	if s.fail {
		return nil, nil
	}
	return &shop.TransferRecord{
		ID:        fmt.Sprintf("tx-%d", s.calls),
		PayerID:   payerID,
		PayeeID:   payeeID,
		Kind:      kind,
		Amount:    amount,
		CreatedAt: time.Now(),
	}, nil
}

// recordingSink captures metric notifications.
type recordingSink struct {
	accounts []shop.Account
	entries  []shop.HistoryEntry
}

func (r *recordingSink) UpdateAccount(a shop.Account)           { r.accounts = append(r.accounts, a) }
func (r *recordingSink) UpdateHistoryEntry(e shop.HistoryEntry) { r.entries = append(r.entries, e) }

type testShop struct {
	auth *shop.Authorizer
	mem  *memstore.Memory
	tr   *stubTransferrer
	sink *recordingSink
}

func newTestShop(t *testing.T, cooldown time.Duration) *testShop {
	t.Helper()
	mem := memstore.NewMemory()
	tr := &stubTransferrer{}
	sink := &recordingSink{}
	guard := shop.NewCooldownGuard(cooldown, nil)
	auth := shop.NewAuthorizer(mem, mem, mem, tr, guard, nil)
	auth.Metrics = sink

	ctx := context.Background()
	buyer := shop.NewAccount("user1", "Test User", "user1@test.example")
	buyer.Kiosk = true
	kiosk := shop.NewAccount("kiosk", "Kiosk", "kiosk@test.example")
	require.NoError(t, mem.SaveAccount(ctx, buyer))
	require.NoError(t, mem.SaveAccount(ctx, kiosk))
	require.NoError(t, mem.SaveItem(ctx, shop.Item{
		ID:          "item1",
		Category:    "category1",
		DisplayName: "Item 1",
		Price:       decimal.RequireFromString("10.00"),
		Enabled:     true,
	}))

	return &testShop{auth: auth, mem: mem, tr: tr, sink: sink}
}

func (ts *testShop) saveAccount(t *testing.T, mutate func(*shop.Account), id shop.AccountID) {
	t.Helper()
	ctx := context.Background()
	a, err := ts.mem.GetAccount(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, a)
	mutate(a)
	require.NoError(t, ts.mem.SaveAccount(ctx, *a))
}

// =============================================================================
// CONSUME - VALIDATION ORDER
// =============================================================================

func TestConsume_InvalidQuantity_ReturnsFalse(t *testing.T) {
	// quantity < 1 short-circuits before any lookup: nil stores would
	// panic if Consume touched them.
	guard := shop.NewCooldownGuard(0, nil)
	auth := shop.NewAuthorizer(nil, nil, nil, nil, guard, nil)

	assert.False(t, auth.Consume(context.Background(), "item1", "user1", 0, "user1", shop.RoleAdmin))
	assert.False(t, auth.Consume(context.Background(), "item1", "user1", -3, "user1", shop.RoleAdmin))
}

func TestConsume_MissingEntities_ReturnsFalse(t *testing.T) {
	ts := newTestShop(t, 0)
	ctx := context.Background()

	assert.False(t, ts.auth.Consume(ctx, "ghost", "user1", 1, "user1", shop.RoleAdmin))
	assert.False(t, ts.auth.Consume(ctx, "item1", "ghost", 1, "ghost", shop.RoleAdmin))
	assert.Zero(t, ts.tr.calls, "no transfer attempted")
}

func TestConsume_DisabledItem_ReturnsFalse(t *testing.T) {
	ts := newTestShop(t, 0)
	ctx := context.Background()

	item, err := ts.mem.GetItem(ctx, "item1")
	require.NoError(t, err)
	item.Enabled = false
	require.NoError(t, ts.mem.SaveItem(ctx, *item))

	assert.False(t, ts.auth.Consume(ctx, "item1", "user1", 1, "user1", shop.RoleAdmin))
	assert.Zero(t, ts.tr.calls)
}

func TestConsume_DisabledBuyer_ReturnsFalse(t *testing.T) {
	ts := newTestShop(t, 0)
	ts.saveAccount(t, func(a *shop.Account) { a.Enabled = false }, "user1")

	assert.False(t, ts.auth.Consume(context.Background(), "item1", "user1", 1, "user1", shop.RoleAdmin))
	assert.Zero(t, ts.tr.calls)
}

func TestConsume_DisabledBearer_ReturnsFalse(t *testing.T) {
	// Even an admin bearer must itself be enabled.
	ts := newTestShop(t, 0)
	ts.saveAccount(t, func(a *shop.Account) { a.Enabled = false }, "kiosk")

	assert.False(t, ts.auth.Consume(context.Background(), "item1", "user1", 1, "kiosk", shop.RoleAdmin))
	assert.Zero(t, ts.tr.calls)
}

// =============================================================================
// CONSUME - PERMISSION MATRIX
// =============================================================================

func TestConsume_EnabledKioskBuyer_KioskRole_Succeeds(t *testing.T) {
	ts := newTestShop(t, 0)

	assert.True(t, ts.auth.Consume(context.Background(), "item1", "user1", 1, "kiosk", shop.RoleKiosk))
	assert.Equal(t, shop.AccountID("user1"), ts.tr.payer)
	assert.Equal(t, shop.AccountID("kiosk"), ts.tr.payee)
}

func TestConsume_OptedOutBuyer_KioskRole_Fails(t *testing.T) {
	ts := newTestShop(t, 0)
	ts.saveAccount(t, func(a *shop.Account) { a.Kiosk = false }, "user1")

	assert.False(t, ts.auth.Consume(context.Background(), "item1", "user1", 1, "kiosk", shop.RoleKiosk))
	assert.Zero(t, ts.tr.calls)
}

func TestConsume_Member_BuySelf_Succeeds(t *testing.T) {
	ts := newTestShop(t, 0)

	assert.True(t, ts.auth.Consume(context.Background(), "item1", "user1", 1, "user1", shop.RoleMember))
}

func TestConsume_Member_BuyOther_Fails(t *testing.T) {
	ts := newTestShop(t, 0)

	assert.False(t, ts.auth.Consume(context.Background(), "item1", "user1", 1, "kiosk", shop.RoleMember))
	assert.Zero(t, ts.tr.calls)
}

func TestConsume_Admin_BuyOther_Succeeds(t *testing.T) {
	ts := newTestShop(t, 0)

	assert.True(t, ts.auth.Consume(context.Background(), "item1", "user1", 1, "kiosk", shop.RoleAdmin))
}

func TestHasBearerPermissions_Matrix(t *testing.T) {
	ts := newTestShop(t, 0)
	ctx := context.Background()

	// Unknown role: denied unconditionally
	assert.False(t, ts.auth.HasBearerPermissions(ctx, "item1", "user1", 1, "user1", shop.RoleUnassigned))
	assert.False(t, ts.auth.HasBearerPermissions(ctx, "item1", "user1", 1, "user1", shop.ParseRole("gibberish")))

	// Member: self only
	assert.True(t, ts.auth.HasBearerPermissions(ctx, "item1", "user1", 1, "user1", shop.RoleMember))
	assert.False(t, ts.auth.HasBearerPermissions(ctx, "item1", "user1", 1, "kiosk", shop.RoleMember))

	// Admin: anyone
	assert.True(t, ts.auth.HasBearerPermissions(ctx, "item1", "user1", 1, "kiosk", shop.RoleAdmin))

	// Kiosk: buyer opt-in decides
	assert.True(t, ts.auth.HasBearerPermissions(ctx, "item1", "user1", 1, "kiosk", shop.RoleKiosk))
	ts.saveAccount(t, func(a *shop.Account) { a.Kiosk = false }, "user1")
	assert.False(t, ts.auth.HasBearerPermissions(ctx, "item1", "user1", 1, "kiosk", shop.RoleKiosk))
}

// =============================================================================
// CONSUME - TRANSFER OUTCOME
// =============================================================================

func TestConsume_Success_RecordsHistoryAndNotifies(t *testing.T) {
	ts := newTestShop(t, 0)
	ctx := context.Background()

	require.True(t, ts.auth.Consume(ctx, "item1", "user1", 3, "user1", shop.RoleMember))

	// total = price * quantity
	assert.Equal(t, "30.00", ts.tr.amount.StringFixed(2))

	entries, err := ts.mem.HistoryByAccount(ctx, "user1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, shop.ItemID("item1"), entries[0].ItemID)
	assert.Equal(t, 3, entries[0].Quantity)
	assert.Equal(t, "30.00", entries[0].AmountPaid.StringFixed(2))
	assert.Equal(t, "tx-1", entries[0].TransferID)

	require.Len(t, ts.sink.entries, 1, "metric sink saw the history entry")
	require.Len(t, ts.sink.accounts, 1, "metric sink saw the buyer account")
}

func TestConsume_FailedTransfer_NoSideEffects(t *testing.T) {
	// GIVEN: the ledger refuses the transfer
	// THEN: no history, no cooldown stamp, no metric update - the
	// purchase never happened.
	ts := newTestShop(t, time.Hour)
	ts.tr.fail = true
	ctx := context.Background()

	assert.False(t, ts.auth.Consume(ctx, "item1", "user1", 1, "user1", shop.RoleAdmin))
	assert.Equal(t, 1, ts.tr.calls, "transfer was attempted exactly once")

	entries, err := ts.mem.HistoryByAccount(ctx, "user1")
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Empty(t, ts.sink.entries)
	assert.False(t, ts.auth.HasBearerCooldown("user1"), "failed transfer leaves no cooldown")

	// The bearer can retry immediately.
	ts.tr.fail = false
	assert.True(t, ts.auth.Consume(ctx, "item1", "user1", 1, "user1", shop.RoleAdmin))
}

func TestConsume_ShopAccountConfigured_RedirectsPayee(t *testing.T) {
	ts := newTestShop(t, 0)
	ts.auth.ShopAccount = "treasury"

	require.True(t, ts.auth.Consume(context.Background(), "item1", "user1", 1, "user1", shop.RoleMember))
	assert.Equal(t, shop.AccountID("treasury"), ts.tr.payee)
}

// =============================================================================
// CONSUME - COOLDOWN
// =============================================================================

func TestConsume_SecondPurchaseWithoutPause_Fails(t *testing.T) {
	ts := newTestShop(t, 10*time.Millisecond)
	ctx := context.Background()

	require.True(t, ts.auth.Consume(ctx, "item1", "user1", 1, "user1", shop.RoleAdmin))
	assert.True(t, ts.auth.HasBearerCooldown("user1"))

	assert.False(t, ts.auth.Consume(ctx, "item1", "user1", 1, "user1", shop.RoleAdmin))
	assert.True(t, ts.auth.HasBearerCooldown("user1"))
	assert.Equal(t, 1, ts.tr.calls, "cooldown blocks before the transfer")
}

func TestConsume_SecondPurchaseAfterPause_Succeeds(t *testing.T) {
	ts := newTestShop(t, 10*time.Millisecond)
	ctx := context.Background()

	require.True(t, ts.auth.Consume(ctx, "item1", "user1", 1, "user1", shop.RoleAdmin))
	assert.True(t, ts.auth.HasBearerCooldown("user1"))

	time.Sleep(11 * time.Millisecond)
	assert.False(t, ts.auth.HasBearerCooldown("user1"))

	assert.True(t, ts.auth.Consume(ctx, "item1", "user1", 1, "user1", shop.RoleAdmin))
	assert.True(t, ts.auth.HasBearerCooldown("user1"))
}

func TestConsume_CooldownIsPerBearer(t *testing.T) {
	ts := newTestShop(t, time.Hour)
	ctx := context.Background()

	require.True(t, ts.auth.Consume(ctx, "item1", "user1", 1, "user1", shop.RoleAdmin))

	// A different bearer is unaffected by user1's cooldown.
	assert.True(t, ts.auth.Consume(ctx, "item1", "user1", 1, "kiosk", shop.RoleAdmin))
}
