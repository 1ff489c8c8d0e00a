/*
Package sqlite provides a SQLite-backed implementation of the shop
storage interfaces.

PURPOSE:
  Implements shop.AccountStore, shop.ItemStore, shop.HistoryStore and
  shop.TransferStore using SQLite. In production the same patterns apply
  to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  accounts:   Member accounts (balance, spend, flags)
  items:      Catalog entries
  history:    Immutable purchase history (append-only)
  transfers:  Immutable transfer records (append-only)

MONEY:
  Decimals are stored as TEXT and re-parsed on read. No floats touch a
  monetary value on either side of the driver.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  multiple readers don't block, single writer at a time.

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - shop/store.go: Interface definitions
  - shop/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/shop-engine/shop"
)

// Store implements all shop storage interfaces using SQLite.
type Store struct {
	db *sql.DB
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		balance TEXT NOT NULL,
		total_spent TEXT NOT NULL,
		display_name TEXT NOT NULL,
		email TEXT,
		enabled INTEGER NOT NULL DEFAULT 1,
		kiosk INTEGER NOT NULL DEFAULT 0,
		hidden INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS items (
		id TEXT PRIMARY KEY,
		category TEXT NOT NULL,
		display_name TEXT NOT NULL,
		price TEXT NOT NULL,
		enabled INTEGER NOT NULL DEFAULT 1
	);

	-- Append-only purchase history
	CREATE TABLE IF NOT EXISTS history (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		item_id TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		amount_paid TEXT NOT NULL,
		transfer_id TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_history_account
		ON history(account_id);
	CREATE INDEX IF NOT EXISTS idx_history_created_at
		ON history(created_at);

	-- Append-only transfer records
	CREATE TABLE IF NOT EXISTS transfers (
		id TEXT PRIMARY KEY,
		payer_id TEXT NOT NULL,
		payee_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		amount TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transfers_payer ON transfers(payer_id);
	CREATE INDEX IF NOT EXISTS idx_transfers_payee ON transfers(payee_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ACCOUNTS
// =============================================================================

func (s *Store) GetAccount(ctx context.Context, id shop.AccountID) (*shop.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, balance, total_spent, display_name, email, enabled, kiosk, hidden
		FROM accounts WHERE id = ?`, string(id))

	a, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Store) SaveAccount(ctx context.Context, a shop.Account) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, balance, total_spent, display_name, email, enabled, kiosk, hidden)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			balance = excluded.balance,
			total_spent = excluded.total_spent,
			display_name = excluded.display_name,
			email = excluded.email,
			enabled = excluded.enabled,
			kiosk = excluded.kiosk,
			hidden = excluded.hidden`,
		string(a.ID), a.Balance.String(), a.TotalSpent.String(),
		a.DisplayName, a.Email, boolInt(a.Enabled), boolInt(a.Kiosk), boolInt(a.Hidden))
	return err
}

func (s *Store) ListAccounts(ctx context.Context, includeHidden bool) ([]shop.Account, error) {
	query := `
		SELECT id, balance, total_spent, display_name, email, enabled, kiosk, hidden
		FROM accounts`
	if !includeHidden {
		query += ` WHERE hidden = 0`
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []shop.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

// =============================================================================
// ITEMS
// =============================================================================

func (s *Store) GetItem(ctx context.Context, id shop.ItemID) (*shop.Item, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, category, display_name, price, enabled
		FROM items WHERE id = ?`, string(id))

	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Store) ItemExists(ctx context.Context, id shop.ItemID) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM items WHERE id = ?`, string(id)).Scan(&n)
	return n > 0, err
}

func (s *Store) SaveItem(ctx context.Context, item shop.Item) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO items (id, category, display_name, price, enabled)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			category = excluded.category,
			display_name = excluded.display_name,
			price = excluded.price,
			enabled = excluded.enabled`,
		string(item.ID), item.Category, item.DisplayName,
		item.Price.String(), boolInt(item.Enabled))
	return err
}

func (s *Store) DeleteItem(ctx context.Context, id shop.ItemID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, string(id))
	return err
}

func (s *Store) ListItems(ctx context.Context) ([]shop.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category, display_name, price, enabled
		FROM items ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []shop.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// =============================================================================
// HISTORY
// =============================================================================

func (s *Store) AppendHistory(ctx context.Context, e shop.HistoryEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO history (id, account_id, item_id, quantity, amount_paid, transfer_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, string(e.AccountID), string(e.ItemID), e.Quantity,
		e.AmountPaid.String(), e.TransferID, e.CreatedAt.UTC().Format(time.RFC3339Nano))
	return err
}

func (s *Store) ListHistory(ctx context.Context, page, size int, accountID shop.AccountID) (shop.HistoryPage, error) {
	where := ""
	args := []any{}
	if accountID != "" {
		where = ` WHERE account_id = ?`
		args = append(args, string(accountID))
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM history`+where, args...).Scan(&total); err != nil {
		return shop.HistoryPage{}, err
	}

	args = append(args, size, page*size)
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_id, item_id, quantity, amount_paid, transfer_id, created_at
		FROM history`+where+`
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return shop.HistoryPage{}, err
	}
	defer rows.Close()

	entries, err := collectHistory(rows)
	if err != nil {
		return shop.HistoryPage{}, err
	}
	return shop.HistoryPage{Entries: entries, Page: page, Size: size, TotalCount: total}, nil
}

func (s *Store) HistoryByAccount(ctx context.Context, id shop.AccountID) ([]shop.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_id, item_id, quantity, amount_paid, transfer_id, created_at
		FROM history WHERE account_id = ? ORDER BY created_at`, string(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectHistory(rows)
}

func (s *Store) AllHistory(ctx context.Context) ([]shop.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_id, item_id, quantity, amount_paid, transfer_id, created_at
		FROM history ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectHistory(rows)
}

// =============================================================================
// TRANSFERS
// =============================================================================

func (s *Store) AppendTransfer(ctx context.Context, rec shop.TransferRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transfers (id, payer_id, payee_id, kind, amount, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, string(rec.PayerID), string(rec.PayeeID), string(rec.Kind),
		rec.Amount.String(), rec.CreatedAt.UTC().Format(time.RFC3339Nano))
	return err
}

func (s *Store) ListTransfers(ctx context.Context, accountID shop.AccountID) ([]shop.TransferRecord, error) {
	query := `SELECT id, payer_id, payee_id, kind, amount, created_at FROM transfers`
	args := []any{}
	if accountID != "" {
		query += ` WHERE payer_id = ? OR payee_id = ?`
		args = append(args, string(accountID), string(accountID))
	}
	query += ` ORDER BY created_at`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []shop.TransferRecord
	for rows.Next() {
		var rec shop.TransferRecord
		var payer, payee, kind, amount, createdAt string
		if err := rows.Scan(&rec.ID, &payer, &payee, &kind, &amount, &createdAt); err != nil {
			return nil, err
		}
		rec.PayerID = shop.AccountID(payer)
		rec.PayeeID = shop.AccountID(payee)
		rec.Kind = shop.TransferKind(kind)
		if rec.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, err
		}
		if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// =============================================================================
// SCANNING HELPERS
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*shop.Account, error) {
	var a shop.Account
	var id, balance, totalSpent string
	var email sql.NullString
	var enabled, kiosk, hidden int

	err := row.Scan(&id, &balance, &totalSpent, &a.DisplayName, &email, &enabled, &kiosk, &hidden)
	if err != nil {
		return nil, err
	}
	a.ID = shop.AccountID(id)
	a.Email = email.String
	a.Enabled = enabled != 0
	a.Kiosk = kiosk != 0
	a.Hidden = hidden != 0
	if a.Balance, err = decimal.NewFromString(balance); err != nil {
		return nil, err
	}
	if a.TotalSpent, err = decimal.NewFromString(totalSpent); err != nil {
		return nil, err
	}
	return &a, nil
}

func scanItem(row rowScanner) (*shop.Item, error) {
	var item shop.Item
	var id, price string
	var enabled int

	err := row.Scan(&id, &item.Category, &item.DisplayName, &price, &enabled)
	if err != nil {
		return nil, err
	}
	item.ID = shop.ItemID(id)
	item.Enabled = enabled != 0
	if item.Price, err = decimal.NewFromString(price); err != nil {
		return nil, err
	}
	return &item, nil
}

func collectHistory(rows *sql.Rows) ([]shop.HistoryEntry, error) {
	var entries []shop.HistoryEntry
	for rows.Next() {
		var e shop.HistoryEntry
		var account, item, amount, createdAt string
		if err := rows.Scan(&e.ID, &account, &item, &e.Quantity, &amount, &e.TransferID, &createdAt); err != nil {
			return nil, err
		}
		e.AccountID = shop.AccountID(account)
		e.ItemID = shop.ItemID(item)
		var err error
		if e.AmountPaid, err = decimal.NewFromString(amount); err != nil {
			return nil, err
		}
		if e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
