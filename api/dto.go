/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for API communication, decoupled from the domain types
  so the internal model can evolve without breaking clients.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/warp/shop-engine/metrics"
	"github.com/warp/shop-engine/shop"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// ItemDTO represents a catalog item in API responses.
type ItemDTO struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Category    string `json:"category"`
	Price       string `json:"price"`
	Enabled     bool   `json:"enabled"`
}

// CreateItemRequest is the request to create a catalog item.
type CreateItemRequest struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Category    string `json:"category"`
	Price       string `json:"price"`
}

// ChangeItemRequest carries the single new value for a field-change
// endpoint (price text, display name, or category).
type ChangeItemRequest struct {
	Value string `json:"value"`
}

// AccountDTO represents an account in API responses.
type AccountDTO struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
	Balance     string `json:"balance"`
	TotalSpent  string `json:"total_spent"`
	Enabled     bool   `json:"enabled"`
	Kiosk       bool   `json:"kiosk"`
}

// ConsumeRequest is a purchase request. Identity is established upstream;
// the bearer and role arrive as trusted fields.
type ConsumeRequest struct {
	ItemID   string `json:"item_id"`
	BuyerID  string `json:"buyer_id"`
	Quantity int    `json:"quantity"`
	BearerID string `json:"bearer_id"`
	Role     string `json:"role"`
}

// ConsumeResponse is the definite purchase outcome.
type ConsumeResponse struct {
	Success bool `json:"success"`
}

// HistoryEntryDTO represents one purchase in API responses.
type HistoryEntryDTO struct {
	ID         string `json:"id"`
	AccountID  string `json:"account_id"`
	ItemID     string `json:"item_id"`
	Quantity   int    `json:"quantity"`
	AmountPaid string `json:"amount_paid"`
	TransferID string `json:"transfer_id"`
	CreatedAt  string `json:"created_at"`
}

// HistoryPageDTO is one page of purchase history, newest first.
type HistoryPageDTO struct {
	Entries    []HistoryEntryDTO `json:"entries"`
	Page       int               `json:"page"`
	Size       int               `json:"size"`
	TotalCount int               `json:"total_count"`
}

// ItemSalesDTO is one entry of the item sales ranking.
type ItemSalesDTO struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

// SpenderDTO is one entry of the spender ranking.
type SpenderDTO struct {
	AccountID string `json:"account_id"`
	Spent     string `json:"spent"`
}

// HourlyActivityDTO is the purchases-per-hour histogram.
type HourlyActivityDTO struct {
	Hours [24]int `json:"hours"`
}

// BalanceTotalsDTO is the aggregate over all visible accounts.
type BalanceTotalsDTO struct {
	Accounts     int    `json:"accounts"`
	TotalBalance string `json:"total_balance"`
	TotalSpent   string `json:"total_spent"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toItemDTO(item shop.Item) ItemDTO {
	return ItemDTO{
		ID:          string(item.ID),
		DisplayName: item.DisplayName,
		Category:    item.Category,
		Price:       item.Price.StringFixed(2),
		Enabled:     item.Enabled,
	}
}

func toAccountDTO(a shop.Account) AccountDTO {
	return AccountDTO{
		ID:          string(a.ID),
		DisplayName: a.DisplayName,
		Email:       a.Email,
		Balance:     a.Balance.StringFixed(2),
		TotalSpent:  a.TotalSpent.StringFixed(2),
		Enabled:     a.Enabled,
		Kiosk:       a.Kiosk,
	}
}

func toHistoryEntryDTO(e shop.HistoryEntry) HistoryEntryDTO {
	return HistoryEntryDTO{
		ID:         e.ID,
		AccountID:  string(e.AccountID),
		ItemID:     string(e.ItemID),
		Quantity:   e.Quantity,
		AmountPaid: e.AmountPaid.StringFixed(2),
		TransferID: e.TransferID,
		CreatedAt:  e.CreatedAt.Format(time.RFC3339),
	}
}

func toHistoryPageDTO(p shop.HistoryPage) HistoryPageDTO {
	entries := make([]HistoryEntryDTO, len(p.Entries))
	for i, e := range p.Entries {
		entries[i] = toHistoryEntryDTO(e)
	}
	return HistoryPageDTO{
		Entries:    entries,
		Page:       p.Page,
		Size:       p.Size,
		TotalCount: p.TotalCount,
	}
}

func toItemSalesDTOs(ranked []metrics.ItemSales) []ItemSalesDTO {
	dtos := make([]ItemSalesDTO, len(ranked))
	for i, r := range ranked {
		dtos[i] = ItemSalesDTO{ItemID: string(r.ItemID), Quantity: r.Quantity}
	}
	return dtos
}

func toSpenderDTOs(ranked []metrics.SpenderTotal) []SpenderDTO {
	dtos := make([]SpenderDTO, len(ranked))
	for i, r := range ranked {
		dtos[i] = SpenderDTO{AccountID: string(r.AccountID), Spent: r.Spent.StringFixed(2)}
	}
	return dtos
}
