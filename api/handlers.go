/*
handlers.go - HTTP API handlers for the kiosk shop engine

PURPOSE:
  Exposes the shop core via REST. Handles HTTP request/response, JSON
  serialization, and delegates to domain logic.

ENDPOINTS:
  Catalog:
    GET    /api/items                 List items
    POST   /api/items                 Create item
    DELETE /api/items/{id}            Delete item
    POST   /api/items/{id}/price      Change price
    POST   /api/items/{id}/name       Change display name
    POST   /api/items/{id}/category   Change category
    POST   /api/items/{id}/enable     Enable
    POST   /api/items/{id}/disable    Disable

  Shop:
    POST   /api/shop/consume          Execute a purchase
    GET    /api/accounts              List accounts
    GET    /api/history               Paged purchase history

  Statistics:
    GET    /api/stats/items           Item sales ranking
    GET    /api/stats/spenders        Top spenders
    GET    /api/stats/hours           Hourly activity histogram
    GET    /api/stats/balances        Account balance totals

  Admin:
    POST   /api/admin/metrics/reset   Trigger a full metric rebuild

ERROR HANDLING:
  - 400: validation errors (empty fields, bad price text, duplicates)
  - 404: item not found
  - 500: storage failures
  Consume never distinguishes denial reasons: the response is a plain
  success boolean so callers cannot probe for account existence.

SECURITY NOTE:
  Identity and role assignment happen upstream (reverse proxy / IdP
  integration is out of scope). Buyer, bearer, and role are trusted
  request fields here.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/warp/shop-engine/metrics"
	"github.com/warp/shop-engine/shop"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Catalog    *shop.Catalog
	Authorizer *shop.Authorizer
	Accounts   shop.AccountStore
	History    shop.HistoryStore
	Scheduler  *metrics.ResetScheduler

	// Concrete collectors backing the statistics endpoints.
	Balances *metrics.BalanceCollector
	Sales    *metrics.ItemSalesCollector
	Spenders *metrics.SpenderCollector
	Hours    *metrics.HourlyActivityCollector
}

// =============================================================================
// CATALOG HANDLERS
// =============================================================================

// ListItems returns all catalog items.
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.Catalog.Items.ListItems(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list items", err)
		return
	}

	dtos := make([]ItemDTO, len(items))
	for i, item := range items {
		dtos[i] = toItemDTO(item)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateItem creates a new catalog item.
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	item, err := h.Catalog.CreateItem(r.Context(), shop.ItemID(req.ID), req.DisplayName, req.Category, req.Price)
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toItemDTO(*item))
}

// DeleteItem removes an item and returns it.
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.Catalog.Delete(r.Context(), shop.ItemID(chi.URLParam(r, "id")))
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemDTO(*item))
}

// ChangePrice applies new price text to an item.
func (h *Handler) ChangePrice(w http.ResponseWriter, r *http.Request) {
	h.changeItem(w, r, h.Catalog.ChangePrice)
}

// ChangeDisplayName renames an item.
func (h *Handler) ChangeDisplayName(w http.ResponseWriter, r *http.Request) {
	h.changeItem(w, r, h.Catalog.ChangeDisplayName)
}

// ChangeCategory moves an item to a new category.
func (h *Handler) ChangeCategory(w http.ResponseWriter, r *http.Request) {
	h.changeItem(w, r, h.Catalog.ChangeCategory)
}

// EnableItem marks an item purchasable.
func (h *Handler) EnableItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.Catalog.Enable(r.Context(), shop.ItemID(chi.URLParam(r, "id")))
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemDTO(*item))
}

// DisableItem removes an item from sale without deleting it.
func (h *Handler) DisableItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.Catalog.Disable(r.Context(), shop.ItemID(chi.URLParam(r, "id")))
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemDTO(*item))
}

func (h *Handler) changeItem(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id shop.ItemID, value string) (*shop.Item, error)) {
	var req ChangeItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	item, err := op(r.Context(), shop.ItemID(chi.URLParam(r, "id")), req.Value)
	if err != nil {
		writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemDTO(*item))
}

// =============================================================================
// SHOP HANDLERS
// =============================================================================

// Consume executes a purchase and returns the definite boolean outcome.
func (h *Handler) Consume(w http.ResponseWriter, r *http.Request) {
	var req ConsumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ok := h.Authorizer.Consume(
		r.Context(),
		shop.ItemID(req.ItemID),
		shop.AccountID(req.BuyerID),
		req.Quantity,
		shop.AccountID(req.BearerID),
		shop.ParseRole(req.Role),
	)
	recordPurchase(ok)
	writeJSON(w, http.StatusOK, ConsumeResponse{Success: ok})
}

// ListAccounts returns all accounts (hidden ones included; this is an
// administrative listing, not a statistics surface).
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.Accounts.ListAccounts(r.Context(), true)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list accounts", err)
		return
	}

	dtos := make([]AccountDTO, len(accounts))
	for i, a := range accounts {
		dtos[i] = toAccountDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListHistory returns one page of purchase history, newest first.
// Query params: p (page, >= 0), s (size, clamped to [1,100]), account
// (optional buyer filter).
func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("p"))
	size, err := strconv.Atoi(r.URL.Query().Get("s"))
	if err != nil {
		size = 10
	}
	page = max(0, page)
	size = min(max(1, size), 100)

	account := shop.AccountID(r.URL.Query().Get("account"))

	result, err := h.History.ListHistory(r.Context(), page, size, account)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list history", err)
		return
	}
	writeJSON(w, http.StatusOK, toHistoryPageDTO(result))
}

// =============================================================================
// STATISTICS HANDLERS
// =============================================================================

// ItemSales returns the item sales ranking (top n, default 10).
func (h *Handler) ItemSales(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toItemSalesDTOs(h.Sales.Top(topN(r))))
}

// TopSpenders returns the spender ranking (top n, default 10).
func (h *Handler) TopSpenders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toSpenderDTOs(h.Spenders.Top(topN(r))))
}

// HourlyActivity returns the purchases-per-hour histogram.
func (h *Handler) HourlyActivity(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HourlyActivityDTO{Hours: h.Hours.Histogram()})
}

// BalanceTotals returns the aggregate over all visible accounts.
func (h *Handler) BalanceTotals(w http.ResponseWriter, r *http.Request) {
	t := h.Balances.Totals()
	writeJSON(w, http.StatusOK, BalanceTotalsDTO{
		Accounts:     t.Accounts,
		TotalBalance: t.TotalBalance.StringFixed(2),
		TotalSpent:   t.TotalSpent.StringFixed(2),
	})
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// ResetMetrics triggers an immediate full metric rebuild.
func (h *Handler) ResetMetrics(w http.ResponseWriter, r *http.Request) {
	h.Scheduler.RunNow()
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HELPERS
// =============================================================================

func topN(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("n"))
	if err != nil || n < 1 {
		return 10
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeCatalogError maps domain error classes onto HTTP status codes.
func writeCatalogError(w http.ResponseWriter, err error) {
	switch {
	case shop.IsValidation(err):
		writeError(w, http.StatusBadRequest, "Invalid input", err)
	case shop.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Item not found", err)
	default:
		writeError(w, http.StatusInternalServerError, "Operation failed", err)
	}
}
