/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the kiosk shop engine server. Handles
  configuration, dependency wiring, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Initialize SQLite store
  3. Wire ledger, catalog, authorizer, metric registry
  4. Start the metric rebuild scheduler
  5. Start HTTP server with graceful shutdown

COMMAND-LINE FLAGS:
  -port              HTTP server port (default: 8080)
  -db                SQLite database path (default: shop.db, ":memory:" supported)
  -cooldown          Purchase cooldown per bearer (default: 5s)
  -metrics-interval  Full metric rebuild cadence (default: 1h)
  -shop-account      Payee account for purchases (default: the bearer)
  -seed              Load demo accounts and items on startup

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the metric scheduler
  4. Close the database

SEE ALSO:
  - api/server.go: Router configuration
  - metrics/scheduler.go: Rebuild lifecycle
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/shop-engine/api"
	"github.com/warp/shop-engine/ledger"
	"github.com/warp/shop-engine/metrics"
	"github.com/warp/shop-engine/shop"
	"github.com/warp/shop-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "shop.db", "SQLite database path")
	cooldown := flag.Duration("cooldown", shop.DefaultCooldownWindow, "purchase cooldown per bearer")
	metricsInterval := flag.Duration("metrics-interval", time.Hour, "full metric rebuild cadence")
	shopAccount := flag.String("shop-account", "", "payee account for purchases (empty = the bearer)")
	seed := flag.Bool("seed", false, "load demo accounts and items")
	flag.Parse()

	// Initialize store
	db, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if *seed {
		if err := seedDemoData(context.Background(), db); err != nil {
			log.Fatalf("Failed to seed demo data: %v", err)
		}
		log.Println("[Main] Demo data loaded")
	}

	// Metric registry and collectors
	registry := metrics.NewRegistry()
	balances := metrics.NewBalanceCollector()
	sales := metrics.NewItemSalesCollector()
	spenders := metrics.NewSpenderCollector()
	hours := metrics.NewHourlyActivityCollector()
	registry.RegisterAccountCollector(balances)
	registry.RegisterHistoryCollector(sales)
	registry.RegisterHistoryCollector(spenders)
	registry.RegisterHistoryCollector(hours)

	scheduler := metrics.NewResetScheduler(registry, metrics.StoreSource{
		Accounts: db,
		Items:    db,
		History:  db,
	})
	scheduler.Interval = *metricsInterval
	scheduler.Start()
	defer scheduler.Stop()

	// Shop core
	transfers := ledger.New(db, db, nil)
	guard := shop.NewCooldownGuard(*cooldown, nil)
	authorizer := shop.NewAuthorizer(db, db, db, transfers, guard, nil)
	authorizer.Metrics = registry
	authorizer.ShopAccount = shop.AccountID(*shopAccount)

	handler := &api.Handler{
		Catalog:    shop.NewCatalog(db),
		Authorizer: authorizer,
		Accounts:   db,
		History:    db,
		Scheduler:  scheduler,
		Balances:   balances,
		Sales:      sales,
		Spenders:   spenders,
		Hours:      hours,
	}

	router := api.NewRouter(handler, api.NewRateLimiter(20, 40))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("[Main] Server starting on http://localhost:%d", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[Main] Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("[Main] Server stopped")
}

// seedDemoData loads a handful of accounts and items for local
// development, mirroring a small club setup: two members, a kiosk till,
// and a shared treasury account hidden from statistics.
func seedDemoData(ctx context.Context, db *sqlite.Store) error {
	accounts := []shop.Account{
		shop.NewAccount("alice", "Alice", "alice@example.org"),
		shop.NewAccount("bob", "Bob", "bob@example.org"),
		shop.NewAccount("kiosk", "Kiosk Till", ""),
		shop.NewAccount("treasury", "Treasury", ""),
	}
	accounts[0].Kiosk = true
	accounts[3].Hidden = true

	for _, a := range accounts {
		if err := db.SaveAccount(ctx, a); err != nil {
			return err
		}
	}

	catalog := shop.NewCatalog(db)
	seedItems := []struct{ id, name, category, price string }{
		{"coffee", "Coffee", "drinks", "0.50"},
		{"mate", "Club-Mate", "drinks", "1.50"},
		{"chocolate", "Chocolate Bar", "snacks", "1.20"},
	}
	for _, it := range seedItems {
		if _, err := catalog.CreateItem(ctx, shop.ItemID(it.id), it.name, it.category, it.price); err != nil && err != shop.ErrDuplicateItem {
			return err
		}
	}
	return nil
}
