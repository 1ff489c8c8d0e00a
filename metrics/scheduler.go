/*
scheduler.go - Periodic metric rebuild

PURPOSE:
  Runs Registry.Rebuild on a fixed interval so that drift from missed or
  double-applied incremental updates is bounded by one cycle. The rebuild
  may race with live incremental updates; transient inconsistency is
  acceptable and resolved by the next cycle.

DESIGN:
  - Background goroutine with ticker + stop channel + WaitGroup
  - Runs once immediately on Start
  - RunNow() escape hatch for tests and the admin endpoint
  - Owned by the process: started on init, stopped on shutdown

CONFIGURATION:
  - Interval: rebuild cadence (default: 1 hour)
  - Enabled:  whether the scheduler runs (default: true)

SEE ALSO:
  - registry.go: Rebuild semantics
  - cmd/server/main.go: Lifecycle wiring
*/
package metrics

import (
	"context"
	"log"
	"sync"
	"time"
)

// SnapshotSource supplies the full entity set for a rebuild. The account
// slice must exclude hidden accounts.
type SnapshotSource interface {
	MetricSnapshot(ctx context.Context) (Snapshot, error)
}

// ResetScheduler periodically rebuilds all collectors from a snapshot.
type ResetScheduler struct {
	Registry *Registry
	Source   SnapshotSource
	Interval time.Duration
	Enabled  bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewResetScheduler creates a scheduler with the default hourly interval.
func NewResetScheduler(registry *Registry, source SnapshotSource) *ResetScheduler {
	return &ResetScheduler{
		Registry: registry,
		Source:   source,
		Interval: 1 * time.Hour,
		Enabled:  true,
		stop:     make(chan struct{}),
	}
}

// Start begins the scheduler.
func (rs *ResetScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled {
		log.Println("[Metrics] Scheduler disabled, not starting")
		return
	}

	rs.ticker = time.NewTicker(rs.Interval)
	rs.wg.Add(1)

	go rs.run()

	log.Printf("[Metrics] Scheduler started with rebuild interval: %v", rs.Interval)
}

// Stop stops the scheduler and waits for an in-flight rebuild to finish.
func (rs *ResetScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker != nil {
		rs.ticker.Stop()
		close(rs.stop)
		rs.wg.Wait()
		log.Println("[Metrics] Scheduler stopped")
	}
}

func (rs *ResetScheduler) run() {
	defer rs.wg.Done()

	// Populate collectors immediately on start.
	rs.RunNow()

	for {
		select {
		case <-rs.ticker.C:
			rs.RunNow()
		case <-rs.stop:
			return
		}
	}
}

// RunNow performs one full rebuild. Safe to call from tests or the admin
// endpoint while the background loop is running.
func (rs *ResetScheduler) RunNow() {
	ctx := context.Background()
	started := time.Now()

	snap, err := rs.Source.MetricSnapshot(ctx)
	if err != nil {
		log.Printf("[Metrics] Rebuild skipped, snapshot failed: %v", err)
		return
	}

	rs.Registry.Rebuild(snap)
	log.Printf("[Metrics] Rebuild finished after %v (%d accounts, %d items, %d entries)",
		time.Since(started), len(snap.Accounts), len(snap.Items), len(snap.History))
}
