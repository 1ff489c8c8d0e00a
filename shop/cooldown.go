/*
cooldown.go - Per-bearer purchase throttling

PURPOSE:
  Enforces the minimum elapsed time between two successful purchases by
  the same acting account. The check-then-stamp sequence must be atomic
  per key: two concurrent purchases by one bearer must not both observe
  "no cooldown" and both succeed.

DESIGN:
  Lock-striped map (fixed stripe count, FNV-1a over the key) rather than
  one coarse mutex, so unrelated bearers never contend. Each key holds
  the last successful purchase time plus an in-flight marker:

    Reserve() -> true    atomically claims the key for one purchase
    Commit()             purchase succeeded: stamp last = now
    Release()            transfer failed: drop the claim, last unchanged

  A failed transfer therefore leaves no cooldown trace, matching the
  "purchase never happened" contract.

STATE:
  Transient and in-memory. Rebuilt empty on process start; no persistence.

SEE ALSO:
  - authorize.go: Reserve before transfer, Commit/Release after
*/
package shop

import (
	"hash/fnv"
	"sync"
	"time"
)

const cooldownStripes = 16

// CooldownGuard tracks the last successful purchase per acting account.
type CooldownGuard struct {
	window time.Duration
	clock  Clock

	stripes [cooldownStripes]cooldownStripe
}

type cooldownStripe struct {
	mu      sync.Mutex
	entries map[AccountID]cooldownEntry
}

type cooldownEntry struct {
	last     time.Time
	inFlight bool
}

// NewCooldownGuard creates a guard with the given window.
// A nil clock defaults to time.Now.
func NewCooldownGuard(window time.Duration, clock Clock) *CooldownGuard {
	if clock == nil {
		clock = time.Now
	}
	g := &CooldownGuard{window: window, clock: clock}
	for i := range g.stripes {
		g.stripes[i].entries = make(map[AccountID]cooldownEntry)
	}
	return g
}

// Window returns the configured cooldown duration.
func (g *CooldownGuard) Window() time.Duration { return g.window }

func (g *CooldownGuard) stripe(id AccountID) *cooldownStripe {
	h := fnv.New32a()
	h.Write([]byte(id))
	return &g.stripes[h.Sum32()%cooldownStripes]
}

// Reserve atomically claims the key for a single purchase attempt.
// Returns false if another purchase is in flight for this bearer or the
// bearer is still inside its cooldown window.
func (g *CooldownGuard) Reserve(id AccountID) bool {
	s := g.stripe(id)
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entries[id]
	if e.inFlight {
		return false
	}
	if !e.last.IsZero() && g.clock().Sub(e.last) < g.window {
		return false
	}
	e.inFlight = true
	s.entries[id] = e
	return true
}

// Commit records a successful purchase: the claim is dropped and the
// cooldown window starts now.
func (g *CooldownGuard) Commit(id AccountID) {
	s := g.stripe(id)
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entries[id]
	e.inFlight = false
	e.last = g.clock()
	s.entries[id] = e
}

// Release drops the claim without stamping. Used when the transfer fails;
// the previous cooldown state is preserved untouched.
func (g *CooldownGuard) Release(id AccountID) {
	s := g.stripe(id)
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entries[id]
	e.inFlight = false
	s.entries[id] = e
}

// Active reports whether the bearer currently has a cooldown: either a
// purchase is in flight or the last successful purchase is within the window.
func (g *CooldownGuard) Active(id AccountID) bool {
	s := g.stripe(id)
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entries[id]
	if e.inFlight {
		return true
	}
	return !e.last.IsZero() && g.clock().Sub(e.last) < g.window
}
