package board

import (
	"context"
	"sync"
	"time"

	"taskmaster/internal/session"
)

const (
	DefaultIdleTTL = 30 * time.Minute
	sweepEvery     = time.Minute
)

// Factory builds the reconciler for a session. The session belongs to the
// registry entry; the backend client clears it on a 401.
type Factory func(s *session.Session) *Reconciler

// Boards are keyed by user and token: a cached board is only ever served to
// the token that loaded it from the backend.
type registryKey struct {
	userID string
	token  string
}

type registryEntry struct {
	board    *Reconciler
	session  *session.Session
	loadMu   sync.Mutex
	lastUsed time.Time
}

type RegistryOption func(*Registry)

// WithIdleTTL sets how long an unused board stays cached. Zero or negative
// disables eviction.
func WithIdleTTL(d time.Duration) RegistryOption {
	return func(g *Registry) { g.idleTTL = d }
}

func WithRegistryClock(now func() time.Time) RegistryOption {
	return func(g *Registry) { g.now = now }
}

// Registry keeps one reconciler per user session, created and loaded on
// first use and dropped after sitting idle.
type Registry struct {
	mu        sync.Mutex
	factory   Factory
	idleTTL   time.Duration
	now       func() time.Time
	lastSweep time.Time
	entries   map[registryKey]*registryEntry
	// evicted boards that still had writes in flight
	draining []*Reconciler
}

func NewRegistry(factory Factory, opts ...RegistryOption) *Registry {
	g := &Registry{
		factory: factory,
		idleTTL: DefaultIdleTTL,
		now:     time.Now,
		entries: make(map[registryKey]*registryEntry),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Get returns the board for the session, loading it if this is the first
// call or a previous load failed. A board whose token the backend rejected
// is rebuilt from scratch.
func (g *Registry) Get(ctx context.Context, s *session.Session) (*Reconciler, error) {
	key := registryKey{userID: s.UserID(), token: s.Token()}
	now := g.now()

	g.mu.Lock()
	if now.Sub(g.lastSweep) >= sweepEvery {
		g.sweepLocked(now)
	}
	e, ok := g.entries[key]
	if ok && !e.session.Active() {
		g.removeLocked(key, e)
		ok = false
	}
	if !ok {
		held := session.New(s.Token(), s.UserID(), s.ExpiresAt())
		held.SetRole(s.Role())
		e = &registryEntry{board: g.factory(held), session: held}
		g.entries[key] = e
	}
	e.lastUsed = now
	g.mu.Unlock()

	e.loadMu.Lock()
	defer e.loadMu.Unlock()
	if !e.board.Loaded() {
		if err := e.board.Load(ctx); err != nil {
			return nil, err
		}
	}
	return e.board, nil
}

// Peek returns the board for a user and token without loading it.
func (g *Registry) Peek(userID, token string) (*Reconciler, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.entries[registryKey{userID: userID, token: token}]
	if !ok {
		return nil, false
	}
	return e.board, true
}

func (g *Registry) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}

// Sweep evicts boards idle for longer than the TTL and returns how many
// were dropped. Get calls it at most once a minute.
func (g *Registry) Sweep() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sweepLocked(g.now())
}

func (g *Registry) sweepLocked(now time.Time) int {
	g.lastSweep = now

	busy := g.draining[:0]
	for _, b := range g.draining {
		if b.Busy() {
			busy = append(busy, b)
		}
	}
	g.draining = busy

	if g.idleTTL <= 0 {
		return 0
	}
	evicted := 0
	for key, e := range g.entries {
		if now.Sub(e.lastUsed) < g.idleTTL {
			continue
		}
		g.removeLocked(key, e)
		evicted++
	}
	return evicted
}

func (g *Registry) removeLocked(key registryKey, e *registryEntry) {
	delete(g.entries, key)
	if e.board.Busy() {
		g.draining = append(g.draining, e.board)
	}
}

// Wait drains background writes on every board, used on shutdown.
func (g *Registry) Wait() {
	g.mu.Lock()
	boards := make([]*Reconciler, 0, len(g.entries)+len(g.draining))
	for _, e := range g.entries {
		boards = append(boards, e.board)
	}
	boards = append(boards, g.draining...)
	g.mu.Unlock()
	for _, b := range boards {
		b.Wait()
	}
}
