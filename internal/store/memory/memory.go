package memory

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"budgetbuddy/internal/budget"
	"budgetbuddy/internal/cache"
	"budgetbuddy/internal/core"
	"budgetbuddy/internal/log"
)

// Store keeps sessions in process memory, bounded by an LRU with idle TTL.
// A session that is evicted or expires is gone.
type Store struct {
	mu       sync.Mutex // serialises session creation
	sessions *cache.LRUCache[*budget.Session]
}

func New(maxSessions int, ttl time.Duration) *Store {
	s := &Store{sessions: cache.NewLRUCache[*budget.Session](maxSessions, ttl)}
	s.sessions.OnEvict(func(id string, _ *budget.Session) {
		slog.Info("Session ended by eviction", log.FieldSessionID, id)
	})
	return s
}

// Session returns the session for id, creating it when absent.
func (s *Store) Session(id string) *budget.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions.Get(id); ok {
		s.sessions.Touch(id)
		return sess
	}
	sess := budget.NewSession()
	s.sessions.Set(id, sess)
	return sess
}

// AppendEntry implements store.EntryWriter
func (s *Store) AppendEntry(_ context.Context, id string, e core.Entry) error {
	return s.Session(id).Append(e)
}

// ListEntries implements store.EntryLister
func (s *Store) ListEntries(_ context.Context, id string) ([]core.Entry, error) {
	return s.Session(id).Entries(), nil
}

// SetCap implements store.CapStore
func (s *Store) SetCap(_ context.Context, id string, c core.Category, amount core.Money) error {
	return s.Session(id).SetCap(c, amount)
}

// ReadCaps implements store.CapStore
func (s *Store) ReadCaps(_ context.Context, id string) (core.CapTable, error) {
	return s.Session(id).Caps(), nil
}

// TryNotify implements store.NotificationLedger
func (s *Store) TryNotify(_ context.Context, id string, key core.NotificationKey) (bool, error) {
	return s.Session(id).TryNotify(key), nil
}

// EndSession implements store.SessionEnder
func (s *Store) EndSession(_ context.Context, id string) error {
	s.sessions.Delete(id)
	return nil
}

// SweepIdle implements store.SessionEnder. Idle time is governed by the TTL the
// store was built with, so ttl is unused here.
func (s *Store) SweepIdle(_ context.Context, _ time.Duration) (int, error) {
	return s.sessions.CleanExpired(), nil
}

// Close implements io.Closer
func (s *Store) Close() error {
	return nil
}
