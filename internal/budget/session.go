// Package budget holds the per-session state of the tracker: the entry log,
// the cap table and the notification ledger.
package budget

import (
	"sync"
	"time"

	"budgetbuddy/internal/core"
)

// Session is the state of one user session. It is created empty, mutated only
// through Append, SetCap and TryNotify, and discarded when the session ends.
// A Session is safe for concurrent use.
type Session struct {
	mu       sync.Mutex
	entries  []core.Entry
	caps     core.CapTable
	notified map[core.NotificationKey]struct{}
}

func NewSession() *Session {
	return &Session{
		notified: make(map[core.NotificationKey]struct{}),
	}
}

// Append validates e and adds it to the end of the entry log.
func (s *Session) Append(e core.Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return nil
}

// SetCap overwrites the monthly cap of c.
func (s *Session) SetCap(c core.Category, amount core.Money) error {
	if !c.Valid() {
		return core.ErrUnknownCategory
	}
	if err := amount.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.caps.Set(c, amount)
	return nil
}

// TryNotify records key in the ledger and reports whether it was not there yet.
func (s *Session) TryNotify(key core.NotificationKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notified[key]; ok {
		return false
	}
	s.notified[key] = struct{}{}
	return true
}

// Entries returns a copy of the entry log in append order.
func (s *Session) Entries() []core.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Entry(nil), s.entries...)
}

// Caps returns a copy of the cap table.
func (s *Session) Caps() core.CapTable {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.caps
}

// MonthlyBreakdown runs one recomputation pass for the month containing ref.
func (s *Session) MonthlyBreakdown(ref time.Time, threshold core.Money) core.MonthlyBreakdown {
	return core.Evaluate(s.Entries(), s.Caps(), ref, threshold, s.TryNotify)
}

// DetailedEntries returns the entries of the month containing ref, newest first.
func (s *Session) DetailedEntries(ref time.Time) []core.Entry {
	out := core.FilterMonth(s.Entries(), ref)
	core.SortByDateDesc(out)
	return out
}
