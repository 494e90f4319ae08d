package store

import (
	"context"
	"time"

	"budgetbuddy/internal/core"
)

// Ports for the session-scoped state. Every method is keyed by session ID; a
// session that does not exist yet is created empty on first write.
type (
	EntryWriter interface {
		AppendEntry(ctx context.Context, sessionID string, e core.Entry) error
	}

	// EntryLister returns the session's entry log in append order.
	EntryLister interface {
		ListEntries(ctx context.Context, sessionID string) ([]core.Entry, error)
	}

	CapStore interface {
		SetCap(ctx context.Context, sessionID string, c core.Category, amount core.Money) error
		ReadCaps(ctx context.Context, sessionID string) (core.CapTable, error)
	}

	// NotificationLedger records one-time alerts. TryNotify must be atomic: of
	// concurrent callers with the same key exactly one sees true.
	NotificationLedger interface {
		TryNotify(ctx context.Context, sessionID string, key core.NotificationKey) (bool, error)
	}

	// SessionEnder discards a session's state.
	SessionEnder interface {
		EndSession(ctx context.Context, sessionID string) error
		// SweepIdle ends every session idle for longer than ttl and returns how many ended.
		SweepIdle(ctx context.Context, ttl time.Duration) (int, error)
	}
)
