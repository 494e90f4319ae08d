package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"budgetbuddy/internal/amqp"
	"budgetbuddy/internal/core"
	"budgetbuddy/internal/log"
	"budgetbuddy/internal/store"
)

// ErrLedger marks a breakdown computed while the notification ledger failed.
// Categories whose ledger call failed are reported as not yet notified.
var ErrLedger = errors.New("notification ledger unavailable")

// Store is the session state a BudgetService works on.
type Store interface {
	store.EntryWriter
	store.EntryLister
	store.CapStore
	store.NotificationLedger
	store.SessionEnder
}

// AlertPublisher sends budget alerts to the alert feed.
type AlertPublisher interface {
	PublishBudgetAlert(ctx context.Context, msg *amqp.BudgetAlertMessage) error
}

// BudgetService runs the monthly aggregation and alert engine over a session
// store and publishes the alerts it produces.
type BudgetService struct {
	store     Store
	publisher AlertPublisher // nil disables the alert feed
	threshold core.Money
	symbol    string
	now       func() time.Time
}

func NewBudgetService(st Store, publisher AlertPublisher, threshold core.Money, symbol string) *BudgetService {
	return &BudgetService{
		store:     st,
		publisher: publisher,
		threshold: threshold,
		symbol:    symbol,
		now:       time.Now,
	}
}

// WithClock replaces the reference clock.
func (s *BudgetService) WithClock(now func() time.Time) *BudgetService {
	s.now = now
	return s
}

// Now returns the service's current reference time.
func (s *BudgetService) Now() time.Time {
	return s.now()
}

// Symbol returns the currency symbol used in alert messages.
func (s *BudgetService) Symbol() string {
	return s.symbol
}

// RecordEntry appends a validated entry to the session.
func (s *BudgetService) RecordEntry(ctx context.Context, sessionID string, e core.Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if err := s.store.AppendEntry(ctx, sessionID, e); err != nil {
		return fmt.Errorf("record entry: %w", err)
	}
	slog.InfoContext(ctx, "Entry recorded",
		log.FieldSessionID, sessionID,
		log.FieldCategory, e.Category.String(),
		log.FieldAmountCents, e.Amount.Cents,
		"date", e.Date.String())
	return nil
}

// SetCap overwrites the monthly cap of a category.
func (s *BudgetService) SetCap(ctx context.Context, sessionID string, c core.Category, amount core.Money) error {
	if !c.Valid() {
		return core.ErrUnknownCategory
	}
	if err := amount.Validate(); err != nil {
		return err
	}
	if err := s.store.SetCap(ctx, sessionID, c, amount); err != nil {
		return fmt.Errorf("set cap: %w", err)
	}
	slog.InfoContext(ctx, "Cap updated",
		log.FieldSessionID, sessionID,
		log.FieldCategory, c.String(),
		log.FieldAmountCents, amount.Cents)
	return nil
}

// Caps returns the session's cap table.
func (s *BudgetService) Caps(ctx context.Context, sessionID string) (core.CapTable, error) {
	caps, err := s.store.ReadCaps(ctx, sessionID)
	if err != nil {
		return caps, fmt.Errorf("read caps: %w", err)
	}
	return caps, nil
}

// MonthlyBreakdown evaluates the month of ref. Low-remaining alerts are
// recorded in the session ledger and reported once; exceeded alerts are
// reported on every call.
func (s *BudgetService) MonthlyBreakdown(ctx context.Context, sessionID string, ref time.Time) (core.MonthlyBreakdown, error) {
	entries, err := s.store.ListEntries(ctx, sessionID)
	if err != nil {
		return core.MonthlyBreakdown{}, fmt.Errorf("list entries: %w", err)
	}
	caps, err := s.store.ReadCaps(ctx, sessionID)
	if err != nil {
		return core.MonthlyBreakdown{}, fmt.Errorf("read caps: %w", err)
	}

	var ledgerErr error
	tryNotify := func(key core.NotificationKey) bool {
		fired, err := s.store.TryNotify(ctx, sessionID, key)
		if err != nil {
			ledgerErr = errors.Join(ledgerErr, fmt.Errorf("notify %s: %w", key, err))
			return false
		}
		return fired
	}

	b := core.Evaluate(entries, caps, ref, s.threshold, tryNotify)
	s.publishAlerts(ctx, sessionID, b)
	if ledgerErr != nil {
		return b, fmt.Errorf("%w: %w", ErrLedger, ledgerErr)
	}
	return b, nil
}

// DetailedEntries returns the entries of ref's month, newest first.
func (s *BudgetService) DetailedEntries(ctx context.Context, sessionID string, ref time.Time) ([]core.Entry, error) {
	entries, err := s.store.ListEntries(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	month := core.FilterMonth(entries, ref)
	core.SortByDateDesc(month)
	return month, nil
}

// EndSession discards all state of a session.
func (s *BudgetService) EndSession(ctx context.Context, sessionID string) error {
	return s.store.EndSession(ctx, sessionID)
}

// SweepIdle ends sessions idle for longer than ttl.
func (s *BudgetService) SweepIdle(ctx context.Context, ttl time.Duration) (int, error) {
	n, err := s.store.SweepIdle(ctx, ttl)
	if err != nil {
		return 0, fmt.Errorf("sweep idle sessions: %w", err)
	}
	if n > 0 {
		slog.InfoContext(ctx, "Idle sessions ended", "count", n)
	}
	return n, nil
}

func (s *BudgetService) publishAlerts(ctx context.Context, sessionID string, b core.MonthlyBreakdown) {
	alerts := b.Alerts()
	if len(alerts) == 0 {
		return
	}
	if s.publisher == nil {
		slog.DebugContext(ctx, "Alert feed not configured, skipping alerts", "count", len(alerts))
		return
	}

	for _, cs := range alerts {
		msg := amqp.NewBudgetAlertMessage(sessionID, b.Year, b.Month, cs, cs.Message(s.symbol))
		msg.Timestamp = s.now()
		// the alert is already on screen; the feed is best effort
		if err := s.publisher.PublishBudgetAlert(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "Failed to publish budget alert",
				log.FieldSessionID, sessionID,
				log.FieldCategory, cs.Category.String(),
				log.FieldAlertState, cs.State.String(),
				log.FieldError, err)
		}
	}
}
