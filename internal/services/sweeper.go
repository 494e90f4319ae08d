package services

import (
	"context"
	"log/slog"
	"time"

	"budgetbuddy/internal/log"
)

// IdleSweeper adapts BudgetService.SweepIdle to cache.Cleaner so the cache
// manager can run it on its cleanup schedule.
type IdleSweeper struct {
	svc     *BudgetService
	ttl     time.Duration
	timeout time.Duration
}

func (s *BudgetService) IdleSweeper(ttl time.Duration) *IdleSweeper {
	return &IdleSweeper{svc: s, ttl: ttl, timeout: 30 * time.Second}
}

// CleanExpired implements cache.Cleaner
func (w *IdleSweeper) CleanExpired() int {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	n, err := w.svc.SweepIdle(ctx, w.ttl)
	if err != nil {
		slog.ErrorContext(ctx, "Idle session sweep failed", log.FieldError, err)
		return 0
	}
	return n
}
