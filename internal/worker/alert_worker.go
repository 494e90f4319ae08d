package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"budgetbuddy/internal/amqp"
	"budgetbuddy/internal/core"
	"budgetbuddy/internal/log"
)

// AlertSink delivers a budget alert to the user-facing channel.
type AlertSink interface {
	Deliver(ctx context.Context, msg *amqp.BudgetAlertMessage) error
}

// LogSink writes alerts to the structured log.
type LogSink struct{}

func (LogSink) Deliver(ctx context.Context, msg *amqp.BudgetAlertMessage) error {
	slog.InfoContext(ctx, "Budget alert",
		log.FieldSessionID, msg.SessionID,
		"period", fmt.Sprintf("%04d-%02d", msg.Year, msg.Month),
		log.FieldCategory, msg.Category,
		log.FieldAlertState, msg.State,
		"amount", core.Money{Cents: msg.AmountCents}.String(),
		"message", msg.Message)
	return nil
}

// AlertWorker consumes the alert feed and hands each alert to a sink.
type AlertWorker struct {
	sink      AlertSink
	delivered atomic.Int64
	dropped   atomic.Int64
}

func NewAlertWorker(sink AlertSink) *AlertWorker {
	if sink == nil {
		sink = LogSink{}
	}
	return &AlertWorker{sink: sink}
}

// HandleAlertMessage processes one alert from AMQP. Malformed alerts are
// dropped; a sink failure is returned so the delivery is requeued.
func (w *AlertWorker) HandleAlertMessage(ctx context.Context, msg *amqp.BudgetAlertMessage) error {
	if err := validate(msg); err != nil {
		w.dropped.Add(1)
		slog.WarnContext(ctx, "Dropping malformed budget alert", log.FieldError, err, log.FieldSessionID, msg.SessionID)
		return nil
	}

	if err := w.sink.Deliver(ctx, msg); err != nil {
		return fmt.Errorf("deliver alert: %w", err)
	}
	w.delivered.Add(1)
	return nil
}

// Stats returns how many alerts were delivered and dropped.
func (w *AlertWorker) Stats() (delivered, dropped int64) {
	return w.delivered.Load(), w.dropped.Load()
}

func validate(msg *amqp.BudgetAlertMessage) error {
	if msg.SessionID == "" {
		return fmt.Errorf("missing session id")
	}
	if _, err := core.ParseCategory(msg.Category); err != nil {
		return err
	}
	if msg.Month < 1 || msg.Month > 12 {
		return fmt.Errorf("month %d out of range", msg.Month)
	}
	switch msg.State {
	case core.Exceeded.String(), core.LowRemaining.String():
		return nil
	default:
		return fmt.Errorf("state %q carries no alert", msg.State)
	}
}
