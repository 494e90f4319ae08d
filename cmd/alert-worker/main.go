package main

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"budgetbuddy/internal/amqp"
	"budgetbuddy/internal/cli"
	"budgetbuddy/internal/log"
	"budgetbuddy/internal/worker"
)

func main() {
	cfg, logger, err := cli.Bootstrap(log.ComponentWorker)
	if err != nil {
		cli.Exit(logger, "Failed to start alert-worker", err)
	}
	if cfg.AMQPURL == "" {
		cli.Exit(logger, "Alert feed disabled", errors.New("AMQP_URL is required for the alert worker"))
	}

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		cli.Exit(logger, "Failed to initialize AMQP client", err)
	}
	defer client.Close()

	w := worker.NewAlertWorker(nil)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Consuming budget alerts", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		err := client.ConsumeBudgetAlerts(gctx, w.HandleAlertMessage)
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("consume budget alerts: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Alert worker stopped with error", log.FieldError, err)
	}
	delivered, dropped := w.Stats()
	logger.Info("Alert worker stopped", "delivered", delivered, "dropped", dropped)
}
