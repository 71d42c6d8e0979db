package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"budget/internal/amqp"
	"budget/internal/budget"
	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/services"
)

// BudgetLister enumerates the budgets to recalculate.
type BudgetLister interface {
	ListBudgetIDs(ctx context.Context) ([]budget.BudgetID, error)
}

// ForecastConsumer delivers forecast requests until the context ends.
type ForecastConsumer interface {
	ConsumeForecastRequests(ctx context.Context, handler func(*amqp.ForecastRequestMessage) error) error
}

// ForecastWorker recalculates budget forecasts: on demand via AMQP
// requests, and periodically for every stored budget over a rolling
// horizon.
type ForecastWorker struct {
	service  *services.ForecastService
	budgets  BudgetLister
	horizon  int // weeks
	interval time.Duration
}

func NewForecastWorker(service *services.ForecastService, budgets BudgetLister, horizonWeeks int, interval time.Duration) *ForecastWorker {
	return &ForecastWorker{
		service:  service,
		budgets:  budgets,
		horizon:  horizonWeeks,
		interval: interval,
	}
}

// HandleForecastRequest processes a single forecast request from AMQP.
func (w *ForecastWorker) HandleForecastRequest(ctx context.Context, msg *amqp.ForecastRequestMessage) error {
	from, err := core.ParseDate(msg.From)
	if err != nil {
		return fmt.Errorf("request for %s: bad from date %q: %w", msg.BudgetID, msg.From, err)
	}
	to, err := core.ParseDate(msg.To)
	if err != nil {
		return fmt.Errorf("request for %s: bad to date %q: %w", msg.BudgetID, msg.To, err)
	}

	ref, err := w.service.ForecastAndExport(ctx, budget.BudgetID(msg.BudgetID), from, to)
	if err != nil {
		return fmt.Errorf("forecast %s: %w", msg.BudgetID, err)
	}

	slog.InfoContext(ctx, "Forecast request handled",
		log.FieldBudgetID, msg.BudgetID,
		log.FieldDateFrom, msg.From,
		log.FieldDateTo, msg.To,
		log.FieldSheetsRef, ref)
	return nil
}

// recalcConcurrency bounds the budgets recalculated in parallel.
const recalcConcurrency = 4

// RecalculateAll refreshes the forecast of every stored budget from today
// over the configured horizon. Failures are logged per budget and do not
// stop the others; one of the errors is returned after all budgets were
// attempted.
func (w *ForecastWorker) RecalculateAll(ctx context.Context) error {
	ids, err := w.budgets.ListBudgetIDs(ctx)
	if err != nil {
		return fmt.Errorf("list budgets: %w", err)
	}
	if len(ids) == 0 {
		slog.InfoContext(ctx, "No budgets to recalculate")
		return nil
	}

	from := core.Today()
	to := from.AddDays(w.horizon * 7)

	var g errgroup.Group
	g.SetLimit(recalcConcurrency)
	var done atomic.Int64
	for _, id := range ids {
		id := id
		g.Go(func() error {
			if _, err := w.service.ForecastAndExport(ctx, id, from, to); err != nil {
				slog.ErrorContext(ctx, "Forecast recalculation failed",
					log.FieldBudgetID, string(id), log.FieldError, err)
				return err
			}
			done.Add(1)
			return nil
		})
	}
	err = g.Wait()

	slog.InfoContext(ctx, "Forecast recalculation completed",
		"total", len(ids),
		"succeeded", done.Load(),
		log.FieldDateFrom, from.String(),
		log.FieldDateTo, to.String())
	return err
}

// Run blocks until the context ends, consuming forecast requests and
// recalculating all budgets on the configured interval. A startup
// recalculation covers requests missed while the worker was down.
func (w *ForecastWorker) Run(ctx context.Context, consumer ForecastConsumer) error {
	if err := w.RecalculateAll(ctx); err != nil {
		slog.WarnContext(ctx, "Startup recalculation incomplete", log.FieldError, err)
	}

	g, ctx := errgroup.WithContext(ctx)

	if consumer != nil {
		g.Go(func() error {
			return consumer.ConsumeForecastRequests(ctx, func(msg *amqp.ForecastRequestMessage) error {
				return w.HandleForecastRequest(ctx, msg)
			})
		})
	}

	g.Go(func() error {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if err := w.RecalculateAll(ctx); err != nil {
					slog.ErrorContext(ctx, "Periodic recalculation incomplete", log.FieldError, err)
				}
			}
		}
	})

	return g.Wait()
}
