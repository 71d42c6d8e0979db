package services

import (
	"context"
	"fmt"
	"log/slog"

	"budget/internal/budget"
	"budget/internal/calendar"
	"budget/internal/core"
	"budget/internal/export"
	"budget/internal/log"
)

// BudgetStore is the storage surface the forecast service reads from.
type BudgetStore interface {
	GetBudget(ctx context.Context, id budget.BudgetID) (*budget.Budget, error)
	ListRemains(ctx context.Context, until core.Date) ([]budget.Remain, error)
	ListOperations(ctx context.Context, from, to core.Date) ([]core.Operation, error)
	LoadCalendar(ctx context.Context, from, to core.Date) (*calendar.WorkCalendar, error)
}

// ForecastPublisher requests an asynchronous recalculation.
type ForecastPublisher interface {
	PublishForecastRequest(ctx context.Context, budgetID, from, to string) error
}

// ForecastService loads a budget from storage, runs the weekly projection
// and hands the result to an export sink.
type ForecastService struct {
	store          BudgetStore
	writer         export.ForecastWriter
	publisher      ForecastPublisher
	defaultAccount core.AccountNumber
}

func NewForecastService(
	store BudgetStore,
	writer export.ForecastWriter,
	publisher ForecastPublisher,
	defaultAccount core.AccountNumber,
) *ForecastService {
	return &ForecastService{
		store:          store,
		writer:         writer,
		publisher:      publisher,
		defaultAccount: defaultAccount,
	}
}

// Forecast computes the weekly projection of one budget over [from, to].
func (s *ForecastService) Forecast(ctx context.Context, budgetID budget.BudgetID, from, to core.Date) ([]budget.BudgetBalance, error) {
	b, err := s.store.GetBudget(ctx, budgetID)
	if err != nil {
		return nil, fmt.Errorf("load budget: %w", err)
	}

	cal, err := s.store.LoadCalendar(ctx, from.AddMonths(-1), to.AddMonths(1))
	if err != nil {
		return nil, fmt.Errorf("load calendar: %w", err)
	}

	remains, err := s.store.ListRemains(ctx, to)
	if err != nil {
		return nil, fmt.Errorf("load remains: %w", err)
	}

	operations, err := s.store.ListOperations(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("load operations: %w", err)
	}

	result, err := b.Calculate(cal, remains, s.defaultAccount, from, to, operations)
	if err != nil {
		return nil, fmt.Errorf("calculate %s: %w", budgetID, err)
	}

	slog.InfoContext(ctx, "Forecast calculated",
		log.FieldBudgetID, string(budgetID),
		log.FieldDateFrom, from.String(),
		log.FieldDateTo, to.String(),
		log.FieldPeriods, len(result))

	return result, nil
}

// ForecastAndExport runs the projection and writes it to the export sink,
// returning the sink reference.
func (s *ForecastService) ForecastAndExport(ctx context.Context, budgetID budget.BudgetID, from, to core.Date) (string, error) {
	result, err := s.Forecast(ctx, budgetID, from, to)
	if err != nil {
		return "", err
	}

	if s.writer == nil {
		slog.WarnContext(ctx, "No export sink configured, skipping export",
			log.FieldBudgetID, string(budgetID))
		return "", nil
	}

	ref, err := s.writer.WriteForecast(ctx, budgetID, result)
	if err != nil {
		return "", fmt.Errorf("export forecast of %s: %w", budgetID, err)
	}
	return ref, nil
}

// RequestForecast publishes an asynchronous recalculation request. It is a
// no-op when no publisher is configured.
func (s *ForecastService) RequestForecast(ctx context.Context, budgetID budget.BudgetID, from, to core.Date) error {
	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping forecast request")
		return nil
	}
	return s.publisher.PublishForecastRequest(ctx, string(budgetID), from.String(), to.String())
}
