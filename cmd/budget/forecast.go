package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"budget/internal/budget"
	"budget/internal/core"
	"budget/internal/export"
	gexport "budget/internal/export/google"
	"budget/internal/services"
)

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Compute the weekly projection for a budget",
	Long:  "Expand the budget's recurring rules over the requested range and print the week-by-week balances and remains.",
	RunE:  runForecast,
}

var flagExport bool

func init() {
	forecastCmd.Flags().BoolVar(&flagExport, "export", false, "Also write the projection to the configured Google Sheet")
	rootCmd.AddCommand(forecastCmd)
}

func runForecast(_ *cobra.Command, _ []string) error {
	if flagBudgetID == "" {
		return errors.New("--budget is required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	repo, err := openRepository(cfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	from, to, err := projectionRange(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	service := services.NewForecastService(repo, nil, nil, core.AccountNumber(cfg.DefaultAccount))
	result, err := service.Forecast(ctx, budget.BudgetID(flagBudgetID), from, to)
	if err != nil {
		return err
	}

	if err := printForecast(result); err != nil {
		return err
	}

	if flagExport {
		sink, err := gexport.New(ctx, gexport.Config{
			SpreadsheetID:      cfg.GoogleSpreadsheetID,
			SheetName:          cfg.GoogleSheetName,
			ServiceAccountFile: cfg.GoogleServiceAccountFile,
			ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		})
		if err != nil {
			return fmt.Errorf("init sheets export: %w", err)
		}
		ref, err := sink.WriteForecast(ctx, budget.BudgetID(flagBudgetID), result)
		if err != nil {
			return fmt.Errorf("export forecast: %w", err)
		}
		fmt.Println()
		fmt.Println("Exported to", ref)
	}

	return nil
}

func printForecast(result []budget.BudgetBalance) error {
	rows, err := export.Rows(result)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	printRow(w, export.Header)
	for _, row := range rows {
		printRow(w, row)
	}
	return w.Flush()
}

func printRow(w *tabwriter.Writer, cells []any) {
	for i, cell := range cells {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprintf(w, "%v", cell)
	}
	fmt.Fprintln(w)
}
