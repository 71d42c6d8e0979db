package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"budget/internal/config"
	"budget/internal/core"
	"budget/internal/storage"
)

var (
	flagBudgetID string
	flagFrom     string
	flagTo       string
	flagWeeks    int
)

var rootCmd = &cobra.Command{
	Use:   "budget",
	Short: "Weekly budget projection CLI",
	Long:  "Project recurring budget rules into weekly plans, balances and account remains.",
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagBudgetID, "budget", "b", "", "Budget identifier")
	rootCmd.PersistentFlags().StringVar(&flagFrom, "from", "", "Projection start date (YYYY-MM-DD, default today)")
	rootCmd.PersistentFlags().StringVar(&flagTo, "to", "", "Projection end date (YYYY-MM-DD)")
	rootCmd.PersistentFlags().IntVarP(&flagWeeks, "weeks", "w", 0, "Horizon in weeks when --to is not given")

	// Commands log to stderr so stdout stays parseable.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)
}

// loadConfig is the shared configuration path used by all commands.
func loadConfig() (*config.Config, error) {
	_ = godotenv.Load()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func openRepository(cfg *config.Config) (*storage.SQLiteRepository, error) {
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.SQLiteDBPath, err)
	}
	return repo, nil
}

// projectionRange resolves --from/--to/--weeks into a concrete date range.
func projectionRange(cfg *config.Config) (core.Date, core.Date, error) {
	from := core.Today()
	if flagFrom != "" {
		var err error
		from, err = core.ParseDate(flagFrom)
		if err != nil {
			return core.Date{}, core.Date{}, fmt.Errorf("invalid --from: %w", err)
		}
	}

	if flagTo != "" {
		to, err := core.ParseDate(flagTo)
		if err != nil {
			return core.Date{}, core.Date{}, fmt.Errorf("invalid --to: %w", err)
		}
		return from, to, nil
	}

	weeks := flagWeeks
	if weeks <= 0 {
		weeks = cfg.ForecastHorizon
	}
	return from, from.AddDays(weeks * 7), nil
}
