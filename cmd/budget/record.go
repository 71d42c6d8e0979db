package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"budget/internal/budget"
	"budget/internal/core"
)

var (
	flagAccount  string
	flagDate     string
	flagAmount   string
	flagCurrency string
	flagComment  string
)

var remainCmd = &cobra.Command{
	Use:   "remain",
	Short: "Record an actual account balance",
	Long:  "Store a balance snapshot for an account on a date. Snapshots override the projected remains from that date on.",
	RunE:  runRemain,
}

var opCmd = &cobra.Command{
	Use:   "op [deposit|withdraw]",
	Short: "Record a real bank operation",
	Args:  cobra.ExactArgs(1),
	RunE:  runOp,
}

var calendarCmd = &cobra.Command{
	Use:   "calendar [holiday|workday]",
	Short: "Mark a date as a holiday or a working day",
	Args:  cobra.ExactArgs(1),
	RunE:  runCalendar,
}

func init() {
	for _, c := range []*cobra.Command{remainCmd, opCmd} {
		c.Flags().StringVarP(&flagAccount, "account", "a", "", "Account number")
		c.Flags().StringVar(&flagDate, "date", "", "Date (YYYY-MM-DD, default today)")
		c.Flags().StringVar(&flagAmount, "amount", "", "Amount in major units, e.g. 1500.50")
		c.Flags().StringVarP(&flagCurrency, "currency", "c", "", "Currency code (default from configuration)")
	}
	opCmd.Flags().StringVar(&flagComment, "comment", "", "Free-form note")
	calendarCmd.Flags().StringVar(&flagDate, "date", "", "Date (YYYY-MM-DD, default today)")

	rootCmd.AddCommand(remainCmd)
	rootCmd.AddCommand(opCmd)
	rootCmd.AddCommand(calendarCmd)
}

func runRemain(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	date, value, err := parseDateAndAmount(cfg.DefaultCurrency)
	if err != nil {
		return err
	}

	account := flagAccount
	if account == "" {
		account = cfg.DefaultAccount
	}
	if account == "" {
		return errors.New("--account is required (no DEFAULT_ACCOUNT configured)")
	}

	remain, err := budget.NewRemain(core.AccountNumber(account), date, value)
	if err != nil {
		return err
	}

	repo, err := openRepository(cfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := repo.SaveRemain(ctx, remain); err != nil {
		return err
	}
	fmt.Printf("Recorded remain %s on %s for %s\n", value, date, account)
	return nil
}

func runOp(_ *cobra.Command, args []string) error {
	var opType core.OperationType
	switch args[0] {
	case "deposit":
		opType = core.Deposit
	case "withdraw":
		opType = core.Withdraw
	default:
		return fmt.Errorf("unknown operation type %q (want deposit or withdraw)", args[0])
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	date, value, err := parseDateAndAmount(cfg.DefaultCurrency)
	if err != nil {
		return err
	}

	account := flagAccount
	if account == "" {
		account = cfg.DefaultAccount
	}

	op := core.Operation{
		ID:       uuid.NewString(),
		Recorded: date,
		Amount:   value,
		Type:     opType,
		Account:  core.AccountNumber(account),
		Comment:  flagComment,
	}

	repo, err := openRepository(cfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := repo.SaveOperation(ctx, op); err != nil {
		return err
	}
	fmt.Printf("Recorded %s of %s on %s for %s\n", opType, value, date, account)
	return nil
}

func runCalendar(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	date := core.Today()
	if flagDate != "" {
		date, err = core.ParseDate(flagDate)
		if err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
	}

	repo, err := openRepository(cfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch args[0] {
	case "holiday":
		err = repo.SaveHoliday(ctx, date)
	case "workday":
		err = repo.SaveWorkday(ctx, date)
	default:
		return fmt.Errorf("unknown day kind %q (want holiday or workday)", args[0])
	}
	if err != nil {
		return err
	}
	fmt.Printf("Marked %s as %s\n", date, args[0])
	return nil
}

func parseDateAndAmount(defaultCurrency string) (core.Date, core.Money, error) {
	date := core.Today()
	if flagDate != "" {
		var err error
		date, err = core.ParseDate(flagDate)
		if err != nil {
			return core.Date{}, core.Money{}, fmt.Errorf("invalid --date: %w", err)
		}
	}

	if flagAmount == "" {
		return core.Date{}, core.Money{}, errors.New("--amount is required")
	}
	currency := flagCurrency
	if currency == "" {
		currency = defaultCurrency
	}
	value, err := core.ParseMoney(flagAmount, currency)
	if err != nil {
		return core.Date{}, core.Money{}, fmt.Errorf("invalid --amount: %w", err)
	}
	return date, value, nil
}
