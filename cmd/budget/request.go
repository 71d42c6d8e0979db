package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"budget/internal/amqp"
)

var requestCmd = &cobra.Command{
	Use:   "request",
	Short: "Queue a forecast recalculation for the worker",
	Long:  "Publish a forecast request to the message broker; the worker picks it up, recomputes the projection and exports it.",
	RunE:  runRequest,
}

func init() {
	rootCmd.AddCommand(requestCmd)
}

func runRequest(_ *cobra.Command, _ []string) error {
	if flagBudgetID == "" {
		return errors.New("--budget is required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	from, to, err := projectionRange(cfg)
	if err != nil {
		return err
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return fmt.Errorf("connect to broker: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.PublishForecastRequest(ctx, flagBudgetID, from.String(), to.String()); err != nil {
		return fmt.Errorf("publish forecast request: %w", err)
	}

	fmt.Printf("Requested forecast for %s (%s .. %s)\n", flagBudgetID, from, to)
	return nil
}
