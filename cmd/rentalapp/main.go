package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sntnmjones/RentalApp/internal/config"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := config.NewLogger(nil, config.LogConfig{Level: "info"})
	runner := NewRunner(RunnerOpts{Logger: logger})

	app := &cli.Command{
		Name:     "rentalapp",
		Usage:    "Read and write reviews of rental properties",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
