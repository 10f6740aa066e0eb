package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"jobgen/internal/cli"

	"github.com/joho/godotenv"
)

func main() {
	// Pick up JOBGEN_* and provider keys from a local .env file, if any
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Failed to read .env file: %v\n", err)
		os.Exit(1)
	}

	// Create a context that is canceled on interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Execute command with cancellable context
	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
