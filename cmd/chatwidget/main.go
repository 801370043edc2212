package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"chatwidget/internal/cli"
	"chatwidget/internal/errorx"
)

func main() {
	if err := run(); err != nil {
		if msg, ok := errorx.UserMessage(err); ok {
			fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run() error {
	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	return cli.NewRootCommand().ExecuteContext(ctx)
}
