package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/teilomillet/gochain/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintln(os.Stderr, cli.UserMessage(err))
		if os.Getenv("GOCHAIN_VERBOSE") == "true" {
			fmt.Fprintln(os.Stderr, "detail:", err)
		}
		stop()
		os.Exit(1)
	}
}
