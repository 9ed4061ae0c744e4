package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"svgjsx/internal/logging"
)

func main() {
	// env settings cover the window before the config file is read
	logging.InitFromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "svgjsx:", err)
		stop()
		os.Exit(1)
	}
}
