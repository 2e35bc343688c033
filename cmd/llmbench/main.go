package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"llmbench/internal/cli"
)

func main() {
	// Ctrl+C / SIGTERM stop the run between prompts; the session stays
	// running so it shows up under `llmbench sessions --incomplete`.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := cli.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
