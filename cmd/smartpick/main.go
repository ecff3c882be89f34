package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/wonny/smartpick/cmd/smartpick/commands"
)

// main is the entry point for the smartpick CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/smartpick [command]
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.Execute(ctx); err != nil {
		os.Exit(1)
	}
}
