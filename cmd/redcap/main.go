package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/usestring/redcap-mcp/cmd/redcap/app"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := app.NewRedcapCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
