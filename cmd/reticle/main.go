// File: cmd/reticle/main.go
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/xkilldash9x/reticle/cmd"
	"github.com/xkilldash9x/reticle/internal/observability"
)

func main() {
	// Load .env file if present (silently ignore if not found).
	_ = godotenv.Load()

	// Interrupts cancel the command context so in-flight tracking runs
	// flush before the process exits.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	code := 0
	if err := cmd.Execute(ctx); err != nil && !errors.Is(err, context.Canceled) {
		code = 1
	}

	observability.Sync()
	os.Exit(code)
}
