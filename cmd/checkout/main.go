package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/niksmo/checkout/config"
	"github.com/niksmo/checkout/internal/app"
	"github.com/niksmo/checkout/pkg/sigctx"
)

// Grace period for in-flight requests and the broker clients to drain.
const shutdownGrace = 10 * time.Second

func main() {
	os.Exit(run())
}

func run() (code int) {
	stopCtx, stop := sigctx.NotifyContext()
	defer stop()

	cfg := config.Load()
	cfg.Print()

	// Startup failures surface as panics from the composition root.
	defer func() {
		if r := recover(); r != nil {
			slog.Error("checkout failed to start", "reason", r)
			code = 1
		}
	}()

	checkout := app.New(stopCtx, cfg)
	checkout.Run(stop)

	<-stopCtx.Done()
	slog.Info("shutdown requested", "grace", shutdownGrace)

	drainCtx, cancel := context.WithTimeout(
		context.WithoutCancel(stopCtx), shutdownGrace,
	)
	defer cancel()
	checkout.Close(drainCtx)
	return 0
}
