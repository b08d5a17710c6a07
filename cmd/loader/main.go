package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pageza/nutrimatch/backend/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		logging.Fatal().Err(err).Msg("loader failed")
	}
}
