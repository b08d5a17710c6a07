package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pageza/nutrimatch/backend/config"
	"github.com/pageza/nutrimatch/backend/internal/logging"
	"github.com/pageza/nutrimatch/backend/internal/server"
)

func main() {
	// Initialize configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	// Create and start server
	srv, err := server.Open(context.Background(), cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize server")
	}

	// Channel to listen for errors coming from the server
	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	// Channel to listen for an interrupt or terminate signal from the OS
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Block until we receive a signal or error
	select {
	case err := <-errChan:
		if err != nil {
			logging.Fatal().Err(err).Msg("server error")
		}
	case sig := <-quit:
		logging.Info().Str("signal", sig.String()).Msg("received signal")
	}

	// Gracefully shutdown the server
	logging.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logging.Fatal().Err(err).Msg("server shutdown error")
	}
	logging.Info().Msg("server stopped")
}
