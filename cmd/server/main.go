package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/negotiation-tck/negotiation-tck/internal/config"
	"github.com/negotiation-tck/negotiation-tck/internal/harness"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	h := harness.New(cfg, logger)
	if err := h.Open(); err != nil {
		logger.Fatal().Err(err).Msg("harness failed to open")
	}

	logger.Info().
		Str("addr", cfg.ListenAddr).
		Str("counterpart", cfg.CounterpartURL).
		Msg("callback endpoint started")

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	if err := h.Close(); err != nil {
		logger.Error().Err(err).Msg("harness shutdown failed")
	}
}
