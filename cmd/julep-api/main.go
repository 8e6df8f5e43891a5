package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/codehornets/julep/internal/config"
	"github.com/codehornets/julep/internal/logger"
	"github.com/codehornets/julep/internal/server"
	"github.com/codehornets/julep/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to load config")
	}

	logger.Init(cfg.Log.Level, cfg.Log.JSON)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg.Postgres)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to open store")
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Logger.Error().Err(err).Msg("failed to close store")
		}
	}()

	srv := server.New(cfg, st)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("http server failed")
		}
	case <-ctx.Done():
		logger.Logger.Info().Msg("shutting down")
		if err := srv.Stop(context.Background()); err != nil {
			logger.Logger.Error().Err(err).Msg("graceful shutdown failed")
		}
	}
}
