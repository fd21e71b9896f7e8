package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"agora/internal/config"
	"agora/internal/net"
	"agora/internal/room"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "", "Path to a config file (default: ./config/agora.yaml or ./agora.yaml)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to load config")
	}
	setupLogging(cfg.Log)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer stop()

	// Setup the room registry and the TCP server in front of it.
	registry := room.NewRegistry(ctx, cfg.RoomParams())
	srv := net.New(cfg.Server.Address, cfg.Server.Port, uint(cfg.Server.Workers), registry)

	// Block on running the server.
	if err := srv.Run(ctx); err != nil {
		log.Error().Err(err).Msg("server stopped")
	}
	if err := registry.Shutdown(); err != nil {
		log.Error().Err(err).Msg("unable to shut down rooms")
	}
}

func setupLogging(cfg config.LogConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}
