package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/galadraft/galadraft/internal/dbconfig"
	"github.com/galadraft/galadraft/internal/draft/engine"
	"github.com/galadraft/galadraft/internal/draft/gateway"
	"github.com/galadraft/galadraft/internal/draft/repository"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbCfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(ctx, dbCfg.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create connection pool")
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}

	log.Info().
		Str("database", dbCfg.Database).
		Str("nats_url", cfg.NATS.URL).
		Str("port", cfg.Port).
		Msg("starting draftd")

	store := repository.NewStore(pool)
	eng := engine.New(store, clockwork.NewRealClock())

	gwConfig := gateway.DefaultConfig()
	gwConfig.ConsumerConfig.URL = cfg.NATS.URL
	gwConfig.ConsumerConfig.StreamName = cfg.NATS.StreamName
	gwConfig.ConsumerConfig.ConsumerName = cfg.NATS.ConsumerName
	if cfg.WebSocket.WriteTimeoutSeconds > 0 {
		gwConfig.ConnectionConfig.WriteTimeout = time.Duration(cfg.WebSocket.WriteTimeoutSeconds) * time.Second
	}
	if cfg.WebSocket.ReadTimeoutSeconds > 0 {
		gwConfig.ConnectionConfig.ReadTimeout = time.Duration(cfg.WebSocket.ReadTimeoutSeconds) * time.Second
	}
	if cfg.WebSocket.PingIntervalSeconds > 0 {
		gwConfig.ConnectionConfig.PingInterval = time.Duration(cfg.WebSocket.PingIntervalSeconds) * time.Second
	}

	gw, err := gateway.NewService(gwConfig, eng)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create gateway")
	}

	go func() {
		if err := gw.Start(ctx); err != nil {
			log.Error().Err(err).Msg("gateway failed")
		}
	}()

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: gw.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("http server listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown")
	}
}
