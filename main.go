package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const configFileName = "rtiles.toml"

func main() {
	cfg, err := LoadConfig(configFileName)
	if err != nil {
		log.Fatal().Err(err).Msg("loading configuration")
	}

	if cfg.CLIColors {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}

	log.Info().Str("ident", cfg.Ident).Msg("starting rtiles")
	cfg.Print()

	metaCache := NewMetaCache(DefaultMetaCacheConfig())

	bodyCache, err := NewBodyCache(cfg.bodyCacheConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("building body cache")
	}

	statAgg := NewStat()

	accessCache, err := NewDecisionCache(cfg.Access)
	if err != nil {
		log.Fatal().Err(err).Msg("building decision cache")
	}

	srv := newServer(cfg, metaCache, bodyCache, statAgg, accessCache)

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.router(),
	}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	signalChannel := make(chan os.Signal, 1)
	signal.Notify(signalChannel, syscall.SIGINT, syscall.SIGTERM)
	<-signalChannel

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
