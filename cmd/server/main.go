package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/livecast-dev/livecast/internal/adapters/http"
	wssignal "github.com/livecast-dev/livecast/internal/adapters/signal"
	"github.com/livecast-dev/livecast/internal/app"
	"github.com/livecast-dev/livecast/internal/auth"
	"github.com/livecast-dev/livecast/internal/config"
	"github.com/livecast-dev/livecast/internal/core"
	"github.com/livecast-dev/livecast/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	handlers := &router.Handlers{
		Tokens:   auth.NewTokens(cfg.Secret),
		TokenTTL: cfg.TokenTTL,
		ICEURLs:  cfg.ICEURLs,
	}
	if cfg.DatabaseURL != "" {
		db, err := store.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect database")
		}
		defer db.Close()
		handlers.DB = db
		handlers.Users = store.NewUserRepo(db)
		handlers.Streams = store.NewStreamRepo(db)
	} else {
		log.Warn().Msg("no database_url configured, running without persistent store")
	}

	reg := app.NewRegistry()
	hub := core.NewHub()
	relay := app.NewRelay(reg, hub)
	ctl := wssignal.NewController(relay, cfg.ReadLimit, cfg.PingPeriod, cfg.WriteWait)

	r := router.SetupRouter(ctx, cfg, ctl, handlers)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Livecast server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
