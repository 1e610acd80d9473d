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

	router "github.com/lectio/collab/internal/adapters/http"
	"github.com/lectio/collab/internal/app"
	"github.com/lectio/collab/internal/config"
	"github.com/lectio/collab/internal/store"
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

	var chatStore store.Store
	if cfg.ChatDB != "" {
		s, err := store.Open(cfg.ChatDB)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open chat store")
		}
		chatStore = s
	} else {
		log.Warn().Msg("chat_db not set, using in-memory chat store")
		chatStore = store.NewMemory()
	}

	limiter := app.NewRateLimiter(cfg.ChatRateLimit, cfg.ChatRateWindow)
	svc := app.New(chatStore, limiter)

	r := router.SetupRouter(ctx, cfg, svc, chatStore)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("collab server started")
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
