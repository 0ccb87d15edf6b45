package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xiaoyuanzhu-com/review-digest/api"
	"github.com/xiaoyuanzhu-com/review-digest/config"
	"github.com/xiaoyuanzhu-com/review-digest/log"
	"github.com/xiaoyuanzhu-com/review-digest/server"
)

func main() {
	cfg := config.Get()
	log.SetLevel(cfg.LogLevel)

	srv, err := server.New(server.FromAppConfig(cfg))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize server")
	}

	// Setup API routes
	api.SetupRoutes(srv.Router(), api.NewHandlers(srv))

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}

	log.Info().Msg("server stopped")
}
