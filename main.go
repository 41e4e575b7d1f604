package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"library-catalog/internal/config"
	"library-catalog/internal/logger"
	"library-catalog/internal/router"
	"library-catalog/internal/services"
	"library-catalog/internal/store"
)

func main() {
	cfg := config.LoadConfig()

	log := logger.InitLogger(cfg.LogLevel, cfg.LogFormat)
	log.Info().Msg("Library catalog starting")

	bookStore, err := store.NewBookStore(cfg.BooksFile, log)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.BooksFile).Msg("Failed to open book store")
	}
	accountStore, err := store.NewAccountStore(cfg.UsersFile, log)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.UsersFile).Msg("Failed to open account store")
	}

	catalog := services.NewCatalogService(bookStore, log, cfg.SortLocale, cfg.DefaultPageSize)
	authService := services.NewAuthService(accountStore, services.NewSessionStore(), cfg.TokenSecret, cfg.HashPasswords, log)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.SetupRouter(cfg, catalog, authService, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Msgf("Server listening on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutdown signal received...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
	authService.Shutdown()

	log.Info().Msg("Server stopped")
}
