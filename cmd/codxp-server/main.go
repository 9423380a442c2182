package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codxp/server/internal/api"
	"github.com/codxp/server/internal/auth"
	"github.com/codxp/server/internal/config"
	"github.com/codxp/server/internal/logging"
	"github.com/codxp/server/internal/store"
)

// main starts the 2XP token tracker server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.Logging)

	st := store.New(cfg.Storage, log)
	passwords := auth.NewPasswordService(cfg)
	accounts := auth.NewAccountService(st, passwords, log)
	tokens, err := auth.NewTokenService(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize token service")
	}
	authHandlers := auth.NewHandlers(accounts, tokens, log)

	hub := api.NewHub(log)
	tokenHandlers := api.NewTokenHandlers(st, hub, log)
	profileHandlers := api.NewProfileHandlers(st, log)
	wsHandlers := api.NewWebSocketHandlers(hub, tokens, st, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	api.SetupAuthRoutes(mux, authHandlers)
	api.SetupTokenRoutes(mux, authHandlers, tokenHandlers)
	api.SetupProfileRoutes(mux, authHandlers, profileHandlers)
	api.SetupWebSocketRoutes(mux, wsHandlers)

	handler := api.CORSMiddleware(auth.SecurityHeadersMiddleware(mux))

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().
			Str("addr", addr).
			Str("environment", cfg.Server.Environment).
			Str("data_dir", cfg.Storage.DataDir).
			Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
}

// healthHandler responds to health check requests.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `{"status":"ok","service":"codxp-server"}`)
}
