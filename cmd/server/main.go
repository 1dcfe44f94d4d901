// Command server runs the splitscan HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/splitscan/splitscan/internal/auth"
	"github.com/splitscan/splitscan/internal/config"
	"github.com/splitscan/splitscan/internal/currency"
	"github.com/splitscan/splitscan/internal/server"
	"github.com/splitscan/splitscan/internal/service"
	"github.com/splitscan/splitscan/internal/storage/sqlite"
	"github.com/splitscan/splitscan/pkg/logging"
)

func main() {
	logging.Setup()

	if err := run(); err != nil {
		slog.Error("Server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenDuration)
	authenticator := auth.NewPasswordAuthenticator(store)
	rates := currency.NewCachedResolver(cfg.RatesBaseURL, cfg.RatesCacheTTL)

	srv := server.New(
		service.NewAuthService(authenticator, jwtManager),
		service.NewGroupService(store),
		service.NewReceiptService(store, rates),
		service.NewAssignmentService(store),
		service.NewPaymentService(store),
		service.NewSettlementService(store),
		service.NewStatsService(store),
		jwtManager,
		cfg.StaticPath,
	)

	// h2c serves cleartext HTTP/2 for deployments behind a TLS-terminating
	// proxy.
	handler := h2c.NewHandler(srv.Router(), &http2.Server{})
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		slog.Info("Shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
