package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"connectrpc.com/connect"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/castlemilk/pfinance/insights/internal/auth"
	"github.com/castlemilk/pfinance/insights/internal/config"
	"github.com/castlemilk/pfinance/insights/internal/server"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the insights API",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	interceptors, err := a.interceptors(ctx)
	if err != nil {
		return err
	}
	handler := server.New(a.log, a.services()).Handler(interceptors...)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:      h2c.NewHandler(corsHandler(a.cfg.Server).Handler(handler), &http2.Server{}),
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("starting server", slog.Int("port", a.cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// interceptors builds the chain: request logging, debug impersonation,
// then Firebase verification or the local dev identity.
func (a *app) interceptors(ctx context.Context) ([]connect.Interceptor, error) {
	skipAuth := a.cfg.Server.SkipAuth
	chain := []connect.Interceptor{
		server.LoggingInterceptor(a.log),
		auth.DebugAuthInterceptor(skipAuth),
	}

	if skipAuth || a.cfg.Store.Driver == config.DriverMemory {
		a.log.Warn("using local dev authentication")
		return append(chain, auth.LocalDevInterceptor()), nil
	}

	fbApp, err := a.firebase(ctx)
	if err != nil {
		return nil, err
	}
	verifier, err := auth.NewFirebaseAuth(ctx, fbApp, a.cfg.Firebase)
	if err != nil {
		return nil, err
	}
	return append(chain, auth.AuthInterceptor(verifier)), nil
}

func corsHandler(cfg config.ServerConfig) *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Connect-Protocol-Version",
			"Connect-Timeout-Ms",
			"Content-Type",
			"User-Agent",
			auth.ImpersonateHeader,
			server.RequestIDHeader,
		},
		ExposedHeaders: []string{
			server.RequestIDHeader,
		},
		AllowCredentials: true,
	})
}
