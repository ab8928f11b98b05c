// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package server wires configuration, storage and services into the
// HTTP API and runs it with graceful shutdown.
package server

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

	"github.com/labstack/echo/v4"
	"github.com/urfave/cli/v3"

	"github.com/bmv-platform/identity/internal/config"
	"github.com/bmv-platform/identity/internal/database"
	"github.com/bmv-platform/identity/internal/handlers"
	appmw "github.com/bmv-platform/identity/internal/middleware"
	"github.com/bmv-platform/identity/internal/repository"
	"github.com/bmv-platform/identity/internal/services/account"
	"github.com/bmv-platform/identity/internal/services/mailer"
	"github.com/bmv-platform/identity/internal/services/token"
)

// Run starts the server with the given CLI command.
func Run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	setupLogger(cfg.Log.Level, cfg.Log.Format)

	if cfg.Token.Secret == "" {
		return fmt.Errorf("token secret is required (set --token-secret or TOKEN_SECRET)")
	}

	slog.Info("starting server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"base_url", cfg.Server.BaseURL,
	)

	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("failed to close database", "error", closeErr)
		}
	}()

	repo := repository.New(db)
	codec := token.NewCodec(cfg.Token.Secret, cfg.Token.SessionTTL)

	sender, err := mailer.NewSMTPSender(&cfg.SMTP)
	if err != nil {
		return fmt.Errorf("failed to set up mail transport: %w", err)
	}
	notifier := mailer.NewService(sender, cfg.Server.BaseURL)

	svc := account.NewService(repo, codec, notifier)

	e := newEcho(cfg, svc, repo, codec)

	return startWithGracefulShutdown(ctx, e, cfg)
}

// newEcho builds the Echo instance with middleware and routes. Split out
// from Run so tests can exercise the full routing table without SMTP or
// a real token secret from the environment.
func newEcho(cfg *config.Config, svc *account.Service, repo *repository.Repository, codec *token.Codec) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	setupMiddleware(e, cfg)
	setupRoutes(e, svc, repo, codec)

	return e
}

func setupRoutes(e *echo.Echo, svc *account.Service, repo *repository.Repository, codec *token.Codec) {
	h := handlers.New(svc)

	e.GET("/health", h.Health)

	auth := e.Group("/api/auth")
	auth.POST("/register", h.Register)
	auth.POST("/login", h.Login)
	auth.GET("/verify-email", h.VerifyEmail)
	auth.POST("/resend-verification", h.ResendVerification)
	auth.POST("/forgot-password", h.ForgotPassword)
	auth.POST("/reset-password", h.ResetPassword)
	auth.GET("/profile", h.Profile, appmw.Authenticate(codec, repo), appmw.RequireVerified())

	users := e.Group("/api/users", appmw.Authenticate(codec, repo), appmw.RequireVerified())
	users.GET("", h.ListUsers)
	users.GET("/:id", h.GetUser)
	users.PUT("/:id", h.UpdateUser)
	users.PATCH("/:id/deactivate", h.DeactivateUser)
	users.DELETE("/:id", h.DeleteUser)
}

func startWithGracefulShutdown(ctx context.Context, e *echo.Echo, cfg *config.Config) error {
	errChan := make(chan error, 1)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		slog.Info("Server running", "url", cfg.Server.BaseURL)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		slog.Info("shutting down server")
	case <-ctx.Done():
		slog.Info("shutting down server")
	case err := <-errChan:
		slog.Error("server error", "error", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}

	slog.Info("server stopped")
	return nil
}
