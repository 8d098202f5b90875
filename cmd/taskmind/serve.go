package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"taskmind/internal/auth"
	"taskmind/internal/config"
	"taskmind/internal/web"
)

var serveAddr string

// serveCmd runs the JSON HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Serves the JSON API for tasks, search, analytics, and suggestions.

All task routes require authentication. Register and log in via
POST /api/auth/register and POST /api/auth/login, then pass the returned
session id as a Bearer token or the session_id cookie.

The config file is watched while serving; logging settings are reloaded
on change without a restart.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, :8080)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	users, err := auth.NewManager(cfg.UsersDBPath())
	if err != nil {
		return err
	}
	defer users.Close()
	users.SetSessionTTL(cfg.GetSessionTTL())

	addr := serveAddr
	if addr == "" {
		addr = cfg.GetHTTPAddr()
	}
	server := web.NewServer(store, users, addr)

	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	watcher, err := config.NewWatcher(path, nil)
	if err != nil {
		logger.Warn("Config watcher unavailable", zap.Error(err))
	} else {
		if err := watcher.Start(ctx); err != nil {
			logger.Warn("Config watcher failed to start", zap.Error(err))
		} else {
			defer watcher.Stop()
		}
	}

	// Expired sessions pile up in long-running servers; sweep hourly.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := users.CleanupExpiredSessions(ctx)
				if err != nil {
					logger.Warn("Session cleanup failed", zap.Error(err))
				} else if removed > 0 {
					logger.Info("Cleaned up expired sessions", zap.Int64("removed", removed))
				}
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()
	logger.Info("Serving", zap.String("addr", addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
