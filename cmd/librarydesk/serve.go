package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/library-circulation-go/app/httpapi"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the circulation desk JSON API",
		Long: `Starts the JSON API under /api on the configured port.

AUTH_USER, AUTH_PASSWORD and AUTH_JWT_SECRET must be set. GET /api/backup is only
enabled when BACKUP_TOKEN is set.`,
		Example: `  # Serve on the port from PORT or the config file (default 8080)
  librarydesk serve

  # Serve on a custom port with SQL logging
  librarydesk serve --port 3000 --verbose`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd.Context(), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = env.shutdown(context.Background()) }()

			if err = env.cfg.ValidateServer(); err != nil {
				return err
			}

			if port > 0 {
				env.cfg.HTTP.Port = port
			}

			store, closeStore, err := env.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			handlers, err := buildHandlers(store, env.observers)
			if err != nil {
				return err
			}

			sessions, err := httpapi.NewSessions(httpapi.SessionConfig{
				User:     env.cfg.Auth.User,
				Password: env.cfg.Auth.Password,
				Secret:   env.cfg.Auth.JWTSecret,
				TTL:      env.cfg.Auth.SessionTTL,
				Secure:   env.cfg.IsProduction(),
			})
			if err != nil {
				return err
			}

			serverOptions := []httpapi.Option{
				httpapi.WithBackupToken(env.cfg.Auth.BackupToken),
				httpapi.WithVersion(env.cfg.HTTP.Version),
				httpapi.WithEnvironment(env.cfg.AppEnv),
				httpapi.WithLogger(env.logger),
			}

			if env.observers.contextual != nil {
				serverOptions = append(serverOptions, httpapi.WithContextualLogger(env.observers.contextual))
			}

			server, err := httpapi.NewServer(handlers, sessions, serverOptions...)
			if err != nil {
				return err
			}

			addr := fmt.Sprintf(":%d", env.cfg.HTTP.Port)

			serverErr := make(chan error, 1)
			go func() {
				env.logger.Info("circulation desk listening", "addr", addr, "env", env.cfg.AppEnv, "version", env.cfg.HTTP.Version)
				if listenErr := server.Listen(addr); listenErr != nil {
					serverErr <- listenErr
				}
			}()

			select {
			case <-cmd.Context().Done():
				env.logger.Info("shutting down server")

				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()

				if err = server.Shutdown(shutdownCtx); err != nil {
					env.logger.Error("server shutdown failed", "error", err)
					return err
				}

				env.logger.Info("server stopped")

				return nil

			case err = <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on, overrides PORT and the config file")

	return cmd
}
