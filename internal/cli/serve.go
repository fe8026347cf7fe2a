// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-passkey.
//
// go-passkey is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jeremyhahn/go-passkey/internal/config"
	"github.com/jeremyhahn/go-passkey/internal/rest"
	"github.com/jeremyhahn/go-passkey/pkg/account"
	"github.com/jeremyhahn/go-passkey/pkg/logging"
	"github.com/jeremyhahn/go-passkey/pkg/metrics"
	"github.com/jeremyhahn/go-passkey/pkg/passkey"
	"github.com/jeremyhahn/go-passkey/pkg/storage"
	storagefile "github.com/jeremyhahn/go-passkey/pkg/storage/file"
	"github.com/spf13/cobra"
)

// serveCmd runs the REST server until interrupted
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the passkey authentication server",
	Long: `Start the REST server and serve WebAuthn registration and
authentication ceremonies until SIGINT or SIGTERM is received.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadOrDefault(configFile)
		if err != nil {
			return err
		}
		return runServer(cfg)
	},
}

// newBackend builds the storage backend selected by the configuration.
func newBackend(cfg *config.Config) (storage.Backend, error) {
	switch cfg.Storage.Backend {
	case "file":
		return storagefile.New(cfg.Storage.Path)
	default:
		return storage.NewMemory(), nil
	}
}

// newLogger builds the structured logger selected by the configuration.
func newLogger(cfg *config.Config) *logging.Logger {
	debug := strings.EqualFold(cfg.Logging.Level, "debug")
	if strings.EqualFold(cfg.Logging.Format, "json") {
		return logging.NewJSONLogger(debug)
	}
	return logging.NewLogger(debug)
}

func runServer(cfg *config.Config) error {
	logger := newLogger(cfg)

	backend, err := newBackend(cfg)
	if err != nil {
		return fmt.Errorf("initialize storage backend: %w", err)
	}
	defer func() {
		logger.MaybeError(backend.Close())
	}()

	records := account.NewRecordStore(backend)

	var tokens passkey.TokenIssuer
	if cfg.Auth.JWT.Secret != "" {
		tokens, err = passkey.NewHMACTokenIssuer(&passkey.HMACTokenIssuerConfig{
			Secret:    []byte(cfg.Auth.JWT.Secret),
			Issuer:    cfg.Auth.JWT.Issuer,
			ExpiresIn: cfg.Auth.JWT.ExpiresIn,
		})
		if err != nil {
			return fmt.Errorf("initialize token issuer: %w", err)
		}
	} else {
		logger.Warn("no JWT secret configured, login responses will not carry session tokens")
	}

	svc, err := passkey.NewService(passkey.ServiceParams{
		Config:  &cfg.WebAuthn,
		Records: records,
		Tokens:  tokens,
	})
	if err != nil {
		return fmt.Errorf("initialize passkey service: %w", err)
	}

	srv, err := rest.NewServer(&rest.Config{
		Address:      cfg.Address(),
		Service:      svc,
		CORS:         cfg.CORS,
		Metrics:      cfg.Metrics.Enabled,
		Version:      Version,
		Logger:       logger,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	})
	if err != nil {
		return fmt.Errorf("initialize REST server: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var collector *metrics.ResourceCollector
	if cfg.Metrics.Enabled {
		collector = metrics.StartResourceCollector(ctx, cfg.Metrics.CollectInterval,
			func(ctx context.Context) (int, int) {
				return countAccounts(ctx, records)
			})
		defer collector.Stop()
	}

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errChan <- err
		}
	}()

	logger.Info("server started",
		"address", cfg.Address(),
		"rp_id", cfg.WebAuthn.RPID,
		"storage", cfg.Storage.Backend,
		"metrics", cfg.Metrics.Enabled)

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-signalCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// countAccounts tallies known accounts and their enrolled credentials for
// the metrics collector. Errors degrade to zero counts; the gauges catch
// up on the next interval.
func countAccounts(ctx context.Context, records *account.RecordStore) (int, int) {
	usernames, err := records.List(ctx)
	if err != nil {
		return 0, 0
	}

	credentials := 0
	for _, username := range usernames {
		rec, err := records.Load(ctx, username)
		if err != nil {
			continue
		}
		credentials += len(rec.Credentials)
	}
	return len(usernames), credentials
}
