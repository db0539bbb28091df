package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bnema/zerowrap"

	"github.com/cainy/dockhand/internal/adapters/in/http/middleware"
	notifyhttp "github.com/cainy/dockhand/internal/adapters/in/http/notify"
	"github.com/cainy/dockhand/internal/adapters/out/eventbus"
	"github.com/cainy/dockhand/internal/adapters/out/eventlog"
	"github.com/cainy/dockhand/internal/adapters/out/registry"
	"github.com/cainy/dockhand/internal/usecase/notify"
	"github.com/cainy/dockhand/internal/usecase/token"
)

// Run starts the dockhand webhook server and blocks until the context is
// cancelled or a shutdown signal arrives.
func Run(ctx context.Context, configPath string) error {
	_, cfg, err := initConfig(configPath)
	if err != nil {
		return err
	}

	log, cleanup, err := initLogger(cfg)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	log.Info().
		Str(zerowrap.FieldLayer, "app").
		Str("registry", cfg.Registry.BaseURL).
		Msg("starting dockhand")

	tokenSvc, err := newTokenService(cfg, log)
	if err != nil {
		return err
	}

	registryClient := registry.New(cfg.Registry.BaseURL, tokenSvc, log)
	if registryClient.IsOnline(ctx) {
		apiVersion, err := registryClient.APIVersion(ctx)
		if err == nil {
			log.Info().
				Str(zerowrap.FieldLayer, "app").
				Str("api_version", string(apiVersion)).
				Msg("registry reachable")
		}
	} else {
		log.Warn().
			Str(zerowrap.FieldLayer, "app").
			Str("registry", cfg.Registry.BaseURL).
			Msg("registry not reachable at startup, continuing anyway")
	}

	bus := eventbus.NewInMemory(cfg.Notifications.BufferSize, log)
	if err := bus.Start(); err != nil {
		return log.WrapErr(err, "failed to start event bus")
	}

	if cfg.EventLog.Enabled {
		auditWriter, err := eventlog.New(eventlog.Config{
			Path:       cfg.EventLog.Path,
			MaxSize:    cfg.EventLog.MaxSize,
			MaxBackups: cfg.EventLog.MaxBackups,
			MaxAge:     cfg.EventLog.MaxAge,
		})
		if err != nil {
			return log.WrapErr(err, "failed to create event audit log")
		}
		defer func() { _ = auditWriter.Close() }()

		if err := bus.Subscribe(auditWriter); err != nil {
			return log.WrapErr(err, "failed to subscribe event audit log")
		}
	}

	notifySvc := notify.NewService(bus, log)
	notifyHandler := notifyhttp.NewHandler(notifySvc, tokenSvc, log)

	mux := http.NewServeMux()
	notifyHandler.RegisterRoutes(mux, cfg.Notifications.Route)

	var handler http.Handler = mux
	handler = middleware.RequestLogger(log)(handler)
	handler = middleware.PanicRecovery(log)(handler)

	httpServer := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info().
		Str(zerowrap.FieldLayer, "app").
		Str("addr", cfg.Server.ListenAddr).
		Str("route", cfg.Notifications.Route).
		Msg("webhook server listening")

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().
				Str(zerowrap.FieldLayer, "app").
				Err(err).
				Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-ctx.Done():
		log.Info().
			Str(zerowrap.FieldLayer, "app").
			Msg("context cancelled, shutting down")
	case sig := <-quit:
		log.Info().
			Str(zerowrap.FieldLayer, "app").
			Str("signal", sig.String()).
			Msg("received shutdown signal")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().
			Str(zerowrap.FieldLayer, "app").
			Err(err).
			Msg("HTTP server shutdown error")
	}

	if err := bus.Stop(); err != nil {
		log.Error().
			Str(zerowrap.FieldLayer, "app").
			Err(err).
			Msg("event bus shutdown error")
	}

	log.Info().
		Str(zerowrap.FieldLayer, "app").
		Msg("dockhand shutdown complete")

	return nil
}

// NotifyToken mints a webhook bearer token using the configured signing
// key. Used by the notify-token command to provision registries.
func NotifyToken(configPath string, ttl time.Duration) (string, error) {
	_, cfg, err := initConfig(configPath)
	if err != nil {
		return "", err
	}

	log, cleanup, err := initLogger(cfg)
	if err != nil {
		return "", err
	}
	if cleanup != nil {
		defer cleanup()
	}

	tokenSvc, err := newTokenService(cfg, log)
	if err != nil {
		return "", err
	}

	return tokenSvc.IssueNotifyToken(ttl)
}

// newTokenService builds the token service from the configured key
// files. At least one of the keys must be configured.
func newTokenService(cfg Config, log zerowrap.Logger) (*token.Service, error) {
	var privateKey, publicKey []byte
	var err error

	if cfg.Auth.PrivateKeyPath != "" {
		privateKey, err = os.ReadFile(cfg.Auth.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read private key: %w", err)
		}
	}
	if cfg.Auth.PublicKeyPath != "" {
		publicKey, err = os.ReadFile(cfg.Auth.PublicKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read public key: %w", err)
		}
	}

	return token.NewService(token.Config{
		PrivateKeyPEM: privateKey,
		PublicKeyPEM:  publicKey,
		Issuer:        cfg.Auth.Issuer,
		Audience:      cfg.Auth.Audience,
	}, log)
}
