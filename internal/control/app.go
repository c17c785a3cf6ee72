package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/vietddude/airport-gateway/internal/api"
	"github.com/vietddude/airport-gateway/internal/core/config"
	"github.com/vietddude/airport-gateway/internal/infra/aviation"
	"github.com/vietddude/airport-gateway/internal/lookup"
)

// App is the main application struct that owns the gateway and its
// HTTP server.
type App struct {
	cfg        *config.AppConfig
	gateway    *aviation.Gateway
	strategies []*aviation.Strategy
	service    *lookup.Service
	server     *api.Server
	log        *slog.Logger
}

// NewApp creates a new App with all dependencies initialized.
func NewApp(cfg *config.AppConfig) (*App, error) {
	gw, strategies, err := aviation.NewGateway(cfg.Providers)
	if err != nil {
		return nil, fmt.Errorf("failed to init gateway: %w", err)
	}

	var opts []lookup.Option
	if !cfg.Cache.Disabled {
		opts = append(opts, lookup.WithCache(cfg.Cache.Size, cfg.Cache.TTL))
	}
	service := lookup.NewService(gw, opts...)

	sources := make([]api.HealthSource, 0, len(strategies))
	for _, s := range strategies {
		sources = append(sources, s)
		slog.Info("Provider configured",
			"provider", s.Name(),
			"priority", s.Priority(),
			"endpoint", s.Endpoint(),
		)
	}

	return &App{
		cfg:        cfg,
		gateway:    gw,
		strategies: strategies,
		service:    service,
		server:     api.NewServer(service, sources, cfg.Server.Port),
		log:        slog.Default(),
	}, nil
}

// Service returns the lookup service.
func (a *App) Service() *lookup.Service { return a.service }

// Strategies returns the provider strategies in priority order.
func (a *App) Strategies() []*aviation.Strategy { return a.strategies }

// Handler returns the HTTP handler serving the API.
func (a *App) Handler() http.Handler { return a.server.Handler() }

// Start starts the HTTP server in the background. Listen failures are
// reported on the returned channel.
func (a *App) Start(ctx context.Context) <-chan error {
	errs := make(chan error, 1)
	go func() {
		a.log.Info("HTTP server listening", "port", a.cfg.Server.Port)
		if err := a.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("HTTP server failed", "error", err)
			errs <- err
		}
		close(errs)
	}()
	return errs
}

// Stop shuts the server down, waiting for in-flight lookups until ctx ends.
func (a *App) Stop(ctx context.Context) error {
	a.log.Info("Stopping gateway...")
	return a.server.Stop(ctx)
}
