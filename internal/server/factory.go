// internal/server/factory.go
package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"

	"portfolio/internal/auth/manager"
	"portfolio/internal/config"
	"portfolio/internal/content"
	"portfolio/internal/observability"
	"portfolio/internal/observability/logging"
	"portfolio/internal/observability/metrics"
	"portfolio/internal/seo"
	"portfolio/internal/site"
	tlsconfig "portfolio/internal/tls"
)

// NewFromConfig creates a new server from configuration
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Server, error) {
	obs, err := observability.NewProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}
	return newFromConfig(ctx, cfg, obs)
}

func newFromConfig(ctx context.Context, cfg *config.Config, obs *observability.Provider) (*Server, error) {
	logger := obs.Logger

	var tlsCfg *tls.Config
	if cfg.TLS.Enabled {
		tlsSetup := &tlsconfig.Config{
			Logger:   logger,
			CertPath: cfg.TLS.CertPath,
			KeyPath:  cfg.TLS.KeyPath,
		}

		var err error
		tlsCfg, err = tlsSetup.GetTLSConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS configuration: %w", err)
		}
	}

	store, closers, err := newContentStore(ctx, cfg, logger, obs.Metrics)
	if err != nil {
		return nil, err
	}

	authManager, err := manager.NewManagerFromConfig(ctx, cfg, logger, obs.Metrics)
	if err != nil {
		closeAll(closers)
		return nil, fmt.Errorf("failed to initialize authentication manager: %w", err)
	}

	siteRouter, err := site.New(site.Config{
		SiteName:  cfg.Site.Name,
		AdminRoot: cfg.Admin.Root,
		SEO:       seo.NewBuilder(cfg.Site.Name, cfg.Site.BaseURL, cfg.Site.Description),
		Store:     store,
		Auth:      authManager,
	}, logger)
	if err != nil {
		closeAll(closers)
		return nil, fmt.Errorf("failed to initialize site router: %w", err)
	}

	serverConfig := Config{
		Address:         cfg.Server.Address,
		MetricsAddress:  cfg.Metrics.Address,
		TLSConfig:       tlsCfg,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}

	// Middleware chain: observability -> router (the gate wraps the admin subtree)
	handler := obs.Middleware(siteRouter)

	return New(serverConfig, handler, obs.MetricsHandler(), logger, closers...), nil
}

// newContentStore creates the CMS client, wrapped in the redis cache when enabled
func newContentStore(ctx context.Context, cfg *config.Config, logger *logging.Logger, metrics *metrics.Collector) (content.Store, []io.Closer, error) {
	client, err := content.NewClient(content.ClientConfig{
		BaseURL: cfg.Content.StoreURL,
		Token:   cfg.Content.Token,
		Timeout: cfg.Content.Timeout,
	}, logger, metrics)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize content client: %w", err)
	}

	if !cfg.Content.Cache.Enabled {
		return client, nil, nil
	}

	redisClient, err := content.NewRedisClient(ctx, cfg.Content.Cache.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize content cache: %w", err)
	}
	logger.Info("Content cache enabled", "ttl", cfg.Content.Cache.TTL)

	cached := content.NewCachedStore(client, redisClient, cfg.Content.Cache.TTL, logger, metrics)
	return cached, []io.Closer{redisClient}, nil
}

func closeAll(closers []io.Closer) {
	for _, closer := range closers {
		_ = closer.Close()
	}
}
