// Command authkit-server serves the authkit HTTP routes over a configured
// user store.
//
// Configuration comes from cmd/authkit-server/config.yml, an optional .env
// file and AUTHKIT_* environment variables, e.g. AUTHKIT_AUTH_JWT_SECRET.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kbukum/authkit"
	"github.com/kbukum/authkit/auth"
	"github.com/kbukum/authkit/config"
	"github.com/kbukum/authkit/logger"
	"github.com/kbukum/authkit/observability"
	"github.com/kbukum/authkit/server"
	"github.com/kbukum/authkit/server/endpoint"
	"github.com/kbukum/authkit/version"
)

const (
	serviceName     = "authkit-server"
	shutdownTimeout = 10 * time.Second
)

type appConfig struct {
	config.ServiceConfig `mapstructure:",squash"`
	Auth                 authkit.Config `mapstructure:"auth"`
}

func (c *appConfig) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	if c.Debug && c.Auth.Logging.Level == "" {
		c.Auth.Logging.Level = "debug"
	}
	if c.Auth.Observability.ServiceName == "" {
		c.Auth.Observability.ServiceName = c.Name
	}
	if c.Auth.Observability.Environment == "" {
		c.Auth.Observability.Environment = c.Environment
	}
	if c.Auth.Observability.ServiceVersion == "" {
		c.Auth.Observability.ServiceVersion = version.Version
	}
	c.Auth.ApplyDefaults()
}

func (c *appConfig) Validate() error {
	return errors.Join(c.ServiceConfig.Validate(), c.Auth.Validate())
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run() (err error) {
	cfg := appConfig{ServiceConfig: config.ServiceConfig{Name: serviceName}}
	if err := config.LoadConfig(serviceName, &cfg, config.WithEnvPrefix("AUTHKIT")); err != nil {
		return err
	}

	log := logger.New(&cfg.Auth.Logging, cfg.Name)
	logger.SetGlobalLogger(log)
	logger.RegisterDefaults()

	log.Info("Starting application", map[string]interface{}{
		"name":        cfg.Name,
		"environment": cfg.Environment,
		"version":     version.Short(),
		"auth":        cfg.Auth.Describe(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		engineOpts []auth.Option
		metrics    *observability.Metrics
		shutdowns  closers
	)
	defer func() {
		if cerr := shutdowns.close(ctx, shutdownTimeout); cerr != nil {
			log.Error("Shutdown finished with errors", logger.ErrorFields("shutdown", cerr))
			err = errors.Join(err, cerr)
			return
		}
		log.Info("Application stopped")
	}()

	if cfg.Auth.Observability.Enabled {
		providers, err := observability.Start(ctx, cfg.Auth.Observability)
		if err != nil {
			return err
		}
		shutdowns.add(providers.Shutdown)
		metrics = providers.Metrics
		engineOpts = append(engineOpts,
			auth.WithTracer(providers.Traces.Tracer(observability.InstrumentationName)),
			auth.WithMetrics(metrics),
		)
	}

	store, closeStore, err := authkit.OpenStore(ctx, cfg.Auth.Store, logger.Get(logger.ComponentStore))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	shutdowns.add(closeStore)

	engineOpts = append(engineOpts, auth.WithLogger(logger.Get(logger.ComponentAuth)))
	engine, err := authkit.New(cfg.Auth,
		authkit.WithStore(store),
		authkit.WithEngineOptions(engineOpts...),
	)
	if err != nil {
		return err
	}

	srv := server.New(cfg.Auth.Server, logger.Get(logger.ComponentServer))
	srv.ApplyMiddleware(metrics)
	srv.RegisterDefaultEndpoints(cfg.Name, endpoint.PingChecker("store", engine.Ping))
	srv.RegisterAuthRoutes(engine)

	if err := srv.Start(ctx); err != nil {
		return err
	}
	shutdowns.add(srv.Stop)
	log.Info("Application ready", map[string]interface{}{"addr": srv.Addr()})

	<-ctx.Done()
	log.Info("Received shutdown signal")
	return nil
}
