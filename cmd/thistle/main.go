package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/Ramsey-B/thistle/config"
	"github.com/Ramsey-B/thistle/internal/repositories/memory"
	"github.com/Ramsey-B/thistle/pkg/events"
	"github.com/Ramsey-B/thistle/pkg/middleware"
	"github.com/Ramsey-B/thistle/pkg/refdata"
	"github.com/Ramsey-B/thistle/pkg/routes/health"
	"github.com/Ramsey-B/thistle/pkg/routes/syncapi"
	"github.com/Ramsey-B/thistle/pkg/startup"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Error("thistle exited with an error")
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) (ectologger.Logger, error) {
	var zapLogger *zap.Logger
	var err error
	if cfg.PrettyLogs {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapCfg := zap.NewProductionConfig()
		if level, parseErr := zap.ParseAtomicLevel(cfg.LogLevel); parseErr == nil {
			zapCfg.Level = level
		}
		zapLogger, err = zapCfg.Build()
	}
	if err != nil {
		return nil, err
	}
	return zapadapter.NewZapEctoLogger(zapLogger, nil), nil
}

func run(cfg *config.Config, logger ectologger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checker := health.NewChecker(cfg.Version)
	boot := startup.NewStartup(logger, cfg.StartupMaxAttempts)

	boot.AddDependency(&tracingDependency{cfg: cfg, logger: logger})

	var pg *postgresDependency
	if cfg.StoreDriver == config.StoreDriverPostgres {
		pg = &postgresDependency{cfg: cfg, logger: logger}
		boot.AddDependency(pg)
		boot.AddDependency(&migrationDependency{cfg: cfg, logger: logger, postgres: pg})
	}

	var redisDep *redisDependency
	if cfg.RedisEnabled {
		redisDep = &redisDependency{cfg: cfg, logger: logger}
		boot.AddDependency(redisDep)
	}

	var kafkaDep *kafkaDependency
	if cfg.KafkaEnabled {
		kafkaDep = &kafkaDependency{cfg: cfg, logger: logger}
		boot.AddDependency(kafkaDep)
	}

	if err := boot.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := boot.Stop(stopCtx); err != nil {
			logger.WithError(err).Error("Failed to stop dependencies")
		}
	}()

	var s stores
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		s = postgresStores(pg.db, logger)
		checker.AddCheck("database", pg.db)
	case config.StoreDriverMemory:
		logger.Warn("Running with the in-memory store, data is lost on exit")
		s = memoryStores(memory.NewStore())
	default:
		return fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}

	var cache refdata.Cache
	if redisDep != nil {
		cache = redisDep.client
		checker.AddCheck("redis", redisDep.client)
	}

	var publisher events.Publisher
	if kafkaDep != nil {
		publisher = kafkaDep.producer
	}

	service := newService(cfg, s, cache, publisher, logger)
	if _, err := newContainer(service, logger); err != nil {
		return fmt.Errorf("failed to register dependencies: %w", err)
	}

	e := newServer(cfg, logger)
	checker.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	syncapi.Register(e.Group("/api/v1/sync", middleware.Container(containerID)))

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Starting %s on port %d", cfg.AppName, cfg.Port)
		if err := e.StartServer(e.Server); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	checker.SetReady(true)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	checker.SetReady(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	logger.Info("Shutting down http server")
	return e.Shutdown(shutdownCtx)
}

func newServer(cfg *config.Config, logger ectologger.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(logger)

	e.Server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		ReadTimeout:       time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second,
		IdleTimeout:       time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.ReadHeaderTimeoutSeconds) * time.Second,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))

	return e
}
