package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/pubconcept/internal/application/allowset"
	"github.com/turtacn/pubconcept/internal/application/replacement"
	"github.com/turtacn/pubconcept/internal/bootstrap"
	"github.com/turtacn/pubconcept/internal/config"
	"github.com/turtacn/pubconcept/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/pubconcept/internal/infrastructure/monitoring/prometheus"
	httpserver "github.com/turtacn/pubconcept/internal/interfaces/http"
	"github.com/turtacn/pubconcept/internal/interfaces/http/handlers"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: PUBCONCEPT_* environment only)")
	port := flag.Int("port", 0, "HTTP port (overrides server.port)")
	flag.Parse()

	if err := run(*configPath, *port); err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, port int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if port > 0 {
		cfg.Server.Port = port
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("starting pubconcept API server",
		logging.String("version", version),
		logging.Int("port", cfg.Server.Port),
	)

	var collector prometheus.MetricsCollector
	metrics := prometheus.NewNopPipelineMetrics()
	if cfg.Metrics.Enabled {
		collector, err = prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace:            cfg.Metrics.Namespace,
			EnableProcessMetrics: true,
			EnableGoMetrics:      true,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize metrics: %w", err)
		}
		metrics = prometheus.NewPipelineMetrics(collector)
	}

	infra, err := bootstrap.New(cfg, logger, metrics)
	if err != nil {
		return fmt.Errorf("failed to initialize infrastructure: %w", err)
	}
	defer infra.Close()

	svcOpts := []replacement.Option{
		replacement.WithLogger(logger.Named("replace")),
		replacement.WithMetrics(metrics),
	}
	if cfg.Pipeline.AllowSetPath != "" {
		set, err := allowset.LoadFile(cfg.Pipeline.AllowSetPath)
		if err != nil {
			return err
		}
		logger.Info("Loaded default allow-set",
			logging.String("path", cfg.Pipeline.AllowSetPath),
			logging.Int("pairs", set.Len()))
		svcOpts = append(svcOpts, replacement.WithDefaultAllowSet(set))
	}
	svc := replacement.NewService(infra.Source(), svcOpts...)

	routerCfg := httpserver.RouterConfig{
		ReplaceHandler:   handlers.NewReplaceHandler(svc, cfg.Server.MaxBodySize, logger.Named("http")),
		HealthHandler:    handlers.NewHealthHandler(version, infra.HealthCheckers()...),
		Logger:           logger.Named("http"),
		Metrics:          metrics,
		MetricsCollector: collector,
	}
	if resolver, err := infra.Resolver(); err == nil {
		routerCfg.AllowSetHandler = handlers.NewAllowSetHandler(allowset.NewBuilder(resolver, logger.Named("allowset")))
	} else {
		logger.Warn("MeSH endpoints disabled", logging.Err(err))
	}
	server := httpserver.NewServer(cfg.Server, httpserver.NewRouter(routerCfg), logger.Named("http"))

	if configPath != "" {
		if ls, ok := logger.(logging.LevelSetter); ok {
			config.Watch(configPath, func(next *config.Config) {
				ls.SetLevel(next.Log.Level)
				logger.Info("Log level reloaded", logging.String("level", next.Log.Level))
			}, func(err error) {
				logger.Warn("Ignoring invalid config change", logging.Err(err))
			})
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.ListenAndServe)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newLogger(cfg config.LogConfig) (logging.Logger, error) {
	logCfg := logging.LogConfig{Level: cfg.Level, Format: cfg.Format}
	if cfg.Output != "" {
		logCfg.OutputPaths = []string{cfg.Output}
	}
	return logging.NewLogger(logCfg)
}

//Personal.AI order the ending
