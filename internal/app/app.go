package app

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/finpulse/churn-risk-engine/internal/bootstrap"
	"github.com/finpulse/churn-risk-engine/internal/config"
	"github.com/finpulse/churn-risk-engine/internal/server"
	"github.com/finpulse/churn-risk-engine/internal/worker"
	"github.com/finpulse/churn-risk-engine/pkg/alert"
	"github.com/finpulse/churn-risk-engine/pkg/prediction"
)

// App holds all application dependencies and manages the application
// lifecycle.
type App struct {
	cfg               *config.Config
	redisClient       *redis.Client
	metricsServer     *server.MetricsServer
	batchWorker       *worker.BatchWorker
	orchestrator      *prediction.Orchestrator
	dispatcher        *alert.Dispatcher
	shutdownTelemetry func(context.Context) error
}

// New creates and initializes a new application instance. Components come up
// in dependency order: Redis, dispatch config, engine components, servers,
// telemetry.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logrus.Info("initializing application...")

	app := &App{cfg: cfg}

	if err := app.initRedis(ctx); err != nil {
		return nil, fmt.Errorf("failed to init Redis: %w", err)
	}

	app.orchestrator = bootstrap.InitOrchestrator(app.redisClient)

	dispatcher, err := bootstrap.InitDispatcher(app.redisClient, cfg.DispatchConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to init dispatcher: %w", err)
	}
	app.dispatcher = dispatcher

	app.batchWorker = worker.New(app.orchestrator, app.redisClient, cfg.BatchSchedule)

	app.metricsServer = server.NewMetricsServer(cfg.MetricsPort, "/metrics")
	if err := app.metricsServer.Setup(); err != nil {
		return nil, fmt.Errorf("failed to setup metrics server: %w", err)
	}

	shutdownTelemetry, err := server.SetupTelemetry(ctx, cfg.ServiceName, cfg.Environment, cfg.ZipkinCollectorURL)
	if err != nil {
		return nil, fmt.Errorf("failed to setup telemetry: %w", err)
	}
	app.shutdownTelemetry = shutdownTelemetry

	logrus.Info("application initialized successfully")
	return app, nil
}

// Orchestrator exposes the prediction orchestrator to embedding callers.
func (a *App) Orchestrator() *prediction.Orchestrator {
	return a.orchestrator
}

// Dispatcher exposes the alert dispatcher to embedding callers.
func (a *App) Dispatcher() *alert.Dispatcher {
	return a.dispatcher
}

// initRedis connects to Redis, retrying with exponential backoff.
func (a *App) initRedis(ctx context.Context) error {
	client := redis.NewClient(&redis.Options{
		Addr:         a.cfg.RedisHost + ":" + a.cfg.RedisPort,
		Password:     a.cfg.RedisPassword,
		DB:           0, // use default DB
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	b := backoff.NewExponentialBackOff()
	maxRetries := backoff.WithMaxRetries(b, 5)

	err := backoff.Retry(
		func() error {
			_, err := client.Ping(ctx).Result()
			if err != nil {
				logrus.Warnf("Redis connection failed: %v, retrying...", err)
				return err
			}
			return nil
		},
		maxRetries,
	)

	if err != nil {
		return err
	}

	a.redisClient = client
	logrus.Info("Redis client initialized")
	return nil
}
