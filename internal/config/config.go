package config

// Config holds all application configuration loaded from environment
// variables via github.com/caarlos0/env struct tags.
type Config struct {
	// Server configuration
	MetricsPort int    `env:"METRICS_PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"dev"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"churn-risk-engine"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Redis configuration
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     string `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	// Dispatch wiring configuration
	DispatchConfigPath string `env:"DISPATCH_CONFIG_PATH" envDefault:"config/dispatch.yaml"`

	// Batch scoring configuration. The schedule uses standard cron syntax;
	// an empty schedule disables the worker.
	BatchSchedule string `env:"BATCH_SCHEDULE" envDefault:"0 3 * * *"`

	// Telemetry configuration. An empty collector URL disables span export.
	ZipkinCollectorURL string `env:"ZIPKIN_COLLECTOR_URL"`
}
