// Package bootstrap wires the engine components together from configuration.
package bootstrap

import (
	"os"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/finpulse/churn-risk-engine/pkg/alert"
	"github.com/finpulse/churn-risk-engine/pkg/feature"
	"github.com/finpulse/churn-risk-engine/pkg/intervention"
	"github.com/finpulse/churn-risk-engine/pkg/notify"
	"github.com/finpulse/churn-risk-engine/pkg/prediction"
)

// InitOrchestrator builds the prediction orchestrator over the Redis-backed
// feature source and prediction store.
func InitOrchestrator(client *redis.Client) *prediction.Orchestrator {
	features := feature.NewRedisSource(client)
	store := prediction.NewRedisStore(client)

	orch := prediction.NewOrchestrator(features, store)
	logrus.Info("initialized prediction orchestrator")
	return orch
}

// InitDispatcher builds the alert dispatcher with its ecosystem
// collaborators. The dispatch config at path toggles which alert types are
// handled; a missing file means every alert type is enabled.
func InitDispatcher(client *redis.Client, path string) (*alert.Dispatcher, error) {
	cfg, err := loadDispatchConfig(path)
	if err != nil {
		return nil, err
	}

	emitter := notify.NewEmitter(notify.NewRedisSink(client))
	interventions := intervention.NewService(client, emitter)

	deps := alert.Dependencies{
		Notifier:      emitter,
		Interventions: interventions,
	}

	dispatcher := alert.NewDispatcher(deps, alert.NewRedisLogSink(client), cfg.EnabledTypes())
	logrus.Infof("initialized alert dispatcher with %d enabled alert types", len(cfg.EnabledTypes()))
	return dispatcher, nil
}

func loadDispatchConfig(path string) (*alert.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logrus.Warnf("dispatch config %s not found, enabling all alert types", path)
		return alert.DefaultConfig(), nil
	}

	cfg, err := alert.LoadConfig(path)
	if err != nil {
		return nil, err
	}

	logrus.Infof("loaded dispatch configuration from %s", path)
	return cfg, nil
}
