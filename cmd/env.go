package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/fanout-cli/internal/cost"
	"github.com/sells-group/fanout-cli/internal/dispatch"
	"github.com/sells-group/fanout-cli/internal/events"
	"github.com/sells-group/fanout-cli/internal/keyring"
	"github.com/sells-group/fanout-cli/internal/orchestrator"
)

// appEnv holds the initialized keyring, broker, and orchestrator shared by
// all commands.
type appEnv struct {
	Keys   *keyring.Store
	Broker *events.Broker
	Orc    *orchestrator.Orchestrator
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Broker != nil {
		e.Broker.Close()
	}
	if e.Keys != nil {
		_ = e.Keys.Close()
	}
}

// initMedium opens the credential backend selected by keyring.driver.
func initMedium(ctx context.Context) (keyring.Medium, error) {
	switch cfg.Keyring.Driver {
	case "sqlite":
		return keyring.NewSQLite(cfg.Keyring.Path)
	case "postgres":
		if cfg.Keyring.DatabaseURL == "" {
			return nil, eris.New("keyring.database_url is required for the postgres driver")
		}
		return keyring.NewPostgres(ctx, cfg.Keyring.DatabaseURL)
	case "memory":
		return keyring.NewMemoryMedium(), nil
	default:
		return nil, eris.Errorf("unknown keyring driver %q", cfg.Keyring.Driver)
	}
}

// initEnv sets up the keyring, provider callers, dispatch engine, and
// orchestrator. Callers should defer env.Close().
func initEnv(ctx context.Context) (*appEnv, error) {
	medium, err := initMedium(ctx)
	if err != nil {
		return nil, err
	}
	keys := keyring.NewStore(medium)

	callers := dispatch.NewRegistry()
	callers.Register(dispatch.NewOpenAICaller(dispatch.ClientConfig{
		BaseURL: cfg.Providers.OpenAI.BaseURL,
		Model:   cfg.Providers.OpenAI.Model,
	}))
	callers.Register(dispatch.NewAnthropicCaller(dispatch.ClientConfig{
		BaseURL: cfg.Providers.Anthropic.BaseURL,
		Model:   cfg.Providers.Anthropic.Model,
	}))
	callers.Register(dispatch.NewGeminiCaller(dispatch.ClientConfig{
		BaseURL: cfg.Providers.Gemini.BaseURL,
		Model:   cfg.Providers.Gemini.Model,
	}))
	callers.Register(dispatch.NewDeepSeekCaller(dispatch.ClientConfig{
		BaseURL: cfg.Providers.DeepSeek.BaseURL,
		Model:   cfg.Providers.DeepSeek.Model,
	}))

	engine := dispatch.NewEngine(callers, keys, dispatch.EngineConfig{
		CallTimeout:   cfg.Dispatch.Timeout(),
		RatePerMinute: cfg.Dispatch.RatePerMinute,
	})

	broker := events.NewBroker()

	orc := orchestrator.New(orchestrator.Deps{
		Keys:      keys,
		Engine:    engine,
		Validator: dispatch.NewValidator(callers),
		Broker:    broker,
		Costs:     cost.NewCalculator(cfg.Pricing),
	})

	zap.L().Debug("environment initialized",
		zap.String("keyring_driver", cfg.Keyring.Driver),
		zap.Int("callers", len(callers.List())),
	)

	return &appEnv{Keys: keys, Broker: broker, Orc: orc}, nil
}
