package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/dmitrymomot/flagkit/pkg/config"
	"github.com/dmitrymomot/flagkit/pkg/environment"
	"github.com/dmitrymomot/flagkit/pkg/feature"
	"github.com/dmitrymomot/flagkit/pkg/logger"
	"github.com/dmitrymomot/flagkit/pkg/redis"
	"github.com/dmitrymomot/flagkit/pkg/tenant"
)

const serviceName = "flagctl"

// appConfig is loaded from the environment (and an optional .env file).
type appConfig struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL"`
	Flags    feature.Config
	Redis    redis.Config
}

// app holds everything a command needs once the backend is open.
type app struct {
	cfg      appConfig
	env      environment.Environment
	logger   *slog.Logger
	backend  *feature.Backend
	service  *feature.Service
	registry *prometheus.Registry
}

func openApp(ctx context.Context, logOutput io.Writer, envFiles []string) (*app, error) {
	var cfg appConfig
	if err := config.Load(&cfg, config.WithEnvFiles(envFiles...)); err != nil {
		return nil, err
	}

	env := environment.Parse(cfg.Env)
	opts := []logger.Option{
		logger.WithEnvironment(env, serviceName),
		logger.WithOutput(logOutput),
		logger.WithContextExtractors(tenant.LoggerExtractor()),
	}
	if lvl, ok := logger.ParseLevel(cfg.LogLevel); ok {
		opts = append(opts, logger.WithLevel(lvl))
	}
	log := logger.New(opts...)
	ctx = environment.WithContext(ctx, env)

	reg := prometheus.NewRegistry()
	metrics, err := feature.NewMetrics(reg)
	if err != nil {
		return nil, err
	}

	backend, err := feature.OpenBackend(ctx, cfg.Flags, cfg.Redis, log)
	if err != nil {
		log.ErrorContext(ctx, "failed to open feature flag backend", logger.Error(err))
		return nil, err
	}

	return &app{
		cfg:      cfg,
		env:      env,
		logger:   log,
		backend:  backend,
		service:  backend.NewService(cfg.Flags, log, metrics),
		registry: reg,
	}, nil
}

// writeMetrics dumps the collected counters in the Prometheus text format.
func (a *app) writeMetrics(w io.Writer) error {
	families, err := a.registry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	var errs []error
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *app) close() error {
	if a == nil || a.backend == nil {
		return nil
	}
	return a.backend.Close()
}
