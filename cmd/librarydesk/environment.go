package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"

	"github.com/AntonStoeckl/library-circulation-go/app/shared/shell/config"
	"github.com/AntonStoeckl/library-circulation-go/circulation"
	"github.com/AntonStoeckl/library-circulation-go/circulation/oteladapters"
	"github.com/AntonStoeckl/library-circulation-go/circulation/postgresengine"
)

var ErrUnknownLogFormat = errors.New("unknown log format")

// environment is what every subcommand starts from: the loaded config and the observability stack.
type environment struct {
	cfg       config.Config
	logger    *slog.Logger
	observers observers
	shutdown  func(ctx context.Context) error
}

// observers are handed to the store and the handler wrappers. Nil members are skipped.
type observers struct {
	logger     circulation.Logger
	contextual circulation.ContextualLogger
	metrics    circulation.MetricsCollector
	tracing    circulation.TracingCollector
}

func (o observers) storeOptions() []postgresengine.Option {
	options := []postgresengine.Option{postgresengine.WithLogger(o.logger)}

	if o.contextual != nil {
		options = append(options, postgresengine.WithContextualLogger(o.contextual))
	}

	if o.metrics != nil {
		options = append(options, postgresengine.WithMetrics(o.metrics))
	}

	if o.tracing != nil {
		options = append(options, postgresengine.WithTracing(o.tracing))
	}

	return options
}

// setup loads the configuration and builds logging, plus metrics and tracing when OTel is enabled.
func setup(ctx context.Context, opts *rootOptions, logOutput io.Writer) (*environment, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	if err = cfg.Validate(); err != nil {
		return nil, err
	}

	handler, err := newLogHandler(logOutput, cfg.Log, opts.verbose)
	if err != nil {
		return nil, err
	}

	logger := slog.New(handler)

	env := &environment{
		cfg:       cfg,
		logger:    logger,
		observers: observers{logger: logger},
		shutdown:  func(context.Context) error { return nil },
	}

	if cfg.OTel.Enabled {
		providers, otelErr := config.NewObservabilityProviders(ctx, cfg.OTel, cfg.HTTP.Version)
		if otelErr != nil {
			return nil, otelErr
		}

		bridge := oteladapters.NewFanOutLogger(cfg.OTel.ServiceName, handler)

		env.logger = bridge.Slog()
		env.observers = observers{
			logger:     bridge.Slog(),
			contextual: bridge,
			metrics:    oteladapters.NewMetricsCollector(otel.Meter(cfg.OTel.ServiceName)),
			tracing:    oteladapters.NewTracingCollector(otel.Tracer(cfg.OTel.ServiceName)),
		}
		env.shutdown = providers.Shutdown
	}

	slog.SetDefault(env.logger)

	return env, nil
}

// parseLevel accepts the slog level names (debug, info, warn, error), with an optional offset like "info+2".
// verbose always wins.
func parseLevel(raw string, verbose bool) (slog.Level, error) {
	if verbose {
		return slog.LevelDebug, nil
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return slog.LevelInfo, nil
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return 0, fmt.Errorf("%w: LOG_LEVEL=%q", config.ErrInvalidEnvValue, raw)
	}

	return level, nil
}

func newLogHandler(w io.Writer, cfg config.LogConfig, verbose bool) (slog.Handler, error) {
	level, err := parseLevel(cfg.Level, verbose)
	if err != nil {
		return nil, err
	}

	handlerOptions := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "json", "":
		return slog.NewJSONHandler(w, handlerOptions), nil
	case "text":
		return slog.NewTextHandler(w, handlerOptions), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownLogFormat, cfg.Format)
	}
}
