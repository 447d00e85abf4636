// Copyright 2026 © The BloodTestAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/MmayankK21/BloodTestAnalyser/pkg/audit"
	"github.com/MmayankK21/BloodTestAnalyser/pkg/config"
	"github.com/MmayankK21/BloodTestAnalyser/pkg/core"
	"github.com/MmayankK21/BloodTestAnalyser/pkg/crew"
	"github.com/MmayankK21/BloodTestAnalyser/pkg/errors"
	"github.com/MmayankK21/BloodTestAnalyser/pkg/guardrails"
	"github.com/MmayankK21/BloodTestAnalyser/pkg/llm"
	"github.com/MmayankK21/BloodTestAnalyser/pkg/resilience"
	"github.com/MmayankK21/BloodTestAnalyser/pkg/telemetry"
)

const serviceName = "bloodtest"

// app holds everything a command needs once configuration is resolved.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	definition *crew.Definition
	runner     *crew.Runner
	guard      *guardrails.Guardrails
	health     *core.HealthRegistry
	metrics    http.Handler
	closers    []func(context.Context) error
}

func loadConfig(flags *globalFlags) (*config.Config, error) {
	cfg, err := config.LoadWithProfile(flags.ConfigPath, flags.Profile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDefinition(cfg *config.Config) (*crew.Definition, error) {
	if cfg.Crew.File == "" {
		return crew.Default(), nil
	}
	def, err := crew.LoadDefinition(cfg.Crew.File)
	if err != nil {
		return nil, errors.New(errors.CodeConfig, "failed to load crew definition", err).
			WithContext("path", cfg.Crew.File)
	}
	return def, nil
}

// newApp wires configuration, logging, telemetry, the provider, the audit
// store and the runner. logOutput receives structured logs.
func newApp(flags *globalFlags, logOutput io.Writer) (*app, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	logger := telemetry.ConfigureSlog(logOutput, cfg.Log.Level, cfg.Log.Format)
	a := &app{cfg: cfg, logger: logger, health: core.NewHealthRegistry()}

	shutdown, err := telemetry.InitWithConfig(serviceName, version, telemetry.Config{
		Exporter:     cfg.Telemetry.Exporter,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		OTLPInsecure: cfg.Telemetry.OTLPInsecure,
	})
	if err != nil {
		return nil, errors.New(errors.CodeConfig, "failed to initialise telemetry", err)
	}
	a.closers = append(a.closers, func(ctx context.Context) error { return shutdown(ctx) })
	if cfg.Telemetry.Exporter == telemetry.ExporterPrometheus {
		a.metrics = telemetry.MetricsHandler()
	}
	metrics, err := telemetry.NewPipelineMetrics()
	if err != nil {
		a.Close(context.Background())
		return nil, err
	}

	a.definition, err = loadDefinition(cfg)
	if err != nil {
		a.Close(context.Background())
		return nil, err
	}
	if unmatched := a.definition.UnmatchedTasks(); len(unmatched) > 0 && !cfg.Crew.Strict {
		logger.Warn("crew tasks reference unknown roles and will be skipped", slog.Any("tasks", unmatched))
	}
	registry, tasks, err := a.definition.Build(cfg.Crew.Strict)
	if err != nil {
		a.Close(context.Background())
		return nil, err
	}

	baseURL := cfg.LLM.BaseURL
	if cfg.LLM.Provider == llm.ProviderOpenAI && baseURL == llm.DefaultOllamaURL {
		baseURL = ""
	}
	provider, err := llm.New(llm.Options{
		Provider: cfg.LLM.Provider,
		Model:    cfg.LLM.Model,
		BaseURL:  baseURL,
		APIKey:   cfg.LLM.APIKey,
	})
	if err != nil {
		a.Close(context.Background())
		return nil, errors.New(errors.CodeConfig, "failed to create llm provider", err)
	}
	a.health.Register("llm", llm.HealthChecker("llm", provider))

	retry := resilience.NoRetry()
	if cfg.LLM.Retry.MaxAttempts > 1 {
		retry = resilience.DefaultRetryConfig().
			WithMaxAttempts(cfg.LLM.Retry.MaxAttempts).
			WithInitialDelay(cfg.LLM.Retry.InitialDelay)
	}

	opts := []crew.Option{
		crew.WithCrewName(a.definition.Name),
		crew.WithModel(cfg.LLM.Model),
		crew.WithCallTimeout(cfg.LLM.CallTimeout),
		crew.WithRetry(retry),
		crew.WithLogger(logger),
		crew.WithMetrics(metrics),
	}
	if cfg.LLM.Temperature != nil {
		opts = append(opts, crew.WithTemperature(*cfg.LLM.Temperature))
	}
	if cfg.Audit.Enabled {
		store, closeStore, err := openAuditStore(cfg.Audit)
		if err != nil {
			a.Close(context.Background())
			return nil, err
		}
		a.closers = append(a.closers, closeStore)
		a.health.Register("audit", audit.HealthChecker(store))
		opts = append(opts, crew.WithAuditStore(store))
	}

	if cfg.Guardrail.Enabled {
		a.guard = guardrails.New(
			guardrails.WithPromptInjectionDetector(guardrails.WithInjectionThreshold(cfg.Guardrail.InjectionThreshold)),
			guardrails.WithMaxQueryLength(cfg.Guardrail.MaxQueryLength),
		)
	}

	a.runner, err = crew.NewRunner(registry, tasks, provider, opts...)
	if err != nil {
		a.Close(context.Background())
		return nil, err
	}
	logger.Debug("crew ready",
		slog.String("crew", a.definition.Name),
		slog.Int("tasks", tasks.Len()),
		slog.String("provider", cfg.LLM.Provider),
		slog.String("model", cfg.LLM.Model),
		slog.Bool("guardrails", a.guard != nil),
	)
	return a, nil
}

func openAuditStore(cfg config.AuditConfig) (audit.Store, func(context.Context) error, error) {
	switch cfg.Driver {
	case "sqlite":
		store, err := audit.OpenSQLite(cfg.DSN)
		if err != nil {
			return nil, nil, errors.New(errors.CodeConfig, "failed to open audit store", err).
				WithContext("dsn", cfg.DSN)
		}
		return store, func(context.Context) error { return store.Close() }, nil
	default:
		return audit.NewMemoryStore(), func(context.Context) error { return nil }, nil
	}
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return stderrors.Join(errs...)
}
