// Copyright 2026 © The BloodTestAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package crew

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/MmayankK21/BloodTestAnalyser/pkg/audit"
	"github.com/MmayankK21/BloodTestAnalyser/pkg/core"
	"github.com/MmayankK21/BloodTestAnalyser/pkg/document"
	"github.com/MmayankK21/BloodTestAnalyser/pkg/errors"
	"github.com/MmayankK21/BloodTestAnalyser/pkg/llm"
	"github.com/MmayankK21/BloodTestAnalyser/pkg/resilience"
	"github.com/MmayankK21/BloodTestAnalyser/pkg/telemetry"
)

// DefaultCallTimeout bounds a single model call unless overridden.
const DefaultCallTimeout = 5 * time.Minute

// Runner executes a task list strictly in order against one provider.
// A Runner holds no per-run state and may be shared across goroutines.
type Runner struct {
	name        string
	registry    *Registry
	tasks       *TaskList
	provider    llm.Provider
	reader      document.Reader
	model       string
	temperature *float64
	callTimeout time.Duration
	retry       resilience.RetryConfig
	logger      *slog.Logger
	emitters    core.MultiEmitter
	metrics     *telemetry.PipelineMetrics
	tracer      trace.Tracer
}

// Option configures a Runner.
type Option func(*Runner)

// WithCrewName labels logs and spans with the crew name.
func WithCrewName(name string) Option {
	return func(r *Runner) { r.name = name }
}

// WithModel sets the model passed to the provider.
func WithModel(model string) Option {
	return func(r *Runner) { r.model = model }
}

// WithTemperature pins the sampling temperature. Without it the backend
// default applies.
func WithTemperature(t float64) Option {
	return func(r *Runner) { r.temperature = &t }
}

// WithCallTimeout bounds each model call. Zero disables the bound.
func WithCallTimeout(d time.Duration) Option {
	return func(r *Runner) { r.callTimeout = d }
}

// WithRetry configures retries of recoverable model failures.
func WithRetry(rc resilience.RetryConfig) Option {
	return func(r *Runner) { r.retry = rc }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithEventEmitter adds an event sink.
func WithEventEmitter(e core.EventEmitter) Option {
	return func(r *Runner) {
		if e != nil {
			r.emitters = append(r.emitters, e)
		}
	}
}

// WithAuditStore records run events in store.
func WithAuditStore(store audit.Store) Option {
	return func(r *Runner) {
		if store != nil {
			r.emitters = append(r.emitters, audit.Emitter(store, r.logger))
		}
	}
}

// WithDocumentReader replaces the PDF reader. The reader is always wrapped
// with the soft-failure contract.
func WithDocumentReader(reader document.Reader) Option {
	return func(r *Runner) {
		if reader != nil {
			r.reader = reader
		}
	}
}

// WithMetrics records pipeline metrics.
func WithMetrics(m *telemetry.PipelineMetrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// NewRunner builds a runner for the given roles and tasks.
func NewRunner(registry *Registry, tasks *TaskList, provider llm.Provider, opts ...Option) (*Runner, error) {
	if registry == nil {
		return nil, errors.New(errors.CodeInvalidInput, "registry is required", nil)
	}
	if tasks == nil || tasks.Len() == 0 {
		return nil, errors.New(errors.CodeInvalidInput, "at least one task is required", nil)
	}
	if provider == nil {
		return nil, errors.New(errors.CodeInvalidInput, "llm provider is required", nil)
	}
	r := &Runner{
		name:        "crew",
		registry:    registry,
		tasks:       tasks,
		provider:    provider,
		reader:      document.NewPDFReader(),
		callTimeout: DefaultCallTimeout,
		retry:       resilience.NoRetry(),
		logger:      slog.Default(),
		tracer:      otel.Tracer("bloodtest/crew"),
	}
	for _, opt := range opts {
		opt(r)
	}
	if _, soft := r.reader.(*document.SoftReader); !soft {
		r.reader = document.Soft(r.reader)
	}
	return r, nil
}

// Kickoff runs the crew and returns the concatenated report.
func (r *Runner) Kickoff(ctx context.Context, input core.ExecutionInput) (string, error) {
	result, err := r.Run(ctx, input)
	if err != nil {
		return "", err
	}
	return result.Report(), nil
}

// Run executes every task in order. Tasks whose role is not registered are
// skipped. The first failure aborts the run and no partial result is
// returned.
func (r *Runner) Run(ctx context.Context, input core.ExecutionInput) (*Result, error) {
	ctx, runID := core.EnsureRunID(ctx)
	ctx, span := r.tracer.Start(ctx, "Crew.Run", trace.WithAttributes(
		attribute.String("bloodtest.crew", r.name),
		attribute.String("bloodtest.run_id", runID),
		attribute.Int("bloodtest.crew.tasks", r.tasks.Len()),
	))
	defer span.End()

	logger := r.logger.With(slog.String("crew", r.name))
	logger.InfoContext(ctx, "crew run started", slog.Int("tasks", r.tasks.Len()))
	r.emit(ctx, core.NewEvent(core.EventRunStarted, runID, "", "", map[string]any{
		"tasks": r.tasks.Len(),
	}))

	start := time.Now()
	result := newResult()
	for i, task := range r.tasks.Tasks() {
		if err := r.runTask(ctx, logger, runID, i, task, input, result); err != nil {
			typed := errors.As(err)
			span.RecordError(typed)
			span.SetStatus(codes.Error, typed.Error())
			r.metrics.RecordRun(ctx, "failed", time.Since(start))
			r.metrics.RecordError(ctx, typed, "crew")
			r.emit(ctx, core.NewEvent(core.EventRunFailed, runID, task.Name, task.Role, map[string]any{
				"code": string(typed.Code),
			}))
			logger.ErrorContext(ctx, "crew run failed",
				slog.String("task", task.Name),
				slog.String("role", task.Role),
				slog.String("code", string(typed.Code)),
				slog.Any("error", typed),
			)
			return nil, typed
		}
	}

	elapsed := time.Since(start)
	r.metrics.RecordRun(ctx, "completed", elapsed)
	r.emit(ctx, core.NewEvent(core.EventRunCompleted, runID, "", "", map[string]any{
		"sections":    result.Len(),
		"duration_ms": elapsed.Milliseconds(),
	}))
	logger.InfoContext(ctx, "crew run completed",
		slog.Int("sections", result.Len()),
		slog.Duration("duration", elapsed),
	)
	return result, nil
}

func (r *Runner) runTask(ctx context.Context, logger *slog.Logger, runID string, index int, task core.TaskDescriptor, input core.ExecutionInput, result *Result) error {
	role, ok := r.registry.Lookup(task.Role)
	if !ok {
		logger.WarnContext(ctx, "skipping task with unknown role",
			slog.String("task", task.Name),
			slog.String("role", task.Role),
		)
		r.metrics.RecordTask(ctx, task.Role, "skipped")
		r.emit(ctx, core.NewEvent(core.EventTaskSkipped, runID, task.Name, task.Role, map[string]any{
			"reason": "role not found",
		}))
		return nil
	}

	taskCtx, span := r.tracer.Start(ctx, "Crew.Task",
		trace.WithAttributes(telemetry.TaskAttributes(runID, task.Name, role.Name, index)...))
	defer span.End()

	r.emit(taskCtx, core.NewEvent(core.EventTaskStarted, runID, task.Name, role.Name, nil))
	taskStart := time.Now()

	var report *string
	if role.HasCapability(core.CapabilityDocumentReader) {
		text, readErr := r.reader.Read(taskCtx, input.FilePath)
		errMsg := ""
		if readErr != nil {
			errMsg = readErr.Error()
			logger.WarnContext(taskCtx, "report could not be read",
				slog.String("task", task.Name),
				slog.String("path", input.FilePath),
				slog.Any("error", readErr),
			)
			r.metrics.RecordDocumentError(taskCtx, role.Name)
			r.emit(taskCtx, core.NewEvent(core.EventDocumentError, runID, task.Name, role.Name, map[string]any{
				"error": telemetry.Truncate(errMsg, 256),
			}))
		}
		span.SetAttributes(telemetry.DocumentAttributes(len(text), errMsg)...)
		report = &text
	}

	prompt, err := FormatPrompt(role, task, input, report)
	if err != nil {
		r.metrics.RecordTask(taskCtx, role.Name, "failed")
		return r.taskError(span, err, task, role)
	}

	callStart := time.Now()
	retry := r.retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
		r.metrics.RecordRetry(taskCtx, role.Name)
		logger.WarnContext(taskCtx, "retrying model call",
			slog.String("role", role.Name),
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
			slog.Any("error", err),
		)
	})
	resp, err := resilience.DoWithResult(taskCtx, retry, func() (*llm.ChatResponse, error) {
		return resilience.WithTimeout(taskCtx, r.callTimeout, func(callCtx context.Context) (*llm.ChatResponse, error) {
			req := llm.Prompt(r.model, prompt)
			if r.temperature != nil {
				req = req.WithTemperature(*r.temperature)
			}
			resp, err := r.provider.Chat(callCtx, req)
			if err != nil {
				return nil, wrapProviderError(err)
			}
			return resp, nil
		})
	})
	callElapsed := time.Since(callStart)
	if err != nil {
		r.metrics.RecordTask(taskCtx, role.Name, "failed")
		return r.taskError(span, err, task, role)
	}

	span.SetAttributes(telemetry.LLMAttributes(r.model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens,
		float64(callElapsed.Milliseconds()))...)
	r.metrics.RecordLLMCall(taskCtx, role.Name, callElapsed, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	r.metrics.RecordTask(taskCtx, role.Name, "completed")

	result.set(role.Name, resp.Content)
	r.emit(taskCtx, core.NewEvent(core.EventTaskCompleted, runID, task.Name, role.Name, map[string]any{
		"duration_ms": time.Since(taskStart).Milliseconds(),
	}))
	logger.DebugContext(taskCtx, "task completed",
		slog.String("task", task.Name),
		slog.String("role", role.Name),
		slog.Int("chars", len(resp.Content)),
	)
	return nil
}

func (r *Runner) taskError(span trace.Span, err error, task core.TaskDescriptor, role core.Role) error {
	typed := errors.As(err).
		WithContext("task", task.Name).
		WithContext("role", role.Name)
	span.RecordError(typed)
	span.SetStatus(codes.Error, typed.Error())
	return typed
}

func (r *Runner) emit(ctx context.Context, ev core.Event) {
	r.emitters.Emit(ctx, ev)
}

// wrapProviderError types provider failures. Errors that are already typed
// keep their code; context cancellation is reported as lost context.
func wrapProviderError(err error) error {
	var typed *errors.Error
	if stderrors.As(err, &typed) {
		return err
	}
	if stderrors.Is(err, context.Canceled) {
		return errors.New(errors.CodeContextLost, "request cancelled", err)
	}
	return errors.New(errors.CodeLLMError, "model call failed", err).
		WithRecoverable(true)
}
