// Copyright 2026 © The BloodTestAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"github.com/MmayankK21/BloodTestAnalyser/pkg/core"
)

// ConfigureSlog installs a correlated logger as the slog default and returns it.
func ConfigureSlog(output io.Writer, level, format string) *slog.Logger {
	logger := NewLogger(output, level, format)
	slog.SetDefault(logger)
	return logger
}

// NewLogger builds a logger that stamps every record with the run id and the
// active span ids found in the record context. format is "json" or "text".
func NewLogger(output io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLogLevel(level)}
	var base slog.Handler = slog.NewTextHandler(output, opts)
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		base = slog.NewJSONHandler(output, opts)
	}
	return slog.New(correlationHandler{next: base})
}

// correlationHandler adds run_id, trace_id and span_id unless the caller
// already set them.
type correlationHandler struct {
	next slog.Handler
}

func (h correlationHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h correlationHandler) Handle(ctx context.Context, record slog.Record) error {
	if ctx == nil {
		return h.next.Handle(ctx, record)
	}
	present := map[string]bool{}
	record.Attrs(func(attr slog.Attr) bool {
		present[attr.Key] = true
		return true
	})
	add := func(key, value string) {
		if value != "" && !present[key] {
			record.AddAttrs(slog.String(key, value))
		}
	}
	if runID, ok := core.RunID(ctx); ok {
		add("run_id", runID)
	}
	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		add("trace_id", sc.TraceID().String())
		add("span_id", sc.SpanID().String())
	}
	return h.next.Handle(ctx, record)
}

func (h correlationHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return correlationHandler{next: h.next.WithAttrs(attrs)}
}

func (h correlationHandler) WithGroup(name string) slog.Handler {
	return correlationHandler{next: h.next.WithGroup(name)}
}

// ParseLogLevel maps log.level to a slog level. Unknown names mean info.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
