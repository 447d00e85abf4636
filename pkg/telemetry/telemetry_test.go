// Copyright 2026 © The BloodTestAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"
	"testing"
)

func TestInitWithConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "none", cfg: Config{Exporter: "none"}},
		{name: "stdout", cfg: Config{Exporter: "stdout"}},
		{name: "prometheus", cfg: Config{Exporter: "prometheus"}},
		{name: "otlp without endpoint", cfg: Config{Exporter: "otlp"}, wantErr: true},
		{name: "unknown", cfg: Config{Exporter: "zipkin"}, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			shutdown, err := InitWithConfig("bloodtest-test", "v0.0.1", tc.cfg)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("InitWithConfig failed: %v", err)
			}
			if err := shutdown(context.Background()); err != nil {
				t.Errorf("Shutdown failed: %v", err)
			}
		})
	}
}

func TestMetricsHandler(t *testing.T) {
	if MetricsHandler() == nil {
		t.Fatal("expected handler")
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("abcdef", 3); got != "abc..." {
		t.Fatalf("unexpected truncate: %q", got)
	}
	if got := Truncate("abc", 10); got != "abc" {
		t.Fatalf("unexpected truncate: %q", got)
	}
}
