// Copyright 2026 © The BloodTestAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the analyser configuration from defaults, an optional
// YAML file, an optional profile overlay and BLOODTEST_ environment variables.
package config

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/MmayankK21/BloodTestAnalyser/pkg/errors"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "BLOODTEST_"

type Config struct {
	Log       LogConfig       `koanf:"log"`
	Server    ServerConfig    `koanf:"server"`
	LLM       LLMConfig       `koanf:"llm"`
	Crew      CrewConfig      `koanf:"crew"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Audit     AuditConfig     `koanf:"audit"`
	Guardrail GuardrailConfig `koanf:"guardrails"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json, text
}

type ServerConfig struct {
	Addr           string `koanf:"addr"`
	UploadDir      string `koanf:"upload_dir"`
	MaxUploadBytes int64  `koanf:"max_upload_bytes"`
	CORS           bool   `koanf:"cors"`
	Debug          bool   `koanf:"debug"`
}

type LLMConfig struct {
	Provider    string        `koanf:"provider"` // ollama, openai, mock
	Model       string        `koanf:"model"`
	BaseURL     string        `koanf:"base_url"`
	APIKey      string        `koanf:"api_key"`
	Temperature *float64      `koanf:"temperature"` // unset uses the backend default
	CallTimeout time.Duration `koanf:"call_timeout"`
	Retry       RetryConfig   `koanf:"retry"`
}

type RetryConfig struct {
	MaxAttempts  int           `koanf:"max_attempts"`
	InitialDelay time.Duration `koanf:"initial_delay"`
}

// CrewConfig selects the crew definition. An empty File uses the built-in
// blood test crew.
type CrewConfig struct {
	File   string `koanf:"file"`
	Strict bool   `koanf:"strict"`
}

type TelemetryConfig struct {
	Exporter     string `koanf:"exporter"` // none, stdout, otlp, prometheus
	OTLPEndpoint string `koanf:"otlp_endpoint"`
	OTLPInsecure bool   `koanf:"otlp_insecure"`
}

type AuditConfig struct {
	Enabled bool   `koanf:"enabled"`
	Driver  string `koanf:"driver"` // memory, sqlite
	DSN     string `koanf:"dsn"`
}

// GuardrailConfig screens queries before any model call.
type GuardrailConfig struct {
	Enabled            bool    `koanf:"enabled"`
	MaxQueryLength     int     `koanf:"max_query_length"`
	InjectionThreshold float64 `koanf:"injection_threshold"`
}

// optionalKeys have no default but may still be set from the environment.
var optionalKeys = []string{"llm.temperature"}

var defaults = map[string]any{
	"log.level":                      "info",
	"log.format":                     "text",
	"server.addr":                    ":8000",
	"server.upload_dir":              "data",
	"server.max_upload_bytes":        int64(32 << 20),
	"server.cors":                    false,
	"server.debug":                   false,
	"llm.provider":                   "ollama",
	"llm.model":                      "llama3",
	"llm.base_url":                   "http://localhost:11434",
	"llm.api_key":                    "",
	"llm.call_timeout":               5 * time.Minute,
	"llm.retry.max_attempts":         1,
	"llm.retry.initial_delay":        500 * time.Millisecond,
	"crew.file":                      "",
	"crew.strict":                    true,
	"telemetry.exporter":             "none",
	"telemetry.otlp_endpoint":        "",
	"telemetry.otlp_insecure":        true,
	"audit.enabled":                  false,
	"audit.driver":                   "memory",
	"audit.dsn":                      "file:bloodtest_audit.db",
	"guardrails.enabled":             false,
	"guardrails.max_query_length":    2000,
	"guardrails.injection_threshold": 0.7,
}

// Load reads the configuration at path. An empty path uses defaults and the
// environment only.
func Load(path string) (*Config, error) {
	return LoadWithProfile(path, "")
}

// LoadWithProfile loads path and then layers config.<profile>.yaml from the
// same directory over it when that file exists. Missing profiles fall back
// to the base file.
func LoadWithProfile(path, profile string) (*Config, error) {
	k := koanf.New(".")

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return nil, err
		}
	}

	// 1. Load from file
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.New(errors.CodeConfig, "failed to load config file", err).
				WithContext("path", path)
		}
	}

	// 2. Profile overlay
	if overlay := profileConfigPath(path, profile); overlay != "" {
		if err := k.Load(file.Provider(overlay), yaml.Parser()); err != nil {
			return nil, errors.New(errors.CodeConfig, "failed to load profile", err).
				WithContext("path", overlay)
		}
	}

	// 3. Load from ENV (BLOODTEST_LLM_CALL_TIMEOUT -> llm.call_timeout)
	keys := envKeys(append(k.Keys(), optionalKeys...))
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return keys[strings.ToLower(strings.TrimPrefix(s, EnvPrefix))]
	}), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.New(errors.CodeConfig, "failed to decode config", err)
	}
	return &cfg, nil
}

// Validate rejects unknown providers, exporters and audit drivers.
func (c *Config) Validate() error {
	var errs []error
	switch c.LLM.Provider {
	case "", "ollama", "openai", "mock":
	default:
		errs = append(errs, fmt.Errorf("llm.provider: unknown provider %q", c.LLM.Provider))
	}
	switch c.Telemetry.Exporter {
	case "", "none", "stdout", "otlp", "prometheus":
	default:
		errs = append(errs, fmt.Errorf("telemetry.exporter: unknown exporter %q", c.Telemetry.Exporter))
	}
	switch c.Audit.Driver {
	case "", "memory", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("audit.driver: unknown driver %q", c.Audit.Driver))
	}
	if c.LLM.CallTimeout < 0 {
		errs = append(errs, fmt.Errorf("llm.call_timeout: must not be negative"))
	}
	if c.Guardrail.MaxQueryLength < 0 {
		errs = append(errs, fmt.Errorf("guardrails.max_query_length: must not be negative"))
	}
	if t := c.Guardrail.InjectionThreshold; t < 0 || t > 1 {
		errs = append(errs, fmt.Errorf("guardrails.injection_threshold: must be between 0 and 1"))
	}
	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, fmt.Errorf("server.max_upload_bytes: must be positive"))
	}
	if len(errs) > 0 {
		return errors.New(errors.CodeConfig, "invalid configuration", stderrors.Join(errs...))
	}
	return nil
}

// profileConfigPath returns the overlay for profile next to base, or "" when
// there is nothing to layer.
func profileConfigPath(base, profile string) string {
	if base == "" || profile == "" {
		return ""
	}
	overlay := filepath.Join(filepath.Dir(base), "config."+profile+".yaml")
	if _, err := os.Stat(overlay); err != nil {
		return ""
	}
	return overlay
}

// envKeys maps the underscore form of every known key to the key itself, so
// keys that contain underscores survive the env name flattening.
func envKeys(known []string) map[string]string {
	out := make(map[string]string, len(known))
	for _, key := range known {
		out[strings.ReplaceAll(key, ".", "_")] = key
	}
	return out
}
