// Copyright 2026 © The BloodTestAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"fmt"
	"strings"
	"time"
)

// Provider names accepted by New.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"
)

// Options selects and configures a provider backend.
type Options struct {
	Provider string
	Model    string
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
}

// New builds the provider named in opts.
func New(opts Options) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Provider)) {
	case "", ProviderOllama:
		return NewOllama(opts.BaseURL, opts.Timeout)
	case ProviderOpenAI:
		return NewOpenAI(opts.APIKey, opts.BaseURL, opts.Model), nil
	case ProviderMock:
		return EchoProvider{}, nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", opts.Provider)
	}
}
