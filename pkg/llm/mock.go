// Copyright 2026 © The BloodTestAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"fmt"
	"strings"
)

// MockProvider is a testing implementation of Provider.
type MockProvider struct {
	Response string
	Err      error
	ChatFunc func(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

func (m *MockProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, req)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return &ChatResponse{
		Content: m.Response,
		Usage: Usage{
			PromptTokens:     10,
			CompletionTokens: 10,
			TotalTokens:      20,
		},
	}, nil
}

// EchoProvider answers without a backend by echoing the role and task lines
// of the prompt. It backs the "mock" provider used for local runs.
type EchoProvider struct{}

// Chat implements Provider.
func (EchoProvider) Chat(_ context.Context, req ChatRequest) (*ChatResponse, error) {
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("echo provider: empty request")
	}
	prompt := req.Messages[len(req.Messages)-1].Content
	var b strings.Builder
	b.WriteString("[mock response]")
	for _, line := range strings.Split(prompt, "\n") {
		if strings.HasPrefix(line, "ROLE:") || strings.HasPrefix(line, "TASK:") {
			b.WriteString("\n")
			b.WriteString(line)
		}
	}
	words := len(strings.Fields(prompt))
	return &ChatResponse{
		Content: b.String(),
		Usage:   Usage{PromptTokens: words, TotalTokens: words},
	}, nil
}

// Ping implements Pinger.
func (EchoProvider) Ping(context.Context) error { return nil }
