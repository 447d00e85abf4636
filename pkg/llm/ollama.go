// Copyright 2026 © The BloodTestAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"
)

// DefaultOllamaURL is the address of a local Ollama daemon.
const DefaultOllamaURL = "http://localhost:11434"

// OllamaProvider implements the Provider interface for Ollama.
type OllamaProvider struct {
	client *api.Client
}

// NewOllama creates a new OllamaProvider. A zero timeout leaves the HTTP
// client unbounded; per-call deadlines come from the context.
func NewOllama(baseURL string, timeout time.Duration) (*OllamaProvider, error) {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama base url %q: %w", baseURL, err)
	}
	return &OllamaProvider{
		client: api.NewClient(u, &http.Client{Timeout: timeout}),
	}, nil
}

// Chat sends a non-streaming chat request to Ollama.
func (p *OllamaProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	stream := false
	oReq := &api.ChatRequest{
		Model:    req.Model,
		Messages: make([]api.Message, 0, len(req.Messages)),
		Stream:   &stream,
	}
	for _, msg := range req.Messages {
		oReq.Messages = append(oReq.Messages, api.Message{Role: string(msg.Role), Content: msg.Content})
	}
	if req.Temperature != nil {
		oReq.Options = map[string]any{
			"temperature": *req.Temperature,
		}
	}

	var out ChatResponse
	err := p.client.Chat(ctx, oReq, func(resp api.ChatResponse) error {
		out.Content += resp.Message.Content
		if resp.Done {
			out.Usage = Usage{
				PromptTokens:     resp.PromptEvalCount,
				CompletionTokens: resp.EvalCount,
				TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama api call failed: %w", err)
	}
	return &out, nil
}

// Ping checks that the Ollama daemon answers.
func (p *OllamaProvider) Ping(ctx context.Context) error {
	return p.client.Heartbeat(ctx)
}

var (
	_ Provider = (*OllamaProvider)(nil)
	_ Pinger   = (*OllamaProvider)(nil)
)
