// Copyright 2026 © The BloodTestAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

// Package llmtest provides scripted fakes for exercising crews without a
// model backend.
//
// Example usage:
//
//	provider := llmtest.NewScenarioProvider().
//	    AddResponse("verified").
//	    AddResponse("summary")
//	runner, _ := crew.NewRunner(registry, tasks, provider)
package llmtest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/MmayankK21/BloodTestAnalyser/pkg/llm"
)

// ScenarioProvider is a mock provider with scripted responses and request
// capture.
type ScenarioProvider struct {
	mu           sync.Mutex
	responses    []ScriptedResponse
	currentIndex int
	requests     []llm.ChatRequest
	defaultError error
	onChat       func(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error)
}

// ScriptedResponse defines a response for the scenario provider.
type ScriptedResponse struct {
	Content string
	Error   error
	Usage   llm.Usage
	// Condition skips this response unless it matches the request.
	Condition func(req llm.ChatRequest) bool
}

// NewScenarioProvider creates a new scenario provider.
func NewScenarioProvider() *ScenarioProvider {
	return &ScenarioProvider{}
}

// AddResponse queues a response to be returned.
func (p *ScenarioProvider) AddResponse(content string) *ScenarioProvider {
	return p.AddScriptedResponse(ScriptedResponse{Content: content})
}

// AddErrorResponse queues an error response.
func (p *ScenarioProvider) AddErrorResponse(err error) *ScenarioProvider {
	return p.AddScriptedResponse(ScriptedResponse{Error: err})
}

// AddScriptedResponse adds a fully configured response.
func (p *ScenarioProvider) AddScriptedResponse(resp ScriptedResponse) *ScenarioProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.responses = append(p.responses, resp)
	return p
}

// WithDefaultError sets the error to return when no responses are queued.
func (p *ScenarioProvider) WithDefaultError(err error) *ScenarioProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.defaultError = err
	return p
}

// WithChatFunc sets a custom function for handling chat requests. It runs
// outside the provider lock so it may block on ctx.
func (p *ScenarioProvider) WithChatFunc(fn func(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error)) *ScenarioProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onChat = fn
	return p
}

// Chat implements llm.Provider.
func (p *ScenarioProvider) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	if fn := p.onChat; fn != nil {
		p.mu.Unlock()
		return fn(ctx, req)
	}
	defer p.mu.Unlock()

	for p.currentIndex < len(p.responses) {
		resp := p.responses[p.currentIndex]
		p.currentIndex++
		if resp.Condition != nil && !resp.Condition(req) {
			continue
		}
		if resp.Error != nil {
			return nil, resp.Error
		}
		return &llm.ChatResponse{Content: resp.Content, Usage: resp.Usage}, nil
	}
	if p.defaultError != nil {
		return nil, p.defaultError
	}
	return nil, fmt.Errorf("no more scripted responses (call %d)", len(p.requests))
}

// Requests returns all captured requests.
func (p *ScenarioProvider) Requests() []llm.ChatRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	result := make([]llm.ChatRequest, len(p.requests))
	copy(result, p.requests)
	return result
}

// Prompts returns the user message of every captured request.
func (p *ScenarioProvider) Prompts() []string {
	reqs := p.Requests()
	out := make([]string, 0, len(reqs))
	for _, req := range reqs {
		var parts []string
		for _, msg := range req.Messages {
			if msg.Role == llm.RoleUser {
				parts = append(parts, msg.Content)
			}
		}
		out = append(out, strings.Join(parts, "\n"))
	}
	return out
}

// LastRequest returns the most recent request.
func (p *ScenarioProvider) LastRequest() *llm.ChatRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.requests) == 0 {
		return nil
	}
	req := p.requests[len(p.requests)-1]
	return &req
}

// CallCount returns the number of Chat calls made.
func (p *ScenarioProvider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

// Reset clears all state.
func (p *ScenarioProvider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.currentIndex = 0
	p.requests = p.requests[:0]
}
