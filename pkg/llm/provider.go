// Copyright 2026 © The BloodTestAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

// Package llm defines the language-model boundary of the analyser and the
// providers that implement it.
package llm

import "context"

// Role represents the role of a message sender.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single unit of communication.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatRequest encapsulates the input for the LLM.
type ChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	// Temperature is sent only when set, so nil means the backend default
	// and a pointer to 0 asks for greedy decoding.
	Temperature *float64 `json:"temperature,omitempty"`
}

// ChatResponse encapsulates the output from the LLM.
type ChatResponse struct {
	Content string `json:"content"`
	Usage   Usage  `json:"usage"`
}

// Usage tracks token consumption.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Provider defines the interface for interacting with LLM backends.
type Provider interface {
	// Chat sends a chat request to the LLM and returns the response.
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// Pinger is implemented by providers that can report backend reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Prompt builds a single-message request, the shape used for one crew task.
func Prompt(model, prompt string) ChatRequest {
	return ChatRequest{
		Model:    model,
		Messages: []Message{{Role: RoleUser, Content: prompt}},
	}
}

// WithTemperature returns a copy of r that pins the sampling temperature.
func (r ChatRequest) WithTemperature(t float64) ChatRequest {
	r.Temperature = &t
	return r
}
