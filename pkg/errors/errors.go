// Copyright 2026 © The BloodTestAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

// Package errors provides typed errors for the analysis pipeline and the
// mapping from error codes to transport status codes.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
)

// ErrorCode classifies pipeline errors for monitoring and response mapping.
type ErrorCode string

const (
	// CodeInternal indicates an internal system error.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// CodeInvalidInput indicates the request or its input was invalid.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeTemplate indicates a prompt template could not be rendered.
	CodeTemplate ErrorCode = "TEMPLATE_ERROR"

	// CodeDocument indicates a document could not be read.
	CodeDocument ErrorCode = "DOCUMENT_ERROR"

	// CodeLLMError indicates an LLM provider error.
	CodeLLMError ErrorCode = "LLM_ERROR"

	// CodeTimeout indicates an operation exceeded its time limit.
	CodeTimeout ErrorCode = "TIMEOUT"

	// CodeConfig indicates an invalid configuration or crew definition.
	CodeConfig ErrorCode = "CONFIG_ERROR"

	// CodeNotFound indicates a resource was not found.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeContextLost indicates the request context was cancelled.
	CodeContextLost ErrorCode = "CONTEXT_LOST"
)

// Error is a typed error carrying a code and structured context.
// It can be unwrapped with errors.As.
type Error struct {
	Code        ErrorCode
	Message     string
	Err         error
	Context     map[string]any
	Recoverable bool
	StatusCode  int
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements errors.Unwrap for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Err
}

// MarshalJSON renders the error for structured logs.
func (e *Error) MarshalJSON() ([]byte, error) {
	out := struct {
		Message     string         `json:"message"`
		Code        string         `json:"code"`
		Cause       string         `json:"error,omitempty"`
		Context     map[string]any `json:"context,omitempty"`
		Recoverable bool           `json:"recoverable"`
		StatusCode  int            `json:"status_code"`
	}{
		Message:     e.Error(),
		Code:        string(e.Code),
		Context:     e.Context,
		Recoverable: e.Recoverable,
		StatusCode:  e.StatusCode,
	}
	if e.Err != nil {
		out.Cause = e.Err.Error()
	}
	return json.Marshal(out)
}

// New creates a new Error with the given code, message, and cause.
func New(code ErrorCode, msg string, cause error) *Error {
	return &Error{
		Code:       code,
		Message:    msg,
		Err:        cause,
		Context:    make(map[string]any),
		StatusCode: codeToStatusCode(code),
	}
}

// WithContext adds a key-value pair to the error context.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// WithRecoverable sets whether the error can be retried.
func (e *Error) WithRecoverable(recoverable bool) *Error {
	e.Recoverable = recoverable
	return e
}

// As returns the first *Error in err's chain, wrapping unknown errors as
// CodeInternal.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e
	}
	return New(CodeInternal, "unexpected error", err)
}

// CodeOf returns the code of the first *Error in err's chain, or CodeInternal.
func CodeOf(err error) ErrorCode {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// RecoverableString returns "true" or "false" for metric attributes.
func (e *Error) RecoverableString() string {
	if e.Recoverable {
		return "true"
	}
	return "false"
}

func codeToStatusCode(code ErrorCode) int {
	switch code {
	case CodeNotFound:
		return 404
	case CodeInvalidInput:
		return 400
	case CodeTimeout:
		return 504
	case CodeContextLost:
		return 499
	default:
		return 500
	}
}
