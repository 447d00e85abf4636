// Copyright 2026 © The BloodTestAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/MmayankK21/BloodTestAnalyser/pkg/errors"
)

// CLIError wraps a typed error with a hint for the operator.
type CLIError struct {
	Cause *errors.Error
	Hint  string
}

// NewCLIError attaches the hint matching err's code.
func NewCLIError(err error) *CLIError {
	typed := errors.As(err)
	if typed == nil {
		return &CLIError{}
	}
	return &CLIError{Cause: typed, Hint: hintFor(typed.Code)}
}

// Error returns the formatted error message with hints.
func (e *CLIError) Error() string {
	if e.Cause == nil {
		return "unknown error"
	}
	msg := e.Cause.Error()
	if e.Hint != "" {
		msg += "\n  Hint: " + e.Hint
	}
	return msg
}

// Unwrap returns the typed cause.
func (e *CLIError) Unwrap() error {
	if e.Cause == nil {
		return nil
	}
	return e.Cause
}

// PrintError prints err with its hint, as JSON when asJSON is set.
func PrintError(w io.Writer, err error, asJSON bool) {
	cliErr := NewCLIError(err)
	if cliErr.Cause == nil {
		fmt.Fprintln(w, cliErr.Error())
		return
	}
	if asJSON {
		payload := map[string]any{
			"error": map[string]string{
				"code":    string(cliErr.Cause.Code),
				"message": cliErr.Cause.Error(),
				"hint":    cliErr.Hint,
			},
		}
		_ = json.NewEncoder(w).Encode(payload)
		return
	}
	fmt.Fprintf(w, "Error [%s]: %s\n", cliErr.Cause.Code, cliErr.Cause.Message)
	if cliErr.Cause.Err != nil {
		fmt.Fprintf(w, "  Cause: %v\n", cliErr.Cause.Err)
	}
	if cliErr.Hint != "" {
		fmt.Fprintf(w, "  Hint: %s\n", cliErr.Hint)
	}
}

func hintFor(code errors.ErrorCode) string {
	switch code {
	case errors.CodeConfig:
		return "check the --config file and BLOODTEST_ environment variables"
	case errors.CodeLLMError:
		return "make sure the model server at llm.base_url is running and the model is pulled"
	case errors.CodeTimeout:
		return "raise llm.call_timeout or use a smaller model"
	case errors.CodeInvalidInput:
		return "run with --help for usage"
	case errors.CodeTemplate:
		return "task descriptions may only use {query} and {file_path}"
	default:
		return ""
	}
}
