// Copyright 2026 © The BloodTestAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package core

// TaskDescriptor is an ordered unit of work assigned to one role by name.
// ExpectedOutput is advisory and is never checked against the model output.
type TaskDescriptor struct {
	Name           string `yaml:"name" json:"name"`
	Description    string `yaml:"description" json:"description"`
	ExpectedOutput string `yaml:"expected_output" json:"expected_output"`
	Role           string `yaml:"role" json:"role"`
}

// ExecutionInput is the per-request input of a crew run.
type ExecutionInput struct {
	Query    string
	FilePath string
}

// Vars returns the placeholder values available to prompt templates.
func (in ExecutionInput) Vars() map[string]string {
	return map[string]string{
		"query":     in.Query,
		"file_path": in.FilePath,
	}
}
