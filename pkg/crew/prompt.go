// Copyright 2026 © The BloodTestAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package crew

import (
	"fmt"
	"strings"

	"github.com/MmayankK21/BloodTestAnalyser/pkg/core"
	"github.com/MmayankK21/BloodTestAnalyser/pkg/errors"
)

// FormatPrompt renders the prompt sent to the model for one task. document
// is appended under a REPORT CONTENT section when non-nil.
func FormatPrompt(role core.Role, task core.TaskDescriptor, input core.ExecutionInput, document *string) (string, error) {
	vars := input.Vars()
	goal, err := Render(role.Goal, vars)
	if err != nil {
		return "", errors.As(err).WithContext("field", "goal").WithContext("role", role.Name)
	}
	description, err := Render(task.Description, vars)
	if err != nil {
		return "", errors.As(err).WithContext("field", "description").WithContext("task", task.Name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "ROLE: %s\n", role.Name)
	fmt.Fprintf(&b, "GOAL: %s\n", goal)
	fmt.Fprintf(&b, "BACKSTORY: %s\n", role.Backstory)
	fmt.Fprintf(&b, "TASK: %s\n", description)
	fmt.Fprintf(&b, "EXPECTED OUTPUT: %s\n", task.ExpectedOutput)
	b.WriteString("RESPONSE:\n")
	if document != nil {
		fmt.Fprintf(&b, "REPORT CONTENT:\n%s\n\n", *document)
	}
	return b.String(), nil
}

// Render substitutes {name} placeholders with vars. "{{" and "}}" produce
// literal braces. A placeholder without a value is an error.
func Render(tmpl string, vars map[string]string) (string, error) {
	var b strings.Builder
	b.Grow(len(tmpl))
	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		switch c {
		case '{':
			if i+1 < len(tmpl) && tmpl[i+1] == '{' {
				b.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(tmpl[i+1:], '}')
			if end < 0 {
				return "", errors.New(errors.CodeTemplate, "unterminated placeholder", nil).
					WithContext("offset", i)
			}
			name := strings.TrimSpace(tmpl[i+1 : i+1+end])
			value, ok := vars[name]
			if !ok {
				return "", errors.New(errors.CodeTemplate, fmt.Sprintf("missing template variable %q", name), nil)
			}
			b.WriteString(value)
			i += end + 1
		case '}':
			if i+1 < len(tmpl) && tmpl[i+1] == '}' {
				b.WriteByte('}')
				i++
				continue
			}
			return "", errors.New(errors.CodeTemplate, "single '}' encountered in template", nil).
				WithContext("offset", i)
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}

// Placeholders lists the placeholder names referenced by tmpl, in order of
// first appearance.
func Placeholders(tmpl string) []string {
	var names []string
	seen := make(map[string]bool)
	for i := 0; i < len(tmpl); i++ {
		if tmpl[i] != '{' {
			continue
		}
		if i+1 < len(tmpl) && tmpl[i+1] == '{' {
			i++
			continue
		}
		end := strings.IndexByte(tmpl[i+1:], '}')
		if end < 0 {
			break
		}
		name := strings.TrimSpace(tmpl[i+1 : i+1+end])
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
		i += end + 1
	}
	return names
}
