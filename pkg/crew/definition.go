// Copyright 2026 © The BloodTestAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package crew

import (
	_ "embed"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/MmayankK21/BloodTestAnalyser/pkg/core"
	"github.com/MmayankK21/BloodTestAnalyser/pkg/errors"
)

//go:embed default_crew.yaml
var defaultCrewYAML []byte

// Definition is the declarative description of a crew: its roles and the
// ordered tasks assigned to them.
type Definition struct {
	Name  string                `yaml:"name" json:"name"`
	Roles []core.Role           `yaml:"roles" json:"roles"`
	Tasks []core.TaskDescriptor `yaml:"tasks" json:"tasks"`
}

// Default returns the built-in blood test analysis crew: a verifier, a
// doctor, a nutritionist and an exercise specialist.
func Default() *Definition {
	def, err := ParseYAML(defaultCrewYAML)
	if err != nil {
		panic(fmt.Sprintf("crew: embedded definition is invalid: %v", err))
	}
	return def
}

// knownVars are the placeholders an ExecutionInput can satisfy.
var knownVars = core.ExecutionInput{}.Vars()

// Validate checks the definition. Structural problems always fail. In strict
// mode tasks naming an unknown role and templates using unknown placeholders
// fail as well; otherwise such tasks are skipped at run time.
func (d *Definition) Validate(strict bool) error {
	var errs []error
	if len(d.Tasks) == 0 {
		errs = append(errs, fmt.Errorf("at least one task is required"))
	}
	roles := make(map[string]bool, len(d.Roles))
	for i, role := range d.Roles {
		switch {
		case strings.TrimSpace(role.Name) == "":
			errs = append(errs, fmt.Errorf("role %d: name is required", i))
		case roles[role.Name]:
			errs = append(errs, fmt.Errorf("role %q: duplicate name", role.Name))
		}
		roles[role.Name] = true
		if _, err := Render(role.Goal, fillAll(role.Goal)); err != nil {
			errs = append(errs, fmt.Errorf("role %q: goal: %w", role.Name, err))
		}
		if strict {
			errs = append(errs, unknownPlaceholders("role "+quote(role.Name)+": goal", role.Goal)...)
		}
	}
	for i, task := range d.Tasks {
		label := task.Name
		if label == "" {
			label = fmt.Sprintf("#%d", i)
		}
		if strings.TrimSpace(task.Description) == "" {
			errs = append(errs, fmt.Errorf("task %s: description is required", label))
		} else if _, err := Render(task.Description, fillAll(task.Description)); err != nil {
			errs = append(errs, fmt.Errorf("task %s: description: %w", label, err))
		}
		if strict {
			if !roles[task.Role] {
				errs = append(errs, fmt.Errorf("task %s: role %q is not defined", label, task.Role))
			}
			errs = append(errs, unknownPlaceholders("task "+label+": description", task.Description)...)
		}
	}
	if len(errs) > 0 {
		return errors.New(errors.CodeConfig, "invalid crew definition", stderrors.Join(errs...)).
			WithContext("crew", d.Name)
	}
	return nil
}

// UnmatchedTasks returns the names of tasks whose role is not defined.
func (d *Definition) UnmatchedTasks() []string {
	roles := make(map[string]bool, len(d.Roles))
	for _, role := range d.Roles {
		roles[role.Name] = true
	}
	var out []string
	for _, task := range d.Tasks {
		if !roles[task.Role] {
			out = append(out, task.Name)
		}
	}
	return out
}

// Build validates the definition and returns its registry and task list.
func (d *Definition) Build(strict bool) (*Registry, *TaskList, error) {
	if err := d.Validate(strict); err != nil {
		return nil, nil, err
	}
	registry, err := NewRegistry(d.Roles...)
	if err != nil {
		return nil, nil, errors.New(errors.CodeConfig, "invalid crew roles", err)
	}
	return registry, NewTaskList(d.Tasks...), nil
}

func fillAll(tmpl string) map[string]string {
	vars := make(map[string]string)
	for _, name := range Placeholders(tmpl) {
		vars[name] = ""
	}
	return vars
}

func unknownPlaceholders(label, tmpl string) []error {
	var errs []error
	for _, name := range Placeholders(tmpl) {
		if _, ok := knownVars[name]; !ok {
			errs = append(errs, fmt.Errorf("%s: unknown placeholder {%s}", label, name))
		}
	}
	return errs
}

func quote(s string) string { return fmt.Sprintf("%q", s) }
