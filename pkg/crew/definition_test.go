// Copyright 2026 © The BloodTestAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package crew

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MmayankK21/BloodTestAnalyser/pkg/core"
	"github.com/MmayankK21/BloodTestAnalyser/pkg/errors"
)

func TestDefaultDefinition(t *testing.T) {
	def := Default()
	if err := def.Validate(true); err != nil {
		t.Fatalf("default crew should validate: %v", err)
	}
	wantRoles := []string{"Blood Report Verifier", "Senior Experienced Doctor", "Nutrition Guru", "Fitness Coach"}
	if len(def.Tasks) != len(wantRoles) {
		t.Fatalf("expected %d tasks, got %d", len(wantRoles), len(def.Tasks))
	}
	for i, task := range def.Tasks {
		if task.Role != wantRoles[i] {
			t.Errorf("task %d: role %q, want %q", i, task.Role, wantRoles[i])
		}
	}
	for _, role := range def.Roles {
		if !role.HasCapability(core.CapabilityDocumentReader) {
			t.Errorf("role %q should read the report", role.Name)
		}
	}
}

func TestValidateUnmatchedRole(t *testing.T) {
	def := &Definition{
		Name:  "partial",
		Roles: []core.Role{{Name: "Doctor", Goal: "help"}},
		Tasks: []core.TaskDescriptor{
			{Name: "a", Description: "analyze {query}", Role: "Doctor"},
			{Name: "b", Description: "triage", Role: "Nurse"},
		},
	}
	if err := def.Validate(false); err != nil {
		t.Fatalf("lenient validation should pass: %v", err)
	}
	err := def.Validate(true)
	if !errors.IsCode(err, errors.CodeConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
	if !strings.Contains(err.Error(), `"Nurse"`) {
		t.Fatalf("error should name the role: %v", err)
	}
	if got := def.UnmatchedTasks(); len(got) != 1 || got[0] != "b" {
		t.Fatalf("unexpected unmatched tasks: %v", got)
	}
}

func TestValidateStructuralErrors(t *testing.T) {
	tests := []struct {
		name string
		def  Definition
	}{
		{name: "no tasks", def: Definition{Roles: []core.Role{{Name: "A"}}}},
		{name: "empty role name", def: Definition{
			Roles: []core.Role{{Name: " "}},
			Tasks: []core.TaskDescriptor{{Description: "x", Role: "A"}},
		}},
		{name: "duplicate role", def: Definition{
			Roles: []core.Role{{Name: "A"}, {Name: "A"}},
			Tasks: []core.TaskDescriptor{{Description: "x", Role: "A"}},
		}},
		{name: "empty description", def: Definition{
			Roles: []core.Role{{Name: "A"}},
			Tasks: []core.TaskDescriptor{{Description: "", Role: "A"}},
		}},
		{name: "broken template", def: Definition{
			Roles: []core.Role{{Name: "A"}},
			Tasks: []core.TaskDescriptor{{Description: "oops }", Role: "A"}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.def.Validate(false); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestValidateUnknownPlaceholderStrict(t *testing.T) {
	def := &Definition{
		Roles: []core.Role{{Name: "A", Goal: "{query}"}},
		Tasks: []core.TaskDescriptor{{Description: "see {patient}", Role: "A"}},
	}
	if err := def.Validate(false); err != nil {
		t.Fatalf("lenient validation should pass: %v", err)
	}
	if err := def.Validate(true); err == nil || !strings.Contains(err.Error(), "{patient}") {
		t.Fatalf("expected unknown placeholder error, got %v", err)
	}
}

func TestBuild(t *testing.T) {
	registry, tasks, err := Default().Build(true)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if registry.Len() != 4 || tasks.Len() != 4 {
		t.Fatalf("unexpected sizes: %d roles, %d tasks", registry.Len(), tasks.Len())
	}
	if _, ok := registry.Lookup("Nutrition Guru"); !ok {
		t.Fatal("expected Nutrition Guru to be registered")
	}
}

func TestLoadDefinitionRoundTrip(t *testing.T) {
	dir := t.TempDir()
	data, err := MarshalYAML(Default())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	path := filepath.Join(dir, "crew.yaml")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	def, err := LoadDefinition(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if def.Name != "blood-test-analysis" || len(def.Roles) != 4 {
		t.Fatalf("unexpected definition: %+v", def)
	}
}

func TestLoadDefinitionJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crew.json")
	body := `{"name":"solo","roles":[{"name":"Doctor","goal":"g","backstory":"b"}],` +
		`"tasks":[{"name":"t","description":"d {query}","expected_output":"o","role":"Doctor"}]}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	def, err := LoadDefinition(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := def.Validate(true); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestLoadDefinitionErrors(t *testing.T) {
	if _, err := LoadDefinition(""); err == nil {
		t.Fatal("expected error for empty path")
	}
	if _, err := LoadDefinition(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
	if _, err := ParseYAML([]byte("roles: [")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestRegistry(t *testing.T) {
	if _, err := NewRegistry(core.Role{Name: "A"}, core.Role{Name: "A"}); err == nil {
		t.Fatal("expected duplicate error")
	}
	if _, err := NewRegistry(core.Role{}); err == nil {
		t.Fatal("expected empty name error")
	}
	r, err := NewRegistry(core.Role{Name: "B"}, core.Role{Name: "A"})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	if names := r.Names(); names[0] != "B" || names[1] != "A" {
		t.Fatalf("expected insertion order, got %v", names)
	}
	if _, ok := r.Lookup("a"); ok {
		t.Fatal("lookup must be case sensitive")
	}
}
