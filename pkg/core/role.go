// Copyright 2026 © The BloodTestAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

// Package core holds the declarative crew types shared by the runner, the
// loaders and the transports.
package core

import "slices"

// CapabilityDocumentReader lets a role read the uploaded report before its
// prompt is sent.
const CapabilityDocumentReader = "document_reader"

// Role is a named persona used to frame a prompt. Roles are plain values and
// are never mutated after construction.
type Role struct {
	Name            string   `yaml:"name" json:"name"`
	Goal            string   `yaml:"goal" json:"goal"`
	Backstory       string   `yaml:"backstory" json:"backstory"`
	Tools           []string `yaml:"tools,omitempty" json:"tools,omitempty"`
	MaxIter         int      `yaml:"max_iter,omitempty" json:"max_iter,omitempty"`
	MaxRPM          int      `yaml:"max_rpm,omitempty" json:"max_rpm,omitempty"`
	AllowDelegation bool     `yaml:"allow_delegation,omitempty" json:"allow_delegation,omitempty"`
}

// HasCapability reports whether the role declares the named capability.
func (r Role) HasCapability(name string) bool {
	return slices.Contains(r.Tools, name)
}

// Clone returns a copy that shares no slices with r.
func (r Role) Clone() Role {
	r.Tools = slices.Clone(r.Tools)
	return r
}
