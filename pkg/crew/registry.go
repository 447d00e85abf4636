// Copyright 2026 © The BloodTestAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package crew

import (
	"fmt"
	"strings"

	"github.com/MmayankK21/BloodTestAnalyser/pkg/core"
)

// Registry is the ordered, read-only set of roles available to a crew.
type Registry struct {
	roles  []core.Role
	byName map[string]int
}

// NewRegistry builds a registry. Role names must be non-empty and unique.
func NewRegistry(roles ...core.Role) (*Registry, error) {
	r := &Registry{
		roles:  make([]core.Role, 0, len(roles)),
		byName: make(map[string]int, len(roles)),
	}
	for _, role := range roles {
		if strings.TrimSpace(role.Name) == "" {
			return nil, fmt.Errorf("role name is required")
		}
		if _, dup := r.byName[role.Name]; dup {
			return nil, fmt.Errorf("duplicate role %q", role.Name)
		}
		r.byName[role.Name] = len(r.roles)
		r.roles = append(r.roles, role.Clone())
	}
	return r, nil
}

// Lookup returns the role with exactly the given name.
func (r *Registry) Lookup(name string) (core.Role, bool) {
	idx, ok := r.byName[name]
	if !ok {
		return core.Role{}, false
	}
	return r.roles[idx].Clone(), true
}

// Roles returns the roles in definition order.
func (r *Registry) Roles() []core.Role {
	out := make([]core.Role, len(r.roles))
	for i, role := range r.roles {
		out[i] = role.Clone()
	}
	return out
}

// Names returns the role names in definition order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.roles))
	for i, role := range r.roles {
		names[i] = role.Name
	}
	return names
}

// Len returns the number of roles.
func (r *Registry) Len() int { return len(r.roles) }
