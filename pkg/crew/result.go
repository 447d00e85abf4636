// Copyright 2026 © The BloodTestAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package crew

import (
	"fmt"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Result maps role names to generated text in first-insertion order.
// Storing a role twice keeps its original position and replaces the text.
type Result struct {
	sections *orderedmap.OrderedMap[string, string]
}

func newResult() *Result {
	return &Result{sections: orderedmap.New[string, string]()}
}

func (r *Result) set(role, text string) {
	r.sections.Set(role, text)
}

// Get returns the text stored for role.
func (r *Result) Get(role string) (string, bool) {
	return r.sections.Get(role)
}

// Len returns the number of role sections.
func (r *Result) Len() int { return r.sections.Len() }

// Roles returns the role names in report order.
func (r *Result) Roles() []string {
	roles := make([]string, 0, r.sections.Len())
	for pair := r.sections.Oldest(); pair != nil; pair = pair.Next() {
		roles = append(roles, pair.Key)
	}
	return roles
}

// Report renders every section as "## <role>\n<text>", separated by a
// blank line.
func (r *Result) Report() string {
	parts := make([]string, 0, r.sections.Len())
	for pair := r.sections.Oldest(); pair != nil; pair = pair.Next() {
		parts = append(parts, fmt.Sprintf("## %s\n%s", pair.Key, pair.Value))
	}
	return strings.Join(parts, "\n\n")
}
