// Copyright 2026 © The BloodTestAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package crew

import (
	"slices"

	"github.com/MmayankK21/BloodTestAnalyser/pkg/core"
)

// TaskList is the ordered, immutable sequence of tasks a crew executes.
type TaskList struct {
	tasks []core.TaskDescriptor
}

// NewTaskList copies tasks into a new list.
func NewTaskList(tasks ...core.TaskDescriptor) *TaskList {
	return &TaskList{tasks: slices.Clone(tasks)}
}

// Tasks returns the tasks in execution order.
func (l *TaskList) Tasks() []core.TaskDescriptor {
	return slices.Clone(l.tasks)
}

// Len returns the number of tasks.
func (l *TaskList) Len() int { return len(l.tasks) }
