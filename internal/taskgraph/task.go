// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package taskgraph

import (
	"fmt"
	"sort"
)

// Task is a single unit of work and its dependency edges.
type Task struct {
	// Label is unique within a graph and stable across runs.
	Label string `json:"label" yaml:"label"`
	// Kind names the construction rule that produced the task.
	Kind string `json:"kind" yaml:"kind"`
	// Attributes is free-form metadata read by filters and the morpher.
	Attributes map[string]any `json:"attributes" yaml:"attributes"`
	// Dependencies maps a local dependency name to another task's label.
	Dependencies map[string]string `json:"dependencies" yaml:"dependencies"`
	// Definition is the opaque work description passed to the backend.
	Definition Definition `json:"task" yaml:"task"`
	// TaskID is assigned at creation time and independent of Label.
	TaskID string `json:"task_id" yaml:"task_id"`
}

// Attr returns the raw attribute value, or nil when absent.
func (t *Task) Attr(name string) any {
	if t.Attributes == nil {
		return nil
	}
	return t.Attributes[name]
}

// StringAttr returns a string attribute, or "" when absent or not a string.
func (t *Task) StringAttr(name string) string {
	s, _ := t.Attr(name).(string)
	return s
}

// BoolAttr reports whether the attribute is set to a truthy value.
func (t *Task) BoolAttr(name string) bool {
	switch v := t.Attr(name).(type) {
	case bool:
		return v
	case string:
		return v != "" && v != "false"
	case nil:
		return false
	default:
		return true
	}
}

// StringsAttr returns a list attribute as strings. Both []string and []any
// (as produced by decoded configuration) are accepted; ok is false when the
// attribute is absent or has another type.
func (t *Task) StringsAttr(name string) (values []string, ok bool) {
	switch v := t.Attr(name).(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, isString := item.(string)
			if !isString {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

// DependencyLabels returns the labels this task depends on, sorted.
func (t *Task) DependencyLabels() []string {
	labels := make([]string, 0, len(t.Dependencies))
	seen := make(map[string]bool, len(t.Dependencies))
	for _, label := range t.Dependencies {
		if seen[label] {
			continue
		}
		seen[label] = true
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// Clone returns a deep copy of the task's maps and slices. Attribute values
// themselves are shared.
func (t *Task) Clone() *Task {
	c := *t
	if t.Attributes != nil {
		c.Attributes = make(map[string]any, len(t.Attributes))
		for k, v := range t.Attributes {
			c.Attributes[k] = v
		}
	}
	if t.Dependencies != nil {
		c.Dependencies = make(map[string]string, len(t.Dependencies))
		for k, v := range t.Dependencies {
			c.Dependencies[k] = v
		}
	}
	c.Definition = t.Definition.clone()
	return &c
}

func (t *Task) String() string {
	return fmt.Sprintf("%s (%s)", t.Label, t.Kind)
}
