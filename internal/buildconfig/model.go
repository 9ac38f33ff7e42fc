// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package buildconfig

import "errors"

// ErrConfiguration marks an invalid or incomplete build description. It is
// always fatal and surfaces before any task is emitted.
var ErrConfiguration = errors.New("configuration error")

// Project holds project-wide settings.
type Project struct {
	Version     string
	TrustDomain string
}

// Variant is a named build configuration of a component.
type Variant struct {
	Name      string
	BuildType string
}

// Component is one buildable, optionally published, unit of the project.
type Component struct {
	Name         string
	Path         string
	Publish      bool
	Variants     []Variant
	Dependencies []string
	Attributes   map[string]any
}

// VariantNames returns the declared variant names in declaration order.
func (c Component) VariantNames() []string {
	names := make([]string, 0, len(c.Variants))
	for _, v := range c.Variants {
		names = append(names, v.Name)
	}
	return names
}

// Variant returns the declared variant with the given name.
func (c Component) Variant(name string) (Variant, bool) {
	for _, v := range c.Variants {
		if v.Name == name {
			return v, true
		}
	}
	return Variant{}, false
}

// ModuleOverride replaces the default task-selection policy of one module.
type ModuleOverride struct {
	Module          string
	AssembleOnly    []string
	AssembleAndTest []string
	LintTask        string
}

// HasVariants reports whether the override lists explicit variants.
func (o ModuleOverride) HasVariants() bool {
	return len(o.AssembleOnly) > 0 || len(o.AssembleAndTest) > 0
}

// File is the merged content of all loaded build description files.
type File struct {
	Project    Project
	Components []Component
	Overrides  map[string]ModuleOverride
}

// Component returns the component with the given name.
func (f *File) Component(name string) (Component, bool) {
	for _, c := range f.Components {
		if c.Name == name {
			return c, true
		}
	}
	return Component{}, false
}
