// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package buildconfig

import "github.com/hashicorp/hcl/v2"

// fileRoot decodes every top-level block a build description file may hold.
type fileRoot struct {
	Projects   []*projectBlock   `hcl:"project,block"`
	Components []*componentBlock `hcl:"component,block"`
	Overrides  []*overrideBlock  `hcl:"module_override,block"`
}

type projectBlock struct {
	Version     string `hcl:"version,optional"`
	TrustDomain string `hcl:"trust_domain,optional"`
}

type componentBlock struct {
	Name         string          `hcl:"name,label"`
	Path         string          `hcl:"path,optional"`
	Publish      *bool           `hcl:"publish,optional"`
	Dependencies []string        `hcl:"dependencies,optional"`
	Attributes   hcl.Expression  `hcl:"attributes,optional"`
	Variants     []*variantBlock `hcl:"variant,block"`
}

type variantBlock struct {
	Name      string `hcl:"name,label"`
	BuildType string `hcl:"build_type,optional"`
}

type overrideBlock struct {
	Module          string   `hcl:"module,label"`
	AssembleOnly    []string `hcl:"assemble_only,optional"`
	AssembleAndTest []string `hcl:"assemble_and_test,optional"`
	LintTask        string   `hcl:"lint_task,optional"`
}
