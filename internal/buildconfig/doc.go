// Package buildconfig loads the declarative build description of a project
// from HCL files.
//
// A build description declares the project, its components and optional
// per-module overrides of the default task-selection policy:
//
//	project {
//	  version      = "120.0"
//	  trust_domain = "mobile"
//	}
//
//	component "browser-toolbar" {
//	  path         = "components/browser/toolbar"
//	  publish      = true
//	  dependencies = ["concept-toolbar"]
//	  variant "Release" { build_type = "release" }
//	}
//
//	module_override "samples-browser" {
//	  assemble_only     = ["System"]
//	  assemble_and_test = ["GeckoBeta", "GeckoNightly"]
//	  lint_task         = "lintGeckoNightly"
//	}
//
// Free-form `attributes` objects are converted from cty values into plain Go
// values (string, float64, bool, []any, map[string]any) so task attributes
// never carry HCL types.
package buildconfig
