package buildconfig

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/specialistvlad/taskgraphgo/internal/ctxlog"
	"github.com/specialistvlad/taskgraphgo/internal/fsutil"
)

// Loader reads build description files.
type Loader struct{}

// NewLoader creates a new HCL build description loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file found under the given paths, merges them and
// validates the result. Directories are walked recursively.
func (l *Loader) Load(ctx context.Context, paths ...string) (*File, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build config loader started.", "path_count", len(paths))

	files, err := fsutil.FindFiles(".hcl", paths...)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no .hcl files found in %v", ErrConfiguration, paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	out := &File{Overrides: make(map[string]ModuleOverride)}
	parser := hclparse.NewParser()
	projectSeen := false

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("%w: failed to parse HCL file %s: %w", ErrConfiguration, file, diags)
		}

		var root fileRoot
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, fmt.Errorf("%w: failed to decode HCL file %s: %w", ErrConfiguration, file, diags)
		}

		for _, p := range root.Projects {
			if projectSeen {
				return nil, fmt.Errorf("%w: project block declared more than once (again in %s)", ErrConfiguration, file)
			}
			projectSeen = true
			out.Project = Project{Version: p.Version, TrustDomain: p.TrustDomain}
		}
		for _, c := range root.Components {
			comp, err := translateComponent(ctx, c)
			if err != nil {
				return nil, fmt.Errorf("%w: in %s: %w", ErrConfiguration, file, err)
			}
			out.Components = append(out.Components, comp)
		}
		for _, o := range root.Overrides {
			if _, dup := out.Overrides[o.Module]; dup {
				return nil, fmt.Errorf("%w: duplicate module_override %q in %s", ErrConfiguration, o.Module, file)
			}
			out.Overrides[o.Module] = ModuleOverride{
				Module:          o.Module,
				AssembleOnly:    o.AssembleOnly,
				AssembleAndTest: o.AssembleAndTest,
				LintTask:        o.LintTask,
			}
		}
	}

	if err := out.Validate(); err != nil {
		return nil, err
	}
	logger.Debug("Build config loading complete.", "components", len(out.Components), "overrides", len(out.Overrides))
	return out, nil
}

func translateComponent(ctx context.Context, c *componentBlock) (Component, error) {
	comp := Component{
		Name:         c.Name,
		Path:         c.Path,
		Dependencies: c.Dependencies,
	}
	if c.Publish != nil {
		comp.Publish = *c.Publish
	}
	for _, v := range c.Variants {
		comp.Variants = append(comp.Variants, Variant{Name: v.Name, BuildType: v.BuildType})
	}

	if isExprDefined(ctx, c.Attributes, "attributes") {
		val, diags := c.Attributes.Value(nil)
		if diags.HasErrors() {
			return Component{}, fmt.Errorf("component %q attributes: %w", c.Name, diags)
		}
		if !val.IsNull() && !val.Type().IsObjectType() && !val.Type().IsMapType() {
			return Component{}, fmt.Errorf("component %q attributes must be an object, got %s", c.Name, val.Type().FriendlyName())
		}
		native, err := ctyToNative(val)
		if err != nil {
			return Component{}, fmt.Errorf("component %q attributes: %w", c.Name, err)
		}
		if m, ok := native.(map[string]any); ok {
			comp.Attributes = m
		}
	}
	return comp, nil
}

// Validate checks the merged description for missing fields, duplicates and
// overrides of unknown modules. All problems are reported together.
func (f *File) Validate() error {
	var errs []error
	seen := make(map[string]bool, len(f.Components))
	for i, c := range f.Components {
		if c.Name == "" {
			errs = append(errs, fmt.Errorf("component #%d: name is required", i))
			continue
		}
		if seen[c.Name] {
			errs = append(errs, fmt.Errorf("component %q declared more than once", c.Name))
		}
		seen[c.Name] = true
		if c.Path == "" {
			errs = append(errs, fmt.Errorf("component %q: path is required", c.Name))
		}
		variants := make(map[string]bool, len(c.Variants))
		for _, v := range c.Variants {
			if variants[v.Name] {
				errs = append(errs, fmt.Errorf("component %q: variant %q declared more than once", c.Name, v.Name))
			}
			variants[v.Name] = true
		}
	}
	for _, c := range f.Components {
		for _, dep := range c.Dependencies {
			if !seen[dep] {
				errs = append(errs, fmt.Errorf("component %q depends on unknown component %q", c.Name, dep))
			}
		}
	}

	modules := make([]string, 0, len(f.Overrides))
	for m := range f.Overrides {
		modules = append(modules, m)
	}
	sort.Strings(modules)
	for _, m := range modules {
		o := f.Overrides[m]
		if !seen[m] {
			errs = append(errs, fmt.Errorf("module_override %q refers to an unknown component", m))
		}
		if !o.HasVariants() && o.LintTask == "" {
			errs = append(errs, fmt.Errorf("module_override %q: declares neither variants nor a lint task", m))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return nil
}

// isExprDefined reports whether an optional attribute was actually written
// in the source. gohcl fills omitted optional expressions with a zero-width
// placeholder, so a nil check alone is not enough.
func isExprDefined(ctx context.Context, expr hcl.Expression, attrName string) bool {
	if expr == nil {
		return false
	}
	r := expr.Range()
	defined := r.End.Byte > r.Start.Byte
	ctxlog.FromContext(ctx).Debug("Checking if HCL attribute was explicitly defined.", "attribute", attrName, "is_defined", defined)
	return defined
}
