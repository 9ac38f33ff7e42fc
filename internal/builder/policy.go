package builder

import (
	"fmt"
	"strings"

	"github.com/specialistvlad/taskgraphgo/internal/buildconfig"
)

// PolicyKind tags the task-selection strategy of a module.
type PolicyKind int

const (
	// DefaultPolicy runs assemble, test and lint for every variant in one task.
	DefaultPolicy PolicyKind = iota
	// CustomLintPolicy is the default with the lint task replaced.
	CustomLintPolicy
	// VariantPolicy crafts one task per listed variant and folds the lint
	// task into the first matching one.
	VariantPolicy
)

func (k PolicyKind) String() string {
	switch k {
	case DefaultPolicy:
		return "default"
	case CustomLintPolicy:
		return "custom-lint"
	case VariantPolicy:
		return "variants"
	default:
		return fmt.Sprintf("PolicyKind(%d)", int(k))
	}
}

const defaultLintTask = "lintRelease"

// ModulePolicy is the resolved task-selection strategy of one module.
type ModulePolicy struct {
	Kind            PolicyKind
	LintTask        string
	AssembleOnly    []string
	AssembleAndTest []string
}

type policyRule struct {
	matches func(o buildconfig.ModuleOverride) bool
	policy  func(o buildconfig.ModuleOverride) ModulePolicy
}

// policyRules are evaluated in order; the first match wins and DefaultPolicy
// applies when none does.
var policyRules = []policyRule{
	{
		matches: buildconfig.ModuleOverride.HasVariants,
		policy: func(o buildconfig.ModuleOverride) ModulePolicy {
			lint := o.LintTask
			if lint == "" {
				lint = defaultLintTask
			}
			return ModulePolicy{
				Kind:            VariantPolicy,
				LintTask:        lint,
				AssembleOnly:    o.AssembleOnly,
				AssembleAndTest: o.AssembleAndTest,
			}
		},
	},
	{
		matches: func(o buildconfig.ModuleOverride) bool { return o.LintTask != "" },
		policy: func(o buildconfig.ModuleOverride) ModulePolicy {
			return ModulePolicy{Kind: CustomLintPolicy, LintTask: o.LintTask}
		},
	},
}

// ResolvePolicy picks the policy of a component and checks the override
// against the component's declared variants.
func ResolvePolicy(c buildconfig.Component, overrides map[string]buildconfig.ModuleOverride) (ModulePolicy, error) {
	o, ok := overrides[c.Name]
	if !ok {
		return ModulePolicy{Kind: DefaultPolicy, LintTask: defaultLintTask}, nil
	}

	var policy ModulePolicy
	matched := false
	for _, r := range policyRules {
		if r.matches(o) {
			policy = r.policy(o)
			matched = true
			break
		}
	}
	if !matched {
		return ModulePolicy{}, fmt.Errorf("%w: module_override %q selects no policy", ErrConfiguration, c.Name)
	}
	if err := checkOverride(c, o, policy); err != nil {
		return ModulePolicy{}, fmt.Errorf("%w: module_override %q: %w", ErrConfiguration, c.Name, err)
	}
	return policy, nil
}

func checkOverride(c buildconfig.Component, o buildconfig.ModuleOverride, p ModulePolicy) error {
	declared := c.VariantNames()
	if err := checkLintTask(o.LintTask, declared); err != nil {
		return err
	}
	if p.Kind != VariantPolicy {
		return nil
	}

	isDeclared := make(map[string]bool, len(declared))
	for _, v := range declared {
		isDeclared[v] = true
	}

	for _, list := range [][]string{p.AssembleOnly, p.AssembleAndTest} {
		seen := make(map[string]bool, len(list))
		for _, v := range list {
			switch {
			case v == "":
				return fmt.Errorf("empty variant name")
			case seen[v]:
				return fmt.Errorf("variant %q listed twice", v)
			case len(declared) > 0 && !isDeclared[v]:
				return fmt.Errorf("variant %q is not declared by the component", v)
			}
			seen[v] = true
		}
	}

	return nil
}

// checkLintTask holds for every policy: a lint task on a component with
// variants must name one of them.
func checkLintTask(lintTask string, declared []string) error {
	if lintTask == "" || len(declared) == 0 {
		return nil
	}
	for _, v := range declared {
		if strings.Contains(lintTask, v) {
			return nil
		}
	}
	return fmt.Errorf("lint task %q matches none of the declared variants %v", lintTask, declared)
}

// definition is one build task to craft for a module.
type definition struct {
	gradleTasks []string
	subtitle    string
	hasLint     bool
	// variant is empty unless the definition builds one declared variant.
	variant string
}

func gradleTask(module, task string) string {
	return module + ":" + task
}

// Definitions returns the build task definitions of a module. At most one
// definition carries the lint task.
func (p ModulePolicy) Definitions(module string) []definition {
	switch p.Kind {
	case CustomLintPolicy:
		return []definition{{
			gradleTasks: []string{
				gradleTask(module, "assemble"),
				gradleTask(module, "assembleAndroidTest"),
				gradleTask(module, "test"),
				gradleTask(module, p.LintTask),
			},
			subtitle: "assembleAndTestAndCustomLintAll",
			hasLint:  true,
		}}

	case VariantPolicy:
		lint := p.LintTask
		onlyDefs, lint := variantDefinitions(module, p.AssembleOnly, false, lint)
		testDefs, lint := variantDefinitions(module, p.AssembleAndTest, true, lint)
		defs := append(onlyDefs, testDefs...)
		if lint != "" {
			defs = append(defs, definition{
				gradleTasks: []string{gradleTask(module, lint)},
				subtitle:    "onlyLintRelease",
				hasLint:     true,
			})
		}
		return defs

	default:
		return []definition{{
			gradleTasks: []string{
				gradleTask(module, "assemble"),
				gradleTask(module, "assembleAndroidTest"),
				gradleTask(module, "test"),
				gradleTask(module, defaultLintTask),
			},
			subtitle: "assembleAndTestAndLintReleaseAll",
			hasLint:  true,
		}}
	}
}

// variantDefinitions crafts one definition per variant. The lint task rides
// along with the first variant whose name it contains; the returned lint is
// empty once absorbed.
func variantDefinitions(module string, variants []string, runTests bool, lint string) ([]definition, string) {
	defs := make([]definition, 0, len(variants))
	for _, v := range variants {
		d := definition{
			gradleTasks: []string{gradleTask(module, "assemble"+v)},
			subtitle:    "assemble",
			variant:     v,
		}
		if runTests {
			d.gradleTasks = append(d.gradleTasks, gradleTask(module, "test"+v+"DebugUnitTest"))
			d.subtitle += "AndTest"
		}
		if lint != "" && strings.Contains(lint, v) {
			d.gradleTasks = append(d.gradleTasks, gradleTask(module, lint))
			d.subtitle += "AndLintDebug"
			d.hasLint = true
			lint = ""
		}
		d.subtitle += v
		defs = append(defs, d)
	}
	return defs, lint
}
