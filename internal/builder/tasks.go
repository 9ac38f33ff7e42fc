package builder

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/specialistvlad/taskgraphgo/internal/buildconfig"
	"github.com/specialistvlad/taskgraphgo/internal/taskgraph"
)

// Attribute names read by the morpher and the target filters.
const (
	AttrComponent     = "component"
	AttrBuildType     = "build-type"
	AttrCodeReview    = "code-review"
	AttrRunOnTasksFor = "run-on-tasks-for"
	AttrGradleTasks   = "gradle-tasks"
	AttrShippingPhase = "shipping_phase"
	AttrSigned        = "signed"
)

// DockerImageBaseLabel is the base image every docker-worker task runs in.
const DockerImageBaseLabel = "build-docker-image-base"

// TriggerNightlyLabel is the task that registers the nightly cron hook.
const TriggerNightlyLabel = "trigger-nightly"

const (
	checkoutDir = "/builds/worker/checkouts/vcs"
	imageDep    = "docker-image"
)

var codeReviewTriggers = []string{"github-pull-request", "github-pull-request-untrusted", "github-push"}

// crafter accumulates tasks for one Build call.
type crafter struct {
	cfg   Config
	tasks []*taskgraph.Task
	image *taskgraph.Task
}

func (c *crafter) add(t *taskgraph.Task) *taskgraph.Task {
	c.tasks = append(c.tasks, t)
	return t
}

func (c *crafter) newTask(label, kind string, attrs map[string]any) *taskgraph.Task {
	if attrs == nil {
		attrs = map[string]any{}
	}
	return &taskgraph.Task{
		Label:        label,
		Kind:         kind,
		Attributes:   attrs,
		Dependencies: map[string]string{},
		TaskID:       c.cfg.IDGen(),
		Definition: taskgraph.Definition{
			ProvisionerID: "mobile-" + c.cfg.Level,
			Requires:      taskgraph.AllCompleted,
			Created:       taskgraph.Relative("0 seconds"),
			Deadline:      taskgraph.Relative("1 day"),
			Expires:       taskgraph.Relative("1 year"),
			Metadata: taskgraph.Metadata{
				Name:   label,
				Owner:  c.cfg.Owner,
				Source: c.cfg.Source,
			},
			Scopes: []string{},
			Extra:  map[string]any{},
		},
	}
}

// dockerTask is a task running a shell command inside the base image.
func (c *crafter) dockerTask(label, kind, description, command string, attrs map[string]any) *taskgraph.Task {
	t := c.newTask(label, kind, attrs)
	t.Definition.WorkerType = "b-linux-gcp"
	t.Definition.Metadata.Description = description
	t.Definition.Payload = taskgraph.Payload{
		Command: []string{
			"/usr/local/bin/run-task",
			"--mobile-checkout=" + checkoutDir + "/",
			"--",
			"bash",
			"-cx",
			"cd " + checkoutDir + " && " + command,
		},
		Env: map[string]string{
			"MOZ_SCM_LEVEL":          c.cfg.Level,
			"MOBILE_REPOSITORY_TYPE": "git",
		},
		MaxRunTime: 7200,
	}
	if c.image != nil {
		t.Dependencies[imageDep] = c.image.Label
		t.Definition.Payload.Image = &taskgraph.Image{
			Type:   "task-image",
			Path:   "public/image.tar.zst",
			TaskID: c.image.TaskID,
		}
	}
	return t
}

func (c *crafter) dockerImageTask() *taskgraph.Task {
	t := c.newTask(DockerImageBaseLabel, "docker-image", map[string]any{
		AttrRunOnTasksFor: append([]string(nil), codeReviewTriggers...),
		"image_name":      "base",
	})
	t.Definition.WorkerType = "images-gcp"
	t.Definition.Metadata.Description = "Build the docker image base for use in tasks"
	t.Definition.Payload = taskgraph.Payload{
		Command:    []string{"/usr/local/bin/run-task", "--", "/builds/worker/build-image.sh"},
		Env:        map[string]string{"IMAGE_NAME": "base", "CONTEXT_PATH": "public/docker-contexts/base.tar.gz"},
		Artifacts:  map[string]taskgraph.Artifact{"public/image.tar.zst": {Type: "file", Path: "/workspace/image.tar.zst"}},
		Features:   map[string]bool{"dind": true},
		MaxRunTime: 7200,
	}
	return t
}

func (c *crafter) gradleCommand(tasks []string) string {
	return "./gradlew --no-daemon " + strings.Join(tasks, " ")
}

// moduleBuildTask crafts one pr/push build task of a component.
func (c *crafter) moduleBuildTask(comp buildconfig.Component, d definition) *taskgraph.Task {
	attrs := make(map[string]any, len(comp.Attributes)+5)
	for k, v := range comp.Attributes {
		attrs[k] = v
	}
	attrs[AttrComponent] = comp.Name
	attrs[AttrBuildType] = variantBuildType(comp, d.variant)
	attrs[AttrCodeReview] = true
	attrs[AttrRunOnTasksFor] = append([]string(nil), codeReviewTriggers...)
	attrs[AttrGradleTasks] = strings.Join(d.gradleTasks, " ")

	label := "build-" + kebab(comp.Name) + "-" + kebab(d.subtitle)
	t := c.dockerTask(label, "build", fmt.Sprintf("Execute Gradle tasks for %s", comp.Name), c.gradleCommand(d.gradleTasks), attrs)
	t.Definition.Payload.Artifacts = map[string]taskgraph.Artifact{
		"public/reports": {Type: "directory", Path: "/builds/worker/checkouts/vcs/" + comp.Path + "/build/reports"},
	}
	return t
}

// variantBuildType is the declared build type of the variant a definition
// builds, or "regular".
func variantBuildType(comp buildconfig.Component, variant string) string {
	if v, ok := comp.Variant(variant); ok && v.BuildType != "" {
		return v.BuildType
	}
	return "regular"
}

type staticCheck struct {
	label       string
	description string
	command     string
}

var staticChecks = []staticCheck{
	{"detekt", "Runs detekt over all modules", "./gradlew --no-daemon detekt"},
	{"ktlint", "Runs ktlint over all modules", "./gradlew --no-daemon ktlint"},
	{"compare-locales", "Validate strings.xml with compare-locales", "pip install 'compare-locales>=5.0.2,<6.0' && compare-locales --validate l10n.toml ."},
}

func (c *crafter) staticAnalysisTasks() {
	for _, s := range staticChecks {
		c.add(c.dockerTask(s.label, "lint", s.description, s.command, map[string]any{
			AttrCodeReview:    true,
			AttrRunOnTasksFor: append([]string(nil), codeReviewTriggers...),
		}))
	}
}

func (c *crafter) pushTasks() {
	c.add(c.dockerTask("ui-tests", "ui-test", "Run UI tests on Firebase Test Lab",
		"./automation/taskcluster/androidTest/ui-test.sh browser arm",
		map[string]any{AttrRunOnTasksFor: []string{"github-push"}}))

	trigger := c.newTask(TriggerNightlyLabel, "trigger-nightly", map[string]any{
		AttrRunOnTasksFor: []string{"github-push"},
	})
	trigger.Definition.WorkerType = "succeed"
	trigger.Definition.Metadata.Description = "Register the nightly cron hook for the new geckoview version"
	trigger.Definition.Scopes = []string{"hooks:trigger-hook:project-mobile/nightly"}
	c.add(trigger)

	publishes := make(map[string]bool, len(c.cfg.Components))
	for _, comp := range c.cfg.Components {
		publishes[comp.Name] = comp.Publish
	}
	for _, comp := range c.cfg.Components {
		if !comp.Publish {
			continue
		}
		module := ":" + comp.Name
		gradle := []string{gradleTask(module, "assembleRelease"), gradleTask(module, "publish")}
		t := c.dockerTask(nightlyLabel(comp.Name), "nightly",
			fmt.Sprintf("Publish nightly %s", comp.Name), c.gradleCommand(gradle),
			map[string]any{
				AttrComponent:     comp.Name,
				AttrBuildType:     "nightly",
				AttrRunOnTasksFor: []string{"cron"},
				AttrGradleTasks:   strings.Join(gradle, " "),
			})
		// Upstream components publish first so the nightly poms resolve.
		for _, dep := range comp.Dependencies {
			if publishes[dep] {
				t.Dependencies["nightly-"+dep] = nightlyLabel(dep)
			}
		}
		c.add(t)
	}
}

func nightlyLabel(component string) string {
	return "nightly-" + kebab(component)
}

// kebab turns "assembleAndTestGeckoNightly" into
// "assemble-and-test-gecko-nightly". Existing dashes are kept.
func kebab(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && runes[i-1] != '-' && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1]) ||
				(i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				b.WriteByte('-')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
