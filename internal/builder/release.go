package builder

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/taskgraphgo/internal/buildconfig"
	"github.com/specialistvlad/taskgraphgo/internal/taskgraph"
)

// ReleaseBarrierLabel is the barrier every release sign task waits on.
const ReleaseBarrierLabel = "release-builds-barrier"

var (
	aarExtensions  = []string{".aar", ".pom", "-sources.jar"}
	hashExtensions = []string{"", ".sha1", ".md5"}
)

// Artifact locates one release file in the three places it lives.
type Artifact struct {
	// TaskclusterPath is where the build task uploads it.
	TaskclusterPath string
	// BuildFSPath is where gradle writes it on the worker.
	BuildFSPath string
	// MavenDestination is its path in the maven repository.
	MavenDestination string
}

// ReleaseArtifact derives the paths of one release file. A non-empty
// timestamp marks a snapshot: the file name gains the timestamp and the
// version directory gains -SNAPSHOT.
func ReleaseArtifact(c buildconfig.Component, repoRoot, version, ext, timestamp string) (Artifact, error) {
	file := fmt.Sprintf("%s-%s%s", c.Name, version, ext)
	dir := version
	if timestamp != "" {
		file = fmt.Sprintf("%s-%s-%s%s", c.Name, version, timestamp, ext)
		dir = version + "-SNAPSHOT"
	}

	root, err := filepath.Abs(filepath.Join(repoRoot, c.Path))
	if err != nil {
		return Artifact{}, fmt.Errorf("resolving path of component %q: %w", c.Name, err)
	}
	return Artifact{
		TaskclusterPath:  "public/build/" + file,
		BuildFSPath:      filepath.ToSlash(filepath.Join(root, "build", "maven", "org", "mozilla", "components", c.Name, dir, file)),
		MavenDestination: "maven2/org/mozilla/components/" + c.Name + "/" + dir + "/" + file,
	}, nil
}

func (c *crafter) releaseArtifacts(comp buildconfig.Component, exts []string) ([]Artifact, error) {
	out := make([]Artifact, 0, len(exts))
	for _, ext := range exts {
		a, err := ReleaseArtifact(comp, c.cfg.RepoRoot, c.cfg.Version, ext, c.cfg.Timestamp)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func product(exts, suffixes []string) []string {
	out := make([]string, 0, len(exts)*len(suffixes))
	for _, e := range exts {
		for _, s := range suffixes {
			out = append(out, e+s)
		}
	}
	return out
}

func suffixed(exts []string, suffix string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		out = append(out, e+suffix)
	}
	return out
}

func taskclusterPaths(as []Artifact) []string {
	out := make([]string, 0, len(as))
	for _, a := range as {
		out = append(out, a.TaskclusterPath)
	}
	return out
}

// releaseGradleTasks returns the gradle invocation of a release build.
func releaseGradleTasks(module string, snapshot bool) []string {
	suffix := "Release"
	if snapshot {
		suffix = ""
	}
	tasks := []string{
		gradleTask(module, "assemble"+suffix),
		gradleTask(module, "test"+suffix),
		gradleTask(module, "lint"+suffix),
		gradleTask(module, "publish"),
	}
	if snapshot {
		tasks = append(tasks, gradleTask(module, "renameSnapshotArtifacts"))
	}
	return tasks
}

func (c *crafter) releaseBuildType() string {
	if c.cfg.Snapshot {
		return "snapshot"
	}
	return "release"
}

// releaseTasks crafts the build -> sign -> beetmover chain of every component
// and the barrier gating all signing on all builds.
func (c *crafter) releaseTasks() error {
	barrier := c.newTask(ReleaseBarrierLabel, "barrier", map[string]any{
		AttrBuildType:     c.releaseBuildType(),
		AttrShippingPhase: "build",
	})
	barrier.Definition.WorkerType = "succeed"
	barrier.Definition.Metadata.Description = "Wait until every release build task completed"

	var signing, publishing []*taskgraph.Task
	for _, comp := range c.cfg.Components {
		build, err := c.releaseBuildTask(comp)
		if err != nil {
			return err
		}
		c.add(build)
		barrier.Dependencies["build-"+comp.Name] = build.Label

		sign, err := c.releaseSignTask(comp, build, barrier)
		if err != nil {
			return err
		}
		signing = append(signing, sign)

		beetmover, err := c.releaseBeetmoverTask(comp, build, sign)
		if err != nil {
			return err
		}
		publishing = append(publishing, beetmover)
	}

	c.add(barrier)
	for _, t := range signing {
		c.add(t)
	}
	for _, t := range publishing {
		c.add(t)
	}
	return nil
}

func (c *crafter) releaseBuildTask(comp buildconfig.Component) (*taskgraph.Task, error) {
	module := ":" + comp.Name
	gradle := releaseGradleTasks(module, c.cfg.Snapshot)
	artifacts, err := c.releaseArtifacts(comp, product(aarExtensions, hashExtensions))
	if err != nil {
		return nil, err
	}

	workerType, err := c.cfg.Rules.BuildWorkerType.Resolve(c.cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	versionLabel := c.cfg.Version
	if c.cfg.Snapshot {
		versionLabel += "-SNAPSHOT"
	}
	t := c.dockerTask("release-build-"+kebab(comp.Name), "build",
		fmt.Sprintf("Build %s (%s)", comp.Name, versionLabel), c.gradleCommand(gradle),
		map[string]any{
			AttrComponent:     comp.Name,
			AttrBuildType:     c.releaseBuildType(),
			AttrShippingPhase: "build",
			AttrGradleTasks:   strings.Join(gradle, " "),
		})
	t.Definition.WorkerType = workerType
	t.Definition.Payload.Artifacts = make(map[string]taskgraph.Artifact, len(artifacts))
	for _, a := range artifacts {
		t.Definition.Payload.Artifacts[a.TaskclusterPath] = taskgraph.Artifact{
			Type:    "file",
			Path:    a.BuildFSPath,
			Expires: taskgraph.Relative("1 year"),
		}
	}
	if c.cfg.Snapshot {
		t.Definition.Payload.Env["SNAPSHOT_TIMESTAMP"] = c.cfg.Timestamp
	}
	return t, nil
}

func (c *crafter) releaseSignTask(comp buildconfig.Component, build, barrier *taskgraph.Task) (*taskgraph.Task, error) {
	artifacts, err := c.releaseArtifacts(comp, aarExtensions)
	if err != nil {
		return nil, err
	}

	t := c.newTask("release-signing-"+kebab(comp.Name), "sign", map[string]any{
		AttrComponent:     comp.Name,
		AttrBuildType:     c.releaseBuildType(),
		AttrShippingPhase: "promote",
		AttrSigned:        true,
	})
	workerType, err := c.cfg.Rules.SigningWorkerType.ResolveFrom(t.Attributes)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	signingType, err := c.cfg.Rules.SigningType.ResolveFrom(t.Attributes)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	t.Dependencies["build"] = build.Label
	t.Dependencies["barrier"] = barrier.Label
	t.Definition.ProvisionerID = "scriptworker-k8s"
	t.Definition.WorkerType = workerType
	t.Definition.Metadata.Description = fmt.Sprintf("Sign release artifacts of %s", comp.Name)
	t.Definition.Scopes = []string{
		"project:mobile:android-components:releng:signing:cert:" + signingType,
		"project:mobile:android-components:releng:signing:format:autograph_gpg",
	}
	t.Definition.Payload = taskgraph.Payload{
		SigningType: signingType,
		UpstreamArtifacts: []taskgraph.UpstreamArtifact{{
			TaskID:   build.TaskID,
			TaskType: "build",
			Paths:    taskclusterPaths(artifacts),
			Formats:  []string{"autograph_gpg"},
		}},
		MaxRunTime: 600,
	}
	return t, nil
}

func (c *crafter) releaseBeetmoverTask(comp buildconfig.Component, build, sign *taskgraph.Task) (*taskgraph.Task, error) {
	buildArtifacts, err := c.releaseArtifacts(comp, product(aarExtensions, hashExtensions))
	if err != nil {
		return nil, err
	}
	signArtifacts, err := c.releaseArtifacts(comp, suffixed(aarExtensions, ".asc"))
	if err != nil {
		return nil, err
	}

	t := c.newTask("release-beetmover-"+kebab(comp.Name), "beetmover", map[string]any{
		AttrComponent:     comp.Name,
		AttrBuildType:     c.releaseBuildType(),
		AttrShippingPhase: "ship",
	})
	workerType, err := c.cfg.Rules.BeetmoverWorkerType.ResolveFrom(t.Attributes)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	bucket, err := c.cfg.Rules.BeetmoverBucket.ResolveFrom(t.Attributes)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	t.Dependencies["build"] = build.Label
	t.Dependencies["signing"] = sign.Label
	t.Definition.ProvisionerID = "scriptworker-k8s"
	t.Definition.WorkerType = workerType
	t.Definition.Metadata.Description = fmt.Sprintf("Publish release artifacts of %s to maven", comp.Name)
	t.Definition.Scopes = []string{
		"project:mobile:android-components:releng:beetmover:bucket:" + bucket,
		"project:mobile:android-components:releng:beetmover:action:push-to-maven",
	}

	var mappings []taskgraph.ArtifactMapping
	for _, a := range append(append([]Artifact(nil), buildArtifacts...), signArtifacts...) {
		mappings = append(mappings, taskgraph.ArtifactMapping{
			TaskclusterPath:  a.TaskclusterPath,
			MavenDestination: a.MavenDestination,
		})
	}
	t.Definition.Payload = taskgraph.Payload{
		UpstreamArtifacts: []taskgraph.UpstreamArtifact{
			{TaskID: build.TaskID, TaskType: "build", Paths: taskclusterPaths(buildArtifacts)},
			{TaskID: sign.TaskID, TaskType: "signing", Paths: taskclusterPaths(signArtifacts)},
		},
		ArtifactMap: mappings,
		ReleaseName: fmt.Sprintf("%s-%s", comp.Name, c.cfg.Version),
		MaxRunTime:  600,
	}
	return t, nil
}
