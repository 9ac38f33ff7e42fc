// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package taskgraph

import "maps"

// Requires controls when a task runs relative to its dependencies.
type Requires string

const (
	// AllCompleted runs the task only when every dependency succeeded.
	AllCompleted Requires = "all-completed"
	// AllResolved runs the task once every dependency finished, whatever
	// the outcome.
	AllResolved Requires = "all-resolved"
)

// Datestamp is a time expressed relative to the decision run, e.g. "1 day".
type Datestamp struct {
	Relative string `json:"relative-datestamp" yaml:"relative-datestamp"`
}

// Relative builds a Datestamp.
func Relative(offset string) *Datestamp {
	return &Datestamp{Relative: offset}
}

// Definition is the execution backend's description of the work. The graph
// algorithms never interpret it beyond passthrough.
type Definition struct {
	ProvisionerID string         `json:"provisionerId,omitempty" yaml:"provisionerId,omitempty"`
	WorkerType    string         `json:"workerType,omitempty" yaml:"workerType,omitempty"`
	Dependencies  []string       `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Requires      Requires       `json:"requires,omitempty" yaml:"requires,omitempty"`
	Created       *Datestamp     `json:"created,omitempty" yaml:"created,omitempty"`
	Deadline      *Datestamp     `json:"deadline,omitempty" yaml:"deadline,omitempty"`
	Expires       *Datestamp     `json:"expires,omitempty" yaml:"expires,omitempty"`
	Metadata      Metadata       `json:"metadata" yaml:"metadata"`
	Scopes        []string       `json:"scopes" yaml:"scopes"`
	Routes        []string       `json:"routes,omitempty" yaml:"routes,omitempty"`
	Payload       Payload        `json:"payload" yaml:"payload"`
	Extra         map[string]any `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// Metadata is the human-facing description of a task.
type Metadata struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Owner       string `json:"owner" yaml:"owner"`
	Source      string `json:"source" yaml:"source"`
}

// Payload is the worker-specific part of a definition.
type Payload struct {
	Command           []string            `json:"command,omitempty" yaml:"command,omitempty"`
	Env               map[string]string   `json:"env,omitempty" yaml:"env,omitempty"`
	Artifacts         map[string]Artifact `json:"artifacts,omitempty" yaml:"artifacts,omitempty"`
	Features          map[string]bool     `json:"features,omitempty" yaml:"features,omitempty"`
	Image             *Image              `json:"image,omitempty" yaml:"image,omitempty"`
	MaxRunTime        int                 `json:"maxRunTime,omitempty" yaml:"maxRunTime,omitempty"`
	OnExitStatus      *ExitStatus         `json:"onExitStatus,omitempty" yaml:"onExitStatus,omitempty"`
	UpstreamArtifacts []UpstreamArtifact  `json:"upstreamArtifacts,omitempty" yaml:"upstreamArtifacts,omitempty"`
	ArtifactMap       []ArtifactMapping   `json:"artifactMap,omitempty" yaml:"artifactMap,omitempty"`
	SigningType       string              `json:"signingType,omitempty" yaml:"signingType,omitempty"`
	ReleaseName       string              `json:"releaseName,omitempty" yaml:"releaseName,omitempty"`
}

// Artifact is a file the worker uploads once the task finishes.
type Artifact struct {
	Type    string     `json:"type" yaml:"type"`
	Path    string     `json:"path" yaml:"path"`
	Expires *Datestamp `json:"expires,omitempty" yaml:"expires,omitempty"`
}

// Image points at a docker image produced by another task.
type Image struct {
	Type   string `json:"type" yaml:"type"`
	Path   string `json:"path" yaml:"path"`
	TaskID string `json:"taskId" yaml:"taskId"`
}

// ExitStatus lists exit codes that trigger special worker behaviour.
type ExitStatus struct {
	Retry       []int `json:"retry,omitempty" yaml:"retry,omitempty"`
	PurgeCaches []int `json:"purgeCaches,omitempty" yaml:"purgeCaches,omitempty"`
}

// UpstreamArtifact names artifacts consumed from an upstream task.
type UpstreamArtifact struct {
	TaskID   string   `json:"taskId" yaml:"taskId"`
	TaskType string   `json:"taskType" yaml:"taskType"`
	Paths    []string `json:"paths" yaml:"paths"`
	Formats  []string `json:"formats,omitempty" yaml:"formats,omitempty"`
}

// ArtifactMapping tells a publishing worker where an artifact goes.
type ArtifactMapping struct {
	TaskclusterPath  string `json:"taskclusterPath" yaml:"taskclusterPath"`
	MavenDestination string `json:"mavenDestination" yaml:"mavenDestination"`
}

func (d Definition) clone() Definition {
	c := d
	c.Dependencies = append([]string(nil), d.Dependencies...)
	c.Scopes = append([]string(nil), d.Scopes...)
	c.Routes = append([]string(nil), d.Routes...)
	c.Extra = maps.Clone(d.Extra)
	c.Payload.Command = append([]string(nil), d.Payload.Command...)
	c.Payload.Env = maps.Clone(d.Payload.Env)
	c.Payload.Artifacts = maps.Clone(d.Payload.Artifacts)
	c.Payload.Features = maps.Clone(d.Payload.Features)
	c.Payload.UpstreamArtifacts = append([]UpstreamArtifact(nil), d.Payload.UpstreamArtifacts...)
	c.Payload.ArtifactMap = append([]ArtifactMapping(nil), d.Payload.ArtifactMap...)
	if d.Payload.Image != nil {
		img := *d.Payload.Image
		c.Payload.Image = &img
	}
	if d.Payload.OnExitStatus != nil {
		es := *d.Payload.OnExitStatus
		c.Payload.OnExitStatus = &es
	}
	return c
}
