// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package taskgraph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// MarshalJSON encodes the graph as a {label: task} object in graph order.
func (g *Graph) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, label := range g.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(label)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(g.tasks[label])
		if err != nil {
			return nil, fmt.Errorf("encoding task %q: %w", label, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML encodes the graph as a {label: task} mapping in graph order.
func (g *Graph) MarshalYAML() (any, error) {
	root := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, label := range g.order {
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: label}
		value := &yaml.Node{}
		if err := value.Encode(g.tasks[label]); err != nil {
			return nil, fmt.Errorf("encoding task %q: %w", label, err)
		}
		root.Content = append(root.Content, key, value)
	}
	return root, nil
}

// Format selects the artifact encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ArtifactWriter writes decision artifacts into a directory.
type ArtifactWriter struct {
	Dir    string
	Format Format
}

// Write encodes v into <dir>/<name>.<ext> and returns the written path.
func (w ArtifactWriter) Write(name string, v any) (string, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("creating artifacts dir: %w", err)
	}

	var (
		data []byte
		err  error
		ext  string
	)
	switch w.Format {
	case FormatYAML:
		ext = ".yml"
		data, err = yaml.Marshal(v)
	case FormatJSON, "":
		ext = ".json"
		data, err = json.MarshalIndent(v, "", "  ")
	default:
		return "", fmt.Errorf("unsupported artifact format %q", w.Format)
	}
	if err != nil {
		return "", fmt.Errorf("encoding %s: %w", name, err)
	}

	path := filepath.Join(w.Dir, name+ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
