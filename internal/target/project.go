package target

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/specialistvlad/taskgraphgo/internal/config"
	"github.com/specialistvlad/taskgraphgo/internal/ctxlog"
	"github.com/specialistvlad/taskgraphgo/internal/taskgraph"
	"github.com/specialistvlad/taskgraphgo/internal/vcs"
)

// GeckoVersionPath is where the tracked geckoview version is declared.
const GeckoVersionPath = "android-components/buildSrc/src/main/java/Gecko.kt"

const (
	triggerNightlyKind = "trigger-nightly"
	versionCacheSize   = 64
)

var (
	versionDecl  = regexp.MustCompile(`version = "([^"]*)"`)
	leadingMajor = regexp.MustCompile(`^(\d+)`)
)

// VersionReader reads the geckoview major version at a revision, memoised
// per revision.
type VersionReader struct {
	Repo vcs.Repository
	Path string

	cache *lru.Cache[string, int]
}

// NewVersionReader returns a reader for the version file at path.
func NewVersionReader(repo vcs.Repository, path string) *VersionReader {
	if path == "" {
		path = GeckoVersionPath
	}
	cache, err := lru.New[string, int](versionCacheSize)
	if err != nil {
		panic(fmt.Sprintf("creating version cache: %v", err))
	}
	return &VersionReader{Repo: repo, Path: path, cache: cache}
}

// MajorVersion returns the major geckoview version declared at revision.
func (r *VersionReader) MajorVersion(ctx context.Context, revision string) (int, error) {
	if v, ok := r.cache.Get(revision); ok {
		return v, nil
	}
	content, err := vcs.Show(ctx, r.Repo, revision, r.Path)
	if err != nil {
		return 0, err
	}
	major, err := ParseMajorVersion(content)
	if err != nil {
		return 0, fmt.Errorf("%s at %s: %w", r.Path, revision, err)
	}
	r.cache.Add(revision, major)
	return major, nil
}

// ParseMajorVersion extracts the leading major number of the first
// `version = "..."` declaration in content.
func ParseMajorVersion(content string) (int, error) {
	m := versionDecl.FindStringSubmatch(content)
	if m == nil {
		return 0, fmt.Errorf("%w: no version declaration found", ErrVersionParse)
	}
	digits := leadingMajor.FindString(m[1])
	if digits == "" {
		return 0, fmt.Errorf("%w: %q has no major version", ErrVersionParse, m[1])
	}
	major, err := strconv.Atoi(digits)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrVersionParse, m[1], err)
	}
	return major, nil
}

// ProjectDefault behaves like Default, except the nightly trigger only runs
// when the geckoview major version changed between base and head.
type ProjectDefault struct {
	Versions *VersionReader
}

// Select implements Filter.
func (p ProjectDefault) Select(ctx context.Context, g *taskgraph.Graph, params config.Parameters) ([]string, error) {
	selected, err := Default{}.Select(ctx, g, params)
	if err != nil {
		return nil, err
	}

	hasTrigger := false
	for _, l := range selected {
		if t, _ := g.Get(l); t.Kind == triggerNightlyKind {
			hasTrigger = true
			break
		}
	}
	if !hasTrigger {
		return selected, nil
	}

	bumped, err := p.majorBumped(ctx, params.BaseRev, params.HeadRev)
	if err != nil {
		return nil, err
	}
	if bumped {
		ctxlog.FromContext(ctx).Info("Geckoview major version changed, keeping nightly trigger.", "base", params.BaseRev, "head", params.HeadRev)
		return selected, nil
	}

	out := selected[:0]
	for _, l := range selected {
		if t, _ := g.Get(l); t.Kind != triggerNightlyKind {
			out = append(out, l)
		}
	}
	return out, nil
}

func (p ProjectDefault) majorBumped(ctx context.Context, base, head string) (bool, error) {
	if base == "" || base == head {
		return false, nil
	}
	if p.Versions == nil {
		return false, fmt.Errorf("project-default filter has no version reader")
	}
	before, err := p.Versions.MajorVersion(ctx, base)
	if err != nil {
		return false, err
	}
	after, err := p.Versions.MajorVersion(ctx, head)
	if err != nil {
		return false, err
	}
	return before != after, nil
}
