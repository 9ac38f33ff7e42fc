package builder

import (
	"fmt"
	"time"

	"github.com/specialistvlad/taskgraphgo/internal/buildconfig"
	"github.com/specialistvlad/taskgraphgo/internal/slugid"
)

// ErrConfiguration is returned for any invalid build description or builder
// setting.
var ErrConfiguration = buildconfig.ErrConfiguration

// Mode selects which family of tasks is crafted.
type Mode string

const (
	ModePR      Mode = "pr"
	ModePush    Mode = "push"
	ModeRelease Mode = "release"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModePR, ModePush, ModeRelease:
		return m, nil
	default:
		return "", fmt.Errorf("%w: unknown build mode %q", ErrConfiguration, s)
	}
}

// Config is everything the builder needs. It is assembled once by the caller
// and never read from the environment.
type Config struct {
	Components []buildconfig.Component
	Overrides  map[string]buildconfig.ModuleOverride

	// Version is the release version of all components. Required in
	// release mode.
	Version string
	// Snapshot publishes timestamped -SNAPSHOT artifacts.
	Snapshot bool
	// Staging routes signing and publishing to the staging services.
	Staging bool
	// Timestamp is the snapshot timestamp (YYYYMMDDhhmmss). Generated once
	// from Now when empty.
	Timestamp string
	Now       func() time.Time

	Level    string
	Owner    string
	Source   string
	RepoRoot string

	Rules Rules
	IDGen slugid.Generator
}

func (c Config) withDefaults() Config {
	if c.Level == "" {
		c.Level = "1"
	}
	if c.Owner == "" {
		c.Owner = "mobile-releng@mozilla.com"
	}
	if c.RepoRoot == "" {
		c.RepoRoot = "."
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.IDGen == nil {
		c.IDGen = slugid.Nice
	}
	if c.Rules.isZero() {
		c.Rules = DefaultRules(c.Level, c.Staging)
	}
	return c
}

// SnapshotTimestamp formats t as a snapshot artifact timestamp in UTC.
func SnapshotTimestamp(t time.Time) string {
	return t.UTC().Format("20060102150405")
}
