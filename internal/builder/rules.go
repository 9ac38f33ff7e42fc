package builder

import "github.com/specialistvlad/taskgraphgo/internal/keyed"

// Rules resolve the worker and service settings that depend on the build
// type of a release task.
type Rules struct {
	BuildWorkerType     keyed.Value[string]
	SigningWorkerType   keyed.Value[string]
	SigningType         keyed.Value[string]
	BeetmoverWorkerType keyed.Value[string]
	BeetmoverBucket     keyed.Value[string]
}

func (r Rules) isZero() bool {
	return r.BuildWorkerType.By == "" &&
		r.SigningWorkerType.By == "" &&
		r.SigningType.By == "" &&
		r.BeetmoverWorkerType.By == "" &&
		r.BeetmoverBucket.By == ""
}

// DefaultRules returns the production rules for level 3 and the dep (test)
// rules otherwise. Staging always uses dep signing and the staging bucket.
func DefaultRules(level string, staging bool) Rules {
	production := level == "3" && !staging

	r := Rules{
		BuildWorkerType: keyed.By[string]("level").
			When("3", "b-android-large").
			Otherwise("b-android"),
		SigningWorkerType:   keyed.By[string]("build-type").Otherwise("dep-signing"),
		SigningType:         keyed.By[string]("build-type").Otherwise("dep-signing"),
		BeetmoverWorkerType: keyed.By[string]("build-type").Otherwise("dep-beetmover"),
		BeetmoverBucket:     keyed.By[string]("build-type").Otherwise("maven-staging"),
	}
	if production {
		r.SigningWorkerType = keyed.By[string]("build-type").
			When("release|snapshot", "signing").
			Otherwise("dep-signing")
		r.SigningType = keyed.By[string]("build-type").
			When("release|snapshot", "release-signing").
			Otherwise("dep-signing")
		r.BeetmoverWorkerType = keyed.By[string]("build-type").
			When("release|snapshot", "beetmover").
			Otherwise("dep-beetmover")
		r.BeetmoverBucket = keyed.By[string]("build-type").
			When("snapshot", "maven-snapshot-production").
			When(".*", "maven-production")
	}
	return r
}
