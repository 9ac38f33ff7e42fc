package target

import (
	"github.com/specialistvlad/taskgraphgo/internal/index"
	"github.com/specialistvlad/taskgraphgo/internal/retry"
	"github.com/specialistvlad/taskgraphgo/internal/vcs"
)

// Method names accepted as target_tasks_method.
const (
	MethodDefault        = "default"
	MethodNightly        = "nightly"
	MethodPromote        = "promote"
	MethodShip           = "ship"
	MethodProjectDefault = "project-default"
)

// Deps are the collaborators the built-in filters need.
type Deps struct {
	Index      index.Lookup
	Repo       vcs.Repository
	Automation bool
	Retry      retry.Policy
}

// Builtin returns a registry holding every built-in filter.
func Builtin(d Deps) *Registry {
	r := NewRegistry()
	promote := Phase{Name: "promote"}
	r.Register(MethodDefault, Default{})
	r.Register(MethodNightly, Nightly{Index: d.Index, Automation: d.Automation, Retry: d.Retry})
	r.Register(MethodPromote, promote)
	r.Register(MethodShip, Ship{Promote: promote})
	r.Register(MethodProjectDefault, ProjectDefault{Versions: NewVersionReader(d.Repo, GeckoVersionPath)})
	return r
}
