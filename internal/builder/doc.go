/*
Package builder constructs the full task graph of a decision run from the
project's build description.

Construction is a multi-pass process that always produces a brand new,
validated *taskgraph.Graph:

 1. Configuration: module overrides are resolved once into a ModulePolicy per
    component. A policy is one of three tagged variants (default, custom lint,
    explicit variants) picked by an ordered list of rules, so no call site
    branches on override keys.

 2. Task crafting: per-component build tasks are crafted from the policy,
    followed by the global static-analysis tasks and the mode-specific extras
    (ui tests, nightly publishing, the base docker image). Release mode
    instead crafts a build -> sign -> beetmover chain per component, gated by
    a single barrier task that waits for every release build.

 3. Validation: the crafted tasks are handed to taskgraph.New, which rejects
    dangling dependencies, duplicate labels and cycles.

Any configuration problem is reported as ErrConfiguration before a single
task is emitted.
*/
package builder
