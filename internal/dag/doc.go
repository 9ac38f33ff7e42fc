// Package dag holds the bare topology of a task graph: string node IDs and
// the directed "depends on" edges between them. It knows nothing about
// tasks, payloads or attributes; the taskgraph package layers those on top
// and delegates cycle detection, ordering and reachability queries here.
package dag
