// Package taskgraph is the canonical in-memory model of a decision run: the
// Task (one schedulable unit of work) and the Graph (every task of the run
// plus the label -> task id mapping handed to the execution backend).
//
// A Graph is immutable once constructed. New validates that labels are
// unique, that every dependency names a task in the same graph and that the
// dependency relation is acyclic. Amend and Closure derive new graphs and
// never touch the receiver, so a stage that augments a graph can never alias
// the caller's view of it.
package taskgraph
