// SPDX-License-Identifier: MPL-2.0

// Package taskgraph is the host build engine npm publishing plugs into.
//
// A Registry holds named tasks. Each task declares the tasks it depends on,
// its input files and properties, its output paths and an optional action.
// The Executor runs the dependency closure of the requested tasks in
// topological order. It skips disabled tasks and tasks whose fingerprint
// (github.com/opencontainers/go-digest over inputs, properties and outputs) is
// unchanged since their last successful run. Execution stops at the first
// failing task, so nothing depending on it runs.
package taskgraph
