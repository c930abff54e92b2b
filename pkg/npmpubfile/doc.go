// SPDX-License-Identifier: MPL-2.0

// Package npmpubfile parses npmpub.cue project files.
//
// A project file declares the project identity, shared publishing defaults,
// publications and registries. Parsing validates the file against an embedded
// CUE schema; Apply then replays the declarations onto an
// npmpublish.Extension. String values that reference environment variables
// ($NPM_TOKEN, ${CI_PROJECT_ID}) are expanded at parse time.
package npmpubfile
