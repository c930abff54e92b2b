// SPDX-License-Identifier: MPL-2.0

// Package npm invokes the npm command line client.
//
// Every invocation runs synchronously in a given working directory. Output is
// streamed line by line to the logger carried by the context and captured so
// that a non-zero exit can be reported as a *ProcessError with the full
// output attached. Nothing is retried.
package npm
