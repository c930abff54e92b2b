// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable errors and a catalog of Markdown guidance
// for the failures users of npmpub most often hit: a missing npm binary,
// rejected publications, failed publishes and broken configuration.
package issue
