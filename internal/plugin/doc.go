// SPDX-License-Identifier: MPL-2.0

// Package plugin hosts the publishing extension on a project and drives its
// two-phase evaluation.
//
// During configuration, callers apply the plugin and mutate the extension
// freely. Evaluate is the single barrier that ends configuration: it binds
// toolchain targets, validates every publication and registry, and
// assembles the task graph. It runs at most once per project.
package plugin
