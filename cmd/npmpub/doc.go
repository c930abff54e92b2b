// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for npmpub.
//
// The root command loads the user configuration and the npmpub.cue project
// file, evaluates the publishing extension into a task graph and runs the
// requested tasks. Subcommands cover task listing and execution, registry
// login, GitLab release notification and configuration management.
package cmd
