// SPDX-License-Identifier: MPL-2.0

// Package npmpublish holds the publishing configuration model: the shared
// default scope, the named publication and registry collections, and the
// validation step that freezes them into resolved snapshots.
//
// Configuration happens in two phases. During the first phase callers declare
// and mutate entities through Container.Declare, Container.Configure and
// Container.ConfigureAll; unset fields read through to Defaults at read time.
// Once configuration is complete, ValidatePublication and ValidateRegistry
// produce immutable ResolvedPublication and ResolvedRegistry values whose
// inherited fields no longer follow later changes to Defaults.
package npmpublish
