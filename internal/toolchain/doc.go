// SPDX-License-Identifier: MPL-2.0

// Package toolchain reads the build toolchain manifest and binds its
// JavaScript targets to npm publications.
//
// The manifest describes which toolchain plugins are applied, the targets
// they produce with their compilations, and the dependency configurations
// those compilations resolve. Capability probes decide which targets are
// publishable; the Binder turns every such target into a Publication of the
// same name.
package toolchain
