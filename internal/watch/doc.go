// SPDX-License-Identifier: MPL-2.0

// Package watch re-runs a callback when watched task inputs change.
//
// Inputs are files or directories; directories are watched recursively.
// Inputs that do not exist yet are picked up once they are created, so a
// publication can be watched before its first compilation. Events inside the
// debounce window are coalesced into one callback.
package watch
