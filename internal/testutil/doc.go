// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
//
// Common helpers include environment variable management (MustSetenv, MustUnsetenv),
// file operations (MustWriteFile, MustReadFile, MustMkdirAll, MustRemoveAll)
// and fake executables standing in for npm and git (WriteFakeCommand).
package testutil
