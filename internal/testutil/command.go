// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// SkipOnWindows skips tests that rely on POSIX shell scripts.
func SkipOnWindows(t testing.TB) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("skipping: fake commands are POSIX shell scripts")
	}
}

// WriteFakeCommand writes an executable /bin/sh script named name into dir
// and returns its path. body is the script content after the shebang line.
//
// A fake that records its arguments and working directory:
//
//	npm := testutil.WriteFakeCommand(t, dir, "npm", `
//	echo "$PWD $*" >> "`+logPath+`"
//	`)
func WriteFakeCommand(t testing.TB, dir, name, body string) string {
	t.Helper()
	SkipOnWindows(t)
	MustMkdirAll(t, dir, 0o755)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("failed to write fake command %s: %v", path, err)
	}
	return path
}
