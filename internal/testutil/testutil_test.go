// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func TestMustWriteFileCreatesParents(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "a", "b", "c.txt")
	MustWriteFile(t, path, "hello")
	if got := MustReadFile(t, path); got != "hello" {
		t.Errorf("MustReadFile() = %q, want %q", got, "hello")
	}
}

func TestMustSetenvRestores(t *testing.T) {
	const key = "NPMPUB_TESTUTIL_PROBE"
	restoreUnset := MustUnsetenv(t, key)

	restore := MustSetenv(t, key, "value")
	if os.Getenv(key) != "value" {
		t.Fatalf("MustSetenv() did not set %s", key)
	}
	restore()
	if _, ok := os.LookupEnv(key); ok {
		t.Errorf("cleanup left %s set", key)
	}
	restoreUnset()
}

func TestWriteFakeCommand(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := WriteFakeCommand(t, dir, "npm", `echo "fake $*"`)

	out, err := exec.Command(path, "pack", "lib").CombinedOutput()
	if err != nil {
		t.Fatalf("running fake command: %v (%s)", err, out)
	}
	if strings.TrimSpace(string(out)) != "fake pack lib" {
		t.Errorf("output = %q", out)
	}
}
