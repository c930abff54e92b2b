// SPDX-License-Identifier: MPL-2.0

package npm

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"mvdan.cc/sh/v3/shell"
)

// DefaultCommand is the npm command used when none is configured.
const DefaultCommand = "npm"

// ErrNotFound is returned when the npm executable cannot be located.
var ErrNotFound = errors.New("npm executable not found")

// ParseCommand splits a shell-like command string such as
// "node /opt/npm/bin/npm-cli.js" into words. Environment variables are
// expanded. An empty string yields DefaultCommand.
func ParseCommand(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return []string{DefaultCommand}, nil
	}
	fields, err := shell.Fields(s, nil)
	if err != nil {
		return nil, fmt.Errorf("parse npm command %q: %w", s, err)
	}
	if len(fields) == 0 {
		return []string{DefaultCommand}, nil
	}
	return fields, nil
}

// Locate resolves the executable of command. When nodeJSDir is set and the
// command is the bare default, the npm shipped in <nodeJSDir>/bin wins.
func Locate(command []string, nodeJSDir string) ([]string, error) {
	if len(command) == 0 {
		command = []string{DefaultCommand}
	}
	resolved := append([]string(nil), command...)
	if nodeJSDir != "" && command[0] == DefaultCommand {
		candidate := filepath.Join(nodeJSDir, "bin", npmBinary())
		if _, err := os.Stat(candidate); err == nil {
			resolved[0] = candidate
			return resolved, nil
		}
	}
	path, err := exec.LookPath(command[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, command[0])
	}
	resolved[0] = path
	return resolved, nil
}

func npmBinary() string {
	if runtime.GOOS == "windows" {
		return "npm.cmd"
	}
	return "npm"
}

// Redact joins args for display with secrets masked. Values of
// "--//host/:_authToken=" style flags and of --otp are replaced.
func Redact(args []string) string {
	out := make([]string, len(args))
	maskNext := false
	for i, a := range args {
		switch {
		case maskNext:
			out[i] = "***"
			maskNext = false
		case a == "--otp":
			out[i] = a
			maskNext = true
		case strings.HasPrefix(a, "--otp="):
			out[i] = "--otp=***"
		case strings.Contains(a, ":_authToken="):
			out[i] = a[:strings.Index(a, ":_authToken=")+len(":_authToken=")] + "***"
		default:
			out[i] = a
		}
	}
	return strings.Join(out, " ")
}
