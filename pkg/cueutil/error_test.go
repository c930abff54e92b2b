// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"strings"
	"testing"
)

func TestFormatError(t *testing.T) {
	t.Parallel()

	t.Run("nil error returns nil", func(t *testing.T) {
		t.Parallel()

		if err := FormatError(nil, "npmpub.cue"); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})

	t.Run("non-CUE error is wrapped with filepath", func(t *testing.T) {
		t.Parallel()

		originalErr := errors.New("disk on fire")
		err := FormatError(originalErr, "npmpub.cue")
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), "npmpub.cue") || !strings.Contains(err.Error(), "disk on fire") {
			t.Errorf("unexpected message: %v", err)
		}
		if !errors.Is(err, originalErr) {
			t.Error("FormatError() must wrap non-CUE errors")
		}
	})
}

func TestFormatPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		path     []string
		expected string
	}{
		{name: "empty path", path: nil, expected: ""},
		{name: "single element", path: []string{"name"}, expected: "name"},
		{name: "nested path", path: []string{"publications", "js", "access"}, expected: "publications.js.access"},
		{
			name:     "array index",
			path:     []string{"publications", "js", "dependencies", "0", "name"},
			expected: "publications.js.dependencies[0].name",
		},
		{name: "trailing index", path: []string{"files", "1"}, expected: "files[1]"},
		{name: "leading number is a key", path: []string{"0", "name"}, expected: "0.name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := formatPath(tt.path); got != tt.expected {
				t.Errorf("formatPath(%v) = %q, want %q", tt.path, got, tt.expected)
			}
		})
	}
}

func TestCheckFileSize(t *testing.T) {
	t.Parallel()

	if err := CheckFileSize([]byte("abc"), 3, "f.cue"); err != nil {
		t.Errorf("CheckFileSize() at the limit = %v", err)
	}
	err := CheckFileSize([]byte("abcd"), 3, "f.cue")
	if err == nil || !strings.Contains(err.Error(), "exceeds maximum") {
		t.Errorf("CheckFileSize() over the limit = %v", err)
	}
}
