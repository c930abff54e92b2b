// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testSchema = `
#Registry: {
	url:         string
	auth_token?: string
	access:      *"public" | "restricted"
}
`

type testRegistry struct {
	URL       string `json:"url"`
	AuthToken string `json:"auth_token,omitempty"`
	Access    string `json:"access"`
}

func TestParseAndDecode(t *testing.T) {
	t.Parallel()

	t.Run("valid data decodes with schema defaults", func(t *testing.T) {
		t.Parallel()

		data := []byte(`url: "https://registry.npmjs.org"`)
		result, err := ParseAndDecode[testRegistry]([]byte(testSchema), data, "#Registry")
		if err != nil {
			t.Fatalf("ParseAndDecode() error = %v", err)
		}
		if result.Value.URL != "https://registry.npmjs.org" {
			t.Errorf("URL = %q", result.Value.URL)
		}
		if result.Value.Access != "public" {
			t.Errorf("Access = %q, want schema default %q", result.Value.Access, "public")
		}
	})

	t.Run("disallowed value reports path and filename", func(t *testing.T) {
		t.Parallel()

		data := []byte(`
url: "https://registry.npmjs.org"
access: "everyone"
`)
		_, err := ParseAndDecode[testRegistry]([]byte(testSchema), data, "#Registry", WithFilename("npmpub.cue"))
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), "npmpub.cue") || !strings.Contains(err.Error(), "access") {
			t.Errorf("error should name the file and field, got: %v", err)
		}
	})

	t.Run("missing required field fails when concrete", func(t *testing.T) {
		t.Parallel()

		_, err := ParseAndDecode[testRegistry]([]byte(testSchema), []byte(`auth_token: "t"`), "#Registry")
		if err == nil {
			t.Error("expected error for missing url")
		}
	})

	t.Run("unknown definition is an internal error", func(t *testing.T) {
		t.Parallel()

		_, err := ParseAndDecode[testRegistry]([]byte(testSchema), []byte(`url: "x"`), "#Missing")
		if err == nil || !strings.Contains(err.Error(), "internal error") {
			t.Errorf("expected internal error, got %v", err)
		}
	})

	t.Run("size limit is enforced before compiling", func(t *testing.T) {
		t.Parallel()

		data := []byte(`url: "https://registry.npmjs.org"`)
		_, err := ParseAndDecode[testRegistry]([]byte(testSchema), data, "#Registry", WithMaxFileSize(4))
		if err == nil || !strings.Contains(err.Error(), "exceeds maximum") {
			t.Errorf("expected size error, got %v", err)
		}
	})
}

func TestParseToMap(t *testing.T) {
	t.Parallel()

	schema := []byte(`
#Defaults: {
	registry?:   string
	auth_token?: string
	access?:     "public" | "restricted"
}
`)
	m, err := ParseToMap(schema, []byte(`auth_token: "t"`), "#Defaults", WithConcrete(false))
	if err != nil {
		t.Fatalf("ParseToMap() error = %v", err)
	}
	if m["auth_token"] != "t" {
		t.Errorf("auth_token = %v", m["auth_token"])
	}
	if _, ok := m["registry"]; ok {
		t.Error("unset optional fields must not appear in the map")
	}
}

func TestParseFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "registry.cue")
	if err := os.WriteFile(path, []byte(`url: 42`), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := ParseFile[testRegistry]([]byte(testSchema), path, "#Registry")
	if err == nil {
		t.Fatal("expected type error")
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("error should name the file, got: %v", err)
	}

	if _, err := ParseFile[testRegistry]([]byte(testSchema), filepath.Join(dir, "missing.cue"), "#Registry"); err == nil {
		t.Error("expected read error for a missing file")
	}
}
