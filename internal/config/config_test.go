// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/npmpub/npmpub/internal/issue"
	"github.com/npmpub/npmpub/internal/testutil"
	"github.com/npmpub/npmpub/pkg/npmpublish"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.NpmCommand != "npm" {
		t.Errorf("NpmCommand = %q, want npm", cfg.NpmCommand)
	}
	if cfg.Defaults.Registry != npmpublish.DefaultRegistry || cfg.Defaults.Access != "public" {
		t.Errorf("Defaults = %+v", cfg.Defaults)
	}
	if cfg.UI.ColorScheme != ColorSchemeAuto || cfg.UI.Verbose {
		t.Errorf("UI = %+v", cfg.UI)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v", err)
	}
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, path, err := NewProvider().LoadWithSource(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if path != "" {
		t.Errorf("source = %q, want none", path)
	}
	if cfg.NpmCommand != DefaultNpmCommand {
		t.Errorf("NpmCommand = %q", cfg.NpmCommand)
	}
}

func TestLoad_FromConfigDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.MustWriteFile(t, ConfigFilePath(dir), `
npm_command: "node /opt/npm/bin/npm-cli.js"
defaults: {
	registry: "https://npm.example.com"
	access:   "restricted"
}
ui: verbose: true
`)

	cfg, path, err := NewProvider().LoadWithSource(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if path != ConfigFilePath(dir) {
		t.Errorf("source = %q", path)
	}
	if cfg.NpmCommand != "node /opt/npm/bin/npm-cli.js" {
		t.Errorf("NpmCommand = %q", cfg.NpmCommand)
	}
	if cfg.Defaults.Registry != "https://npm.example.com" || cfg.Defaults.Access != "restricted" {
		t.Errorf("Defaults = %+v", cfg.Defaults)
	}
	if !cfg.UI.Verbose {
		t.Error("UI.Verbose = false, want true")
	}
	if cfg.UI.ColorScheme != ColorSchemeAuto {
		t.Errorf("unset color scheme should keep its default, got %q", cfg.UI.ColorScheme)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantSub string
	}{
		{name: "bad access", content: `defaults: access: "everyone"`, wantSub: "access"},
		{name: "unknown field", content: `container_engine: "docker"`, wantSub: "container_engine"},
		{name: "syntax error", content: `ui: {`, wantSub: "config.cue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "config.cue")
			testutil.MustWriteFile(t, path, tt.content)

			_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
			if err == nil {
				t.Fatal("Load() expected error")
			}
			var ae *issue.ActionableError
			if !errors.As(err, &ae) || !ae.HasSuggestions() {
				t.Errorf("error should be actionable with suggestions, got %T", err)
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q should mention %q", err, tt.wantSub)
			}
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, err := NewProvider().Load(context.Background(), LoadOptions{
		ConfigFilePath: filepath.Join(t.TempDir(), "nope.cue"),
	})
	if err == nil || !strings.Contains(err.Error(), "config file not found") {
		t.Errorf("Load() error = %v", err)
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewProvider().Load(ctx, LoadOptions{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Cleanup(testutil.MustSetenv(t, EnvAuthToken, "env-token"))
	t.Cleanup(testutil.MustSetenv(t, EnvDry, "true"))
	t.Cleanup(testutil.MustUnsetenv(t, EnvOTP))

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Env.AuthToken != "env-token" {
		t.Errorf("Env.AuthToken = %q", cfg.Env.AuthToken)
	}
	if cfg.Env.OTP != "" {
		t.Errorf("Env.OTP = %q, want empty", cfg.Env.OTP)
	}
	if cfg.Env.Dry == nil || !*cfg.Env.Dry {
		t.Errorf("Env.Dry = %v, want true", cfg.Env.Dry)
	}
}

func TestPrecedence(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Defaults.AuthToken = "user-token"
	cfg.Defaults.Registry = "https://user.example.com"
	dry := false
	cfg.Env = EnvOverrides{AuthToken: "env-token", Dry: &dry}

	d := npmpublish.NewDefaults()
	d.Dry = true
	cfg.ApplyDefaults(d)
	if d.AuthToken != "user-token" || d.Registry != "https://user.example.com" {
		t.Errorf("after user config: %+v", d)
	}

	d.AuthToken = "project-token"
	cfg.Env.Apply(d)
	if d.AuthToken != "env-token" {
		t.Errorf("env should win over project defaults, got %q", d.AuthToken)
	}
	if d.Dry {
		t.Error("NPMPUB_DRY=false should disable dry-run")
	}
}

func TestCreateDefaultConfig_RoundTrips(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path, err := CreateDefaultConfig(dir)
	if err != nil {
		t.Fatalf("CreateDefaultConfig() error = %v", err)
	}
	content := testutil.MustReadFile(t, path)

	// A second call keeps the existing file.
	testutil.MustWriteFile(t, path, content+"\n// edited\n")
	if _, err := CreateDefaultConfig(dir); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(testutil.MustReadFile(t, path), "// edited") {
		t.Error("CreateDefaultConfig() overwrote an existing file")
	}

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}
	want := DefaultConfig()
	if cfg.NpmCommand != want.NpmCommand || cfg.Defaults != want.Defaults || cfg.UI != want.UI {
		t.Errorf("round trip = %+v, want %+v", cfg, want)
	}
}

func TestConfigDirOverride(t *testing.T) {
	SetConfigDirOverride("/tmp/npmpub-test")
	t.Cleanup(Reset)

	dir, err := ConfigDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != "/tmp/npmpub-test" {
		t.Errorf("ConfigDir() = %q", dir)
	}
}

func TestColorScheme_Validate(t *testing.T) {
	t.Parallel()

	for _, cs := range []ColorScheme{ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight} {
		if err := cs.Validate(); err != nil {
			t.Errorf("%q.Validate() = %v", cs, err)
		}
	}
	if err := ColorScheme("neon").Validate(); !errors.Is(err, ErrInvalidColorScheme) {
		t.Errorf("Validate() = %v, want ErrInvalidColorScheme", err)
	}
}
