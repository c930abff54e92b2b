// SPDX-License-Identifier: MPL-2.0

package npm

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/npmpub/npmpub/pkg/npmpublish"
)

// AuthTokenEnv carries the registry token into `npm publish`. The
// per-publish userconfig refers to it so the token stays off the command
// line and out of files.
const AuthTokenEnv = "NPMPUB_AUTH_TOKEN"

type (
	// Client runs npm subcommands through an Invoker.
	Client struct {
		invoker Invoker
		command []string
	}

	// ClientOption configures a Client.
	ClientOption func(*Client)

	// PackRequest describes one `npm pack` run.
	PackRequest struct {
		// PackageDir is the staged package directory.
		PackageDir string
		Dry        bool
	}

	// PublishRequest describes one `npm publish` run.
	PublishRequest struct {
		// PackageDir is the staged package directory.
		PackageDir string
		Registry   *url.URL
		AuthToken  string
		OTP        string
		Access     npmpublish.Access
		Dry        bool
	}
)

// WithInvoker replaces the process invoker.
func WithInvoker(inv Invoker) ClientOption {
	return func(c *Client) {
		c.invoker = inv
	}
}

// WithCommand sets the npm command words, e.g. from ParseCommand.
func WithCommand(command []string) ClientOption {
	return func(c *Client) {
		if len(command) > 0 {
			c.command = command
		}
	}
}

// NewClient returns a client running DefaultCommand as a local process.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{invoker: &ExecInvoker{}, command: []string{DefaultCommand}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Command returns the npm command words.
func (c *Client) Command() []string {
	return append([]string(nil), c.command...)
}

// Version returns the npm version reported by `npm --version`.
func (c *Client) Version(ctx context.Context, dir string) (string, error) {
	out, err := c.invoker.Invoke(ctx, Invocation{Dir: dir, Command: c.command, Args: []string{"--version"}})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Pack runs `npm pack <dir> [--dry-run]` in the parent of the package
// directory, which is where the tarball lands.
func (c *Client) Pack(ctx context.Context, req PackRequest) (string, error) {
	args := []string{"pack", req.PackageDir}
	if req.Dry {
		args = append(args, "--dry-run")
	}
	return c.invoker.Invoke(ctx, Invocation{
		Dir:     filepath.Dir(req.PackageDir),
		Command: c.command,
		Args:    args,
	})
}

// Publish runs `npm publish` from the package directory. A token is handed
// over through a temporary userconfig that reads it from AuthTokenEnv.
func (c *Client) Publish(ctx context.Context, req PublishRequest) (string, error) {
	inv := Invocation{
		Dir:     req.PackageDir,
		Command: c.command,
		Args:    PublishArgs(req),
	}
	if req.Registry != nil && req.AuthToken != "" {
		dir, err := os.MkdirTemp("", "npmpub-userconfig-")
		if err != nil {
			return "", fmt.Errorf("create npm userconfig: %w", err)
		}
		defer os.RemoveAll(dir)

		userconfig := filepath.Join(dir, ".npmrc")
		if err := os.WriteFile(userconfig, UserConfig(req.Registry, currentUserConfig()), 0o600); err != nil {
			return "", fmt.Errorf("write npm userconfig: %w", err)
		}
		inv.Args = append(inv.Args, "--userconfig", userconfig)
		inv.Env = append(inv.Env, AuthTokenEnv+"="+req.AuthToken)
	}
	return c.invoker.Invoke(ctx, inv)
}

// PublishArgs builds the `npm publish` argument list without credentials.
func PublishArgs(req PublishRequest) []string {
	args := []string{"publish", req.PackageDir}
	if req.Access != "" {
		args = append(args, "--access", string(req.Access))
	}
	if req.Registry != nil {
		args = append(args, "--registry", req.Registry.String())
	}
	if req.OTP != "" {
		args = append(args, "--otp", req.OTP)
	}
	if req.Dry {
		args = append(args, "--dry-run")
	}
	return args
}

// UserConfig returns .npmrc content that keeps base and scopes the token in
// AuthTokenEnv to registry the way .npmrc scopes it. The token line comes
// last so it wins over an entry for the same registry in base.
func UserConfig(registry *url.URL, base []byte) []byte {
	var b bytes.Buffer
	if len(base) > 0 {
		b.Write(base)
		if !bytes.HasSuffix(base, []byte("\n")) {
			b.WriteByte('\n')
		}
	}
	b.WriteString(AuthKey(registry) + "=${" + AuthTokenEnv + "}\n")
	return b.Bytes()
}

// currentUserConfig reads the userconfig npm would use on its own, so that
// proxy and CA settings survive the override. A missing file reads as empty.
func currentUserConfig() []byte {
	path := os.Getenv("NPM_CONFIG_USERCONFIG")
	if path == "" {
		path = os.Getenv("npm_config_userconfig")
	}
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		path = filepath.Join(home, ".npmrc")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	return data
}

// AuthKey returns the registry-scoped token key, e.g.
// "//registry.npmjs.org/:_authToken".
func AuthKey(registry *url.URL) string {
	path := registry.Path
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return "//" + registry.Host + path + ":_authToken"
}

// TarballName is the file name `npm pack` produces for a package:
// "@acme/lib" at 1.2.0 packs to "acme-lib-1.2.0.tgz".
func TarballName(packageName, version string) string {
	name := strings.TrimPrefix(packageName, "@")
	name = strings.ReplaceAll(name, "/", "-")
	return name + "-" + version + ".tgz"
}
