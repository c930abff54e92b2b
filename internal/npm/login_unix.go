// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package npm

import (
	"context"
	"io"
	"os"

	"github.com/creack/pty"
	"golang.org/x/term"
)

// Login runs `npm login` attached to a pseudo-terminal so npm can prompt for
// credentials. The caller's terminal is switched to raw mode for the
// duration of the session.
func (c *Client) Login(ctx context.Context, req LoginRequest) error {
	if req.Stdin == nil {
		req.Stdin = os.Stdin
	}
	if req.Stdout == nil {
		req.Stdout = os.Stdout
	}

	cmd := c.loginCommand(req)
	ptmx, err := pty.Start(cmd)
	if err != nil {
		return loginError(cmd, err)
	}
	defer ptmx.Close()

	fd := int(req.Stdin.Fd())
	if term.IsTerminal(fd) {
		_ = pty.InheritSize(req.Stdin, ptmx)
		if state, err := term.MakeRaw(fd); err == nil {
			defer func() { _ = term.Restore(fd, state) }()
		}
	}

	go func() { _, _ = io.Copy(ptmx, req.Stdin) }()
	copied := make(chan struct{})
	go func() {
		_, _ = io.Copy(req.Stdout, ptmx)
		close(copied)
	}()

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-done
		return ctx.Err()
	case err := <-done:
		_ = ptmx.Close()
		<-copied
		if err != nil {
			return loginError(cmd, err)
		}
		return nil
	}
}
