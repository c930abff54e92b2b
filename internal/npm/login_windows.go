// SPDX-License-Identifier: MPL-2.0

//go:build windows

package npm

import (
	"context"
	"os"
)

// Login runs `npm login` on the caller's console. Windows has no
// pseudo-terminal support, so the process inherits the standard streams.
func (c *Client) Login(ctx context.Context, req LoginRequest) error {
	if req.Stdin == nil {
		req.Stdin = os.Stdin
	}
	cmd := c.loginCommand(req)
	cmd.Stdin = req.Stdin
	cmd.Stdout = req.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return loginError(cmd, err)
	}
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()
	select {
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-done
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return loginError(cmd, err)
		}
		return nil
	}
}
