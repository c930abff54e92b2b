// SPDX-License-Identifier: MPL-2.0

package npm

import (
	"errors"
	"io"
	"net/url"
	"os"
	"os/exec"
)

// LoginRequest describes an interactive `npm login`.
type LoginRequest struct {
	Registry *url.URL
	Stdin    *os.File
	Stdout   io.Writer
}

// LoginArgs builds the `npm login` argument list.
func LoginArgs(req LoginRequest) []string {
	args := []string{"login"}
	if req.Registry != nil {
		args = append(args, "--registry", req.Registry.String())
	}
	return args
}

func (c *Client) loginCommand(req LoginRequest) *exec.Cmd {
	argv := append(append([]string(nil), c.command[1:]...), LoginArgs(req)...)
	cmd := exec.Command(c.command[0], argv...)
	cmd.Env = os.Environ()
	return cmd
}

func loginError(cmd *exec.Cmd, err error) error {
	pe := &ProcessError{Command: Redact(cmd.Args), ExitCode: -1, Err: err}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		pe.ExitCode = exitErr.ExitCode()
	}
	return pe
}
