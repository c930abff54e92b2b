// SPDX-License-Identifier: MPL-2.0

package npm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// ErrProcessFailed is the sentinel error wrapped by ProcessError.
var ErrProcessFailed = errors.New("process failed")

type (
	// Invocation describes one external command run.
	Invocation struct {
		// Dir is the working directory.
		Dir string
		// Command is the executable followed by its leading arguments.
		Command []string
		// Args are appended to Command.
		Args []string
		// Env holds extra KEY=VALUE pairs added to the inherited environment.
		Env []string
	}

	// Invoker runs invocations and returns their combined output.
	Invoker interface {
		Invoke(ctx context.Context, inv Invocation) (string, error)
	}

	// ExecInvoker runs invocations as local processes.
	ExecInvoker struct {
		// Stdin is connected to the process when set.
		Stdin io.Reader
	}

	// ProcessError reports a command that could not start or exited non-zero.
	// It wraps ErrProcessFailed.
	ProcessError struct {
		// Command is the redacted command line.
		Command string
		// ExitCode is the process exit status, or -1 when it did not start.
		ExitCode int
		// Output is the captured combined output.
		Output string
		// Err is the underlying error when the process did not start.
		Err error
	}

	// logWriter forwards complete lines to a logger.
	logWriter struct {
		mu     sync.Mutex
		logger *log.Logger
		buf    []byte
	}
)

func (e *ProcessError) Error() string {
	if e.ExitCode < 0 {
		return fmt.Sprintf("%s: %v", e.Command, e.Err)
	}
	msg := fmt.Sprintf("%s exited with status %d", e.Command, e.ExitCode)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ":\n" + out
	}
	return msg
}

// Unwrap returns ErrProcessFailed for errors.Is() compatibility.
func (e *ProcessError) Unwrap() error { return ErrProcessFailed }

// Invoke runs inv and waits for it to finish.
func (i *ExecInvoker) Invoke(ctx context.Context, inv Invocation) (string, error) {
	if len(inv.Command) == 0 {
		return "", errors.New("empty command")
	}
	argv := append(append([]string(nil), inv.Command[1:]...), inv.Args...)
	display := Redact(append([]string{inv.Command[0]}, argv...))

	logger := log.FromContext(ctx)
	logger.Debug("exec", "cmd", display, "dir", inv.Dir)

	cmd := exec.CommandContext(ctx, inv.Command[0], argv...)
	cmd.Dir = inv.Dir
	cmd.Env = append(os.Environ(), inv.Env...)
	cmd.Stdin = i.Stdin

	var out bytes.Buffer
	stream := &logWriter{logger: logger}
	w := io.MultiWriter(&out, stream)
	cmd.Stdout = w
	cmd.Stderr = w

	err := cmd.Run()
	stream.Flush()
	if err != nil {
		pe := &ProcessError{Command: display, ExitCode: -1, Output: out.String(), Err: err}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			pe.ExitCode = exitErr.ExitCode()
		}
		return out.String(), pe
	}
	return out.String(), nil
}

func (w *logWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.emit(w.buf[:i])
		w.buf = w.buf[i+1:]
	}
	return len(p), nil
}

// Flush logs any trailing partial line.
func (w *logWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.buf) > 0 {
		w.emit(w.buf)
		w.buf = nil
	}
}

func (w *logWriter) emit(line []byte) {
	if s := strings.TrimRight(string(line), "\r"); s != "" {
		w.logger.Info(s)
	}
}
