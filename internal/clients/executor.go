package clients

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// benignMarkers identify failures meaning the target is already in the
// desired state. Such failures are reported as an empty success.
var benignMarkers = []string{"already initialized"}

// sensitiveFlags have their values masked when a Command is printed.
var sensitiveFlags = map[string]bool{
	"--password": true,
	"--mnemonic": true,
}

// Command is an external program invocation in argv form.
type Command struct {
	Name string
	Args []string
}

// String renders the command for logs with sensitive flag values masked.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Name)
	for i, a := range c.Args {
		if i > 0 && sensitiveFlags[c.Args[i-1]] {
			parts = append(parts, "****")
			continue
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

// ExecutionError is returned when a command fails and the failure is not
// benign. Stderr holds the command's diagnostic output.
type ExecutionError struct {
	Command string
	Stderr  string
	Err     error
}

func (e *ExecutionError) Error() string {
	msg := fmt.Sprintf("command %q failed: %v", e.Command, e.Err)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// Executor runs commands synchronously.
type Executor struct{}

// NewExecutor returns an Executor.
func NewExecutor() *Executor {
	return &Executor{}
}

// Execute runs cmd and returns its stdout. If the command fails with a benign
// marker on stderr, Execute returns an empty, non-nil result and no error.
// Side effects of a failed command are not rolled back.
func (e *Executor) Execute(ctx context.Context, cmd Command) ([]byte, error) {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	slog.DebugContext(ctx, "executing command", "command", cmd.String())

	if err := c.Run(); err != nil {
		if isBenign(stderr.String()) {
			slog.InfoContext(ctx, "already in desired state, continuing",
				"command", cmd.String(),
				"stderr", strings.TrimSpace(stderr.String()),
			)
			return []byte{}, nil
		}
		return nil, &ExecutionError{
			Command: cmd.String(),
			Stderr:  stderr.String(),
			Err:     err,
		}
	}

	return stdout.Bytes(), nil
}

func isBenign(diagnostics string) bool {
	for _, marker := range benignMarkers {
		if strings.Contains(diagnostics, marker) {
			return true
		}
	}
	return false
}
