package clients

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"

	"golang.org/x/sync/errgroup"
)

// SubprocessError is returned when a child process cannot be spawned or
// exits with a non-zero code. ExitCode is -1 when the process never ran or
// was terminated by a signal.
type SubprocessError struct {
	Command  string
	ExitCode int
	Err      error
}

func (e *SubprocessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("%s exited with code %d", e.Command, e.ExitCode)
}

func (e *SubprocessError) Unwrap() error { return e.Err }

// SubprocessRunner runs a long-lived child process to completion.
type SubprocessRunner struct {
	diag io.Writer
}

// NewSubprocessRunner returns a runner that forwards child stderr to diag.
// A nil diag forwards to os.Stderr.
func NewSubprocessRunner(diag io.Writer) *SubprocessRunner {
	if diag == nil {
		diag = os.Stderr
	}
	return &SubprocessRunner{diag: diag}
}

// Run spawns cmd and blocks until it exits. Every stderr line is written to
// the diagnostic writer as "<label> stderr: <line>"; stdout lines are logged
// at debug level. No timeout is applied and
// ctx does not kill the child; a cancelled ctx only prevents the spawn.
func (r *SubprocessRunner) Run(ctx context.Context, label string, cmd Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c := exec.Command(cmd.Name, cmd.Args...) //nolint:noctx
	stdout, err := c.StdoutPipe()
	if err != nil {
		return &SubprocessError{Command: cmd.String(), ExitCode: -1, Err: err}
	}
	stderr, err := c.StderrPipe()
	if err != nil {
		return &SubprocessError{Command: cmd.String(), ExitCode: -1, Err: err}
	}

	if err := c.Start(); err != nil {
		return &SubprocessError{Command: cmd.String(), ExitCode: -1, Err: err}
	}
	slog.InfoContext(ctx, "subprocess started", "label", label, "pid", c.Process.Pid)

	// Both pipes must be fully read before Wait closes them.
	var g errgroup.Group
	g.Go(func() error {
		return pump(stdout, func(line string) {
			slog.DebugContext(ctx, "subprocess output", "label", label, "line", line)
		})
	})
	g.Go(func() error {
		return pump(stderr, func(line string) {
			fmt.Fprintf(r.diag, "%s stderr: %s\n", label, line)
		})
	})
	if err := g.Wait(); err != nil {
		slog.WarnContext(ctx, "reading subprocess output", "label", label, "err", err)
	}

	if err := c.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &SubprocessError{Command: cmd.String(), ExitCode: exitErr.ExitCode()}
		}
		return &SubprocessError{Command: cmd.String(), ExitCode: -1, Err: err}
	}

	slog.InfoContext(ctx, "subprocess exited", "label", label, "exit_code", 0)
	return nil
}

// pump hands every line of rd to emit. On a scan error (e.g. an over-long
// line) the rest of the stream is drained so the child never blocks on a
// full pipe.
func pump(rd io.Reader, emit func(line string)) error {
	sc := bufio.NewScanner(rd)
	for sc.Scan() {
		emit(sc.Text())
	}
	if err := sc.Err(); err != nil {
		io.Copy(io.Discard, rd) //nolint:errcheck
		return err
	}
	return nil
}
