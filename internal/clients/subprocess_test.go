package clients

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubprocessRunner_ExitCodes(t *testing.T) {
	t.Parallel()

	for _, code := range []int{0, 1, 137} {
		code := code
		t.Run(fmt.Sprintf("exit %d", code), func(t *testing.T) {
			t.Parallel()

			var diag bytes.Buffer
			r := NewSubprocessRunner(&diag)

			err := r.Run(context.Background(), "settle", shell(fmt.Sprintf("exit %d", code)))

			if code == 0 {
				assert.NoError(t, err)
				return
			}
			var subErr *SubprocessError
			require.ErrorAs(t, err, &subErr)
			assert.Equal(t, code, subErr.ExitCode)
			assert.NoError(t, subErr.Err)
			assert.Contains(t, err.Error(), fmt.Sprintf("exited with code %d", code))
		})
	}
}

func TestSubprocessRunner_ForwardsStderr(t *testing.T) {
	t.Parallel()

	var diag bytes.Buffer
	r := NewSubprocessRunner(&diag)

	err := r.Run(context.Background(), "settle",
		shell(`echo "round 1 joined" >&2; echo "to stdout"; echo "round 1 settled" >&2`))

	require.NoError(t, err)
	assert.Equal(t, "settle stderr: round 1 joined\nsettle stderr: round 1 settled\n", diag.String())
}

func TestSubprocessRunner_StderrDoesNotDecideOutcome(t *testing.T) {
	t.Parallel()

	var diag bytes.Buffer
	err := NewSubprocessRunner(&diag).Run(context.Background(), "settle",
		shell(`echo "error: something scary" >&2; exit 0`))

	assert.NoError(t, err)
	assert.Contains(t, diag.String(), "something scary")
}

func TestSubprocessRunner_LongStderrLineDoesNotBlock(t *testing.T) {
	t.Parallel()

	// A line larger than the scanner buffer followed by more output.
	script := `head -c 131072 /dev/zero | tr '\0' x >&2; echo >&2; echo tail >&2; exit 0`

	var diag bytes.Buffer
	err := NewSubprocessRunner(&diag).Run(context.Background(), "settle", shell(script))

	assert.NoError(t, err)
}

func TestSubprocessRunner_DrainsStdoutAndStderrTogether(t *testing.T) {
	t.Parallel()

	// Each burst overflows a pipe buffer, so reading the streams one after
	// the other would deadlock the child.
	script := `yes out | head -n 50000; echo mid >&2; yes err | head -n 50000 >&2; echo tail >&2; yes out | head -n 50000`

	var diag bytes.Buffer
	done := make(chan error, 1)
	go func() {
		done <- NewSubprocessRunner(&diag).Run(context.Background(), "settle", shell(script))
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(30 * time.Second):
		t.Fatal("subprocess output was not drained")
	}
	assert.Contains(t, diag.String(), "settle stderr: mid\n")
	assert.Contains(t, diag.String(), "settle stderr: tail\n")
	assert.NotContains(t, diag.String(), "settle stderr: out")
}

func TestSubprocessRunner_SpawnFailure(t *testing.T) {
	t.Parallel()

	err := NewSubprocessRunner(nil).Run(context.Background(), "settle",
		Command{Name: "arkboot-no-such-binary", Args: []string{"ark", "settle"}})

	var subErr *SubprocessError
	require.ErrorAs(t, err, &subErr)
	assert.Equal(t, -1, subErr.ExitCode)
	assert.True(t, errors.Is(err, exec.ErrNotFound))
}

func TestSubprocessRunner_CancelledContextDoesNotSpawn(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var diag bytes.Buffer
	err := NewSubprocessRunner(&diag).Run(ctx, "settle", shell(`echo spawned >&2`))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, diag.String())
}
