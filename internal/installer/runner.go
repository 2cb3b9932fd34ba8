package installer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"
)

// ErrTimeout is returned when an install command outlives its timeout.
var ErrTimeout = errors.New("install command timed out")

// ScriptRunner runs a shell script and reports its exit code. All output of
// the script goes to out. A non-nil error means the script could not be run
// to completion; a script that ran and failed reports a non-zero code with a
// nil error.
type ScriptRunner interface {
	RunScript(ctx context.Context, shell, script string, out io.Writer) (int, error)
}

// ShellRunner runs scripts as `<shell> <script>` with the parent's environment.
type ShellRunner struct {
	// WaitDelay bounds how long to wait for output pipes after the shell
	// exits or is killed. Zero means one second.
	WaitDelay time.Duration
}

// RunScript implements ScriptRunner.
func (r ShellRunner) RunScript(ctx context.Context, shell, script string, out io.Writer) (int, error) {
	cmd := exec.CommandContext(ctx, shell, script)
	cmd.Env = os.Environ()
	cmd.Stdout = out
	cmd.Stderr = out
	cmd.WaitDelay = r.WaitDelay
	if cmd.WaitDelay == 0 {
		cmd.WaitDelay = time.Second
	}

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil && err != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return -1, ErrTimeout
		}
		return -1, ctxErr
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	if err != nil {
		return -1, fmt.Errorf("failed to run %s %s: %w", shell, script, err)
	}
	return 0, nil
}
