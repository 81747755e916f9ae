package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// Result is the captured outcome of one shell command.
type Result struct {
	OK        bool
	ExitCode  int
	Stdout    string
	Stderr    string
	Truncated bool
	// Err is set when the process could not be spawned or was killed by the
	// timeout. Nonzero exits leave it nil.
	Err error
}

// Reply renders the result the way it is relayed back to the user.
func (r Result) Reply() string {
	switch {
	case r.Err != nil:
		return fmt.Sprintf("Failed to execute command: %v", r.Err)
	case r.OK:
		return r.Stdout
	default:
		return "Error: " + r.Stderr
	}
}

// Runner executes commands with `sh -c` in a fixed working directory.
type Runner struct {
	Dir     string
	Timeout time.Duration
	Limits  Limits
}

func NewRunner(dir string, timeout time.Duration, limits Limits) *Runner {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if limits.MaxLines <= 0 {
		limits.MaxLines = 2000
	}
	if limits.MaxBytes <= 0 {
		limits.MaxBytes = 51200
	}
	return &Runner{
		Dir:     dir,
		Timeout: timeout,
		Limits:  limits,
	}
}

// Run executes command synchronously and captures stdout and stderr.
func (r *Runner) Run(ctx context.Context, command string) Result {
	runCtx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "sh", "-c", command)
	cmd.Dir = r.Dir
	cmd.WaitDelay = time.Second

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	outText, truncLinesOut, truncBytesOut := ApplyOutputLimits(stdout.String(), r.Limits)
	errText, truncLinesErr, truncBytesErr := ApplyOutputLimits(stderr.String(), r.Limits)
	result := Result{
		OK:        runErr == nil,
		Stdout:    outText,
		Stderr:    errText,
		Truncated: truncLinesOut || truncBytesOut || truncLinesErr || truncBytesErr,
	}
	if runErr == nil {
		return result
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		result.ExitCode = -1
		result.Err = fmt.Errorf("command timed out after %s", r.Timeout)
		return result
	}
	if ctx.Err() != nil {
		result.ExitCode = -1
		result.Err = fmt.Errorf("command cancelled: %w", ctx.Err())
		return result
	}
	var ee *exec.ExitError
	if errors.As(runErr, &ee) {
		result.ExitCode = ee.ExitCode()
		return result
	}
	result.ExitCode = -1
	result.Err = runErr
	return result
}
