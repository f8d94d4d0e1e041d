// Package runner executes external commands on the local host.
//
// Ownership boundary:
//   - process execution with exit-code reporting
//   - test doubles for code that drives saptune and systemctl
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
	"time"
)

// Result is the outcome of one command.
type Result struct {
	ExitCode int    `json:"exit_code"`
	Stdout   []byte `json:"-"`
	Stderr   []byte `json:"-"`
}

// Success reports a zero exit code.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// Runner abstracts command execution.
//
// A non-zero exit is reported through Result.ExitCode and is not an error.
// The error return is reserved for commands that could not be run at all.
type Runner interface {
	Run(ctx context.Context, argv []string) (Result, error)
}

// ExecRunner executes commands with os/exec.
type ExecRunner struct {
	// Timeout bounds every command. Zero means no timeout.
	Timeout time.Duration
}

// Run executes argv and waits for it to finish.
func (r ExecRunner) Run(ctx context.Context, argv []string) (Result, error) {
	if len(argv) == 0 {
		return Result{ExitCode: 127}, errors.New("empty command")
	}
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return Result{ExitCode: -1, Stdout: stdout.Bytes(), Stderr: stderr.Bytes()},
			fmt.Errorf("%s: %w", strings.Join(argv, " "), ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return Result{ExitCode: exitErr.ExitCode(), Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}, nil
	}

	exitCode := 1
	// Not found on PATH gives *exec.Error; a missing explicit path gives
	// *fs.PathError.
	var execErr *exec.Error
	if errors.As(err, &execErr) || errors.Is(err, fs.ErrNotExist) {
		exitCode = 127
	}
	return Result{ExitCode: exitCode, Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}, err
}
