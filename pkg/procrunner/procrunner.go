// Package procrunner implements the process runner (C1, spec §4.2):
// resolve an executable on PATH, spawn it with no shell involved, and
// return a normalized completed-process record regardless of how the
// subprocess exited.
package procrunner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"time"
)

// timeoutMarker is appended to stderr when a subprocess is killed for
// exceeding its timeout, per spec §4.2.
const timeoutMarker = "\n[procrunner] timed out and was terminated\n"

// timeoutReturnCode is the synthesized returncode on timeout (spec §4.2:
// "synthesize returncode = 124" — the shell convention for timeout(1)).
const timeoutReturnCode = 124

// MissingExecutable reports that cmd[0] could not be resolved, neither as
// an absolute path nor via PATH lookup.
type MissingExecutable struct {
	Command string
}

func (e *MissingExecutable) Error() string {
	return fmt.Sprintf("procrunner: executable not found: %s", e.Command)
}

// SubprocessFailure is raised by Run when check=true and the process
// exited nonzero.
type SubprocessFailure struct {
	Command    []string
	ReturnCode int
}

func (e *SubprocessFailure) Error() string {
	return fmt.Sprintf("procrunner: command %v exited %d", e.Command, e.ReturnCode)
}

// CompletedProcess is the normalized result of a subprocess run.
type CompletedProcess struct {
	ReturnCode int
	Stdout     []byte
	Stderr     []byte
	TimedOut   bool
}

// Options configure a single Run call.
type Options struct {
	Cmd     []string
	Cwd     string
	Env     []string // "KEY=VALUE" pairs; nil means inherit nothing extra
	Timeout time.Duration
	Check   bool // raise SubprocessFailure on nonzero exit
}

// Run resolves Options.Cmd[0] on PATH (unless already absolute), spawns it
// with no shell, stdin disabled, and output captured, and returns a
// CompletedProcess. It never panics or returns a Go error for a subprocess
// that ran and exited nonzero unless Check is set.
func Run(ctx context.Context, opts Options) (*CompletedProcess, error) {
	if len(opts.Cmd) == 0 {
		return nil, &MissingExecutable{Command: ""}
	}

	resolved, err := resolveExecutable(opts.Cmd[0])
	if err != nil {
		return nil, err
	}

	runCtx := ctx
	cancel := func() {}
	if opts.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
	}
	defer cancel()

	// #nosec G204 -- resolved is looked up via exec.LookPath/absolute-path
	// check above; args are passed as a literal argv, never through a shell.
	cmd := exec.CommandContext(runCtx, resolved, opts.Cmd[1:]...)
	cmd.Dir = opts.Cwd
	cmd.Env = opts.Env
	cmd.Stdin = nil

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	result := &CompletedProcess{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}

	if opts.Timeout > 0 && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		result.TimedOut = true
		result.ReturnCode = timeoutReturnCode
		result.Stderr = append(result.Stderr, []byte(timeoutMarker)...)
		return result, nil
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		result.ReturnCode = exitErr.ExitCode()
	} else if runErr != nil {
		return nil, fmt.Errorf("procrunner: spawn %s: %w", resolved, runErr)
	}

	if opts.Check && result.ReturnCode != 0 {
		return result, &SubprocessFailure{Command: opts.Cmd, ReturnCode: result.ReturnCode}
	}
	return result, nil
}

func resolveExecutable(name string) (string, error) {
	if name == "" {
		return "", &MissingExecutable{Command: name}
	}
	if filepath.IsAbs(name) {
		return name, nil
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", &MissingExecutable{Command: name}
	}
	return path, nil
}
