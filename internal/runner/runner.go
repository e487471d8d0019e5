// Package runner executes the external tools a pipeline stage invokes. It
// captures output, maps exit codes, and optionally retries transient
// failures with exponential backoff.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/cenkalti/backoff/v4"
	log "go.arcalot.io/log/v2"
)

// Command describes a single external tool invocation.
type Command struct {
	// Argv is the program and its literal arguments.
	Argv []string
	// Dir is the working directory for the invocation. Empty means the
	// current process working directory.
	Dir string
	// Env holds additional environment variables layered over the process
	// environment.
	Env map[string]string
}

// Result holds the captured output of a finished invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner runs external commands on behalf of stage providers.
type Runner interface {
	// Run executes the command and returns its captured output. A non-zero
	// exit maps to an ErrCommandFailed wrapping the captured stderr.
	Run(ctx context.Context, cmd Command) (*Result, error)
	// RunWithRetry behaves like Run but retries failed invocations up to
	// maxRetries times with exponential backoff.
	RunWithRetry(ctx context.Context, cmd Command, maxRetries uint64) (*Result, error)
}

// New creates a runner that logs every invocation on the provided logger.
func New(logger log.Logger) Runner {
	return &commandRunner{
		logger: logger.WithLabel("source", "runner"),
	}
}

type commandRunner struct {
	logger log.Logger
}

func (r *commandRunner) Run(ctx context.Context, cmd Command) (*Result, error) {
	if len(cmd.Argv) == 0 {
		return nil, fmt.Errorf("no command provided")
	}
	r.logger.Debugf("Running %s...", strings.Join(cmd.Argv, " "))

	execCmd := exec.CommandContext(ctx, cmd.Argv[0], cmd.Argv[1:]...) //nolint:gosec
	execCmd.Dir = cmd.Dir
	execCmd.Env = mergedEnviron(cmd.Env)

	var stdout, stderr bytes.Buffer
	execCmd.Stdout = &stdout
	execCmd.Stderr = &stderr

	err := execCmd.Run()
	result := &Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, &ErrCommandFailed{
				Argv:     cmd.Argv,
				ExitCode: result.ExitCode,
				Stderr:   result.Stderr,
			}
		}
		return result, fmt.Errorf("failed to run %s (%w)", cmd.Argv[0], err)
	}
	if result.Stdout != "" {
		r.logger.Debugf("%s output:\n%s", cmd.Argv[0], result.Stdout)
	}
	return result, nil
}

func (r *commandRunner) RunWithRetry(ctx context.Context, cmd Command, maxRetries uint64) (*Result, error) {
	if maxRetries == 0 {
		return r.Run(ctx, cmd)
	}
	var result *Result
	operation := func() error {
		var err error
		result, err = r.Run(ctx, cmd)
		if err != nil {
			r.logger.Warningf("Command %s failed, retrying (%v)", cmd.Argv[0], err)
		}
		return err
	}
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries), ctx)
	if err := backoff.Retry(operation, b); err != nil {
		return result, err
	}
	return result, nil
}

// mergedEnviron layers the overlay onto the process environment in
// deterministic order.
func mergedEnviron(overlay map[string]string) []string {
	environ := os.Environ()
	if len(overlay) == 0 {
		return environ
	}
	keys := make([]string, 0, len(overlay))
	for k := range overlay {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		environ = append(environ, k+"="+overlay[k])
	}
	return environ
}

// ErrCommandFailed signals that an external tool exited non-zero.
type ErrCommandFailed struct {
	Argv     []string
	ExitCode int
	Stderr   string
}

// Error returns the error message.
func (e ErrCommandFailed) Error() string {
	msg := fmt.Sprintf("command %s exited with code %d", strings.Join(e.Argv, " "), e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + strings.TrimSpace(e.Stderr)
	}
	return msg
}
