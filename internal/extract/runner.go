// Package extract runs the external conversation extraction tool
// (claude-extract) that renders the current session to an export file.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	// DefaultCommand is the extraction tool looked up on PATH.
	DefaultCommand = "claude-extract"

	// DefaultTimeout bounds each invocation of the tool.
	DefaultTimeout = 120 * time.Second

	// maxStderrBytes caps captured stderr; the version list sits near the top.
	maxStderrBytes = 64 << 10

	// waitDelay bounds how long Wait blocks on inherited pipes after a kill.
	waitDelay = 2 * time.Second
)

// ErrNotFound is returned when the tool cannot be resolved on PATH.
var ErrNotFound = errors.New("claude-extract not found. Install with: pip install claude-conversation-extractor")

// ErrTimeout is returned when an invocation exceeds the timeout.
var ErrTimeout = errors.New("claude-extract timed out")

// ExitError reports a non-zero exit from the tool.
type ExitError struct {
	Command string
	Code    int
	Stderr  string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Command, strings.TrimSpace(e.Stderr))
}

// Request describes one extraction.
type Request struct {
	Format    string
	OutputDir string
	Detailed  bool
}

// Args returns the tool arguments: the single most recent conversation in
// the requested format, written to OutputDir.
func (r Request) Args() []string {
	args := []string{
		"--extract", "1",
		"--format", r.Format,
		"--output", r.OutputDir,
	}
	if r.Detailed {
		args = append(args, "--detailed")
	}
	return args
}

// Result describes a successful extraction.
type Result struct {
	Stdout        string
	Attempts      int
	PinnedVersion string
}

// Runner invokes the extraction tool.
type Runner struct {
	name    string
	path    string
	timeout time.Duration
	environ func() []string
	logger  *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithTimeout sets the per-invocation timeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithEnviron replaces the source of the ambient environment.
func WithEnviron(environ func() []string) Option {
	return func(r *Runner) {
		if environ != nil {
			r.environ = environ
		}
	}
}

// WithLogger sets the logger that records retries.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRunner resolves command on PATH. Returns an error wrapping ErrNotFound
// when the tool is missing.
func NewRunner(command string, opts ...Option) (*Runner, error) {
	if strings.TrimSpace(command) == "" {
		command = DefaultCommand
	}
	path, err := exec.LookPath(command)
	if err != nil {
		return nil, fmt.Errorf("%w (%s: %v)", ErrNotFound, command, err)
	}

	r := &Runner{
		name:    filepath.Base(command),
		path:    path,
		timeout: DefaultTimeout,
		environ: os.Environ,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Path returns the resolved executable path.
func (r *Runner) Path() string {
	return r.path
}

// Run executes the tool once. When it fails because the command only exists
// under other runtime versions, Run retries once with the first of those
// versions pinned.
func (r *Runner) Run(ctx context.Context, req Request) (Result, error) {
	env := FilterEnv(r.environ())
	args := req.Args()

	var res Result
	operation := func() error {
		res.Attempts++
		stdout, err := r.runOnce(ctx, args, env)
		if err == nil {
			res.Stdout = stdout
			return nil
		}

		var exitErr *ExitError
		if res.Attempts == 1 && errors.As(err, &exitErr) {
			if versions := ParseAvailableVersions(exitErr.Stderr); len(versions) > 0 {
				res.PinnedVersion = versions[0]
				env = append(FilterEnv(env), versionPinVar+"="+versions[0])
				r.logger.Info(fmt.Sprintf("Retrying with %s=%s", versionPinVar, versions[0]))
				return err
			}
		}
		return backoff.Permanent(err)
	}

	b := backoff.WithContext(backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 1), ctx)
	if err := backoff.Retry(operation, b); err != nil {
		return res, err
	}
	return res, nil
}

func (r *Runner) runOnce(ctx context.Context, args, env []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("context expired before exec: %w", err)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(attemptCtx, r.path, args...) //nolint:gosec // G204: path resolved via LookPath at construction
	cmd.Env = env
	cmd.WaitDelay = waitDelay

	var stdout bytes.Buffer
	stderrW := &limitedWriter{maxBytes: maxStderrBytes}
	cmd.Stdout = &stdout
	cmd.Stderr = stderrW

	if err := cmd.Run(); err != nil {
		if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			return "", ErrTimeout
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", &ExitError{Command: r.name, Code: exitErr.ExitCode(), Stderr: stderrW.buf.String()}
		}
		return "", fmt.Errorf("run %s: %w", r.name, err)
	}
	return stdout.String(), nil
}

// limitedWriter caps writes at maxBytes, silently discarding overflow.
type limitedWriter struct {
	buf      bytes.Buffer
	maxBytes int
}

func (w *limitedWriter) Write(p []byte) (int, error) {
	originalLen := len(p)
	remaining := w.maxBytes - w.buf.Len()
	if remaining <= 0 {
		return originalLen, nil
	}
	if len(p) > remaining {
		p = p[:remaining]
	}
	w.buf.Write(p)
	return originalLen, nil
}
