package ffmpeg

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
)

// DefaultBinary is the encoder looked up on PATH when none is configured.
const DefaultBinary = "ffmpeg"

// Invocation is a single encoder run.
type Invocation struct {
	// Args excludes the binary itself.
	Args []string
	// LogPath receives the combined output when non-empty. It is truncated first.
	LogPath string
}

// Runner executes encoder invocations to completion.
type Runner interface {
	Run(ctx context.Context, inv Invocation) error
}

// ExecRunner runs the encoder as a child process.
type ExecRunner struct {
	binary  string
	console io.Writer
	logger  *slog.Logger
}

// NewExecRunner creates a runner for binary. A nil console discards the live
// output; the log file is still written.
func NewExecRunner(binary string, console io.Writer, logger *slog.Logger) *ExecRunner {
	if binary == "" {
		binary = DefaultBinary
	}
	if console == nil {
		console = io.Discard
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &ExecRunner{binary: binary, console: console, logger: logger}
}

// Binary returns the configured encoder path.
func (r *ExecRunner) Binary() string {
	return r.binary
}

// Run starts the encoder and waits for it to exit.
func (r *ExecRunner) Run(ctx context.Context, inv Invocation) error {
	r.logger.Debug("running encoder", "binary", r.binary, "args", inv.Args, "log", inv.LogPath)

	out := r.console
	if inv.LogPath != "" {
		if err := os.MkdirAll(filepath.Dir(inv.LogPath), 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.Create(inv.LogPath)
		if err != nil {
			return fmt.Errorf("failed to create log file: %w", err)
		}
		defer f.Close()
		out = io.MultiWriter(r.console, f)
	}

	cmd := exec.CommandContext(ctx, r.binary, inv.Args...)
	// Same writer for both streams, so exec serialises the writes.
	cmd.Stdout = out
	cmd.Stderr = out

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w", filepath.Base(r.binary), err)
	}
	return nil
}
