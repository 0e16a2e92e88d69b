// Package launcher runs the installed snailer binary on behalf of the shim
// that package managers put on PATH.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	snailerErrors "github.com/felixaihub/snailer-dist/internal/errors"
	"github.com/felixaihub/snailer-dist/internal/path"
)

// MessagePrefix starts every line the launcher writes itself.
const MessagePrefix = "[snailer] "

// ExitFailure is returned when the binary is missing or cannot be started.
const ExitFailure = 1

// Launcher execs the installed binary with the caller's arguments and stdio.
type Launcher struct {
	layout *path.Layout
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// Option configures a Launcher.
type Option func(*Launcher)

// WithStdio replaces the streams handed to the child.
func WithStdio(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(l *Launcher) {
		l.stdin = stdin
		l.stdout = stdout
		l.stderr = stderr
	}
}

// New creates a Launcher for the binary described by layout.
func New(layout *path.Layout, opts ...Option) *Launcher {
	l := &Launcher{
		layout: layout,
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run starts the binary with args and returns the exit status the shim
// should terminate with: the child's own code, 128+N when the child was
// killed by signal N, or ExitFailure when it could not be started.
// Run never downloads anything; a missing binary is reported and left alone.
func (l *Launcher) Run(ctx context.Context, args []string) int {
	bin := l.layout.BinaryPath()

	if err := l.check(bin); err != nil {
		slog.Debug("binary not runnable", "path", bin, "error", err)
		var launchErr *snailerErrors.LaunchError
		if errors.As(err, &launchErr) {
			fmt.Fprintln(l.stderr, MessagePrefix+launchErr.Base.Message)
		} else {
			fmt.Fprintf(l.stderr, "%s%v\n", MessagePrefix, err)
		}
		return ExitFailure
	}

	slog.Debug("launching binary", "path", bin, "args", args)

	cmd := exec.Command(bin, args...)
	cmd.Stdin = l.stdin
	cmd.Stdout = l.stdout
	cmd.Stderr = l.stderr

	// Take over SIGINT/SIGTERM before the child exists so the shim outlives it.
	sigCh := make(chan os.Signal, 4)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	if err := cmd.Start(); err != nil {
		fmt.Fprintf(l.stderr, "%sfailed to start %s: %v\n", MessagePrefix, bin, err)
		return ExitFailure
	}

	done := make(chan struct{})
	defer close(done)
	go l.relay(ctx, cmd.Process, sigCh, done)

	err := cmd.Wait()
	if cmd.ProcessState == nil {
		fmt.Fprintf(l.stderr, "%sfailed to wait for %s: %v\n", MessagePrefix, bin, err)
		return ExitFailure
	}

	code := ExitCode(cmd.ProcessState)
	slog.Debug("binary exited", "path", bin, "code", code)
	return code
}

func (l *Launcher) check(bin string) error {
	info, err := os.Stat(bin)
	if err != nil {
		if os.IsNotExist(err) {
			return snailerErrors.NewBinaryMissingError(bin)
		}
		return fmt.Errorf("failed to stat %s: %w", bin, err)
	}
	if info.IsDir() {
		return snailerErrors.NewBinaryMissingError(bin)
	}
	return nil
}

// relay forwards received signals to the child and kills it when ctx ends.
func (l *Launcher) relay(ctx context.Context, proc *os.Process, sigCh <-chan os.Signal, done <-chan struct{}) {
	for {
		select {
		case sig := <-sigCh:
			if !shouldRelay(sig) {
				slog.Debug("child receives signal from the terminal", "signal", sig)
				continue
			}
			slog.Debug("forwarding signal", "signal", sig)
			_ = proc.Signal(sig)
		case <-ctx.Done():
			_ = proc.Kill()
			return
		case <-done:
			return
		}
	}
}

// shouldRelay reports whether sig must be forwarded to the child.
// The child shares the shim's process group, so a terminal Ctrl-C already
// reaches it; relaying SIGINT as well would deliver it twice.
func shouldRelay(sig os.Signal) bool {
	return sig != os.Interrupt
}

// ExitCode converts a finished process state to a shell-style exit status.
func ExitCode(state *os.ProcessState) int {
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	if code := state.ExitCode(); code >= 0 {
		return code
	}
	return ExitFailure
}
