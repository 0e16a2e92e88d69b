// Package path computes where the snailer binary lives on disk.
package path

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/felixaihub/snailer-dist/internal/platform"
)

// Layout constants.
const (
	// DefaultBinaryName is the base name of the installed binary.
	DefaultBinaryName = "snailer"

	// libexecDir sits next to the directory holding the launcher.
	libexecDir = "libexec"

	lockFileName = ".install.lock"
)

// Layout holds the install directory and binary location.
// The installer and the launcher shim share it so both agree on the path.
type Layout struct {
	installDir string
	binaryName string
	goos       platform.OS
	executable string
}

// Option is a functional option for configuring Layout.
type Option func(*Layout)

// WithInstallDir overrides the install directory.
func WithInstallDir(dir string) Option {
	return func(l *Layout) {
		l.installDir = dir
	}
}

// WithBinaryName overrides the binary base name.
func WithBinaryName(name string) Option {
	return func(l *Layout) {
		l.binaryName = name
	}
}

// WithOS sets the OS used to decide the executable suffix.
func WithOS(goos platform.OS) Option {
	return func(l *Layout) {
		l.goos = goos
	}
}

// WithExecutable sets the path the default install directory is derived from.
func WithExecutable(path string) Option {
	return func(l *Layout) {
		l.executable = path
	}
}

// New creates a Layout. Without WithInstallDir the install directory is
// <dir of the running executable>/../libexec.
func New(opts ...Option) (*Layout, error) {
	l := &Layout{
		binaryName: DefaultBinaryName,
		goos:       platform.Detect().OS,
	}

	for _, opt := range opts {
		opt(l)
	}

	if l.installDir == "" {
		exe := l.executable
		if exe == "" {
			var err error
			exe, err = os.Executable()
			if err != nil {
				return nil, fmt.Errorf("failed to locate executable: %w", err)
			}
		}
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		l.installDir = DefaultInstallDir(exe)
	}

	dir, err := Expand(l.installDir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve install directory: %w", err)
	}
	l.installDir = abs

	return l, nil
}

// DefaultInstallDir returns <dir of exe>/../libexec.
func DefaultInstallDir(exe string) string {
	return filepath.Join(filepath.Dir(exe), "..", libexecDir)
}

// InstallDir returns the install directory.
func (l *Layout) InstallDir() string {
	return l.installDir
}

// BinaryName returns the on-disk binary file name, with .exe on Windows.
func (l *Layout) BinaryName() string {
	return platform.ExecutableName(l.binaryName, l.goos)
}

// BinaryPath returns <installDir>/<binary name>.
func (l *Layout) BinaryPath() string {
	return filepath.Join(l.installDir, l.BinaryName())
}

// LockFile returns the install lock path.
func (l *Layout) LockFile() string {
	return filepath.Join(l.installDir, lockFileName)
}

// EnsureDir creates a directory if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// Expand expands ~ to the home directory.
func Expand(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[2:]), nil
	}

	if path == "~" {
		return os.UserHomeDir()
	}

	return path, nil
}
