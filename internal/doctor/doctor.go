// Package doctor inspects an installation for the problems that make the
// launcher report a missing binary.
package doctor

import (
	"context"
	"fmt"
	"os"

	"github.com/felixaihub/snailer-dist/internal/path"
	"github.com/felixaihub/snailer-dist/internal/platform"
)

// Doctor checks the health of a snailer installation.
type Doctor struct {
	layout   *path.Layout
	goos     platform.OS
	shimName string
	pathEnv  string
}

// Result contains the findings from a doctor check.
type Result struct {
	InstallDir string     `json:"installDir"`
	BinaryPath string     `json:"binaryPath"`
	Issues     []Issue    `json:"issues,omitempty"`
	Conflicts  []Conflict `json:"conflicts,omitempty"`
}

// Conflict represents a shim found in multiple PATH directories.
type Conflict struct {
	Name       string   `json:"name"`
	Locations  []string `json:"locations"`
	ResolvedTo string   `json:"resolvedTo"`
}

// IssueKind represents the type of installation issue.
type IssueKind string

const (
	// IssueMissingInstallDir indicates the install directory is missing.
	IssueMissingInstallDir IssueKind = "missing_install_dir"
	// IssueMissingBinary indicates the binary file is missing.
	IssueMissingBinary IssueKind = "missing_binary"
	// IssueBrokenSymlink indicates the binary is a symlink whose target does not exist.
	IssueBrokenSymlink IssueKind = "broken_symlink"
	// IssueNotRegular indicates the binary path is a directory or device.
	IssueNotRegular IssueKind = "not_regular"
	// IssueNotExecutable indicates the binary lacks execute permission.
	IssueNotExecutable IssueKind = "not_executable"
	// IssueInstallLocked indicates another installer holds the lock.
	IssueInstallLocked IssueKind = "install_locked"
)

// Issue represents an installation problem.
type Issue struct {
	Kind   IssueKind `json:"kind"`
	Path   string    `json:"path"`
	Target string    `json:"target,omitempty"`
}

// Message returns a human-readable description of the issue.
func (i Issue) Message() string {
	switch i.Kind {
	case IssueMissingInstallDir:
		return fmt.Sprintf("install directory not found at %s", i.Path)
	case IssueMissingBinary:
		return fmt.Sprintf("binary not found at %s", i.Path)
	case IssueBrokenSymlink:
		if i.Target != "" {
			return fmt.Sprintf("symlink target %s does not exist", i.Target)
		}
		return fmt.Sprintf("broken symlink at %s", i.Path)
	case IssueNotRegular:
		return fmt.Sprintf("%s is not a regular file", i.Path)
	case IssueNotExecutable:
		return fmt.Sprintf("%s is not executable", i.Path)
	case IssueInstallLocked:
		return fmt.Sprintf("an installation is in progress (%s is locked)", i.Path)
	default:
		return fmt.Sprintf("unknown issue at %s", i.Path)
	}
}

// Option configures a Doctor.
type Option func(*Doctor)

// WithOS sets the OS whose conventions the check follows.
func WithOS(goos platform.OS) Option {
	return func(d *Doctor) {
		d.goos = goos
	}
}

// WithPathEnv replaces the PATH list scanned for shim conflicts.
func WithPathEnv(pathEnv string) Option {
	return func(d *Doctor) {
		d.pathEnv = pathEnv
	}
}

// New creates a new Doctor for layout.
func New(layout *path.Layout, opts ...Option) *Doctor {
	d := &Doctor{
		layout:   layout,
		goos:     platform.Detect().OS,
		shimName: path.DefaultBinaryName,
		pathEnv:  os.Getenv("PATH"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Check performs all health checks and returns the results.
func (d *Doctor) Check(ctx context.Context) (*Result, error) {
	result := &Result{
		InstallDir: d.layout.InstallDir(),
		BinaryPath: d.layout.BinaryPath(),
	}

	// 1. Check the installed files
	issues, err := d.checkInstall()
	if err != nil {
		return nil, err
	}
	result.Issues = issues

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 2. Detect shims shadowing each other on PATH
	conflict, err := d.detectConflict()
	if err != nil {
		return nil, err
	}
	if conflict != nil {
		result.Conflicts = append(result.Conflicts, *conflict)
	}

	return result, nil
}

// HasIssues returns true if there are any issues found.
func (r *Result) HasIssues() bool {
	return len(r.Issues) > 0 || len(r.Conflicts) > 0
}
