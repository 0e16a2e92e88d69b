// Package place moves an extracted release into the install directory.
package place

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/felixaihub/snailer-dist/internal/checksum"
)

// ExecutableMode is applied to the placed binary on non-Windows hosts.
const ExecutableMode fs.FileMode = 0755

// Result describes a placed release.
type Result struct {
	BinaryPath string
	Action     ValidateAction
	// Files lists install-dir relative paths copied from the archive.
	Files []string
}

// ValidateAction represents the action to take for an existing binary.
type ValidateAction int

const (
	ValidateActionInstall ValidateAction = iota // no binary yet
	ValidateActionSkip                          // existing binary is identical
	ValidateActionReplace                       // existing binary differs
)

func (a ValidateAction) String() string {
	switch a {
	case ValidateActionInstall:
		return "install"
	case ValidateActionSkip:
		return "skip"
	case ValidateActionReplace:
		return "replace"
	default:
		return "unknown"
	}
}

// Placer places extracted archives into an install directory.
type Placer interface {
	// Validate compares the installed binary with a candidate at srcPath.
	Validate(binaryName, srcPath string) (ValidateAction, error)

	// Place mirrors srcDir into the install directory and guarantees the
	// binary ends up at <installDir>/<binaryName>, executable.
	Place(srcDir, binaryName string) (*Result, error)

	// Cleanup removes a file or directory.
	// Does not return error if path does not exist.
	Cleanup(path string) error
}

type filePlacer struct {
	installDir string
	goos       string
}

// NewPlacer creates a Placer targeting installDir on the running host.
func NewPlacer(installDir string) Placer {
	return &filePlacer{installDir: installDir, goos: runtime.GOOS}
}

func (p *filePlacer) Validate(binaryName, srcPath string) (ValidateAction, error) {
	dest := filepath.Join(p.installDir, binaryName)

	if _, err := os.Stat(dest); os.IsNotExist(err) {
		return ValidateActionInstall, nil
	}

	current, err := checksum.Calculate(dest, checksum.AlgorithmSHA256)
	if err != nil {
		return 0, fmt.Errorf("failed to hash installed binary: %w", err)
	}
	candidate, err := checksum.Calculate(srcPath, checksum.AlgorithmSHA256)
	if err != nil {
		return 0, fmt.Errorf("failed to hash extracted binary: %w", err)
	}

	if current == candidate {
		slog.Debug("installed binary is up to date", "path", dest)
		return ValidateActionSkip, nil
	}
	slog.Debug("installed binary differs", "path", dest, "current", current, "candidate", candidate)
	return ValidateActionReplace, nil
}

func (p *filePlacer) Place(srcDir, binaryName string) (*Result, error) {
	slog.Debug("placing release", "src", srcDir, "dest", p.installDir, "binary", binaryName)

	srcBinary, err := findBinary(srcDir, binaryName)
	if err != nil {
		return nil, err
	}

	action, err := p.Validate(binaryName, srcBinary)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(p.installDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create install directory: %w", err)
	}

	result := &Result{BinaryPath: filepath.Join(p.installDir, binaryName), Action: action}

	err = filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path == srcBinary || !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		dst := filepath.Join(p.installDir, rel)
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return err
		}
		if err := copyFile(path, dst); err != nil {
			return err
		}
		result.Files = append(result.Files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to copy release files: %w", err)
	}

	if action != ValidateActionSkip {
		if err := copyFile(srcBinary, result.BinaryPath); err != nil {
			return nil, fmt.Errorf("failed to copy binary: %w", err)
		}
	}
	result.Files = append(result.Files, binaryName)

	if p.goos != "windows" {
		if err := os.Chmod(result.BinaryPath, ExecutableMode); err != nil {
			return nil, fmt.Errorf("failed to make binary executable: %w", err)
		}
	}

	slog.Debug("binary placed", "path", result.BinaryPath, "action", action)
	return result, nil
}

func (p *filePlacer) Cleanup(path string) error {
	slog.Debug("cleaning up", "path", path)

	if err := os.RemoveAll(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to cleanup: %w", err)
	}

	return nil
}

// findBinary searches srcDir for binaryName, preferring the shallowest match.
func findBinary(srcDir, binaryName string) (string, error) {
	var found string
	depth := -1

	err := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || d.Name() != binaryName {
			return nil
		}
		rel, _ := filepath.Rel(srcDir, path)
		if n := strings.Count(filepath.ToSlash(rel), "/"); depth < 0 || n < depth {
			found, depth = path, n
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to search for binary: %w", err)
	}

	if found == "" {
		return "", fmt.Errorf("binary not found in archive: %s", binaryName)
	}

	return found, nil
}

// copyFile copies src over dst through a temporary sibling, preserving permissions.
func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return err
	}

	tmp := dst + ".new"
	dstFile, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, srcInfo.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		dstFile.Close()
		os.Remove(tmp)
		return err
	}
	if err := dstFile.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, dst)
}
