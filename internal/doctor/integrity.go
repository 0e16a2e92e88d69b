package doctor

import (
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/felixaihub/snailer-dist/internal/platform"
)

// checkInstall verifies that the installed files can be launched.
func (d *Doctor) checkInstall() ([]Issue, error) {
	installDir := d.layout.InstallDir()
	if _, err := os.Stat(installDir); err != nil {
		if os.IsNotExist(err) {
			return []Issue{{Kind: IssueMissingInstallDir, Path: installDir}}, nil
		}
		return nil, err
	}

	var issues []Issue

	binIssues, err := d.checkBinary()
	if err != nil {
		return nil, err
	}
	issues = append(issues, binIssues...)

	lockIssue, err := d.checkLock()
	if err != nil {
		return nil, err
	}
	if lockIssue != nil {
		issues = append(issues, *lockIssue)
	}

	return issues, nil
}

// checkBinary checks that the binary exists and is an executable regular file.
func (d *Doctor) checkBinary() ([]Issue, error) {
	binPath := d.layout.BinaryPath()

	info, err := os.Lstat(binPath)
	if err != nil {
		if os.IsNotExist(err) {
			return []Issue{{Kind: IssueMissingBinary, Path: binPath}}, nil
		}
		return nil, err
	}

	// Check if it's a symlink and if it's broken
	if info.Mode()&os.ModeSymlink != 0 {
		target, err := os.Readlink(binPath)
		if err != nil {
			return []Issue{{Kind: IssueBrokenSymlink, Path: binPath}}, nil
		}

		targetPath := target
		if !filepath.IsAbs(target) {
			targetPath = filepath.Join(filepath.Dir(binPath), target)
		}

		info, err = os.Stat(targetPath)
		if os.IsNotExist(err) {
			return []Issue{{Kind: IssueBrokenSymlink, Path: binPath, Target: targetPath}}, nil
		}
		if err != nil {
			return nil, err
		}
	}

	if !info.Mode().IsRegular() {
		return []Issue{{Kind: IssueNotRegular, Path: binPath}}, nil
	}

	if d.goos != platform.OSWindows && info.Mode()&executableBits == 0 {
		return []Issue{{Kind: IssueNotExecutable, Path: binPath}}, nil
	}

	return nil, nil
}

// checkLock reports an installer currently holding the install lock.
func (d *Doctor) checkLock() (*Issue, error) {
	lockFile := d.layout.LockFile()
	if _, err := os.Stat(lockFile); os.IsNotExist(err) {
		return nil, nil
	}

	lock := flock.New(lockFile)
	locked, err := lock.TryRLock()
	if err != nil {
		return nil, err
	}
	if !locked {
		return &Issue{Kind: IssueInstallLocked, Path: lockFile}, nil
	}
	_ = lock.Unlock()
	return nil, nil
}
