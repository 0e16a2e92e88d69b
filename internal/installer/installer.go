// Package installer fetches the snailer release archive for the host platform,
// verifies it, and places the binary where the launcher shim expects it.
package installer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/felixaihub/snailer-dist/internal/checksum"
	"github.com/felixaihub/snailer-dist/internal/config"
	snailerErrors "github.com/felixaihub/snailer-dist/internal/errors"
	"github.com/felixaihub/snailer-dist/internal/github"
	"github.com/felixaihub/snailer-dist/internal/installer/download"
	"github.com/felixaihub/snailer-dist/internal/installer/extract"
	"github.com/felixaihub/snailer-dist/internal/installer/place"
	"github.com/felixaihub/snailer-dist/internal/manifest"
	"github.com/felixaihub/snailer-dist/internal/path"
	"github.com/felixaihub/snailer-dist/internal/platform"
	"github.com/felixaihub/snailer-dist/internal/release"
	"github.com/felixaihub/snailer-dist/internal/ui"
)

// EULAURL is the license users agree to by installing.
const EULAURL = "https://github.com/felixaihub/snailer-cli/blob/main/EULA.md"

// Installer steps reported through download.StageCallback.
const (
	StageResolve  = "resolve"
	StageDownload = "download"
	StageVerify   = "verify"
	StageExtract  = "extract"
	StagePlace    = "place"
)

// ReleaseResolver resolves the newest published release.
type ReleaseResolver interface {
	LatestRelease(ctx context.Context, owner, repo string) (*github.Release, error)
}

// Result describes a finished install.
type Result struct {
	Skipped     bool                `json:"skipped"`
	Coordinates release.Coordinates `json:"coordinates"`
	Asset       release.Asset       `json:"asset"`
	BinaryPath  string              `json:"binaryPath,omitempty"`
	Action      string              `json:"action,omitempty"`
	Checksum    checksum.Expected   `json:"checksum"`
}

// ReportSkipped prints the skip notice to w and returns the skipped Result.
func ReportSkipped(w io.Writer) *Result {
	ui.NewStyle().Println(w, "Skipping binary download (%s=1).", config.EnvName(config.KeySkipPostinstall))
	return &Result{Skipped: true}
}

// InstallOption configures the installation.
type InstallOption func(*Installer)

// WithPlatform overrides the detected host platform.
func WithPlatform(key platform.Key) InstallOption {
	return func(i *Installer) {
		i.platform = key
	}
}

// WithManifest sets the release manifest consulted for expected digests.
func WithManifest(m *manifest.Manifest) InstallOption {
	return func(i *Installer) {
		i.manifest = m
	}
}

// WithReleaseResolver sets the resolver used when the version is "latest".
func WithReleaseResolver(r ReleaseResolver) InstallOption {
	return func(i *Installer) {
		i.resolver = r
	}
}

// WithOutput sets where user-facing lines are written.
func WithOutput(w io.Writer) InstallOption {
	return func(i *Installer) {
		i.out = w
	}
}

// Installer runs the fetch-and-install routine.
type Installer struct {
	cfg        *config.Config
	layout     *path.Layout
	downloader download.Downloader
	manifest   *manifest.Manifest
	resolver   ReleaseResolver
	platform   platform.Key
	out        io.Writer
	style      *ui.Style
}

// New creates an Installer.
func New(cfg *config.Config, layout *path.Layout, downloader download.Downloader, opts ...InstallOption) *Installer {
	i := &Installer{
		cfg:        cfg,
		layout:     layout,
		downloader: downloader,
		platform:   platform.Detect(),
		out:        os.Stdout,
		style:      ui.NewStyle(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Install downloads, verifies, and places the release binary.
// Every failure after the asset is located is an *errors.InstallError
// carrying the manual download URL.
func (i *Installer) Install(ctx context.Context) (*Result, error) {
	if i.cfg.Skip() {
		return ReportSkipped(i.out), nil
	}

	stage := download.CallbackFromContext[download.StageCallback](ctx)
	report := func(s string) {
		if stage != nil {
			stage(s)
		}
	}

	report(StageResolve)
	coords, err := i.coordinates(ctx)
	if err != nil {
		return nil, err
	}

	triple, err := platform.Resolve(i.platform)
	if err != nil {
		return nil, err
	}

	asset := release.Locate(i.cfg.BaseURL, coords, triple, i.platform.OS)
	fail := func(action string, err error) error {
		return snailerErrors.NewInstallError(coords.Name, action, err).
			WithVersion(coords.Version).
			WithURL(asset.URL)
	}

	slog.Debug("installing release", "coordinates", coords, "triple", triple, "url", asset.URL)

	installDir := i.layout.InstallDir()
	if err := path.EnsureDir(installDir); err != nil {
		return nil, fail("prepare", err)
	}

	lock := flock.New(i.layout.LockFile())
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fail("lock", fmt.Errorf("failed to acquire lock: %w", err))
	}
	if !locked {
		return nil, snailerErrors.NewLockError(i.layout.LockFile())
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			slog.Warn("failed to release install lock", "path", i.layout.LockFile(), "error", err)
		}
	}()

	tmpDir, err := os.MkdirTemp("", "snailer-install-*")
	if err != nil {
		return nil, fail("prepare", fmt.Errorf("failed to create temp directory: %w", err))
	}
	defer os.RemoveAll(tmpDir)

	report(StageDownload)
	archivePath, err := i.downloader.Download(ctx, asset.URL, filepath.Join(tmpDir, asset.Filename))
	if err != nil {
		return nil, fail(StageDownload, err)
	}

	report(StageVerify)
	expected, err := i.expectedChecksum(ctx, coords, asset)
	if err != nil {
		return nil, fail(StageVerify, err)
	}
	if !expected.IsZero() {
		if err := checksum.Verify(archivePath, expected); err != nil {
			var checksumErr *snailerErrors.ChecksumError
			if errors.As(err, &checksumErr) {
				checksumErr.Resource = asset.Filename
				checksumErr.URL = asset.URL
			}
			return nil, fail(StageVerify, err)
		}
		slog.Debug("checksum verified", "source", expected.Source, "digest", expected.Digest)
	}

	report(StageExtract)
	stagingDir := filepath.Join(tmpDir, "extracted")
	if err := extract.ExtractFile(archivePath, asset.Kind, stagingDir); err != nil {
		return nil, fail(StageExtract, err)
	}

	report(StagePlace)
	placed, err := place.NewPlacer(installDir).Place(stagingDir, i.layout.BinaryName())
	if err != nil {
		return nil, fail(StagePlace, err)
	}

	i.style.Println(i.out, "Installed binary from %s", asset.URL)
	i.style.Println(i.out, "By installing, you agree to the Snailer EULA: %s", EULAURL)

	return &Result{
		Coordinates: coords,
		Asset:       asset,
		BinaryPath:  placed.BinaryPath,
		Action:      placed.Action.String(),
		Checksum:    expected,
	}, nil
}

// coordinates returns the configured coordinates, resolving "latest" through the release API.
func (i *Installer) coordinates(ctx context.Context) (release.Coordinates, error) {
	if !i.cfg.IsLatest() {
		return i.cfg.Coordinates(), nil
	}

	coords := release.Coordinates{Org: i.cfg.Org, Repo: i.cfg.Repo, Name: i.cfg.Name, Version: release.FallbackVersion}.Normalize()
	manual := fmt.Sprintf("%s/%s/%s/releases/latest", i.cfg.BaseURL, coords.Org, coords.Repo)

	if i.resolver == nil {
		return coords, snailerErrors.NewInstallError(coords.Name, StageResolve,
			fmt.Errorf("no release resolver configured for version %q", config.VersionLatest)).WithURL(manual)
	}

	rel, err := i.resolver.LatestRelease(ctx, coords.Org, coords.Repo)
	if err != nil {
		return coords, snailerErrors.NewInstallError(coords.Name, StageResolve, err).WithURL(manual)
	}

	version, err := config.NormalizeVersion(rel.TagName)
	if err != nil {
		return coords, snailerErrors.NewInstallError(coords.Name, StageResolve, err).WithURL(manual)
	}
	coords.Version = version

	slog.Debug("resolved latest release", "tag", rel.TagName, "coordinates", coords)
	return coords, nil
}

// expectedChecksum returns the digest the archive must match, or a zero
// Expected when no source publishes one and checksums are optional.
// Sources in order: explicit override, release manifest, sidecar file.
func (i *Installer) expectedChecksum(ctx context.Context, coords release.Coordinates, asset release.Asset) (checksum.Expected, error) {
	if i.cfg.SHA256 != "" {
		alg, digest, err := checksum.Parse(i.cfg.SHA256)
		if err != nil {
			return checksum.Expected{}, err
		}
		return checksum.Expected{Algorithm: alg, Digest: digest, Source: "env"}, nil
	}

	if i.manifest != nil {
		if expected, ok := i.manifest.Lookup(coords, asset.Triple); ok {
			return expected, nil
		}
	}

	expected, err := i.downloader.FetchChecksum(ctx, asset.ChecksumURL(), asset.Filename)
	switch {
	case err == nil:
		return expected, nil
	case !download.IsNotFound(err):
		return checksum.Expected{}, fmt.Errorf("failed to fetch checksum: %w", err)
	}

	if i.cfg.RequireChecksum {
		return checksum.Expected{}, fmt.Errorf("no checksum published for %s", asset.Filename)
	}

	slog.Warn("no checksum published, skipping verification", "file", asset.Filename)
	return checksum.Expected{}, nil
}
