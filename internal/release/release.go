// Package release computes the coordinates and download URL of snailer
// release assets.
package release

import (
	"fmt"
	"strings"

	"github.com/felixaihub/snailer-dist/internal/installer/extract"
	"github.com/felixaihub/snailer-dist/internal/platform"
)

// Defaults for Coordinates.
const (
	DefaultBaseURL = "https://github.com"
	DefaultOrg     = "felixaihub"
	DefaultRepo    = "snailer-cli"
	DefaultName    = "snailer"
	// FallbackVersion is used when the build carries no version.
	FallbackVersion = "v0.1.12"

	// ChecksumSuffix is appended to an asset URL to locate its sidecar digest.
	ChecksumSuffix = ".sha256"
)

// Coordinates identify a published release.
type Coordinates struct {
	Org     string `json:"org" yaml:"org"`
	Repo    string `json:"repo" yaml:"repo"`
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version" yaml:"version"`
}

// DefaultCoordinates returns the coordinates of the official release at version.
func DefaultCoordinates(version string) Coordinates {
	if version == "" {
		version = FallbackVersion
	}
	return Coordinates{
		Org:     DefaultOrg,
		Repo:    DefaultRepo,
		Name:    DefaultName,
		Version: NormalizeVersion(version),
	}
}

// Normalize fills empty fields with defaults and normalizes the version tag.
func (c Coordinates) Normalize() Coordinates {
	if c.Org == "" {
		c.Org = DefaultOrg
	}
	if c.Repo == "" {
		c.Repo = DefaultRepo
	}
	if c.Name == "" {
		c.Name = DefaultName
	}
	if c.Version == "" {
		c.Version = FallbackVersion
	}
	c.Version = NormalizeVersion(c.Version)
	return c
}

// Bare returns the version without its leading "v".
func (c Coordinates) Bare() string {
	return strings.TrimPrefix(NormalizeVersion(c.Version), "v")
}

func (c Coordinates) String() string {
	return fmt.Sprintf("%s/%s@%s", c.Org, c.Repo, c.Version)
}

// ReleaseURL is the human-facing page of the release.
func (c Coordinates) ReleaseURL(baseURL string) string {
	return fmt.Sprintf("%s/%s/%s/releases/tag/%s", trimBase(baseURL), c.Org, c.Repo, NormalizeVersion(c.Version))
}

// NormalizeVersion returns version as a tag with exactly one leading "v".
func NormalizeVersion(version string) string {
	version = strings.TrimSpace(version)
	if version == "" {
		return ""
	}
	if version[0] == 'v' || version[0] == 'V' {
		version = version[1:]
	}
	return "v" + version
}

// Asset is a single downloadable release artifact.
type Asset struct {
	URL      string              `json:"url"`
	Filename string              `json:"filename"`
	Kind     extract.ArchiveType `json:"kind"`
	Triple   platform.Triple     `json:"triple"`
}

// ChecksumURL returns the URL of the sidecar digest published next to the asset.
func (a Asset) ChecksumURL() string {
	return a.URL + ChecksumSuffix
}

// Locate computes the asset for triple as seen from hostOS: Windows hosts
// download the zip build, every other host the tar.gz build.
func Locate(baseURL string, c Coordinates, triple platform.Triple, hostOS platform.OS) Asset {
	return LocateFor(baseURL, c, triple, extract.ForOS(string(hostOS)))
}

// LocateFor computes the asset for triple packaged as kind.
func LocateFor(baseURL string, c Coordinates, triple platform.Triple, kind extract.ArchiveType) Asset {
	c = c.Normalize()
	filename := fmt.Sprintf("%s-%s-%s.%s", c.Name, c.Version, triple, kind.Extension())
	return Asset{
		URL: fmt.Sprintf("%s/%s/%s/releases/download/%s/%s",
			trimBase(baseURL), c.Org, c.Repo, c.Version, filename),
		Filename: filename,
		Kind:     kind,
		Triple:   triple,
	}
}

// PublishedKind is the archive format a release ships for triple.
func PublishedKind(triple platform.Triple) extract.ArchiveType {
	return extract.ForOS(string(triple.OS()))
}

func trimBase(baseURL string) string {
	if baseURL == "" {
		return DefaultBaseURL
	}
	return strings.TrimRight(baseURL, "/")
}
