// Package manifest maintains the release manifest: a YAML table of published
// releases and the sha256 digest of every platform archive they ship.
package manifest

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"
	"golang.org/x/mod/semver"

	"github.com/felixaihub/snailer-dist/internal/checksum"
	"github.com/felixaihub/snailer-dist/internal/platform"
	"github.com/felixaihub/snailer-dist/internal/release"
)

//go:embed default.yaml
var defaultManifest []byte

// Manifest lists releases, newest first.
type Manifest struct {
	Releases []Release `yaml:"releases"`
}

// Release is one published version and its per-triple digests.
type Release struct {
	Org       string                     `yaml:"org"`
	Repo      string                     `yaml:"repo"`
	Name      string                     `yaml:"name"`
	Version   string                     `yaml:"version"`
	Checksums map[platform.Triple]string `yaml:"checksums"`
}

// NewRelease creates an empty Release for coords.
func NewRelease(coords release.Coordinates) Release {
	coords = coords.Normalize()
	return Release{
		Org:       coords.Org,
		Repo:      coords.Repo,
		Name:      coords.Name,
		Version:   coords.Version,
		Checksums: map[platform.Triple]string{},
	}
}

// Coordinates returns the release coordinates.
func (r Release) Coordinates() release.Coordinates {
	return release.Coordinates{Org: r.Org, Repo: r.Repo, Name: r.Name, Version: r.Version}.Normalize()
}

// Checksum returns the expected digest of the archive for triple.
func (r Release) Checksum(triple platform.Triple) (checksum.Expected, bool) {
	digest, ok := r.Checksums[triple]
	if !ok || digest == "" {
		return checksum.Expected{}, false
	}
	return checksum.Expected{
		Algorithm: checksum.AlgorithmSHA256,
		Digest:    checksum.Digest(strings.ToLower(digest)),
		Source:    "manifest",
	}, true
}

// Triples returns the triples with a recorded digest, in platform.All order.
func (r Release) Triples() []platform.Triple {
	var out []platform.Triple
	for _, t := range platform.All() {
		if _, ok := r.Checksum(t); ok {
			out = append(out, t)
		}
	}
	return out
}

func (r Release) sameCoordinates(c release.Coordinates) bool {
	rc := r.Coordinates()
	c = c.Normalize()
	return rc == c
}

// Default returns the manifest embedded at build time.
func Default() (*Manifest, error) {
	m, err := Parse(defaultManifest)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded manifest: %w", err)
	}
	return m, nil
}

// Load reads the manifest at path, or the embedded default when path is empty.
func Load(path string) (*Manifest, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return m, nil
}

// Parse decodes and validates a manifest document.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}

	for i := range m.Releases {
		r := &m.Releases[i]
		coords := r.Coordinates()
		if !semver.IsValid(coords.Version) {
			return nil, fmt.Errorf("release %d: invalid version %q", i, r.Version)
		}
		r.Org, r.Repo, r.Name, r.Version = coords.Org, coords.Repo, coords.Name, coords.Version
		if r.Checksums == nil {
			r.Checksums = map[platform.Triple]string{}
		}

		for triple, digest := range r.Checksums {
			if triple.OS() == "" {
				return nil, fmt.Errorf("release %s: unknown triple %q", coords, triple)
			}
			alg, normalized, err := checksum.Parse(digest)
			if err != nil {
				return nil, fmt.Errorf("release %s: %s: %w", coords, triple, err)
			}
			if alg != checksum.AlgorithmSHA256 {
				return nil, fmt.Errorf("release %s: %s: expected a sha256 digest", coords, triple)
			}
			r.Checksums[triple] = string(normalized)
		}
	}

	m.sort()
	return &m, nil
}

// Marshal encodes the manifest as YAML.
func (m *Manifest) Marshal() ([]byte, error) {
	m.sort()
	return yaml.Marshal(m)
}

// Save writes the manifest to path atomically.
func (m *Manifest) Save(path string) error {
	data, err := m.Marshal()
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// Find returns the release matching coords.
func (m *Manifest) Find(coords release.Coordinates) (Release, bool) {
	for _, r := range m.Releases {
		if r.sameCoordinates(coords) {
			return r, true
		}
	}
	return Release{}, false
}

// Lookup returns the digest recorded for coords and triple.
func (m *Manifest) Lookup(coords release.Coordinates, triple platform.Triple) (checksum.Expected, bool) {
	r, ok := m.Find(coords)
	if !ok {
		return checksum.Expected{}, false
	}
	return r.Checksum(triple)
}

// Upsert adds r, replacing any release with the same coordinates.
func (m *Manifest) Upsert(r Release) {
	coords := r.Coordinates()
	r.Org, r.Repo, r.Name, r.Version = coords.Org, coords.Repo, coords.Name, coords.Version

	m.Releases = slices.DeleteFunc(m.Releases, func(existing Release) bool {
		return existing.sameCoordinates(coords)
	})
	m.Releases = append(m.Releases, r)
	m.sort()
}

// Latest returns the newest release of org/repo.
func (m *Manifest) Latest(org, repo string) (Release, bool) {
	m.sort()
	for _, r := range m.Releases {
		if r.Org == org && r.Repo == repo {
			return r, true
		}
	}
	return Release{}, false
}

// sort orders releases newest first; ties fall back to org, repo, name.
func (m *Manifest) sort() {
	slices.SortStableFunc(m.Releases, func(a, b Release) int {
		if c := semver.Compare(b.Version, a.Version); c != 0 {
			return c
		}
		return strings.Compare(a.Org+"/"+a.Repo+"/"+a.Name, b.Org+"/"+b.Repo+"/"+b.Name)
	})
}
