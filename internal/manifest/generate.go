package manifest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/felixaihub/snailer-dist/internal/checksum"
	"github.com/felixaihub/snailer-dist/internal/installer/download"
	"github.com/felixaihub/snailer-dist/internal/platform"
	"github.com/felixaihub/snailer-dist/internal/release"
)

// DefaultParallelism bounds concurrent asset downloads in Generate.
const DefaultParallelism = 3

// GenerateOptions configures Generate.
type GenerateOptions struct {
	// BaseURL is the release host; empty means release.DefaultBaseURL.
	BaseURL string
	// Triples to record; empty means platform.All().
	Triples []platform.Triple
	// Parallelism bounds concurrent downloads; zero means DefaultParallelism.
	Parallelism int
	// Known maps asset filenames to digests already published by the
	// release host ("sha256:<hex>"). Listed assets are not downloaded.
	Known map[string]string
}

// Generate builds a Release for coords by downloading each platform archive
// and hashing it. Assets the release does not publish (HTTP 404) are skipped.
func Generate(ctx context.Context, d download.Downloader, coords release.Coordinates, opts GenerateOptions) (Release, error) {
	coords = coords.Normalize()
	triples := opts.Triples
	if len(triples) == 0 {
		triples = platform.All()
	}
	for _, triple := range triples {
		if _, err := platform.ParseTriple(string(triple)); err != nil {
			return Release{}, err
		}
	}
	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = DefaultParallelism
	}

	tmpDir, err := os.MkdirTemp("", "snailer-manifest-*")
	if err != nil {
		return Release{}, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	out := NewRelease(coords)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)

	for _, triple := range triples {
		asset := release.LocateFor(opts.BaseURL, coords, triple, release.PublishedKind(triple))

		g.Go(func() error {
			digest, found, err := assetDigest(gctx, d, asset, tmpDir, opts.Known)
			if err != nil {
				return err
			}
			if !found {
				slog.Info("release does not publish asset, skipping", "asset", asset.Filename)
				return nil
			}

			mu.Lock()
			out.Checksums[triple] = string(digest)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Release{}, err
	}

	if len(out.Checksums) == 0 {
		return Release{}, fmt.Errorf("no assets found for %s", coords)
	}

	return out, nil
}

func assetDigest(ctx context.Context, d download.Downloader, asset release.Asset, tmpDir string, known map[string]string) (checksum.Digest, bool, error) {
	if value, ok := known[asset.Filename]; ok {
		alg, digest, err := checksum.Parse(value)
		if err == nil && alg == checksum.AlgorithmSHA256 {
			slog.Debug("using published digest", "asset", asset.Filename)
			return digest, true, nil
		}
		slog.Debug("ignoring unusable published digest", "asset", asset.Filename, "value", value)
	}

	path, err := d.Download(ctx, asset.URL, filepath.Join(tmpDir, asset.Filename))
	if err != nil {
		if download.IsNotFound(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to download %s: %w", asset.Filename, err)
	}
	defer os.Remove(path)

	digest, err := checksum.Calculate(path, checksum.AlgorithmSHA256)
	if err != nil {
		return "", false, err
	}
	return digest, true, nil
}
