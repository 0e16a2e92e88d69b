package manifest

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixaihub/snailer-dist/internal/config"
	"github.com/felixaihub/snailer-dist/internal/github"
	"github.com/felixaihub/snailer-dist/internal/installer/download"
	internalmanifest "github.com/felixaihub/snailer-dist/internal/manifest"
	"github.com/felixaihub/snailer-dist/internal/platform"
	"github.com/felixaihub/snailer-dist/internal/release"
)

type addConfig struct {
	version     string
	file        string
	org         string
	repo        string
	name        string
	baseURL     string
	apiURL      string
	triples     []string
	parallelism int
	noAPI       bool
}

var addCfg addConfig

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Record the digests of a release",
	Long: `Download every platform archive of a release, hash it, and record
the digests in the manifest file.

Digests the GitHub API already publishes for an asset are used as is.
Archives the release does not publish are skipped.`,
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVar(&addCfg.version, "version", "", "Release version to record (required)")
	addCmd.Flags().StringVarP(&addCfg.file, "file", "f", "manifest.yaml", "Manifest file to update")
	addCmd.Flags().StringVar(&addCfg.org, "org", release.DefaultOrg, "GitHub organization")
	addCmd.Flags().StringVar(&addCfg.repo, "repo", release.DefaultRepo, "GitHub repository")
	addCmd.Flags().StringVar(&addCfg.name, "name", release.DefaultName, "Asset base name")
	addCmd.Flags().StringVar(&addCfg.baseURL, "base-url", release.DefaultBaseURL, "Release host")
	addCmd.Flags().StringVar(&addCfg.apiURL, "api-url", github.DefaultAPIURL, "GitHub API endpoint")
	addCmd.Flags().StringSliceVar(&addCfg.triples, "triple", nil, "Triples to record (default: all)")
	addCmd.Flags().IntVar(&addCfg.parallelism, "parallelism", internalmanifest.DefaultParallelism, "Concurrent downloads")
	addCmd.Flags().BoolVar(&addCfg.noAPI, "no-api", false, "Do not query the GitHub API for published digests")
	_ = addCmd.MarkFlagRequired("version")
}

func runAdd(cmd *cobra.Command, _ []string) error {
	tag, err := config.NormalizeVersion(addCfg.version)
	if err != nil {
		return err
	}
	coords := release.Coordinates{Org: addCfg.org, Repo: addCfg.repo, Name: addCfg.name, Version: tag}.Normalize()

	triples := make([]platform.Triple, 0, len(addCfg.triples))
	for _, t := range addCfg.triples {
		triple, err := platform.ParseTriple(strings.TrimSpace(t))
		if err != nil {
			return err
		}
		triples = append(triples, triple)
	}

	m, err := loadOrCreate(addCfg.file)
	if err != nil {
		return err
	}

	token := config.NewLoader("").Viper().GetString(config.KeyGitHubToken)
	known := map[string]string{}
	if !addCfg.noAPI {
		known = publishedDigests(cmd, github.NewClient(github.NewHTTPClient(token, github.APITimeout), github.WithAPIURL(addCfg.apiURL)), coords)
	}

	downloader := download.NewDownloader(github.NewHTTPClient(token, 0))
	rel, err := internalmanifest.Generate(cmd.Context(), downloader, coords, internalmanifest.GenerateOptions{
		BaseURL:     addCfg.baseURL,
		Triples:     triples,
		Parallelism: addCfg.parallelism,
		Known:       known,
	})
	if err != nil {
		return err
	}

	m.Upsert(rel)
	if err := m.Save(addCfg.file); err != nil {
		return err
	}

	cmd.PrintErrf("Recorded %d digests for %s in %s\n", len(rel.Checksums), coords, addCfg.file)
	for _, triple := range rel.Triples() {
		cmd.PrintErrf("  %s  %s\n", rel.Checksums[triple], triple)
	}
	return nil
}

// loadOrCreate reads the manifest at path, or returns an empty one if the file does not exist.
func loadOrCreate(path string) (*internalmanifest.Manifest, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return &internalmanifest.Manifest{}, nil
	}
	return internalmanifest.Load(path)
}

// publishedDigests returns the asset digests listed on the GitHub release.
// API failures are logged and yield an empty map so every asset gets downloaded.
func publishedDigests(cmd *cobra.Command, client *github.Client, coords release.Coordinates) map[string]string {
	known := map[string]string{}

	rel, err := client.ReleaseByTag(cmd.Context(), coords.Org, coords.Repo, coords.Version)
	if err != nil {
		slog.Warn("failed to query release, hashing every asset", "release", coords.String(), "error", err)
		return known
	}

	for _, asset := range rel.Assets {
		if strings.HasPrefix(asset.Digest, "sha256:") {
			known[asset.Name] = asset.Digest
		}
	}
	slog.Debug("published digests", "release", coords.String(), "count", len(known))
	return known
}
