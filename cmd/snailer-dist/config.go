package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixaihub/snailer-dist/internal/config"
	"github.com/felixaihub/snailer-dist/internal/path"
)

// flagKeys maps command-line flags to the config keys they override.
var flagKeys = map[string]string{
	"org":              config.KeyOrg,
	"repo":             config.KeyRepo,
	"name":             config.KeyName,
	"version":          config.KeyVersion,
	"install-dir":      config.KeyInstallDir,
	"base-url":         config.KeyBaseURL,
	"sha256":           config.KeySHA256,
	"manifest":         config.KeyManifest,
	"require-checksum": config.KeyRequireChecksum,
}

var configFile string

// addReleaseFlags registers the flags that select a release.
func addReleaseFlags(cmd *cobra.Command) {
	cmd.Flags().String("org", "", "GitHub organization publishing releases (env SNAILER_ORG)")
	cmd.Flags().String("repo", "", "GitHub repository publishing releases (env SNAILER_REPO)")
	cmd.Flags().String("name", "", "Asset base name (env SNAILER_NAME)")
	cmd.Flags().String("version", "", `Release version or "latest" (env SNAILER_VERSION)`)
	cmd.Flags().String("base-url", "", "Release host (env SNAILER_BASE_URL)")
	cmd.Flags().StringVar(&configFile, "config", "", "Optional YAML config file")
}

// loadConfig resolves settings from defaults, the config file, the
// environment, and any changed flags, in increasing precedence.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	loader := config.NewLoader(version)
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := loader.Viper().BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("failed to bind flag --%s: %w", name, err)
			}
		}
	}
	return loader.Load(configFile)
}

// newLayout returns the install layout for cfg.
func newLayout(cfg *config.Config, opts ...path.Option) (*path.Layout, error) {
	if cfg.InstallDir != "" {
		opts = append(opts, path.WithInstallDir(cfg.InstallDir))
	}
	layout, err := path.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve install layout: %w", err)
	}
	return layout, nil
}
