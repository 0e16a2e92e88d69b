package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixaihub/snailer-dist/internal/config"
	"github.com/felixaihub/snailer-dist/internal/formula"
	"github.com/felixaihub/snailer-dist/internal/manifest"
	"github.com/felixaihub/snailer-dist/internal/release"
)

type formulaConfig struct {
	version  string
	manifest string
	file     string
	baseURL  string
	desc     string
	homepage string
}

var formulaCfg formulaConfig

var formulaCmd = &cobra.Command{
	Use:   "formula",
	Short: "Render the Homebrew formula",
	Long: `Render the Homebrew formula for a release recorded in the manifest.

Without --version the newest release of felixaihub/snailer-cli is used.
Platforms without a recorded digest are left out of the formula.`,
	RunE: runFormula,
}

func init() {
	formulaCmd.Flags().StringVar(&formulaCfg.version, "version", "", "Release version (default: newest in manifest)")
	formulaCmd.Flags().StringVar(&formulaCfg.manifest, "manifest", "", "Release manifest file (default: embedded)")
	formulaCmd.Flags().StringVarP(&formulaCfg.file, "file", "f", "", "Write the formula to this file instead of stdout")
	formulaCmd.Flags().StringVar(&formulaCfg.baseURL, "base-url", release.DefaultBaseURL, "Release host")
	formulaCmd.Flags().StringVar(&formulaCfg.desc, "desc", formula.DefaultDesc, "Formula description")
	formulaCmd.Flags().StringVar(&formulaCfg.homepage, "homepage", "", "Formula homepage (default: repository URL)")
}

func runFormula(cmd *cobra.Command, _ []string) error {
	m, err := manifest.Load(formulaCfg.manifest)
	if err != nil {
		return err
	}

	rel, err := selectRelease(m, formulaCfg.version)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	err = formula.Render(&buf, rel, formula.Options{
		BaseURL:  formulaCfg.baseURL,
		Desc:     formulaCfg.desc,
		Homepage: formulaCfg.homepage,
	})
	if err != nil {
		return err
	}

	if formulaCfg.file == "" {
		_, err := cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(formulaCfg.file, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write formula: %w", err)
	}
	cmd.PrintErrln("Formula written to", formulaCfg.file)
	return nil
}

// selectRelease finds the release at version, or the newest one when version is empty.
func selectRelease(m *manifest.Manifest, version string) (manifest.Release, error) {
	if version == "" || version == config.VersionLatest {
		rel, ok := m.Latest(release.DefaultOrg, release.DefaultRepo)
		if !ok {
			return manifest.Release{}, fmt.Errorf("manifest has no release of %s/%s", release.DefaultOrg, release.DefaultRepo)
		}
		return rel, nil
	}

	tag, err := config.NormalizeVersion(version)
	if err != nil {
		return manifest.Release{}, err
	}
	coords := release.DefaultCoordinates(tag)
	rel, ok := m.Find(coords)
	if !ok {
		return manifest.Release{}, fmt.Errorf("manifest has no release %s", coords)
	}
	return rel, nil
}
