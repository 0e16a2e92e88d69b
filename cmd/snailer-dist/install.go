package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixaihub/snailer-dist/internal/config"
	"github.com/felixaihub/snailer-dist/internal/github"
	"github.com/felixaihub/snailer-dist/internal/installer"
	"github.com/felixaihub/snailer-dist/internal/installer/download"
	"github.com/felixaihub/snailer-dist/internal/manifest"
	"github.com/felixaihub/snailer-dist/internal/ui"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Download and install the snailer binary",
	Long: `Download the release archive for this platform, verify its digest,
and place the binary where the snailer launcher looks for it.

Set SNAILER_SKIP_POSTINSTALL=1 to skip the download entirely.
On failure the manual download URL is printed and the exit status is 1.`,
	RunE: runInstall,
}

func init() {
	addReleaseFlags(installCmd)
	installCmd.Flags().String("install-dir", "", "Install directory (env SNAILER_INSTALL_DIR)")
	installCmd.Flags().String("sha256", "", "Expected archive digest (env SNAILER_SHA256)")
	installCmd.Flags().String("manifest", "", "Release manifest file (env SNAILER_MANIFEST)")
	installCmd.Flags().Bool("require-checksum", false, "Fail when no digest is available (env SNAILER_REQUIRE_CHECKSUM)")
}

func runInstall(cmd *cobra.Command, _ []string) error {
	// The skip toggle wins over every other setting, valid or not.
	if config.NewLoader(version).SkipRequested() {
		return printInstallResult(cmd, installer.ReportSkipped(cmd.OutOrStdout()))
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	layout, err := newLayout(cfg)
	if err != nil {
		return err
	}

	var opts []installer.InstallOption
	if !cfg.Skip() {
		m, err := manifest.Load(cfg.Manifest)
		if err != nil {
			return fmt.Errorf("failed to load release manifest: %w", err)
		}
		opts = append(opts,
			installer.WithManifest(m),
			installer.WithReleaseResolver(github.NewClient(github.NewHTTPClient(cfg.GitHubToken, github.APITimeout))),
		)
	}
	opts = append(opts, installer.WithOutput(cmd.OutOrStdout()))

	downloader := download.NewDownloader(
		github.NewHTTPClient(cfg.GitHubToken, 0),
		download.WithUserAgent("snailer-dist/"+version),
	)

	pm := ui.NewProgressManager(cmd.ErrOrStderr())
	ctx := pm.Context(cmd.Context(), cfg.Name)

	result, err := installer.New(cfg, layout, downloader, opts...).Install(ctx)
	if err != nil {
		pm.Abort()
		pm.Wait()
		return err
	}
	pm.Complete()
	pm.Wait()

	return printInstallResult(cmd, result)
}

func printInstallResult(cmd *cobra.Command, result *installer.Result) error {
	if outputFormat != outputJSON {
		return nil
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
