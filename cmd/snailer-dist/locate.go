package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixaihub/snailer-dist/internal/config"
	"github.com/felixaihub/snailer-dist/internal/path"
	"github.com/felixaihub/snailer-dist/internal/platform"
	"github.com/felixaihub/snailer-dist/internal/release"
	"github.com/felixaihub/snailer-dist/internal/ui"
)

// LocateInfo describes where the release asset for a platform lives.
type LocateInfo struct {
	Platform   string `json:"platform"`
	Triple     string `json:"triple"`
	Filename   string `json:"filename"`
	Kind       string `json:"kind"`
	URL        string `json:"url"`
	BinaryPath string `json:"binaryPath"`
}

var (
	locateOS   string
	locateArch string
)

var locateCmd = &cobra.Command{
	Use:   "locate",
	Short: "Print the release asset URL for a platform",
	Long: `Resolve the platform triple and release asset without downloading anything.

Defaults to the host platform; use --os and --arch to look up another one.`,
	RunE: runLocate,
}

func init() {
	addReleaseFlags(locateCmd)
	locateCmd.Flags().String("install-dir", "", "Install directory (env SNAILER_INSTALL_DIR)")
	locateCmd.Flags().StringVar(&locateOS, "os", "", "Target OS in GOOS form (default: host)")
	locateCmd.Flags().StringVar(&locateArch, "arch", "", "Target architecture in GOARCH form (default: host)")
}

func runLocate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.IsLatest() {
		return fmt.Errorf("locate needs a concrete version, not %q", config.VersionLatest)
	}

	key := platform.Detect()
	if locateOS != "" {
		key.OS = platform.OS(locateOS)
	}
	if locateArch != "" {
		key.Arch = platform.Arch(locateArch)
	}

	triple, err := platform.Resolve(key)
	if err != nil {
		return err
	}

	layout, err := newLayout(cfg, path.WithOS(key.OS))
	if err != nil {
		return err
	}

	asset := release.Locate(cfg.BaseURL, cfg.Coordinates(), triple, key.OS)
	info := LocateInfo{
		Platform:   key.String(),
		Triple:     string(asset.Triple),
		Filename:   asset.Filename,
		Kind:       string(asset.Kind),
		URL:        asset.URL,
		BinaryPath: layout.BinaryPath(),
	}

	if outputFormat == outputJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}

	style := ui.NewStyle()
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s %s\n", style.Header.Sprint("Platform:"), info.Platform)
	fmt.Fprintf(w, "%s   %s\n", style.Header.Sprint("Triple:"), info.Triple)
	fmt.Fprintf(w, "%s    %s (%s)\n", style.Header.Sprint("Asset:"), info.Filename, info.Kind)
	fmt.Fprintf(w, "%s      %s\n", style.Header.Sprint("URL:"), info.URL)
	fmt.Fprintf(w, "%s   %s\n", style.Header.Sprint("Binary:"), style.Path.Sprint(info.BinaryPath))
	return nil
}
