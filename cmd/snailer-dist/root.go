package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	manifestcmd "github.com/felixaihub/snailer-dist/cmd/snailer-dist/manifest"
	"github.com/felixaihub/snailer-dist/internal/ui"
)

const (
	outputText = "text"
	outputJSON = "json"
)

var (
	logLevel     string
	noColor      bool
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "snailer-dist",
	Short: "Install and package the snailer CLI",
	Long: `snailer-dist fetches the prebuilt snailer binary for this machine
from GitHub Releases and places it next to the launcher shim.

It also maintains the release manifest of per-platform digests
and renders the Homebrew formula from it:
  snailer-dist install            Download and install the binary
  snailer-dist manifest add       Record digests for a new release
  snailer-dist formula            Render the Homebrew formula
  snailer-dist doctor             Diagnose a broken installation`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", outputText, "Output format (text, json)")

	rootCmd.AddCommand(
		versionCmd,
		installCmd,
		locateCmd,
		doctorCmd,
		formulaCmd,
		manifestcmd.Cmd,
	)
}

func setup(cmd *cobra.Command, _ []string) error {
	switch outputFormat {
	case outputText, outputJSON:
	default:
		return fmt.Errorf("unsupported output format %q (expected %s or %s)", outputFormat, outputText, outputJSON)
	}

	if noColor || os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}

	slog.SetDefault(slog.New(ui.NewLogHandler(cmd.ErrOrStderr(), parseLogLevel(logLevel))))
	return nil
}

// parseLogLevel converts a string log level to slog.Level.
// Accepted values: "debug", "info", "warn", "error" (case-insensitive).
// Defaults to slog.LevelWarn for unrecognized values.
func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
