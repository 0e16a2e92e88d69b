package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/felixaihub/snailer-dist/internal/doctor"
	"github.com/felixaihub/snailer-dist/internal/ui"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose the installation",
	Long: `Diagnose the installation for problems that stop the snailer shim from
starting the binary.

Checks for:
  - A missing install directory or binary
  - A binary that is not an executable regular file
  - An installer currently holding the install lock
  - Several snailer shims on PATH`,
	RunE: runDoctor,
}

func init() {
	doctorCmd.Flags().String("install-dir", "", "Install directory (env SNAILER_INSTALL_DIR)")
	doctorCmd.Flags().StringVar(&configFile, "config", "", "Optional YAML config file")
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	layout, err := newLayout(cfg)
	if err != nil {
		return err
	}

	result, err := doctor.New(layout).Check(cmd.Context())
	if err != nil {
		return fmt.Errorf("doctor check failed: %w", err)
	}

	if outputFormat == outputJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	printDoctorResult(cmd, result)
	return nil
}

func printDoctorResult(cmd *cobra.Command, result *doctor.Result) {
	style := ui.NewStyle()

	style.Header.Fprintln(cmd.OutOrStdout(), "Installation Health Check")
	cmd.Printf("  binary: %s\n", style.Path.Sprint(result.BinaryPath))
	cmd.Println()

	if !result.HasIssues() {
		cmd.Printf("%s No issues found. Installation is healthy.\n", style.SuccessMark)
		return
	}

	if len(result.Issues) > 0 {
		cmd.Printf("[%s]\n", color.New(color.FgRed).Sprint("Install Issues"))
		for _, issue := range result.Issues {
			cmd.Printf("  %s %s\n", style.FailMark, issue.Message())
		}
		cmd.Println()
	}

	if len(result.Conflicts) > 0 {
		cmd.Printf("[%s]\n", color.New(color.FgYellow).Sprint("Conflicts"))
		for _, conflict := range result.Conflicts {
			cmd.Printf("  %s %s: found in %s\n", style.WarnMark, conflict.Name, strings.Join(conflict.Locations, ", "))
			if conflict.ResolvedTo != "" {
				cmd.Printf("       PATH resolves to: %s\n", style.Path.Sprint(conflict.ResolvedTo))
			}
		}
		cmd.Println()
	}

	style.Header.Fprintln(cmd.OutOrStdout(), "Suggestions:")
	cmd.Printf("  %s\n", style.Success.Sprint("snailer-dist install"))
}
