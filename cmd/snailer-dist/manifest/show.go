package manifest

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	internalmanifest "github.com/felixaihub/snailer-dist/internal/manifest"
)

var showFile string

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the release manifest",
	Long: `Display the release manifest as YAML.

Without --file the manifest embedded in this binary is shown.`,
	RunE: runShow,
}

func init() {
	showCmd.Flags().StringVarP(&showFile, "file", "f", "", "Manifest file (default: embedded)")
}

func runShow(cmd *cobra.Command, _ []string) error {
	m, err := internalmanifest.Load(showFile)
	if err != nil {
		return err
	}

	if f := cmd.Flag("output"); f != nil && f.Value.String() == "json" {
		data, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal manifest: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	data, err := m.Marshal()
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
