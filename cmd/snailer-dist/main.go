package main

import (
	"os"

	"github.com/felixaihub/snailer-dist/internal/errors"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		formatter := errors.NewFormatter(os.Stderr, noColor)
		if outputFormat == outputJSON {
			if data, jsonErr := formatter.FormatJSON(err); jsonErr == nil {
				os.Stderr.Write(append(data, '\n'))
				os.Exit(1)
			}
		}
		formatter.Print(err)
		os.Exit(1)
	}
}
