// Command snailer is the shim package managers put on PATH. It runs the
// binary that snailer-dist installed and exits with the binary's status.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/felixaihub/snailer-dist/internal/config"
	"github.com/felixaihub/snailer-dist/internal/launcher"
	"github.com/felixaihub/snailer-dist/internal/path"
)

func main() {
	var opts []path.Option
	if dir := config.NewLoader("").Viper().GetString(config.KeyInstallDir); dir != "" {
		opts = append(opts, path.WithInstallDir(dir))
	}

	layout, err := path.New(opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s%v\n", launcher.MessagePrefix, err)
		os.Exit(launcher.ExitFailure)
	}

	os.Exit(launcher.New(layout).Run(context.Background(), os.Args[1:]))
}
