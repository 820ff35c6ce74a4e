// Command synchronizer aligns the GET and FRIB event streams of AT-TPC
// merger runs and writes one synchronized container per run.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/attpc/synchronizer/internal/cli"
	"github.com/attpc/synchronizer/internal/syncfile"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	syncfile.Version = "synchronizer:" + version

	err := cli.NewRootCommand().Execute()
	if err == nil {
		return
	}

	// Commands report their own ExitErrors.
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
