// Command autosave manages a settings document persisted through a
// debounced write-back synchronizer.
package main

import (
	"os"

	"github.com/kvisten/autosave/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		// Commands print their own errors; the exit code carries the class.
		os.Exit(cli.GetExitCode(err))
	}
}
