// Command replayer drives checkpoint replay and verification against a
// recorded ledger archive.
package main

import (
	"fmt"
	"os"

	"github.com/ledgerlab/replayer/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
