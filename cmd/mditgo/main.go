// Command mditgo indexes one or more markdown vaults and serves hybrid
// search over them, either as an MCP server for AI clients or via direct
// CLI subcommands.
package main

import (
	"fmt"
	"os"

	"github.com/mditgo/mditgo/cmd/mditgo/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
