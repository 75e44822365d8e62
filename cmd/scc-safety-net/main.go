// Command scc-safety-net guards agent shell commands against destructive git
// operations.
package main

import (
	"os"

	"github.com/Dicklesworthstone/scc-safety-net/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
