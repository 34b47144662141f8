// Command shelf manages a personal bibliography kept as YAML units.
package main

import (
	"os"

	"github.com/mesh-intelligence/bibshelf/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
