// Command nsguard checks the type dependencies of a source tree against a
// namespace dependency policy.
package main

import (
	"os"

	"nsguard/internal/ui/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
