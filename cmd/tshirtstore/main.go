// Command tshirtstore runs the account and session service.
package main

import (
	"fmt"
	"os"
)

// Set at build time with -ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	cmd := NewRootCmd()
	cmd.Version = fmt.Sprintf("%s (commit: %s)", version, commit)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
