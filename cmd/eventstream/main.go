// Command eventstream appends to and queries an indexed event log.
package main

import (
	"os"

	"github.com/roach88/eventstream/internal/cli"
	"github.com/roach88/eventstream/internal/eventstream"
)

func main() {
	os.Exit(cli.ExecuteWith(eventstream.DefaultRegistry, os.Args[1:], os.Stdout, os.Stderr))
}
