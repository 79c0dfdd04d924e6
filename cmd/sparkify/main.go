// Command sparkify loads the Sparkify datasets into Postgres and serves the
// listening dashboard.
package main

import (
	"os"

	"github.com/justestif/go-sparkify/internal/cli"
)

func main() {
	os.Exit(int(cli.Run()))
}
