// Command vqb translates visual query builder pipelines into MongoDB
// aggregation stages and SQLite queries.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/vqb/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		// Commands report their own errors; only unhandled ones reach here.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
